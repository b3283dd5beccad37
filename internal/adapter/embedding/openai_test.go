package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanrag/internal/domain"
)

type fakeRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type fakeEmbedding struct {
	Object    string    `json:"object"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

// newFakeServer answers /embeddings with [len(text), index-in-batch, 1]
// vectors, returned in reverse order to exercise index placement.
func newFakeServer(t *testing.T, calls *int32, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		if r.URL.Path != "/embeddings" {
			http.NotFound(w, r)
			return
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}

		var req fakeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		data := make([]fakeEmbedding, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, fakeEmbedding{
				Object:    "embedding",
				Embedding: []float32{float32(len(req.Input[i])), float32(i), 1},
				Index:     i,
			})
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
}

func TestOpenAIEmbedder_BatchesAndOrders(t *testing.T) {
	var calls int32
	srv := newFakeServer(t, &calls, http.StatusOK)
	defer srv.Close()

	e := newOpenAIEmbedder("test-key", "custom-model", srv.URL, 0).WithBatchSize(2)
	assert.Equal(t, 0, e.Dimension())

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	vecs, err := e.Embed(context.Background(), texts)
	require.NoError(t, err)

	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
	require.Len(t, vecs, len(texts))
	for i, v := range vecs {
		assert.Equal(t, float32(len(texts[i])), v[0], "vector %d out of order", i)
	}
	assert.Equal(t, 3, e.Dimension())
	assert.Equal(t, "custom-model", e.ModelName())
}

func TestOpenAIEmbedder_DimensionMismatch(t *testing.T) {
	var calls int32
	srv := newFakeServer(t, &calls, http.StatusOK)
	defer srv.Close()

	e := newOpenAIEmbedder("test-key", "text-embedding-3-small", srv.URL, 1536)
	_, err := e.Embed(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, domain.ErrEmbeddingProvider)
}

func TestOpenAIEmbedder_ServerError(t *testing.T) {
	var calls int32
	srv := newFakeServer(t, &calls, http.StatusInternalServerError)
	defer srv.Close()

	e := newOpenAIEmbedder("test-key", "m", srv.URL, 0)
	vecs, err := e.Embed(context.Background(), []string{"x", "y"})
	assert.ErrorIs(t, err, domain.ErrEmbeddingProvider)
	assert.Nil(t, vecs)
}

func TestOpenAIEmbedder_Empty(t *testing.T) {
	e := newOpenAIEmbedder("k", "m", "http://127.0.0.1:0", 0)
	vecs, err := e.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestNewOpenAICompatibleEmbedder_MissingKey(t *testing.T) {
	t.Setenv("LOANRAG_TEST_MISSING_KEY", "")
	_, err := NewOpenAICompatibleEmbedder("LOANRAG_TEST_MISSING_KEY", "text-embedding-3-small", DefaultOpenAIBaseURL)
	assert.Error(t, err)
}

func TestNewOllamaEmbedder_Dimensions(t *testing.T) {
	assert.Equal(t, 384, NewOllamaEmbedder("all-minilm", "").Dimension())
	assert.Equal(t, 768, NewOllamaEmbedder("nomic-embed-text", "").Dimension())
	assert.Equal(t, 0, NewOllamaEmbedder("something-else", "").Dimension())
}

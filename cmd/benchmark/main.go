package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"loanrag/config"
	"loanrag/internal/cli"
	"loanrag/internal/logging"
	"loanrag/internal/usecase"
)

func main() {
	indexPath := flag.String("index", ".", "Path to the directory holding loanrag.yaml and the built index")
	query := flag.String("q", "", "Query to test")
	topK := flag.Int("k", 3, "Number of results")
	iterations := flag.Int("n", 100, "Number of timed retrievals")
	workers := flag.Int("c", 1, "Concurrent callers")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: go run ./cmd/benchmark -index . -q \"query\" [-k 3] [-n 100] [-c 4]")
		fmt.Println("\nReports:")
		fmt.Println("  1. Index shape (chunks, dimension, model)")
		fmt.Println("  2. Top-k matches with L2 distances")
		fmt.Println("  3. Retrieval latency percentiles under concurrent callers")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*indexPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	st, err := cli.OpenStore(cfg, *indexPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening index: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	ctx := context.Background()
	snap, err := usecase.OpenSnapshot(ctx, st)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Index not available: %v\n", err)
		os.Exit(1)
	}

	embedder, err := cli.NewEmbedder(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedder init failed: %v\n", err)
		os.Exit(1)
	}
	retriever := usecase.NewRetriever(snap, embedder, logging.Discard())

	fmt.Println("RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Chunks indexed: %d\n", snap.Index.Count())
	fmt.Printf("Model: %s (%s)\n", snap.Manifest.Model, cfg.Embedding.Provider)
	fmt.Printf("Dimension: %d\n", snap.Index.Dimension())
	fmt.Println()

	fmt.Printf("Query: \"%s\"\n", *query)
	fmt.Println(strings.Repeat("-", 70))

	results, err := retriever.Retrieve(ctx, *query, *topK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Top %d matches:\n\n", len(results))
	for i, r := range results {
		preview := r.Content
		if len([]rune(preview)) > 150 {
			preview = string([]rune(preview)[:150]) + "..."
		}
		preview = strings.ReplaceAll(preview, "\n", " ")

		fmt.Printf("%d. [%.4f] %s (%s)\n", i+1, r.Distance, r.ChunkID, r.LoanType)
		fmt.Printf("   %s\n\n", preview)
	}

	latencies, failures := run(ctx, retriever, *query, *topK, *iterations, *workers)

	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("LATENCY (%d retrievals, %d callers):\n", len(latencies), *workers)
	if len(latencies) == 0 {
		fmt.Println("  no successful retrievals")
	} else {
		fmt.Printf("  p50: %s\n", percentile(latencies, 0.50))
		fmt.Printf("  p95: %s\n", percentile(latencies, 0.95))
		fmt.Printf("  max: %s\n", latencies[len(latencies)-1])
	}
	if failures > 0 {
		fmt.Printf("  failures: %d\n", failures)
	}
}

// run issues n retrievals spread over workers goroutines and returns the
// sorted latencies of the successful ones.
func run(ctx context.Context, r *usecase.Retriever, query string, k, n, workers int) ([]time.Duration, int) {
	if workers < 1 {
		workers = 1
	}

	var (
		mu        sync.Mutex
		latencies = make([]time.Duration, 0, n)
		failures  int
		wg        sync.WaitGroup
	)

	jobs := make(chan struct{})
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				start := time.Now()
				_, err := r.Retrieve(ctx, query, k)
				elapsed := time.Since(start)

				mu.Lock()
				if err != nil {
					failures++
				} else {
					latencies = append(latencies, elapsed)
				}
				mu.Unlock()
			}
		}()
	}

	for i := 0; i < n; i++ {
		jobs <- struct{}{}
	}
	close(jobs)
	wg.Wait()

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	return latencies, failures
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	i := int(p * float64(len(sorted)-1))
	return sorted[i]
}

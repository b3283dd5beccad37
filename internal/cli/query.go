package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"loanrag/internal/adapter/cache"
	"loanrag/internal/adapter/store"
	"loanrag/internal/usecase"
)

var (
	queryText    string
	queryTopK    int
	queryJSON    bool
	queryContext bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Retrieve the chunks closest to a question",
	Long: `Embed the question and return the nearest chunks by L2 distance, each with
its loan type, URL and key information.

Examples:
  loanrag query -q "what is the tenure of a home loan"
  loanrag query -q "gold loan interest" -k 5 --json
  loanrag query -q "education loan collateral" --context`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.Flags().BoolVar(&queryContext, "context", false, "output the context block used for answer generation")
	queryCmd.MarkFlagRequired("query")
	queryCmd.MarkFlagsMutuallyExclusive("json", "context")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	log := GetLogger()
	ctx := cmd.Context()

	st, err := OpenStore(cfg, GetRootDir())
	if err != nil {
		return fmt.Errorf("failed to open index store: %w", err)
	}
	defer st.Close()

	snap, err := usecase.OpenSnapshot(ctx, st)
	if err != nil {
		return fmt.Errorf("no usable index, run 'loanrag build' first: %w", err)
	}

	if ok, reason := store.CheckCompatibility(snap.Manifest, cfg); !ok {
		log.Warn("index was built with different settings", "reason", reason)
	}

	embedder, err := NewEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	retriever := usecase.NewRetriever(snap, embedder, log)
	if cfg.Retrieve.CacheSize > 0 {
		retriever.WithCache(cache.NewQueryCache(cfg.Retrieve.CacheSize, cfg.Retrieve.CacheTTL))
	}

	topK := cfg.Retrieve.TopK
	if queryTopK > 0 {
		topK = queryTopK
	}

	results, err := retriever.Retrieve(ctx, queryText, topK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	switch {
	case queryJSON:
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
	case queryContext:
		fmt.Println(usecase.FormatContext(results))
	default:
		if len(results) == 0 {
			fmt.Println("No results found.")
			return nil
		}
		fmt.Printf("Found %d results for: %s\n\n", len(results), queryText)
		for i, r := range results {
			fmt.Printf("--- [%d] %s (%s, distance: %.4f) ---\n", i+1, r.ChunkID, r.LoanType, r.Distance)
			if r.URL != "" {
				fmt.Printf("URL: %s\n", r.URL)
			}
			if r.KeyInfo != "" {
				fmt.Printf("Key Info: %s\n", r.KeyInfo)
			}
			text := r.Content
			if len([]rune(text)) > 500 {
				text = string([]rune(text)[:500]) + "..."
			}
			fmt.Println(strings.TrimSpace(text))
			fmt.Println()
		}
	}

	return nil
}

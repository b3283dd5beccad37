package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"loanrag/internal/adapter/store"
	"loanrag/internal/usecase"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Describe the current index",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	st, err := OpenStore(cfg, GetRootDir())
	if err != nil {
		return fmt.Errorf("failed to open index store: %w", err)
	}
	defer st.Close()

	snap, err := usecase.OpenSnapshot(cmd.Context(), st)
	if err != nil {
		return fmt.Errorf("no usable index, run 'loanrag build' first: %w", err)
	}

	m := snap.Manifest
	loanTypes := make(map[string]int)
	for _, r := range snap.Metadata.Records() {
		loanTypes[r.LoanType]++
	}

	fmt.Printf("Index statistics:\n")
	fmt.Printf("  Build ID:    %s\n", m.BuildID)
	fmt.Printf("  Created:     %s\n", m.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("  Backend:     %s\n", cfg.Storage.Backend)
	fmt.Printf("  Chunks:      %d\n", snap.Index.Count())
	fmt.Printf("  Loan types:  %d\n", len(loanTypes))
	fmt.Printf("  Dimension:   %d\n", snap.Index.Dimension())
	fmt.Printf("  Model:       %s\n", m.Model)
	fmt.Printf("  Config hash: %s\n", m.ConfigHash)

	if ok, reason := store.CheckCompatibility(m, cfg); !ok {
		fmt.Printf("\nWarning: %s\n", reason)
	}
	return nil
}

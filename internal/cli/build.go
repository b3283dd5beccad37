package cli

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"loanrag/internal/adapter/chunker"
	"loanrag/internal/adapter/fs"
	"loanrag/internal/adapter/source"
	"loanrag/internal/adapter/store"
	"loanrag/internal/usecase"
)

var buildCmd = &cobra.Command{
	Use:   "build [path]",
	Short: "Build the vector index from loan documents",
	Long: `Read loan documents, split their details into overlapping chunks, embed
every chunk and persist the index together with its metadata. The previous
build is replaced only when the new one succeeds.

Source files are either the text export (blocks separated by blank lines) or a
JSON array of {loan_type, url, key_info, details} objects.

Examples:
  loanrag build                 # Index the configured source path
  loanrag build data/loans.txt  # Index a single file`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	log := GetLogger()
	root := GetRootDir()

	path := cfg.SourcePath(root)
	if len(args) > 0 {
		path = args[0]
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("source path does not exist: %w", err)
	}

	walker := fs.NewWalker(cfg.Sources.Includes, cfg.Sources.Excludes)
	loaded, err := source.NewLoader(walker, log).Load(path)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %d documents from %d files (%d blocks skipped)\n",
		len(loaded.Documents), loaded.Files, len(loaded.Skipped))

	splitter, err := chunker.NewRecursiveSplitter(cfg.Chunk.MaxSize, cfg.Chunk.Overlap)
	if err != nil {
		return err
	}
	embedder, err := NewEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	st, err := OpenStore(cfg, root)
	if err != nil {
		return fmt.Errorf("failed to open index store: %w", err)
	}
	defer st.Close()

	buildUC := usecase.NewBuildUseCase(chunker.NewDocumentChunker(splitter), embedder, cfg.Embedding.BatchSize, log)

	result, manifest, err := buildUC.BuildAndSave(cmd.Context(), st, loaded.Documents, store.ComputeConfigHash(cfg), newProgress())
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	report := result.Report
	fmt.Printf("\nBuild complete:\n")
	fmt.Printf("  Build ID:     %s\n", manifest.BuildID)
	fmt.Printf("  Documents:    %d\n", report.Documents)
	fmt.Printf("  Chunks:       %d\n", report.Chunks)
	fmt.Printf("  Dimension:    %d\n", report.Dimension)
	fmt.Printf("  Model:        %s\n", report.Model)
	fmt.Printf("  Duration:     %s\n", formatDuration(report.Duration))

	if len(report.EmptyDocuments) > 0 || len(loaded.Skipped) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, s := range loaded.Skipped {
			fmt.Printf("  - %s block %d: %v\n", s.Source, s.Block, s.Err)
		}
		for _, name := range report.EmptyDocuments {
			fmt.Printf("  - %s: no details to index\n", name)
		}
	}

	fmt.Printf("\nIndex stored at: %s\n", cfg.ArtifactDir(root))
	return nil
}

// newProgress returns a callback driving a progress bar that is created on
// the first batch, once the chunk total is known.
func newProgress() usecase.ProgressFunc {
	var (
		bar       *progressbar.ProgressBar
		mu        sync.Mutex
		startTime time.Time
	)

	return func(done, total int) {
		mu.Lock()
		defer mu.Unlock()

		if bar == nil {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}

		bar.Set(done)

		if done > 0 && done < total {
			elapsed := time.Since(startTime)
			rate := float64(done) / elapsed.Seconds()
			if rate > 0 {
				eta := time.Duration(float64(total-done)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]Embedding[reset] ETA: %s", formatDuration(eta)))
			}
		}
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}

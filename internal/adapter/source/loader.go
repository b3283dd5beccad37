package source

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"loanrag/internal/domain"
	"loanrag/internal/port"
)

// LoadResult holds the documents read from all sources, in source order.
type LoadResult struct {
	Files     int
	Documents []domain.Document
	Skipped   []Skipped
}

// Loader reads documents from every file a walker selects.
type Loader struct {
	walker port.FileWalker
	logger *slog.Logger
}

func NewLoader(walker port.FileWalker, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{walker: walker, logger: logger}
}

// Load walks root and parses each file by extension (.json or text).
// Malformed blocks are logged and skipped; unreadable files fail the load.
func (l *Loader) Load(root string) (*LoadResult, error) {
	files, err := l.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk sources: %w", err)
	}

	result := &LoadResult{}
	for _, f := range files {
		docs, skipped, err := l.LoadFile(f.Path)
		if err != nil {
			return nil, err
		}
		result.Files++
		result.Documents = append(result.Documents, docs...)
		result.Skipped = append(result.Skipped, skipped...)
	}

	l.logger.Info("loaded sources",
		slog.Int("files", result.Files),
		slog.Int("documents", len(result.Documents)),
		slog.Int("skipped", len(result.Skipped)))

	return result, nil
}

func (l *Loader) LoadFile(path string) ([]domain.Document, []Skipped, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var (
		docs    []domain.Document
		skipped []Skipped
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		docs, skipped, err = ParseJSON(path, data)
		if err != nil {
			return nil, nil, err
		}
	} else {
		docs, skipped = ParseText(path, string(data))
	}

	for _, s := range skipped {
		l.logger.Warn("skipping malformed block",
			slog.String("source", s.Source),
			slog.Int("block", s.Block),
			slog.String("error", s.Err.Error()))
	}
	return docs, skipped, nil
}

package source

import (
	"fmt"
	"strings"

	"loanrag/internal/domain"
)

const (
	labelURL     = "URL:"
	labelKeyInfo = "Key Info Highlights:"
	labelDetails = "Details:"
)

// Skipped describes an input block that could not be turned into a Document.
type Skipped struct {
	Source string
	Block  int
	Err    error
}

// ParseText reads the collection step's text export: a heading section
// followed by blank-line separated blocks of
//
//	<loan type>
//	URL: <url>
//	Key Info Highlights: <key info>
//	Details: <details>
//
// Malformed blocks are returned in skipped instead of failing the parse.
func ParseText(name, raw string) (docs []domain.Document, skipped []Skipped) {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	sections := strings.Split(strings.TrimSpace(raw), "\n\n")
	if len(sections) < 2 {
		return nil, nil
	}

	for i, section := range sections[1:] {
		block := i + 1
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}

		doc, err := parseBlock(section)
		if err != nil {
			skipped = append(skipped, Skipped{Source: name, Block: block, Err: err})
			continue
		}
		docs = append(docs, doc)
	}
	return docs, skipped
}

func parseBlock(section string) (domain.Document, error) {
	lines := strings.Split(section, "\n")
	if len(lines) < 4 {
		return domain.Document{}, fmt.Errorf("%w: expected at least 4 lines, got %d", domain.ErrMalformedBlock, len(lines))
	}

	details := make([]string, 0, len(lines)-3)
	for _, l := range lines[3:] {
		details = append(details, strings.TrimSpace(l))
	}

	doc := domain.Document{
		LoanType: strings.TrimSpace(lines[0]),
		URL:      stripLabel(lines[1], labelURL),
		KeyInfo:  stripLabel(lines[2], labelKeyInfo),
		Details:  stripLabel(strings.Join(details, "\n"), labelDetails),
	}
	return doc, validate(doc)
}

func stripLabel(line, label string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), label))
}

func validate(doc domain.Document) error {
	if doc.LoanType == "" {
		return fmt.Errorf("%w: missing loan type", domain.ErrMalformedBlock)
	}
	if doc.Details == "" {
		return fmt.Errorf("%w: %s has no details", domain.ErrMalformedBlock, doc.LoanType)
	}
	return nil
}

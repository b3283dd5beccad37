package source

import (
	"encoding/json"
	"fmt"
	"strings"

	"loanrag/internal/domain"
)

// ParseJSON reads an array of {loan_type, url, key_info, details} objects.
// Entries without a loan type or details are skipped.
func ParseJSON(name string, data []byte) ([]domain.Document, []Skipped, error) {
	var raw []domain.Document
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}

	var (
		docs    []domain.Document
		skipped []Skipped
	)
	for i, doc := range raw {
		doc.LoanType = strings.TrimSpace(doc.LoanType)
		doc.URL = strings.TrimSpace(doc.URL)
		doc.KeyInfo = strings.TrimSpace(doc.KeyInfo)
		doc.Details = strings.TrimSpace(doc.Details)

		if err := validate(doc); err != nil {
			skipped = append(skipped, Skipped{Source: name, Block: i, Err: err})
			continue
		}
		docs = append(docs, doc)
	}
	return docs, skipped, nil
}

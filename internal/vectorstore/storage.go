// Package vectorstore defines the surrogate record store: records hold the
// summary text plus linking metadata, and the backend computes and stores
// vector representations internally.
package vectorstore

import "context"

// Record is one stored surrogate: its text and the metadata linking it back
// to the original content entry.
type Record struct {
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
}

// Store persists surrogate records and supports similarity search over them.
type Store interface {
	AddRecords(ctx context.Context, records []Record) error
	SimilaritySearch(ctx context.Context, query string, k int) ([]Record, error)
}

// Package index maintains the two stores that make multi-vector retrieval
// work: a vector store over surrogate summaries and a key-value docstore
// over original content, kept in lock-step through a generated id carried
// as metadata on each surrogate record.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"multirag/internal/docstore"
	"multirag/internal/domain"
	"multirag/internal/vectorstore"
)

// IDKey is the metadata key linking a surrogate record to its original in
// the docstore. It must be the same everywhere.
const IDKey = "doc_id"

// Index is the dual-store index. AddBatch cycles are serialized so the
// vector-insert / snapshot-rewrite sequence never interleaves.
type Index struct {
	mu      sync.Mutex
	vectors vectorstore.Store
	docs    *docstore.Store
	log     *slog.Logger
}

// New creates an Index over the given stores. A nil logger falls back to
// the default.
func New(vectors vectorstore.Store, docs *docstore.Store, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{vectors: vectors, docs: docs, log: logger}
}

// Batches carries the positional surrogate/original pairs for all three
// content kinds of one ingestion.
type Batches struct {
	TextSummaries  []domain.Surrogate
	Texts          []domain.ContentUnit
	TableSummaries []domain.Surrogate
	Tables         []domain.ContentUnit
	ImageSummaries []domain.Surrogate
	Images         []domain.ContentUnit
}

// AddBatch indexes surrogates into the vector store and writes the paired
// originals' payloads into the docstore under fresh ids, then persists the
// full docstore snapshot to docstorePath. Empty batches are a no-op.
// Mismatched lengths are a programming error and panic.
//
// The vector-store insert happens before docstore persistence: if
// persistence fails, the surrogate records exist but their targets are
// recoverable by re-running ingestion, whereas the reverse order would
// leave dangling ids.
func (x *Index) AddBatch(ctx context.Context, surrogates []domain.Surrogate, originals []domain.ContentUnit, docstorePath string) error {
	if len(surrogates) == 0 {
		return nil
	}
	if len(surrogates) != len(originals) {
		panic(fmt.Sprintf("index: AddBatch length mismatch: %d surrogates, %d originals",
			len(surrogates), len(originals)))
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	ids := make([]string, len(surrogates))
	records := make([]vectorstore.Record, len(surrogates))
	pairs := make([]docstore.Pair, len(surrogates))
	for i, surrogate := range surrogates {
		ids[i] = uuid.NewString()
		records[i] = vectorstore.Record{
			Text:     surrogate.Text,
			Metadata: map[string]string{IDKey: ids[i]},
		}
		pairs[i] = docstore.Pair{Key: ids[i], Value: originals[i].Payload}
	}

	if err := x.vectors.AddRecords(ctx, records); err != nil {
		return fmt.Errorf("index surrogates: %w", err)
	}
	x.docs.Set(pairs)
	if err := x.docs.Save(docstorePath); err != nil {
		return fmt.Errorf("persist docstore: %w", err)
	}

	x.log.Info("indexed batch", "items", len(surrogates))
	return nil
}

// IndexAll indexes texts, tables, and images as three separate batches so a
// failure in a later kind does not undo the earlier kinds, which have
// already been persisted.
func (x *Index) IndexAll(ctx context.Context, b Batches, docstorePath string) error {
	if err := x.AddBatch(ctx, b.TextSummaries, b.Texts, docstorePath); err != nil {
		return fmt.Errorf("index texts: %w", err)
	}
	if err := x.AddBatch(ctx, b.TableSummaries, b.Tables, docstorePath); err != nil {
		return fmt.Errorf("index tables: %w", err)
	}
	if err := x.AddBatch(ctx, b.ImageSummaries, b.Images, docstorePath); err != nil {
		return fmt.Errorf("index images: %w", err)
	}
	return nil
}

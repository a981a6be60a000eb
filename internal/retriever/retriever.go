// Package retriever resolves nearest-surrogate matches back to original
// content. It returns originals, never summaries, so the generator is
// grounded on full-fidelity content.
package retriever

import (
	"context"
	"errors"
	"fmt"

	"multirag/internal/content"
	"multirag/internal/docstore"
	"multirag/internal/index"
	"multirag/internal/vectorstore"
)

// ErrDanglingReference marks a surrogate match whose id has no docstore
// entry. This is an integrity violation between the two stores and is never
// silently dropped: skipping it would produce confidently-wrong grounding.
var ErrDanglingReference = errors.New("surrogate id has no docstore entry")

// Results is the retrieved original content, split so the downstream prompt
// builder can route each piece to the correct slot. Originals preserves the
// full similarity ranking; Texts and Images each preserve rank order within
// their type.
type Results struct {
	Originals []string
	Texts     []string
	Images    []string
}

// Retriever fetches original content for a query via the dual-store index.
type Retriever struct {
	vectors vectorstore.Store
	docs    *docstore.Store
	topK    int
}

// New creates a Retriever. topK <= 0 falls back to 6.
func New(vectors vectorstore.Store, docs *docstore.Store, topK int) *Retriever {
	if topK <= 0 {
		topK = 6
	}
	return &Retriever{vectors: vectors, docs: docs, topK: topK}
}

// Fetch embeds the query (inside the vector store, with the same embedder
// used at indexing time), finds the nearest surrogates, and resolves each
// matched id to its original content.
func (r *Retriever) Fetch(ctx context.Context, query string) (Results, error) {
	matches, err := r.vectors.SimilaritySearch(ctx, query, r.topK)
	if err != nil {
		return Results{}, fmt.Errorf("similarity search: %w", err)
	}

	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		id, ok := m.Metadata[index.IDKey]
		if !ok || id == "" {
			return Results{}, fmt.Errorf("surrogate record %q missing %s metadata: %w",
				m.Text, index.IDKey, ErrDanglingReference)
		}
		ids = append(ids, id)
	}

	values := r.docs.Get(ids)
	var res Results
	for i, v := range values {
		if v == nil {
			return Results{}, fmt.Errorf("resolve id %s: %w", ids[i], ErrDanglingReference)
		}
		res.Originals = append(res.Originals, *v)
		if content.LooksLikeBase64Image(*v) {
			res.Images = append(res.Images, *v)
		} else {
			res.Texts = append(res.Texts, *v)
		}
	}
	return res, nil
}

package retriever

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multirag/internal/docstore"
	"multirag/internal/index"
	"multirag/internal/vectorstore"
)

// stubStore returns a fixed match list regardless of query.
type stubStore struct {
	matches []vectorstore.Record
	gotK    int
}

func (s *stubStore) AddRecords(ctx context.Context, records []vectorstore.Record) error {
	return nil
}

func (s *stubStore) SimilaritySearch(ctx context.Context, query string, k int) ([]vectorstore.Record, error) {
	s.gotK = k
	return s.matches, nil
}

func record(id string) vectorstore.Record {
	return vectorstore.Record{Text: "summary", Metadata: map[string]string{index.IDKey: id}}
}

func TestFetchResolvesAndSplitsOriginals(t *testing.T) {
	imageData := strings.Repeat("iVBORw0KGgoAAAANSUhEUg", 20)
	store := &stubStore{matches: []vectorstore.Record{record("t1"), record("i1"), record("t2")}}
	docs := docstore.New()
	docs.Set([]docstore.Pair{
		{Key: "t1", Value: "Revenue grew 10%"},
		{Key: "i1", Value: imageData},
		{Key: "t2", Value: "Staff count is 50"},
	})

	r := New(store, docs, 6)
	res, err := r.Fetch(context.Background(), "revenue?")
	require.NoError(t, err)

	assert.Equal(t, []string{"Revenue grew 10%", imageData, "Staff count is 50"}, res.Originals)
	assert.Equal(t, []string{"Revenue grew 10%", "Staff count is 50"}, res.Texts)
	assert.Equal(t, []string{imageData}, res.Images)
	assert.Equal(t, 6, store.gotK)
}

func TestFetchDanglingIDIsError(t *testing.T) {
	store := &stubStore{matches: []vectorstore.Record{record("ghost")}}
	r := New(store, docstore.New(), 6)

	_, err := r.Fetch(context.Background(), "anything")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDanglingReference)
}

func TestFetchMissingIDMetadataIsError(t *testing.T) {
	store := &stubStore{matches: []vectorstore.Record{{Text: "orphan summary"}}}
	r := New(store, docstore.New(), 6)

	_, err := r.Fetch(context.Background(), "anything")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDanglingReference)
}

func TestTopKDefaultsToSix(t *testing.T) {
	store := &stubStore{}
	r := New(store, docstore.New(), 0)

	_, err := r.Fetch(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, 6, store.gotK)
}

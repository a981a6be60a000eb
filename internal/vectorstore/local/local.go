// Package local is a disk-backed vector store using brute-force cosine
// similarity. Records and their vectors are persisted as a JSON snapshot
// inside the configured directory and reloaded at startup.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"multirag/internal/embedding"
	"multirag/internal/vectorstore"
)

const snapshotFile = "records.json"

// Store embeds record texts via the shared embedder and searches them with
// brute-force cosine similarity. Vectors are L2-normalized at insert so
// search reduces to a dot product.
type Store struct {
	mu       sync.RWMutex
	dir      string
	embedder embedding.Embedder
	records  []storedRecord
}

type storedRecord struct {
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
	Vector   []float64         `json:"vector"`
}

// NewStore opens (or initializes) a store persisted under dir.
func NewStore(dir string, embedder embedding.Embedder) (*Store, error) {
	if embedder == nil {
		return nil, errors.New("local store: embedder is required")
	}
	s := &Store{dir: dir, embedder: embedder}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// AddRecords embeds and stores the given records, then persists the full
// snapshot.
func (s *Store) AddRecords(ctx context.Context, records []vectorstore.Record) error {
	if len(records) == 0 {
		return nil
	}
	stored := make([]storedRecord, 0, len(records))
	for _, rec := range records {
		vec, err := s.embedder.Embed(ctx, rec.Text)
		if err != nil {
			return fmt.Errorf("local store: embed record: %w", err)
		}
		stored = append(stored, storedRecord{
			Text:     rec.Text,
			Metadata: rec.Metadata,
			Vector:   normalize(vec),
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, stored...)
	return s.persistLocked()
}

// SimilaritySearch embeds the query and returns the k nearest records.
func (s *Store) SimilaritySearch(ctx context.Context, query string, k int) ([]vectorstore.Record, error) {
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("local store: embed query: %w", err)
	}
	qvec := normalize(vec)
	if k <= 0 {
		k = 6
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	scores := make([]float64, len(s.records))
	for i := range s.records {
		scores[i] = dot(s.records[i].Vector, qvec)
	}
	idxs := argsortDesc(scores)
	if k > len(idxs) {
		k = len(idxs)
	}
	out := make([]vectorstore.Record, 0, k)
	for i := 0; i < k; i++ {
		r := s.records[idxs[i]]
		out = append(out, vectorstore.Record{Text: r.Text, Metadata: r.Metadata})
	}
	return out, nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Store) snapshotPath() string { return filepath.Join(s.dir, snapshotFile) }

func (s *Store) load() error {
	data, err := os.ReadFile(s.snapshotPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("local store: read snapshot: %w", err)
	}
	if err := json.Unmarshal(data, &s.records); err != nil {
		return fmt.Errorf("local store: decode snapshot: %w", err)
	}
	return nil
}

func (s *Store) persistLocked() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("local store: create dir: %w", err)
	}
	data, err := json.Marshal(s.records)
	if err != nil {
		return fmt.Errorf("local store: encode snapshot: %w", err)
	}
	tmp := s.snapshotPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("local store: write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.snapshotPath()); err != nil {
		return fmt.Errorf("local store: replace snapshot: %w", err)
	}
	return nil
}

func normalize(v []float64) []float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func argsortDesc(vals []float64) []int {
	idxs := make([]int, len(vals))
	for i := range vals {
		idxs[i] = i
	}
	quicksort(idxs, vals, 0, len(idxs)-1)
	return idxs
}

func quicksort(idxs []int, vals []float64, lo, hi int) {
	if lo >= hi {
		return
	}
	i, j := lo, hi
	pivot := vals[idxs[(lo+hi)/2]]
	for i <= j {
		for vals[idxs[i]] > pivot { // desc order
			i++
		}
		for vals[idxs[j]] < pivot {
			j--
		}
		if i <= j {
			idxs[i], idxs[j] = idxs[j], idxs[i]
			i++
			j--
		}
	}
	if lo < j {
		quicksort(idxs, vals, lo, j)
	}
	if i < hi {
		quicksort(idxs, vals, i, hi)
	}
}

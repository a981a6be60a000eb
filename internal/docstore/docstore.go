// Package docstore holds original content payloads keyed by the generated
// id that links them to their surrogate records in the vector store.
package docstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Pair is one (id, original payload) entry.
type Pair struct {
	Key   string
	Value string
}

// Store is an in-memory key-value store over original content with
// whole-snapshot persistence: the full mapping is rewritten after every
// batch insertion, trading write efficiency for an always-consistent file.
type Store struct {
	mu    sync.RWMutex
	items map[string]string
}

// New returns an empty store.
func New() *Store {
	return &Store{items: make(map[string]string)}
}

// Load rehydrates a store from the snapshot at path. A missing file yields
// an empty store.
func Load(path string) (*Store, error) {
	s := New()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read docstore snapshot: %w", err)
	}
	if err := json.Unmarshal(data, &s.items); err != nil {
		return nil, fmt.Errorf("decode docstore snapshot: %w", err)
	}
	return s, nil
}

// Get returns one value pointer per key, nil for absent keys.
func (s *Store) Get(keys []string) []*string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*string, len(keys))
	for i, k := range keys {
		if v, ok := s.items[k]; ok {
			val := v
			out[i] = &val
		}
	}
	return out
}

// Set inserts or overwrites the given pairs.
func (s *Store) Set(pairs []Pair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range pairs {
		s.items[p.Key] = p.Value
	}
}

// Keys returns all stored keys in unspecified order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.items))
	for k := range s.items {
		out = append(out, k)
	}
	return out
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Save serializes the entire current mapping to path, replacing the file
// atomically so readers never observe a partial snapshot.
func (s *Store) Save(path string) error {
	s.mu.RLock()
	data, err := json.Marshal(s.items)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode docstore snapshot: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create docstore dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write docstore snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace docstore snapshot: %w", err)
	}
	return nil
}

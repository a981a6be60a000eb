// Package registry tracks which source documents have already been through
// the ingestion pipeline, so the UI can offer a re-index confirmation.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Registry is a persisted set of ingested document names. Add is
// read-modify-write with a full rewrite of the backing file; the set is
// small and ingestion is a rare, user-initiated operation.
type Registry struct {
	mu    sync.Mutex
	path  string
	names map[string]struct{}
}

// Load reads the registry from path. A missing file yields an empty registry.
func Load(path string) (*Registry, error) {
	r := &Registry{path: path, names: make(map[string]struct{})}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return r, nil
		}
		return nil, fmt.Errorf("read registry: %w", err)
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}
	for _, name := range list {
		r.names[name] = struct{}{}
	}
	return r, nil
}

// Has reports whether name was already ingested.
func (r *Registry) Has(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.names[name]
	return ok
}

// Add records name and persists the full updated set. Adding an existing
// name is a no-op on the set contents.
func (r *Registry) Add(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names[name] = struct{}{}
	return r.persistLocked()
}

// Names returns the registered names sorted for deterministic output.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sortedLocked()
}

func (r *Registry) sortedLocked() []string {
	out := make([]string, 0, len(r.names))
	for name := range r.names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// persistLocked serializes the set as a sorted list and replaces the file
// atomically, so readers see either the old or the new complete file.
func (r *Registry) persistLocked() error {
	data, err := json.MarshalIndent(r.sortedLocked(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	if dir := filepath.Dir(r.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create registry dir: %w", err)
		}
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write registry: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replace registry: %w", err)
	}
	return nil
}

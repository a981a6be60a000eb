// Package qdrant is a minimal REST client backend for the surrogate record
// store. It assumes cosine distance and creates the collection on first
// insert once the embedding dimension is known.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"multirag/internal/embedding"
	"multirag/internal/vectorstore"
)

// Config contains connection details for a Qdrant instance.
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// Store upserts surrogate records as Qdrant points carrying the record's
// text and metadata in the point payload.
type Store struct {
	url        string
	apiKey     string
	collection string
	embedder   embedding.Embedder
	client     *http.Client

	mu      sync.Mutex
	ensured bool
}

// NewStore creates a Qdrant-backed record store.
func NewStore(cfg Config, embedder embedding.Embedder) (*Store, error) {
	if cfg.URL == "" {
		return nil, errors.New("qdrant: URL is required")
	}
	if embedder == nil {
		return nil, errors.New("qdrant: embedder is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	collection := cfg.Collection
	if collection == "" {
		collection = "multimodal_rag"
	}
	return &Store{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: collection,
		embedder:   embedder,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

// AddRecords embeds the record texts and upserts them as points.
func (s *Store) AddRecords(ctx context.Context, records []vectorstore.Record) error {
	if len(records) == 0 {
		return nil
	}
	points := make([]map[string]any, len(records))
	for i, rec := range records {
		vec, err := s.embedder.Embed(ctx, rec.Text)
		if err != nil {
			return fmt.Errorf("qdrant: embed record: %w", err)
		}
		if err := s.ensureCollection(ctx, len(vec)); err != nil {
			return err
		}
		points[i] = map[string]any{
			"id":     uuid.NewString(),
			"vector": vec,
			"payload": map[string]any{
				"text":     rec.Text,
				"metadata": rec.Metadata,
			},
		}
	}
	body := map[string]any{"points": points}
	return s.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, s.collection), body)
}

// SimilaritySearch embeds the query and returns the k nearest records.
func (s *Store) SimilaritySearch(ctx context.Context, query string, k int) ([]vectorstore.Record, error) {
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("qdrant: embed query: %w", err)
	}
	if k <= 0 {
		k = 6
	}
	req := map[string]any{
		"vector":       vec,
		"limit":        k,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Payload struct {
				Text     string            `json:"text"`
				Metadata map[string]string `json:"metadata"`
			} `json:"payload"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", s.url, s.collection)
	if err := s.postJSON(ctx, url, req, &resp); err != nil {
		return nil, err
	}
	out := make([]vectorstore.Record, 0, len(resp.Result))
	for _, r := range resp.Result {
		out = append(out, vectorstore.Record{Text: r.Payload.Text, Metadata: r.Payload.Metadata})
	}
	return out, nil
}

// ensureCollection creates the collection if missing. Qdrant returns OK when
// it already exists with the same schema.
func (s *Store) ensureCollection(ctx context.Context, dimension int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ensured {
		return nil
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	if err := s.putJSON(ctx, fmt.Sprintf("%s/collections/%s", s.url, s.collection), body); err != nil {
		return err
	}
	s.ensured = true
	return nil
}

func (s *Store) putJSON(ctx context.Context, url string, body any) error {
	data, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("qdrant: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant PUT %s failed: %s", url, resp.Status)
	}
	return nil
}

func (s *Store) postJSON(ctx context.Context, url string, body any, out any) error {
	data, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("qdrant: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant POST %s failed: %s", url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

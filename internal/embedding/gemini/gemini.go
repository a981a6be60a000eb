// Package gemini implements the Embedder interface against the Gemini
// embedContent API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Config configures the embeddings client.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client is a Gemini embeddings client.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	dimension  int
	client     *http.Client
	maxRetries int
}

// NewClient creates a Gemini embeddings client. The API key is required.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini embeddings: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-embedding-001"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		client:     &http.Client{Timeout: t},
		maxRetries: 5,
	}, nil
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return "gemini" }

// Dimension returns the dimensionality of produced vectors. It is set
// lazily on the first successful Embed call.
func (c *Client) Dimension() int { return c.dimension }

type embedRequest struct {
	Model   string `json:"model"`
	Content struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"content"`
}

type embedResponse struct {
	Embedding struct {
		Values []float64 `json:"values"`
	} `json:"embedding"`
	Error *struct {
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// Embed returns an embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	var reqBody embedRequest
	reqBody.Model = "models/" + c.model
	reqBody.Content.Parts = []struct {
		Text string `json:"text"`
	}{{Text: text}}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("gemini embeddings: marshal request: %w", err)
	}
	url := fmt.Sprintf("%s/models/%s:embedContent", c.baseURL, c.model)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("gemini embeddings: create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", c.apiKey)

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			if attempt < c.maxRetries {
				sleepCtx(ctx, retryDelay(attempt))
				continue
			}
			return nil, fmt.Errorf("gemini embeddings: request: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			delay := retryDelay(attempt)
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, err := strconv.Atoi(ra); err == nil {
					delay = time.Duration(secs) * time.Second
				}
			}
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("gemini embeddings: failed: %s", resp.Status)
			if attempt < c.maxRetries {
				sleepCtx(ctx, delay)
				continue
			}
			return nil, lastErr
		}

		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("gemini embeddings: read response: %w", err)
		}

		var out embedResponse
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, fmt.Errorf("gemini embeddings: decode response: %w", err)
		}
		if out.Error != nil {
			return nil, fmt.Errorf("gemini embeddings: %s: %s", out.Error.Status, out.Error.Message)
		}
		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("gemini embeddings: failed (status %d): %s", resp.StatusCode, string(body))
		}
		if len(out.Embedding.Values) == 0 {
			return nil, errors.New("gemini embeddings: no embedding returned")
		}
		if c.dimension == 0 {
			c.dimension = len(out.Embedding.Values)
		}
		return out.Embedding.Values, nil
	}
	return nil, lastErr
}

func retryDelay(attempt int) time.Duration {
	base := 200 * time.Millisecond
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Package unstructured is a client for a hosted document-partitioning
// service exposing the general partition endpoint. It requests hi_res
// partitioning with table structure inference, image payload extraction,
// and by-title chunking, and decodes the returned elements into the
// pipeline's element model.
package unstructured

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"multirag/internal/partition"
)

// Chunking carries the by-title chunking parameters forwarded to the service.
type Chunking struct {
	MaxChars     int
	CombineUnder int
	NewAfter     int
}

// Config configures the partitioning client.
type Config struct {
	URL      string
	APIKey   string
	Timeout  time.Duration
	Chunking Chunking
}

// Client talks to the partitioning service over HTTP.
type Client struct {
	url        string
	apiKey     string
	chunking   Chunking
	client     *http.Client
	maxRetries int
}

// NewClient creates a partitioning client. URL is required.
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("unstructured: service URL is required")
	}
	t := cfg.Timeout
	if t == 0 {
		t = 5 * time.Minute
	}
	return &Client{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		chunking:   cfg.Chunking,
		client:     &http.Client{Timeout: t},
		maxRetries: 3,
	}, nil
}

// wireElement mirrors the service's element JSON.
type wireElement struct {
	Type     string       `json:"type"`
	Text     string       `json:"text"`
	Metadata wireMetadata `json:"metadata"`
}

type wireMetadata struct {
	TextAsHTML   string        `json:"text_as_html"`
	ImageBase64  string        `json:"image_base64"`
	OrigElements []wireElement `json:"orig_elements"`
}

// Partition uploads the PDF and returns the decoded element sequence.
func (c *Client) Partition(ctx context.Context, pdfPath string) ([]partition.Element, error) {
	payload, contentType, err := c.buildRequestBody(pdfPath)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/general/v0/general", bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("unstructured: create request: %w", err)
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("unstructured-api-key", c.apiKey)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			if attempt < c.maxRetries {
				time.Sleep(retryDelay(attempt))
				continue
			}
			return nil, fmt.Errorf("unstructured: partition request: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("unstructured: partition failed: %s", resp.Status)
			if attempt < c.maxRetries {
				time.Sleep(retryDelay(attempt))
				continue
			}
			return nil, lastErr
		}
		if resp.StatusCode >= 300 {
			body, _ := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			return nil, fmt.Errorf("unstructured: partition failed (status %d): %s", resp.StatusCode, string(body))
		}

		var wire []wireElement
		err = json.NewDecoder(resp.Body).Decode(&wire)
		_ = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("unstructured: decode elements: %w", err)
		}
		return convert(wire), nil
	}
	return nil, lastErr
}

func (c *Client) buildRequestBody(pdfPath string) ([]byte, string, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return nil, "", fmt.Errorf("unstructured: open pdf: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("files", filepath.Base(pdfPath))
	if err != nil {
		return nil, "", fmt.Errorf("unstructured: build form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("unstructured: copy pdf: %w", err)
	}

	fields := map[string]string{
		"strategy":                       "hi_res",
		"pdf_infer_table_structure":      "true",
		"extract_image_block_types":      `["Image"]`,
		"extract_image_block_to_payload": "true",
		"chunking_strategy":              "by_title",
		"max_characters":                 strconv.Itoa(c.chunking.MaxChars),
		"combine_under_n_chars":          strconv.Itoa(c.chunking.CombineUnder),
		"new_after_n_chars":              strconv.Itoa(c.chunking.NewAfter),
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("unstructured: write field %s: %w", k, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("unstructured: finish form: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func convert(wire []wireElement) []partition.Element {
	out := make([]partition.Element, 0, len(wire))
	for _, we := range wire {
		el := partition.Element{
			Kind: we.Type,
			Text: we.Text,
			HTML: we.Metadata.TextAsHTML,
		}
		for _, orig := range we.Metadata.OrigElements {
			if orig.Metadata.ImageBase64 != "" {
				el.Embedded = append(el.Embedded, partition.Embedded{ImageBase64: orig.Metadata.ImageBase64})
			}
		}
		out = append(out, el)
	}
	return out
}

func retryDelay(attempt int) time.Duration {
	base := 500 * time.Millisecond
	d := base << attempt
	if d > 10*time.Second {
		d = 10 * time.Second
	}
	return d
}

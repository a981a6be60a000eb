// Package gemini is a REST client for the Gemini generateContent API,
// covering plain text completion and multimodal calls with inline
// base64-encoded images.
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

// Config configures the generation client.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// Client calls the generateContent endpoint.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	client      *http.Client
	maxRetries  int
}

// NewClient creates a Gemini generation client. The API key is required.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.3
	}
	t := cfg.Timeout
	if t == 0 {
		t = 60 * time.Second
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: t},
		maxRetries:  3,
	}, nil
}

// ModelName returns the configured generation model.
func (c *Client) ModelName() string { return c.model }

// GenerateText produces a completion for a plain text prompt.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, []requestPart{{Text: prompt}})
}

// DescribeImage sends a fixed instruction plus one inline image and returns
// the model's description.
func (c *Client) DescribeImage(ctx context.Context, instruction, imageB64 string) (string, error) {
	return c.GenerateMultimodal(ctx, instruction, []string{imageB64})
}

// GenerateMultimodal sends one text part followed by any number of inline
// base64 JPEG images.
func (c *Client) GenerateMultimodal(ctx context.Context, text string, imagesB64 []string) (string, error) {
	parts := make([]requestPart, 0, 1+len(imagesB64))
	parts = append(parts, requestPart{Text: text})
	for _, img := range imagesB64 {
		parts = append(parts, requestPart{
			InlineData: &inlineData{MIMEType: "image/jpeg", Data: img},
		})
	}
	return c.generate(ctx, parts)
}

type requestPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateRequest struct {
	Contents []struct {
		Parts []requestPart `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		Temperature float64 `json:"temperature"`
	} `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

func (c *Client) generate(ctx context.Context, parts []requestPart) (string, error) {
	var reqBody generateRequest
	reqBody.Contents = make([]struct {
		Parts []requestPart `json:"parts"`
	}, 1)
	reqBody.Contents[0].Parts = parts
	reqBody.GenerationConfig.Temperature = c.temperature

	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("gemini: marshal request: %w", err)
	}
	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return "", fmt.Errorf("gemini: create request: %w", err)
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
			return "", fmt.Errorf("gemini: generate request: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			delay := retryDelay(attempt)
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, err := strconv.Atoi(ra); err == nil {
					delay = time.Duration(secs) * time.Second
				}
			}
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("gemini: generate failed: %s", resp.Status)
			if attempt < c.maxRetries {
				sleepCtx(ctx, delay)
				continue
			}
			return "", lastErr
		}

		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return "", fmt.Errorf("gemini: read response: %w", err)
		}

		var out generateResponse
		if err := json.Unmarshal(body, &out); err != nil {
			return "", fmt.Errorf("gemini: decode response: %w", err)
		}
		if out.Error != nil {
			return "", fmt.Errorf("gemini: %s: %s", out.Error.Status, out.Error.Message)
		}
		if resp.StatusCode >= 300 {
			return "", fmt.Errorf("gemini: generate failed (status %d): %s", resp.StatusCode, string(body))
		}
		if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
			return "", errors.New("gemini: no candidates returned")
		}
		return out.Candidates[0].Content.Parts[0].Text, nil
	}
	return "", lastErr
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

// Package image is the client for the synchronous external image generation
// API. The provider renders all requested images inside one HTTP call and
// responds with short-lived source URLs; transferring those into owned
// storage is the orchestrator's job, not this client's.
package image

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dreamframe/server/internal/domain"
)

// Options controls how the image API client is configured.
type Options struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

// Client calls the external image generation endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     zerolog.Logger
}

// GenerateRequest is the wire payload for one image generation call.
type GenerateRequest struct {
	Prompt        string  `json:"prompt"`
	Model         string  `json:"model"`
	Size          string  `json:"size"`
	GuidanceScale float64 `json:"guidance_scale,omitempty"`
	Watermark     bool    `json:"watermark"`
}

// Item is one generated image as reported by the provider.
type Item struct {
	URL  string `json:"url"`
	MIME string `json:"mime,omitempty"`
}

type generateResponse struct {
	Items []Item `json:"items"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
}

// NewClient constructs an image API client with sane defaults.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     strings.TrimSpace(opts.APIKey),
		httpClient: httpClient,
		logger:     logger,
	}
}

// Generate performs one synchronous generation call. Non-2xx responses are
// surfaced as *domain.GenerationError carrying the upstream status code and
// message verbatim.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) ([]Item, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generations", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("invoke image api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.GenerationError{
			StatusCode: resp.StatusCode,
			Message:    readErrorMessage(resp.Body),
		}
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &domain.GenerationError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("malformed response: %v", err),
		}
	}

	c.logger.Debug().
		Str("model", req.Model).
		Int("items", len(out.Items)).
		Msg("image: generation call complete")

	return out.Items, nil
}

func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 16*1024))
	if err != nil || len(data) == 0 {
		return ""
	}
	var parsed errorResponse
	if err := json.Unmarshal(data, &parsed); err == nil {
		if parsed.Error.Message != "" {
			return parsed.Error.Message
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	return strings.TrimSpace(string(data))
}

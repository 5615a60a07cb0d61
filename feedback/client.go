// Package feedback generates narrative SEO feedback with an Ollama language model.
package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	scraper "github.com/flavioespinoza/seo-scraper"
	"github.com/flavioespinoza/seo-scraper/models"
	"github.com/microcosm-cc/bluemonday"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	// DefaultBaseURL is the local Ollama endpoint
	DefaultBaseURL = "http://localhost:11434"
	// DefaultModel is used when no model is configured
	DefaultModel = "gpt-oss:20b"
	// DefaultMaxConcurrent bounds in-flight generate calls per client
	DefaultMaxConcurrent = 3

	temperature = 0.7
	maxTokens   = 1000
)

// ErrNoFeedback is returned when the model answers with empty text
var ErrNoFeedback = errors.New("no feedback generated")

// Config contains feedback client configuration
type Config struct {
	BaseURL       string
	Model         string
	Timeout       time.Duration // Per generate call, 0 = 2 minutes
	MaxConcurrent int
}

// Client calls the Ollama generate API
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	semaphore  chan struct{} // Limits concurrent model requests
	policy     *bluemonday.Policy
}

// NewClient creates a new Ollama client
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Timeout <= 0 {
		config.Timeout = 2 * time.Minute
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = DefaultMaxConcurrent
	}

	return &Client{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		model:   config.Model,
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		semaphore: make(chan struct{}, config.MaxConcurrent),
		policy:    bluemonday.StrictPolicy(),
	}
}

// Model returns the configured model name
func (c *Client) Model() string {
	return c.model
}

// GenerateFeedback validates the metadata, prompts the model and returns its plain-text answer.
// Every failure is reported as "ollama API error: <cause>".
func (c *Client) GenerateFeedback(ctx context.Context, metadata models.PageMetadata) (string, error) {
	text, err := c.Generate(ctx, BuildPrompt(metadata, scraper.ValidateMetadata(metadata)))
	if err != nil {
		return "", fmt.Errorf("ollama API error: %w", err)
	}
	return text, nil
}

// Generate sends one non-streaming prompt with the consultant system prompt
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if err := c.acquire(ctx); err != nil {
		return "", err
	}
	defer c.release()

	reqBody := models.OllamaRequest{
		Model:  c.model,
		Prompt: prompt,
		System: SystemPrompt,
		Stream: false,
		Options: &models.OllamaOptions{
			Temperature: temperature,
			NumPredict:  maxTokens,
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result models.OllamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	text := c.clean(result.Response)
	if text == "" {
		return "", ErrNoFeedback
	}

	slog.Debug("ollama generate complete", "model", c.model, "duration", time.Since(start), "chars", len(text))
	return text, nil
}

// clean strips any markup from model output and restores entities escaped by the sanitizer
func (c *Client) clean(text string) string {
	return strings.TrimSpace(html.UnescapeString(c.policy.Sanitize(text)))
}

func (c *Client) acquire(ctx context.Context) error {
	select {
	case c.semaphore <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) release() {
	<-c.semaphore
}

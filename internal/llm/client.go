package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"insight-service/pkg/config"
	"insight-service/prometheus"
)

const initialRetryDelay = 1 * time.Second

// GenerationError marks an upstream model failure: transport error, non-OK
// status, unparseable output, or output that fails contract validation.
type GenerationError struct {
	Op  string
	Err error
}

// Error implements the error interface
func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (%s): %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Client calls the chat-completion API. Every call carries the configured
// timeout; transient upstream failures (429, 5xx) are retried with
// exponential backoff up to MaxRetries.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	maxRetries int
	httpClient *http.Client
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// NewClient creates a chat-completion client from configuration
func NewClient(cfg *config.OpenAIConfig) *Client {
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Complete sends a system+user prompt pair and returns the raw text of the
// model's reply. When jsonMode is set the structured-JSON output mode is
// requested from the API.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string, jsonMode bool) (string, error) {
	if c.apiKey == "" {
		return "", &GenerationError{Op: "complete", Err: fmt.Errorf("OPENAI_API_KEY not set")}
	}

	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}
	if jsonMode {
		req.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", &GenerationError{Op: "complete", Err: fmt.Errorf("marshal request: %w", err)}
	}

	start := time.Now()
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(math.Pow(2, float64(attempt-1))) * initialRetryDelay
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", &GenerationError{Op: "complete", Err: ctx.Err()}
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return "", &GenerationError{Op: "complete", Err: fmt.Errorf("create request: %w", err)}
		}
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			lastErr = fmt.Errorf("HTTP request failed: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			var apiErr apiError
			if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
				lastErr = fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Error.Message)
			} else {
				lastErr = fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
			}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				continue
			}
			prometheus.RecordLLMRequest(c.model, "error", time.Since(start))
			return "", &GenerationError{Op: "complete", Err: lastErr}
		}

		var chatResp chatResponse
		if err := json.Unmarshal(respBody, &chatResp); err != nil {
			prometheus.RecordLLMRequest(c.model, "error", time.Since(start))
			return "", &GenerationError{Op: "complete", Err: fmt.Errorf("decode response: %w", err)}
		}
		if len(chatResp.Choices) == 0 {
			prometheus.RecordLLMRequest(c.model, "error", time.Since(start))
			return "", &GenerationError{Op: "complete", Err: fmt.Errorf("empty response content")}
		}

		prometheus.RecordLLMRequest(c.model, "ok", time.Since(start))
		return chatResp.Choices[0].Message.Content, nil
	}

	prometheus.RecordLLMRequest(c.model, "error", time.Since(start))
	return "", &GenerationError{Op: "complete", Err: fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)}
}

// stripFences removes markdown code fences some models wrap JSON output in.
func stripFences(text string) string {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```") {
		if idx := strings.Index(cleaned, "\n"); idx >= 0 {
			cleaned = cleaned[idx+1:]
		}
		if idx := strings.LastIndex(cleaned, "```"); idx >= 0 {
			cleaned = cleaned[:idx]
		}
		cleaned = strings.TrimSpace(cleaned)
	}
	return cleaned
}

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"relocation-advisor/internal/config"
)

// Client talks to the completion service's responses endpoint. It owns
// transport-level resilience only: 429/5xx/network failures are retried with
// backoff. Schema-level failures are the Generator's problem.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
	maxRetries int
	retryDelay time.Duration
}

func NewClient(cfg config.LLMConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.GetTimeout()},
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.GetRetryDelay(),
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type tool struct {
	Type string `json:"type"`
}

type textFormat struct {
	Format formatSpec `json:"format"`
}

type formatSpec struct {
	Type   string         `json:"type"`
	Name   string         `json:"name,omitempty"`
	Schema map[string]any `json:"schema,omitempty"`
	Strict bool           `json:"strict,omitempty"`
}

type responsesRequest struct {
	Model           string      `json:"model"`
	Tools           []tool      `json:"tools,omitempty"`
	Input           []message   `json:"input"`
	Text            *textFormat `json:"text,omitempty"`
	Temperature     float64     `json:"temperature"`
	MaxOutputTokens int         `json:"max_output_tokens,omitempty"`
}

type responsesResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Output []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// CompletionSpec is one completion request: a system prompt, a serialized
// user payload, and an optional output schema constraint.
type CompletionSpec struct {
	System          string
	User            string
	SchemaName      string
	Schema          map[string]any
	MaxOutputTokens int
}

// Complete issues one request and returns the raw output text. When
// structured is true the schema is attached as a strict json_schema format;
// otherwise the model is free-texting and the caller repairs.
func (c *Client) Complete(ctx context.Context, spec CompletionSpec, structured bool) (string, error) {
	req := responsesRequest{
		Model: c.model,
		Tools: []tool{{Type: "web_search_preview"}},
		Input: []message{
			{Role: "system", Content: spec.System},
			{Role: "user", Content: spec.User},
		},
		Temperature:     0,
		MaxOutputTokens: spec.MaxOutputTokens,
	}
	if structured && spec.Schema != nil {
		req.Text = &textFormat{Format: formatSpec{
			Type:   "json_schema",
			Name:   spec.SchemaName,
			Schema: spec.Schema,
			Strict: true,
		}}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	raw, err := c.doWithRetry(ctx, body)
	if err != nil {
		return "", err
	}

	var resp responsesResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("completion service error (%s): %s", resp.Error.Type, resp.Error.Message)
	}

	text := extractOutputText(&resp)
	if text == "" {
		return "", fmt.Errorf("empty output for response %s (status %s)", resp.ID, resp.Status)
	}
	return text, nil
}

// doWithRetry posts the payload with exponential backoff on transient
// failures. 4xx other than 429 fails immediately.
func (c *Client) doWithRetry(ctx context.Context, body []byte) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<(attempt-1))
			log.Printf("[llm] Retry %d/%d after %v: %v", attempt, c.maxRetries, delay, lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/responses", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("network error: %w", err)
			continue
		}

		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read body: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusOK {
			return data, nil
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(data), 200))
			continue
		}

		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(data), 200))
	}

	return nil, fmt.Errorf("exhausted %d retries: %w", c.maxRetries, lastErr)
}

func extractOutputText(resp *responsesResponse) string {
	for _, item := range resp.Output {
		for _, content := range item.Content {
			if content.Type == "output_text" && content.Text != "" {
				return content.Text
			}
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

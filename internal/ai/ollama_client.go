package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultOllamaHost is where a local Ollama runtime listens by default.
const DefaultOllamaHost = "http://127.0.0.1:11434"

// OllamaClient talks to a local Ollama runtime over its HTTP API.
type OllamaClient struct {
	host  string
	http  *http.Client
	retry RetryPolicy
}

// NewOllamaClient targets host (DefaultOllamaHost when empty). timeout bounds each HTTP
// exchange; <= 0 selects DefaultInsightTimeout.
func NewOllamaClient(host string, timeout time.Duration, retry RetryPolicy) *OllamaClient {
	if host == "" {
		host = DefaultOllamaHost
	}
	if timeout <= 0 {
		timeout = DefaultInsightTimeout
	}
	return &OllamaClient{
		host:  strings.TrimRight(host, "/"),
		http:  &http.Client{Timeout: timeout},
		retry: retry.normalized(),
	}
}

// Host returns the base URL the client talks to.
func (c *OllamaClient) Host() string { return c.host }

// /api/chat wire format, non-streaming.
type chatRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Model           string  `json:"model"`
	Message         Message `json:"message"`
	DoneReason      string  `json:"done_reason"`
	TotalDuration   int64   `json:"total_duration"` // ns
	PromptEvalCount int     `json:"prompt_eval_count"`
	EvalCount       int     `json:"eval_count"`
}

// Generate sends one chat exchange and waits for the complete reply.
func (c *OllamaClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if req.Model == "" {
		return nil, errors.New("model cannot be empty")
	}
	if len(req.Messages) == 0 {
		return nil, errors.New("messages cannot be empty")
	}
	body, err := json.Marshal(chatRequest{
		Model:    req.Model,
		Messages: req.Messages,
		Options:  req.Options.asMap(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var out *GenerateResponse
	err = c.withRetry(ctx, func() error {
		var cr chatResponse
		if err := c.do(ctx, http.MethodPost, "/api/chat", body, &cr); err != nil {
			return err
		}
		model := cr.Model
		if model == "" {
			model = req.Model
		}
		out = &GenerateResponse{
			Model:      model,
			Content:    cr.Message.Content,
			DoneReason: cr.DoneReason,
			Usage:      Usage{PromptTokens: cr.PromptEvalCount, CompletionTokens: cr.EvalCount},
			Elapsed:    time.Duration(cr.TotalDuration),
			// Ollama has no request ids of its own
			RequestID: "ollama-" + uuid.NewString(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// InstalledModel describes one model reported by /api/tags.
type InstalledModel struct {
	Name          string    `json:"name"`
	Size          int64     `json:"size"`
	ModifiedAt    time.Time `json:"modified_at"`
	Family        string    `json:"family,omitempty"`
	ParameterSize string    `json:"parameter_size,omitempty"`
}

type tagsResponse struct {
	Models []struct {
		Name       string    `json:"name"`
		Size       int64     `json:"size"`
		ModifiedAt time.Time `json:"modified_at"`
		Details    struct {
			Family        string `json:"family"`
			ParameterSize string `json:"parameter_size"`
		} `json:"details"`
	} `json:"models"`
}

// ListModels returns the models pulled into the local runtime.
func (c *OllamaClient) ListModels(ctx context.Context) ([]InstalledModel, error) {
	var tags tagsResponse
	if err := c.withRetry(ctx, func() error {
		return c.do(ctx, http.MethodGet, "/api/tags", nil, &tags)
	}); err != nil {
		return nil, err
	}
	out := make([]InstalledModel, 0, len(tags.Models))
	for _, m := range tags.Models {
		out = append(out, InstalledModel{
			Name:          m.Name,
			Size:          m.Size,
			ModifiedAt:    m.ModifiedAt,
			Family:        m.Details.Family,
			ParameterSize: m.Details.ParameterSize,
		})
	}
	return out, nil
}

// withRetry runs call until it succeeds, fails permanently, or attempts run out.
func (c *OllamaClient) withRetry(ctx context.Context, call func() error) error {
	b := &backoff{next: c.retry.BaseDelay, max: c.retry.MaxDelay}
	for attempt := 1; ; attempt++ {
		err := call()
		if err == nil {
			return nil
		}
		if attempt >= c.retry.Attempts || !retryable(err) {
			return err
		}
		if b.wait(ctx) != nil {
			return err
		}
	}
}

// do performs one exchange and decodes a 2xx JSON body into out.
func (c *OllamaClient) do(ctx context.Context, method, path string, body []byte, out any) error {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.host+path, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return &UnreachableError{Host: c.host, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyStatus(readAPIError(resp))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// readAPIError extracts Ollama's {"error": "..."} body, if any.
func readAPIError(resp *http.Response) *APIError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &body) == nil {
		apiErr.Message = body.Error
		if apiErr.Message == "" {
			apiErr.Message = body.Message
		}
	} else if s := strings.TrimSpace(string(raw)); s != "" {
		apiErr.Message = s
	}
	return apiErr
}

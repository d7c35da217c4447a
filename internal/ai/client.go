package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Config holds the settings of an OpenAI-compatible chat completion endpoint.
type Config struct {
	Name    string
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
	// Keyless marks endpoints that accept anonymous requests.
	Keyless bool
	// JSONMode sends response_format json_object when a request asks for JSON.
	JSONMode bool
	// PingProbe checks availability with a tiny completion instead of GET /models.
	PingProbe  bool
	HTTPClient *http.Client
}

// Client implements Provider against any OpenAI-compatible API.
type Client struct {
	httpClient *http.Client
	name       string
	apiKey     string
	model      string
	baseURL    string
	keyless    bool
	jsonMode   bool
	pingProbe  bool
}

// NewClient constructs a Client if the supplied configuration is valid.
func NewClient(cfg Config) (*Client, error) {
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if strings.TrimSpace(cfg.APIKey) == "" && !cfg.Keyless {
		return nil, ErrDisabled
	}
	if cfg.Name == "" {
		cfg.Name = "OpenAI"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		httpClient: httpClient,
		name:       cfg.Name,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		model:      cfg.Model,
		baseURL:    cfg.BaseURL,
		keyless:    cfg.Keyless,
		jsonMode:   cfg.JSONMode,
		pingProbe:  cfg.PingProbe,
	}, nil
}

// NewOpenAI returns the OpenAI preset.
func NewOpenAI(apiKey, model, baseURL string) (*Client, error) {
	return NewClient(Config{Name: "OpenAI", APIKey: apiKey, Model: model, BaseURL: baseURL, JSONMode: true})
}

// NewGroq returns the Groq preset.
func NewGroq(apiKey, model, baseURL string) (*Client, error) {
	if model == "" {
		model = "qwen-qwq-32b"
	}
	if baseURL == "" {
		baseURL = "https://api.groq.com/openai/v1"
	}
	return NewClient(Config{Name: "Groq", APIKey: apiKey, Model: model, BaseURL: baseURL, JSONMode: true})
}

// NewPollinations returns the keyless Pollinations preset. baseURL already
// points at the OpenAI-compatible root.
func NewPollinations(model, baseURL string) *Client {
	if model == "" {
		model = "openai-large"
	}
	if baseURL == "" {
		baseURL = "https://text.pollinations.ai/openai"
	}
	client, _ := NewClient(Config{Name: "Pollinations", Model: model, BaseURL: baseURL, Keyless: true, PingProbe: true})
	return client
}

// Name returns a display label including the model.
func (c *Client) Name() string {
	if c == nil {
		return ""
	}
	return fmt.Sprintf("%s (%s)", c.name, c.model)
}

// Enabled reports whether the client can make outbound calls.
func (c *Client) Enabled() bool {
	return c != nil && (c.apiKey != "" || c.keyless)
}

// Available probes the endpoint. Keyed providers list models; keyless
// providers answer a five token ping that must decode as JSON.
func (c *Client) Available(ctx context.Context) bool {
	if !c.Enabled() {
		return false
	}
	if c.pingProbe {
		payload := map[string]any{
			"model":      c.model,
			"messages":   []map[string]string{{"role": "user", "content": "ping"}},
			"max_tokens": 5,
		}
		resp, err := c.post(ctx, payload)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return false
		}
		var decoded map[string]any
		return json.NewDecoder(resp.Body).Decode(&decoded) == nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return false
	}
	c.authorize(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// Complete sends a chat completion request and returns the first choice.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}
	maxTokens := ReportMaxTokens
	if req.JSON {
		maxTokens = QuestionMaxTokens
	}
	req = req.withDefaults(maxTokens)

	resp, err := c.post(ctx, c.buildPayload(req))
	if err != nil {
		return "", fmt.Errorf("%s request: %w", strings.ToLower(c.name), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &StatusError{Provider: c.name, Code: resp.StatusCode, Body: truncate(string(raw), 500)}
	}

	var decoded chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode %s response: %w", strings.ToLower(c.name), err)
	}
	if len(decoded.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	content := strings.TrimSpace(decoded.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}
	if req.JSON && looksLikeHTML(content) {
		return "", ErrHTMLResponse
	}
	return content, nil
}

func (c *Client) buildPayload(req Request) map[string]any {
	messages := make([]map[string]string, 0, 2)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, map[string]string{"role": "system", "content": req.System})
	}
	messages = append(messages, map[string]string{"role": "user", "content": req.Prompt})
	payload := map[string]any{
		"model":       c.model,
		"messages":    messages,
		"temperature": req.Temperature,
	}
	if req.MaxTokens > 0 {
		payload["max_tokens"] = req.MaxTokens
	}
	if req.JSON && c.jsonMode {
		payload["response_format"] = map[string]string{"type": "json_object"}
	}
	return payload
}

func (c *Client) post(ctx context.Context, payload map[string]any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)
	return c.httpClient.Do(req)
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// StatusError reports a non-200 answer from a provider.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s status %d: %s", strings.ToLower(e.Provider), e.Code, e.Body)
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

func looksLikeHTML(content string) bool {
	lower := strings.ToLower(strings.TrimSpace(content))
	return strings.HasPrefix(lower, "<!doctype") || strings.HasPrefix(lower, "<html")
}

func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if len(value) <= limit {
		return value
	}
	return value[:limit]
}

package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiConfig configures a Google Gemini provider.
type GeminiConfig struct {
	APIKey string
	Model  string
	// Label distinguishes the primary and fallback instances in debug output.
	Label   string
	BaseURL string
}

// Gemini implements Provider on top of the Google GenAI SDK.
type Gemini struct {
	client *genai.Client
	model  string
	label  string
}

// NewGemini constructs a Gemini provider. An empty key yields ErrDisabled.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, ErrDisabled
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gemini-1.5-flash"
	}
	label := cfg.Label
	if label == "" {
		label = "Google Gemini"
	}
	clientCfg := &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Gemini{client: client, model: model, label: label}, nil
}

func (g *Gemini) Name() string {
	if g == nil {
		return ""
	}
	return fmt.Sprintf("%s (%s)", g.label, g.model)
}

func (g *Gemini) Enabled() bool {
	return g != nil && g.client != nil
}

// Available checks that the configured model is visible to the key.
func (g *Gemini) Available(ctx context.Context) bool {
	if !g.Enabled() {
		return false
	}
	_, err := g.client.Models.Get(ctx, g.model, nil)
	return err == nil
}

// Complete generates content for the request. JSON requests set the response
// MIME type so Gemini returns a bare object.
func (g *Gemini) Complete(ctx context.Context, req Request) (string, error) {
	if !g.Enabled() {
		return "", ErrDisabled
	}
	maxTokens := ReportMaxTokens
	if req.JSON {
		maxTokens = 2048
	}
	req = req.withDefaults(maxTokens)

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if strings.TrimSpace(req.System) != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.JSON {
		config.ResponseMIMEType = "application/json"
	}

	contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	if req.JSON && looksLikeHTML(text) {
		return "", ErrHTMLResponse
	}
	return text, nil
}

package ai

import (
	"context"
	"errors"
)

// Provider is a chat completion backend that can be placed in a fallback chain.
type Provider interface {
	Name() string
	Enabled() bool
	Available(ctx context.Context) bool
	Complete(ctx context.Context, req Request) (string, error)
}

// Request is a single system + user prompt exchange.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
	// JSON asks the provider for a JSON object instead of free text.
	JSON bool
}

const (
	DefaultTemperature = 0.7
	ReportMaxTokens    = 4000
	QuestionMaxTokens  = 1500
	AnswerMaxTokens    = 1000
)

var (
	ErrDisabled      = errors.New("ai provider disabled")
	ErrUnavailable   = errors.New("all configured AI providers failed")
	ErrEmptyResponse = errors.New("ai provider returned an empty response")
	ErrHTMLResponse  = errors.New("received HTML instead of JSON")
)

func (r Request) withDefaults(maxTokens int) Request {
	if r.Temperature <= 0 {
		r.Temperature = DefaultTemperature
	}
	if r.MaxTokens <= 0 {
		r.MaxTokens = maxTokens
	}
	return r
}

package ai

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"ai-scorecard/backend/internal/config"
)

// Set holds every configured provider and assembles the fallback chains
// used by the application.
type Set struct {
	OpenAI         *Client
	Groq           *Client
	Pollinations   *Client
	GooglePrimary  *Gemini
	GoogleFallback *Gemini

	openAIOnly bool
}

// NewSet builds providers from configuration. Providers without keys are
// left nil and appear in the chains as MissingKey placeholders.
func NewSet(ctx context.Context, cfg config.Config) (*Set, error) {
	set := &Set{openAIOnly: cfg.OpenAIOnly}

	var err error
	if set.OpenAI, err = NewOpenAI(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL); err != nil && !errors.Is(err, ErrDisabled) {
		return nil, err
	}
	if set.Groq, err = NewGroq(cfg.Groq.APIKey, cfg.Groq.Model, cfg.Groq.BaseURL); err != nil && !errors.Is(err, ErrDisabled) {
		return nil, err
	}
	set.Pollinations = NewPollinations(cfg.Pollinations.Model, cfg.Pollinations.BaseURL)

	if set.GooglePrimary, err = NewGemini(ctx, GeminiConfig{APIKey: cfg.Google.APIKey, Model: cfg.Google.Model, Label: "Google Gemini"}); err != nil && !errors.Is(err, ErrDisabled) {
		return nil, err
	}
	if set.GoogleFallback, err = NewGemini(ctx, GeminiConfig{APIKey: cfg.Google.APIKey, Model: cfg.Google.FallbackModel, Label: "Google Gemini Fallback"}); err != nil && !errors.Is(err, ErrDisabled) {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"openai":      set.OpenAI.Enabled(),
		"google":      set.GooglePrimary.Enabled(),
		"groq":        set.Groq.Enabled(),
		"openai_only": set.openAIOnly,
	}).Info("ai providers configured")
	return set, nil
}

// AutoAnswerChain is Pollinations, Google primary, Google fallback, OpenAI.
func (s *Set) AutoAnswerChain() *Chain {
	return NewChain("auto-answer",
		s.Pollinations,
		orMissing(s.GooglePrimary, "Google Primary"),
		orMissing(s.GoogleFallback, "Google Fallback"),
		orMissing(s.OpenAI, "OpenAI Fallback"),
	)
}

// QuestionChain is OpenAI, Google, Pollinations unless OpenAI-only mode is on.
func (s *Set) QuestionChain() *Chain {
	if s.openAIOnly {
		return NewChain("question", orMissing(s.OpenAI, "OpenAI"))
	}
	return NewChain("question", orMissing(s.OpenAI, "OpenAI"), orMissing(s.GooglePrimary, "Google Gemini"), s.Pollinations)
}

// ReportChain is OpenAI then Google unless OpenAI-only mode is on.
func (s *Set) ReportChain() *Chain {
	if s.openAIOnly {
		return NewChain("report", orMissing(s.OpenAI, "OpenAI"))
	}
	return NewChain("report", orMissing(s.OpenAI, "OpenAI"), orMissing(s.GooglePrimary, "Google Gemini"))
}

// GroqChain wraps the Groq provider alone.
func (s *Set) GroqChain() *Chain {
	return NewChain("groq", orMissing(s.Groq, "Groq"))
}

func orMissing(p Provider, name string) Provider {
	if p == nil || isNilProvider(p) {
		return MissingKey(name)
	}
	return p
}

// All returns every configured provider.
func (s *Set) All() []Provider {
	out := []Provider{}
	for _, p := range []Provider{s.Pollinations, s.GooglePrimary, s.GoogleFallback, s.OpenAI, s.Groq} {
		if p != nil && !isNilProvider(p) {
			out = append(out, p)
		}
	}
	return out
}

package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Attempt records the outcome of one provider in a chain run.
type Attempt struct {
	Provider  string `json:"provider"`
	Available bool   `json:"available"`
	Message   string `json:"message,omitempty"`

	err error
}

// Result is the successful answer of a chain run.
type Result struct {
	Text     string    `json:"result"`
	Provider string    `json:"provider"`
	Attempts []Attempt `json:"attempts,omitempty"`
}

// ChainError is returned when every provider in a chain failed.
type ChainError struct {
	Attempts []Attempt
	// NoneConfigured is set when no provider in the chain was enabled.
	NoneConfigured bool
}

func (e *ChainError) Error() string {
	if e.NoneConfigured {
		return "no AI providers are configured"
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, attempt := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %s", attempt.Provider, attempt.Message))
	}
	return fmt.Sprintf("%s: %s", ErrUnavailable.Error(), strings.Join(parts, "; "))
}

func (e *ChainError) Unwrap() error { return ErrUnavailable }

// Retryable reports whether at least one provider failed with a transient status.
func (e *ChainError) Retryable() bool {
	for _, attempt := range e.Attempts {
		var status *StatusError
		if errors.As(attempt.err, &status) && status.Retryable() {
			return true
		}
	}
	return false
}

const keyMissingMessage = "API key not found"

// MissingKey stands in for a provider whose API key is not configured. A
// chain reports it as a failed attempt instead of dropping it silently.
func MissingKey(name string) Provider { return keyless(name) }

type keyless string

func (k keyless) Name() string                                    { return string(k) }
func (keyless) Enabled() bool                                     { return false }
func (keyless) Available(context.Context) bool                    { return false }
func (keyless) Complete(context.Context, Request) (string, error) { return "", ErrDisabled }

func skipped(p Provider) Attempt {
	return Attempt{Provider: p.Name(), Message: keyMissingMessage, err: ErrDisabled}
}

// Chain tries providers in order and returns the first usable answer.
type Chain struct {
	name      string
	providers []Provider
}

// NewChain builds a named fallback chain. Nil providers are skipped.
func NewChain(name string, providers ...Provider) *Chain {
	chain := &Chain{name: name}
	for _, p := range providers {
		if p == nil || isNilProvider(p) {
			continue
		}
		chain.providers = append(chain.providers, p)
	}
	return chain
}

// WithFallback returns a two-step chain.
func WithFallback(primary, fallback Provider) *Chain {
	return NewChain("fallback", primary, fallback)
}

// Providers returns the chain members in order.
func (c *Chain) Providers() []Provider {
	if c == nil {
		return nil
	}
	return append([]Provider(nil), c.providers...)
}

// Enabled reports whether any provider can be called.
func (c *Chain) Enabled() bool {
	if c == nil {
		return false
	}
	for _, p := range c.providers {
		if p.Enabled() {
			return true
		}
	}
	return false
}

// Complete walks the chain. A provider without a key or whose availability
// probe fails is skipped; otherwise its completion is used unless it errors
// or is blank.
func (c *Chain) Complete(ctx context.Context, req Request) (Result, error) {
	var attempts []Attempt
	if !c.Enabled() {
		if c != nil {
			for _, provider := range c.providers {
				attempts = append(attempts, skipped(provider))
			}
		}
		return Result{}, &ChainError{NoneConfigured: true, Attempts: attempts}
	}

	for _, provider := range c.providers {
		if !provider.Enabled() {
			attempts = append(attempts, skipped(provider))
			continue
		}
		if err := ctx.Err(); err != nil {
			return Result{Attempts: attempts}, err
		}
		attempt := Attempt{Provider: provider.Name()}
		attempt.Available = provider.Available(ctx)
		if !attempt.Available {
			attempt.Message = "provider unavailable"
			attempts = append(attempts, attempt)
			logrus.WithFields(logrus.Fields{"chain": c.name, "provider": attempt.Provider}).Warn("ai provider unavailable")
			continue
		}

		text, err := provider.Complete(ctx, req)
		if err == nil && strings.TrimSpace(text) == "" {
			err = ErrEmptyResponse
		}
		if err != nil {
			attempt.Message = err.Error()
			attempt.err = err
			attempts = append(attempts, attempt)
			logrus.WithError(err).WithFields(logrus.Fields{"chain": c.name, "provider": attempt.Provider}).Warn("ai provider failed")
			continue
		}

		attempts = append(attempts, attempt)
		logrus.WithFields(logrus.Fields{"chain": c.name, "provider": attempt.Provider}).Info("ai provider answered")
		return Result{Text: text, Provider: attempt.Provider, Attempts: attempts}, nil
	}
	return Result{Attempts: attempts}, &ChainError{Attempts: attempts}
}

func isNilProvider(p Provider) bool {
	switch v := p.(type) {
	case *Client:
		return v == nil
	case *Gemini:
		return v == nil
	}
	return false
}

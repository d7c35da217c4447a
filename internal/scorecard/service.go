// Package scorecard runs assessments end to end: it asks the question chain
// for each question, records answers, asks the report chain for the final
// markdown, and turns stored reports into HTML and PDF documents.
package scorecard

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"ai-scorecard/backend/internal/ai"
	"ai-scorecard/backend/internal/pdf"
	"ai-scorecard/backend/internal/questionnaire"
	"ai-scorecard/backend/internal/store"
)

var (
	// ErrSessionComplete is returned when an answer or report is requested for
	// a session that has already finished.
	ErrSessionComplete = errors.New("assessment already completed")
	// ErrNoAnswers is returned when a report is requested before any answer.
	ErrNoAnswers = errors.New("assessment has no answers yet")
	// ErrEmptyAnswer is returned for a blank answer.
	ErrEmptyAnswer = errors.New("answer is empty")
	// ErrInvalidLead is returned for a lead without company or industry.
	ErrInvalidLead = errors.New("company name and industry are required")
	// ErrPromptRequired is returned for a blank auto-answer or groq prompt.
	ErrPromptRequired = errors.New("Prompt is required")
	// ErrProviderUnavailable is returned when a single-provider chain cannot be used.
	ErrProviderUnavailable = errors.New("Groq API is not available or not properly configured")
	// ErrInvalidScorecard is returned when a scorecard cannot be rendered.
	ErrInvalidScorecard = errors.New("invalid scorecard data")
)

const (
	reportMaxRetries   = 3
	reportInitialDelay = 2 * time.Second
	reportMaxDelay     = 10 * time.Second
)

// Store is the persistence the service needs.
type Store interface {
	SaveReport(r *store.Report) error
	GetReport(id string) (*store.Report, error)
	CreateSession(s *store.Session) error
	GetSession(id string) (*store.Session, error)
	UpdateSession(s *store.Session) error
}

// Notifier receives report generation progress.
type Notifier interface {
	Notify(Event)
}

// Event describes one step of report generation.
type Event struct {
	Type      string    `json:"type"`
	JobID     string    `json:"job_id,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	ReportID  string    `json:"report_id,omitempty"`
	Stage     string    `json:"stage,omitempty"`
	Provider  string    `json:"provider,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Event types.
const (
	EventStarted   = "started"
	EventProgress  = "progress"
	EventCompleted = "completed"
	EventError     = "error"
	EventCancelled = "cancelled"
)

// Chains are the provider fallback chains used by each operation.
type Chains struct {
	Question   *ai.Chain
	Report     *ai.Chain
	AutoAnswer *ai.Chain
	Groq       *ai.Chain
}

// ChainsFromSet assembles the chains from the configured providers.
func ChainsFromSet(set *ai.Set) Chains {
	return Chains{
		Question:   set.QuestionChain(),
		Report:     set.ReportChain(),
		AutoAnswer: set.AutoAnswerChain(),
		Groq:       set.GroqChain(),
	}
}

// Config holds the service dependencies.
type Config struct {
	Chains        Chains
	Questionnaire *questionnaire.Questionnaire
	Store         Store
	Notifier      Notifier
	PDF           pdf.Renderer
	// RetryDelay is the first backoff between report attempts.
	RetryDelay time.Duration
}

// Service implements the assessment and report operations.
type Service struct {
	chains        Chains
	questionnaire *questionnaire.Questionnaire
	store         Store
	notifier      Notifier
	pdf           pdf.Renderer
	retryDelay    time.Duration
	now           func() time.Time
}

// New constructs the service. The questionnaire defaults to the embedded one.
func New(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("scorecard store required")
	}
	q := cfg.Questionnaire
	if q == nil {
		q = questionnaire.Default()
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = reportInitialDelay
	}
	return &Service{
		chains:        cfg.Chains,
		questionnaire: q,
		store:         cfg.Store,
		notifier:      cfg.Notifier,
		pdf:           cfg.PDF,
		retryDelay:    delay,
		now:           time.Now,
	}, nil
}

// Questionnaire exposes the phases and question budget.
func (s *Service) Questionnaire() *questionnaire.Questionnaire {
	return s.questionnaire
}

// Renderer returns the configured PDF renderer, if any.
func (s *Service) Renderer() pdf.Renderer {
	return s.pdf
}

func (s *Service) notify(event Event) {
	if s.notifier == nil {
		return
	}
	event.Timestamp = s.now().UTC()
	s.notifier.Notify(event)
}

// AutoAnswerRequest is a free-form prompt for the auto-answer or groq chain.
type AutoAnswerRequest struct {
	Prompt       string `json:"prompt"`
	SystemPrompt string `json:"systemPrompt,omitempty"`
	MaxTokens    int    `json:"maxTokens,omitempty"`
}

const (
	defaultAutoAnswerSystem = "You are an AI assistant tasked with providing brief, accurate answers to questions."
	defaultGroqSystem       = "You are a helpful AI assistant for answering questions accurately."
)

func (r AutoAnswerRequest) request(defaultSystem string) (ai.Request, error) {
	if strings.TrimSpace(r.Prompt) == "" {
		return ai.Request{}, ErrPromptRequired
	}
	system := r.SystemPrompt
	if strings.TrimSpace(system) == "" {
		system = defaultSystem
	}
	maxTokens := r.MaxTokens
	if maxTokens <= 0 {
		maxTokens = ai.AnswerMaxTokens
	}
	return ai.Request{System: system, Prompt: r.Prompt, MaxTokens: maxTokens}, nil
}

// AutoAnswer runs the prompt through Pollinations, Google and OpenAI in turn.
func (s *Service) AutoAnswer(ctx context.Context, req AutoAnswerRequest) (ai.Result, error) {
	aiReq, err := req.request(defaultAutoAnswerSystem)
	if err != nil {
		return ai.Result{}, err
	}
	return s.chains.AutoAnswer.Complete(ctx, aiReq)
}

// Groq runs the prompt on Groq alone.
func (s *Service) Groq(ctx context.Context, req AutoAnswerRequest) (ai.Result, error) {
	aiReq, err := req.request(defaultGroqSystem)
	if err != nil {
		return ai.Result{}, err
	}
	result, err := s.chains.Groq.Complete(ctx, aiReq)
	if err != nil {
		var chainErr *ai.ChainError
		if errors.As(err, &chainErr) && !anyAvailable(chainErr.Attempts) {
			return result, ErrProviderUnavailable
		}
		return result, err
	}
	return result, nil
}

func anyAvailable(attempts []ai.Attempt) bool {
	for _, attempt := range attempts {
		if attempt.Available {
			return true
		}
	}
	return false
}

// MissingKeys reports whether no keyed provider is configured for the auto-answer chain.
func (s *Service) MissingKeys() bool {
	for _, p := range s.chains.AutoAnswer.Providers() {
		if p.Enabled() && !strings.HasPrefix(p.Name(), "Pollinations") {
			return false
		}
	}
	return true
}

// completeWithRetry retries a chain when a provider reported a transient
// status, doubling the delay up to a cap.
func (s *Service) completeWithRetry(ctx context.Context, chain *ai.Chain, req ai.Request) (ai.Result, error) {
	delay := s.retryDelay
	var lastErr error
	for attempt := 0; attempt < reportMaxRetries; attempt++ {
		result, err := chain.Complete(ctx, req)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return ai.Result{}, ctx.Err()
		}
		var chainErr *ai.ChainError
		if !errors.As(err, &chainErr) || !chainErr.Retryable() {
			break
		}
		logrus.WithError(err).WithField("attempt", attempt+1).Warn("report chain failed, retrying")

		select {
		case <-ctx.Done():
			return ai.Result{}, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > reportMaxDelay {
			delay = reportMaxDelay
		}
	}
	return ai.Result{}, lastErr
}

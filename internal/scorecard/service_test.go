package scorecard

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-scorecard/backend/internal/ai"
	"ai-scorecard/backend/internal/pdf"
	"ai-scorecard/backend/internal/questionnaire"
	"ai-scorecard/backend/internal/render"
	"ai-scorecard/backend/internal/report"
	"ai-scorecard/backend/internal/store"
)

type reply struct {
	text string
	err  error
}

type scriptedProvider struct {
	name      string
	available bool

	mu      sync.Mutex
	replies []reply
	calls   int
	last    ai.Request
}

func (p *scriptedProvider) Name() string                       { return p.name }
func (p *scriptedProvider) Enabled() bool                      { return true }
func (p *scriptedProvider) Available(ctx context.Context) bool { return p.available }
func (p *scriptedProvider) Complete(ctx context.Context, req ai.Request) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = req
	r := p.replies[min(p.calls, len(p.replies)-1)]
	p.calls++
	return r.text, r.err
}

func (p *scriptedProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func say(texts ...string) []reply {
	out := make([]reply, 0, len(texts))
	for _, text := range texts {
		out = append(out, reply{text: text})
	}
	return out
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (n *recordingNotifier) Notify(e Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *recordingNotifier) Types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeRenderer struct {
	html string
	opts pdf.Options
	err  error
}

func (f *fakeRenderer) Name() string { return "fake" }
func (f *fakeRenderer) Render(ctx context.Context, html string, opts pdf.Options) ([]byte, error) {
	f.html = html
	f.opts = opts
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.7"), nil
}
func (f *fakeRenderer) Health(ctx context.Context) pdf.Health {
	return pdf.Health{Renderer: "fake", Healthy: true}
}

const leaderReport = `# AI Efficiency Scorecard Report: Retail Industry

## Overall Tier: Leader

You are ahead of most peers.

## Final Score: 81/100

## Strategic Action Plan

1. **Scale Automation:** Extend the pilots.
   - Automate reporting
2. **Govern Models:** Create a review board.
`

type fixture struct {
	svc        *Service
	db         *store.Database
	question   *scriptedProvider
	reporter   *scriptedProvider
	answerer   *scriptedProvider
	notifier   *recordingNotifier
	renderer   *fakeRenderer
	generation time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "scorecard.db"), true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	f := &fixture{
		db: db,
		question: &scriptedProvider{name: "OpenAI (gpt-4o)", available: true, replies: say(
			`{"question":"Rate your AI strategy","answerType":"scale"}`,
			"```json\n{\"question\":\"Describe your data practices\",\"answerType\":\"text\",\"reasoningText\":\"data readiness\"}\n```",
		)},
		reporter:   &scriptedProvider{name: "OpenAI (gpt-4o)", available: true, replies: say(leaderReport)},
		answerer:   &scriptedProvider{name: "Pollinations (openai-large)", available: true, replies: say("4\nBecause we measure it.")},
		notifier:   &recordingNotifier{},
		renderer:   &fakeRenderer{},
		generation: time.Date(2025, time.March, 4, 9, 0, 0, 0, time.UTC),
	}
	svc, err := New(Config{
		Chains: Chains{
			Question:   ai.NewChain("question", f.question),
			Report:     ai.NewChain("report", f.reporter),
			AutoAnswer: ai.NewChain("auto-answer", f.answerer),
			Groq:       ai.NewChain("groq"),
		},
		Questionnaire: questionnaire.Default().WithMaxQuestions(2),
		Store:         db,
		Notifier:      f.notifier,
		PDF:           f.renderer,
		RetryDelay:    time.Millisecond,
	})
	require.NoError(t, err)
	svc.now = func() time.Time { return f.generation }
	f.svc = svc
	return f
}

var lead = Lead{UserName: "Ada Lovelace", CompanyName: "Acme", Industry: "Retail", Email: "ada@acme.test"}

func TestAssessmentFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.StartAssessment(ctx, Lead{UserName: "x"})
	require.ErrorIs(t, err, ErrInvalidLead)

	a, err := f.svc.StartAssessment(ctx, lead)
	require.NoError(t, err)
	require.NotNil(t, a.Question)
	assert.Equal(t, "Rate your AI strategy", a.Question.Text)
	assert.Equal(t, questionnaire.TypeScale, a.Question.Type)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, a.Question.Options)
	assert.Equal(t, questionnaire.Default().PhaseFor(0).Name, a.Question.PhaseName)
	assert.Equal(t, 1, a.QuestionNumber)
	assert.Equal(t, 2, a.MaxQuestions)
	assert.False(t, a.Done)
	assert.Contains(t, f.question.last.Prompt, "This is question 1 of 2.")
	assert.True(t, f.question.last.JSON)

	_, err = f.svc.SubmitAnswer(ctx, a.SessionID, AnswerInput{Answer: "  "})
	require.ErrorIs(t, err, ErrEmptyAnswer)

	a, err = f.svc.SubmitAnswer(ctx, a.SessionID, AnswerInput{Answer: "5"})
	require.NoError(t, err)
	require.NotNil(t, a.Question)
	assert.Equal(t, "Describe your data practices", a.Question.Text)
	assert.Equal(t, 2, a.QuestionNumber)
	require.Len(t, a.History, 1)
	assert.Equal(t, questionnaire.SourceManual, a.History[0].AnswerSource)
	assert.Contains(t, f.question.last.Prompt, "Q: Rate your AI strategy\nA: 5")

	a, err = f.svc.SubmitAnswer(ctx, a.SessionID, AnswerInput{Answer: "Spreadsheets mostly"})
	require.NoError(t, err)
	assert.True(t, a.Done)
	assert.Nil(t, a.Question)
	assert.Len(t, a.History, 2)
	assert.Equal(t, 2, f.question.Calls())

	_, err = f.svc.SubmitAnswer(ctx, a.SessionID, AnswerInput{Answer: "more"})
	require.ErrorIs(t, err, ErrSessionComplete)

	_, err = f.svc.GetAssessment("missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestAutoAnswerCurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.svc.StartAssessment(ctx, lead)
	require.NoError(t, err)

	a, err = f.svc.AutoAnswerCurrent(ctx, a.SessionID, "leader")
	require.NoError(t, err)
	require.Len(t, a.History, 1)
	assert.Equal(t, "4", a.History[0].Answer)
	assert.Equal(t, questionnaire.SourceAuto, a.History[0].AnswerSource)
	assert.Contains(t, f.answerer.last.System, "Leader tier organization in the Retail industry")
}

func completedSession(t *testing.T, f *fixture) string {
	t.Helper()
	ctx := context.Background()
	a, err := f.svc.StartAssessment(ctx, lead)
	require.NoError(t, err)
	_, err = f.svc.SubmitAnswer(ctx, a.SessionID, AnswerInput{Answer: "5"})
	require.NoError(t, err)
	_, err = f.svc.SubmitAnswer(ctx, a.SessionID, AnswerInput{Answer: "Spreadsheets mostly"})
	require.NoError(t, err)
	return a.SessionID
}

func TestGenerateReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := completedSession(t, f)

	row, err := f.svc.GenerateReport(ctx, ReportRequest{SessionID: id, JobID: "job-1"})
	require.NoError(t, err)
	assert.Equal(t, "Leader", row.Tier)
	require.NotNil(t, row.Score)
	assert.Equal(t, 81, *row.Score)
	assert.Equal(t, "OpenAI (gpt-4o)", row.Provider)
	assert.Contains(t, row.Markdown, "## Key Findings")
	assert.Contains(t, f.reporter.last.Prompt, "Company: Acme")
	assert.Equal(t, []string{EventStarted, EventProgress, EventCompleted}, f.notifier.Types())
	assert.Equal(t, "job-1", f.notifier.events[2].JobID)
	assert.Equal(t, row.ID, f.notifier.events[2].ReportID)

	a, err := f.svc.GetAssessment(id)
	require.NoError(t, err)
	assert.Equal(t, store.SessionCompleted, a.Status)
	assert.Equal(t, row.ID, a.ReportID)

	again, err := f.svc.GenerateReport(ctx, ReportRequest{SessionID: id})
	require.NoError(t, err)
	assert.Equal(t, row.ID, again.ID)
	assert.Equal(t, 1, f.reporter.Calls())

	sc, err := f.svc.Scorecard(row.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", sc.UserInformation.CompanyName)
	assert.Len(t, sc.QuestionAnswerHistory, 2)
}

func TestGenerateReportRetriesTransientFailures(t *testing.T) {
	f := newFixture(t)
	f.reporter.replies = []reply{
		{err: &ai.StatusError{Provider: "OpenAI", Code: http.StatusTooManyRequests, Body: "slow down"}},
		{text: leaderReport},
	}
	id := completedSession(t, f)

	row, err := f.svc.GenerateReport(context.Background(), ReportRequest{SessionID: id})
	require.NoError(t, err)
	assert.Equal(t, "Leader", row.Tier)
	assert.Equal(t, 2, f.reporter.Calls())
}

func TestGenerateReportFailure(t *testing.T) {
	f := newFixture(t)
	f.reporter.replies = []reply{{err: &ai.StatusError{Provider: "OpenAI", Code: http.StatusUnauthorized, Body: "bad key"}}}
	id := completedSession(t, f)

	_, err := f.svc.GenerateReport(context.Background(), ReportRequest{SessionID: id})
	require.ErrorIs(t, err, ai.ErrUnavailable)
	assert.Equal(t, 1, f.reporter.Calls())
	assert.Equal(t, []string{EventStarted, EventError}, f.notifier.Types())

	a, err := f.svc.GetAssessment(id)
	require.NoError(t, err)
	assert.Equal(t, store.SessionInProgress, a.Status)
}

func TestGenerateReportNeedsAnswers(t *testing.T) {
	f := newFixture(t)
	a, err := f.svc.StartAssessment(context.Background(), lead)
	require.NoError(t, err)
	_, err = f.svc.GenerateReport(context.Background(), ReportRequest{SessionID: a.SessionID})
	require.ErrorIs(t, err, ErrNoAnswers)
}

func TestAutoAnswerAndGroq(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AutoAnswer(ctx, AutoAnswerRequest{Prompt: " "})
	require.ErrorIs(t, err, ErrPromptRequired)

	result, err := f.svc.AutoAnswer(ctx, AutoAnswerRequest{Prompt: "What is AI?"})
	require.NoError(t, err)
	assert.Equal(t, "Pollinations (openai-large)", result.Provider)
	assert.Equal(t, defaultAutoAnswerSystem, f.answerer.last.System)
	assert.Equal(t, ai.AnswerMaxTokens, f.answerer.last.MaxTokens)
	assert.True(t, f.svc.MissingKeys())

	_, err = f.svc.Groq(ctx, AutoAnswerRequest{Prompt: "hello"})
	require.ErrorIs(t, err, ErrProviderUnavailable)

	groq := &scriptedProvider{name: "Groq (qwen-qwq-32b)", available: true, replies: say("hi there")}
	f.svc.chains.Groq = ai.NewChain("groq", groq)
	result, err = f.svc.Groq(ctx, AutoAnswerRequest{Prompt: "hello", MaxTokens: 50})
	require.NoError(t, err)
	assert.Equal(t, "hi there", result.Text)
	assert.Equal(t, defaultGroqSystem, groq.last.System)
	assert.Equal(t, 50, groq.last.MaxTokens)
}

func storedScorecard(t *testing.T, f *fixture) report.Scorecard {
	t.Helper()
	row, err := f.svc.GenerateReport(context.Background(), ReportRequest{SessionID: completedSession(t, f)})
	require.NoError(t, err)
	sc, err := f.svc.Scorecard(row.ID)
	require.NoError(t, err)
	return sc
}

func TestHTMLDocument(t *testing.T) {
	f := newFixture(t)
	sc := storedScorecard(t, f)

	doc, err := f.svc.HTML(sc, render.Options{IncludeQA: true})
	require.NoError(t, err)
	assert.Equal(t, render.StyleStandard, doc.Metadata.Style)
	assert.Equal(t, len(doc.HTML), doc.Metadata.HTMLLength)
	assert.NotEmpty(t, doc.Metadata.SectionsFound)
	assert.Contains(t, doc.HTML, "Generated on 4 March 2025")
	assert.Contains(t, doc.HTML, "Scale Automation")

	_, err = f.svc.HTML(report.Scorecard{}, render.Options{})
	require.ErrorIs(t, err, ErrInvalidScorecard)
}

func TestPDFDocument(t *testing.T) {
	f := newFixture(t)
	sc := storedScorecard(t, f)

	res, err := f.svc.PDF(context.Background(), sc, render.Options{Style: "presentation"}, pdf.ComplexityLow)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(res.Data))
	assert.Equal(t, "ada_lovelace_acme_ai_scorecard_2025-03-04.pdf", res.Filename)
	assert.Equal(t, "landscape", f.renderer.opts.Orientation)
	assert.True(t, strings.Contains(f.renderer.html, `<body class="presentation">`))
	assert.Equal(t, "fake", res.Metadata.Renderer)
	assert.Greater(t, res.Metadata.EstimatedSeconds, 0.0)

	f.renderer.err = pdf.ErrTimeout
	_, err = f.svc.PDF(context.Background(), sc, render.Options{}, pdf.ComplexityMedium)
	require.ErrorIs(t, err, pdf.ErrTimeout)

	f.svc.pdf = nil
	_, err = f.svc.PDF(context.Background(), sc, render.Options{}, pdf.ComplexityMedium)
	require.True(t, errors.Is(err, pdf.ErrServiceUnavailable))
}

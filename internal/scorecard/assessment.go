package scorecard

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ai-scorecard/backend/internal/ai"
	"ai-scorecard/backend/internal/questionnaire"
	"ai-scorecard/backend/internal/store"
)

// Lead is the contact captured before the assessment starts.
type Lead struct {
	UserName    string `json:"userName"`
	CompanyName string `json:"companyName"`
	Industry    string `json:"industry"`
	Email       string `json:"email"`
}

func (l Lead) normalized() Lead {
	return Lead{
		UserName:    strings.TrimSpace(l.UserName),
		CompanyName: strings.TrimSpace(l.CompanyName),
		Industry:    strings.TrimSpace(l.Industry),
		Email:       strings.TrimSpace(l.Email),
	}
}

// Assessment is the client view of a session.
type Assessment struct {
	SessionID      string                  `json:"sessionId"`
	Status         string                  `json:"status"`
	Lead           Lead                    `json:"lead"`
	Question       *questionnaire.Question `json:"currentQuestion,omitempty"`
	QuestionNumber int                     `json:"questionNumber"`
	MaxQuestions   int                     `json:"maxQuestions"`
	History        []questionnaire.Answer  `json:"questionAnswerHistory"`
	Done           bool                    `json:"assessmentComplete"`
	ReportID       string                  `json:"reportId,omitempty"`
}

// AnswerInput is a submitted answer to the current question.
type AnswerInput struct {
	Answer string `json:"answer"`
	Source string `json:"answerSource,omitempty"`
}

func (s *Service) view(sess *store.Session) *Assessment {
	history := sess.History()
	if history == nil {
		history = []questionnaire.Answer{}
	}
	current := sess.Current()
	a := &Assessment{
		SessionID: sess.ID,
		Status:    sess.Status,
		Lead: Lead{
			UserName:    sess.UserName,
			CompanyName: sess.CompanyName,
			Industry:    sess.Industry,
			Email:       sess.Email,
		},
		Question:     current,
		MaxQuestions: s.questionnaire.MaxQuestions,
		History:      history,
		Done:         current == nil,
		ReportID:     sess.ReportID,
	}
	if current != nil {
		a.QuestionNumber = len(history) + 1
	}
	return a
}

func leadOf(sess *store.Session) Lead {
	return Lead{UserName: sess.UserName, CompanyName: sess.CompanyName, Industry: sess.Industry, Email: sess.Email}
}

// StartAssessment creates a session and generates its first question.
func (s *Service) StartAssessment(ctx context.Context, lead Lead) (*Assessment, error) {
	lead = lead.normalized()
	if lead.CompanyName == "" || lead.Industry == "" {
		return nil, ErrInvalidLead
	}
	q, err := s.nextQuestion(ctx, lead, nil)
	if err != nil {
		return nil, err
	}
	sess := &store.Session{
		ID:          uuid.NewString(),
		UserName:    lead.UserName,
		CompanyName: lead.CompanyName,
		Industry:    lead.Industry,
		Email:       lead.Email,
		Status:      store.SessionInProgress,
	}
	sess.SetHistory(nil)
	sess.SetCurrent(q)
	if err := s.store.CreateSession(sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"session":  sess.ID,
		"company":  lead.CompanyName,
		"industry": lead.Industry,
	}).Info("assessment started")
	return s.view(sess), nil
}

// GetAssessment loads a session.
func (s *Service) GetAssessment(id string) (*Assessment, error) {
	sess, err := s.store.GetSession(id)
	if err != nil {
		return nil, err
	}
	return s.view(sess), nil
}

// SubmitAnswer records the answer to the current question and generates the
// next one until the question budget is spent.
func (s *Service) SubmitAnswer(ctx context.Context, id string, input AnswerInput) (*Assessment, error) {
	sess, err := s.store.GetSession(id)
	if err != nil {
		return nil, err
	}
	current := sess.Current()
	if sess.Status == store.SessionCompleted || current == nil {
		return nil, ErrSessionComplete
	}
	answer := strings.TrimSpace(input.Answer)
	if answer == "" {
		return nil, ErrEmptyAnswer
	}
	source := input.Source
	if source != questionnaire.SourceAuto {
		source = questionnaire.SourceManual
	}

	history := sess.History()
	history = append(history, questionnaire.Answer{
		Question:      current.Text,
		Answer:        answer,
		PhaseName:     current.PhaseName,
		ReasoningText: current.ReasoningText,
		AnswerType:    current.Type,
		Options:       current.Options,
		Index:         len(history),
		AnswerSource:  source,
	})
	sess.SetHistory(history)

	if len(history) >= s.questionnaire.MaxQuestions {
		sess.SetCurrent(nil)
	} else {
		next, err := s.nextQuestion(ctx, leadOf(sess), history)
		if err != nil {
			return nil, err
		}
		sess.SetCurrent(next)
	}
	if err := s.store.UpdateSession(sess); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	return s.view(sess), nil
}

// AutoAnswerCurrent simulates an organisation of the given tier answering the
// current question and submits the answer.
func (s *Service) AutoAnswerCurrent(ctx context.Context, id, tier string) (*Assessment, error) {
	sess, err := s.store.GetSession(id)
	if err != nil {
		return nil, err
	}
	current := sess.Current()
	if sess.Status == store.SessionCompleted || current == nil {
		return nil, ErrSessionComplete
	}
	final := len(sess.History())+1 >= s.questionnaire.MaxQuestions
	system, prompt := questionnaire.PersonaPrompts(tier, sess.Industry, *current, final)
	result, err := s.chains.AutoAnswer.Complete(ctx, ai.Request{System: system, Prompt: prompt, MaxTokens: ai.AnswerMaxTokens})
	if err != nil {
		return nil, fmt.Errorf("auto answer: %w", err)
	}
	return s.SubmitAnswer(ctx, id, AnswerInput{Answer: cleanAutoAnswer(result.Text, *current), Source: questionnaire.SourceAuto})
}

// cleanAutoAnswer keeps only the first line of a model answer for choice and
// scale questions.
func cleanAutoAnswer(text string, q questionnaire.Question) string {
	text = strings.TrimSpace(text)
	if questionnaire.NormalizeType(q.Type) == questionnaire.TypeText {
		return text
	}
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	return strings.Trim(strings.TrimSpace(text), `"'.`)
}

func (s *Service) nextQuestion(ctx context.Context, lead Lead, history []questionnaire.Answer) (*questionnaire.Question, error) {
	index := len(history)
	phase := s.questionnaire.PhaseFor(index)
	req := ai.Request{
		System:    questionSystemPrompt,
		Prompt:    buildQuestionPrompt(lead, phase, index+1, s.questionnaire.MaxQuestions, history),
		MaxTokens: ai.QuestionMaxTokens,
		JSON:      true,
	}
	result, err := s.chains.Question.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generate question: %w", err)
	}
	var q questionnaire.Question
	if err := ai.DecodeJSON(result.Text, &q); err != nil {
		return nil, fmt.Errorf("decode question from %s: %w", result.Provider, err)
	}
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("question from %s: %w", result.Provider, err)
	}
	q.PhaseName = phase.Name
	return &q, nil
}

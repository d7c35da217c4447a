package store

import (
	"encoding/json"
	"strings"
	"time"

	"ai-scorecard/backend/internal/questionnaire"
	"ai-scorecard/backend/internal/report"
)

// Session statuses.
const (
	SessionInProgress = "in_progress"
	SessionCompleted  = "completed"
)

// Job statuses.
const (
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
	JobCancelled = "cancelled"
)

// Report is a generated scorecard persisted for download and re-rendering.
type Report struct {
	ID          string `gorm:"primaryKey;size:64"`
	SessionID   string `gorm:"size:64;index"`
	UserName    string `gorm:"size:255"`
	CompanyName string `gorm:"size:255;index"`
	Industry    string `gorm:"size:255"`
	Email       string `gorm:"size:255"`
	Tier        string `gorm:"size:32;index"`
	Score       *int
	Markdown    string `gorm:"type:text"`
	HistoryJSON string `gorm:"type:text"`
	Provider    string `gorm:"size:64"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SetHistory stores the question and answer history as JSON.
func (r *Report) SetHistory(history []questionnaire.Answer) {
	r.HistoryJSON = encodeHistory(history)
}

// History decodes the stored question and answer history.
func (r *Report) History() []questionnaire.Answer {
	return decodeHistory(r.HistoryJSON)
}

// Scorecard converts the row into the document model used for rendering.
func (r *Report) Scorecard() report.Scorecard {
	history := r.History()
	if history == nil {
		history = []questionnaire.Answer{}
	}
	return report.Scorecard{
		UserInformation: report.UserInformation{
			UserName:    orNA(r.UserName),
			CompanyName: orNA(r.CompanyName),
			Industry:    orNA(r.Industry),
			Email:       orNA(r.Email),
		},
		ScoreInformation: report.ScoreInformation{
			AITier:     orNA(r.Tier),
			FinalScore: r.Score,
			ReportID:   r.ID,
		},
		QuestionAnswerHistory: history,
		FullReportMarkdown:    r.Markdown,
	}
}

// ReportFromScorecard builds a row from a scorecard document. N/A values are
// stored as empty strings.
func ReportFromScorecard(sc report.Scorecard) *Report {
	r := &Report{
		ID:          strings.TrimSpace(sc.ScoreInformation.ReportID),
		UserName:    fromNA(sc.UserInformation.UserName),
		CompanyName: fromNA(sc.UserInformation.CompanyName),
		Industry:    fromNA(sc.UserInformation.Industry),
		Email:       fromNA(sc.UserInformation.Email),
		Tier:        fromNA(sc.ScoreInformation.AITier),
		Score:       sc.ScoreInformation.FinalScore,
		Markdown:    sc.FullReportMarkdown,
	}
	r.SetHistory(sc.QuestionAnswerHistory)
	return r
}

// Session is an assessment in progress: the lead, the answers so far and the
// question currently shown.
type Session struct {
	ID          string `gorm:"primaryKey;size:64"`
	UserName    string `gorm:"size:255"`
	CompanyName string `gorm:"size:255"`
	Industry    string `gorm:"size:255"`
	Email       string `gorm:"size:255"`
	HistoryJSON string `gorm:"type:text"`
	CurrentJSON string `gorm:"type:text"`
	Status      string `gorm:"size:32;index"`
	ReportID    string `gorm:"size:64"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SetHistory stores the answered questions.
func (s *Session) SetHistory(history []questionnaire.Answer) {
	s.HistoryJSON = encodeHistory(history)
}

// History returns the answered questions.
func (s *Session) History() []questionnaire.Answer {
	return decodeHistory(s.HistoryJSON)
}

// SetCurrent stores the question awaiting an answer; nil clears it.
func (s *Session) SetCurrent(q *questionnaire.Question) {
	if q == nil {
		s.CurrentJSON = ""
		return
	}
	payload, _ := json.Marshal(q)
	s.CurrentJSON = string(payload)
}

// Current returns the question awaiting an answer.
func (s *Session) Current() *questionnaire.Question {
	if strings.TrimSpace(s.CurrentJSON) == "" {
		return nil
	}
	var q questionnaire.Question
	if err := json.Unmarshal([]byte(s.CurrentJSON), &q); err != nil {
		return nil
	}
	return &q
}

// Job persists report generation job metadata across restarts.
type Job struct {
	JobID         string `gorm:"primaryKey;size:64"`
	SessionID     string `gorm:"size:64;index"`
	ReportID      string `gorm:"size:64"`
	Status        string `gorm:"size:32;index"`
	Message       string `gorm:"size:255"`
	LastEventJSON string `gorm:"type:text"`
	UpdatedAt     time.Time
	CreatedAt     time.Time
}

func encodeHistory(history []questionnaire.Answer) string {
	if history == nil {
		return "[]"
	}
	payload, _ := json.Marshal(history)
	return string(payload)
}

func decodeHistory(raw string) []questionnaire.Answer {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []questionnaire.Answer
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

func orNA(value string) string {
	if strings.TrimSpace(value) == "" {
		return report.NotAvailable
	}
	return value
}

func fromNA(value string) string {
	value = strings.TrimSpace(value)
	if value == report.NotAvailable {
		return ""
	}
	return value
}

package scorecard

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ai-scorecard/backend/internal/ai"
	"ai-scorecard/backend/internal/report"
	"ai-scorecard/backend/internal/store"
	"ai-scorecard/backend/internal/util"
)

// ReportRequest asks for the report of a finished session.
type ReportRequest struct {
	SessionID string
	// JobID tags progress events when the report runs as a background job.
	JobID string
}

// GenerateReport writes the report for a session with the report chain,
// stores it and completes the session. A session that already has a report
// returns it unchanged.
func (s *Service) GenerateReport(ctx context.Context, req ReportRequest) (*store.Report, error) {
	sess, err := s.store.GetSession(req.SessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status == store.SessionCompleted && sess.ReportID != "" {
		return s.store.GetReport(sess.ReportID)
	}
	history := sess.History()
	if len(history) == 0 {
		return nil, ErrNoAnswers
	}

	base := Event{JobID: req.JobID, SessionID: sess.ID}
	fail := func(err error) (*store.Report, error) {
		event := base
		event.Type = EventError
		event.Message = err.Error()
		if errors.Is(err, context.Canceled) {
			event.Type = EventCancelled
			event.Message = "report generation cancelled"
		}
		s.notify(event)
		return nil, err
	}

	timer := util.StartTimer()
	started := base
	started.Type = EventStarted
	started.Stage = "generating"
	started.Message = fmt.Sprintf("writing report from %d answers", len(history))
	s.notify(started)

	lead := leadOf(sess)
	result, err := s.completeWithRetry(ctx, s.chains.Report, ai.Request{
		System:    reportSystemPrompt,
		Prompt:    buildReportPrompt(lead, history),
		MaxTokens: ai.ReportMaxTokens,
	})
	if err != nil {
		return fail(fmt.Errorf("generate report: %w", err))
	}

	progress := base
	progress.Type = EventProgress
	progress.Stage = "parsing"
	progress.Provider = result.Provider
	s.notify(progress)

	markdown := report.InsertKeyFindings(result.Text, history)
	row := &store.Report{
		ID:          uuid.NewString(),
		SessionID:   sess.ID,
		UserName:    sess.UserName,
		CompanyName: sess.CompanyName,
		Industry:    sess.Industry,
		Email:       sess.Email,
		Tier:        report.ExtractTier(markdown),
		Markdown:    markdown,
		Provider:    result.Provider,
	}
	if score, ok := report.ExtractScore(markdown); ok {
		row.Score = &score
	}
	row.SetHistory(history)
	if err := s.store.SaveReport(row); err != nil {
		return fail(fmt.Errorf("save report: %w", err))
	}

	sess.Status = store.SessionCompleted
	sess.ReportID = row.ID
	sess.SetCurrent(nil)
	if err := s.store.UpdateSession(sess); err != nil {
		return fail(fmt.Errorf("complete session: %w", err))
	}

	logrus.WithFields(timer.Fields("report")).WithFields(logrus.Fields{
		"session":  sess.ID,
		"report":   row.ID,
		"tier":     row.Tier,
		"provider": row.Provider,
	}).Info("report generated")

	done := base
	done.Type = EventCompleted
	done.ReportID = row.ID
	done.Provider = result.Provider
	done.Message = row.Tier
	s.notify(done)
	return row, nil
}

// Scorecard loads a stored report as a scorecard document.
func (s *Service) Scorecard(id string) (report.Scorecard, error) {
	row, err := s.store.GetReport(id)
	if err != nil {
		return report.Scorecard{}, err
	}
	return row.Scorecard(), nil
}

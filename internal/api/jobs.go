package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ai-scorecard/backend/internal/scorecard"
	"ai-scorecard/backend/internal/store"
)

const (
	reportJobTimeout = 5 * time.Minute
	maxJobMessage    = 255
)

var errJobRunning = errors.New("report already being generated for this assessment")

// reportJob tracks a report being generated in the background.
type reportJob struct {
	id        string
	sessionID string
	cancel    context.CancelFunc
	startedAt time.Time
}

// startReport launches a background report job. The caller must hold
// s.jobMu prior to invoking this function.
func (s *Server) startReport(sessionID string) (*reportJob, error) {
	if !s.claimSession(sessionID) {
		return nil, errJobRunning
	}

	ctx, cancel := context.WithTimeout(context.Background(), reportJobTimeout)
	job := &reportJob{
		id:        uuid.NewString(),
		sessionID: sessionID,
		cancel:    cancel,
		startedAt: time.Now().UTC(),
	}
	record := &store.Job{JobID: job.id, SessionID: sessionID, Status: store.JobRunning}
	if err := s.db.SaveJob(record); err != nil {
		job.cancel()
		delete(s.generating, sessionID)
		return nil, fmt.Errorf("create job: %w", err)
	}

	s.jobs[job.id] = job
	go s.runReport(ctx, job)
	return job, nil
}

func (s *Server) runReport(ctx context.Context, job *reportJob) {
	finishStatus := store.JobCompleted
	var finishErr error
	var reportID string

	defer func() {
		job.cancel()
		message := ""
		if finishErr != nil {
			message = finishErr.Error()
		}
		s.finishJob(job.id, finishStatus, reportID, message)
		s.jobMu.Lock()
		delete(s.jobs, job.id)
		delete(s.generating, job.sessionID)
		s.jobMu.Unlock()
	}()

	logrus.WithFields(logrus.Fields{
		"job":     job.id,
		"session": job.sessionID,
	}).Info("report job started")

	row, err := s.svc.GenerateReport(ctx, scorecard.ReportRequest{SessionID: job.sessionID, JobID: job.id})
	switch {
	case err == nil:
		reportID = row.ID
	case errors.Is(err, context.Canceled):
		finishStatus = store.JobCancelled
		finishErr = errors.New("cancelled")
	default:
		finishStatus = store.JobFailed
		finishErr = err
		logrus.WithError(err).WithField("job", job.id).Error("report job failed")
	}
}

// claimSession marks a session as generating. It reports false when a
// report for the session is already in progress. The caller must hold s.jobMu.
func (s *Server) claimSession(sessionID string) bool {
	if _, busy := s.generating[sessionID]; busy {
		return false
	}
	s.generating[sessionID] = struct{}{}
	return true
}

func (s *Server) releaseSession(sessionID string) {
	s.jobMu.Lock()
	delete(s.generating, sessionID)
	s.jobMu.Unlock()
}

func (s *Server) finishJob(id, status, reportID, message string) {
	if err := s.db.FinishJob(id, status, reportID, truncate(message, maxJobMessage)); err != nil {
		logrus.WithError(err).WithField("job", id).Warn("update job")
	}
}

// recordJobEvent persists the latest event of a background job.
func (s *Server) recordJobEvent(event scorecard.Event) {
	if event.JobID == "" {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	message := truncate(event.Message, maxJobMessage)
	if err := s.db.RecordJobEvent(event.JobID, string(payload), message, event.ReportID); err != nil && !errors.Is(err, store.ErrNotFound) {
		logrus.WithError(err).WithField("job", event.JobID).Warn("record job event")
	}
}

func (s *Server) handleGetJob(c *gin.Context) {
	jobID := strings.TrimSpace(c.Param("id"))
	record, err := s.db.GetJob(jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.renderError(c, http.StatusNotFound, fmt.Errorf("job %s not found", jobID))
			return
		}
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}

	s.jobMu.Lock()
	_, running := s.jobs[jobID]
	s.jobMu.Unlock()

	c.JSON(http.StatusOK, toJobDTO(record, running))
}

func (s *Server) handleCancelJob(c *gin.Context) {
	jobID := strings.TrimSpace(c.Param("id"))
	if jobID == "" {
		s.renderError(c, http.StatusBadRequest, errors.New("job id required"))
		return
	}

	s.jobMu.Lock()
	defer s.jobMu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		s.renderError(c, http.StatusNotFound, errors.New("job not running"))
		return
	}

	job.cancel()
	logrus.WithField("job", jobID).Info("report cancellation requested")
	s.notifier.Broadcast(scorecard.Event{
		Type:      scorecard.EventProgress,
		JobID:     job.id,
		SessionID: job.sessionID,
		Stage:     "cancelling",
		Message:   "cancellation requested",
	})

	c.JSON(http.StatusAccepted, gin.H{"status": "cancelling"})
}

// truncate keeps at most n runes of value.
func truncate(value string, n int) string {
	if utf8.RuneCountInString(value) <= n {
		return value
	}
	return string([]rune(value)[:n])
}

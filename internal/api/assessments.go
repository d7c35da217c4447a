package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ai-scorecard/backend/internal/ai"
	"ai-scorecard/backend/internal/scorecard"
)

type autoAnswerCurrentRequest struct {
	Tier string `json:"tier"`
}

func (s *Server) handleStartAssessment(c *gin.Context) {
	var lead scorecard.Lead
	if err := c.ShouldBindJSON(&lead); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	assessment, err := s.svc.StartAssessment(c.Request.Context(), lead)
	if err != nil {
		s.renderServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, assessment)
}

func (s *Server) handleGetAssessment(c *gin.Context) {
	assessment, err := s.svc.GetAssessment(c.Param("id"))
	if err != nil {
		s.renderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, assessment)
}

func (s *Server) handleSubmitAnswer(c *gin.Context) {
	var input scorecard.AnswerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	assessment, err := s.svc.SubmitAnswer(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		s.renderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, assessment)
}

func (s *Server) handleAutoAnswerCurrent(c *gin.Context) {
	var req autoAnswerCurrentRequest
	if c.Request.Body != nil {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			s.renderError(c, http.StatusBadRequest, err)
			return
		}
	}
	tier := firstNonEmpty(req.Tier, c.Query("tier"))
	assessment, err := s.svc.AutoAnswerCurrent(c.Request.Context(), c.Param("id"), tier)
	if err != nil {
		s.renderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, assessment)
}

// handleGenerateReport writes the report inline, or as a background job
// when async=true.
func (s *Server) handleGenerateReport(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Param("id"))
	if parseBoolDefault(c.Query("async"), false) {
		if _, err := s.svc.GetAssessment(sessionID); err != nil {
			s.renderServiceError(c, err)
			return
		}
		s.jobMu.Lock()
		defer s.jobMu.Unlock()
		job, err := s.startReport(sessionID)
		if err != nil {
			s.renderServiceError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, StartReportResponse{
			JobID:     job.id,
			SessionID: job.sessionID,
			StartedAt: job.startedAt,
		})
		return
	}

	s.jobMu.Lock()
	claimed := s.claimSession(sessionID)
	s.jobMu.Unlock()
	if !claimed {
		s.renderServiceError(c, errJobRunning)
		return
	}
	defer s.releaseSession(sessionID)

	row, err := s.svc.GenerateReport(c.Request.Context(), scorecard.ReportRequest{SessionID: sessionID})
	if err != nil {
		s.renderServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ReportDetailDTO{ReportDTO: toReportDTO(*row), Scorecard: row.Scorecard()})
}

// renderServiceError renders err with the status errorStatus picks, adding
// per-provider attempts when the AI chain failed.
func (s *Server) renderServiceError(c *gin.Context, err error) {
	status := errorStatus(err)
	body := gin.H{"error": err.Error()}
	var chainErr *ai.ChainError
	if errors.As(err, &chainErr) {
		body["debugInfo"] = chainErr.Attempts
	}
	c.JSON(status, body)
}

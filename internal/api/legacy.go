package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"ai-scorecard/backend/internal/ai"
	"ai-scorecard/backend/internal/pdf"
	"ai-scorecard/backend/internal/render"
	"ai-scorecard/backend/internal/report"
	"ai-scorecard/backend/internal/scorecard"
)

// Routes kept wire compatible with the first frontend.

const (
	markdownPreviewLen = 100

	autoAnswerFailed      = "All configured AI providers failed to generate an answer"
	autoAnswerKeysMissing = "Auto-answer providers failed: API keys are missing. Please configure GOOGLE_API_KEY, GOOGLE_GENERATIVE_AI_API_KEY, or OPENAI_API_KEY in the environment or .env file."
)

func (s *Server) handlePostOnly(c *gin.Context) {
	s.renderError(c, http.StatusNotFound, errors.New("This endpoint requires a POST request with a prompt"))
}

func (s *Server) handleAutoAnswer(c *gin.Context) {
	var req scorecard.AutoAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	result, err := s.svc.AutoAnswer(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, scorecard.ErrPromptRequired) {
			s.renderError(c, http.StatusBadRequest, err)
			return
		}
		missing := s.svc.MissingKeys()
		message := autoAnswerFailed
		if missing {
			message = autoAnswerKeysMissing
		}
		body := gin.H{"error": message, "missingKeys": missing, "details": err.Error()}
		var chainErr *ai.ChainError
		if errors.As(err, &chainErr) {
			body["debugInfo"] = chainErr.Attempts
		}
		logrus.WithError(err).Warn("auto answer failed")
		c.JSON(http.StatusInternalServerError, body)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result.Text, "provider": result.Provider, "status": "success"})
}

func (s *Server) handleGroq(c *gin.Context) {
	var req scorecard.AutoAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	result, err := s.svc.Groq(c.Request.Context(), req)
	switch {
	case errors.Is(err, scorecard.ErrPromptRequired):
		s.renderError(c, http.StatusBadRequest, err)
	case errors.Is(err, scorecard.ErrProviderUnavailable):
		s.renderError(c, http.StatusServiceUnavailable, err)
	case err != nil:
		s.renderError(c, http.StatusInternalServerError, err)
	default:
		c.JSON(http.StatusOK, gin.H{"result": result.Text})
	}
}

func (s *Server) handlePresentationHTML(c *gin.Context) {
	s.renderBodyHTML(c, render.StylePresentation)
}

func (s *Server) handlePreviewHTML(c *gin.Context) {
	s.renderBodyHTML(c, render.StyleStandard)
}

func (s *Server) renderBodyHTML(c *gin.Context, style string) {
	sc, err := bindScorecard(c, "")
	if err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	doc, err := s.svc.HTML(sc, render.Options{Style: style, IncludeQA: true, IncludeDetailedAnalysis: true})
	if err != nil {
		s.renderFailure(c, http.StatusInternalServerError, "HTML generation failed", err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(doc.HTML))
}

func (s *Server) handleDownloadPDFByID(c *gin.Context) {
	reportID := strings.TrimSpace(c.Query("reportId"))
	if reportID == "" {
		s.renderError(c, http.StatusBadRequest, errors.New("Report ID is required"))
		return
	}
	row, ok := s.loadReport(c, reportID)
	if !ok {
		return
	}
	result, err := s.svc.PDF(c.Request.Context(), row.Scorecard(), render.Options{IncludeQA: true, IncludeDetailedAnalysis: true}, pdf.ComplexityMedium)
	if err != nil {
		s.renderFailure(c, pdfStatus(err), "Failed to generate PDF report", err)
		return
	}
	writePDF(c, result.Data, pdf.AttachmentName("", reportID))
}

func (s *Server) handleDownloadPDFFromBody(c *gin.Context) {
	sc, err := bindScorecard(c, "")
	if err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	reportID := sc.ScoreInformation.ReportID
	if reportID == "" || reportID == report.NotAvailable {
		reportID = "report"
	}
	result, err := s.svc.PDF(c.Request.Context(), sc, render.Options{IncludeQA: true, IncludeDetailedAnalysis: true}, pdf.ComplexityMedium)
	if err != nil {
		s.renderFailure(c, pdfStatus(err), "Failed to generate PDF report from submitted data", err)
		return
	}
	writePDF(c, result.Data, pdf.AttachmentName(sc.UserInformation.CompanyName, reportID))
}

// handlePresentationPDF renders a landscape deck from a stored report when
// reportId is given, with any posted fields overriding the stored ones.
func (s *Server) handlePresentationPDF(c *gin.Context) {
	reportID := strings.TrimSpace(c.Query("reportId"))
	body, err := bindScorecard(c, reportID)
	if err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	sc := body
	if reportID != "" {
		row, ok := s.loadReport(c, reportID)
		if !ok {
			return
		}
		sc = row.Scorecard().Merge(body)
	}
	opts := render.Options{Style: render.StylePresentation, IncludeQA: true, IncludeDetailedAnalysis: true}
	result, err := s.svc.PDF(c.Request.Context(), sc, opts, pdf.ComplexityHigh)
	if err != nil {
		payload := gin.H{"error": "PDF generation failed", "details": err.Error()}
		if reportID != "" {
			payload["reportId"] = reportID
		}
		c.JSON(pdfStatus(err), payload)
		return
	}
	writePDF(c, result.Data, result.Filename)
}

func (s *Server) handleTestMarkdown(c *gin.Context) {
	reportID := strings.TrimSpace(c.Query("reportId"))
	if reportID == "" {
		s.renderError(c, http.StatusBadRequest, errors.New("Report ID is required"))
		return
	}
	row, ok := s.loadReport(c, reportID)
	if !ok {
		return
	}
	md := row.Markdown
	plan := strings.TrimSpace(report.ExtractAll(md).Sections.StrategicPlan.Content)
	if plan == "" {
		plan = "Not found"
	}
	c.JSON(http.StatusOK, MarkdownDiagnostics{
		MarkdownLength:                  len(md),
		MarkdownStart:                   truncate(md, markdownPreviewLen),
		ContainsStrategicActionPlan:     strings.Contains(md, "Strategic Action Plan"),
		ContainsHashStrategicActionPlan: strings.Contains(md, "## Strategic Action Plan"),
		StrategicPlanContent:            plan,
	})
}

// bindScorecard decodes a loosely shaped scorecard body. An empty body gives
// an all N/A scorecard.
func bindScorecard(c *gin.Context, reportID string) (report.Scorecard, error) {
	doc := map[string]any{}
	if c.Request.Body != nil {
		if err := json.NewDecoder(c.Request.Body).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return report.Scorecard{}, err
		}
	}
	return report.FromDocument(doc, reportID), nil
}

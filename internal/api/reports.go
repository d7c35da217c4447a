package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ai-scorecard/backend/internal/pdf"
	"ai-scorecard/backend/internal/render"
	"ai-scorecard/backend/internal/report"
	"ai-scorecard/backend/internal/store"
)

func (s *Server) handleListReports(c *gin.Context) {
	page, pageSize := paging(c)
	rows, total, err := s.db.ListReports(store.ReportQuery{
		Tier:   c.Query("tier"),
		Query:  c.Query("q"),
		Offset: (page - 1) * pageSize,
		Limit:  pageSize,
	})
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, ListReportsResponse{
		Items:    toReportDTOs(rows),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

func (s *Server) handleGetReport(c *gin.Context) {
	row, ok := s.loadReport(c, c.Param("id"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ReportDetailDTO{ReportDTO: toReportDTO(*row), Scorecard: row.Scorecard()})
}

func (s *Server) handleDeleteReport(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.db.DeleteReport(id); err != nil {
		s.renderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "id": id})
}

func (s *Server) handleReportHTML(c *gin.Context) {
	row, ok := s.loadReport(c, c.Param("id"))
	if !ok {
		return
	}
	doc, err := s.svc.HTML(row.Scorecard(), renderOptions(c, render.StyleStandard))
	if err != nil {
		s.renderFailure(c, errorStatus(err), "HTML generation failed", err)
		return
	}
	c.Header("X-Sections-Found", strings.Join(doc.Metadata.SectionsFound, ","))
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(doc.HTML))
}

func (s *Server) handleReportPDF(c *gin.Context) {
	row, ok := s.loadReport(c, c.Param("id"))
	if !ok {
		return
	}
	result, err := s.svc.PDF(c.Request.Context(), row.Scorecard(), renderOptions(c, render.StyleStandard), complexity(c))
	if err != nil {
		s.renderFailure(c, pdfStatus(err), "Failed to generate PDF report", err)
		return
	}
	writePDF(c, result.Data, result.Filename)
}

func (s *Server) handleReportMarkdown(c *gin.Context) {
	row, ok := s.loadReport(c, c.Param("id"))
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := report.ExportMarkdown(&buf, row.Scorecard()); err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	name := strings.TrimSuffix(pdf.AttachmentName(row.CompanyName, row.ID), ".pdf") + ".md"
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", name))
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", buf.Bytes())
}

func (s *Server) handleReportSections(c *gin.Context) {
	row, ok := s.loadReport(c, c.Param("id"))
	if !ok {
		return
	}
	parsed := report.ExtractAll(row.Markdown)
	c.JSON(http.StatusOK, gin.H{
		"parsed":     parsed,
		"actionPlan": report.StrategicPlanItems(parsed.Sections.StrategicPlan.Content),
		"stats":      report.Stats(row.Markdown),
	})
}

// loadReport fetches a stored report and renders 404 or 500 on failure.
func (s *Server) loadReport(c *gin.Context, id string) (*store.Report, bool) {
	id = strings.TrimSpace(id)
	row, err := s.db.GetReport(id)
	if err != nil {
		status := errorStatus(err)
		if status == http.StatusNotFound {
			s.renderError(c, status, fmt.Errorf("No report found with ID: %s", id))
			return nil, false
		}
		s.renderError(c, status, err)
		return nil, false
	}
	return row, true
}

// renderOptions reads style, qa and detailed query parameters.
func renderOptions(c *gin.Context, defaultStyle string) render.Options {
	style := c.Query("style")
	if style == "" {
		style = defaultStyle
	}
	return render.Options{
		Style:                   render.NormalizeStyle(style),
		IncludeQA:               parseBoolDefault(c.Query("qa"), true),
		IncludeDetailedAnalysis: parseBoolDefault(c.Query("detailed"), true),
	}
}

func complexity(c *gin.Context) pdf.Complexity {
	switch pdf.Complexity(strings.ToLower(strings.TrimSpace(c.Query("complexity")))) {
	case pdf.ComplexityLow:
		return pdf.ComplexityLow
	case pdf.ComplexityHigh:
		return pdf.ComplexityHigh
	default:
		return pdf.ComplexityMedium
	}
}

func writePDF(c *gin.Context, data []byte, filename string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}

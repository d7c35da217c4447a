package scorecard

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"ai-scorecard/backend/internal/pdf"
	"ai-scorecard/backend/internal/render"
	"ai-scorecard/backend/internal/report"
	"ai-scorecard/backend/internal/util"
)

// Metadata describes a rendered document.
type Metadata struct {
	Style            string   `json:"style"`
	HTMLLength       int      `json:"htmlLength"`
	ProcessingTimeMs int64    `json:"processingTimeMs"`
	SectionsFound    []string `json:"sectionsFound"`
	Warnings         []string `json:"warnings"`
	EstimatedSeconds float64  `json:"estimatedSeconds,omitempty"`
	Renderer         string   `json:"renderer,omitempty"`
}

// Document is a rendered HTML document.
type Document struct {
	HTML     string
	Metadata Metadata
}

// PDFResult is a rendered PDF and its download name.
type PDFResult struct {
	Data     []byte
	Filename string
	Metadata Metadata
}

// HTML validates the scorecard and renders it in the requested style.
func (s *Service) HTML(sc report.Scorecard, opts render.Options) (*Document, error) {
	timer := util.StartTimer()
	check := sc.Validate()
	if !check.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidScorecard, strings.Join(check.Errors, "; "))
	}
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = s.now()
	}
	parsed := report.ExtractAll(sc.FullReportMarkdown)
	html, err := render.Document(sc, parsed, opts)
	if err != nil {
		return nil, err
	}
	htmlCheck := render.ValidateHTML(html)
	if !htmlCheck.Valid {
		return nil, fmt.Errorf("rendered html is invalid: %s", strings.Join(htmlCheck.Errors, "; "))
	}
	warnings := append([]string{}, check.Warnings...)
	warnings = append(warnings, htmlCheck.Warnings...)
	found := parsed.Found()
	if found == nil {
		found = []string{}
	}
	return &Document{
		HTML: html,
		Metadata: Metadata{
			Style:            render.NormalizeStyle(opts.Style),
			HTMLLength:       len(html),
			ProcessingTimeMs: timer.ElapsedMs(),
			SectionsFound:    found,
			Warnings:         warnings,
		},
	}, nil
}

// PDF renders the scorecard to HTML and converts it with the configured
// renderer. Presentation documents print in landscape.
func (s *Service) PDF(ctx context.Context, sc report.Scorecard, opts render.Options, complexity pdf.Complexity) (*PDFResult, error) {
	if s.pdf == nil {
		return nil, fmt.Errorf("%w: no renderer configured", pdf.ErrServiceUnavailable)
	}
	timer := util.StartTimer()
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = s.now()
	}
	doc, err := s.HTML(sc, opts)
	if err != nil {
		return nil, err
	}
	pdfOpts := pdf.DefaultOptions()
	if doc.Metadata.Style == render.StylePresentation {
		pdfOpts = pdfOpts.Landscape()
	}
	meta := doc.Metadata
	meta.EstimatedSeconds = pdf.EstimateSeconds(meta.HTMLLength, complexity)
	meta.Renderer = s.pdf.Name()

	logrus.WithFields(logrus.Fields{
		"report":    sc.ScoreInformation.ReportID,
		"style":     meta.Style,
		"html_len":  meta.HTMLLength,
		"estimated": meta.EstimatedSeconds,
	}).Info("rendering pdf")
	data, err := s.pdf.Render(ctx, doc.HTML, pdfOpts)
	if err != nil {
		return nil, err
	}
	meta.ProcessingTimeMs = timer.ElapsedMs()

	user := sc.UserInformation
	return &PDFResult{
		Data:     data,
		Filename: pdf.Filename(known(user.UserName), known(user.CompanyName), opts.GeneratedAt),
		Metadata: meta,
	}, nil
}

func known(value string) string {
	value = strings.TrimSpace(value)
	if value == report.NotAvailable {
		return ""
	}
	return value
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ai-scorecard/backend/internal/pdf"
	"ai-scorecard/backend/internal/render"
	"ai-scorecard/backend/internal/report"
)

var (
	renderFormat   string
	renderStyle    string
	renderOut      string
	renderUser     string
	renderCompany  string
	renderIndustry string
	renderNoQA     bool
)

var renderCmd = &cobra.Command{
	Use:   "render <report.md|scorecard.json>",
	Short: "Render a report offline",
	Long: `Render a report markdown file, or a stored scorecard JSON document, without
running the server.

Formats:
  html     - standalone HTML document
  pdf      - PDF through the configured renderer (needs --out or writes <name>.pdf)
  terminal - styled markdown in the terminal
  json     - extracted sections and statistics`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderFormat, "format", "f", "html", "Output format: html, pdf, terminal or json")
	renderCmd.Flags().StringVar(&renderStyle, "style", render.StyleStandard, "Document style: standard or presentation")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "Output file (default: stdout; pdf defaults to a generated name)")
	renderCmd.Flags().StringVar(&renderUser, "user", "", "User name for markdown input")
	renderCmd.Flags().StringVar(&renderCompany, "company", "", "Company name for markdown input")
	renderCmd.Flags().StringVar(&renderIndustry, "industry", "", "Industry for markdown input")
	renderCmd.Flags().BoolVar(&renderNoQA, "no-qa", false, "Leave out the question and answer appendix")
}

func runRender(cmd *cobra.Command, args []string) error {
	sc, err := loadScorecard(args[0])
	if err != nil {
		return err
	}

	switch strings.ToLower(strings.TrimSpace(renderFormat)) {
	case "json":
		payload, err := json.MarshalIndent(map[string]any{
			"parsed": report.ExtractAll(sc.FullReportMarkdown),
			"stats":  report.Stats(sc.FullReportMarkdown),
		}, "", "  ")
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), append(payload, '\n'))
	case "terminal":
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(100),
		)
		if err != nil {
			return fmt.Errorf("terminal renderer: %w", err)
		}
		out, err := renderer.Render(sc.FullReportMarkdown)
		if err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		return writeOutput(cmd.OutOrStdout(), []byte(out))
	case "html":
		html, err := buildHTML(sc)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), []byte(html))
	case "pdf":
		return renderPDF(cmd, sc)
	default:
		return fmt.Errorf("unknown format %q", renderFormat)
	}
}

func buildHTML(sc report.Scorecard) (string, error) {
	opts := render.Options{
		Style:                   render.NormalizeStyle(renderStyle),
		IncludeQA:               !renderNoQA,
		IncludeDetailedAnalysis: true,
		GeneratedAt:             time.Now(),
	}
	html, err := render.Build(sc, opts)
	if err != nil {
		return "", err
	}
	check := render.ValidateHTML(html)
	for _, warning := range check.Warnings {
		logrus.WithField("warning", warning).Warn("html validation")
	}
	if !check.Valid {
		return "", fmt.Errorf("invalid html: %s", strings.Join(check.Errors, "; "))
	}
	return html, nil
}

func renderPDF(cmd *cobra.Command, sc report.Scorecard) error {
	html, err := buildHTML(sc)
	if err != nil {
		return err
	}
	renderer, err := pdf.New(cfg.PDF)
	if err != nil {
		return err
	}
	if closer, ok := renderer.(io.Closer); ok {
		defer closer.Close()
	}
	opts := pdf.DefaultOptions()
	if render.NormalizeStyle(renderStyle) == render.StylePresentation {
		opts = opts.Landscape()
	}
	logrus.WithFields(logrus.Fields{
		"renderer":  renderer.Name(),
		"estimated": pdf.EstimateSeconds(len(html), pdf.ComplexityMedium),
	}).Info("rendering pdf")
	data, err := renderer.Render(cmd.Context(), html, opts)
	if err != nil {
		return err
	}
	out := renderOut
	if out == "" {
		out = pdf.Filename(known(sc.UserInformation.UserName), known(sc.UserInformation.CompanyName), time.Now())
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, len(data))
	return nil
}

// loadScorecard reads a markdown report or a JSON scorecard document.
func loadScorecard(path string) (report.Scorecard, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return report.Scorecard{}, fmt.Errorf("read %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return report.Scorecard{}, fmt.Errorf("decode %s: %w", path, err)
		}
		return report.FromDocument(doc, ""), nil
	}

	md := string(raw)
	doc := map[string]any{
		"userName":    renderUser,
		"companyName": renderCompany,
		"industry":    renderIndustry,
		"tier":        report.ExtractTier(md),
		"markdown":    md,
	}
	if score, ok := report.ExtractScore(md); ok {
		doc["score"] = score
	}
	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return report.FromDocument(doc, id), nil
}

func writeOutput(stdout io.Writer, data []byte) error {
	if renderOut == "" {
		_, err := stdout.Write(data)
		return err
	}
	return os.WriteFile(renderOut, data, 0o644)
}

func known(value string) string {
	if strings.TrimSpace(value) == report.NotAvailable {
		return ""
	}
	return value
}

// Package pdf converts rendered scorecard HTML into PDF documents, either
// through a remote WeasyPrint service or a local headless Chromium.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"ai-scorecard/backend/internal/config"
)

var (
	// ErrEmptyHTML is returned before any request is made for blank input.
	ErrEmptyHTML = errors.New("empty HTML content provided")
	// ErrTimeout is returned when the renderer did not answer in time.
	ErrTimeout = errors.New("pdf generation timed out")
	// ErrServiceUnavailable is returned when the renderer cannot be reached.
	ErrServiceUnavailable = errors.New("pdf service unavailable")
)

// Margins are CSS lengths.
type Margins struct {
	Top    string `json:"top"`
	Right  string `json:"right"`
	Bottom string `json:"bottom"`
	Left   string `json:"left"`
}

// Options tune the generated document.
type Options struct {
	PageSize    string
	Orientation string
	Margins     Margins
	Optimize    bool
	Compress    bool
}

// DefaultOptions returns A4 portrait with the report margins.
func DefaultOptions() Options {
	return Options{
		PageSize:    "A4",
		Orientation: "portrait",
		Margins:     Margins{Top: "20mm", Right: "15mm", Bottom: "20mm", Left: "15mm"},
		Optimize:    true,
		Compress:    true,
	}
}

// Landscape returns a copy of the options in landscape orientation.
func (o Options) Landscape() Options {
	o.Orientation = "landscape"
	return o
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.PageSize == "" {
		o.PageSize = d.PageSize
	}
	if o.Orientation == "" {
		o.Orientation = d.Orientation
	}
	if o.Margins == (Margins{}) {
		o.Margins = d.Margins
	}
	return o
}

// Health reports whether a renderer is ready.
type Health struct {
	Renderer       string `json:"renderer"`
	Healthy        bool   `json:"isHealthy"`
	ResponseTimeMs int64  `json:"responseTime"`
	Error          string `json:"error,omitempty"`
}

// Renderer converts an HTML document to PDF bytes.
type Renderer interface {
	Name() string
	Render(ctx context.Context, html string, opts Options) ([]byte, error)
	Health(ctx context.Context) Health
}

// StatusError carries a non-2xx renderer response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("weasyprint status %d: %s", e.Code, e.Body)
}

// Retryable reports whether the request may succeed on another attempt.
func (e *StatusError) Retryable() bool {
	return e.Code >= 500
}

// New picks the renderer named by the configuration.
func New(cfg config.PDFConfig) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Renderer)) {
	case config.RendererChrome:
		return NewChrome(ChromeConfig{Bin: cfg.ChromeBin, Timeout: cfg.Timeout}), nil
	case "", config.RendererWeasyPrint:
		return NewWeasyPrint(WeasyPrintConfig{
			ServiceURL: cfg.ServiceURL,
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
			RetryDelay: cfg.RetryDelay,
		}), nil
	default:
		return nil, fmt.Errorf("unknown pdf renderer %q", cfg.Renderer)
	}
}

var (
	unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9]`)
	underscores    = regexp.MustCompile(`_+`)
)

// SanitizeFilename reduces a name to lower-case ASCII letters, digits and
// single underscores, at most 50 characters long.
func SanitizeFilename(name string) string {
	name = unsafeFilename.ReplaceAllString(name, "_")
	name = underscores.ReplaceAllString(name, "_")
	name = strings.ToLower(strings.Trim(name, "_"))
	if len(name) > 50 {
		name = name[:50]
	}
	return name
}

// Filename names a downloaded report.
func Filename(userName, companyName string, date time.Time) string {
	if strings.TrimSpace(userName) == "" {
		userName = "User"
	}
	if strings.TrimSpace(companyName) == "" {
		companyName = "Company"
	}
	if date.IsZero() {
		date = time.Now()
	}
	return fmt.Sprintf("%s_%s_ai_scorecard_%s.pdf", SanitizeFilename(userName), SanitizeFilename(companyName), date.Format("2006-01-02"))
}

// AttachmentName names a report downloaded by ID.
func AttachmentName(companyName, reportID string) string {
	company := SanitizeFilename(companyName)
	if company == "" || company == "n_a" {
		return fmt.Sprintf("ai-scorecard-%s.pdf", SanitizeFilename(reportID))
	}
	return fmt.Sprintf("ai-scorecard-%s-%s.pdf", company, SanitizeFilename(reportID))
}

// Complexity weights the generation time estimate.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// EstimateSeconds predicts how long a document of htmlLen bytes takes to
// render: five seconds plus two per started 100KB, scaled by complexity and
// capped at a minute.
func EstimateSeconds(htmlLen int, complexity Complexity) float64 {
	base := 5.0 + 2*math.Ceil(float64(htmlLen)/100000)
	switch complexity {
	case ComplexityLow:
	case ComplexityHigh:
		base *= 2
	default:
		base *= 1.5
	}
	return math.Min(base, 60)
}

package pdf

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"ai-scorecard/backend/internal/util"
)

const maxErrorBody = 1000

// WeasyPrintConfig drives the WeasyPrint client.
type WeasyPrintConfig struct {
	ServiceURL string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	HTTPClient *http.Client
}

// WeasyPrint posts HTML to a WeasyPrint conversion service.
type WeasyPrint struct {
	httpClient *http.Client
	serviceURL string
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
}

// NewWeasyPrint constructs a client, filling unset fields with defaults.
func NewWeasyPrint(cfg WeasyPrintConfig) *WeasyPrint {
	serviceURL := strings.TrimSpace(cfg.ServiceURL)
	if serviceURL == "" {
		serviceURL = "http://localhost:5001/generate-pdf"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 3
	}
	delay := cfg.RetryDelay
	if delay < 0 {
		delay = 0
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// per-attempt deadlines come from the request context
		httpClient = &http.Client{}
	}
	return &WeasyPrint{
		httpClient: httpClient,
		serviceURL: serviceURL,
		timeout:    timeout,
		maxRetries: retries,
		retryDelay: delay,
	}
}

// Name identifies the renderer.
func (w *WeasyPrint) Name() string { return "weasyprint" }

type weasyRequest struct {
	HTMLContent string       `json:"html_content"`
	PDFOptions  weasyOptions `json:"pdf_options"`
}

type weasyOptions struct {
	PresentationalHints bool        `json:"presentational_hints"`
	OptimizeSize        []string    `json:"optimize_size"`
	Compress            bool        `json:"compress"`
	PDFFormat           weasyFormat `json:"pdf_format"`
	Stylesheets         []string    `json:"stylesheets"`
}

type weasyFormat struct {
	PageSize    string  `json:"page_size"`
	Orientation string  `json:"orientation"`
	Margin      Margins `json:"margin"`
}

func newWeasyRequest(html string, opts Options) weasyRequest {
	optimize := []string{}
	if opts.Optimize {
		optimize = []string{"images", "fonts"}
	}
	return weasyRequest{
		HTMLContent: html,
		PDFOptions: weasyOptions{
			PresentationalHints: true,
			OptimizeSize:        optimize,
			Compress:            opts.Compress,
			PDFFormat: weasyFormat{
				PageSize:    opts.PageSize,
				Orientation: opts.Orientation,
				Margin:      opts.Margins,
			},
			Stylesheets: []string{},
		},
	}
}

// Render converts html to PDF. Server errors and network failures are retried
// after a fixed delay; client errors, timeouts and unreachable services are
// returned immediately.
func (w *WeasyPrint) Render(ctx context.Context, html string, opts Options) ([]byte, error) {
	if strings.TrimSpace(html) == "" {
		return nil, ErrEmptyHTML
	}
	payload, err := json.Marshal(newWeasyRequest(html, opts.withDefaults()))
	if err != nil {
		return nil, fmt.Errorf("encode weasyprint request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= w.maxRetries; attempt++ {
		timer := util.StartTimer()
		body, err := w.attempt(ctx, payload)
		if err == nil {
			logrus.WithFields(logrus.Fields{
				"attempt":    attempt,
				"bytes":      len(body),
				"elapsed_ms": timer.ElapsedMs(),
			}).Info("pdf generated")
			return body, nil
		}
		lastErr = err

		var statusErr *StatusError
		switch {
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case errors.Is(err, ErrTimeout), errors.Is(err, ErrServiceUnavailable):
			return nil, err
		case errors.As(err, &statusErr) && !statusErr.Retryable():
			return nil, err
		}

		logrus.WithError(err).WithFields(logrus.Fields{
			"attempt":     attempt,
			"max_retries": w.maxRetries,
		}).Warn("pdf attempt failed")

		if attempt < w.maxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(w.retryDelay):
			}
		}
	}
	return nil, fmt.Errorf("pdf generation failed after %d attempts: %w", w.maxRetries, lastErr)
}

func (w *WeasyPrint) attempt(ctx context.Context, payload []byte) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, w.serviceURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/pdf")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, classify(ctx, attemptCtx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(ctx, attemptCtx, fmt.Errorf("read pdf body: %w", err))
	}
	if len(body) == 0 {
		return nil, errors.New("weasyprint returned an empty document")
	}
	return body, nil
}

// classify maps transport failures onto the package sentinels.
func classify(parent, attemptCtx context.Context, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var dnsErr *net.DNSError
	if errors.Is(err, syscall.ECONNREFUSED) || errors.As(err, &dnsErr) {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	return err
}

// HealthURL is the health endpoint next to the conversion endpoint.
func (w *WeasyPrint) HealthURL() string {
	u, err := url.Parse(w.serviceURL)
	if err != nil {
		return strings.Replace(w.serviceURL, "/generate-pdf", "/health", 1)
	}
	if strings.HasSuffix(u.Path, "/generate-pdf") {
		u.Path = strings.TrimSuffix(u.Path, "/generate-pdf") + "/health"
	} else {
		u.Path = path.Join(path.Dir(u.Path), "health")
	}
	u.RawQuery = ""
	return u.String()
}

// Health probes the service with a five second budget.
func (w *WeasyPrint) Health(ctx context.Context) Health {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	timer := util.StartTimer()
	health := Health{Renderer: w.Name()}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.HealthURL(), nil)
	if err != nil {
		health.Error = err.Error()
		return health
	}
	resp, err := w.httpClient.Do(req)
	health.ResponseTimeMs = timer.ElapsedMs()
	if err != nil {
		health.Error = err.Error()
		return health
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		health.Error = fmt.Sprintf("service returned %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		return health
	}
	health.Healthy = true
	return health
}

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"ai-scorecard/backend/internal/ai"
	"ai-scorecard/backend/internal/pdf"
	"ai-scorecard/backend/internal/scorecard"
	"ai-scorecard/backend/internal/store"
)

const (
	defaultPageSize     = 25
	maxPageSize         = 200
	maxPage             = 1_000_000
	defaultProbeTimeout = 10 * time.Second
	pdfHealthTimeout    = 5 * time.Second
)

// Config defines server dependencies.
type Config struct {
	Service        *scorecard.Service
	DB             *store.Database
	Notifier       *ReportNotifier
	Providers      []ai.Provider
	AllowedOrigins []string
	ReleaseMode    bool
	ProbeTimeout   time.Duration
}

// Server wires HTTP handlers with the scorecard service and persistence.
type Server struct {
	svc            *scorecard.Service
	db             *store.Database
	notifier       *ReportNotifier
	providers      []ai.Provider
	allowedOrigins []string
	releaseMode    bool
	probeTimeout   time.Duration
	jobMu          sync.Mutex
	jobs           map[string]*reportJob
	// generating holds the sessions with a report in progress, sync or async.
	generating     map[string]struct{}
}

// NewServer constructs the API server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Service == nil {
		return nil, errors.New("scorecard service required")
	}
	if cfg.DB == nil {
		return nil, errors.New("database required")
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = NewReportNotifier()
	}
	probeTimeout := cfg.ProbeTimeout
	if probeTimeout <= 0 {
		probeTimeout = defaultProbeTimeout
	}

	server := &Server{
		svc:            cfg.Service,
		db:             cfg.DB,
		notifier:       notifier,
		providers:      cfg.Providers,
		allowedOrigins: cfg.AllowedOrigins,
		releaseMode:    cfg.ReleaseMode,
		probeTimeout:   probeTimeout,
		jobs:           make(map[string]*reportJob),
		generating:     make(map[string]struct{}),
	}
	notifier.OnEvent(server.recordJobEvent)
	return server, nil
}

// Router configures gin routes.
func (s *Server) Router() (*gin.Engine, error) {
	var r *gin.Engine
	if s.releaseMode {
		r = gin.New()
		r.Use(gin.Recovery(), accessLog())
	} else {
		r = gin.Default()
	}

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowCredentials = true
	if len(s.allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.allowedOrigins
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsCfg.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	r.Use(cors.New(corsCfg))

	r.GET("/api/healthz", s.handleHealth)
	r.GET("/api/config", s.handleConfig)

	api := r.Group("/api")
	{
		api.GET("/providers/status", s.handleProviderStatus)

		api.POST("/assessments", s.handleStartAssessment)
		api.GET("/assessments/:id", s.handleGetAssessment)
		api.POST("/assessments/:id/answers", s.handleSubmitAnswer)
		api.POST("/assessments/:id/auto-answer", s.handleAutoAnswerCurrent)
		api.POST("/assessments/:id/report", s.handleGenerateReport)

		api.GET("/jobs/:id", s.handleGetJob)
		api.DELETE("/jobs/:id", s.handleCancelJob)

		api.GET("/reports", s.handleListReports)
		api.GET("/reports/stream", s.handleReportStream)
		api.GET("/reports/:id", s.handleGetReport)
		api.DELETE("/reports/:id", s.handleDeleteReport)
		api.GET("/reports/:id/html", s.handleReportHTML)
		api.GET("/reports/:id/pdf", s.handleReportPDF)
		api.GET("/reports/:id/markdown", s.handleReportMarkdown)
		api.GET("/reports/:id/sections", s.handleReportSections)

		api.GET("/auto-answer", s.handlePostOnly)
		api.POST("/auto-answer", s.handleAutoAnswer)
		api.GET("/groq", s.handlePostOnly)
		api.POST("/groq", s.handleGroq)
		api.POST("/generate-presentation-html", s.handlePresentationHTML)
		api.POST("/preview-scorecard-html", s.handlePreviewHTML)
		api.GET("/generate-scorecard-weasyprint-report/download-pdf", s.handleDownloadPDFByID)
		api.POST("/generate-scorecard-weasyprint-report/download-pdf", s.handleDownloadPDFFromBody)
		api.POST("/generate-presentation-weasyprint-report", s.handlePresentationPDF)
		api.GET("/test-markdown", s.handleTestMarkdown)
		api.GET("/pdf/health", s.handlePDFHealth)
	}

	return r, nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleConfig(c *gin.Context) {
	renderer := ""
	if r := s.svc.Renderer(); r != nil {
		renderer = r.Name()
	}
	q := s.svc.Questionnaire()
	c.JSON(http.StatusOK, ConfigResponse{
		Providers:    toProviderDTOs(s.providers),
		Renderer:     renderer,
		MaxQuestions: q.MaxQuestions,
		Phases:       q.Names(),
		MissingKeys:  s.svc.MissingKeys(),
	})
}

func (s *Server) handleProviderStatus(c *gin.Context) {
	statuses := ai.CheckAll(c.Request.Context(), s.providers, s.probeTimeout)
	c.JSON(http.StatusOK, gin.H{"providers": statuses})
}

func (s *Server) handlePDFHealth(c *gin.Context) {
	renderer := s.svc.Renderer()
	if renderer == nil {
		s.renderError(c, http.StatusServiceUnavailable, pdf.ErrServiceUnavailable)
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), pdfHealthTimeout)
	defer cancel()
	health := renderer.Health(ctx)
	status := http.StatusOK
	if !health.Healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, health)
}

func (s *Server) handleReportStream(c *gin.Context) {
	upgrader := websocket.Upgrader{
		HandshakeTimeout:  5 * time.Second,
		EnableCompression: true,
		CheckOrigin: func(r *http.Request) bool {
			if len(s.allowedOrigins) == 0 {
				return true
			}
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			for _, allowed := range s.allowedOrigins {
				if strings.EqualFold(origin, allowed) {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("upgrade websocket")
		return
	}

	client := s.notifier.Register(conn)
	logrus.WithField("remote", conn.RemoteAddr().String()).Info("report websocket connected")
	defer s.notifier.Unregister(client)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithField("remote", conn.RemoteAddr().String()).Info("report websocket closed")
			} else {
				logrus.WithError(err).Warn("report websocket unexpected close")
			}
			break
		}
	}
}

func (s *Server) renderError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}

// renderFailure reports a failed operation with a fixed message and the
// underlying cause as details.
func (s *Server) renderFailure(c *gin.Context, status int, message string, err error) {
	body := gin.H{"error": message, "details": err.Error()}
	var chainErr *ai.ChainError
	if errors.As(err, &chainErr) {
		body["debugInfo"] = chainErr.Attempts
	}
	c.JSON(status, body)
}

// errorStatus maps service errors onto HTTP statuses.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, scorecard.ErrSessionComplete), errors.Is(err, errJobRunning):
		return http.StatusConflict
	case errors.Is(err, scorecard.ErrNoAnswers),
		errors.Is(err, scorecard.ErrEmptyAnswer),
		errors.Is(err, scorecard.ErrInvalidLead),
		errors.Is(err, scorecard.ErrPromptRequired),
		errors.Is(err, scorecard.ErrInvalidScorecard),
		errors.Is(err, pdf.ErrEmptyHTML):
		return http.StatusBadRequest
	case errors.Is(err, pdf.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, pdf.ErrServiceUnavailable), errors.Is(err, scorecard.ErrProviderUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ai.ErrUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// pdfStatus maps renderer failures: timeouts are 504, an unreachable service
// is 503, anything else is 500.
func pdfStatus(err error) int {
	switch {
	case errors.Is(err, pdf.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, pdf.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, scorecard.ErrInvalidScorecard):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		entry := logrus.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"elapsed_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request failed")
			return
		}
		entry.Info("request")
	}
}

// paging reads page and pageSize query parameters. Pages start at 1.
func paging(c *gin.Context) (page, pageSize int) {
	page = parseIntDefault(c.Query("page"), 1)
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	pageSize = parseIntDefault(firstNonEmpty(c.Query("pageSize"), c.Query("page_size")), defaultPageSize)
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func parseIntDefault(value string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func parseBoolDefault(value string, fallback bool) bool {
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

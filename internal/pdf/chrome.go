package pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"

	"ai-scorecard/backend/internal/util"
)

// ChromeConfig drives the local Chromium renderer.
type ChromeConfig struct {
	// Bin is the browser executable; empty lets the launcher find or fetch one.
	Bin string
	// ControlURL attaches to an already running browser instead of launching.
	ControlURL string
	Timeout    time.Duration
}

// Chrome prints documents with a headless Chromium driven over CDP.
type Chrome struct {
	cfg ChromeConfig

	mu      sync.Mutex
	launch  *launcher.Launcher
	browser *rod.Browser
	printMu sync.Mutex
}

// NewChrome returns a renderer that starts the browser on first use.
func NewChrome(cfg ChromeConfig) *Chrome {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &Chrome{cfg: cfg}
}

// Name identifies the renderer.
func (c *Chrome) Name() string { return "chrome" }

func (c *Chrome) connect() (*rod.Browser, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.browser != nil {
		if _, err := c.browser.Version(); err == nil {
			return c.browser, nil
		}
		logrus.Warn("stale chrome connection, reconnecting")
		_ = c.browser.Close()
		c.browser = nil
	}

	controlURL := strings.TrimSpace(c.cfg.ControlURL)
	if controlURL == "" {
		l := launcher.New().Headless(true)
		if c.cfg.Bin != "" {
			l = l.Bin(c.cfg.Bin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("%w: launch chrome: %v", ErrServiceUnavailable, err)
		}
		c.launch = l
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("%w: connect to chrome: %v", ErrServiceUnavailable, err)
	}
	c.browser = browser
	return browser, nil
}

// Render loads html into a blank tab and prints it with backgrounds.
func (c *Chrome) Render(ctx context.Context, html string, opts Options) ([]byte, error) {
	if strings.TrimSpace(html) == "" {
		return nil, ErrEmptyHTML
	}
	opts = opts.withDefaults()

	browser, err := c.connect()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	c.printMu.Lock()
	defer c.printMu.Unlock()

	timer := util.StartTimer()
	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, c.wrap(ctx, fmt.Errorf("open tab: %w", err))
	}
	defer func() { _ = page.Close() }()

	if err := page.SetDocumentContent(html); err != nil {
		return nil, c.wrap(ctx, fmt.Errorf("set document: %w", err))
	}
	if err := page.WaitLoad(); err != nil {
		return nil, c.wrap(ctx, fmt.Errorf("wait for load: %w", err))
	}

	stream, err := page.PDF(printSettings(opts))
	if err != nil {
		return nil, c.wrap(ctx, fmt.Errorf("print to pdf: %w", err))
	}
	body, err := io.ReadAll(stream)
	if err != nil {
		return nil, c.wrap(ctx, fmt.Errorf("read pdf stream: %w", err))
	}
	logrus.WithFields(logrus.Fields{
		"bytes":      len(body),
		"elapsed_ms": timer.ElapsedMs(),
	}).Info("pdf printed with chrome")
	return body, nil
}

func (c *Chrome) wrap(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}

func printSettings(opts Options) *proto.PagePrintToPDF {
	width, height := paperSize(opts.PageSize)
	return &proto.PagePrintToPDF{
		Landscape:         strings.EqualFold(opts.Orientation, "landscape"),
		PrintBackground:   true,
		PreferCSSPageSize: true,
		PaperWidth:        &width,
		PaperHeight:       &height,
		MarginTop:         inches(opts.Margins.Top),
		MarginRight:       inches(opts.Margins.Right),
		MarginBottom:      inches(opts.Margins.Bottom),
		MarginLeft:        inches(opts.Margins.Left),
	}
}

var unitsPerInch = map[string]float64{
	"in": 1,
	"mm": 25.4,
	"cm": 2.54,
	"pt": 72,
	"px": 96,
}

// inches converts a CSS length to inches. Unknown units yield nil so Chrome
// keeps its default margin.
func inches(length string) *float64 {
	length = strings.ToLower(strings.TrimSpace(length))
	if length == "0" {
		zero := 0.0
		return &zero
	}
	if len(length) < 3 {
		return nil
	}
	per, ok := unitsPerInch[length[len(length)-2:]]
	if !ok {
		return nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(length[:len(length)-2]), 64)
	if err != nil || value < 0 {
		return nil
	}
	v := value / per
	return &v
}

// paperSize returns the page size in inches.
func paperSize(name string) (float64, float64) {
	if strings.EqualFold(name, "letter") {
		return 8.5, 11
	}
	return 8.27, 11.69
}

// Health starts the browser if needed and reports its version round trip.
func (c *Chrome) Health(ctx context.Context) Health {
	timer := util.StartTimer()
	health := Health{Renderer: c.Name()}
	browser, err := c.connect()
	if err == nil {
		_, err = browser.Version()
	}
	health.ResponseTimeMs = timer.ElapsedMs()
	if err != nil {
		health.Error = err.Error()
		return health
	}
	health.Healthy = true
	return health
}

// Close shuts the browser down and removes the launched process.
func (c *Chrome) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var err error
	if c.browser != nil {
		err = c.browser.Close()
		c.browser = nil
	}
	if c.launch != nil {
		c.launch.Kill()
		c.launch = nil
	}
	return err
}

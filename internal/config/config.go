package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config collects every runtime setting of the scorecard backend.
type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	AllowedOrigins []string
	DatabasePath   string

	OpenAI       ProviderConfig
	Groq         ProviderConfig
	Pollinations ProviderConfig
	Google       GoogleConfig
	// OpenAIOnly restricts the question and report chains to OpenAI.
	OpenAIOnly bool

	PDF PDFConfig

	// MaxQuestions overrides the questionnaire budget when set; zero keeps
	// the questionnaire file's max_questions.
	MaxQuestions      int
	QuestionnairePath string
}

// ProviderConfig describes an OpenAI-compatible endpoint.
type ProviderConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// GoogleConfig describes the Gemini primary and fallback models.
type GoogleConfig struct {
	APIKey        string
	Model         string
	FallbackModel string
}

// PDFConfig selects and tunes the HTML to PDF renderer.
type PDFConfig struct {
	Renderer   string
	ServiceURL string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	ChromeBin  string
}

const (
	RendererWeasyPrint = "weasyprint"
	RendererChrome     = "chrome"
)

// Load reads the given env files, or an optional .env file from the working
// directory when none is given, and then resolves every setting from the
// environment. A named file that does not exist is an error.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return Config{}, fmt.Errorf("load env file: %w", err)
		}
		return FromEnv(), nil
	}
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
		logrus.Debug("no .env file found, relying on environment variables")
	}
	return FromEnv(), nil
}

// FromEnv builds a Config from environment variables only.
func FromEnv() Config {
	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "")),
		DatabasePath:   getEnv("DATABASE_PATH", ""),
		OpenAI: ProviderConfig{
			APIKey:  getEnv("OPENAI_API_KEY", ""),
			Model:   getEnv("OPENAI_MODEL", "gpt-4o"),
			BaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		},
		Groq: ProviderConfig{
			APIKey:  getEnv("GROQ_API_KEY", ""),
			Model:   getEnv("DEV_AI_MODEL", "qwen-qwq-32b"),
			BaseURL: getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		},
		Pollinations: ProviderConfig{
			Model:   getEnv("POLLINATIONS_MODEL", "openai-large"),
			BaseURL: getEnv("POLLINATIONS_URL", "https://text.pollinations.ai/openai"),
		},
		Google: GoogleConfig{
			APIKey:        firstEnv("GOOGLE_API_KEY", "GOOGLE_GENERATIVE_AI_API_KEY"),
			Model:         getEnv("GOOGLE_MODEL", "gemini-1.5-flash"),
			FallbackModel: getEnv("GOOGLE_FALLBACK_MODEL", "gemini-1.0-pro"),
		},
		OpenAIOnly: getEnvBool("USE_GEORGE_KEY", false),
		PDF: PDFConfig{
			Renderer:   strings.ToLower(getEnv("PDF_RENDERER", RendererWeasyPrint)),
			ServiceURL: getEnv("WEASYPRINT_SERVICE_URL", "http://localhost:5001/generate-pdf"),
			Timeout:    getEnvDuration("WEASYPRINT_TIMEOUT", 120*time.Second),
			MaxRetries: getEnvInt("PDF_MAX_RETRIES", 3),
			RetryDelay: getEnvDuration("PDF_RETRY_DELAY", 2*time.Second),
			ChromeBin:  getEnv("CHROME_BIN", ""),
		},
		MaxQuestions:      getEnvInt("MAX_QUESTIONS", 0),
		QuestionnairePath: getEnv("QUESTIONNAIRE_PATH", ""),
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = defaultDatabasePath()
	}
	return cfg
}

// ConfigureLogging applies the log level and formatter to the global logrus logger.
func (c Config) ConfigureLogging() {
	level, err := logrus.ParseLevel(strings.TrimSpace(c.LogLevel))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	if strings.EqualFold(c.LogFormat, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// MissingKeys lists the API key variables that are not set.
func (c Config) MissingKeys() []string {
	var missing []string
	if c.OpenAI.APIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if c.Google.APIKey == "" {
		missing = append(missing, "GOOGLE_API_KEY")
	}
	if c.Groq.APIKey == "" {
		missing = append(missing, "GROQ_API_KEY")
	}
	return missing
}

func defaultDatabasePath() string {
	path, err := xdg.DataFile(filepath.Join("ai-scorecard", "scorecard.db"))
	if err != nil {
		logrus.WithError(err).Warn("resolve xdg data path, using working directory")
		return filepath.Join("data", "scorecard.db")
	}
	return path
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := getEnv(key, ""); value != "" {
			return value
		}
	}
	return ""
}

func getEnvInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil && value > 0 {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	// bare integers are milliseconds
	if ms, err := strconv.Atoi(raw); err == nil && ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

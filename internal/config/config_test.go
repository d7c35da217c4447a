package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "OPENAI_MODEL", "WEASYPRINT_SERVICE_URL", "PDF_MAX_RETRIES", "GOOGLE_API_KEY", "GOOGLE_GENERATIVE_AI_API_KEY"} {
		t.Setenv(key, "")
	}
	t.Setenv("DATABASE_PATH", filepath.Join(t.TempDir(), "test.db"))

	cfg := FromEnv()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080 got %q", cfg.Port)
	}
	if cfg.OpenAI.Model != "gpt-4o" {
		t.Fatalf("expected gpt-4o got %q", cfg.OpenAI.Model)
	}
	if cfg.Google.FallbackModel != "gemini-1.0-pro" {
		t.Fatalf("unexpected fallback model %q", cfg.Google.FallbackModel)
	}
	if cfg.PDF.ServiceURL != "http://localhost:5001/generate-pdf" {
		t.Fatalf("unexpected weasyprint url %q", cfg.PDF.ServiceURL)
	}
	if cfg.PDF.MaxRetries != 3 || cfg.PDF.RetryDelay != 2*time.Second || cfg.PDF.Timeout != 120*time.Second {
		t.Fatalf("unexpected pdf defaults %+v", cfg.PDF)
	}
	if len(cfg.MissingKeys()) == 0 {
		t.Fatalf("expected missing keys when none are configured")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GOOGLE_GENERATIVE_AI_API_KEY", "g-key")
	t.Setenv("WEASYPRINT_TIMEOUT", "1500")
	t.Setenv("PDF_RETRY_DELAY", "250ms")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("USE_GEORGE_KEY", "true")
	t.Setenv("PDF_RENDERER", "Chrome")
	t.Setenv("DATABASE_PATH", filepath.Join(t.TempDir(), "x.db"))

	cfg := FromEnv()
	if cfg.Google.APIKey != "g-key" {
		t.Fatalf("expected google key from secondary variable got %q", cfg.Google.APIKey)
	}
	if cfg.PDF.Timeout != 1500*time.Millisecond {
		t.Fatalf("expected millisecond timeout got %v", cfg.PDF.Timeout)
	}
	if cfg.PDF.RetryDelay != 250*time.Millisecond {
		t.Fatalf("expected 250ms got %v", cfg.PDF.RetryDelay)
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Fatalf("expected two origins got %v", cfg.AllowedOrigins)
	}
	if !cfg.OpenAIOnly {
		t.Fatalf("expected openai only mode")
	}
	if cfg.PDF.Renderer != RendererChrome {
		t.Fatalf("expected chrome renderer got %q", cfg.PDF.Renderer)
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("MAX_QUESTIONS=7\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("MAX_QUESTIONS", "")
	os.Unsetenv("MAX_QUESTIONS")
	t.Setenv("DATABASE_PATH", filepath.Join(dir, "db.sqlite"))

	cfg, err := Load(envPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxQuestions != 7 {
		t.Fatalf("expected 7 questions got %d", cfg.MaxQuestions)
	}
	os.Unsetenv("MAX_QUESTIONS")
}

func TestLoadMissingDefaultFileIsNotAnError(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_PATH", filepath.Join(t.TempDir(), "db.sqlite"))
	if _, err := Load(); err != nil {
		t.Fatalf("expected missing .env to be ignored, got %v", err)
	}
}

func TestLoadMissingNamedFileFails(t *testing.T) {
	t.Setenv("DATABASE_PATH", filepath.Join(t.TempDir(), "db.sqlite"))
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected ErrNotExist for a named env file, got %v", err)
	}
}

func TestMaxQuestionsUnsetIsZero(t *testing.T) {
	t.Setenv("MAX_QUESTIONS", "")
	t.Setenv("DATABASE_PATH", filepath.Join(t.TempDir(), "db.sqlite"))
	if got := FromEnv().MaxQuestions; got != 0 {
		t.Fatalf("expected unset MAX_QUESTIONS to leave the questionnaire budget, got %d", got)
	}
}

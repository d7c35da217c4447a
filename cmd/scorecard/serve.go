package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ai-scorecard/backend/internal/ai"
	"ai-scorecard/backend/internal/api"
	"ai-scorecard/backend/internal/pdf"
	"ai-scorecard/backend/internal/questionnaire"
	"ai-scorecard/backend/internal/scorecard"
	"ai-scorecard/backend/internal/store"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	releaseMode := strings.EqualFold(cfg.GinMode, gin.ReleaseMode)
	if strings.TrimSpace(cfg.GinMode) != "" {
		gin.SetMode(cfg.GinMode)
	}

	db, err := store.Open(cfg.DatabasePath, releaseMode)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if n, err := db.FailRunningJobs("interrupted by server restart"); err != nil {
		logrus.WithError(err).Warn("reset running jobs")
	} else if n > 0 {
		logrus.WithField("jobs", n).Info("marked interrupted report jobs as failed")
	}

	set, err := ai.NewSet(ctx, cfg)
	if err != nil {
		return fmt.Errorf("configure ai providers: %w", err)
	}
	if missing := cfg.MissingKeys(); len(missing) > 0 {
		logrus.WithField("missing", strings.Join(missing, ",")).Warn("some AI provider keys are not set")
	}

	renderer, err := pdf.New(cfg.PDF)
	if err != nil {
		return err
	}
	if closer, ok := renderer.(io.Closer); ok {
		defer closer.Close()
	}

	q, err := loadQuestionnaire()
	if err != nil {
		return err
	}

	notifier := api.NewReportNotifier()
	svc, err := scorecard.New(scorecard.Config{
		Chains:        scorecard.ChainsFromSet(set),
		Questionnaire: q,
		Store:         db,
		Notifier:      notifier,
		PDF:           renderer,
	})
	if err != nil {
		return err
	}

	server, err := api.NewServer(api.Config{
		Service:        svc,
		DB:             db,
		Notifier:       notifier,
		Providers:      set.All(),
		AllowedOrigins: cfg.AllowedOrigins,
		ReleaseMode:    releaseMode,
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	router, err := server.Router()
	if err != nil {
		return fmt.Errorf("configure router: %w", err)
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logrus.WithFields(logrus.Fields{
			"port":     cfg.Port,
			"db":       cfg.DatabasePath,
			"renderer": renderer.Name(),
		}).Info("starting ai-scorecard backend")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server exited: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logrus.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func loadQuestionnaire() (*questionnaire.Questionnaire, error) {
	q := questionnaire.Default()
	if path := strings.TrimSpace(cfg.QuestionnairePath); path != "" {
		loaded, err := questionnaire.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load questionnaire: %w", err)
		}
		q = loaded
	}
	return q.WithMaxQuestions(cfg.MaxQuestions), nil
}

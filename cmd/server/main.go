package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dgallion1/docsum/internal/api"
	"github.com/dgallion1/docsum/internal/config"
	"github.com/dgallion1/docsum/internal/document"
	"github.com/dgallion1/docsum/internal/extract"
	"github.com/dgallion1/docsum/internal/merge"
	"github.com/dgallion1/docsum/internal/ocr"
	"github.com/dgallion1/docsum/internal/pipeline"
	"github.com/dgallion1/docsum/internal/report"
)

func main() {
	cfg, err := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	if err != nil {
		log.Error("cannot load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Extraction cascade.
	recognizer := ocr.NewRecognizer(ocr.NewDefaultEngine(), ocr.Options{
		Languages:       cfg.OCRLanguages,
		DefaultLanguage: cfg.OCRDefaultLanguage,
		Timeout:         cfg.OCRPageTimeout,
	}, log.With("component", "ocr"))
	cascade := extract.NewCascade(log.With("component", "extract"),
		extract.StructuralStrategy{},
		&extract.LayoutStrategy{FallbackPdftotext: cfg.PDFFallbackPdftotext, Log: log},
		&extract.OCRStrategy{
			Renderer:     document.NewPdftoppmRenderer(),
			Recognizer:   recognizer,
			DPI:          cfg.OCRRenderDPI,
			MaxDimension: cfg.OCRMaxDimension,
			Log:          log,
		},
	)

	// Report generation.
	stats := report.NewStats(time.Hour)
	reporter := report.NewClient(report.Options{
		BaseURL:     cfg.LLMBaseURL,
		APIKey:      cfg.LLMAPIKey,
		Model:       cfg.LLMModel,
		Timeout:     cfg.LLMTimeout,
		MaxTokens:   cfg.LLMMaxTokens,
		Temperature: float32(cfg.LLMTemperature),
	}, stats, log.With("component", "report"))

	// Pipeline.
	p := pipeline.New(cascade, merge.NewMerger(log.With("component", "merge")), cfg.MergeEnabled, log.With("component", "pipeline"))
	debugDir := ""
	if cfg.DebugPersist {
		debugDir = cfg.UploadDir
	}
	svc := pipeline.NewService(p, reporter, debugDir, log)
	orch := pipeline.NewOrchestrator(svc, cfg.WorkerCount, cfg.MaxQueueSize, cfg.JobTTL, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(svc, orch, stats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: cfg.LLMTimeout + 5*time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
	}()

	log.Info("starting docsum",
		"port", cfg.Port,
		"upload_dir", cfg.UploadDir,
		"model", cfg.LLMModel,
		"ocr_languages", strings.Join(cfg.OCRLanguages, "+"),
	)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-stopped
	log.Info("stopped")
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/MikeSquared-Agency/scribe/internal/anthropic"
	"github.com/MikeSquared-Agency/scribe/internal/api"
	"github.com/MikeSquared-Agency/scribe/internal/config"
	"github.com/MikeSquared-Agency/scribe/internal/hermes"
	"github.com/MikeSquared-Agency/scribe/internal/inject"
	"github.com/MikeSquared-Agency/scribe/internal/notion"
	"github.com/MikeSquared-Agency/scribe/internal/processor"
	"github.com/MikeSquared-Agency/scribe/internal/store"
	"github.com/MikeSquared-Agency/scribe/internal/watch"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel, cfg.LogFile)

	slog.Info("scribe starting", "port", cfg.Port)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := processor.Deps{
		Detector:   watch.NewDetector(cfg.SeenTTL),
		RescanWait: cfg.RescanQuiet,
	}

	// Database (optional: archives are not recorded without it)
	var archives api.ArchiveReader
	if cfg.DatabaseURL != "" {
		db, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.EnsureSchema(ctx); err != nil {
			slog.Error("failed to prepare schema", "error", err)
			os.Exit(1)
		}
		deps.Archive = db
		archives = db
		slog.Info("database connected")
	} else {
		slog.Warn("DATABASE_URL not set, archive log disabled")
	}

	// Notion
	exporter := notion.NewClient(cfg.NotionToken, cfg.NotionDatabaseID, slog.Default())
	if !exporter.HasCredentials() {
		slog.Warn("notion not configured, saving is disabled")
	}
	deps.Exporter = exporter

	// Anthropic client (optional: enables headless summaries)
	if cfg.AnthropicAPIKey != "" {
		llm := anthropic.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		deps.Model = llm
		slog.Info("anthropic client ready", "model", llm.Model())
	}

	// NATS/Hermes
	var hermesClient *hermes.Client
	if cfg.NatsURL != "" {
		c, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Warn("NATS unavailable, running without browser bridge", "error", err)
		} else {
			hermesClient = c
			deps.Publisher = c
			slog.Info("NATS connected", "url", cfg.NatsURL)
		}
	}
	deps.Injector = inject.New(deps.Publisher, inject.SystemClipboard{}, slog.Default())

	proc := processor.New(deps, slog.Default())
	defer proc.Close()

	if hermesClient != nil {
		if err := hermesClient.Subscribe(hermes.SubjectPageSnapshot, proc.HandlePageSnapshot); err != nil {
			slog.Error("failed to subscribe to page snapshots", "error", err)
			os.Exit(1)
		}
		if err := hermesClient.Subscribe(hermes.SubjectPromptRequest, proc.HandlePromptRequest); err != nil {
			slog.Error("failed to subscribe to prompt requests", "error", err)
			os.Exit(1)
		}
	}

	srv := api.NewServer(cfg.Port, cfg.APIToken, proc, archives, slog.Default())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if hermesClient != nil {
			hermesClient.Drain(shutdownCtx)
		}
		return srv.Shutdown(shutdownCtx)
	})

	if hermesClient != nil {
		if err := hermesClient.Publish(hermes.SubjectAgentRegistered, map[string]any{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"port":      cfg.Port,
			"notion":    exporter.HasCredentials(),
			"headless":  proc.Headless(),
		}); err != nil {
			slog.Warn("failed to publish registration", "error", err)
		}
	}

	slog.Info("scribe ready", "port", cfg.Port)

	if err := g.Wait(); err != nil {
		slog.Error("scribe exited with error", "error", err)
		os.Exit(1)
	}
	slog.Info("scribe stopped")
}

func setupLogging(level, file string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	var out io.Writer = os.Stdout
	if file != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   file,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		})
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}

// engagic-core runs the meeting-summarization pipeline: it drains the
// priority queue (internal/queue) with a pool of workers that hand each
// claimed job to internal/processor, against the Postgres content store
// (internal/store). Vendor ingestion itself is driven by whatever
// scraper or webhook calls internal/ingest.Orchestrator.Ingest; this
// binary is the always-on consumer side.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/engagic/core/internal/config"
	"github.com/engagic/core/internal/extract"
	"github.com/engagic/core/internal/llmclient"
	"github.com/engagic/core/internal/migrations"
	"github.com/engagic/core/internal/processor"
	"github.com/engagic/core/internal/queue"
	"github.com/engagic/core/internal/store"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configPath := flag.String("config", getEnv("CONFIG_PATH", ""), "Path to YAML configuration file (optional; env vars and defaults apply otherwise)")
	envFile := flag.String("env-file", getEnv("ENV_FILE", ".env"), "Path to a .env file to load before reading configuration")
	flag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := godotenv.Load(*envFile); err != nil {
		log.Warn("could not load env file, continuing with existing environment", slog.String("path", *envFile), slog.String("error", err.Error()))
	} else {
		log.Info("loaded environment file", slog.String("path", *envFile))
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := store.New(ctx, &store.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
	}, log)
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}()
	log.Info("connected to database")

	runner := migrations.NewRunner(s.DB(), log)
	if err := runner.Up(ctx); err != nil {
		log.Error("failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	q := queue.New(s.Queue, time.Duration(cfg.Queue.StaleAfterMinutes)*time.Minute)
	extractor := extract.NewHTTPExtractor(cfg.Extract.BaseURL, cfg.Extract.Timeout, log)
	summarizer := llmclient.NewHTTPSummarizer(cfg.LLM.BaseURL, cfg.LLM.DefaultModel, cfg.LLM.Temperature, cfg.LLM.MaxTokens, cfg.LLM.Timeout, log)

	proc := processor.New(s, q, extractor, summarizer, &processor.Config{
		LLMConcurrency:         cfg.Processor.LLMConcurrency,
		ItemTimeout:            cfg.Processor.ItemTimeout,
		MonolithicTimeout:      cfg.Processor.MonolithicTimeout,
		ParticipationScanChars: cfg.Processor.ParticipationScanChars,
	}, log)

	pool := queue.NewWorkerPool(getEnv("POD_ID", "engagic-core"), s.Queue, &queue.Config{
		WorkerCount:             cfg.Queue.WorkerCount,
		JobTimeout:              cfg.Queue.JobTimeout,
		PollInterval:            cfg.Queue.PollInterval,
		PollIntervalJitter:      cfg.Queue.PollIntervalJitter,
		GracefulShutdownTimeout: cfg.Queue.GracefulShutdownTimeout,
		StaleSweepInterval:      cfg.Queue.StaleSweepInterval,
		StaleAfter:              time.Duration(cfg.Queue.StaleAfterMinutes) * time.Minute,
	}, proc, s.Meetings)
	pool.Start(ctx)
	log.Info("queue worker pool started", slog.Int("worker_count", cfg.Queue.WorkerCount))

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		health := pool.Health()
		if !health.Healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		fmt.Fprintf(w, `{"healthy":%t,"active_workers":%d,"total_workers":%d}`, health.Healthy, health.ActiveWorkers, health.TotalWorkers)
	})

	httpServer := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: mux}
	go func() {
		log.Info("health endpoint listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("health endpoint failed", slog.String("error", err.Error()))
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received, stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Queue.GracefulShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("health endpoint shutdown error", slog.String("error", err.Error()))
	}

	pool.Stop()
	log.Info("shutdown complete")
}

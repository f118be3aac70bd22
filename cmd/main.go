package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rapporthq/rapport/internal/adapters/http/api"
	"github.com/rapporthq/rapport/internal/adapters/llm"
	"github.com/rapporthq/rapport/internal/adapters/repository"
	"github.com/rapporthq/rapport/internal/adapters/sources"
	app "github.com/rapporthq/rapport/internal/app"
	"github.com/rapporthq/rapport/internal/config"
	"github.com/rapporthq/rapport/internal/domain/health"
	"github.com/rapporthq/rapport/internal/domain/pipeline"
	"github.com/rapporthq/rapport/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := repository.Open(cfg.DBPath)
	if err != nil {
		log.Error(ctx, "failed to open store", logger.String("db_path", cfg.DBPath), logger.Error(err))
		return
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn(ctx, "store close failed", logger.Error(err))
		}
	}()

	srcs := []sources.Source{sources.NewManualSource()}
	if cfg.ImportPath != "" {
		srcs = append(srcs, sources.NewFileSource("file", cfg.ImportPath))
	}

	opts := []app.Option{
		app.WithLogger(log.Named("service")),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithSchedule(cfg.SyncSchedule),
		app.WithEstimator(health.NewEstimator(
			health.WithMinEvidence(cfg.MinEvidence),
			health.WithMinCadence(time.Duration(cfg.MinCadenceDays*24)*time.Hour),
			health.WithOverdueThreshold(cfg.OverdueThreshold),
		)),
		app.WithDetector(pipeline.NewDetector(
			pipeline.WithLeadThreshold(cfg.LeadStuckDays),
			pipeline.WithApplicantThreshold(cfg.ApplicantStuckDays),
		)),
		app.WithSources(srcs...),
	}
	if cfg.LLMEnabled {
		opts = append(opts, app.WithAnalyzer(llm.NewExtractor(
			cfg.AnthropicAPIKey,
			store,
			llm.WithModel(cfg.LLMModel),
			llm.WithMaxNotes(cfg.LLMBatchSize),
		)))
	}

	svc := app.New(store, opts...)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	// HTTP mux and routes.
	mux := http.NewServeMux()
	apiServer := api.NewServer(svc)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

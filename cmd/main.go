package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/openscout/gridiron/internal/adapters/classifier"
	"github.com/openscout/gridiron/internal/adapters/http/api"
	"github.com/openscout/gridiron/internal/adapters/http/swagger"
	app "github.com/openscout/gridiron/internal/app"
	"github.com/openscout/gridiron/internal/config"
	"github.com/openscout/gridiron/internal/domain/types"
	"github.com/openscout/gridiron/internal/domain/whatif"
	"github.com/openscout/gridiron/pkg/logger"
	"github.com/openscout/gridiron/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger is not up yet; write initialization errors directly.
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			os.Stderr.WriteString("failed to flush logs: " + err.Error() + "\n")
		}
	}()

	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	log.Debug(ctx, "effective configuration", logger.String("config", cfg.String()))

	svc := app.New(serviceOptions(cfg, log)...)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer func() { _ = svc.Stop(context.Background()) }()

	// Runtime gauges; the queue, workers, and board feed their own.
	metrics.StartRuntimeCollector(ctx)

	// HTTP mux and routes.
	mux := http.NewServeMux()

	// API docs under /docs plus the raw spec.
	swagger.Register(ctx, mux)

	// Business API routes backed by the service.
	apiServer := api.NewServer(svc, svc, cfg.MaxBoardLimit)
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
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// serviceOptions translates the loaded configuration into service
// options. The remote classifier is wired only when an endpoint is
// configured; otherwise the service falls back to the rule-based one.
func serviceOptions(cfg *config.Config, log logger.Logger) []app.Option {
	opts := []app.Option{
		app.WithLogger(log.Named("service")),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueCapacity(cfg.QueueCapacity),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithClassifierTries(cfg.ClassifierTries),
		app.WithClassifierPause(time.Duration(cfg.ClassifierPauseMS) * time.Millisecond),
		app.WithWhatIfThreshold(cfg.WhatIfThreshold),
		app.WithSolverOptions(
			whatif.WithMaxIterations(cfg.WhatIfIterations),
			whatif.WithConcurrency(cfg.WhatIfConcurrency),
			whatif.WithBudget(time.Duration(cfg.WhatIfBudgetMS)*time.Millisecond),
		),
	}

	if cfg.ModelEndpoint != "" {
		remote := classifier.New(cfg.ModelEndpoint,
			classifier.WithTimeout(time.Duration(cfg.ModelTimeoutMS)*time.Millisecond),
			classifier.WithSchemaTTL(time.Duration(cfg.SchemaTTLSec)*time.Second),
		)
		opts = append(opts,
			app.WithClassifier(remote),
			app.WithClassifierBackend("model"),
		)
	}

	if cfg.ImputeSeed != 0 {
		opts = append(opts, app.WithImputeSeed(cfg.ImputeSeed))
	}

	if len(cfg.Benchmarks) > 0 {
		opts = append(opts, app.WithBenchmarks(cfg.Benchmarks))
	}

	if len(cfg.Candidates) > 0 {
		opts = append(opts, app.WithCandidates(candidateOverrides(cfg.Candidates)))
	}

	return opts
}

// candidateOverrides re-keys the configured candidate sets by position.
// Keys were validated at load time.
func candidateOverrides(raw map[string][]whatif.Candidate) map[types.Position][]whatif.Candidate {
	out := make(map[types.Position][]whatif.Candidate, len(raw))
	for key, set := range raw {
		out[types.Position(strings.ToLower(strings.TrimSpace(key)))] = set
	}
	return out
}

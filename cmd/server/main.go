// Command server starts the opportunity analyzer HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/leadfunnel/opportunity-analyzer/internal/adapter/httpserver"
	"github.com/leadfunnel/opportunity-analyzer/internal/adapter/store/memory"
	"github.com/leadfunnel/opportunity-analyzer/internal/adapter/store/redisstore"
	"github.com/leadfunnel/opportunity-analyzer/internal/app"
	"github.com/leadfunnel/opportunity-analyzer/internal/config"
	"github.com/leadfunnel/opportunity-analyzer/internal/domain"
	"github.com/leadfunnel/opportunity-analyzer/internal/observability"
	"github.com/leadfunnel/opportunity-analyzer/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	// Usage store: redis when configured, in-memory otherwise.
	var store domain.UsageStore
	if cfg.RedisURL != "" {
		rs, err := redisstore.New(cfg.RedisURL)
		if err != nil {
			slog.Error("redis store init failed", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() { _ = rs.Close() }()
		store = rs
		slog.Info("usage store: redis")
	} else {
		store = memory.New()
		slog.Info("usage store: in-memory")
	}

	costs := usecase.NewCostAccountant(store, cfg.DailyBudgetUSD, cfg.BudgetWarnRatio, cfg.BudgetCritRatio)

	chain := app.BuildProviderChain(cfg)
	for _, p := range chain {
		slog.Info("provider chain entry",
			slog.String("provider", p.Name()),
			slog.String("model", p.Model()),
			slog.Bool("configured", p.Configured()))
	}

	// Production randomizes the synthetic flavor; tests pin index 0 by
	// using the zero-value generator.
	gen := usecase.SyntheticGenerator{Select: rand.Intn} //nolint:gosec // Flavor selection needs no crypto randomness.
	svc := usecase.NewService(chain, costs, gen)

	srv := httpserver.NewServer(cfg, svc, store.Ping)
	handler := app.BuildRouter(cfg, srv)

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	go func() {
		slog.Info("server starting", slog.Int("port", cfg.Port), slog.String("env", cfg.AppEnv))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	slog.Info("shutting down", slog.Duration("timeout", cfg.ServerShutdownTimeout))
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		slog.Error("graceful shutdown failed", slog.Any("error", err))
	}
}

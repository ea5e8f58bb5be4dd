package main

import (
	"context"
	"os"

	"github.com/riskibarqy/season-stats/internal/app"
	"github.com/riskibarqy/season-stats/internal/config"
	"github.com/riskibarqy/season-stats/internal/observability"
	"github.com/riskibarqy/season-stats/internal/platform/logging"
)

// withRuntime loads configuration, starts tracing and profiling, and hands a
// ready runtime to fn. Everything is torn down once fn returns.
func withRuntime(ctx context.Context, teamsFile string, fn func(ctx context.Context, runtime *app.Runtime, logger *logging.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat).With(
		"service", cfg.ServiceName,
		"env", cfg.AppEnv,
	)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("uptrace shutdown failed", "error", err)
		}
	}()

	stopProfiling, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := stopProfiling(); err != nil {
			logger.Warn("pyroscope stop failed", "error", err)
		}
	}()

	runtime, err := app.NewRuntime(cfg, logger, teamsFile)
	if err != nil {
		return err
	}
	defer func() {
		if err := runtime.Close(); err != nil {
			logger.Warn("close runtime", "error", err)
		}
	}()

	return fn(ctx, runtime, logger)
}

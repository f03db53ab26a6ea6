// Package observability provides logging, metrics, and tracing for the
// analyzer. Degradation is deliberately invisible to end users, so the
// structured logs and metrics here are the only way operators observe it.
package observability

import (
	"log/slog"
	"os"

	"github.com/leadfunnel/opportunity-analyzer/internal/config"
)

// SetupLogger configures a JSON slog logger with environment fields.
func SetupLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{}
	if cfg.IsDev() {
		opts.Level = slog.LevelDebug
	}
	h := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(h).With(
		slog.String("service", cfg.OTELServiceName),
		slog.String("env", cfg.AppEnv),
	)
}

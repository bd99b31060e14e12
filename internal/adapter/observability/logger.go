package observability

import (
	"log/slog"
	"os"
	"strings"

	"github.com/ai2b/zena-toolserver/internal/config"
)

// SetupLogger configures a JSON slog logger with environment fields.
// LOG_LEVEL wins; dev defaults to debug when it is unset.
func SetupLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg)}
	h := slog.NewJSONHandler(os.Stdout, opts)
	logger := slog.New(h).With(
		slog.String("service", cfg.OTELServiceName),
		slog.String("env", cfg.AppEnv),
	)
	return logger
}

func parseLevel(cfg config.Config) slog.Level {
	switch strings.ToUpper(cfg.LogLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	case "INFO":
		return slog.LevelInfo
	default:
		if cfg.IsDev() {
			return slog.LevelDebug
		}
		return slog.LevelInfo
	}
}

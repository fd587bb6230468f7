package observability

import (
	"log/slog"

	"github.com/couchcryptid/hydro-priority-service/internal/config"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// NewLogger builds the service logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default. Unknown levels fall back to info and
// unknown formats to JSON.
func NewLogger(cfg *config.Config) *slog.Logger {
	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat).With("service", "hydro-priority")
	slog.SetDefault(logger)
	return logger
}

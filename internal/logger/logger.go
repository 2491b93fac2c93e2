package logger

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kailas-cloud/edgeq/internal/version"
)

// ServiceName tags every log line of the process.
const ServiceName = "edgeq"

// NewLogger creates a zap logger for the given environment.
// prod writes JSON, local/dev/docker write colored console output.
// levelOverride (if non-empty) overrides the level: debug, info, warn, error.
// Every entry carries the service name and build version.
func NewLogger(env string, levelOverride ...string) (*zap.Logger, error) {
	var cfg zap.Config
	switch env {
	case "prod":
		cfg = zap.NewProductionConfig()
		// Keep every per-request line.
		cfg.Sampling = nil
	case "local", "dev", "docker":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("unknown environment %q for logger", env)
	}

	if len(levelOverride) > 0 && levelOverride[0] != "" {
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(levelOverride[0])); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", levelOverride[0], err)
		}
		cfg.Level = zap.NewAtomicLevelAt(level)
	}

	cfg.InitialFields = map[string]any{
		"service": ServiceName,
		"version": version.Version,
	}

	l, err := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l, nil
}

// ForRequest derives the per-request logger tagged with requestID and stores
// it in ctx. Downstream code picks it up with FromContext.
func ForRequest(ctx context.Context, base *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	l := base
	if requestID != "" {
		l = base.With(zap.String("request_id", requestID))
	}
	return ContextWithLogger(ctx, l), l
}

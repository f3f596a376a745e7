package search

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const (
	ModeSequential = "sequential"
	ModeParallel   = "parallel"
)

// Observer receives telemetry from the orchestrator and invoker.
type Observer interface {
	ProviderAttempt(provider ProviderID, attempt int, took time.Duration, err error)
	SearchCompleted(mode string, took time.Duration, succeeded, failed int)
}

// NopObserver discards all telemetry.
type NopObserver struct{}

func (NopObserver) ProviderAttempt(ProviderID, int, time.Duration, error) {}

func (NopObserver) SearchCompleted(string, time.Duration, int, int) {}

// loggerFromContext returns the logger from the context if available,
// otherwise falls back to the provided logger.
func loggerFromContext(ctx context.Context, fallback *zerolog.Logger) *zerolog.Logger {
	if ctx != nil {
		if ctxLog := zerolog.Ctx(ctx); ctxLog != nil && ctxLog.GetLevel() != zerolog.Disabled {
			return ctxLog
		}
	}
	return fallback
}

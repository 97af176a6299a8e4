package pipeline

import (
	"context"
	"log/slog"
)

// Outcome reports a collaborator step that is allowed to fail.
type Outcome struct {
	OK     bool
	Reason string
}

// Skipped is the outcome of a step that was not configured.
func Skipped(reason string) Outcome { return Outcome{Reason: reason} }

// BestEffort runs fn and turns any error into a logged Outcome.
func BestEffort(ctx context.Context, logger *slog.Logger, step string, fn func(ctx context.Context) error) Outcome {
	if logger == nil {
		logger = slog.Default()
	}
	if err := fn(ctx); err != nil {
		logger.Warn("besteffort.failed", "step", step, "error", err)
		return Outcome{Reason: err.Error()}
	}
	return Outcome{OK: true, Reason: "ok"}
}

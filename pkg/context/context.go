// Package context carries per-run tracing values for bundler
package context

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type contextKey int

const (
	runIDKey contextKey = iota
	operationKey
	startTimeKey
)

// WithRunID adds a run ID to the context, generating one when empty
func WithRunID(parent context.Context, runID string) context.Context {
	if runID == "" {
		runID = GenerateRunID()
	}
	return context.WithValue(parent, runIDKey, runID)
}

// RunID retrieves the run ID from context
func RunID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(runIDKey).(string)
	return id, ok && id != ""
}

// WithOperation adds an operation name to the context
func WithOperation(parent context.Context, operation string) context.Context {
	return context.WithValue(parent, operationKey, operation)
}

// Operation retrieves the operation name from context
func Operation(ctx context.Context) (string, bool) {
	op, ok := ctx.Value(operationKey).(string)
	return op, ok && op != ""
}

// WithStartTime adds the run start time to the context
func WithStartTime(parent context.Context, startTime time.Time) context.Context {
	return context.WithValue(parent, startTimeKey, startTime)
}

// StartTime retrieves the run start time, or the zero time when unset
func StartTime(ctx context.Context) time.Time {
	if t, ok := ctx.Value(startTimeKey).(time.Time); ok {
		return t
	}
	return time.Time{}
}

// GenerateRunID creates a new unique run ID
func GenerateRunID() string {
	return "run_" + uuid.New().String()
}

// NewRun stamps a context with a fresh run ID and start time, keeping an
// existing run ID if the caller already set one.
func NewRun(parent context.Context, now time.Time) context.Context {
	ctx := parent
	if _, ok := RunID(ctx); !ok {
		ctx = WithRunID(ctx, "")
	}
	return WithStartTime(ctx, now)
}

// Package ctxutil provides type-safe context value management.
// Uses private key types to prevent collisions.
package ctxutil

import (
	"context"
)

type contextKey string

const (
	requestIDKey contextKey = "ctxutil.requestID"
	dateKey      contextKey = "ctxutil.date"
	stageKey     contextKey = "ctxutil.stage"
)

// WithRequestID adds a request ID to the context for tracing.
// Request ID is generated per HTTP request for log correlation.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
// Returns the request ID and true if found, empty string and false otherwise.
func GetRequestID(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(requestIDKey).(string)
	return requestID, ok
}

// WithDate adds the attendance date (YYYY-MM-DD) an operation works on.
func WithDate(ctx context.Context, date string) context.Context {
	return context.WithValue(ctx, dateKey, date)
}

// GetDate retrieves the attendance date from the context.
// Returns the date if found, empty string otherwise.
func GetDate(ctx context.Context) string {
	if v := ctx.Value(dateKey); v != nil {
		if date, ok := v.(string); ok && date != "" {
			return date
		}
	}
	return ""
}

// WithStage adds the record stage (draft or final) an operation works on.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, stageKey, stage)
}

// GetStage retrieves the record stage from the context.
// Returns the stage if found, empty string otherwise.
func GetStage(ctx context.Context) string {
	if v := ctx.Value(stageKey); v != nil {
		if stage, ok := v.(string); ok && stage != "" {
			return stage
		}
	}
	return ""
}

// PreserveTracing creates a detached context that preserves tracing values.
// The new context is independent of the parent's cancellation and deadlines.
//
// This function creates a fresh context.Background() and copies only tracing values,
// avoiding memory leaks from retaining parent context references (Go issue #64478).
//
// Use for work that must outlive the request, such as publishing a committed
// snapshot after the response has been written.
func PreserveTracing(ctx context.Context) context.Context {
	newCtx := context.Background()

	if requestID, ok := GetRequestID(ctx); ok && requestID != "" {
		newCtx = WithRequestID(newCtx, requestID)
	}
	if date := GetDate(ctx); date != "" {
		newCtx = WithDate(newCtx, date)
	}
	if stage := GetStage(ctx); stage != "" {
		newCtx = WithStage(newCtx, stage)
	}

	return newCtx
}

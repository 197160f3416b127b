package runctx

import (
	"context"
	"errors"
)

type contextKey string

const (
	// runIDKey is the context key for the workflow run ID
	runIDKey contextKey = "run_id"
)

var (
	// ErrNoRunID is returned when no run ID is found in the context
	ErrNoRunID = errors.New("no run ID found in context")
)

// WithRunID returns a new context carrying the given workflow run ID
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// GetRunID returns the workflow run ID from the context
func GetRunID(ctx context.Context) (string, error) {
	runID, ok := ctx.Value(runIDKey).(string)
	if !ok || runID == "" {
		return "", ErrNoRunID
	}
	return runID, nil
}

// HasRunID returns true if the context carries a workflow run ID
func HasRunID(ctx context.Context) bool {
	_, err := GetRunID(ctx)
	return err == nil
}

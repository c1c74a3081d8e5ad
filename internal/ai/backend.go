// Package ai defines the boundary to text-generation backends.
package ai

import (
	"context"
)

// Request is a single generation call.
type Request struct {
	Prompt        string
	Temperature   float32
	MaxTokens     int
	StopSequences []string
}

// Backend produces raw text for a prompt. Implementations perform exactly one
// request per call; retries and parsing belong to the caller.
type Backend interface {
	Generate(ctx context.Context, req Request) (string, error)
	// Ping reports whether the backend is reachable and serving the model.
	Ping(ctx context.Context) error
	Provider() string
	Model() string
}

// RetryClassifier is implemented by backends that can tell whether an error
// is worth retrying.
type RetryClassifier interface {
	IsRetryable(err error) bool
}

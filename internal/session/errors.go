package session

import "errors"

var (
	// ErrBackendUnavailable is returned by CreateSession when the pre-flight
	// health check of the generation backend fails.
	ErrBackendUnavailable = errors.New("generation backend unavailable")
	// ErrSessionNotFound is returned when the durable context is absent or expired.
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("session already exists")
	ErrEmptyAnswer     = errors.New("answer must not be empty")
)

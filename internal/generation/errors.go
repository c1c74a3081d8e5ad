package generation

import "errors"

var (
	// ErrBackendTimeout is returned when a single backend call exceeds its deadline.
	ErrBackendTimeout = errors.New("generation backend timed out")
	// ErrMalformedResponse wraps every parse or validation failure of backend output.
	ErrMalformedResponse = errors.New("malformed generation response")

	ErrNoJSONObject      = errors.New("no JSON object found")
	ErrEmptyText         = errors.New("question text is empty")
	ErrInvalidCategory   = errors.New("invalid question category")
	ErrInvalidDifficulty = errors.New("invalid question difficulty")
)

// Package generation turns prompts into validated interview questions. It
// owns the per-call timeout, the retry policy and the repair of loosely
// formatted model output.
package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/hh-interviewer/internal/ai"
	"github.com/spigell/hh-interviewer/internal/logger"
	"github.com/spigell/hh-interviewer/internal/utils"
)

const (
	DefaultTimeout     = 15 * time.Second
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 512
)

// Options configures request parameters and retry behaviour.
type Options struct {
	Temperature   float32
	MaxTokens     int
	StopSequences []string
	// Timeout bounds a single backend call when the caller passes none.
	Timeout time.Duration
	Policy  Policy
}

// DefaultOptions returns the parameters used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		Timeout:     DefaultTimeout,
		Policy:      DefaultPolicy(),
	}
}

// Client wraps an ai.Backend with timeouts, retries and output validation.
type Client struct {
	backend ai.Backend
	opts    Options
	logger  *zap.Logger
}

func NewClient(backend ai.Backend, opts Options, log *zap.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	opts.Policy = opts.Policy.normalized()

	return &Client{
		backend: backend,
		opts:    opts,
		logger:  logger.WithCommonFields(log, backend.Provider(), backend.Model()),
	}
}

// Generate asks the backend for a question and validates the reply.
// A zero timeout uses the configured default.
func (c *Client) Generate(ctx context.Context, prompt string, timeout time.Duration) (Candidate, error) {
	return run(ctx, c, "question", prompt, timeout, ParseQuestion)
}

// GenerateFollowUp asks the backend for an acknowledgment and a probing question.
func (c *Client) GenerateFollowUp(ctx context.Context, prompt string, timeout time.Duration) (FollowUp, error) {
	return run(ctx, c, "follow-up", prompt, timeout, ParseFollowUp)
}

// Healthy probes the backend within the default call timeout.
func (c *Client) Healthy(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	if err := c.backend.Ping(pingCtx); err != nil {
		c.logger.Warn("generation backend is unhealthy", zap.Error(err))
		return false
	}
	return true
}

func run[T any](ctx context.Context, c *Client, kind, prompt string, timeout time.Duration, parse func(string) (T, error)) (T, error) {
	var zero T
	if timeout <= 0 {
		timeout = c.opts.Timeout
	}

	attempts := c.opts.Policy.MaxRetries + 1
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := utils.WaitFor(ctx, c.opts.Policy.Backoff(attempt-1)); err != nil {
				return zero, fmt.Errorf("waiting before retry: %w", errors.Join(err, lastErr))
			}
		}

		raw, err := c.call(ctx, prompt, timeout)
		if err == nil {
			var result T
			if result, err = parse(raw); err == nil {
				if attempt > 1 {
					c.logger.Info("generation succeeded after retry", zap.String("kind", kind), zap.Int("attempt", attempt))
				}
				return result, nil
			}
			c.logger.Debug("unparsable generation output",
				zap.String("kind", kind),
				zap.String("output_preview", utils.TruncateForLog(raw, 200)),
			)
		}
		lastErr = err

		if ctx.Err() != nil || !c.retryable(err) {
			break
		}
		if attempt < attempts {
			c.logger.Warn("generation attempt failed, retrying",
				zap.String("kind", kind),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", attempts),
				zap.Error(err),
			)
		}
	}

	return zero, fmt.Errorf("generate %s: %w", kind, lastErr)
}

func (c *Client) call(ctx context.Context, prompt string, timeout time.Duration) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	text, err := c.backend.Generate(callCtx, ai.Request{
		Prompt:        prompt,
		Temperature:   c.opts.Temperature,
		MaxTokens:     c.opts.MaxTokens,
		StopSequences: c.opts.StopSequences,
	})
	if err != nil {
		if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s: %w", ErrBackendTimeout, timeout, err)
		}
		return "", err
	}
	return text, nil
}

func (c *Client) retryable(err error) bool {
	if !errors.Is(err, ErrMalformedResponse) && !errors.Is(err, ErrBackendTimeout) {
		if classifier, ok := c.backend.(ai.RetryClassifier); ok && !classifier.IsRetryable(err) {
			return false
		}
	}
	return c.opts.Policy.Retryable(err)
}

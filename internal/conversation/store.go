// Package conversation keeps the durable, TTL-bound interview context shared
// by every process handling a session.
package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/hh-interviewer/internal/interview"
)

const (
	DefaultTTL = time.Hour
	keyPrefix  = "interview:context:"
)

// Store reads and writes contexts as whole serialized values over a KV.
// Writes are read-modify-write and are not atomic across concurrent writers
// on the same session; callers serialize per-session operations.
type Store struct {
	kv     KV
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewStore creates a Store. A non-positive ttl falls back to DefaultTTL.
func NewStore(kv KV, ttl time.Duration, logger *zap.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{kv: kv, ttl: ttl, logger: logger, now: time.Now}
}

// TTL returns the expiry applied on every write.
func (s *Store) TTL() time.Duration { return s.ttl }

// Init creates a fresh context for the session, replacing any previous one.
func (s *Store) Init(ctx context.Context, sessionID string, profile interview.Profile, focus string, planned int) (*Context, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, errors.New("session id is required")
	}

	now := s.now().UTC()
	c := &Context{
		SessionID:        sessionID,
		Profile:          profile,
		Focus:            strings.TrimSpace(focus),
		Transcript:       make([]interview.Message, 0, 2*planned),
		PlannedQuestions: planned,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.write(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Debug("conversation context initialized",
		zap.String("session_id", sessionID),
		zap.Int("planned_questions", planned),
		zap.Duration("ttl", s.ttl),
	)
	return c, nil
}

// Read returns the context, or ErrNotFound once the TTL window has elapsed.
func (s *Store) Read(ctx context.Context, sessionID string) (*Context, error) {
	raw, err := s.kv.Get(ctx, key(sessionID))
	if err != nil {
		return nil, err
	}

	var c Context
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode context %s: %w", sessionID, err)
	}
	return &c, nil
}

// Append adds a message to the transcript and returns the updated context.
func (s *Store) Append(ctx context.Context, sessionID string, msg interview.Message) (*Context, error) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now().UTC()
	}
	return s.Update(ctx, sessionID, func(c *Context) error {
		c.apply(msg)
		return nil
	})
}

// MarkComplete flags the context as finished. It is a no-op when already complete.
func (s *Store) MarkComplete(ctx context.Context, sessionID string) (*Context, error) {
	return s.Update(ctx, sessionID, func(c *Context) error {
		c.Complete = true
		return nil
	})
}

// Update performs a read-modify-write cycle and refreshes the TTL.
func (s *Store) Update(ctx context.Context, sessionID string, mutate func(*Context) error) (*Context, error) {
	c, err := s.Read(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := mutate(c); err != nil {
		return nil, err
	}
	c.UpdatedAt = s.now().UTC()

	if err := s.write(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Touch refreshes the TTL without changing the context.
func (s *Store) Touch(ctx context.Context, sessionID string) error {
	return s.kv.Expire(ctx, key(sessionID), s.ttl)
}

// Delete removes the context. Deleting an absent context is not an error.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.kv.Delete(ctx, key(sessionID)); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete context %s: %w", sessionID, err)
	}
	return nil
}

// Ping checks the underlying KV.
func (s *Store) Ping(ctx context.Context) error {
	return s.kv.Ping(ctx)
}

func (s *Store) write(ctx context.Context, c *Context) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode context %s: %w", c.SessionID, err)
	}
	if err := s.kv.Set(ctx, key(c.SessionID), raw, s.ttl); err != nil {
		return fmt.Errorf("write context %s: %w", c.SessionID, err)
	}
	return nil
}

func key(sessionID string) string {
	return keyPrefix + sessionID
}

package conversation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/spigell/hh-interviewer/internal/utils"
)

const (
	busyRetries   = 3
	busyBaseDelay = 50 * time.Millisecond
)

// SQLiteKV persists contexts in a SQLite table so they survive restarts
// and can be shared by processes on the same host.
type SQLiteKV struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// OpenSQLite opens (or creates) the database at path. Pass ":memory:" for an
// in-memory database.
func OpenSQLite(path string, logger *zap.Logger) (*SQLiteKV, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single connection avoids "database is locked" between our own writers
	// and keeps ":memory:" databases alive for the lifetime of the pool.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	kv := &SQLiteKV{db: db, logger: logger, now: time.Now}
	if err := kv.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return kv, nil
}

func (s *SQLiteKV) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	PRAGMA journal_mode = WAL;
	CREATE TABLE IF NOT EXISTS contexts (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		expires_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_contexts_expires ON contexts(expires_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *SQLiteKV) Get(ctx context.Context, key string) ([]byte, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT value FROM contexts WHERE key = ? AND expires_at > ?`,
		key, s.now().UnixMilli(),
	)

	var value []byte
	err := row.Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan context row: %w", err)
	}
	return value, nil
}

func (s *SQLiteKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	query := `
	INSERT INTO contexts (key, value, expires_at, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET
		value = excluded.value,
		expires_at = excluded.expires_at,
		updated_at = excluded.updated_at`

	now := s.now()
	return s.withRetry(ctx, "set", key, func() error {
		_, err := s.db.ExecContext(ctx, query, key, value, now.Add(ttl).UnixMilli(), now.UnixMilli())
		if err != nil {
			return fmt.Errorf("upsert context: %w", err)
		}
		return nil
	})
}

func (s *SQLiteKV) Expire(ctx context.Context, key string, ttl time.Duration) error {
	now := s.now()
	return s.withRetry(ctx, "expire", key, func() error {
		result, err := s.db.ExecContext(ctx,
			`UPDATE contexts SET expires_at = ?, updated_at = ? WHERE key = ? AND expires_at > ?`,
			now.Add(ttl).UnixMilli(), now.UnixMilli(), key, now.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("update expiry: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if rows == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *SQLiteKV) Delete(ctx context.Context, key string) error {
	return s.withRetry(ctx, "delete", key, func() error {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM contexts WHERE key = ?`, key); err != nil {
			return fmt.Errorf("delete context: %w", err)
		}
		return nil
	})
}

// Sweep removes rows whose TTL has elapsed.
func (s *SQLiteKV) Sweep(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM contexts WHERE expires_at <= ?`, s.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("sweep expired contexts: %w", err)
	}
	return result.RowsAffected()
}

func (s *SQLiteKV) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteKV) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// withRetry retries fn with exponential backoff on SQLite lock contention.
func (s *SQLiteKV) withRetry(ctx context.Context, op, key string, fn func() error) error {
	var err error
	for i := 0; i < busyRetries; i++ {
		err = fn()
		if err == nil || !isConflictError(err) {
			return err
		}

		if i < busyRetries-1 {
			delay := busyBaseDelay * time.Duration(1<<i)
			s.logger.Debug("sqlite busy, retrying",
				zap.String("op", op),
				zap.String("key", key),
				zap.Int("attempt", i+1),
				zap.Duration("delay", delay),
			)
			if waitErr := utils.WaitFor(ctx, delay); waitErr != nil {
				return waitErr
			}
		}
	}
	return fmt.Errorf("%s %s after %d attempts: %w", op, key, busyRetries, err)
}

func isConflictError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// Package session provides storage backends for chat sessions.
//
// This file implements the PostgreSQL-backed store.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	_ "github.com/lib/pq"

	"github.com/KirillMachuk/tg-transformator-bot/internal/models"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore persists sessions as JSONB rows in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres session store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	cfg := applyOptions(opts)
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")

	return &PostgresStore{db: db}, nil
}

// Get retrieves the session for a chat, or (nil, nil) when absent.
func (s *PostgresStore) Get(ctx context.Context, chatID int64) (*models.Session, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM sessions WHERE chat_id = $1`, chatID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore Get failed", "error", err, "chatID", chatID)
		return nil, fmt.Errorf("failed to query session for %d: %w", chatID, err)
	}

	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		slog.Error("PostgresStore Get unmarshal failed", "error", err, "chatID", chatID)
		return nil, fmt.Errorf("failed to decode session for %d: %w", chatID, err)
	}
	return &sess, nil
}

// Set upserts the session row.
func (s *PostgresStore) Set(ctx context.Context, sess *models.Session) error {
	if sess.ChatID == 0 {
		return models.ErrEmptyChatID
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session for %d: %w", sess.ChatID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (chat_id, data, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (chat_id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		sess.ChatID, data, time.Now())
	if err != nil {
		slog.Error("PostgresStore Set failed", "error", err, "chatID", sess.ChatID)
		return fmt.Errorf("failed to upsert session for %d: %w", sess.ChatID, err)
	}
	slog.Debug("PostgresStore Set succeeded", "chatID", sess.ChatID)
	return nil
}

// Delete removes the session row.
func (s *PostgresStore) Delete(ctx context.Context, chatID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE chat_id = $1`, chatID); err != nil {
		slog.Error("PostgresStore Delete failed", "error", err, "chatID", chatID)
		return fmt.Errorf("failed to delete session for %d: %w", chatID, err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

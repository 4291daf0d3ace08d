// Package session provides storage backends for chat sessions.
//
// This file implements the SQLite-backed store.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"

	"github.com/KirillMachuk/tg-transformator-bot/internal/models"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore persists sessions as JSON rows in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite session store. The DSN is a file path;
// missing directories are created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	cfg := applyOptions(opts)
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

// Get retrieves the session for a chat, or (nil, nil) when absent.
func (s *SQLiteStore) Get(ctx context.Context, chatID int64) (*models.Session, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM sessions WHERE chat_id = ?`, chatID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore Get failed", "error", err, "chatID", chatID)
		return nil, fmt.Errorf("failed to query session for %d: %w", chatID, err)
	}

	var sess models.Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		slog.Error("SQLiteStore Get unmarshal failed", "error", err, "chatID", chatID)
		return nil, fmt.Errorf("failed to decode session for %d: %w", chatID, err)
	}
	return &sess, nil
}

// Set upserts the session row.
func (s *SQLiteStore) Set(ctx context.Context, sess *models.Session) error {
	if sess.ChatID == 0 {
		return models.ErrEmptyChatID
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session for %d: %w", sess.ChatID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (chat_id, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(chat_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		sess.ChatID, string(data), time.Now())
	if err != nil {
		slog.Error("SQLiteStore Set failed", "error", err, "chatID", sess.ChatID)
		return fmt.Errorf("failed to upsert session for %d: %w", sess.ChatID, err)
	}
	slog.Debug("SQLiteStore Set succeeded", "chatID", sess.ChatID)
	return nil
}

// Delete removes the session row.
func (s *SQLiteStore) Delete(ctx context.Context, chatID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE chat_id = ?`, chatID); err != nil {
		slog.Error("SQLiteStore Delete failed", "error", err, "chatID", chatID)
		return fmt.Errorf("failed to delete session for %d: %w", chatID, err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Package session provides key-value persistence of per-chat sessions.
//
// One record per chat, keyed by chat id, behind a get/set/delete contract.
// Backends: in-memory (go-cache), SQLite, PostgreSQL, and Redis. The fallback
// wrapper degrades a failing backend to memory so availability never depends
// on the backend being up.
package session

import (
	"context"
	"time"

	"github.com/KirillMachuk/tg-transformator-bot/internal/models"
)

// DefaultTTL is how long a session survives in TTL-capable backends.
const DefaultTTL = 30 * 24 * time.Hour

// Store is the session persistence contract. Get returns (nil, nil) when no
// record exists for the chat.
type Store interface {
	Get(ctx context.Context, chatID int64) (*models.Session, error)
	Set(ctx context.Context, s *models.Session) error
	Delete(ctx context.Context, chatID int64) error
}

// Opts holds configuration options for store backends.
type Opts struct {
	DSN      string
	RedisURL string
	TTL      time.Duration
}

// Option defines a functional option for configuring stores.
type Option func(*Opts)

// WithDSN sets the database DSN (SQLite file path or Postgres URL).
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithRedisURL sets the Redis connection URL.
func WithRedisURL(url string) Option {
	return func(o *Opts) { o.RedisURL = url }
}

// WithTTL overrides the default session retention.
func WithTTL(ttl time.Duration) Option {
	return func(o *Opts) { o.TTL = ttl }
}

func applyOptions(opts []Option) Opts {
	cfg := Opts{TTL: DefaultTTL}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

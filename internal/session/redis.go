// Package session provides storage backends for chat sessions.
//
// This file implements the Redis-backed store. Keys follow the
// "session:{chatID}" format and carry a TTL so abandoned sessions expire.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/KirillMachuk/tg-transformator-bot/internal/models"
)

// RedisStore persists sessions as JSON values under session:{chatID} keys.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis session store. The URL is parsed as a Redis
// connection URL, falling back to a bare address. A failed initial ping is
// logged but not fatal; the fallback wrapper covers outages.
func NewRedisStore(opts ...Option) (*RedisStore, error) {
	cfg := applyOptions(opts)
	if cfg.RedisURL == "" {
		slog.Error("RedisStore URL not set")
		return nil, fmt.Errorf("redis URL not set")
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Warn("Failed to parse Redis URL, using it as a direct address", "error", err)
		opt = &redis.Options{Addr: cfg.RedisURL}
	}

	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		slog.Warn("Redis ping failed, continuing anyway", "error", err)
	}

	slog.Debug("Redis session store created", "ttl", cfg.TTL)
	return &RedisStore{client: client, ttl: cfg.TTL}, nil
}

func redisKey(chatID int64) string {
	return fmt.Sprintf("session:%d", chatID)
}

// Get retrieves the session for a chat, or (nil, nil) when absent.
func (r *RedisStore) Get(ctx context.Context, chatID int64) (*models.Session, error) {
	data, err := r.client.Get(ctx, redisKey(chatID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		slog.Error("RedisStore Get failed", "error", err, "chatID", chatID)
		return nil, fmt.Errorf("failed to read session for %d: %w", chatID, err)
	}

	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		slog.Error("RedisStore Get unmarshal failed", "error", err, "chatID", chatID)
		return nil, fmt.Errorf("failed to decode session for %d: %w", chatID, err)
	}
	return &sess, nil
}

// Set stores the session, refreshing its TTL.
func (r *RedisStore) Set(ctx context.Context, sess *models.Session) error {
	if sess.ChatID == 0 {
		return models.ErrEmptyChatID
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session for %d: %w", sess.ChatID, err)
	}
	if err := r.client.Set(ctx, redisKey(sess.ChatID), data, r.ttl).Err(); err != nil {
		slog.Error("RedisStore Set failed", "error", err, "chatID", sess.ChatID)
		return fmt.Errorf("failed to write session for %d: %w", sess.ChatID, err)
	}
	slog.Debug("RedisStore Set succeeded", "chatID", sess.ChatID)
	return nil
}

// Delete removes the session key.
func (r *RedisStore) Delete(ctx context.Context, chatID int64) error {
	if err := r.client.Del(ctx, redisKey(chatID)).Err(); err != nil {
		slog.Error("RedisStore Delete failed", "error", err, "chatID", chatID)
		return fmt.Errorf("failed to delete session for %d: %w", chatID, err)
	}
	return nil
}

// Close closes the underlying Redis client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

// Package session provides storage backends for chat sessions.
//
// This file implements the in-memory backend used standalone in development
// and as the degrade target of the fallback store.
package session

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/KirillMachuk/tg-transformator-bot/internal/models"
)

// memoryPurgeInterval is how often expired sessions are evicted.
const memoryPurgeInterval = 10 * time.Minute

// MemoryStore keeps sessions in a TTL'd in-process cache.
type MemoryStore struct {
	cache *cache.Cache
}

// NewMemoryStore creates an in-memory session store. A zero TTL keeps
// sessions until process exit.
func NewMemoryStore(opts ...Option) *MemoryStore {
	cfg := applyOptions(opts)
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	slog.Debug("Creating in-memory session store", "ttl", ttl)
	return &MemoryStore{cache: cache.New(ttl, memoryPurgeInterval)}
}

func memoryKey(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

// Get retrieves the session for a chat, or (nil, nil) when absent.
func (m *MemoryStore) Get(ctx context.Context, chatID int64) (*models.Session, error) {
	if value, found := m.cache.Get(memoryKey(chatID)); found {
		return value.(*models.Session), nil
	}
	return nil, nil
}

// Set stores the session with the default cache expiration.
func (m *MemoryStore) Set(ctx context.Context, s *models.Session) error {
	if s.ChatID == 0 {
		return models.ErrEmptyChatID
	}
	m.cache.Set(memoryKey(s.ChatID), s, cache.DefaultExpiration)
	return nil
}

// Delete removes the session for a chat.
func (m *MemoryStore) Delete(ctx context.Context, chatID int64) error {
	m.cache.Delete(memoryKey(chatID))
	return nil
}

// Package session provides storage backends for chat sessions.
//
// This file implements the degrade-to-memory wrapper: a failed backend
// read/write falls back to an in-process copy for that operation, logged,
// never raised to the caller. Durability degrades; availability does not.
package session

import (
	"context"
	"log/slog"

	"github.com/KirillMachuk/tg-transformator-bot/internal/models"
)

// FallbackStore wraps a primary store and degrades failing operations to a
// memory store.
type FallbackStore struct {
	primary Store
	memory  *MemoryStore
}

// NewFallbackStore wraps the primary store with an in-memory fallback.
func NewFallbackStore(primary Store) *FallbackStore {
	return &FallbackStore{primary: primary, memory: NewMemoryStore()}
}

// Get reads from the primary store, falling back to memory on failure. A
// primary that reports the session absent is also checked against memory:
// a degraded write may have landed only there, and a recovered primary that
// never saw it must not erase the conversation.
func (f *FallbackStore) Get(ctx context.Context, chatID int64) (*models.Session, error) {
	sess, err := f.primary.Get(ctx, chatID)
	if err != nil {
		slog.Warn("Session store read failed, degrading to memory", "error", err, "chatID", chatID)
		return f.memory.Get(ctx, chatID)
	}
	if sess == nil {
		return f.memory.Get(ctx, chatID)
	}
	return sess, nil
}

// Set writes to the primary store; on failure the session is kept in memory
// so the conversation continues within this process.
func (f *FallbackStore) Set(ctx context.Context, sess *models.Session) error {
	if err := f.primary.Set(ctx, sess); err != nil {
		slog.Warn("Session store write failed, degrading to memory", "error", err, "chatID", sess.ChatID)
		return f.memory.Set(ctx, sess)
	}
	// Keep the memory copy in step so a later degraded read sees fresh data.
	_ = f.memory.Set(ctx, sess)
	return nil
}

// Delete removes the session from both stores.
func (f *FallbackStore) Delete(ctx context.Context, chatID int64) error {
	_ = f.memory.Delete(ctx, chatID)
	if err := f.primary.Delete(ctx, chatID); err != nil {
		slog.Warn("Session store delete failed", "error", err, "chatID", chatID)
	}
	return nil
}

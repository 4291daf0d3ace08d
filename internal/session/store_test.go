package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/KirillMachuk/tg-transformator-bot/internal/models"
)

func TestMemoryStoreCRUD(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	sess, err := store.Get(ctx, 42)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if sess != nil {
		t.Fatal("Expected nil session for unknown chat")
	}

	created := models.NewSession(42)
	created.State = models.StateDiagnosis
	if err := store.Set(ctx, created); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	loaded, err := store.Get(ctx, 42)
	if err != nil {
		t.Fatalf("Get failed after Set: %v", err)
	}
	if loaded == nil || loaded.State != models.StateDiagnosis {
		t.Fatalf("Expected stored session back, got %+v", loaded)
	}

	if err := store.Delete(ctx, 42); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	loaded, err = store.Get(ctx, 42)
	if err != nil {
		t.Fatalf("Get failed after Delete: %v", err)
	}
	if loaded != nil {
		t.Fatal("Expected nil session after delete")
	}
}

func TestMemoryStoreRejectsZeroChatID(t *testing.T) {
	store := NewMemoryStore()
	err := store.Set(context.Background(), &models.Session{})
	if !errors.Is(err, models.ErrEmptyChatID) {
		t.Errorf("Expected ErrEmptyChatID, got %v", err)
	}
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(WithTTL(20 * time.Millisecond))

	if err := store.Set(ctx, models.NewSession(7)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	sess, err := store.Get(ctx, 7)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if sess != nil {
		t.Error("Expected session to expire after TTL")
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "sessions.db")

	store, err := NewSQLiteStore(WithDSN(dsn))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	sess := models.NewSession(42)
	sess.State = models.StateChat
	sess.Answers["budget"] = &models.AnswerEntry{Value: "minimal"}
	if err := store.Set(ctx, sess); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	loaded, err := store.Get(ctx, 42)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if loaded == nil || loaded.State != models.StateChat {
		t.Fatalf("Expected session round-tripped, got %+v", loaded)
	}
	if entry := loaded.Answers["budget"]; entry == nil || entry.Value != "minimal" {
		t.Errorf("Expected answer survived JSON round trip, got %+v", entry)
	}

	// Upsert replaces the row
	sess.State = models.StateWelcome
	if err := store.Set(ctx, sess); err != nil {
		t.Fatalf("Second Set failed: %v", err)
	}
	loaded, _ = store.Get(ctx, 42)
	if loaded.State != models.StateWelcome {
		t.Errorf("Expected upserted state, got %q", loaded.State)
	}

	if err := store.Delete(ctx, 42); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	loaded, err = store.Get(ctx, 42)
	if err != nil || loaded != nil {
		t.Errorf("Expected nil after delete, got %+v, err %v", loaded, err)
	}
}

// failingStore returns the configured error from every operation.
type failingStore struct {
	err error
}

func (f *failingStore) Get(ctx context.Context, chatID int64) (*models.Session, error) {
	return nil, f.err
}

func (f *failingStore) Set(ctx context.Context, s *models.Session) error {
	return f.err
}

func (f *failingStore) Delete(ctx context.Context, chatID int64) error {
	return f.err
}

func TestFallbackStoreDegradesToMemory(t *testing.T) {
	ctx := context.Background()
	store := NewFallbackStore(&failingStore{err: errors.New("backend down")})

	sess := models.NewSession(99)
	sess.SkillLevel = models.SkillLevelBasic
	if err := store.Set(ctx, sess); err != nil {
		t.Fatalf("Expected degraded Set to succeed, got %v", err)
	}

	loaded, err := store.Get(ctx, 99)
	if err != nil {
		t.Fatalf("Expected degraded Get to succeed, got %v", err)
	}
	if loaded == nil || loaded.SkillLevel != models.SkillLevelBasic {
		t.Fatalf("Expected in-memory copy back, got %+v", loaded)
	}

	if err := store.Delete(ctx, 99); err != nil {
		t.Fatalf("Expected degraded Delete to succeed, got %v", err)
	}
	loaded, _ = store.Get(ctx, 99)
	if loaded != nil {
		t.Error("Expected session gone from memory after delete")
	}
}

func TestFallbackStoreMirrorsSuccessfulWrites(t *testing.T) {
	ctx := context.Background()
	primary := NewMemoryStore()
	store := NewFallbackStore(primary)

	sess := models.NewSession(5)
	if err := store.Set(ctx, sess); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// The memory mirror serves reads even if the primary later fails.
	store.primary = &failingStore{err: errors.New("backend down")}
	loaded, err := store.Get(ctx, 5)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected mirrored session from memory after primary failure")
	}
}

// absentStore succeeds on every operation but never holds a session.
type absentStore struct{}

func (absentStore) Get(ctx context.Context, chatID int64) (*models.Session, error) {
	return nil, nil
}

func (absentStore) Set(ctx context.Context, s *models.Session) error { return nil }

func (absentStore) Delete(ctx context.Context, chatID int64) error { return nil }

func TestFallbackStoreServesMemoryCopyWhenPrimaryAbsent(t *testing.T) {
	ctx := context.Background()
	store := NewFallbackStore(&failingStore{err: errors.New("backend down")})

	sess := models.NewSession(42)
	sess.SkillLevel = models.SkillLevelExpert
	if err := store.Set(ctx, sess); err != nil {
		t.Fatalf("Expected degraded Set to succeed, got %v", err)
	}

	// The backend recovers but never saw the degraded write; the memory copy
	// must still win over an absent primary read.
	store.primary = absentStore{}

	loaded, err := store.Get(ctx, 42)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if loaded == nil || loaded.SkillLevel != models.SkillLevelExpert {
		t.Fatalf("Expected the degraded write back from memory, got %+v", loaded)
	}
}

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

type mockStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string)}
}

func (m *mockStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *mockStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *mockStore) RefreshTokenKey(userID string) string {
	return fmt.Sprintf("sess:%s", userID)
}

func TestManagerGenerateAndValidate(t *testing.T) {
	store := newMockStore()
	manager := &Manager{
		store: store,
		keyer: store,
		ttl:   time.Hour,
	}

	ctx := context.Background()
	userID := "user-123"
	token, err := manager.Generate(ctx, userID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if stored := store.data[store.RefreshTokenKey(userID)]; stored != token {
		t.Fatalf("expected stored token %q, got %q", token, stored)
	}

	if err := manager.Validate(ctx, userID, "wrong"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected invalid refresh token error, got %v", err)
	}
	if err := manager.Validate(ctx, userID, token); err != nil {
		t.Fatalf("validate: %v", err)
	}

	// Token survives validation; refresh only re-mints the access token.
	if err := manager.Validate(ctx, userID, token); err != nil {
		t.Fatalf("second validate: %v", err)
	}
}

func TestManagerGenerateOverwritesPriorSession(t *testing.T) {
	store := newMockStore()
	manager := &Manager{store: store, keyer: store, ttl: time.Hour}

	ctx := context.Background()
	first, err := manager.Generate(ctx, "user-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	second, err := manager.Generate(ctx, "user-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if err := manager.Validate(ctx, "user-1", first); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("first session should be dead, got %v", err)
	}
	if err := manager.Validate(ctx, "user-1", second); err != nil {
		t.Fatalf("second session should be live: %v", err)
	}
}

func TestManagerRevoke(t *testing.T) {
	store := newMockStore()
	manager := &Manager{store: store, keyer: store, ttl: time.Hour}

	ctx := context.Background()
	token, err := manager.Generate(ctx, "user-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if err := manager.Revoke(ctx, "user-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := manager.Validate(ctx, "user-1", token); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected invalid refresh token after revoke, got %v", err)
	}

	ok, err := manager.HasSession(ctx, "user-1")
	if err != nil {
		t.Fatalf("has session: %v", err)
	}
	if ok {
		t.Fatal("expected no session after revoke")
	}
}

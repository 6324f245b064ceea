package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

type fakeIdempotencyStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{values: map[string]string{}}
}

func (f *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("idem:%s:%s", scope, id)
}

func (f *fakeIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[key], nil
}

func (f *fakeIdempotencyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = fmt.Sprint(value)
	return true, nil
}

func (f *fakeIdempotencyStore) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func idempotentRouter(store *fakeIdempotencyStore, calls *int) http.Handler {
	r := chi.NewRouter()
	r.Use(Idempotency(store, nil))
	r.Post("/api/orders", func(w http.ResponseWriter, req *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"success":true,"data":{"order":%d}}`, *calls)
	})
	r.Get("/api/orders", func(w http.ResponseWriter, req *http.Request) {
		*calls++
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newFakeIdempotencyStore()
	calls := 0
	handler := idempotentRouter(store, &calls)

	body := `{"payment_method":"card"}`
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body))
		req.Header.Set("Idempotency-Key", "retry-1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("attempt %d: status = %d", i, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"order":1`) {
			t.Fatalf("attempt %d: body = %s", i, rec.Body.String())
		}
	}
	if calls != 1 {
		t.Fatalf("handler ran %d times, want 1", calls)
	}
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	store := newFakeIdempotencyStore()
	calls := 0
	handler := idempotentRouter(store, &calls)

	first := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{"payment_method":"card"}`))
	first.Header.Set("Idempotency-Key", "retry-2")
	handler.ServeHTTP(httptest.NewRecorder(), first)

	second := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{"payment_method":"cash_on_delivery"}`))
	second.Header.Set("Idempotency-Key", "retry-2")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, second)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if calls != 1 {
		t.Fatalf("handler ran %d times, want 1", calls)
	}
}

func TestIdempotencyPassthroughWithoutKey(t *testing.T) {
	store := newFakeIdempotencyStore()
	calls := 0
	handler := idempotentRouter(store, &calls)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{}`))
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
	if calls != 2 {
		t.Fatalf("handler ran %d times, want 2", calls)
	}
}

func TestIdempotencyIgnoresUnlistedRoutes(t *testing.T) {
	store := newFakeIdempotencyStore()
	calls := 0
	handler := idempotentRouter(store, &calls)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
		req.Header.Set("Idempotency-Key", "reads-are-not-replayed")
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
	if calls != 2 {
		t.Fatalf("handler ran %d times, want 2", calls)
	}
}

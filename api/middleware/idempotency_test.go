package middleware

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

type fakeStore struct {
	data map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	str, _ := value.(string)
	f.data[key] = str
	return nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	f.data[key] = str
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

const checkoutPattern = "/api/checkout/process"

func requestWithPattern(method, url, pattern string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, url, body)
	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{pattern}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestIdempotencyMiddlewareWithoutHeaderPassesThrough(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, CheckoutIdempotencyTTL, nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	})

	for i := 0; i < 2; i++ {
		req := requestWithPattern(http.MethodPost, "/api/checkout/process?cart_id=cart_a", checkoutPattern, strings.NewReader(`{}`))
		resp := httptest.NewRecorder()
		mw(handler).ServeHTTP(resp, req)
		if resp.Code != http.StatusCreated {
			t.Fatalf("expected 201 got %d", resp.Code)
		}
	}
	if calls != 2 {
		t.Fatalf("expected handler to run twice, ran %d", calls)
	}
	if len(store.data) != 0 {
		t.Fatalf("expected nothing stored, got %v", store.data)
	}
}

func TestIdempotencyMiddlewareReplaysStoredResponse(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, CheckoutIdempotencyTTL, nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	req := requestWithPattern(http.MethodPost, "/api/checkout/process?cart_id=cart_a", checkoutPattern, strings.NewReader(`{"foo":"bar"}`))
	req.Header.Set("Idempotency-Key", "abc")
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected first response 201 got %d", resp.Code)
	}

	replay := requestWithPattern(http.MethodPost, "/api/checkout/process?cart_id=cart_a", checkoutPattern, strings.NewReader(`{"foo":"bar"}`))
	replay.Header.Set("Idempotency-Key", "abc")
	rec := httptest.NewRecorder()
	mw(handler).ServeHTTP(rec, replay)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected replay status 201 got %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("expected content-type header preserved")
	}
	if rec.Header().Get(idempotentReplayHeader) != "true" {
		t.Fatalf("expected replay marker header")
	}
	if strings.TrimSpace(rec.Body.String()) != `{"ok":true}` {
		t.Fatalf("expected stored body got %s", rec.Body.String())
	}
	if calls != 1 {
		t.Fatalf("handler executed %d times, expected 1", calls)
	}
}

func TestIdempotencyMiddlewareScopesKeysByCart(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, CheckoutIdempotencyTTL, nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	})

	for _, cart := range []string{"cart_a", "cart_b"} {
		req := requestWithPattern(http.MethodPost, "/api/checkout/process?cart_id="+cart, checkoutPattern, strings.NewReader(`{}`))
		req.Header.Set("Idempotency-Key", "same-key")
		mw(handler).ServeHTTP(httptest.NewRecorder(), req)
	}
	if calls != 2 {
		t.Fatalf("expected separate carts to run separately, ran %d", calls)
	}
}

func TestIdempotencyMiddlewareDetectsBodyChange(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, CheckoutIdempotencyTTL, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	first := requestWithPattern(http.MethodPost, "/api/checkout/process?cart_id=cart_a", checkoutPattern, strings.NewReader(`{"a":1}`))
	first.Header.Set("Idempotency-Key", "abc")
	mw(handler).ServeHTTP(httptest.NewRecorder(), first)

	second := requestWithPattern(http.MethodPost, "/api/checkout/process?cart_id=cart_a", checkoutPattern, strings.NewReader(`{"a":2}`))
	second.Header.Set("Idempotency-Key", "abc")
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, second)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestIdempotencyMiddlewareDoesNotStoreServerErrors(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, CheckoutIdempotencyTTL, nil)
	status := http.StatusInternalServerError
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})

	req := requestWithPattern(http.MethodPost, "/api/webhook/order-status", "/api/webhook/order-status", strings.NewReader(`{}`))
	req.Header.Set("Idempotency-Key", "abc")
	mw(handler).ServeHTTP(httptest.NewRecorder(), req)
	if len(store.data) != 0 {
		t.Fatalf("expected server error to stay unrecorded, got %v", store.data)
	}

	status = http.StatusOK
	retry := requestWithPattern(http.MethodPost, "/api/webhook/order-status", "/api/webhook/order-status", strings.NewReader(`{}`))
	retry.Header.Set("Idempotency-Key", "abc")
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, retry)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected retry to reach handler, got %d", resp.Code)
	}
}

func TestIdempotencyMiddlewareRejectsInFlightDuplicate(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, CheckoutIdempotencyTTL, nil)
	newRequest := func() *http.Request {
		req := requestWithPattern(http.MethodPost, "/api/checkout/process?cart_id=cart_a", checkoutPattern, strings.NewReader(`{"a":1}`))
		req.Header.Set("Idempotency-Key", "double-click")
		return req
	}

	var nested *httptest.ResponseRecorder
	var calls int
	var handler http.Handler
	handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if nested == nil {
			nested = httptest.NewRecorder()
			mw(handler).ServeHTTP(nested, newRequest())
		}
		w.WriteHeader(http.StatusCreated)
	})

	first := httptest.NewRecorder()
	mw(handler).ServeHTTP(first, newRequest())
	if first.Code != http.StatusCreated {
		t.Fatalf("expected first request to succeed, got %d", first.Code)
	}
	if nested.Code != http.StatusConflict {
		t.Fatalf("expected concurrent duplicate to be rejected, got %d", nested.Code)
	}
	if !strings.Contains(nested.Body.String(), "still in progress") {
		t.Fatalf("unexpected body %s", nested.Body.String())
	}
	if calls != 1 {
		t.Fatalf("handler ran %d times, expected 1", calls)
	}
}

func TestIdempotencyMiddlewareNilStorePassesThrough(t *testing.T) {
	mw := Idempotency(nil, CheckoutIdempotencyTTL, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	req := requestWithPattern(http.MethodPost, "/api/checkout/process", checkoutPattern, strings.NewReader(`{}`))
	req.Header.Set("Idempotency-Key", "abc")
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)
	if resp.Code != http.StatusTeapot {
		t.Fatalf("expected pass-through, got %d", resp.Code)
	}
}

func TestCartTokenPrefersQueryParam(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/cart?cart_id=cart_query", nil)
	req.AddCookie(&http.Cookie{Name: CartTokenCookie, Value: "cart_cookie"})
	if got := CartToken(req); got != "cart_query" {
		t.Fatalf("expected query token, got %q", got)
	}

	legacy := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	legacy.AddCookie(&http.Cookie{Name: CartTokenCookie, Value: "cart_cookie"})
	if got := CartToken(legacy); got != "cart_cookie" {
		t.Fatalf("expected cookie token, got %q", got)
	}

	if got := CartToken(httptest.NewRequest(http.MethodGet, "/api/cart", nil)); got != "" {
		t.Fatalf("expected empty token, got %q", got)
	}
}

package ratelimit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	id "pulsefit/pkg/domain"
	"pulsefit/pkg/requestcontext"
)

type failingStore struct{}

func (failingStore) Allow(context.Context, string, int, time.Duration) (*Result, error) {
	return nil, errors.New("store down")
}

func (failingStore) Reset(context.Context, string) error { return nil }

func limitedHandler(store Store, limit int) (http.Handler, *int) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	served := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		served++
		w.WriteHeader(http.StatusOK)
	})
	return Middleware(store, limit, time.Minute, logger)(next), &served
}

func requestAs(userID id.UserID) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/events/x/register", nil)
	if !userID.IsNil() {
		req = req.WithContext(requestcontext.WithUserID(req.Context(), userID))
	}
	return req
}

func TestMiddleware_LimitsPerUser(t *testing.T) {
	handler, served := limitedHandler(NewInMemoryStore(), 2)
	userID := id.NewUserID()

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, requestAs(userID))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestAs(userID))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"RATE_LIMITED"}`, rec.Body.String())
	assert.Equal(t, 2, *served)

	// A different user still gets through.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, requestAs(id.NewUserID()))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddleware_AnonymousPassesThrough(t *testing.T) {
	handler, served := limitedHandler(NewInMemoryStore(), 1)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, requestAs(id.UserID{}))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 3, *served)
}

func TestMiddleware_FailsOpenOnStoreError(t *testing.T) {
	handler, served := limitedHandler(failingStore{}, 1)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestAs(id.NewUserID()))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, *served)
}

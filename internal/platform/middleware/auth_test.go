package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "pulsefit/pkg/domain"
	"pulsefit/pkg/requestcontext"
)

const testSigningKey = "auth-test-key"

func signToken(t *testing.T, key string, claims jwt.Claims, method jwt.SigningMethod) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return signed
}

func TestJWTValidator_Validate(t *testing.T) {
	validator := NewJWTValidator(testSigningKey)
	userID := id.NewUserID()

	t.Run("valid token yields the subject user", func(t *testing.T) {
		token := signToken(t, testSigningKey,
			jwt.RegisteredClaims{Subject: userID.String()}, jwt.SigningMethodHS256)

		got, err := validator.Validate(token)
		require.NoError(t, err)
		assert.Equal(t, userID, got)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		token := signToken(t, "another-key",
			jwt.RegisteredClaims{Subject: userID.String()}, jwt.SigningMethodHS256)

		_, err := validator.Validate(token)
		assert.Error(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		token := signToken(t, testSigningKey, jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		}, jwt.SigningMethodHS256)

		_, err := validator.Validate(token)
		assert.Error(t, err)
	})

	t.Run("missing subject", func(t *testing.T) {
		token := signToken(t, testSigningKey, jwt.RegisteredClaims{}, jwt.SigningMethodHS256)

		_, err := validator.Validate(token)
		assert.Error(t, err)
	})

	t.Run("subject is not a user ID", func(t *testing.T) {
		token := signToken(t, testSigningKey,
			jwt.RegisteredClaims{Subject: "alice"}, jwt.SigningMethodHS256)

		_, err := validator.Validate(token)
		assert.Error(t, err)
	})
}

func TestRequireAuth(t *testing.T) {
	validator := NewJWTValidator(testSigningKey)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	userID := id.NewUserID()

	var seenUser id.UserID
	handler := RequireAuth(validator, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUser = requestcontext.UserID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("injects the user into context", func(t *testing.T) {
		token := signToken(t, testSigningKey,
			jwt.RegisteredClaims{Subject: userID.String()}, jwt.SigningMethodHS256)
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, userID, seenUser)
	})

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"UNAUTHORIZED"}`, rec.Body.String())
	})

	t.Run("header without bearer prefix", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Token abc")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer not.a.jwt")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

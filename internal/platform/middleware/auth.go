package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	id "pulsefit/pkg/domain"
	"pulsefit/pkg/requestcontext"
)

// JWTValidator verifies bearer tokens and extracts the subject user ID.
// Token issuance belongs to the auth provider; this side only validates.
type JWTValidator struct {
	signingKey []byte
}

// NewJWTValidator creates a validator for HS256-signed tokens.
func NewJWTValidator(signingKey string) *JWTValidator {
	return &JWTValidator{signingKey: []byte(signingKey)}
}

// Validate parses the token and returns the subject user ID.
func (v *JWTValidator) Validate(tokenString string) (id.UserID, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return id.UserID{}, fmt.Errorf("parse token: %w", err)
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return id.UserID{}, fmt.Errorf("token has no subject")
	}
	userID, err := id.ParseUserID(sub)
	if err != nil {
		return id.UserID{}, fmt.Errorf("token subject is not a user ID: %w", err)
	}
	return userID, nil
}

// RequireAuth rejects requests without a valid bearer token and injects the
// authenticated user ID into the request context.
func RequireAuth(validator *JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenString == "" {
				unauthorized(w)
				return
			}
			userID, err := validator.Validate(tokenString)
			if err != nil {
				logger.WarnContext(r.Context(), "rejected bearer token",
					"error", err.Error(),
					"request_id", requestcontext.RequestID(r.Context()),
				)
				unauthorized(w)
				return
			}
			ctx := requestcontext.WithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "UNAUTHORIZED"})
}

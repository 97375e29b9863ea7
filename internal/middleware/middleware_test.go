package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripforge/trip-planner/pkg/logger"
)

const secret = "s3cret"

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestAuth(t *testing.T) {
	valid := jwt.RegisteredClaims{
		Subject:   "traveler-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	expired := jwt.RegisteredClaims{
		Subject:   "traveler-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}
	noSubject := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}

	tests := []struct {
		name   string
		header string
		want   int
		user   string
	}{
		{"valid", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), valid), http.StatusOK, "traveler-1"},
		{"lowercase scheme", "bearer " + sign(t, jwt.SigningMethodHS512, []byte(secret), valid), http.StatusOK, "traveler-1"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, ""},
		{"wrong secret", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte("other"), valid), http.StatusUnauthorized, ""},
		{"expired", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), expired), http.StatusUnauthorized, ""},
		{"no subject", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), noSubject), http.StatusUnauthorized, ""},
		{"alg none", "Bearer " + sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid), http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := Auth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetUserID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, tt.user, seen)
		})
	}
}

func TestValidateMessageContent(t *testing.T) {
	assert.NoError(t, ValidateMessageContent(""))
	assert.NoError(t, ValidateMessageContent("Mumbai to Jaipur, 3 nights"))
	assert.Error(t, ValidateMessageContent(strings.Repeat("x", MaxMessageLength+1)))
	assert.Error(t, ValidateMessageContent("bad \xff byte"))
}

func TestValidateSessionID(t *testing.T) {
	assert.NoError(t, ValidateSessionID("7f9c24e8-3b1a-4d5e-9f2c-1a2b3c4d5e6f"))
	assert.Error(t, ValidateSessionID(""))
	assert.Error(t, ValidateSessionID("session-1"))
}

func TestUserRateLimit(t *testing.T) {
	h := UserRateLimit(2, time.Minute)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	hit := func(user string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(contextWithUser(req, user))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, hit("a"))
	assert.Equal(t, http.StatusOK, hit("a"))
	assert.Equal(t, http.StatusTooManyRequests, hit("a"))
	assert.Equal(t, http.StatusOK, hit("b"))
}

func TestLoggingSetsCorrelationID(t *testing.T) {
	var seen string
	h := Logging(nopLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetCorrelationID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Correlation-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Correlation-ID"))
}

func contextWithUser(r *http.Request, user string) context.Context {
	return context.WithValue(r.Context(), UserIDKey, user)
}

func nopLogger() *logger.Logger { return logger.NewNop() }

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripforge/trip-planner/internal/middleware"
	"github.com/tripforge/trip-planner/internal/model"
	"github.com/tripforge/trip-planner/internal/service"
	"github.com/tripforge/trip-planner/pkg/logger"
)

const (
	testSecret  = "test-secret"
	testSession = "7f9c24e8-3b1a-4d5e-9f2c-1a2b3c4d5e6f"
)

type fakeSessions struct {
	key   string
	input string
	err   error
	reset bool
}

func (f *fakeSessions) ProcessMessage(_ context.Context, key, input string) (*model.TurnResult, error) {
	f.key, f.input = key, input
	if f.err != nil {
		return nil, f.err
	}
	rec := model.NewRecord(key)
	return &model.TurnResult{Reply: "Where are you flying from?", Phase: rec.Phase, Record: rec.View()}, nil
}

func (f *fakeSessions) Reset(_ context.Context, key string) (*model.RecordView, error) {
	f.key, f.reset = key, true
	return model.NewRecord(key).View(), f.err
}

func (f *fakeSessions) Get(_ context.Context, key string) (*model.RecordView, error) {
	f.key = key
	if f.err != nil {
		return nil, f.err
	}
	return model.NewRecord(key).View(), nil
}

type fakeTranscripts struct {
	after uint64
	limit int
	err   error
}

func (f *fakeTranscripts) GetMessages(_ context.Context, _ string, after uint64, limit int) (*model.ListMessagesResponse, error) {
	f.after, f.limit = after, limit
	if f.err != nil {
		return nil, f.err
	}
	return &model.ListMessagesResponse{Messages: []model.Message{}, LastSequence: 9}, nil
}

type okPinger struct{ err error }

func (p okPinger) Ping(context.Context) error { return p.err }

type natsState bool

func (n natsState) IsConnected() bool { return bool(n) }

func token(t *testing.T, subject string) string {
	t.Helper()
	claims := middleware.Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func newTestRouter(sessions *fakeSessions, transcripts *fakeTranscripts, health *HealthHandler) http.Handler {
	if health == nil {
		health = NewHealthHandler(okPinger{}, nil)
	}
	log := logger.NewNop()
	return NewRouter(RouterConfig{
		JWTSecret:         testSecret,
		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
	}, NewSessionHandler(sessions, transcripts, log), health, log)
}

func do(t *testing.T, h http.Handler, method, path, body, subject string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if subject != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, subject))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSendMessage(t *testing.T) {
	sessions := &fakeSessions{}
	h := newTestRouter(sessions, &fakeTranscripts{}, nil)

	rec := do(t, h, http.MethodPost, "/api/v1/sessions/"+testSession+"/messages",
		`{"content":"Delhi to Goa in December"}`, "traveler-1")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "traveler-1/"+testSession, sessions.key)
	assert.Equal(t, "Delhi to Goa in December", sessions.input)

	var res model.TurnResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "Where are you flying from?", res.Reply)
	assert.Equal(t, model.PhaseEliciting, res.Phase)
}

func TestSendMessageRejectsBadInput(t *testing.T) {
	h := newTestRouter(&fakeSessions{}, &fakeTranscripts{}, nil)

	tests := []struct {
		name string
		path string
		body string
	}{
		{"bad session id", "/api/v1/sessions/not-a-uuid/messages", `{"content":"hi"}`},
		{"malformed body", "/api/v1/sessions/" + testSession + "/messages", `{"content":`},
		{"too long", "/api/v1/sessions/" + testSession + "/messages",
			`{"content":"` + strings.Repeat("a", middleware.MaxMessageLength+1) + `"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tt.path, tt.body, "traveler-1")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSendMessageServiceError(t *testing.T) {
	h := newTestRouter(&fakeSessions{err: errors.New("redis down")}, &fakeTranscripts{}, nil)

	rec := do(t, h, http.MethodPost, "/api/v1/sessions/"+testSession+"/messages", `{"content":"hi"}`, "traveler-1")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "redis down")
}

func TestRequiresAuth(t *testing.T) {
	h := newTestRouter(&fakeSessions{}, &fakeTranscripts{}, nil)

	rec := do(t, h, http.MethodGet, "/api/v1/sessions/"+testSession, "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetAndReset(t *testing.T) {
	sessions := &fakeSessions{}
	h := newTestRouter(sessions, &fakeTranscripts{}, nil)

	rec := do(t, h, http.MethodGet, "/api/v1/sessions/"+testSession, "", "traveler-2")
	require.Equal(t, http.StatusOK, rec.Code)
	var view model.RecordView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "traveler-2/"+testSession, view.SessionID)
	assert.False(t, view.Initialized)

	rec = do(t, h, http.MethodDelete, "/api/v1/sessions/"+testSession, "", "traveler-2")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, sessions.reset)
}

func TestTranscript(t *testing.T) {
	transcripts := &fakeTranscripts{}
	h := newTestRouter(&fakeSessions{}, transcripts, nil)
	base := "/api/v1/sessions/" + testSession + "/transcript"

	rec := do(t, h, http.MethodGet, base+"?after_sequence=4&limit=20", "", "traveler-1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(4), transcripts.after)
	assert.Equal(t, 20, transcripts.limit)

	rec = do(t, h, http.MethodGet, base+"?limit=500", "", "traveler-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, base+"?after_sequence=-1", "", "traveler-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTranscriptUnavailable(t *testing.T) {
	h := newTestRouter(&fakeSessions{}, &fakeTranscripts{err: service.ErrTranscriptUnavailable}, nil)

	rec := do(t, h, http.MethodGet, "/api/v1/sessions/"+testSession+"/transcript", "", "traveler-1")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestHealthAndReady(t *testing.T) {
	tests := []struct {
		name   string
		health *HealthHandler
		want   int
	}{
		{"ready", NewHealthHandler(okPinger{}, nil), http.StatusOK},
		{"ready with nats", NewHealthHandler(okPinger{}, natsState(true)), http.StatusOK},
		{"store down", NewHealthHandler(okPinger{err: errors.New("down")}, nil), http.StatusServiceUnavailable},
		{"nats down", NewHealthHandler(okPinger{}, natsState(false)), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(&fakeSessions{}, &fakeTranscripts{}, tt.health)

			assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "", "").Code)
			assert.Equal(t, tt.want, do(t, h, http.MethodGet, "/ready", "", "").Code)
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	h := newTestRouter(&fakeSessions{}, &fakeTranscripts{}, nil)

	rec := do(t, h, http.MethodGet, "/health", "", "")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
}

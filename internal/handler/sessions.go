package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/tripforge/trip-planner/internal/middleware"
	"github.com/tripforge/trip-planner/internal/model"
	"github.com/tripforge/trip-planner/internal/service"
	"github.com/tripforge/trip-planner/pkg/logger"
)

// SessionProcessor is the session API the handler needs.
type SessionProcessor interface {
	ProcessMessage(ctx context.Context, sessionID, input string) (*model.TurnResult, error)
	Reset(ctx context.Context, sessionID string) (*model.RecordView, error)
	Get(ctx context.Context, sessionID string) (*model.RecordView, error)
}

// TranscriptLister reads session transcripts.
type TranscriptLister interface {
	GetMessages(ctx context.Context, sessionID string, afterSequence uint64, limit int) (*model.ListMessagesResponse, error)
}

// SessionHandler handles planning session endpoints.
type SessionHandler struct {
	sessions    SessionProcessor
	transcripts TranscriptLister
	logger      *logger.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(sessions SessionProcessor, transcripts TranscriptLister, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		sessions:    sessions,
		transcripts: transcripts,
		logger:      log,
	}
}

// sessionKey validates the path ID and scopes it to the caller.
func sessionKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateSessionID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return "", false
	}
	return service.SessionKey(userID, id), true
}

// SendMessage handles POST /api/v1/sessions/{id}/messages
func (h *SessionHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	key, ok := sessionKey(w, r)
	if !ok {
		return
	}

	var req model.SendMessageRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4*middleware.MaxMessageLength))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateMessageContent(req.Content); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.sessions.ProcessMessage(r.Context(), key, req.Content)
	if err != nil {
		h.fail(w, r, "failed to process message", err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// Get handles GET /api/v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	key, ok := sessionKey(w, r)
	if !ok {
		return
	}

	view, err := h.sessions.Get(r.Context(), key)
	if err != nil {
		h.fail(w, r, "failed to load session", err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// Reset handles DELETE /api/v1/sessions/{id}
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	key, ok := sessionKey(w, r)
	if !ok {
		return
	}

	if _, err := h.sessions.Reset(r.Context(), key); err != nil {
		h.fail(w, r, "failed to reset session", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Transcript handles GET /api/v1/sessions/{id}/transcript
func (h *SessionHandler) Transcript(w http.ResponseWriter, r *http.Request) {
	key, ok := sessionKey(w, r)
	if !ok {
		return
	}

	afterSequence := uint64(0)
	limit := 50

	if seq := r.URL.Query().Get("after_sequence"); seq != "" {
		parsed, err := strconv.ParseUint(seq, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid after_sequence")
			return
		}
		afterSequence = parsed
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed <= 0 || parsed > 100 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	resp, err := h.transcripts.GetMessages(r.Context(), key, afterSequence, limit)
	if errors.Is(err, service.ErrTranscriptUnavailable) {
		writeError(w, http.StatusNotImplemented, err.Error())
		return
	}
	if err != nil {
		h.fail(w, r, "failed to get transcript", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *SessionHandler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if errors.Is(err, service.ErrEmptySessionID) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.logger.WithSession(
		middleware.GetCorrelationID(r.Context()),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "id"),
	).Error(msg, zap.Error(err))
	writeError(w, http.StatusInternalServerError, msg)
}

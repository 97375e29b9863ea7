// Package service provides business logic for the trip planner.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/tripforge/trip-planner/internal/model"
	"github.com/tripforge/trip-planner/internal/planner"
	"github.com/tripforge/trip-planner/internal/store"
	"github.com/tripforge/trip-planner/pkg/logger"
	"github.com/tripforge/trip-planner/pkg/metrics"
)

// User-facing replies produced by the orchestrator itself.
const (
	ReplyPromptForInput = "Please tell me about your trip!"
	ReplyApology        = "Sorry, something went wrong while planning your trip. Please try again."
	ReplyStepLimit      = "I was unable to complete your request. Please retry or simplify your request."
)

// ErrEmptySessionID is returned when no session key is given.
var ErrEmptySessionID = errors.New("session id is required")

// SessionKey scopes a client session ID to its owner.
func SessionKey(userID, sessionID string) string {
	return userID + "/" + sessionID
}

// SessionService owns conversation records and routes each user turn to the
// state machine for the session's phase.
type SessionService struct {
	store     store.SessionStore
	elicitor  *planner.Elicitor
	builder   *planner.Builder
	events    recorder
	stepLimit int
	locks     *keyedMutex
	logger    *logger.Logger
}

// NewSessionService creates a new session service.
func NewSessionService(
	st store.SessionStore,
	elicitor *planner.Elicitor,
	builder *planner.Builder,
	publisher Publisher,
	stepLimit int,
	log *logger.Logger,
) *SessionService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &SessionService{
		store:     st,
		elicitor:  elicitor,
		builder:   builder,
		events:    recorder{publisher: publisher, logger: log},
		stepLimit: stepLimit,
		locks:     newKeyedMutex(),
		logger:    log,
	}
}

// ProcessMessage runs one user turn. Conversation failures come back as a
// reply with the stored record untouched; only storage read failures return
// an error.
func (s *SessionService) ProcessMessage(ctx context.Context, sessionID, input string) (*model.TurnResult, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	ctx, span := otel.Tracer("tripforge/service").Start(ctx, "session.process_message")
	span.SetAttributes(attribute.String("session.id", sessionID))
	defer span.End()

	stored, found, err := s.store.Get(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !found {
		stored = model.NewRecord(sessionID)
	}

	if strings.TrimSpace(input) == "" {
		if stored.Initialized {
			return turnResult(stored.LatestReply, stored), nil
		}
		return turnResult(ReplyPromptForInput, stored), nil
	}

	rec := stored.Clone()
	budget := planner.NewBudget(s.stepLimit)
	log := s.logger.With(zap.String("session_id", sessionID))

	if err := s.advance(ctx, rec, input, budget); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return s.fail(ctx, log, stored, err, budget), nil
	}

	rec.UpdatedAt = time.Now().UTC()
	if err := s.store.Save(ctx, rec); err != nil {
		span.RecordError(err)
		return s.fail(ctx, log, stored, fmt.Errorf("save session: %w", err), budget), nil
	}

	s.events.messages(ctx, sessionID, newMessages(stored, rec))
	if stored.Phase != rec.Phase {
		metrics.RecordPhaseTransition(string(stored.Phase), string(rec.Phase))
		s.events.event(ctx, sessionID, model.EventTypePhaseChanged, "", map[string]any{
			"from":              stored.Phase,
			"to":                rec.Phase,
			"preferences_label": rec.PreferencesLabel,
		})
	}
	if rec.Itinerary != "" && rec.Itinerary != stored.Itinerary {
		s.events.event(ctx, sessionID, model.EventTypeItineraryReady, "", nil)
	}

	metrics.RecordTurn(string(rec.Phase), "ok")
	span.SetAttributes(
		attribute.String("session.phase", string(rec.Phase)),
		attribute.Int("planner.steps", budget.Used()),
	)
	log.Info("turn processed",
		zap.String("phase", string(rec.Phase)),
		zap.Int("steps", budget.Used()),
		zap.Int("messages", len(rec.Messages)),
	)

	return turnResult(rec.LatestReply, rec), nil
}

// advance routes the input by initialization and phase, performing the
// elicitation to construction handoff within the same turn.
func (s *SessionService) advance(ctx context.Context, rec *model.Record, input string, budget *planner.Budget) error {
	if !rec.Initialized {
		if err := s.elicitor.Start(ctx, rec, input, budget); err != nil {
			return err
		}
		rec.Initialized = true
		rec.Phase = model.PhaseEliciting
		return s.handoff(ctx, rec, budget)
	}

	switch rec.Phase {
	case model.PhaseEliciting:
		if err := s.elicitor.Continue(ctx, rec, input, budget); err != nil {
			return err
		}
		return s.handoff(ctx, rec, budget)
	case model.PhaseConstructing:
		return s.builder.Continue(ctx, rec, input, budget)
	default:
		return fmt.Errorf("unknown phase %q", rec.Phase)
	}
}

func (s *SessionService) handoff(ctx context.Context, rec *model.Record, budget *planner.Budget) error {
	if rec.Signal != model.SignalBeginConstruction {
		return nil
	}
	rec.Phase = model.PhaseConstructing
	return s.builder.Start(ctx, rec, budget)
}

// fail reports a turn failure against the unchanged stored record.
func (s *SessionService) fail(ctx context.Context, log *logger.Logger, stored *model.Record, err error, budget *planner.Budget) *model.TurnResult {
	if errors.Is(err, planner.ErrStepLimit) {
		log.Warn("turn hit the step limit", zap.Int("steps", budget.Used()))
		metrics.RecordStepLimitHit(string(stored.Phase))
		metrics.RecordTurn(string(stored.Phase), "step_limit")
		s.events.event(ctx, stored.SessionID, model.EventTypeStepLimit, err.Error(), map[string]any{"steps": budget.Used()})
		return turnResult(ReplyStepLimit, stored)
	}

	log.Error("turn failed", zap.Error(err), zap.Int("steps", budget.Used()))
	metrics.RecordTurn(string(stored.Phase), "error")
	s.events.event(ctx, stored.SessionID, model.EventTypeError, err.Error(), nil)
	return turnResult(ReplyApology, stored)
}

// Reset drops the session's record and stores a fresh one in its place.
func (s *SessionService) Reset(ctx context.Context, sessionID string) (*model.RecordView, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	if err := s.store.Delete(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("reset session: %w", err)
	}
	rec := model.NewRecord(sessionID)
	if err := s.store.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("reset session: %w", err)
	}

	s.events.event(ctx, sessionID, model.EventTypeReset, "", nil)
	s.logger.Info("session reset", zap.String("session_id", sessionID))

	return rec.View(), nil
}

// Get returns the session's record, or a fresh unsaved one if none exists.
func (s *SessionService) Get(ctx context.Context, sessionID string) (*model.RecordView, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}

	rec, found, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !found {
		rec = model.NewRecord(sessionID)
	}
	return rec.View(), nil
}

func turnResult(reply string, rec *model.Record) *model.TurnResult {
	return &model.TurnResult{
		Reply:  reply,
		Phase:  rec.Phase,
		Record: rec.View(),
	}
}

// newMessages returns the messages of after that before did not have.
// Phase starts replace the history, so position alone is not enough.
func newMessages(before, after *model.Record) []model.Message {
	seen := make(map[string]struct{}, len(before.Messages))
	for _, m := range before.Messages {
		seen[m.ID] = struct{}{}
	}
	var out []model.Message
	for _, m := range after.Messages {
		if _, ok := seen[m.ID]; !ok {
			out = append(out, m)
		}
	}
	return out
}

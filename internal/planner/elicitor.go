package planner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tripforge/trip-planner/internal/llm"
	"github.com/tripforge/trip-planner/internal/model"
	"github.com/tripforge/trip-planner/internal/prompt"
	"github.com/tripforge/trip-planner/pkg/logger"
)

const (
	defaultContinueQuestion = "Tell me more about your trip."
	defaultConfirmQuestion  = "Does this look good?"

	replyUnreadable       = "Sorry, I got a bit muddled there. Could you please say that again?"
	replyEmptyPreferences = "Sorry, I couldn't pin down your trip details. Could you confirm the plan once more?"
)

// RequiredPreferences are the fields the elicitation prompt asks the model to
// collect before it ends the phase.
var RequiredPreferences = []string{
	"departure_city",
	"arrival_city",
	"departure_date",
	"return_date",
	"adults",
	"children",
	"budget_per_person",
	"interests",
}

// Elicitor drives the preference-elicitation conversation.
type Elicitor struct {
	client llm.Client
	cfg    ModelConfig
	logger *logger.Logger
	now    func() time.Time
}

// NewElicitor creates a new elicitation machine.
func NewElicitor(client llm.Client, cfg ModelConfig, log *logger.Logger) *Elicitor {
	return &Elicitor{
		client: client,
		cfg:    cfg,
		logger: log,
		now:    time.Now,
	}
}

// SetClock overrides the clock used to date the system prompt.
func (e *Elicitor) SetClock(now func() time.Time) {
	e.now = now
}

// Start seeds a fresh elicitation with the system prompt and the first user
// message, then runs to the next pause.
func (e *Elicitor) Start(ctx context.Context, rec *model.Record, input string, budget *Budget) error {
	if err := budget.Take(); err != nil {
		return err
	}

	system, err := prompt.Elicitation(e.now())
	if err != nil {
		return fmt.Errorf("render elicitation prompt: %w", err)
	}

	rec.Messages = []model.Message{
		model.SystemMessage(system),
		model.UserMessage(input),
	}
	rec.Preferences = nil
	rec.PreferencesLabel = ""
	rec.LatestReply = ""
	rec.Signal = model.SignalInvokeModel

	return e.run(ctx, rec, budget)
}

// Continue appends a user message and runs to the next pause.
func (e *Elicitor) Continue(ctx context.Context, rec *model.Record, input string, budget *Budget) error {
	rec.Append(model.UserMessage(input))
	rec.Signal = model.SignalInvokeModel
	return e.run(ctx, rec, budget)
}

func (e *Elicitor) run(ctx context.Context, rec *model.Record, budget *Budget) error {
	for {
		switch rec.Signal {
		case model.SignalAwaitUser, model.SignalBeginConstruction:
			return nil
		case model.SignalInvokeModel:
			if err := budget.Take(); err != nil {
				return err
			}
			if err := e.invokeModel(ctx, rec); err != nil {
				return err
			}
		case model.SignalBegin, model.SignalInvokeTools:
			return fmt.Errorf("%w: %q during elicitation", ErrUnknownSignal, rec.Signal)
		default:
			return fmt.Errorf("%w: %q", ErrUnknownSignal, rec.Signal)
		}
	}
}

func (e *Elicitor) invokeModel(ctx context.Context, rec *model.Record) error {
	resp, err := complete(ctx, e.client, e.cfg, model.PhaseEliciting, rec.Messages, nil)
	if err != nil {
		return fmt.Errorf("elicitation model call: %w", err)
	}
	rec.Append(model.AssistantMessage(resp.Content))

	reply, err := decodeElicitation(resp.Content)
	if err != nil {
		e.logger.Warn("unreadable elicitation reply",
			zap.String("session_id", rec.SessionID),
			zap.Error(err),
		)
		rec.LatestReply = replyUnreadable
		rec.Signal = model.SignalAwaitUser
		return nil
	}

	switch reply.State {
	case ReplyContinue:
		rec.LatestReply = orDefault(reply.Question, defaultContinueQuestion)
		rec.Signal = model.SignalAwaitUser
	case ReplyConfirm:
		rec.LatestReply = orDefault(reply.Question, defaultConfirmQuestion)
		rec.Signal = model.SignalAwaitUser
	case ReplyEnd:
		if len(reply.Preferences) == 0 {
			e.logger.Warn("elicitation ended without preferences", zap.String("session_id", rec.SessionID))
			rec.LatestReply = replyEmptyPreferences
			rec.Signal = model.SignalAwaitUser
			return nil
		}
		if missing := reply.Preferences.Missing(RequiredPreferences); len(missing) > 0 {
			e.logger.Warn("elicitation ended with missing fields",
				zap.String("session_id", rec.SessionID),
				zap.Strings("missing", missing),
			)
		}
		rec.Preferences = reply.Preferences
		rec.PreferencesLabel = reply.Filename
		rec.Signal = model.SignalBeginConstruction
	}
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

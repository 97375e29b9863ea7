package planner

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/tripforge/trip-planner/internal/llm"
	"github.com/tripforge/trip-planner/internal/model"
	"github.com/tripforge/trip-planner/internal/prompt"
	"github.com/tripforge/trip-planner/internal/tools"
	"github.com/tripforge/trip-planner/pkg/logger"
)

// ReplyGathering is shown while tool calls are in flight.
const ReplyGathering = "Let me gather some additional information for you..."

// Builder drives itinerary construction: a model and tool loop that stays
// open for refinements after the first itinerary.
type Builder struct {
	client      llm.Client
	cfg         ModelConfig
	bridge      *tools.Bridge
	descriptors []llm.ToolDescriptor
	logger      *logger.Logger
}

// NewBuilder creates a new construction machine.
func NewBuilder(client llm.Client, cfg ModelConfig, bridge *tools.Bridge, log *logger.Logger) *Builder {
	return &Builder{
		client:      client,
		cfg:         cfg,
		bridge:      bridge,
		descriptors: bridge.Registry().Descriptors(),
		logger:      log,
	}
}

// Start replaces the elicitation history with the construction prompts built
// from the record's preferences and runs to the next pause.
func (b *Builder) Start(ctx context.Context, rec *model.Record, budget *Budget) error {
	if err := budget.Take(); err != nil {
		return err
	}

	system, err := prompt.ItinerarySystem(rec.Preferences)
	if err != nil {
		return fmt.Errorf("render itinerary system prompt: %w", err)
	}
	task, err := prompt.ItineraryTask(rec.Preferences)
	if err != nil {
		return fmt.Errorf("render itinerary task prompt: %w", err)
	}

	rec.Messages = []model.Message{
		model.SystemMessage(system),
		model.UserMessage(task),
	}
	rec.Itinerary = ""
	rec.Signal = model.SignalInvokeModel

	return b.run(ctx, rec, budget)
}

// Continue appends a refinement request and runs to the next pause.
func (b *Builder) Continue(ctx context.Context, rec *model.Record, input string, budget *Budget) error {
	rec.Append(model.UserMessage(input))
	rec.Signal = model.SignalInvokeModel
	return b.run(ctx, rec, budget)
}

func (b *Builder) run(ctx context.Context, rec *model.Record, budget *Budget) error {
	for {
		switch rec.Signal {
		case model.SignalAwaitUser:
			return nil
		case model.SignalInvokeModel:
			if err := budget.Take(); err != nil {
				return err
			}
			b.invokeModel(ctx, rec)
		case model.SignalInvokeTools:
			if err := budget.Take(); err != nil {
				return err
			}
			if err := b.invokeTools(ctx, rec); err != nil {
				return err
			}
		case model.SignalBegin, model.SignalBeginConstruction:
			return fmt.Errorf("%w: %q during construction", ErrUnknownSignal, rec.Signal)
		default:
			return fmt.Errorf("%w: %q", ErrUnknownSignal, rec.Signal)
		}
	}
}

// invokeModel never fails the turn; a model error becomes the reply.
func (b *Builder) invokeModel(ctx context.Context, rec *model.Record) {
	resp, err := complete(ctx, b.client, b.cfg, model.PhaseConstructing, rec.Messages, b.descriptors)
	if err != nil {
		b.logger.Error("itinerary model call failed",
			zap.String("session_id", rec.SessionID),
			zap.Error(err),
		)
		rec.LatestReply = fmt.Sprintf("I encountered an issue processing your request: %s. Could you please rephrase or provide more details?", err.Error())
		rec.Signal = model.SignalAwaitUser
		return
	}

	rec.Append(model.AssistantMessage(resp.Content, resp.ToolCalls...))
	if len(resp.ToolCalls) > 0 {
		rec.Signal = model.SignalInvokeTools
		return
	}

	rec.Itinerary = resp.Content
	rec.LatestReply = resp.Content
	rec.Signal = model.SignalAwaitUser
}

func (b *Builder) invokeTools(ctx context.Context, rec *model.Record) error {
	last, ok := rec.LastMessage()
	if !ok || !last.HasToolCalls() {
		return errors.New("invoke_tools without pending tool calls")
	}

	rec.LatestReply = ReplyGathering
	for _, call := range last.ToolCalls {
		b.logger.Debug("invoking tool",
			zap.String("session_id", rec.SessionID),
			zap.String("tool", call.Name),
			zap.String("call_id", call.ID),
		)
		rec.Append(b.bridge.Invoke(ctx, call))
	}
	rec.Signal = model.SignalInvokeModel
	return nil
}

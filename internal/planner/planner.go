// Package planner implements the two conversation state machines: preference
// elicitation and itinerary construction. Both operate on a *model.Record
// passed in by the caller and stop at the next point that needs user input.
package planner

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/tripforge/trip-planner/internal/llm"
	"github.com/tripforge/trip-planner/internal/model"
	"github.com/tripforge/trip-planner/pkg/metrics"
)

// DefaultStepLimit caps state executions per user turn.
const DefaultStepLimit = 100

var (
	// ErrStepLimit is returned when a turn exhausts its step budget.
	ErrStepLimit = errors.New("step limit exceeded")

	// ErrUnknownSignal is returned when a record carries a signal the machine cannot route.
	ErrUnknownSignal = errors.New("unknown signal")
)

// Budget counts executed states across one user turn, including the
// handoff from elicitation into construction.
type Budget struct {
	limit int
	used  int
}

// NewBudget returns a budget of limit steps. A non-positive limit uses DefaultStepLimit.
func NewBudget(limit int) *Budget {
	if limit <= 0 {
		limit = DefaultStepLimit
	}
	return &Budget{limit: limit}
}

// Take consumes one step.
func (b *Budget) Take() error {
	if b.used >= b.limit {
		return ErrStepLimit
	}
	b.used++
	return nil
}

// Used returns the number of steps consumed.
func (b *Budget) Used() int {
	return b.used
}

// ModelConfig holds per-request model settings.
type ModelConfig struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// complete calls the model with tracing and metrics around it.
func complete(ctx context.Context, client llm.Client, cfg ModelConfig, phase model.Phase, msgs []model.Message, tools []llm.ToolDescriptor) (*llm.CompletionResponse, error) {
	ctx, span := otel.Tracer("tripforge/planner").Start(ctx, "llm.complete")
	span.SetAttributes(
		attribute.String("llm.provider", client.Name()),
		attribute.String("planner.phase", string(phase)),
		attribute.Int("llm.messages", len(msgs)),
	)
	defer span.End()

	start := time.Now()
	resp, err := client.Complete(ctx, &llm.CompletionRequest{
		Model:       cfg.Model,
		Messages:    msgs,
		Tools:       tools,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	})

	modelName := cfg.Model
	if modelName == "" {
		modelName = client.Name()
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.RecordLLMCall(modelName, string(phase), "error", time.Since(start).Seconds(), 0, 0)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("llm.tokens_in", resp.TokensIn),
		attribute.Int("llm.tokens_out", resp.TokensOut),
		attribute.Int("llm.tool_calls", len(resp.ToolCalls)),
	)
	metrics.RecordLLMCall(modelName, string(phase), "success", time.Since(start).Seconds(), resp.TokensIn, resp.TokensOut)
	return resp, nil
}

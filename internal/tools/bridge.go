package tools

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/tripforge/trip-planner/internal/model"
	"github.com/tripforge/trip-planner/pkg/logger"
	"github.com/tripforge/trip-planner/pkg/metrics"
)

// Bridge executes model tool calls against the registry. Every outcome,
// including unknown tools and tool failures, comes back as a tool-result
// message the model can read.
type Bridge struct {
	registry *Registry
	logger   *logger.Logger
}

// NewBridge creates a new bridge.
func NewBridge(registry *Registry, log *logger.Logger) *Bridge {
	return &Bridge{
		registry: registry,
		logger:   log,
	}
}

// Registry returns the bridge's tool registry.
func (b *Bridge) Registry() *Registry {
	return b.registry
}

// Invoke runs one tool call and wraps the result with the call's ID and name.
func (b *Bridge) Invoke(ctx context.Context, call model.ToolCall) model.Message {
	return model.ToolResultMessage(call, b.execute(ctx, call))
}

func (b *Bridge) execute(ctx context.Context, call model.ToolCall) (result string) {
	ctx, span := otel.Tracer("tripforge/tools").Start(ctx, "tool.invoke")
	span.SetAttributes(
		attribute.String("tool.name", call.Name),
		attribute.String("tool.call_id", call.ID),
	)
	defer span.End()

	tool, ok := b.registry.Lookup(call.Name)
	if !ok {
		b.logger.Warn("unknown tool requested", zap.String("tool", call.Name), zap.String("call_id", call.ID))
		metrics.RecordToolCall("unknown", "not_found", 0)
		return fmt.Sprintf("Tool not available: %s. Available tools: %v", call.Name, b.registry.Names())
	}

	start := time.Now()
	status := "success"
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("tool panicked", zap.String("tool", call.Name), zap.Any("panic", r))
			status = "error"
			result = fmt.Sprintf("Error executing tool %s: %v", call.Name, r)
		}
		metrics.RecordToolCall(call.Name, status, time.Since(start).Seconds())
	}()

	out, err := tool.Execute(ctx, call.Args)
	if err != nil {
		b.logger.Warn("tool failed", zap.String("tool", call.Name), zap.Error(err))
		status = "error"
		return fmt.Sprintf("Error executing tool %s: %s", call.Name, err.Error())
	}

	return out
}

package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tripforge/trip-planner/internal/model"
	"github.com/tripforge/trip-planner/pkg/logger"
	"github.com/tripforge/trip-planner/pkg/metrics"
)

// Publisher receives transcript messages and session events.
type Publisher interface {
	PublishMessage(ctx context.Context, sessionID string, msg *model.Message) (uint64, error)
	PublishEvent(ctx context.Context, event *model.SessionEvent) (uint64, error)
}

// NopPublisher drops everything. Used when NATS is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishMessage(context.Context, string, *model.Message) (uint64, error) {
	return 0, nil
}

func (NopPublisher) PublishEvent(context.Context, *model.SessionEvent) (uint64, error) {
	return 0, nil
}

// recorder publishes best-effort: failures are logged and counted, never
// surfaced to the turn.
type recorder struct {
	publisher Publisher
	logger    *logger.Logger
}

func (r recorder) messages(ctx context.Context, sessionID string, msgs []model.Message) {
	for i := range msgs {
		if _, err := r.publisher.PublishMessage(ctx, sessionID, &msgs[i]); err != nil {
			metrics.RecordPublishFailure("message")
			r.logger.Warn("failed to publish transcript message",
				zap.String("session_id", sessionID),
				zap.String("message_id", msgs[i].ID),
				zap.Error(err),
			)
		}
	}
}

func (r recorder) event(ctx context.Context, sessionID string, eventType model.EventType, reason string, metadata map[string]any) {
	event := &model.SessionEvent{
		ID:        uuid.Must(uuid.NewV7()).String(),
		SessionID: sessionID,
		Type:      eventType,
		Reason:    reason,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := r.publisher.PublishEvent(ctx, event); err != nil {
		metrics.RecordPublishFailure("event")
		r.logger.Warn("failed to publish session event",
			zap.String("session_id", sessionID),
			zap.String("event_type", string(eventType)),
			zap.Error(err),
		)
	}
}

package nats

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/tripforge/trip-planner/internal/model"
	"github.com/tripforge/trip-planner/pkg/metrics"
)

const (
	// StreamName is the name of the trip planning stream.
	StreamName = "TRIPFORGE"

	// SubjectPrefix is the prefix for all session subjects.
	SubjectPrefix = "trip"
)

// StreamManager handles JetStream stream operations.
type StreamManager struct {
	client *Client
}

// NewStreamManager creates a new stream manager.
func NewStreamManager(client *Client) *StreamManager {
	return &StreamManager{client: client}
}

// EnsureStream ensures the stream exists with proper configuration.
func (m *StreamManager) EnsureStream(ctx context.Context) error {
	js := m.client.JetStream()

	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, jetstream.ErrStreamNotFound) {
		return fmt.Errorf("failed to look up stream: %w", err)
	}

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      90 * 24 * time.Hour,
		MaxBytes:    10 * 1024 * 1024 * 1024, // 10GB
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Trip planning transcripts and session events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// sessionToken encodes a session key as one subject token. The URL-safe
// alphabet has no '.', '*' or '>', and the encoding is reversible, so
// distinct keys never share a subject.
func sessionToken(sessionID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(sessionID))
}

// MessageSubject returns the subject for a transcript message.
func MessageSubject(sessionID string, role model.Role) string {
	return fmt.Sprintf("%s.%s.msg.%s", SubjectPrefix, sessionToken(sessionID), role)
}

// EventSubject returns the subject for a session event.
func EventSubject(sessionID string, eventType model.EventType) string {
	return fmt.Sprintf("%s.%s.event.%s", SubjectPrefix, sessionToken(sessionID), eventType)
}

// TranscriptFilter matches every transcript message of a session.
func TranscriptFilter(sessionID string) string {
	return fmt.Sprintf("%s.%s.msg.>", SubjectPrefix, sessionToken(sessionID))
}

// PublishMessage appends a message to a session's transcript.
func (m *StreamManager) PublishMessage(ctx context.Context, sessionID string, msg *model.Message) (uint64, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal message: %w", err)
	}

	ack, err := m.client.JetStream().Publish(ctx, MessageSubject(sessionID, msg.Role), data,
		jetstream.WithMsgID(msg.ID))
	if err != nil {
		return 0, fmt.Errorf("failed to publish message: %w", err)
	}

	return ack.Sequence, nil
}

// PublishEvent publishes a session event.
func (m *StreamManager) PublishEvent(ctx context.Context, event *model.SessionEvent) (uint64, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal event: %w", err)
	}

	ack, err := m.client.JetStream().Publish(ctx, EventSubject(event.SessionID, event.Type), data)
	if err != nil {
		return 0, fmt.Errorf("failed to publish event: %w", err)
	}

	return ack.Sequence, nil
}

// GetMessages reads a session's transcript after a stream sequence.
func (m *StreamManager) GetMessages(ctx context.Context, sessionID string, afterSequence uint64, limit int) ([]model.Message, uint64, bool, error) {
	consumerConfig := jetstream.OrderedConsumerConfig{
		FilterSubjects: []string{TranscriptFilter(sessionID)},
		DeliverPolicy:  jetstream.DeliverAllPolicy,
	}
	if afterSequence > 0 {
		consumerConfig.DeliverPolicy = jetstream.DeliverByStartSequencePolicy
		consumerConfig.OptStartSeq = afterSequence + 1
	}

	consumer, err := m.client.JetStream().OrderedConsumer(ctx, StreamName, consumerConfig)
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to create consumer: %w", err)
	}

	// fetch one extra to learn whether more remain
	batch, err := consumer.Fetch(limit+1, jetstream.FetchMaxWait(2*time.Second))
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to fetch messages: %w", err)
	}

	messages := make([]model.Message, 0, limit)
	var lastSequence uint64
	hasMore := false

	for msg := range batch.Messages() {
		if len(messages) == limit {
			hasMore = true
			continue
		}

		var message model.Message
		if err := json.Unmarshal(msg.Data(), &message); err != nil {
			continue
		}

		if meta, err := msg.Metadata(); err == nil {
			message.Sequence = meta.Sequence.Stream
			lastSequence = meta.Sequence.Stream
		}

		messages = append(messages, message)
	}

	if err := batch.Error(); err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, jetstream.ErrNoMessages) {
		return nil, 0, false, fmt.Errorf("batch error: %w", err)
	}

	return messages, lastSequence, hasMore, nil
}

// ReportMetrics copies the stream's size into the Prometheus gauges.
func (m *StreamManager) ReportMetrics(ctx context.Context) error {
	stream, err := m.client.JetStream().Stream(ctx, StreamName)
	if err != nil {
		return err
	}
	info, err := stream.Info(ctx)
	if err != nil {
		return err
	}
	metrics.NATSStreamMessages.WithLabelValues(StreamName).Set(float64(info.State.Msgs))
	metrics.NATSStreamBytes.WithLabelValues(StreamName).Set(float64(info.State.Bytes))
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/tripforge/trip-planner/internal/model"
)

// ErrTranscriptUnavailable is returned when no transcript backend is configured.
var ErrTranscriptUnavailable = errors.New("transcript storage is not enabled")

// TranscriptReader reads published session messages.
type TranscriptReader interface {
	GetMessages(ctx context.Context, sessionID string, afterSequence uint64, limit int) ([]model.Message, uint64, bool, error)
}

// TranscriptService serves the append-only session transcript.
type TranscriptService struct {
	reader TranscriptReader
}

// NewTranscriptService creates a new transcript service. reader may be nil.
func NewTranscriptService(reader TranscriptReader) *TranscriptService {
	return &TranscriptService{reader: reader}
}

// GetMessages retrieves transcript messages after a stream sequence.
func (s *TranscriptService) GetMessages(ctx context.Context, sessionID string, afterSequence uint64, limit int) (*model.ListMessagesResponse, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}
	if s.reader == nil {
		return nil, ErrTranscriptUnavailable
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	messages, lastSeq, hasMore, err := s.reader.GetMessages(ctx, sessionID, afterSequence, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	if messages == nil {
		messages = []model.Message{}
	}

	return &model.ListMessagesResponse{
		Messages:     messages,
		HasMore:      hasMore,
		LastSequence: lastSeq,
	}, nil
}

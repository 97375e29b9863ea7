package model

import (
	"time"
)

// EventType represents the type of session event.
type EventType string

const (
	EventTypePhaseChanged   EventType = "phase_changed"
	EventTypeItineraryReady EventType = "itinerary_ready"
	EventTypeReset          EventType = "reset"
	EventTypeError          EventType = "error"
	EventTypeStepLimit      EventType = "step_limit"
)

// SessionEvent represents an event in a planning session.
type SessionEvent struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id"`
	Type      EventType      `json:"type"`
	Reason    string         `json:"reason,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	Sequence  uint64         `json:"sequence,omitempty"`
}

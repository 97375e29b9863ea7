// Package model defines data structures for the trip planner.
package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Phase is the dialogue stage of a planning session.
type Phase string

const (
	PhaseEliciting    Phase = "eliciting_preferences"
	PhaseConstructing Phase = "constructing_itinerary"
)

// ParsePhase validates a phase name.
func ParsePhase(s string) (Phase, error) {
	switch p := Phase(s); p {
	case PhaseEliciting, PhaseConstructing:
		return p, nil
	default:
		return "", fmt.Errorf("unknown phase %q", s)
	}
}

// UnmarshalText rejects unknown phases.
func (p *Phase) UnmarshalText(b []byte) error {
	parsed, err := ParsePhase(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Signal selects the next unit of work of a state machine.
type Signal string

const (
	SignalBegin             Signal = "begin"
	SignalInvokeModel       Signal = "invoke_model"
	SignalInvokeTools       Signal = "invoke_tools"
	SignalAwaitUser         Signal = "await_user"
	SignalBeginConstruction Signal = "begin_construction"
)

// ParseSignal validates a signal name.
func ParseSignal(s string) (Signal, error) {
	switch sig := Signal(s); sig {
	case SignalBegin, SignalInvokeModel, SignalInvokeTools, SignalAwaitUser, SignalBeginConstruction:
		return sig, nil
	default:
		return "", fmt.Errorf("unknown signal %q", s)
	}
}

// UnmarshalText rejects unknown signals.
func (s *Signal) UnmarshalText(b []byte) error {
	parsed, err := ParseSignal(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Preferences holds the traveler preferences collected during elicitation.
type Preferences map[string]any

// String returns a preference rendered as text, or "" when absent.
func (p Preferences) String(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Missing returns the keys of required that are absent or blank, sorted.
func (p Preferences) Missing(required []string) []string {
	var missing []string
	for _, key := range required {
		if strings.TrimSpace(p.String(key)) == "" {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}

// Record is the full mutable state of one planning session.
type Record struct {
	SessionID   string      `json:"session_id"`
	Initialized bool        `json:"initialized"`
	Phase       Phase       `json:"phase"`
	Signal      Signal      `json:"signal"`
	Messages    []Message   `json:"messages"`
	Preferences Preferences `json:"preferences,omitempty"`

	// PreferencesLabel is the short name the model gave the finished preference set.
	PreferencesLabel string `json:"preferences_label,omitempty"`

	LatestReply string    `json:"latest_reply"`
	Itinerary   string    `json:"itinerary"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewRecord creates an uninitialized record for a session.
func NewRecord(sessionID string) *Record {
	now := time.Now().UTC()
	return &Record{
		SessionID: sessionID,
		Phase:     PhaseEliciting,
		Signal:    SignalBegin,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append adds messages to the history.
func (r *Record) Append(msgs ...Message) {
	r.Messages = append(r.Messages, msgs...)
}

// LastMessage returns the most recent message, if any.
func (r *Record) LastMessage() (Message, bool) {
	if len(r.Messages) == 0 {
		return Message{}, false
	}
	return r.Messages[len(r.Messages)-1], true
}

// Clone returns a deep copy so a failed turn can be discarded.
func (r *Record) Clone() *Record {
	out := *r
	if r.Messages != nil {
		out.Messages = make([]Message, len(r.Messages))
		for i, m := range r.Messages {
			out.Messages[i] = m.clone()
		}
	}
	if r.Preferences != nil {
		out.Preferences = Preferences(cloneMap(r.Preferences))
	}
	return &out
}

// RecordView is the caller-facing projection of a record; it omits the control signal.
type RecordView struct {
	SessionID        string      `json:"session_id"`
	Initialized      bool        `json:"initialized"`
	Phase            Phase       `json:"phase"`
	Preferences      Preferences `json:"preferences,omitempty"`
	PreferencesLabel string      `json:"preferences_label,omitempty"`
	LatestReply      string      `json:"latest_reply"`
	Itinerary        string      `json:"itinerary,omitempty"`
	MessageCount     int         `json:"message_count"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// View builds the caller-facing projection.
func (r *Record) View() *RecordView {
	return &RecordView{
		SessionID:        r.SessionID,
		Initialized:      r.Initialized,
		Phase:            r.Phase,
		Preferences:      r.Preferences,
		PreferencesLabel: r.PreferencesLabel,
		LatestReply:      r.LatestReply,
		Itinerary:        r.Itinerary,
		MessageCount:     len(r.Messages),
		UpdatedAt:        r.UpdatedAt,
	}
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

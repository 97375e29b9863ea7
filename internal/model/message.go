package model

import (
	"time"

	"github.com/google/uuid"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// ToolCall is a model-issued request to run a named tool.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// Message is one entry of a conversation history.
type Message struct {
	ID      string `json:"id"`
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// Set on assistant messages that request tool invocations.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// Set on tool-result messages.
	ToolCallID string `json:"tool_call_id,omitempty"`
	ToolName   string `json:"tool_name,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	// JetStream metadata (populated on transcript reads)
	Sequence uint64 `json:"sequence,omitempty"`
}

func newMessage(role Role, content string) Message {
	return Message{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

// SystemMessage creates a system message.
func SystemMessage(content string) Message {
	return newMessage(RoleSystem, content)
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return newMessage(RoleUser, content)
}

// AssistantMessage creates an assistant message, optionally carrying tool calls.
func AssistantMessage(content string, calls ...ToolCall) Message {
	msg := newMessage(RoleAssistant, content)
	if len(calls) > 0 {
		msg.ToolCalls = calls
	}
	return msg
}

// ToolResultMessage creates a tool-result message correlated with the call that produced it.
func ToolResultMessage(call ToolCall, content string) Message {
	msg := newMessage(RoleTool, content)
	msg.ToolCallID = call.ID
	msg.ToolName = call.Name
	return msg
}

// HasToolCalls reports whether the message requests tool invocations.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

func (m Message) clone() Message {
	out := m
	if m.ToolCalls != nil {
		out.ToolCalls = make([]ToolCall, len(m.ToolCalls))
		for i, c := range m.ToolCalls {
			out.ToolCalls[i] = ToolCall{ID: c.ID, Name: c.Name, Args: cloneMap(c.Args)}
		}
	}
	return out
}

// SendMessageRequest is the request to send a message to a planning session.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// TurnResult is the outcome of processing one user message.
type TurnResult struct {
	Reply  string      `json:"reply"`
	Phase  Phase       `json:"phase"`
	Record *RecordView `json:"record"`
}

// ListMessagesResponse is the response for a transcript read.
type ListMessagesResponse struct {
	Messages     []Message `json:"messages"`
	HasMore      bool      `json:"has_more"`
	LastSequence uint64    `json:"last_sequence"`
}

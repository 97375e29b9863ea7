package planner

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tripforge/trip-planner/internal/model"
)

// ReplyState is the discriminator of an elicitation reply.
type ReplyState string

const (
	ReplyContinue ReplyState = "continue"
	ReplyConfirm  ReplyState = "confirm"
	ReplyEnd      ReplyState = "end"
)

// ElicitationReply is the structured reply the elicitation model must produce.
type ElicitationReply struct {
	State       ReplyState        `json:"state"`
	Question    string            `json:"question,omitempty"`
	Preferences model.Preferences `json:"preferences,omitempty"`
	Filename    string            `json:"filename,omitempty"`
}

var errNoJSONObject = errors.New("no JSON object in reply")

// decodeElicitation extracts the outermost JSON object from content, which
// may be wrapped in prose or a code fence, and validates its state.
func decodeElicitation(content string) (ElicitationReply, error) {
	var reply ElicitationReply

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return reply, errNoJSONObject
	}

	if err := json.Unmarshal([]byte(content[start:end+1]), &reply); err != nil {
		return reply, fmt.Errorf("decode reply: %w", err)
	}

	switch reply.State {
	case ReplyContinue, ReplyConfirm, ReplyEnd:
		return reply, nil
	default:
		return reply, fmt.Errorf("unknown reply state %q", reply.State)
	}
}

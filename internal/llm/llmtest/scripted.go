// Package llmtest provides a scripted llm.Client for tests.
package llmtest

import (
	"context"
	"errors"
	"sync"

	"github.com/tripforge/trip-planner/internal/llm"
	"github.com/tripforge/trip-planner/internal/model"
)

// ErrExhausted is returned when the script has no more replies.
var ErrExhausted = errors.New("llmtest: script exhausted")

// Step is one scripted model reply.
type Step struct {
	Content   string
	ToolCalls []model.ToolCall
	Err       error
}

// Text returns a plain content reply.
func Text(content string) Step {
	return Step{Content: content}
}

// Calls returns a reply requesting tool invocations.
func Calls(calls ...model.ToolCall) Step {
	return Step{ToolCalls: calls}
}

// Fail returns a reply that errors.
func Fail(err error) Step {
	return Step{Err: err}
}

// Client replays a fixed script. When Repeat is set, the last step is
// replayed forever once the script runs out.
type Client struct {
	mu       sync.Mutex
	steps    []Step
	Repeat   bool
	Requests []*llm.CompletionRequest
}

// New creates a scripted client.
func New(steps ...Step) *Client {
	return &Client{steps: steps}
}

// Complete returns the next scripted step.
func (c *Client) Complete(_ context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := *req
	snapshot.Messages = append([]model.Message(nil), req.Messages...)
	c.Requests = append(c.Requests, &snapshot)

	if len(c.steps) == 0 {
		return nil, ErrExhausted
	}
	step := c.steps[0]
	if len(c.steps) > 1 || !c.Repeat {
		c.steps = c.steps[1:]
	}
	if step.Err != nil {
		return nil, step.Err
	}
	return &llm.CompletionResponse{
		Content:   step.Content,
		ToolCalls: step.ToolCalls,
		Model:     "scripted",
	}, nil
}

// CallCount returns the number of Complete calls so far.
func (c *Client) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Requests)
}

// Name returns the provider name.
func (c *Client) Name() string { return "scripted" }

// Models returns available models.
func (c *Client) Models() []string { return []string{"scripted"} }

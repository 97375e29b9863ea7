// Package tools provides the tool registry, the invocation bridge and the
// flight and hotel search tools exposed to the itinerary model.
package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/tripforge/trip-planner/internal/llm"
)

// Tool is a capability the model can ask to invoke by name.
type Tool interface {
	Name() string
	Description() string
	Parameters() Schema
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// Schema is the JSON schema of a tool's arguments.
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes a single tool argument.
type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Enum        []string `json:"enum,omitempty"`
}

// Registry is a fixed set of tools built once at startup. It is safe for
// concurrent reads because nothing mutates it after NewRegistry returns.
type Registry struct {
	tools map[string]Tool
	names []string
}

// NewRegistry builds a registry from tools. Empty or duplicate names are rejected.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if t == nil || t.Name() == "" {
			return nil, errors.New("tool name is required")
		}
		if _, dup := r.tools[t.Name()]; dup {
			return nil, fmt.Errorf("tool %q registered twice", t.Name())
		}
		r.tools[t.Name()] = t
	}
	r.names = lo.Keys(r.tools)
	sort.Strings(r.names)
	return r, nil
}

// Lookup returns a tool by name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Descriptors returns the tool descriptors handed to the model.
func (r *Registry) Descriptors() []llm.ToolDescriptor {
	return lo.Map(r.names, func(name string, _ int) llm.ToolDescriptor {
		t := r.tools[name]
		return llm.ToolDescriptor{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		}
	})
}

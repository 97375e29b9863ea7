// Package llm provides LLM client interfaces and implementations.
package llm

import (
	"context"
	"fmt"

	"github.com/tripforge/trip-planner/internal/model"
)

// ToolDescriptor describes a tool the model may ask to invoke.
type ToolDescriptor struct {
	Name        string
	Description string
	// Parameters is a JSON schema object.
	Parameters any
}

// CompletionRequest represents a completion request.
type CompletionRequest struct {
	Model       string
	Messages    []model.Message
	Tools       []ToolDescriptor
	MaxTokens   int
	Temperature float64
}

// CompletionResponse represents a completion response.
type CompletionResponse struct {
	Content    string
	ToolCalls  []model.ToolCall
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Client is the interface for LLM providers.
type Client interface {
	// Complete sends the message history and returns the model reply.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string

	// Models returns available models.
	Models() []string
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderGemini    Provider = "gemini"
)

// NewClient creates a new LLM client based on provider.
func NewClient(provider Provider, apiKey string) (Client, error) {
	switch provider {
	case ProviderAnthropic:
		return NewAnthropicClient(apiKey)
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey)
	case ProviderGemini:
		return NewGeminiClient(apiKey)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", provider)
	}
}

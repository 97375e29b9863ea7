package llm

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/tripforge/trip-planner/internal/model"
)

const geminiOpenAIBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

// OpenAIClient is the OpenAI LLM client. It also serves any backend that
// speaks the OpenAI chat completions protocol.
type OpenAIClient struct {
	client       *openai.Client
	name         string
	defaultModel string
	models       []string
}

// NewOpenAIClient creates a new OpenAI client.
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	return &OpenAIClient{
		client:       openai.NewClient(apiKey),
		name:         "openai",
		defaultModel: "gpt-4o",
		models: []string{
			"gpt-4o",
			"gpt-4o-mini",
			"gpt-4-turbo",
		},
	}, nil
}

// NewGeminiClient creates a client for Gemini through its OpenAI-compatible endpoint.
func NewGeminiClient(apiKey string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("Gemini API key is required")
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = geminiOpenAIBaseURL

	return &OpenAIClient{
		client:       openai.NewClientWithConfig(cfg),
		name:         "gemini",
		defaultModel: "gemini-2.0-flash",
		models: []string{
			"gemini-2.0-flash",
			"gemini-2.5-flash",
			"gemini-2.5-pro",
		},
	}, nil
}

// Name returns the provider name.
func (c *OpenAIClient) Name() string {
	return c.name
}

// Models returns available models.
func (c *OpenAIClient) Models() []string {
	return c.models
}

// Complete sends a completion request.
func (c *OpenAIClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	modelName := req.Model
	if modelName == "" {
		modelName = c.defaultModel
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	messages, err := toOpenAIMessages(req.Messages)
	if err != nil {
		return nil, err
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       modelName,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: float32(req.Temperature),
	}
	for _, t := range req.Tools {
		chatReq.Tools = append(chatReq.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("model returned no choices")
	}

	choice := resp.Choices[0]
	out := &CompletionResponse{
		Content:    choice.Message.Content,
		Model:      resp.Model,
		TokensIn:   resp.Usage.PromptTokens,
		TokensOut:  resp.Usage.CompletionTokens,
		StopReason: string(choice.FinishReason),
		LatencyMs:  time.Since(start).Milliseconds(),
	}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, model.ToolCall{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Args: decodeArgs([]byte(tc.Function.Arguments)),
		})
	}

	return out, nil
}

func toOpenAIMessages(msgs []model.Message) ([]openai.ChatCompletionMessage, error) {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, msg := range msgs {
		m := openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
		switch msg.Role {
		case model.RoleAssistant:
			for _, call := range msg.ToolCalls {
				args, err := json.Marshal(call.Args)
				if err != nil {
					return nil, err
				}
				m.ToolCalls = append(m.ToolCalls, openai.ToolCall{
					ID:   call.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      call.Name,
						Arguments: string(args),
					},
				})
			}
		case model.RoleTool:
			m.ToolCallID = msg.ToolCallID
			m.Name = msg.ToolName
		}
		out = append(out, m)
	}
	return out, nil
}

// decodeArgs parses tool arguments; malformed input yields an empty map so the
// tool reports the problem back to the model.
func decodeArgs(raw []byte) map[string]any {
	args := map[string]any{}
	if len(raw) == 0 {
		return args
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return map[string]any{}
	}
	return args
}

package draft

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// ErrBackendUnavailable means no generative backend is configured.
var ErrBackendUnavailable = errors.New("generative backend not configured")

// Completion is one backend response.
type Completion struct {
	Text  string
	Usage TokenUsage
}

// Generator is a generative text backend.
type Generator interface {
	Complete(ctx context.Context, system, user string) (Completion, error)
}

// OpenAIGenerator completes prompts with the chat completions API.
type OpenAIGenerator struct {
	client openai.Client
	model  string
}

// NewOpenAIGenerator creates a generator. It returns ErrBackendUnavailable
// when apiKey is empty. A non-empty baseURL targets a compatible server.
func NewOpenAIGenerator(apiKey, baseURL, model string, opts ...option.RequestOption) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, ErrBackendUnavailable
	}
	if model == "" {
		model = DefaultModel
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	reqOpts = append(reqOpts, opts...)

	return &OpenAIGenerator{
		client: openai.NewClient(reqOpts...),
		model:  model,
	}, nil
}

// Complete sends a system and a user message at temperature 0.
func (g *OpenAIGenerator) Complete(ctx context.Context, system, user string) (Completion, error) {
	completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return Completion{}, fmt.Errorf("openai returned status %d: %w", apiErr.StatusCode, err)
		}
		return Completion{}, fmt.Errorf("openai request failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return Completion{}, fmt.Errorf("no completion choices returned")
	}

	return Completion{
		Text: completion.Choices[0].Message.Content,
		Usage: TokenUsage{
			Prompt:     completion.Usage.PromptTokens,
			Completion: completion.Usage.CompletionTokens,
			Total:      completion.Usage.TotalTokens,
		},
	}, nil
}

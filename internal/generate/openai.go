package generate

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/pkg/errors"

	"github.com/aarishlakhani/AI-recipe-gen/internal/recipe"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAI streams recipes from the chat completions API.
type OpenAI struct {
	client    openai.Client
	model     string
	maxTokens int
}

// NewOpenAI creates a generator. baseURL may be empty for the public API.
func NewOpenAI(apiKey, model, baseURL string, maxTokens int) *OpenAI {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAI{
		client:    openai.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
	}
}

func (g *OpenAI) Name() string { return "openai:" + g.model }

func (g *OpenAI) Generate(ctx context.Context, req recipe.Request, emit EmitFunc) error {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(recipe.SystemPrompt),
			openai.UserMessage(recipe.Prompt(req)),
		},
	}
	if g.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(g.maxTokens))
	}

	stream := g.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if text := chunk.Choices[0].Delta.Content; text != "" {
			if err := emit(text); err != nil {
				return err
			}
		}
	}
	return errors.Wrap(stream.Err(), "openai stream")
}

package ai

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

const DefaultOpenAIModel = "gpt-4o-mini"

// ChatCompleter is the part of *openai.Client the backend uses.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type openAIChat struct {
	client ChatCompleter
	name   string
}

// NewOpenAI returns an OpenAI chat-completions backend.
func NewOpenAI(apiKey, model string) Summarizer {
	return newOpenAIWithClient(openai.NewClient(apiKey), model)
}

func newOpenAIWithClient(client ChatCompleter, model string) *llmBackend {
	if model == "" {
		model = DefaultOpenAIModel
	}
	return newLLMBackend(&openAIChat{client: client, name: model})
}

func (c *openAIChat) provider() string { return ProviderOpenAI }
func (c *openAIChat) model() string    { return c.name }

func (c *openAIChat) complete(ctx context.Context, system, user string, temperature float64) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.name,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: float32(temperature),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

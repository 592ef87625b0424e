package ai

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	DefaultAnthropicModel = "claude-sonnet-4-20250514"
	anthropicMaxTokens    = 2048
)

// AnthropicMessager is the part of the Anthropic client the backend uses.
type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type anthropicChat struct {
	messages AnthropicMessager
	name     string
}

// NewAnthropic returns an Anthropic Messages API backend.
func NewAnthropic(apiKey, model string) Summarizer {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return newAnthropicWithClient(&c.Messages, model)
}

func newAnthropicWithClient(messages AnthropicMessager, model string) *llmBackend {
	if model == "" {
		model = DefaultAnthropicModel
	}
	return newLLMBackend(&anthropicChat{messages: messages, name: model})
}

func (c *anthropicChat) provider() string { return ProviderAnthropic }
func (c *anthropicChat) model() string    { return c.name }

func (c *anthropicChat) complete(ctx context.Context, system, user string, temperature float64) (string, error) {
	resp, err := c.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.name),
		MaxTokens:   anthropicMaxTokens,
		System:      []anthropic.TextBlockParam{{Text: system}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(user))},
		Temperature: anthropic.Float(temperature),
	})
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String(), nil
}

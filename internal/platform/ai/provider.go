package ai

import (
	"github.com/rs/zerolog"

	"github.com/medinotes/notes-api/internal/config"
)

// FromConfig builds the backend named by AI_PROVIDER. A network provider
// without its API key is logged and replaced by the deterministic backend.
func FromConfig(cfg *config.Config, logger zerolog.Logger) Summarizer {
	if cfg.AIKeyMissing() {
		logger.Error().
			Str("provider", cfg.AIProvider).
			Msg("ai provider selected without an api key, using deterministic summarizer")
		return NewDeterministic()
	}

	switch cfg.AIProvider {
	case ProviderOpenAI:
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	case ProviderAnthropic:
		return NewAnthropic(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	default:
		return NewDeterministic()
	}
}

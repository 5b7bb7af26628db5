package services

import (
	"fmt"
	"log"

	"graceqt-backend/internal/config"
	"graceqt-backend/internal/persona"
)

// NewGenerator builds the configured text-generation backend. It returns a
// nil generator, not an error, when the provider's key is absent: the persona
// engine reports that per request as a configuration error.
func NewGenerator(cfg config.LLMConfig) (persona.Generator, func(), error) {
	noop := func() {}

	switch cfg.Provider {
	case config.ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			log.Println("[llm] GEMINI_API_KEY is not set; persona routes will return configuration errors")
			return nil, noop, nil
		}
		gemini, err := NewGeminiService(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.ConcurrentReqs)
		if err != nil {
			return nil, noop, err
		}
		return gemini, gemini.Close, nil

	case config.ProviderGroq:
		if cfg.GroqAPIKey == "" {
			log.Println("[llm] GROQ_API_KEY is not set; persona routes will return configuration errors")
			return nil, noop, nil
		}
		return NewChatCompletionService("groq", cfg.GroqAPIKey, cfg.GroqBaseURL, cfg.GroqModel, cfg.ConcurrentReqs), noop, nil

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			log.Println("[llm] OPENAI_API_KEY is not set; persona routes will return configuration errors")
			return nil, noop, nil
		}
		return NewChatCompletionService("openai", cfg.OpenAIAPIKey, "", cfg.OpenAIModel, cfg.ConcurrentReqs), noop, nil
	}

	return nil, noop, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
}

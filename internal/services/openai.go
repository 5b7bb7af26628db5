package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"graceqt-backend/internal/persona"
)

const (
	DefaultGroqModel   = "llama-3.3-70b-versatile"
	DefaultGroqBaseURL = "https://api.groq.com/openai/v1"
)

// ChatCompletionService is a persona.Generator for any OpenAI-compatible
// chat completions API (OpenAI itself, Groq).
type ChatCompletionService struct {
	client   *openai.Client
	model    string
	name     string
	rateChan chan struct{}
}

// NewChatCompletionService builds a client. An empty baseURL targets OpenAI.
func NewChatCompletionService(name, apiKey, baseURL, model string, concurrentReqs int) *ChatCompletionService {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}

	return &ChatCompletionService{
		client:   openai.NewClientWithConfig(cfg),
		model:    model,
		name:     name,
		rateChan: newRateBucket(concurrentReqs),
	}
}

func (s *ChatCompletionService) Generate(ctx context.Context, req persona.GenerateRequest) (string, error) {
	if err := acquireRate(ctx, s.rateChan); err != nil {
		return "", err
	}
	defer releaseRate(s.rateChan)

	completion := openai.ChatCompletionRequest{
		Model:       s.model,
		Messages:    toChatMessages(req),
		Temperature: req.Temperature,
		MaxTokens:   int(req.MaxTokens),
	}
	if req.Schema != nil {
		completion.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := s.client.CreateChatCompletion(ctx, completion)
	if err != nil {
		return "", fmt.Errorf("%s API error: %w", s.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", s.name)
	}

	choice := resp.Choices[0]
	if choice.FinishReason != openai.FinishReasonStop {
		log.Printf("[%s] WARNING: stopped due to %s (tokens=%d)", s.name, choice.FinishReason, resp.Usage.CompletionTokens)
	}

	text := strings.TrimSpace(choice.Message.Content)
	if text == "" {
		return "", fmt.Errorf("%s returned empty text", s.name)
	}
	return text, nil
}

func toChatMessages(req persona.GenerateRequest) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Turns)+1)
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, t := range req.Turns {
		role := openai.ChatMessageRoleUser
		if t.Role == persona.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: t.Content})
	}
	return msgs
}

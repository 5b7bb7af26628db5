package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"graceqt-backend/internal/persona"
)

const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiService is a persona.Generator backed by the Gemini API.
type GeminiService struct {
	client    *genai.Client
	modelName string
	rateChan  chan struct{} // Token bucket
}

func NewGeminiService(apiKey, modelName string, concurrentReqs int) (*GeminiService, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if modelName == "" {
		modelName = DefaultGeminiModel
	}

	return &GeminiService{
		client:    client,
		modelName: modelName,
		rateChan:  newRateBucket(concurrentReqs),
	}, nil
}

func (s *GeminiService) Close() {
	s.client.Close()
}

// Generate sends the request as a chat: every turn but the last becomes
// history, the last one is the message being answered.
func (s *GeminiService) Generate(ctx context.Context, req persona.GenerateRequest) (string, error) {
	if len(req.Turns) == 0 {
		return "", fmt.Errorf("Gemini request has no turns")
	}

	if err := acquireRate(ctx, s.rateChan); err != nil {
		return "", err
	}
	defer releaseRate(s.rateChan)

	// A fresh model handle per call keeps sampling settings out of shared state.
	model := s.client.GenerativeModel(s.modelName)
	model.SetTemperature(req.Temperature)
	model.SetTopP(0.95)
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(req.MaxTokens)
	}
	if req.System != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(req.System))
	}
	if req.Schema != nil {
		model.ResponseMIMEType = "application/json"
		model.ResponseSchema = toGeminiSchema(req.Schema)
	}

	history, last := toGeminiContents(req.Turns)
	cs := model.StartChat()
	cs.History = history

	start := time.Now()
	resp, err := cs.SendMessage(ctx, genai.Text(last))
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	for i, cand := range resp.Candidates {
		if cand.FinishReason != genai.FinishReasonStop {
			log.Printf("[gemini] WARNING: candidate %d stopped due to %s (tokens=%d)", i, cand.FinishReason, cand.TokenCount)
		}
	}

	text := strings.TrimSpace(extractText(resp))
	if text == "" {
		return "", fmt.Errorf("Gemini returned empty text")
	}

	log.Printf("[gemini] %s replied in %s (%d turns)", s.modelName, time.Since(start).Round(time.Millisecond), len(req.Turns))
	return text, nil
}

// toGeminiContents maps all turns except the last to chat history. Gemini
// calls the assistant role "model".
func toGeminiContents(turns []persona.Turn) ([]*genai.Content, string) {
	history := make([]*genai.Content, 0, len(turns)-1)
	for _, t := range turns[:len(turns)-1] {
		role := "user"
		if t.Role == persona.RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(t.Content)},
		})
	}
	return history, turns[len(turns)-1].Content
}

func toGeminiSchema(s *persona.Schema) *genai.Schema {
	props := make(map[string]*genai.Schema, len(s.Fields))
	for _, f := range s.Fields {
		props[f.Name] = &genai.Schema{
			Type:        genai.TypeString,
			Description: f.Description,
		}
	}
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: props,
		Required:   s.FieldNames(),
	}
}

// Helper functions

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}

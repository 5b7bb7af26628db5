package services

import (
	"context"
	"encoding/json"
	"log"
	"sort"

	openai "github.com/sashabaranov/go-openai"
)

const moderationModel = "omni-moderation-latest"

// ModerationResult is the verdict for one piece of text.
type ModerationResult struct {
	Flagged    bool     `json:"flagged"`
	Categories []string `json:"categories"`
}

// ModerationService checks public posts with the OpenAI moderation endpoint.
// It fails open: without a key, or when the API errors, nothing is flagged.
type ModerationService struct {
	client *openai.Client
}

func NewModerationService(apiKey string) *ModerationService {
	if apiKey == "" {
		log.Println("[moderation] OPENAI_API_KEY is not set. Skipping moderation.")
		return &ModerationService{}
	}
	return &ModerationService{client: openai.NewClient(apiKey)}
}

func (s *ModerationService) Check(ctx context.Context, text string) ModerationResult {
	if s.client == nil {
		return ModerationResult{}
	}

	resp, err := s.client.Moderations(ctx, openai.ModerationRequest{
		Model: moderationModel,
		Input: text,
	})
	if err != nil {
		log.Printf("[moderation] API error: %v", err)
		return ModerationResult{}
	}
	if len(resp.Results) == 0 || !resp.Results[0].Flagged {
		return ModerationResult{}
	}

	return ModerationResult{
		Flagged:    true,
		Categories: flaggedCategories(resp.Results[0].Categories),
	}
}

// flaggedCategories lists the JSON names of every category set to true.
func flaggedCategories(categories any) []string {
	data, err := json.Marshal(categories)
	if err != nil {
		return nil
	}
	var byName map[string]bool
	if err := json.Unmarshal(data, &byName); err != nil {
		return nil
	}

	var out []string
	for name, on := range byName {
		if on {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

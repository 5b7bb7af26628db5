package persona

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
)

const (
	// chatTemperature sits above classifyTemperature for warmer, varied replies.
	chatTemperature float32 = 0.8
	chatMaxTokens   int32   = 300

	DefaultChatTimeout = 30 * time.Second
)

// FallbackReply is returned instead of an error when the upstream call fails
// mid-conversation.
const FallbackReply = "죄송합니다. 잠시 연결이 원활하지 않네요. 다시 말씀해 주시겠어요?"

// Session produces persona-voiced replies. All conversation state arrives
// with each request; a Session is safe for concurrent use.
type Session struct {
	gen      Generator
	registry *Registry
	timeout  time.Duration
}

// NewSession builds a conversation session. A nil gen yields a session that
// fails every call with ErrConfigurationMissing.
func NewSession(gen Generator, registry *Registry, timeout time.Duration) *Session {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if timeout <= 0 {
		timeout = DefaultChatTimeout
	}
	return &Session{gen: gen, registry: registry, timeout: timeout}
}

// Respond answers req.Message as req.Persona. Upstream failures are absorbed
// into FallbackReply; only caller mistakes and missing configuration are
// returned as errors.
func (s *Session) Respond(ctx context.Context, req ConversationRequest) (string, error) {
	profile, ok := s.registry.Profile(req.Persona)
	if !ok {
		return "", fmt.Errorf("%w: unknown persona %q", ErrInvalidInput, req.Persona)
	}
	if strings.TrimSpace(req.Message) == "" {
		return "", fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	if s.gen == nil {
		return "", ErrConfigurationMissing
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.gen.Generate(callCtx, buildChatRequest(profile, req))
	if err != nil {
		log.Printf("[persona] chat upstream error for %s: %v", profile.ID, err)
		return FallbackReply, nil
	}

	reply := scrubBannedPhrases(strings.TrimSpace(raw), profile.BannedPhrases)
	if reply == "" {
		log.Printf("[persona] chat reply for %s was empty after filtering", profile.ID)
		return FallbackReply, nil
	}
	if containsHanja(reply) {
		log.Printf("[persona] WARNING: chat reply for %s contains Hanja", profile.ID)
	}
	return reply, nil
}

func buildChatRequest(profile VoiceProfile, req ConversationRequest) GenerateRequest {
	turns := make([]Turn, 0, len(req.History)+1)
	for _, t := range req.History {
		turns = append(turns, Turn{Role: NormalizeRole(t.Role), Content: t.Content})
	}
	turns = append(turns, Turn{Role: RoleUser, Content: req.Message})

	return GenerateRequest{
		System:      buildSystemInstruction(profile, req.UserContext),
		Turns:       turns,
		Temperature: chatTemperature,
		MaxTokens:   chatMaxTokens,
	}
}

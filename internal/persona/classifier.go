package persona

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

const (
	// classifyTemperature keeps persona selection consistent across runs.
	classifyTemperature float32 = 0.5
	classifyMaxTokens   int32   = 1024
	classifyAttempts            = 2

	DefaultClassifyTimeout = 20 * time.Second
)

const (
	fallbackReason  = "글에서 뚜렷한 감정이나 묵상의 흐름을 찾기 어려워, 어떤 마음이든 솔직하게 받아 주는 다윗을 기본으로 연결해 드렸어요."
	fallbackOpening = "친구여, 그대의 마음을 조금 더 들려줄 수 있겠소? 나는 기쁠 때도, 두려울 때도, 아무 말이 떠오르지 않을 때도 하나님 앞에 내 마음을 그대로 쏟아 놓곤 했다오. 짧은 한 줄이어도 괜찮으니, 오늘 그대 안에 머문 생각이나 감정을 편하게 이야기해 주시오. 내가 곁에서 함께 듣겠소."
)

// Classifier maps devotional text to a persona. A Classifier holds no
// per-call state and is safe for concurrent use.
type Classifier struct {
	gen      Generator
	registry *Registry
	timeout  time.Duration
}

// NewClassifier builds a classifier. A nil gen yields a classifier that fails
// every call with ErrConfigurationMissing.
func NewClassifier(gen Generator, registry *Registry, timeout time.Duration) *Classifier {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if timeout <= 0 {
		timeout = DefaultClassifyTimeout
	}
	return &Classifier{gen: gen, registry: registry, timeout: timeout}
}

type classificationPayload struct {
	Character      string `json:"character"`
	Persona        string `json:"persona"`
	Reason         string `json:"reason"`
	OpeningMessage string `json:"opening_message"`
}

// Classify returns the best-matching persona for content.
func (c *Classifier) Classify(ctx context.Context, content string) (*ClassificationResult, error) {
	if c.gen == nil {
		return nil, ErrConfigurationMissing
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}

	if !hasSignal(content) {
		return &ClassificationResult{
			Persona:        FallbackPersona,
			Reason:         fallbackReason,
			OpeningMessage: fallbackOpening,
			Fallback:       true,
		}, nil
	}

	req := GenerateRequest{
		System:      classifierSystem,
		Turns:       []Turn{{Role: RoleUser, Content: buildClassificationPrompt(c.registry, content)}},
		Temperature: classifyTemperature,
		MaxTokens:   classifyMaxTokens,
		Schema:      classificationSchema,
	}

	var lastErr error
	for attempt := 1; attempt <= classifyAttempts; attempt++ {
		result, err := c.classifyOnce(ctx, req)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, ErrMalformedResponse) {
			return nil, err
		}
		log.Printf("[persona] malformed classification (attempt %d/%d): %v", attempt, classifyAttempts, err)
		lastErr = err
	}
	return nil, lastErr
}

func (c *Classifier) classifyOnce(ctx context.Context, req GenerateRequest) (*ClassificationResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.gen.Generate(callCtx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}

	return parseClassification(raw)
}

func parseClassification(raw string) (*ClassificationResult, error) {
	var payload classificationPayload
	if err := extractJSONObject(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	name := payload.Character
	if name == "" {
		name = payload.Persona
	}
	id, err := ParseID(name)
	if err != nil {
		return nil, fmt.Errorf("%w: persona %q is not in the fixed set", ErrMalformedResponse, name)
	}

	result := &ClassificationResult{
		Persona:        id,
		Reason:         strings.TrimSpace(payload.Reason),
		OpeningMessage: strings.TrimSpace(payload.OpeningMessage),
	}
	if result.Reason == "" || result.OpeningMessage == "" {
		return nil, fmt.Errorf("%w: reason and opening_message are required", ErrMalformedResponse)
	}
	if containsHanja(result.Reason) || containsHanja(result.OpeningMessage) {
		return nil, fmt.Errorf("%w: output contains Hanja", ErrMalformedResponse)
	}

	if n := charCount(result.OpeningMessage); n < openingMinChars || n > openingMaxChars {
		log.Printf("[persona] WARNING: opening message for %s is %d characters (want %d-%d)", id, n, openingMinChars, openingMaxChars)
	}

	return result, nil
}

// Package persona matches devotional writing to one of six biblical figures and
// carries a conversation in that figure's voice.
//
// The engine is stateless: a Classifier turns free text into a persona and an
// opening message, and a Session produces one reply per call from the full
// client-held history. Both talk to an interchangeable Generator.
package persona

import (
	"errors"
	"fmt"
	"strings"
)

// ID identifies one of the fixed personas. The zero value is not a valid ID.
type ID string

const (
	David  ID = "David"
	Paul   ID = "Paul"
	Peter  ID = "Peter"
	John   ID = "John"
	Moses  ID = "Moses"
	Esther ID = "Esther"
)

// FallbackPersona answers input that carries no discernible devotional or
// emotional signal. David's psalms cover raw, undifferentiated emotion.
const FallbackPersona = David

// IDs lists every persona in registry order.
var IDs = []ID{David, Paul, Peter, John, Moses, Esther}

// ParseID resolves a persona name case-insensitively. Unknown names are an
// ErrInvalidInput, never a silent default.
func ParseID(s string) (ID, error) {
	name := strings.TrimSpace(s)
	for _, id := range IDs {
		if strings.EqualFold(name, string(id)) {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: unknown persona %q", ErrInvalidInput, s)
}

// Valid reports whether id is a member of the fixed set.
func (id ID) Valid() bool {
	for _, known := range IDs {
		if id == known {
			return true
		}
	}
	return false
}

// Role is a conversational role. Only RoleUser and RoleAssistant are sent upstream.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// NormalizeRole maps anything that is not an assistant turn to a user turn.
// Turns are never dropped.
func NormalizeRole(r Role) Role {
	if Role(strings.ToLower(strings.TrimSpace(string(r)))) == RoleAssistant {
		return RoleAssistant
	}
	return RoleUser
}

// Turn is a single message of a conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ClassificationResult is the outcome of one Classify call. It is owned by the
// caller and seeds a conversation transcript.
type ClassificationResult struct {
	Persona        ID     `json:"character"`
	Reason         string `json:"reason"`
	OpeningMessage string `json:"opening_message"`

	// Fallback is set when the ambiguous-input policy picked the persona.
	Fallback bool `json:"-"`
}

// ConversationRequest carries everything needed for one reply. History holds
// all turns before Message, in the order the user saw them.
type ConversationRequest struct {
	Persona     ID
	Message     string
	History     []Turn
	UserContext string
}

var (
	// ErrInvalidInput marks missing or malformed caller-supplied fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUpstreamUnavailable marks a failing, unreachable or timed-out text-generation service.
	ErrUpstreamUnavailable = errors.New("text generation service unavailable")
	// ErrMalformedResponse marks upstream output that fails validation.
	ErrMalformedResponse = errors.New("malformed text generation response")
	// ErrConfigurationMissing marks an engine built without a generator.
	ErrConfigurationMissing = errors.New("text generation service is not configured")
)

// IsRetryable reports whether the caller may retry the same request.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable) || errors.Is(err, ErrMalformedResponse)
}

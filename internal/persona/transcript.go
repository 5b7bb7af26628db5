package persona

import (
	"context"
	"errors"
	"fmt"
)

// State is the lifecycle of a client-held conversation.
type State int

const (
	StateIdle State = iota
	StateClassified
	StateConversing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateClassified:
		return "classified"
	case StateConversing:
		return "conversing"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ErrInvalidTransition is returned when an operation is not allowed in the
// transcript's current state.
var ErrInvalidTransition = errors.New("invalid transcript transition")

// Transcript is the client side of a conversation: the only place turns are
// stored. It is not safe for concurrent use; callers serialize turns.
type Transcript struct {
	state          State
	classification *ClassificationResult
	userContext    string
	turns          []Turn
}

func NewTranscript() *Transcript {
	return &Transcript{}
}

func (t *Transcript) State() State { return t.state }

// Persona returns the persona of the current cycle, or "" before classification.
func (t *Transcript) Persona() ID {
	if t.classification == nil {
		return ""
	}
	return t.classification.Persona
}

func (t *Transcript) Classification() *ClassificationResult { return t.classification }

// Turns returns a copy of the conversation so far.
func (t *Transcript) Turns() []Turn {
	return append([]Turn(nil), t.turns...)
}

// Start classifies content and seeds the transcript with the opening message.
// It is allowed from Idle and Closed; a closed transcript starts a fresh cycle.
func (t *Transcript) Start(ctx context.Context, c *Classifier, content string) (*ClassificationResult, error) {
	if t.state != StateIdle && t.state != StateClosed {
		return nil, fmt.Errorf("%w: start from %s", ErrInvalidTransition, t.state)
	}

	t.reset()
	result, err := c.Classify(ctx, content)
	if err != nil {
		return nil, err
	}

	t.classification = result
	t.userContext = content
	t.turns = []Turn{{Role: RoleAssistant, Content: result.OpeningMessage}}
	t.state = StateClassified
	return result, nil
}

// Send appends message and the persona's reply. A fallback reply still
// counts as a turn and moves the transcript to Conversing.
func (t *Transcript) Send(ctx context.Context, s *Session, message string) (string, error) {
	if t.state != StateClassified && t.state != StateConversing {
		return "", fmt.Errorf("%w: send from %s", ErrInvalidTransition, t.state)
	}

	reply, err := s.Respond(ctx, ConversationRequest{
		Persona:     t.classification.Persona,
		Message:     message,
		History:     t.Turns(),
		UserContext: t.userContext,
	})
	if err != nil {
		return "", err
	}

	t.turns = append(t.turns,
		Turn{Role: RoleUser, Content: message},
		Turn{Role: RoleAssistant, Content: reply},
	)
	t.state = StateConversing
	return reply, nil
}

// Close discards the transcript. Closed is terminal for this cycle.
func (t *Transcript) Close() {
	t.reset()
	t.state = StateClosed
}

func (t *Transcript) reset() {
	t.state = StateIdle
	t.classification = nil
	t.userContext = ""
	t.turns = nil
}

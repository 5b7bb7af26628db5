package persona

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespond_ScenarioC_UnknownPersona(t *testing.T) {
	gen := &recordingGenerator{responses: []string{"안녕하시오"}}
	s := NewSession(gen, nil, time.Second)

	_, err := s.Respond(context.Background(), ConversationRequest{Persona: "Unknown", Message: "hi"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Zero(t, gen.calls())
}

func TestRespond_EmptyMessage(t *testing.T) {
	gen := &recordingGenerator{responses: []string{"안녕하시오"}}
	s := NewSession(gen, nil, time.Second)

	_, err := s.Respond(context.Background(), ConversationRequest{Persona: John, Message: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Zero(t, gen.calls())
}

func TestRespond_ScenarioD_UpstreamFailureReturnsFallback(t *testing.T) {
	gen := &recordingGenerator{errs: []error{errors.New("connection reset")}}
	s := NewSession(gen, nil, time.Second)

	reply, err := s.Respond(context.Background(), ConversationRequest{Persona: Peter, Message: "다시 일어설 수 있을까요?"})
	require.NoError(t, err)
	assert.Equal(t, FallbackReply, reply)
}

func TestRespond_TimeoutReturnsFallback(t *testing.T) {
	gen := GeneratorFunc(func(ctx context.Context, req GenerateRequest) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	s := NewSession(gen, nil, 10*time.Millisecond)

	reply, err := s.Respond(context.Background(), ConversationRequest{Persona: Moses, Message: "지쳤습니다"})
	require.NoError(t, err)
	assert.Equal(t, FallbackReply, reply)
}

func TestRespond_ConfigurationMissingIsNotAbsorbed(t *testing.T) {
	s := NewSession(nil, nil, time.Second)

	_, err := s.Respond(context.Background(), ConversationRequest{Persona: David, Message: "안녕하세요"})
	assert.ErrorIs(t, err, ErrConfigurationMissing)
}

func TestRespond_ScenarioE_HistoryReplayedInOrder(t *testing.T) {
	gen := &recordingGenerator{responses: []string{"그렇군요, 친구여."}}
	s := NewSession(gen, nil, time.Second)

	history := []Turn{
		{Role: RoleUser, Content: "A"},
		{Role: RoleAssistant, Content: "B"},
	}
	_, err := s.Respond(context.Background(), ConversationRequest{Persona: David, Message: "C", History: history})
	require.NoError(t, err)
	require.Equal(t, 1, gen.calls())

	req := gen.requests[0]
	assert.NotEmpty(t, req.System)
	assert.Equal(t, []Turn{
		{Role: RoleUser, Content: "A"},
		{Role: RoleAssistant, Content: "B"},
		{Role: RoleUser, Content: "C"},
	}, req.Turns)
}

func TestRespond_DuplicateTurnsAndUnknownRolesAreKept(t *testing.T) {
	gen := &recordingGenerator{responses: []string{"네."}}
	s := NewSession(gen, nil, time.Second)

	history := []Turn{
		{Role: "system", Content: "same"},
		{Role: "user", Content: "same"},
		{Role: "model", Content: "answer"},
		{Role: "assistant", Content: "answer"},
	}
	_, err := s.Respond(context.Background(), ConversationRequest{Persona: Paul, Message: "same", History: history})
	require.NoError(t, err)

	turns := gen.requests[0].Turns
	require.Len(t, turns, 5)
	for _, turn := range turns {
		assert.Contains(t, []Role{RoleUser, RoleAssistant}, turn.Role)
	}
	assert.Equal(t, RoleUser, turns[0].Role)
	assert.Equal(t, RoleUser, turns[2].Role)
	assert.Equal(t, RoleAssistant, turns[3].Role)
	assert.Equal(t, "same", turns[4].Content)
}

func TestRespond_SystemInstruction(t *testing.T) {
	gen := &recordingGenerator{responses: []string{"사랑하는 자녀여."}}
	s := NewSession(gen, nil, time.Second)

	_, err := s.Respond(context.Background(), ConversationRequest{
		Persona:     John,
		Message:     "사랑받고 있는지 모르겠어요",
		UserContext: "오늘 요한일서 4장을 묵상했다.",
	})
	require.NoError(t, err)

	req := gen.requests[0]
	assert.Contains(t, req.System, "Apostle John")
	assert.Contains(t, req.System, "오늘 요한일서 4장을 묵상했다.")
	assert.Contains(t, req.System, "follow the conversation")
	assert.True(t, strings.HasSuffix(req.System, languageRule), "language rule must come last")
	assert.Greater(t, req.Temperature, classifyTemperature)
	assert.Equal(t, chatMaxTokens, req.MaxTokens)
	assert.Nil(t, req.Schema)
}

func TestRespond_LanguageRuleAppliedToEveryPersona(t *testing.T) {
	for _, id := range IDs {
		gen := &recordingGenerator{responses: []string{"네."}}
		s := NewSession(gen, nil, time.Second)

		_, err := s.Respond(context.Background(), ConversationRequest{Persona: id, Message: "안녕하세요"})
		require.NoError(t, err)
		assert.Contains(t, gen.requests[0].System, "NO HANJA", id)
	}
}

func TestRespond_BannedPhrasesNeverReturned(t *testing.T) {
	banned := DefaultRegistry().BannedPhrases()
	require.NotEmpty(t, banned)

	gen := &recordingGenerator{responses: []string{"그대의 눈물을 기억하오. " + banned[0] + "! 오늘 밤 무엇이 가장 무거웠소?"}}
	s := NewSession(gen, nil, time.Second)

	reply, err := s.Respond(context.Background(), ConversationRequest{Persona: David, Message: "힘들어요"})
	require.NoError(t, err)
	for _, phrase := range banned {
		assert.NotContains(t, reply, phrase)
	}
	assert.Contains(t, reply, "그대의 눈물을 기억하오.")
	assert.Contains(t, reply, "오늘 밤 무엇이 가장 무거웠소?")
}

func TestRespond_OnlyBannedContentFallsBack(t *testing.T) {
	banned := DefaultRegistry().BannedPhrases()
	gen := &recordingGenerator{responses: []string{banned[0] + "."}}
	s := NewSession(gen, nil, time.Second)

	reply, err := s.Respond(context.Background(), ConversationRequest{Persona: Esther, Message: "무서워요"})
	require.NoError(t, err)
	assert.Equal(t, FallbackReply, reply)
}

func TestScrubBannedPhrases_KeepsOtherSentences(t *testing.T) {
	got := scrubBannedPhrases("첫 문장입니다. 힘내세요! 마지막 문장이오?", []string{"힘내세요"})
	assert.Equal(t, "첫 문장입니다. 마지막 문장이오?", got)

	assert.Equal(t, "그대로", scrubBannedPhrases("그대로", nil))
}

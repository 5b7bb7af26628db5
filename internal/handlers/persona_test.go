package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graceqt-backend/internal/persona"
)

const paulJSON = `{"character":"Paul","reason":"'고난'과 '은혜'라는 단어가 바울의 편지를 떠올리게 합니다.","opening_message":"사랑하는 형제여, 그대의 고난 속에서도 은혜를 붙드는 모습이 참으로 귀하오."}`

// stubGenerator answers every call with the same response or error.
type stubGenerator struct {
	mu       sync.Mutex
	response string
	err      error
	requests []persona.GenerateRequest
}

func (g *stubGenerator) Generate(ctx context.Context, req persona.GenerateRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	return g.response, g.err
}

func (g *stubGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

func newPersonaHandler(gen persona.Generator) *PersonaHandler {
	return NewPersonaHandler(
		persona.NewClassifier(gen, nil, time.Second),
		persona.NewSession(gen, nil, time.Second),
	)
}

func postJSON(t *testing.T, h http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body
}

func TestAnalyze_Success(t *testing.T) {
	gen := &stubGenerator{response: paulJSON}
	h := newPersonaHandler(gen)

	rr := postJSON(t, h.Analyze, "/api/analyze-persona", map[string]string{
		"content": "고난 가운데서도 은혜를 붙들고 싶습니다. 사명이 무겁게 느껴집니다.",
	})

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "Paul", body["character"])
	assert.NotEmpty(t, body["reason"])
	assert.NotEmpty(t, body["opening_message"])
}

func TestAnalyze_MissingContent(t *testing.T) {
	gen := &stubGenerator{response: paulJSON}
	h := newPersonaHandler(gen)

	rr := postJSON(t, h.Analyze, "/api/analyze-persona", map[string]string{"content": ""})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeBody(t, rr)["code"])
	assert.Zero(t, gen.calls())
}

func TestAnalyze_InvalidBody(t *testing.T) {
	h := newPersonaHandler(&stubGenerator{})

	req := httptest.NewRequest(http.MethodPost, "/api/analyze-persona", bytes.NewReader([]byte("{")))
	rr := httptest.NewRecorder()
	h.Analyze(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAnalyze_MissingConfiguration(t *testing.T) {
	h := newPersonaHandler(nil)

	rr := postJSON(t, h.Analyze, "/api/analyze-persona", map[string]string{"content": "오늘 말씀이 위로가 되었습니다."})

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "CONFIGURATION_MISSING", body["code"])
	assert.IsType(t, "", body["error"])
}

func TestAnalyze_UpstreamFailure(t *testing.T) {
	h := newPersonaHandler(&stubGenerator{err: errors.New("503 from provider")})

	rr := postJSON(t, h.Analyze, "/api/analyze-persona", map[string]string{"content": "오늘 말씀이 위로가 되었습니다."})

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Equal(t, "UPSTREAM_UNAVAILABLE", decodeBody(t, rr)["code"])
}

func TestAnalyze_MalformedUpstream(t *testing.T) {
	gen := &stubGenerator{response: "I am not JSON"}
	h := newPersonaHandler(gen)

	rr := postJSON(t, h.Analyze, "/api/analyze-persona", map[string]string{"content": "오늘 말씀이 위로가 되었습니다."})

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Equal(t, 2, gen.calls(), "malformed output is retried once")
}

func TestChat_UnknownPersona(t *testing.T) {
	gen := &stubGenerator{response: "안녕하시오"}
	h := newPersonaHandler(gen)

	rr := postJSON(t, h.Chat, "/api/chat", map[string]interface{}{
		"character": "Unknown",
		"message":   "hi",
		"history":   []interface{}{},
	})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Zero(t, gen.calls())
}

func TestChat_UpstreamFailureReturnsFallback(t *testing.T) {
	h := newPersonaHandler(&stubGenerator{err: errors.New("connection reset")})

	rr := postJSON(t, h.Chat, "/api/chat", map[string]interface{}{
		"character": "Peter",
		"message":   "다시 일어설 수 있을까요?",
	})

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, persona.FallbackReply, decodeBody(t, rr)["reply"])
}

func TestChat_ReplaysHistoryInOrder(t *testing.T) {
	gen := &stubGenerator{response: "그렇군요, 친구여."}
	h := newPersonaHandler(gen)

	rr := postJSON(t, h.Chat, "/api/chat", map[string]interface{}{
		"persona": "david",
		"message": "C",
		"history": []map[string]string{
			{"role": "user", "content": "A"},
			{"role": "assistant", "content": "B"},
		},
		"userContext": "오늘의 묵상",
	})

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "그렇군요, 친구여.", decodeBody(t, rr)["reply"])

	require.Equal(t, 1, gen.calls())
	turns := gen.requests[0].Turns
	require.Len(t, turns, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{turns[0].Content, turns[1].Content, turns[2].Content})
	assert.Equal(t, persona.RoleAssistant, turns[1].Role)
	assert.Contains(t, gen.requests[0].System, "오늘의 묵상")
}

func TestChat_CharacterWinsOverPersona(t *testing.T) {
	gen := &stubGenerator{response: "평안하시오."}
	h := newPersonaHandler(gen)

	rr := postJSON(t, h.Chat, "/api/chat", map[string]interface{}{
		"character": "Moses",
		"persona":   "Esther",
		"message":   "길이 보이지 않습니다.",
	})

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 1, gen.calls())
	assert.Contains(t, gen.requests[0].System, "모세")
}

func TestChat_MissingConfiguration(t *testing.T) {
	h := newPersonaHandler(nil)

	rr := postJSON(t, h.Chat, "/api/chat", map[string]interface{}{
		"character": "John",
		"message":   "사랑이 무엇인가요?",
	})

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

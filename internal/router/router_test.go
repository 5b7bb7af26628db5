package router

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graceqt-backend/internal/handlers"
	"graceqt-backend/internal/middleware"
	"graceqt-backend/internal/persona"
	"graceqt-backend/internal/services"
)

func testDeps(t *testing.T, limiter *middleware.RateLimiter) Deps {
	t.Helper()

	gen := persona.GeneratorFunc(func(ctx context.Context, req persona.GenerateRequest) (string, error) {
		return "평안하시오, 친구여.", nil
	})
	verses, err := services.NewVerseService()
	require.NoError(t, err)
	sessions := middleware.NewSessionTokens("router-test")

	return Deps{
		Sessions:       sessions,
		Persona:        handlers.NewPersonaHandler(persona.NewClassifier(gen, nil, time.Second), persona.NewSession(gen, nil, time.Second)),
		Verse:          handlers.NewVerseHandler(verses),
		Presence:       handlers.NewPresenceHandler(sessions, nil, 60),
		PersonaLimiter: limiter,
		FrontendURL:    "http://localhost:3000",
	}
}

func TestRouter_HealthAndRequestID(t *testing.T) {
	limiter := middleware.NewRateLimiter(5, time.Minute)
	defer limiter.Stop()
	h := New(testDeps(t, limiter))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get(middleware.RequestIDHeader))
}

func TestRouter_WebSocketDisabledWithoutHub(t *testing.T) {
	limiter := middleware.NewRateLimiter(5, time.Minute)
	defer limiter.Stop()
	h := New(testDeps(t, limiter))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/ws", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestRouter_ChatIsRateLimited(t *testing.T) {
	limiter := middleware.NewRateLimiter(2, time.Minute)
	defer limiter.Stop()
	h := New(testDeps(t, limiter))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/chat",
			bytes.NewReader([]byte(`{"character":"David","message":"안녕하세요"}`)))
		req.RemoteAddr = "192.0.2.10:40000"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRouter_VerseAndPresenceToken(t *testing.T) {
	limiter := middleware.NewRateLimiter(5, time.Minute)
	defer limiter.Stop()
	h := New(testDeps(t, limiter))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/verse/today", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/presence/token", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"token"`)
}

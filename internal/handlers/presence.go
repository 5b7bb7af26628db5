package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"graceqt-backend/internal/models"
)

type sessionIssuer interface {
	Issue() (string, uuid.UUID, error)
}

type OnlineCounter interface {
	Online(ctx context.Context) (int64, error)
}

type PresenceHandler struct {
	tokens     sessionIssuer
	counter    OnlineCounter
	ttlSeconds int
}

// NewPresenceHandler wires the presence routes. counter is nil when Redis is
// not configured.
func NewPresenceHandler(tokens sessionIssuer, counter OnlineCounter, ttlSeconds int) *PresenceHandler {
	return &PresenceHandler{tokens: tokens, counter: counter, ttlSeconds: ttlSeconds}
}

// Token hands out an anonymous session token for the websocket.
func (h *PresenceHandler) Token(w http.ResponseWriter, r *http.Request) {
	token, _, err := h.tokens.Issue()
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.PresenceTokenResponse{Token: token, ExpiresIn: h.ttlSeconds})
}

func (h *PresenceHandler) Online(w http.ResponseWriter, r *http.Request) {
	if h.counter == nil {
		writeJSON(w, http.StatusOK, models.PresenceUpdate{})
		return
	}
	online, err := h.counter.Online(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.PresenceUpdate{Online: online})
}

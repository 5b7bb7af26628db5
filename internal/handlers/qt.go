package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"graceqt-backend/internal/models"
	"graceqt-backend/internal/services"
)

// QTRepository is satisfied by both the Postgres and the Supabase store.
type QTRepository interface {
	Create(ctx context.Context, l *models.QTLog) error
	List(ctx context.Context) ([]*models.QTLog, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.QTLog, error)
	Update(ctx context.Context, l *models.QTLog) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type contentModerator interface {
	Check(ctx context.Context, text string) services.ModerationResult
}

// EventPublisher announces new posts to connected sockets.
type EventPublisher interface {
	Publish(ctx context.Context, msg models.WSMessage) error
}

type QTHandler struct {
	repo      QTRepository
	moderator contentModerator
	events    EventPublisher
}

// NewQTHandler wires the journal routes. moderator and events may be nil.
func NewQTHandler(repo QTRepository, moderator contentModerator, events EventPublisher) *QTHandler {
	return &QTHandler{repo: repo, moderator: moderator, events: events}
}

func (h *QTHandler) List(w http.ResponseWriter, r *http.Request) {
	logs, err := h.repo.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	// Private entries are listed without their content.
	out := make([]models.QTLog, 0, len(logs))
	for _, l := range logs {
		entry := *l
		if !entry.IsPublic {
			entry.Content = ""
			entry.MediaURL = nil
		}
		out = append(out, entry)
	}

	writeJSON(w, http.StatusOK, out)
}

func (h *QTHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateQTRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if blank(req.Nickname) || blank(req.Content) {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Nickname and content are required", r))
		return
	}
	if !validPostPassword(req.Password) {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Password must be 4 digits", r))
		return
	}

	if req.IsPublic && !h.allowed(w, r, req.Nickname, req.Content) {
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	l := &models.QTLog{
		Nickname:     strings.TrimSpace(req.Nickname),
		PasswordHash: hash,
		Content:      req.Content,
		IsPublic:     req.IsPublic,
		BibleVerse:   req.BibleVerse,
		MediaURL:     req.MediaURL,
	}
	if err := h.repo.Create(r.Context(), l); err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.announce(r.Context(), l)
	writeJSON(w, http.StatusCreated, l)
}

func (h *QTHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid post ID", r))
		return
	}

	var req models.UpdateQTRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if blank(req.Nickname) || blank(req.Content) {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Nickname and content are required", r))
		return
	}

	current, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if !passwordMatches(current.PasswordHash, req.Password) {
		writeJSON(w, http.StatusUnauthorized, errorResp("INVALID_PASSWORD", "Invalid password", r))
		return
	}

	if req.IsPublic && !h.allowed(w, r, req.Nickname, req.Content) {
		return
	}

	current.Nickname = strings.TrimSpace(req.Nickname)
	current.Content = req.Content
	current.IsPublic = req.IsPublic
	current.BibleVerse = req.BibleVerse
	current.MediaURL = req.MediaURL

	if err := h.repo.Update(r.Context(), current); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, current)
}

func (h *QTHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid post ID", r))
		return
	}

	var req models.PasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	current, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if !passwordMatches(current.PasswordHash, req.Password) {
		writeJSON(w, http.StatusUnauthorized, errorResp("INVALID_PASSWORD", "Invalid password", r))
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Deleted successfully"})
}

// Verify reveals a private entry's content to the holder of its password.
func (h *QTHandler) Verify(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid post ID", r))
		return
	}

	var req models.PasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	current, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if !passwordMatches(current.PasswordHash, req.Password) {
		writeJSON(w, http.StatusUnauthorized, errorResp("INVALID_PASSWORD", "Invalid password", r))
		return
	}

	writeJSON(w, http.StatusOK, models.QTVerifyResponse{Content: current.Content, MediaURL: current.MediaURL})
}

// allowed runs moderation and writes the rejection itself.
func (h *QTHandler) allowed(w http.ResponseWriter, r *http.Request, parts ...string) bool {
	return moderate(w, r, h.moderator, parts...)
}

func (h *QTHandler) announce(ctx context.Context, l *models.QTLog) {
	if h.events == nil {
		return
	}
	payload := map[string]interface{}{
		"id":         l.ID,
		"nickname":   l.Nickname,
		"is_public":  l.IsPublic,
		"created_at": l.CreatedAt,
	}
	if err := h.events.Publish(ctx, models.WSMessage{Type: models.WSTypeQTCreated, Payload: payload}); err != nil {
		log.Printf("[presence] failed to announce qt log %s: %v", l.ID, err)
	}
}

func moderate(w http.ResponseWriter, r *http.Request, moderator contentModerator, parts ...string) bool {
	if moderator == nil {
		return true
	}
	res := moderator.Check(r.Context(), strings.Join(parts, "\n"))
	if !res.Flagged {
		return true
	}

	resp := errorResp("CONTENT_FLAGGED", "Content violates community guidelines", r)
	resp.Categories = res.Categories
	writeJSON(w, http.StatusBadRequest, resp)
	return false
}

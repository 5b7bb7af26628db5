package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"graceqt-backend/internal/models"
)

// prayerListLimit caps the prayer wall.
const prayerListLimit = 50

type PrayerRepository interface {
	Create(ctx context.Context, p *models.PrayerRequest) error
	ListRecent(ctx context.Context, limit int) ([]*models.PrayerRequest, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.PrayerRequest, error)
	Delete(ctx context.Context, id uuid.UUID) error
	IncrementAmen(ctx context.Context, id uuid.UUID) (*models.PrayerRequest, error)
}

type PrayerHandler struct {
	repo           PrayerRepository
	moderator      contentModerator
	events         EventPublisher
	masterPassword string
}

// NewPrayerHandler wires the prayer routes. An empty masterPassword disables
// the operator override.
func NewPrayerHandler(repo PrayerRepository, moderator contentModerator, events EventPublisher, masterPassword string) *PrayerHandler {
	return &PrayerHandler{repo: repo, moderator: moderator, events: events, masterPassword: masterPassword}
}

func (h *PrayerHandler) List(w http.ResponseWriter, r *http.Request) {
	prayers, err := h.repo.ListRecent(r.Context(), prayerListLimit)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if prayers == nil {
		prayers = []*models.PrayerRequest{}
	}
	writeJSON(w, http.StatusOK, prayers)
}

func (h *PrayerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePrayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if blank(req.Nickname) || blank(req.Content) || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Missing fields", r))
		return
	}
	if !validPostPassword(req.Password) {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Password must be 4 digits", r))
		return
	}

	if !moderate(w, r, h.moderator, req.Nickname, req.Content) {
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	p := &models.PrayerRequest{
		Nickname:     strings.TrimSpace(req.Nickname),
		PasswordHash: hash,
		Content:      req.Content,
	}
	if err := h.repo.Create(r.Context(), p); err != nil {
		handleServiceError(w, r, err)
		return
	}

	if h.events != nil {
		msg := models.WSMessage{Type: models.WSTypePrayer, Payload: p}
		if err := h.events.Publish(r.Context(), msg); err != nil {
			log.Printf("[presence] failed to announce prayer %s: %v", p.ID, err)
		}
	}

	writeJSON(w, http.StatusCreated, p)
}

func (h *PrayerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid prayer ID", r))
		return
	}

	var req models.PasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Password is required", r))
		return
	}

	if h.isMaster(req.Password) {
		if err := h.repo.Delete(r.Context(), id); err != nil {
			handleServiceError(w, r, err)
			return
		}
		log.Printf("[prayer] %s deleted with master password", id)
		writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Deleted successfully by Master"})
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

func (h *PrayerHandler) Amen(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid prayer ID", r))
		return
	}

	p, err := h.repo.IncrementAmen(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

func (h *PrayerHandler) isMaster(pw string) bool {
	return h.masterPassword != "" &&
		subtle.ConstantTimeCompare([]byte(pw), []byte(h.masterPassword)) == 1
}

package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"graceqt-backend/internal/middleware"
	"graceqt-backend/internal/models"
	"graceqt-backend/internal/persona"
	"graceqt-backend/internal/repository"
)

const bcryptCost = 10

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error:     message,
		Code:      code,
		RequestID: r.Header.Get(middleware.RequestIDHeader),
	}
}

// handleServiceError maps engine and store errors onto HTTP statuses.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, persona.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", err.Error(), r))
	case errors.Is(err, persona.ErrConfigurationMissing):
		writeJSON(w, http.StatusInternalServerError, errorResp("CONFIGURATION_MISSING", "Text generation service is not configured", r))
	case errors.Is(err, persona.ErrMalformedResponse):
		log.Printf("[persona] malformed upstream response (request %s): %v", r.Header.Get(middleware.RequestIDHeader), err)
		writeJSON(w, http.StatusBadGateway, errorResp("UPSTREAM_UNAVAILABLE", "Text generation service returned an unusable response. Please try again.", r))
	case errors.Is(err, persona.ErrUpstreamUnavailable):
		log.Printf("[persona] upstream unavailable (request %s): %v", r.Header.Get(middleware.RequestIDHeader), err)
		writeJSON(w, http.StatusBadGateway, errorResp("UPSTREAM_UNAVAILABLE", "Text generation service is unavailable. Please try again.", r))
	case errors.Is(err, repository.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Post not found", r))
	default:
		log.Printf("Unhandled error (request %s): %v", r.Header.Get(middleware.RequestIDHeader), err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}

func parseIDParam(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

// validPostPassword accepts exactly four ASCII digits.
func validPostPassword(pw string) bool {
	if len(pw) != 4 {
		return false
	}
	for i := 0; i < len(pw); i++ {
		if pw[i] < '0' || pw[i] > '9' {
			return false
		}
	}
	return true
}

func hashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func passwordMatches(hash, pw string) bool {
	return pw != "" && bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

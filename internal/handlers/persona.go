package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"graceqt-backend/internal/models"
	"graceqt-backend/internal/persona"
)

type personaClassifier interface {
	Classify(ctx context.Context, content string) (*persona.ClassificationResult, error)
}

type personaResponder interface {
	Respond(ctx context.Context, req persona.ConversationRequest) (string, error)
}

// PersonaHandler exposes the classifier and the stateless conversation
// session. The client holds the whole conversation and resends it each turn.
type PersonaHandler struct {
	classifier personaClassifier
	responder  personaResponder
}

func NewPersonaHandler(classifier personaClassifier, responder personaResponder) *PersonaHandler {
	return &PersonaHandler{classifier: classifier, responder: responder}
}

func (h *PersonaHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req models.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	result, err := h.classifier.Classify(r.Context(), req.Content)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.AnalyzeResponse{
		Character:      string(result.Persona),
		Reason:         result.Reason,
		OpeningMessage: result.OpeningMessage,
	})
}

func (h *PersonaHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	name := req.Character
	if blank(name) {
		name = req.Persona
	}
	id, err := persona.ParseID(name)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	history := make([]persona.Turn, 0, len(req.History))
	for _, m := range req.History {
		history = append(history, persona.Turn{Role: persona.Role(m.Role), Content: m.Content})
	}

	reply, err := h.responder.Respond(r.Context(), persona.ConversationRequest{
		Persona:     id,
		Message:     req.Message,
		History:     history,
		UserContext: req.UserContext,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.ChatResponse{Reply: reply})
}

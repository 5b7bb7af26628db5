package handlers

import (
	"net/http"
	"time"

	"graceqt-backend/internal/services"
)

type verseSource interface {
	ForDay(t time.Time) services.Verse
}

type VerseHandler struct {
	verses verseSource
	now    func() time.Time
}

func NewVerseHandler(verses verseSource) *VerseHandler {
	return &VerseHandler{verses: verses, now: time.Now}
}

func (h *VerseHandler) Today(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.verses.ForDay(h.now()))
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// QTLog is an anonymous devotional journal entry. Private entries are listed
// with their content blanked and only reveal it after a password check.
type QTLog struct {
	ID           uuid.UUID `json:"id"`
	Nickname     string    `json:"nickname"`
	PasswordHash string    `json:"-"`
	Content      string    `json:"content"`
	IsPublic     bool      `json:"is_public"`
	BibleVerse   *string   `json:"bible_verse"`
	MediaURL     *string   `json:"media_url"`
	CreatedAt    time.Time `json:"created_at"`
}

type CreateQTRequest struct {
	Nickname   string  `json:"nickname"`
	Password   string  `json:"password"`
	Content    string  `json:"content"`
	IsPublic   bool    `json:"is_public"`
	BibleVerse *string `json:"bible_verse"`
	MediaURL   *string `json:"media_url"`
}

type UpdateQTRequest struct {
	Password   string  `json:"password"`
	Nickname   string  `json:"nickname"`
	Content    string  `json:"content"`
	IsPublic   bool    `json:"is_public"`
	BibleVerse *string `json:"bible_verse"`
	MediaURL   *string `json:"media_url"`
}

// PasswordRequest carries the 4-digit password for verify and delete calls.
type PasswordRequest struct {
	Password string `json:"password"`
}

type QTVerifyResponse struct {
	Content  string  `json:"content"`
	MediaURL *string `json:"media_url"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

type PrayerRequest struct {
	ID           uuid.UUID `json:"id"`
	Nickname     string    `json:"nickname"`
	PasswordHash string    `json:"-"`
	Content      string    `json:"content"`
	AmenCount    int       `json:"amen_count"`
	CreatedAt    time.Time `json:"created_at"`
}

type CreatePrayerRequest struct {
	Nickname string `json:"nickname"`
	Password string `json:"password"`
	Content  string `json:"content"`
}

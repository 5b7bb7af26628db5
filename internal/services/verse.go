package services

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"time"
)

//go:embed verses.json
var versesJSON []byte

// Verse is a daily meditation verse.
type Verse struct {
	Verse     string `json:"verse"`
	Reference string `json:"reference"`
}

// VerseService rotates through a fixed verse list by day of year.
type VerseService struct {
	verses []Verse
}

func NewVerseService() (*VerseService, error) {
	var verses []Verse
	if err := json.Unmarshal(versesJSON, &verses); err != nil {
		return nil, fmt.Errorf("failed to parse verses: %w", err)
	}
	if len(verses) == 0 {
		return nil, fmt.Errorf("verse list is empty")
	}
	return &VerseService{verses: verses}, nil
}

// ForDay returns the verse for the calendar day of t in t's location.
func (s *VerseService) ForDay(t time.Time) Verse {
	return s.verses[(t.YearDay())%len(s.verses)]
}

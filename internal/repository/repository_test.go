package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestMapNoRows(t *testing.T) {
	if err := mapNoRows(pgx.ErrNoRows); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mapNoRows(fmt.Errorf("scan: %w", pgx.ErrNoRows)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected wrapped no-rows to map, got %v", err)
	}

	other := errors.New("connection reset")
	if err := mapNoRows(other); err != other {
		t.Fatalf("expected other errors to pass through, got %v", err)
	}
	if mapNoRows(nil) != nil {
		t.Fatalf("expected nil to stay nil")
	}
}

func TestQTLogRow_DecodesHostedShape(t *testing.T) {
	body := `{
		"id": "4f0b1f6e-3a53-4d62-9d38-2f9c0b5c7a11",
		"nickname": "새벽",
		"password": "$2a$10$hash",
		"content": "오늘 말씀",
		"is_public": false,
		"bible_verse": "시편 23:1",
		"media_url": null,
		"created_at": "2026-03-01T09:15:00.123456+00:00"
	}`

	var row qtLogRow
	if err := json.Unmarshal([]byte(body), &row); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	l, err := row.toModel()
	if err != nil {
		t.Fatalf("toModel: %v", err)
	}
	if l.PasswordHash != "$2a$10$hash" {
		t.Errorf("expected password column to map to hash, got %q", l.PasswordHash)
	}
	if l.BibleVerse == nil || *l.BibleVerse != "시편 23:1" {
		t.Errorf("unexpected bible verse: %v", l.BibleVerse)
	}
	if l.MediaURL != nil {
		t.Errorf("expected nil media url")
	}
	if l.CreatedAt.IsZero() {
		t.Errorf("expected created_at to parse")
	}
}

func TestQTLogRow_InsertOmitsServerColumns(t *testing.T) {
	data, err := json.Marshal(qtLogRow{Nickname: "a", Password: "h", Content: "c"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var fields map[string]any
	json.Unmarshal(data, &fields)
	for _, key := range []string{"id", "created_at"} {
		if _, ok := fields[key]; ok {
			t.Errorf("expected %q to be omitted on insert, got %s", key, data)
		}
	}
}

func TestPrayerRow_RejectsBadID(t *testing.T) {
	if _, err := (prayerRow{ID: "not-a-uuid"}).toModel(); err == nil {
		t.Fatalf("expected an error for a malformed id")
	}
}

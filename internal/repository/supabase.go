package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"

	"graceqt-backend/internal/models"
)

// amenRetries bounds the compare-and-set loop PostgREST forces on the
// counter, since it has no increment operator without an RPC.
const amenRetries = 5

// NewSupabaseClient connects to the hosted PostgREST API. The same client
// backs both Supabase repositories.
func NewSupabaseClient(url, apiKey string) (*supabase.Client, error) {
	if url == "" {
		return nil, fmt.Errorf("supabase URL is required")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("supabase API key is required")
	}

	client, err := supabase.NewClient(url, apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return client, nil
}

// Rows as PostgREST returns them. The hashed password lives in a column
// named "password" in the hosted schema.
type qtLogRow struct {
	ID         string    `json:"id,omitempty"`
	Nickname   string    `json:"nickname"`
	Password   string    `json:"password,omitempty"`
	Content    string    `json:"content"`
	IsPublic   bool      `json:"is_public"`
	BibleVerse *string   `json:"bible_verse"`
	MediaURL   *string   `json:"media_url"`
	CreatedAt  time.Time `json:"created_at,omitzero"`
}

func (row qtLogRow) toModel() (*models.QTLog, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid qt log id %q: %w", row.ID, err)
	}
	return &models.QTLog{
		ID:           id,
		Nickname:     row.Nickname,
		PasswordHash: row.Password,
		Content:      row.Content,
		IsPublic:     row.IsPublic,
		BibleVerse:   row.BibleVerse,
		MediaURL:     row.MediaURL,
		CreatedAt:    row.CreatedAt,
	}, nil
}

type qtLogUpdate struct {
	Nickname   string  `json:"nickname"`
	Content    string  `json:"content"`
	IsPublic   bool    `json:"is_public"`
	BibleVerse *string `json:"bible_verse"`
	MediaURL   *string `json:"media_url"`
}

type prayerRow struct {
	ID        string    `json:"id,omitempty"`
	Nickname  string    `json:"nickname"`
	Password  string    `json:"password,omitempty"`
	Content   string    `json:"content"`
	AmenCount int       `json:"amen_count"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

func (row prayerRow) toModel() (*models.PrayerRequest, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid prayer id %q: %w", row.ID, err)
	}
	return &models.PrayerRequest{
		ID:           id,
		Nickname:     row.Nickname,
		PasswordHash: row.Password,
		Content:      row.Content,
		AmenCount:    row.AmenCount,
		CreatedAt:    row.CreatedAt,
	}, nil
}

// SupabaseQTLogRepo stores QT logs in the hosted qt_logs table.
type SupabaseQTLogRepo struct {
	client *supabase.Client
}

func NewSupabaseQTLogRepo(client *supabase.Client) *SupabaseQTLogRepo {
	return &SupabaseQTLogRepo{client: client}
}

func (r *SupabaseQTLogRepo) Create(ctx context.Context, l *models.QTLog) error {
	var rows []qtLogRow
	_, err := r.client.From("qt_logs").
		Insert(qtLogRow{
			Nickname:   l.Nickname,
			Password:   l.PasswordHash,
			Content:    l.Content,
			IsPublic:   l.IsPublic,
			BibleVerse: l.BibleVerse,
			MediaURL:   l.MediaURL,
		}, false, "", "representation", "").
		ExecuteTo(&rows)
	if err != nil {
		return fmt.Errorf("failed to insert qt log: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("failed to insert qt log: empty response")
	}

	created, err := rows[0].toModel()
	if err != nil {
		return err
	}
	*l = *created
	return nil
}

func (r *SupabaseQTLogRepo) List(ctx context.Context) ([]*models.QTLog, error) {
	var rows []qtLogRow
	_, err := r.client.From("qt_logs").
		Select("*", "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list qt logs: %w", err)
	}

	logs := make([]*models.QTLog, 0, len(rows))
	for _, row := range rows {
		l, err := row.toModel()
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, nil
}

func (r *SupabaseQTLogRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.QTLog, error) {
	var rows []qtLogRow
	_, err := r.client.From("qt_logs").
		Select("*", "", false).
		Eq("id", id.String()).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to get qt log: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0].toModel()
}

func (r *SupabaseQTLogRepo) Update(ctx context.Context, l *models.QTLog) error {
	var rows []qtLogRow
	_, err := r.client.From("qt_logs").
		Update(qtLogUpdate{
			Nickname:   l.Nickname,
			Content:    l.Content,
			IsPublic:   l.IsPublic,
			BibleVerse: l.BibleVerse,
			MediaURL:   l.MediaURL,
		}, "representation", "").
		Eq("id", l.ID.String()).
		ExecuteTo(&rows)
	if err != nil {
		return fmt.Errorf("failed to update qt log: %w", err)
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	l.CreatedAt = rows[0].CreatedAt
	return nil
}

func (r *SupabaseQTLogRepo) Delete(ctx context.Context, id uuid.UUID) error {
	var rows []qtLogRow
	_, err := r.client.From("qt_logs").
		Delete("representation", "").
		Eq("id", id.String()).
		ExecuteTo(&rows)
	if err != nil {
		return fmt.Errorf("failed to delete qt log: %w", err)
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	return nil
}

// SupabasePrayerRepo stores prayer requests in the hosted prayer_requests table.
type SupabasePrayerRepo struct {
	client *supabase.Client
}

func NewSupabasePrayerRepo(client *supabase.Client) *SupabasePrayerRepo {
	return &SupabasePrayerRepo{client: client}
}

func (r *SupabasePrayerRepo) Create(ctx context.Context, p *models.PrayerRequest) error {
	var rows []prayerRow
	_, err := r.client.From("prayer_requests").
		Insert(prayerRow{
			Nickname: p.Nickname,
			Password: p.PasswordHash,
			Content:  p.Content,
		}, false, "", "representation", "").
		ExecuteTo(&rows)
	if err != nil {
		return fmt.Errorf("failed to insert prayer request: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("failed to insert prayer request: empty response")
	}

	created, err := rows[0].toModel()
	if err != nil {
		return err
	}
	*p = *created
	return nil
}

func (r *SupabasePrayerRepo) ListRecent(ctx context.Context, limit int) ([]*models.PrayerRequest, error) {
	var rows []prayerRow
	_, err := r.client.From("prayer_requests").
		Select("*", "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Limit(limit, "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list prayer requests: %w", err)
	}

	prayers := make([]*models.PrayerRequest, 0, len(rows))
	for _, row := range rows {
		p, err := row.toModel()
		if err != nil {
			return nil, err
		}
		prayers = append(prayers, p)
	}
	return prayers, nil
}

func (r *SupabasePrayerRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.PrayerRequest, error) {
	var rows []prayerRow
	_, err := r.client.From("prayer_requests").
		Select("*", "", false).
		Eq("id", id.String()).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to get prayer request: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0].toModel()
}

func (r *SupabasePrayerRepo) Delete(ctx context.Context, id uuid.UUID) error {
	var rows []prayerRow
	_, err := r.client.From("prayer_requests").
		Delete("representation", "").
		Eq("id", id.String()).
		ExecuteTo(&rows)
	if err != nil {
		return fmt.Errorf("failed to delete prayer request: %w", err)
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementAmen reads the counter and writes it back conditioned on the value
// it read, retrying when another amen landed in between.
func (r *SupabasePrayerRepo) IncrementAmen(ctx context.Context, id uuid.UUID) (*models.PrayerRequest, error) {
	for attempt := 0; attempt < amenRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		current, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		var rows []prayerRow
		_, err = r.client.From("prayer_requests").
			Update(map[string]int{"amen_count": current.AmenCount + 1}, "representation", "").
			Eq("id", id.String()).
			Eq("amen_count", strconv.Itoa(current.AmenCount)).
			ExecuteTo(&rows)
		if err != nil {
			return nil, fmt.Errorf("failed to increment amen count: %w", err)
		}
		if len(rows) > 0 {
			return rows[0].toModel()
		}
	}
	return nil, fmt.Errorf("failed to increment amen count: too much contention on %s", id)
}

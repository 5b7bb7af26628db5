package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"graceqt-backend/internal/models"
)

type PrayerRepo struct {
	pool *pgxpool.Pool
}

func NewPrayerRepo(pool *pgxpool.Pool) *PrayerRepo {
	return &PrayerRepo{pool: pool}
}

const prayerColumns = `id, nickname, password_hash, content, amen_count, created_at`

func (r *PrayerRepo) Create(ctx context.Context, p *models.PrayerRequest) error {
	p.ID = uuid.New()
	p.AmenCount = 0

	query := `INSERT INTO prayer_requests (id, nickname, password_hash, content)
		VALUES ($1, $2, $3, $4) RETURNING created_at`

	return r.pool.QueryRow(ctx, query, p.ID, p.Nickname, p.PasswordHash, p.Content).Scan(&p.CreatedAt)
}

func (r *PrayerRepo) ListRecent(ctx context.Context, limit int) ([]*models.PrayerRequest, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+prayerColumns+` FROM prayer_requests ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prayers []*models.PrayerRequest
	for rows.Next() {
		p := &models.PrayerRequest{}
		if err := rows.Scan(&p.ID, &p.Nickname, &p.PasswordHash, &p.Content, &p.AmenCount, &p.CreatedAt); err != nil {
			return nil, err
		}
		prayers = append(prayers, p)
	}
	return prayers, rows.Err()
}

func (r *PrayerRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.PrayerRequest, error) {
	p := &models.PrayerRequest{}
	err := r.pool.QueryRow(ctx, `SELECT `+prayerColumns+` FROM prayer_requests WHERE id = $1`, id).Scan(
		&p.ID, &p.Nickname, &p.PasswordHash, &p.Content, &p.AmenCount, &p.CreatedAt,
	)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return p, nil
}

func (r *PrayerRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM prayer_requests WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementAmen bumps the counter in a single statement so concurrent amens
// are never lost.
func (r *PrayerRepo) IncrementAmen(ctx context.Context, id uuid.UUID) (*models.PrayerRequest, error) {
	p := &models.PrayerRequest{}
	err := r.pool.QueryRow(ctx,
		`UPDATE prayer_requests SET amen_count = amen_count + 1 WHERE id = $1 RETURNING `+prayerColumns, id,
	).Scan(&p.ID, &p.Nickname, &p.PasswordHash, &p.Content, &p.AmenCount, &p.CreatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return p, nil
}

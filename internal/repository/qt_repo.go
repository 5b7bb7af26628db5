package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"graceqt-backend/internal/models"
)

type QTLogRepo struct {
	pool *pgxpool.Pool
}

func NewQTLogRepo(pool *pgxpool.Pool) *QTLogRepo {
	return &QTLogRepo{pool: pool}
}

const qtLogColumns = `id, nickname, password_hash, content, is_public, bible_verse, media_url, created_at`

func (r *QTLogRepo) Create(ctx context.Context, l *models.QTLog) error {
	l.ID = uuid.New()

	query := `INSERT INTO qt_logs (id, nickname, password_hash, content, is_public, bible_verse, media_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		l.ID, l.Nickname, l.PasswordHash, l.Content, l.IsPublic, l.BibleVerse, l.MediaURL,
	).Scan(&l.CreatedAt)
}

func (r *QTLogRepo) List(ctx context.Context) ([]*models.QTLog, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+qtLogColumns+` FROM qt_logs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.QTLog
	for rows.Next() {
		l := &models.QTLog{}
		if err := rows.Scan(
			&l.ID, &l.Nickname, &l.PasswordHash, &l.Content, &l.IsPublic,
			&l.BibleVerse, &l.MediaURL, &l.CreatedAt,
		); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (r *QTLogRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.QTLog, error) {
	l := &models.QTLog{}
	err := r.pool.QueryRow(ctx, `SELECT `+qtLogColumns+` FROM qt_logs WHERE id = $1`, id).Scan(
		&l.ID, &l.Nickname, &l.PasswordHash, &l.Content, &l.IsPublic,
		&l.BibleVerse, &l.MediaURL, &l.CreatedAt,
	)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return l, nil
}

// Update rewrites the editable fields. The password hash never changes.
func (r *QTLogRepo) Update(ctx context.Context, l *models.QTLog) error {
	query := `UPDATE qt_logs SET nickname = $2, content = $3, is_public = $4, bible_verse = $5, media_url = $6
		WHERE id = $1 RETURNING created_at`

	err := r.pool.QueryRow(ctx, query,
		l.ID, l.Nickname, l.Content, l.IsPublic, l.BibleVerse, l.MediaURL,
	).Scan(&l.CreatedAt)
	return mapNoRows(err)
}

func (r *QTLogRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM qt_logs WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"sitfit-api/internal/domain"
	"sitfit-api/internal/domain/model"
	"sitfit-api/internal/domain/ports/repository"
)

var _ repository.TryOnRepository = (*tryOnRepo)(nil)

type tryOnRepo struct{ pool *pgxpool.Pool }

func NewTryOnRepo(pool *pgxpool.Pool) *tryOnRepo {
	return &tryOnRepo{pool: pool}
}

const tryOnColumns = `id, user_id, garment_type, generated_image_url, provider_request_id, status, message, created_at, updated_at`

func (r *tryOnRepo) Save(ctx context.Context, tx repository.Tx, t *model.TryOnResult) error {
	const q = `
INSERT INTO tryon_results (` + tryOnColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO UPDATE SET
  generated_image_url=$4, provider_request_id=$5, status=$6, message=$7, updated_at=$9;`
	_, err := execSQL(ctx, r.pool, tx, q, t.ID, t.UserID, string(t.GarmentType), t.GeneratedImageURL, t.ProviderRequestID, string(t.Status), t.Message, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return writeErr(err)
	}
	return nil
}

func (r *tryOnRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.TryOnResult, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+tryOnColumns+` FROM tryon_results WHERE id=$1;`, id)
	if err != nil {
		return nil, err
	}
	t, err := scanTryOn(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return t, nil
}

func (r *tryOnRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.TryOnResult, error) {
	if limit <= 0 {
		limit = 10
	}
	q := `SELECT ` + tryOnColumns + ` FROM tryon_results WHERE user_id=$1 ORDER BY created_at DESC, id DESC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID, limit)
	if err != nil {
		return nil, writeErr(err)
	}
	defer rows.Close()

	out := []*model.TryOnResult{}
	for rows.Next() {
		t, err := scanTryOn(rows)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTryOn(row pgx.Row) (*model.TryOnResult, error) {
	t := &model.TryOnResult{}
	err := row.Scan(&t.ID, &t.UserID, &t.GarmentType, &t.GeneratedImageURL, &t.ProviderRequestID, &t.Status, &t.Message, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

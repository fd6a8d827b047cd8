package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"sitfit-api/internal/domain"
	"sitfit-api/internal/domain/model"
	"sitfit-api/internal/domain/ports/repository"
)

var _ repository.StylistRepository = (*stylistRepo)(nil)

type stylistRepo struct{ pool *pgxpool.Pool }

func NewStylistRepo(pool *pgxpool.Pool) *stylistRepo {
	return &stylistRepo{pool: pool}
}

const stylistColumns = `id, user_id, query, context, response, provider, created_at`

func (r *stylistRepo) Save(ctx context.Context, tx repository.Tx, e *model.StylistEntry) error {
	sc, err := json.Marshal(e.Context)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	const q = `
INSERT INTO stylist_history (` + stylistColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO NOTHING;`
	if _, err := execSQL(ctx, r.pool, tx, q, e.ID, e.UserID, e.Query, sc, e.Response, e.Provider, e.CreatedAt); err != nil {
		return writeErr(err)
	}
	return nil
}

func (r *stylistRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.StylistEntry, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+stylistColumns+` FROM stylist_history WHERE id=$1;`, id)
	if err != nil {
		return nil, err
	}
	e, err := scanStylist(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return e, nil
}

func (r *stylistRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.StylistEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	q := `SELECT ` + stylistColumns + ` FROM stylist_history WHERE user_id=$1 ORDER BY created_at DESC, id DESC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID, limit)
	if err != nil {
		return nil, writeErr(err)
	}
	defer rows.Close()

	out := []*model.StylistEntry{}
	for rows.Next() {
		e, err := scanStylist(rows)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *stylistRepo) SaveFeedback(ctx context.Context, tx repository.Tx, f *model.StylistFeedback) error {
	const q = `
INSERT INTO stylist_feedback (id, user_id, entry_id, rating, comment, created_at)
VALUES ($1,$2,$3,$4,$5,$6);`
	if _, err := execSQL(ctx, r.pool, tx, q, f.ID, f.UserID, f.EntryID, f.Rating, f.Comment, f.CreatedAt); err != nil {
		return writeErr(err)
	}
	return nil
}

func scanStylist(row pgx.Row) (*model.StylistEntry, error) {
	e := &model.StylistEntry{}
	var sc []byte
	if err := row.Scan(&e.ID, &e.UserID, &e.Query, &sc, &e.Response, &e.Provider, &e.CreatedAt); err != nil {
		return nil, err
	}
	if len(sc) > 0 {
		if err := json.Unmarshal(sc, &e.Context); err != nil {
			return nil, err
		}
	}
	return e, nil
}

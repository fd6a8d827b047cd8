package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"sitfit-api/internal/domain"
	"sitfit-api/internal/domain/model"
	"sitfit-api/internal/domain/ports/repository"
)

var _ repository.CreditRepository = (*creditRepo)(nil)

type creditRepo struct{ pool *pgxpool.Pool }

func NewCreditRepo(pool *pgxpool.Pool) *creditRepo {
	return &creditRepo{pool: pool}
}

func (r *creditRepo) Find(ctx context.Context, tx repository.Tx, userID string) (*model.UserCredits, error) {
	if _, ok := tx.(pgx.Tx); ok {
		// Serializes first-time creation, which FOR UPDATE cannot lock.
		if _, err := execSQL(ctx, r.pool, tx, `SELECT pg_advisory_xact_lock(hashtext($1));`, userID); err != nil {
			return nil, writeErr(err)
		}
	}
	q := forUpdate(`SELECT user_id, credits, is_premium, subscription_type, subscription_end_date, last_reset_date, total_used FROM user_credits WHERE user_id=$1`, tx) + ";"
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}

	c := &model.UserCredits{}
	if err := row.Scan(&c.UserID, &c.Credits, &c.IsPremium, &c.SubscriptionType, &c.SubscriptionEndDate, &c.LastResetDate, &c.TotalUsed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return c, nil
}

// Apply upserts the ledger row. Absolute values win over the stored ones and
// deltas are added on top, the same order CreditUpdate.ApplyTo uses.
func (r *creditRepo) Apply(ctx context.Context, tx repository.Tx, userID string, u repository.CreditUpdate) error {
	if userID == "" {
		return domain.ErrInvalidArgument
	}
	const q = `
INSERT INTO user_credits (
  user_id, credits, total_used, is_premium, subscription_type, subscription_end_date, last_reset_date, updated_at
) VALUES (
  $1,
  COALESCE($2::bigint, 0) + $3::bigint,
  COALESCE($4::bigint, 0) + $5::bigint,
  COALESCE($6::boolean, FALSE),
  COALESCE($7::text, 'free'),
  $8::timestamptz,
  COALESCE($10::timestamptz, NOW()),
  NOW()
) ON CONFLICT (user_id) DO UPDATE SET
  credits = COALESCE($2::bigint, user_credits.credits) + $3::bigint,
  total_used = COALESCE($4::bigint, user_credits.total_used) + $5::bigint,
  is_premium = COALESCE($6::boolean, user_credits.is_premium),
  subscription_type = COALESCE($7::text, user_credits.subscription_type),
  subscription_end_date = CASE
    WHEN $8::timestamptz IS NOT NULL THEN $8::timestamptz
    WHEN $9::boolean THEN NULL
    ELSE user_credits.subscription_end_date
  END,
  last_reset_date = COALESCE($10::timestamptz, user_credits.last_reset_date),
  updated_at = NOW();`

	var subType *string
	if u.SubscriptionType != nil {
		s := string(*u.SubscriptionType)
		subType = &s
	}
	if _, err := execSQL(ctx, r.pool, tx, q, userID, u.Credits, u.CreditsDelta, u.TotalUsed, u.TotalUsedDelta,
		u.IsPremium, subType, u.SubscriptionEnd, u.ClearSubscriptionEnd, u.LastResetDate); err != nil {
		return writeErr(err)
	}

	if p := u.Payment; p != nil {
		const pq = `
INSERT INTO payment_records (user_id, payment_id, order_id, plan, amount, currency, status, paid_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (user_id, payment_id) DO NOTHING;`
		if _, err := execSQL(ctx, r.pool, tx, pq, userID, p.PaymentID, p.OrderID, string(p.Plan), p.Amount, p.Currency, string(p.Status), p.Date); err != nil {
			return writeErr(err)
		}
	}
	return nil
}

func (r *creditRepo) FindPayment(ctx context.Context, tx repository.Tx, userID, paymentID string) (*model.PaymentRecord, error) {
	const q = `SELECT order_id, payment_id, plan, amount, currency, paid_at, status FROM payment_records WHERE user_id=$1 AND payment_id=$2;`
	row, err := pickRow(ctx, r.pool, tx, q, userID, paymentID)
	if err != nil {
		return nil, err
	}
	p := &model.PaymentRecord{}
	if err := row.Scan(&p.OrderID, &p.PaymentID, &p.Plan, &p.Amount, &p.Currency, &p.Date, &p.Status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *creditRepo) ListPayments(ctx context.Context, tx repository.Tx, userID string) ([]*model.PaymentRecord, error) {
	const q = `SELECT order_id, payment_id, plan, amount, currency, paid_at, status FROM payment_records WHERE user_id=$1 ORDER BY paid_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, writeErr(err)
	}
	defer rows.Close()

	out := []*model.PaymentRecord{}
	for rows.Next() {
		p := new(model.PaymentRecord)
		if err := rows.Scan(&p.OrderID, &p.PaymentID, &p.Plan, &p.Amount, &p.Currency, &p.Date, &p.Status); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return out, nil
}

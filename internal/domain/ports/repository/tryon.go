package repository

import (
	"context"

	"sitfit-api/internal/domain/model"
)

type TryOnRepository interface {
	Save(ctx context.Context, tx Tx, r *model.TryOnResult) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.TryOnResult, error)
	// ListByUser returns newest first.
	ListByUser(ctx context.Context, tx Tx, userID string, limit int) ([]*model.TryOnResult, error)
}

type StylistRepository interface {
	Save(ctx context.Context, tx Tx, e *model.StylistEntry) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.StylistEntry, error)
	// ListByUser returns newest first.
	ListByUser(ctx context.Context, tx Tx, userID string, limit int) ([]*model.StylistEntry, error)
	SaveFeedback(ctx context.Context, tx Tx, f *model.StylistFeedback) error
}

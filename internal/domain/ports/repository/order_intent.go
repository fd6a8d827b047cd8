package repository

import (
	"context"

	"sitfit-api/internal/domain/model"
)

// OrderIntentRepository keeps short-lived order metadata between create and verify.
type OrderIntentRepository interface {
	Save(ctx context.Context, in *model.OrderIntent) error
	// Find returns domain.ErrNotFound once the intent has expired.
	Find(ctx context.Context, orderID string) (*model.OrderIntent, error)
}

package adapter

import (
	"context"

	"sitfit-api/internal/domain/model"
)

// IdentityVerifier turns a bearer token into a caller identity.
// Any failure is reported as domain.ErrUnauthenticated.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*model.Identity, error)
}

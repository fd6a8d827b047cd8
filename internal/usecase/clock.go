package usecase

import (
	"errors"
	"fmt"
	"time"

	"sitfit-api/internal/domain"
)

// Clock lets tests move time; production passes nil and gets time.Now.
type Clock func() time.Time

func clockOrNow(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}

// ledgerErr maps storage failures to ErrLedgerUnavailable and lets domain outcomes through.
func ledgerErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrInsufficientCredits),
		errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrLedgerUnavailable):
		return err
	default:
		return fmt.Errorf("%w: %v", domain.ErrLedgerUnavailable, err)
	}
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

func ptr[T any](v T) *T { return &v }

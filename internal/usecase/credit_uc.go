// File: internal/usecase/credit_uc.go
package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"sitfit-api/internal/domain"
	"sitfit-api/internal/domain/model"
	"sitfit-api/internal/domain/ports/repository"
	"sitfit-api/internal/infra/logging"
	"sitfit-api/internal/infra/metrics"
)

var _ CreditUseCase = (*creditUC)(nil)

type CreditUseCase interface {
	// GetOrInit returns the caller's ledger, creating it on first use and applying
	// any pending downgrade or monthly rollover.
	GetOrInit(ctx context.Context, userID string) (*model.UserCredits, error)
	// Deduct spends one credit. Premium users only have usage counted.
	Deduct(ctx context.Context, userID string) (*model.UserCredits, error)
	// Upgrade grants premium for the plan period. When receipt is set it is stored
	// in the same write and the period starts at its date. Only the payment
	// workflow calls this.
	Upgrade(ctx context.Context, tx repository.Tx, userID string, plan model.Plan, receipt *model.PaymentRecord) error
	CheckActive(ctx context.Context, userID string) (bool, error)
	PaymentHistory(ctx context.Context, userID string) ([]*model.PaymentRecord, error)
}

type creditUC struct {
	credits repository.CreditRepository
	tm      repository.TransactionManager
	log     *zerolog.Logger
	now     Clock
}

func NewCreditUseCase(credits repository.CreditRepository, tm repository.TransactionManager, logger *zerolog.Logger, now Clock) *creditUC {
	return &creditUC{credits: credits, tm: tm, log: logger, now: clockOrNow(now)}
}

func (u *creditUC) GetOrInit(ctx context.Context, userID string) (*model.UserCredits, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := u.now()

	var (
		out   *model.UserCredits
		event ledgerEvent
	)
	err := u.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		c, upd, ev, err := u.load(ctx, tx, userID, now)
		if err != nil {
			return err
		}
		if !upd.Empty() {
			if err := u.credits.Apply(ctx, tx, userID, upd); err != nil {
				return err
			}
		}
		out, event = c, ev
		return nil
	})
	if err != nil {
		metrics.IncLedgerOp("init", "unavailable")
		logging.With(ctx, u.log).Error().Err(err).Msg("ledger read failed")
		return nil, ledgerErr(err)
	}
	u.report(ctx, event)
	return out, nil
}

func (u *creditUC) Deduct(ctx context.Context, userID string) (*model.UserCredits, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := u.now()

	var (
		out          *model.UserCredits
		event        ledgerEvent
		insufficient bool
	)
	err := u.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		insufficient = false
		c, upd, ev, err := u.load(ctx, tx, userID, now)
		if err != nil {
			return err
		}
		event = ev

		switch {
		case c.IsUnlimited():
			upd.TotalUsedDelta++
			c.TotalUsed++
		case c.Credits <= 0:
			// persist any rollover bookkeeping but spend nothing
			insufficient = true
		default:
			if upd.Credits != nil {
				upd.Credits = ptr(*upd.Credits - 1)
			} else {
				upd.CreditsDelta--
			}
			upd.TotalUsedDelta++
			c.Credits--
			c.TotalUsed++
		}

		if !upd.Empty() {
			if err := u.credits.Apply(ctx, tx, userID, upd); err != nil {
				return err
			}
		}
		out = c
		return nil
	})
	l := logging.With(ctx, u.log)
	if err != nil {
		metrics.IncLedgerOp("deduct", "unavailable")
		l.Error().Err(err).Msg("credit deduction failed")
		return nil, ledgerErr(err)
	}
	u.report(ctx, event)
	if insufficient {
		metrics.IncLedgerOp("deduct", "insufficient")
		l.Debug().Msg("deduction refused: no credits left")
		return out, domain.ErrInsufficientCredits
	}
	metrics.IncLedgerOp("deduct", "ok")
	l.Debug().Int64("credits", out.Credits).Int64("total_used", out.TotalUsed).Msg("credit deducted")
	return out, nil
}

func (u *creditUC) Upgrade(ctx context.Context, tx repository.Tx, userID string, plan model.Plan, receipt *model.PaymentRecord) error {
	if userID == "" {
		return domain.ErrInvalidArgument
	}
	if _, err := model.ParsePlan(string(plan)); err != nil {
		return err
	}
	now := u.now()
	if receipt != nil && !receipt.Date.IsZero() {
		now = receipt.Date
	}
	end := plan.EndDate(now)

	upd := repository.CreditUpdate{
		Credits:          ptr(model.UnlimitedCredits),
		IsPremium:        ptr(true),
		SubscriptionType: ptr(model.SubscriptionPremium),
		SubscriptionEnd:  &end,
		LastResetDate:    &now,
		Payment:          receipt,
	}
	// Runs inside the caller's transaction, so outcomes are reported by the caller.
	return ledgerErr(u.credits.Apply(ctx, tx, userID, upd))
}

func (u *creditUC) CheckActive(ctx context.Context, userID string) (bool, error) {
	c, err := u.GetOrInit(ctx, userID)
	if err != nil {
		return false, err
	}
	metrics.IncLedgerOp("check", "ok")
	return c.Active(u.now()), nil
}

func (u *creditUC) PaymentHistory(ctx context.Context, userID string) ([]*model.PaymentRecord, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	out, err := u.credits.ListPayments(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return []*model.PaymentRecord{}, nil
		}
		return nil, ledgerErr(err)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// ledgerEvent is the bookkeeping a read triggered.
type ledgerEvent int

const (
	eventNone ledgerEvent = iota
	eventCreated
	eventDowngraded
	eventRolledOver
)

// report emits metrics and logs for event. Call it only after the transaction
// committed, since WithTx may run its callback more than once.
func (u *creditUC) report(ctx context.Context, event ledgerEvent) {
	switch event {
	case eventCreated:
		metrics.IncLedgerOp("init", "created")
	case eventDowngraded:
		metrics.IncDowngrade()
		logging.With(ctx, u.log).Info().Msg("premium expired; downgraded to free")
	case eventRolledOver:
		metrics.IncRollover()
	}
}

// load reads the record inside tx. The returned update carries whatever the read
// implies (creation, expiry downgrade, monthly rollover) and is already mirrored
// onto the returned record.
func (u *creditUC) load(ctx context.Context, tx repository.Tx, userID string, now time.Time) (*model.UserCredits, repository.CreditUpdate, ledgerEvent, error) {
	var upd repository.CreditUpdate

	c, err := u.credits.Find(ctx, tx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		fresh, err := model.NewUserCredits(userID, now)
		if err != nil {
			return nil, upd, eventNone, err
		}
		upd = repository.CreditUpdate{
			Credits:          ptr(fresh.Credits),
			TotalUsed:        ptr(fresh.TotalUsed),
			IsPremium:        ptr(fresh.IsPremium),
			SubscriptionType: ptr(fresh.SubscriptionType),
			LastResetDate:    ptr(fresh.LastResetDate),
		}
		return fresh, upd, eventCreated, nil
	}
	if err != nil {
		return nil, upd, eventNone, err
	}

	if c.Expired(now) {
		upd.Credits = ptr(model.FreeAllotment)
		upd.IsPremium = ptr(false)
		upd.SubscriptionType = ptr(model.SubscriptionFree)
		upd.ClearSubscriptionEnd = true
		upd.LastResetDate = ptr(now)
		upd.ApplyTo(c)
		return c, upd, eventDowngraded, nil
	}

	if c.RolloverDue(now) {
		upd.Credits = ptr(model.FreeAllotment)
		upd.LastResetDate = ptr(now)
		upd.ApplyTo(c)
		return c, upd, eventRolledOver, nil
	}
	return c, upd, eventNone, nil
}

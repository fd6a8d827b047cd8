package repository

import (
	"context"
	"time"

	"sitfit-api/internal/domain/model"
)

// CreditUpdate is a field-level change to a ledger record. Nil pointers leave
// the stored value untouched; deltas are applied as increments. The zero value
// is a no-op.
type CreditUpdate struct {
	Credits              *int64
	CreditsDelta         int64
	TotalUsed            *int64
	TotalUsedDelta       int64
	IsPremium            *bool
	SubscriptionType     *model.SubscriptionType
	SubscriptionEnd      *time.Time
	ClearSubscriptionEnd bool
	LastResetDate        *time.Time

	// Payment is written in the same operation, keyed by its PaymentID.
	Payment *model.PaymentRecord
}

// Empty reports whether applying u would change nothing.
func (u CreditUpdate) Empty() bool {
	return u.Credits == nil && u.CreditsDelta == 0 && u.TotalUsed == nil && u.TotalUsedDelta == 0 &&
		u.IsPremium == nil && u.SubscriptionType == nil && u.SubscriptionEnd == nil &&
		!u.ClearSubscriptionEnd && u.LastResetDate == nil && u.Payment == nil
}

// ApplyTo mirrors the update onto an in-memory record.
func (u CreditUpdate) ApplyTo(c *model.UserCredits) {
	if u.Credits != nil {
		c.Credits = *u.Credits
	}
	c.Credits += u.CreditsDelta
	if u.TotalUsed != nil {
		c.TotalUsed = *u.TotalUsed
	}
	c.TotalUsed += u.TotalUsedDelta
	if u.IsPremium != nil {
		c.IsPremium = *u.IsPremium
	}
	if u.SubscriptionType != nil {
		c.SubscriptionType = *u.SubscriptionType
	}
	if u.ClearSubscriptionEnd {
		c.SubscriptionEndDate = nil
	}
	if u.SubscriptionEnd != nil {
		end := *u.SubscriptionEnd
		c.SubscriptionEndDate = &end
	}
	if u.LastResetDate != nil {
		c.LastResetDate = *u.LastResetDate
	}
}

// CreditRepository stores ledger records and the payment history kept with them.
type CreditRepository interface {
	// Find returns domain.ErrNotFound when the user has no record yet.
	Find(ctx context.Context, tx Tx, userID string) (*model.UserCredits, error)
	// Apply creates the record if missing and merges u into it.
	Apply(ctx context.Context, tx Tx, userID string, u CreditUpdate) error
	FindPayment(ctx context.Context, tx Tx, userID, paymentID string) (*model.PaymentRecord, error)
	ListPayments(ctx context.Context, tx Tx, userID string) ([]*model.PaymentRecord, error)
}

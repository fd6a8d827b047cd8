package model

import (
	"time"

	"sitfit-api/internal/domain"
)

type SubscriptionType string

const (
	SubscriptionFree    SubscriptionType = "free"
	SubscriptionPremium SubscriptionType = "premium"
)

const (
	// FreeAllotment is the number of try-on credits a free user gets per rollover period.
	FreeAllotment int64 = 2
	// UnlimitedCredits is the balance written for premium users. Read it through IsUnlimited.
	UnlimitedCredits int64 = 999999

	RolloverPeriod = 30 * 24 * time.Hour
)

// UserCredits is the per-user ledger record.
type UserCredits struct {
	UserID              string
	Credits             int64
	IsPremium           bool
	SubscriptionType    SubscriptionType
	SubscriptionEndDate *time.Time // set only while premium
	LastResetDate       time.Time
	TotalUsed           int64
}

// NewUserCredits returns the record a first-time user starts with.
func NewUserCredits(userID string, now time.Time) (*UserCredits, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &UserCredits{
		UserID:           userID,
		Credits:          FreeAllotment,
		IsPremium:        false,
		SubscriptionType: SubscriptionFree,
		LastResetDate:    now,
		TotalUsed:        0,
	}, nil
}

// IsUnlimited reports whether usage is metered for this record.
func (c *UserCredits) IsUnlimited() bool {
	return c.IsPremium || c.Credits >= UnlimitedCredits
}

// CanSpend reports whether one more generation is allowed right now.
func (c *UserCredits) CanSpend() bool {
	return c.IsUnlimited() || c.Credits > 0
}

// Expired reports whether a premium subscription has lapsed.
// A premium record without an end date is treated as active.
func (c *UserCredits) Expired(now time.Time) bool {
	if !c.IsPremium || c.SubscriptionEndDate == nil {
		return false
	}
	return now.After(*c.SubscriptionEndDate)
}

// RolloverDue reports whether the free allotment should be restored.
func (c *UserCredits) RolloverDue(now time.Time) bool {
	if c.IsPremium {
		return false
	}
	return now.Sub(c.LastResetDate) >= RolloverPeriod
}

// Active reports whether the premium subscription is in effect at now.
func (c *UserCredits) Active(now time.Time) bool {
	return c.IsPremium && !c.Expired(now)
}

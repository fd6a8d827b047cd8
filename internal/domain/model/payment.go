package model

import (
	"time"

	"sitfit-api/internal/domain"
)

type Plan string

const (
	PlanMonthly Plan = "monthly"
	PlanYearly  Plan = "yearly"
)

func ParsePlan(s string) (Plan, error) {
	switch Plan(s) {
	case PlanMonthly, PlanYearly:
		return Plan(s), nil
	default:
		return "", domain.ErrInvalidArgument
	}
}

// EndDate returns the subscription end for a plan bought at from.
// Calendar arithmetic, so a monthly plan bought on Jan 31 ends on Mar 3 (or Mar 2 in leap years).
func (p Plan) EndDate(from time.Time) time.Time {
	if p == PlanYearly {
		return from.AddDate(1, 0, 0)
	}
	return from.AddDate(0, 1, 0)
}

type PaymentStatus string

const PaymentStatusSuccess PaymentStatus = "success"

// PaymentRecord is kept under the user's ledger, keyed by the provider payment id.
type PaymentRecord struct {
	OrderID   string
	PaymentID string
	Plan      Plan
	Amount    int64 // major units
	Currency  string
	Date      time.Time
	Status    PaymentStatus
}

// Order is what the provider hands back when an order is created.
type Order struct {
	ID          string
	AmountMinor int64
	Currency    string
	Receipt     string
	Status      string
	KeyID       string
}

// OrderIntent remembers who created an order and for which plan.
type OrderIntent struct {
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	Plan      Plan      `json:"plan"`
	Amount    int64     `json:"amount"`
	Receipt   string    `json:"receipt"`
	CreatedAt time.Time `json:"created_at"`
}

// File: internal/usecase/payment_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"sitfit-api/internal/domain"
	"sitfit-api/internal/domain/model"
	"sitfit-api/internal/domain/ports/adapter"
	"sitfit-api/internal/domain/ports/repository"
	"sitfit-api/internal/infra/logging"
	"sitfit-api/internal/infra/metrics"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

type PaymentUseCase interface {
	// CreateOrder checks amount against the plan price and opens a provider order.
	CreateOrder(ctx context.Context, userID string, plan model.Plan, amount int64) (*model.Order, error)
	// VerifyAndUpgrade checks the checkout signature and the paid order, then,
	// once per payment id, grants premium for the plan that was paid for.
	VerifyAndUpgrade(ctx context.Context, in VerifyInput) (*VerifyResult, error)
}

type VerifyInput struct {
	UserID    string
	OrderID   string
	PaymentID string
	Signature string
	Plan      model.Plan
}

type VerifyResult struct {
	PaymentID string
	Plan      model.Plan
	Duplicate bool
}

type PaymentSettings struct {
	Currency string
	Prices   map[model.Plan]int64 // major units
	Dev      bool
}

const (
	receiptMaxLen     = 40
	receiptUserPrefix = 20
	receiptTSDigits   = 8
	minorUnitFactor   = 100
)

type paymentUC struct {
	gateway  adapter.PaymentGateway
	verifier adapter.SignatureVerifier
	credits  CreditUseCase
	ledger   repository.CreditRepository
	intents  repository.OrderIntentRepository // optional
	tm       repository.TransactionManager
	settings PaymentSettings
	log      *zerolog.Logger
	now      Clock
}

func NewPaymentUseCase(
	gateway adapter.PaymentGateway,
	verifier adapter.SignatureVerifier,
	credits CreditUseCase,
	ledger repository.CreditRepository,
	intents repository.OrderIntentRepository,
	tm repository.TransactionManager,
	settings PaymentSettings,
	logger *zerolog.Logger,
	now Clock,
) *paymentUC {
	if settings.Currency == "" {
		settings.Currency = "INR"
	}
	return &paymentUC{
		gateway:  gateway,
		verifier: verifier,
		credits:  credits,
		ledger:   ledger,
		intents:  intents,
		tm:       tm,
		settings: settings,
		log:      logger,
		now:      clockOrNow(now),
	}
}

func (u *paymentUC) CreateOrder(ctx context.Context, userID string, plan model.Plan, amount int64) (*model.Order, error) {
	l := logging.With(ctx, u.log)
	if strings.TrimSpace(userID) == "" || amount <= 0 {
		metrics.IncPaymentOrder(string(plan), "rejected")
		return nil, domain.ErrInvalidArgument
	}
	if _, err := model.ParsePlan(string(plan)); err != nil {
		metrics.IncPaymentOrder("invalid", "rejected")
		return nil, err
	}
	price, ok := u.settings.Prices[plan]
	if !ok || price <= 0 {
		return nil, fmt.Errorf("no price configured for plan %q: %w", plan, domain.ErrInvalidArgument)
	}
	if amount != price {
		metrics.IncPaymentOrder(string(plan), "rejected")
		l.Warn().Str("plan", string(plan)).Int64("amount", amount).Int64("price", price).Msg("order amount mismatch")
		return nil, domain.ErrOrderAmountMismatch
	}

	now := u.now()
	receipt := BuildReceipt(userID, now)
	po, err := u.gateway.CreateOrder(ctx, adapter.OrderRequest{
		AmountMinor: price * minorUnitFactor,
		Currency:    u.settings.Currency,
		Receipt:     receipt,
		Notes:       map[string]string{"userId": userID, "plan": string(plan)},
	})
	if err != nil {
		metrics.IncPaymentOrder(string(plan), "provider_error")
		l.Error().Err(err).Str("provider", u.gateway.Name()).Msg("create order failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrPaymentProvider, err)
	}

	if u.intents != nil {
		in := &model.OrderIntent{OrderID: po.ID, UserID: userID, Plan: plan, Amount: price, Receipt: receipt, CreatedAt: now}
		if err := u.intents.Save(ctx, in); err != nil {
			l.Warn().Err(err).Str("order_id", po.ID).Msg("order intent not stored; verification will rely on signature only")
		}
	}

	metrics.IncPaymentOrder(string(plan), "created")
	l.Info().Str("order_id", po.ID).Str("plan", string(plan)).Str("receipt", receipt).Msg("order created")
	return &model.Order{
		ID:          po.ID,
		AmountMinor: po.AmountMinor,
		Currency:    po.Currency,
		Receipt:     po.Receipt,
		Status:      po.Status,
		KeyID:       u.gateway.KeyID(),
	}, nil
}

func (u *paymentUC) VerifyAndUpgrade(ctx context.Context, in VerifyInput) (*VerifyResult, error) {
	start := time.Now()
	l := logging.With(ctx, u.log)
	fail := func(reason string, err error) (*VerifyResult, error) {
		metrics.ObservePaymentVerify("fail", reason, time.Since(start).Seconds())
		return nil, err
	}

	if in.UserID == "" || in.OrderID == "" || in.PaymentID == "" || in.Signature == "" {
		return fail("bad_request", domain.ErrInvalidArgument)
	}
	if _, err := model.ParsePlan(string(in.Plan)); err != nil {
		return fail("bad_request", err)
	}

	if !u.verifier.Verify(in.OrderID, in.PaymentID, in.Signature) {
		l.Warn().
			Str("order_id", in.OrderID).
			Str("payment_id", logging.Redact(in.PaymentID, u.settings.Dev)).
			Msg("payment signature mismatch")
		return fail("bad_signature", domain.ErrInvalidPaymentSignature)
	}

	paid, reason, err := u.resolvePaidOrder(ctx, in)
	if err != nil {
		return fail(reason, err)
	}

	now := u.now()
	record := &model.PaymentRecord{
		OrderID:   in.OrderID,
		PaymentID: in.PaymentID,
		Plan:      paid.Plan,
		Amount:    paid.Amount,
		Currency:  u.settings.Currency,
		Date:      now,
		Status:    model.PaymentStatusSuccess,
	}

	var duplicate bool
	err = u.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		duplicate = false
		// Locks the user's ledger row so concurrent verifications of one payment
		// see each other's write.
		if _, err := u.ledger.Find(ctx, tx, in.UserID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		existing, err := u.ledger.FindPayment(ctx, tx, in.UserID, in.PaymentID)
		if err == nil && existing != nil {
			duplicate = true
			return nil
		}
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return u.credits.Upgrade(ctx, tx, in.UserID, paid.Plan, record)
	})
	if err != nil {
		metrics.IncLedgerOp("upgrade", "unavailable")
		l.Error().Err(err).Str("order_id", in.OrderID).Msg("verified payment could not be applied")
		return fail("ledger_unavailable", ledgerErr(err))
	}

	if duplicate {
		metrics.ObservePaymentVerify("ok", "duplicate", time.Since(start).Seconds())
		l.Info().Str("order_id", in.OrderID).Msg("payment already applied")
		return &VerifyResult{PaymentID: in.PaymentID, Plan: paid.Plan, Duplicate: true}, nil
	}

	metrics.IncLedgerOp("upgrade", "ok")
	metrics.ObservePaymentVerify("ok", "upgraded", time.Since(start).Seconds())
	metrics.AddPaymentRevenue(record.Currency, record.Amount)
	l.Info().
		Str("order_id", in.OrderID).
		Str("plan", string(paid.Plan)).
		Time("ends_at", paid.Plan.EndDate(now)).
		Msg("payment verified; premium granted")
	return &VerifyResult{PaymentID: in.PaymentID, Plan: paid.Plan}, nil
}

type paidOrder struct {
	Plan   model.Plan
	Amount int64 // major units
}

// resolvePaidOrder resolves what was actually bought under in.OrderID: from the order
// intent when one is stored, otherwise from the provider's copy of the order.
// The client's plan must agree with it. The returned string is the metric reason.
func (u *paymentUC) resolvePaidOrder(ctx context.Context, in VerifyInput) (*paidOrder, string, error) {
	l := logging.With(ctx, u.log)

	if u.intents != nil {
		intent, err := u.intents.Find(ctx, in.OrderID)
		switch {
		case err == nil:
			if intent.UserID != in.UserID || intent.Plan != in.Plan {
				l.Warn().Str("order_id", in.OrderID).Str("plan", string(in.Plan)).Msg("order intent mismatch")
				return nil, "intent_mismatch", domain.ErrOrderIntentMismatch
			}
			amount := intent.Amount
			if amount <= 0 {
				amount = u.settings.Prices[intent.Plan]
			}
			return &paidOrder{Plan: intent.Plan, Amount: amount}, "", nil
		case errors.Is(err, domain.ErrNotFound):
			l.Debug().Str("order_id", in.OrderID).Msg("no order intent; reading the order from the provider")
		default:
			l.Warn().Err(err).Str("order_id", in.OrderID).Msg("order intent lookup failed; reading the order from the provider")
		}
	}

	po, err := u.gateway.FetchOrder(ctx, in.OrderID)
	if errors.Is(err, domain.ErrNotFound) {
		l.Warn().Str("order_id", in.OrderID).Msg("order unknown to the provider")
		return nil, "unknown_order", domain.ErrOrderIntentMismatch
	}
	if err != nil {
		l.Error().Err(err).Str("provider", u.gateway.Name()).Str("order_id", in.OrderID).Msg("fetch order failed")
		return nil, "provider_error", fmt.Errorf("%w: %v", domain.ErrPaymentProvider, err)
	}

	plan := model.Plan(po.Notes["plan"])
	if po.Notes["userId"] != in.UserID || plan != in.Plan {
		l.Warn().
			Str("order_id", in.OrderID).
			Str("plan", string(in.Plan)).
			Str("order_plan", string(plan)).
			Msg("order does not match the verification request")
		return nil, "intent_mismatch", domain.ErrOrderIntentMismatch
	}
	price := u.settings.Prices[plan]
	if price <= 0 || po.AmountMinor != price*minorUnitFactor || !strings.EqualFold(po.Currency, u.settings.Currency) {
		l.Warn().
			Str("order_id", in.OrderID).
			Int64("amount_minor", po.AmountMinor).
			Str("currency", po.Currency).
			Msg("order amount does not match the plan price")
		return nil, "amount_mismatch", domain.ErrOrderAmountMismatch
	}
	return &paidOrder{Plan: plan, Amount: price}, "", nil
}

// BuildReceipt returns "rcpt_<first 20 of user id>_<last 8 digits of unix millis>",
// never longer than 40 characters.
func BuildReceipt(userID string, now time.Time) string {
	uid := []rune(userID)
	if len(uid) > receiptUserPrefix {
		uid = uid[:receiptUserPrefix]
	}
	ts := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ts) > receiptTSDigits {
		ts = ts[len(ts)-receiptTSDigits:]
	}
	r := []rune("rcpt_" + string(uid) + "_" + ts)
	if len(r) > receiptMaxLen {
		r = r[:receiptMaxLen]
	}
	return string(r)
}

//go:build integration

package firestore

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"

	"sitfit-api/internal/domain"
	"sitfit-api/internal/domain/model"
	"sitfit-api/internal/domain/ports/repository"
)

// Runs against the Firestore emulator, e.g.
// gcloud emulators firestore start --host-port=localhost:8081
func newEmulatorClient(t *testing.T) *firestore.Client {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	c, err := firestore.NewClient(context.Background(), "sitfit-test")
	if err != nil {
		t.Fatalf("emulator client: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCreditRepo_Emulator(t *testing.T) {
	ctx := context.Background()
	client := newEmulatorClient(t)
	repo := NewCreditRepo(client)
	tm := NewTxManager(client)
	uid := "emu-" + time.Now().Format("150405.000000")
	now := time.Now().UTC().Truncate(time.Millisecond)

	if _, err := repo.Find(ctx, nil, uid); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	err := tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if _, err := repo.Find(ctx, tx, uid); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return repo.Apply(ctx, tx, uid, repository.CreditUpdate{
			Credits: ptr(model.FreeAllotment - 1), TotalUsed: ptr(int64(1)), IsPremium: ptr(false),
			SubscriptionType: ptr(model.SubscriptionFree), LastResetDate: &now,
		})
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	end := now.AddDate(0, 1, 0)
	err = tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return repo.Apply(ctx, tx, uid, repository.CreditUpdate{
			Credits: ptr(model.UnlimitedCredits), IsPremium: ptr(true), SubscriptionType: ptr(model.SubscriptionPremium),
			SubscriptionEnd: &end, LastResetDate: &now,
			Payment: &model.PaymentRecord{PaymentID: "pay_1", OrderID: "order_1", Plan: model.PlanMonthly, Amount: 299, Currency: "INR", Date: now, Status: model.PaymentStatusSuccess},
		})
	})
	if err != nil {
		t.Fatalf("upgrade: %v", err)
	}

	c, err := repo.Find(ctx, nil, uid)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !c.IsPremium || c.TotalUsed != 1 || c.SubscriptionEndDate == nil {
		t.Errorf("unexpected record: %+v", c)
	}
	if p, err := repo.FindPayment(ctx, nil, uid, "pay_1"); err != nil || p.Amount != 299 {
		t.Errorf("unexpected payment: %+v %v", p, err)
	}
}

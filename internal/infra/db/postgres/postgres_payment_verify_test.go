//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"sitfit-api/internal/domain/model"
	"sitfit-api/internal/infra/adapters/payment"
	"sitfit-api/internal/infra/security"
	"sitfit-api/internal/usecase"
)

func TestVerifyAndUpgrade_ConcurrentDuplicates(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	cleanup(t)

	// --- Arrange ---
	ctx := context.Background()
	logger := zerolog.Nop()
	repo := NewCreditRepo(testPool)
	tm := NewTxManager(testPool)
	signer, err := security.NewPaymentSigner("pg_test_secret")
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	gateway := payment.NewNoopPaymentGateway()

	var (
		clockMu sync.Mutex
		tick    = time.Now().UTC().Truncate(time.Microsecond)
	)
	// Every caller sees a later instant, so a second upgrade would move the end date.
	clock := func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		tick = tick.Add(time.Second)
		return tick
	}
	credits := usecase.NewCreditUseCase(repo, tm, &logger, clock)
	uc := usecase.NewPaymentUseCase(gateway, signer, credits, repo, nil, tm,
		usecase.PaymentSettings{Currency: "INR", Prices: map[model.Plan]int64{model.PlanMonthly: 299, model.PlanYearly: 2999}},
		&logger, clock)

	order, err := uc.CreateOrder(ctx, "u-race", model.PlanMonthly, 299)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	in := usecase.VerifyInput{
		UserID:    "u-race",
		OrderID:   order.ID,
		PaymentID: "pay_race",
		Signature: signer.Sign(order.ID, "pay_race"),
		Plan:      model.PlanMonthly,
	}

	// --- Act ---
	const workers = 6
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		upgrades int
		errs     []error
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			res, err := uc.VerifyAndUpgrade(ctx, in)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			if !res.Duplicate {
				upgrades++
			}
		}()
	}
	close(start)
	wg.Wait()

	// --- Assert ---
	if len(errs) != 0 {
		t.Fatalf("expected every verification to succeed, got %v", errs)
	}
	if upgrades != 1 {
		t.Fatalf("expected exactly one non-duplicate verification, got %d", upgrades)
	}
	payments, err := repo.ListPayments(ctx, nil, "u-race")
	if err != nil || len(payments) != 1 {
		t.Fatalf("expected one payment record, got %d (%v)", len(payments), err)
	}
	c, err := repo.Find(ctx, nil, "u-race")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	want := model.PlanMonthly.EndDate(payments[0].Date)
	if c.SubscriptionEndDate == nil || !c.SubscriptionEndDate.Equal(want) {
		t.Errorf("expected the end date of the applied payment %v, got %v", want, c.SubscriptionEndDate)
	}
}

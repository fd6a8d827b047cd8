//go:build !integration

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestLabelsAreNormalized(t *testing.T) {
	before := testutil.ToFloat64(ledgerOps.WithLabelValues("deduct", "ok"))
	IncLedgerOp(" Deduct ", "OK")
	if got := testutil.ToFloat64(ledgerOps.WithLabelValues("deduct", "ok")); got != before+1 {
		t.Errorf("expected normalized labels to hit the same series, got %v -> %v", before, got)
	}
}

func TestObservePaymentVerify(t *testing.T) {
	before := testutil.ToFloat64(PaymentVerifyRequests.WithLabelValues("fail", "bad_signature"))
	ObservePaymentVerify("fail", "bad_signature", 0.01)
	if got := testutil.ToFloat64(PaymentVerifyRequests.WithLabelValues("fail", "bad_signature")); got != before+1 {
		t.Errorf("expected verify counter to increase by one, got %v -> %v", before, got)
	}
}

func TestMustRegister_Idempotent(t *testing.T) {
	MustRegister()
	MustRegister()
}

func TestSetDBPoolStats(t *testing.T) {
	SetDBPoolStats(10, 6, 4)
	if got := testutil.ToFloat64(dbPoolConns.WithLabelValues("in_use")); got != 4 {
		t.Errorf("expected 4 in-use connections, got %v", got)
	}
}

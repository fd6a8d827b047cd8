package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		ledgerOps,
		ledgerRollovers,
		ledgerDowngrades,
	)
}

var (
	// op: init|deduct|upgrade|check
	// result: ok|created|insufficient|unavailable
	ledgerOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credit_ledger_operations_total",
			Help: "Credit ledger operations by op and result.",
		},
		[]string{"op", "result"},
	)

	ledgerRollovers = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "credit_ledger_rollovers_total",
			Help: "Monthly free-credit resets applied on read.",
		},
	)

	ledgerDowngrades = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "credit_ledger_downgrades_total",
			Help: "Expired premium subscriptions downgraded on read.",
		},
	)
)

func IncLedgerOp(op, result string) {
	ledgerOps.WithLabelValues(norm(op), norm(result)).Inc()
}

func IncRollover() { ledgerRollovers.Inc() }

func IncDowngrade() { ledgerDowngrades.Inc() }

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

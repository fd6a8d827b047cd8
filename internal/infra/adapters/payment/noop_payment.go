package payment

import (
	"context"
	"fmt"
	"sync"

	"sitfit-api/internal/domain"
	"sitfit-api/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopPaymentGateway)(nil)

// NoopPaymentGateway hands out sequential order ids without a network call.
// Used in dev mode and API tests; signatures are still checked with the configured secret.
type NoopPaymentGateway struct {
	mu     sync.Mutex
	seq    int64
	orders map[string]adapter.OrderRequest
}

func NewNoopPaymentGateway() *NoopPaymentGateway {
	return &NoopPaymentGateway{
		orders: make(map[string]adapter.OrderRequest),
	}
}

func (g *NoopPaymentGateway) Name() string  { return "noop" }
func (g *NoopPaymentGateway) KeyID() string { return "rzp_noop" }

func (g *NoopPaymentGateway) next() string {
	g.seq++
	return fmt.Sprintf("order_noop%d", g.seq)
}

func (g *NoopPaymentGateway) CreateOrder(ctx context.Context, req adapter.OrderRequest) (*adapter.ProviderOrder, error) {
	if req.AmountMinor <= 0 {
		return nil, fmt.Errorf("noop: amount must be positive, got %d", req.AmountMinor)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.next()
	g.orders[id] = req
	return &adapter.ProviderOrder{
		ID:          id,
		AmountMinor: req.AmountMinor,
		Currency:    req.Currency,
		Receipt:     req.Receipt,
		Status:      "created",
		Notes:       req.Notes,
	}, nil
}

func (g *NoopPaymentGateway) FetchOrder(ctx context.Context, orderID string) (*adapter.ProviderOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	req, ok := g.orders[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &adapter.ProviderOrder{
		ID:          orderID,
		AmountMinor: req.AmountMinor,
		Currency:    req.Currency,
		Receipt:     req.Receipt,
		Status:      "paid",
		Notes:       req.Notes,
	}, nil
}

// Order returns what was requested for id, for assertions.
func (g *NoopPaymentGateway) Order(id string) (adapter.OrderRequest, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.orders[id]
	return r, ok
}

package adapter

import "context"

// OrderRequest is sent to the provider in minor currency units.
type OrderRequest struct {
	AmountMinor int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

type ProviderOrder struct {
	ID          string
	AmountMinor int64
	Currency    string
	Receipt     string
	Status      string
	Notes       map[string]string
}

// PaymentGateway is the hex port for payment providers.
type PaymentGateway interface {
	Name() string
	// KeyID is the public key the client checkout needs.
	KeyID() string
	CreateOrder(ctx context.Context, req OrderRequest) (*ProviderOrder, error)
	// FetchOrder returns the order as the provider stored it, notes included.
	// Unknown ids yield domain.ErrNotFound.
	FetchOrder(ctx context.Context, orderID string) (*ProviderOrder, error)
}

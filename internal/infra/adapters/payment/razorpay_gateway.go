// File: internal/infra/adapters/payment/razorpay_gateway.go
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sitfit-api/internal/domain"
	"sitfit-api/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*RazorpayGateway)(nil)

// RazorpayGateway creates and reads orders through the Razorpay REST API (basic
// auth with the key pair). Payment confirmation happens client-side; the server
// checks the returned signature and reads the order back.
type RazorpayGateway struct {
	keyID     string
	keySecret string
	baseURL   string
	client    *http.Client
}

func NewRazorpayGateway(keyID, keySecret, baseURL string) (*RazorpayGateway, error) {
	if keyID == "" || keySecret == "" {
		return nil, errors.New("razorpay key id/secret empty")
	}
	if baseURL == "" {
		baseURL = "https://api.razorpay.com"
	}
	return &RazorpayGateway{
		keyID:     keyID,
		keySecret: keySecret,
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (g *RazorpayGateway) Name() string  { return "razorpay" }
func (g *RazorpayGateway) KeyID() string { return g.keyID }

type razorpayOrder struct {
	ID       string          `json:"id"`
	Amount   int64           `json:"amount"`
	Currency string          `json:"currency"`
	Receipt  string          `json:"receipt"`
	Status   string          `json:"status"`
	Notes    json.RawMessage `json:"notes"`
}

func (o razorpayOrder) toProvider() *adapter.ProviderOrder {
	// Razorpay sends "notes": [] when an order has none.
	var notes map[string]string
	_ = json.Unmarshal(o.Notes, &notes)
	return &adapter.ProviderOrder{
		ID:          o.ID,
		AmountMinor: o.Amount,
		Currency:    o.Currency,
		Receipt:     o.Receipt,
		Status:      o.Status,
		Notes:       notes,
	}
}

// CreateOrder calls POST /v1/orders.
func (g *RazorpayGateway) CreateOrder(ctx context.Context, req adapter.OrderRequest) (*adapter.ProviderOrder, error) {
	payload := map[string]any{
		"amount":   req.AmountMinor,
		"currency": req.Currency,
		"receipt":  req.Receipt,
	}
	if len(req.Notes) > 0 {
		payload["notes"] = req.Notes
	}
	b, _ := json.Marshal(payload)
	var out razorpayOrder
	if err := g.do(ctx, http.MethodPost, "/v1/orders", bytes.NewReader(b), &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, errors.New("razorpay: order id missing in response")
	}
	return out.toProvider(), nil
}

// FetchOrder calls GET /v1/orders/{id}.
func (g *RazorpayGateway) FetchOrder(ctx context.Context, orderID string) (*adapter.ProviderOrder, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, domain.ErrInvalidArgument
	}
	var out razorpayOrder
	if err := g.do(ctx, http.MethodGet, "/v1/orders/"+url.PathEscape(orderID), nil, &out); err != nil {
		return nil, err
	}
	if out.ID != orderID {
		return nil, fmt.Errorf("razorpay: asked for order %q, got %q", orderID, out.ID)
	}
	return out.toProvider(), nil
}

func (g *RazorpayGateway) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	hreq, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return err
	}
	if body != nil {
		hreq.Header.Set("Content-Type", "application/json")
	}
	hreq.SetBasicAuth(g.keyID, g.keySecret)

	resp, err := g.client.Do(hreq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("razorpay: %s: %w", path, domain.ErrNotFound)
	}
	if resp.StatusCode/100 != 2 {
		var e struct {
			Error struct {
				Code        string `json:"code"`
				Description string `json:"description"`
			} `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		if json.Unmarshal(raw, &e) == nil && e.Error.Description != "" {
			if resp.StatusCode == http.StatusBadRequest && strings.Contains(strings.ToLower(e.Error.Description), "does not exist") {
				return fmt.Errorf("razorpay: %s: %w", e.Error.Description, domain.ErrNotFound)
			}
			return fmt.Errorf("razorpay: %d %s: %s", resp.StatusCode, e.Error.Code, e.Error.Description)
		}
		return fmt.Errorf("razorpay: unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"sitfit-api/internal/domain"
	"sitfit-api/internal/domain/model"
	"sitfit-api/internal/domain/ports/adapter"
	"sitfit-api/internal/domain/ports/repository"
)

// -----------------------------
// Utilities: tiny helpers
// -----------------------------

// fakeClock is a settable clock shared by a test and the use cases under test.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// =============================
// Repositories
// =============================

// ---- Mock CreditRepository ----

type MockCreditRepo struct {
	mu       sync.Mutex
	records  map[string]model.UserCredits
	payments map[string]map[string]model.PaymentRecord

	ApplyCalls int

	FindFunc        func(ctx context.Context, tx repository.Tx, userID string) (*model.UserCredits, error)
	ApplyFunc       func(ctx context.Context, tx repository.Tx, userID string, u repository.CreditUpdate) error
	FindPaymentFunc func(ctx context.Context, tx repository.Tx, userID, paymentID string) (*model.PaymentRecord, error)
}

var _ repository.CreditRepository = (*MockCreditRepo)(nil)

func NewMockCreditRepo() *MockCreditRepo {
	return &MockCreditRepo{
		records:  map[string]model.UserCredits{},
		payments: map[string]map[string]model.PaymentRecord{},
	}
}

func (m *MockCreditRepo) Put(c model.UserCredits) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[c.UserID] = c
}

func (m *MockCreditRepo) Snapshot(userID string) (model.UserCredits, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.records[userID]
	return c, ok
}

func (m *MockCreditRepo) PaymentCount(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payments[userID])
}

func (m *MockCreditRepo) Find(ctx context.Context, tx repository.Tx, userID string) (*model.UserCredits, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, tx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.records[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (m *MockCreditRepo) Apply(ctx context.Context, tx repository.Tx, userID string, u repository.CreditUpdate) error {
	if m.ApplyFunc != nil {
		return m.ApplyFunc(ctx, tx, userID, u)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ApplyCalls++
	c := m.records[userID]
	c.UserID = userID
	u.ApplyTo(&c)
	m.records[userID] = c
	if u.Payment != nil {
		if m.payments[userID] == nil {
			m.payments[userID] = map[string]model.PaymentRecord{}
		}
		m.payments[userID][u.Payment.PaymentID] = *u.Payment
	}
	return nil
}

func (m *MockCreditRepo) FindPayment(ctx context.Context, tx repository.Tx, userID, paymentID string) (*model.PaymentRecord, error) {
	if m.FindPaymentFunc != nil {
		return m.FindPaymentFunc(ctx, tx, userID, paymentID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[userID][paymentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (m *MockCreditRepo) ListPayments(ctx context.Context, tx repository.Tx, userID string) ([]*model.PaymentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.PaymentRecord, 0, len(m.payments[userID]))
	for _, p := range m.payments[userID] {
		p := p
		out = append(out, &p)
	}
	return out, nil
}

// ---- Mock TryOnRepository ----

type MockTryOnRepo struct {
	mu   sync.Mutex
	data map[string]model.TryOnResult

	Saved    []model.TryOnResult
	SaveFunc func(ctx context.Context, tx repository.Tx, r *model.TryOnResult) error
}

var _ repository.TryOnRepository = (*MockTryOnRepo)(nil)

func NewMockTryOnRepo() *MockTryOnRepo {
	return &MockTryOnRepo{data: map[string]model.TryOnResult{}}
}

func (m *MockTryOnRepo) Save(ctx context.Context, tx repository.Tx, r *model.TryOnResult) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, r)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[r.ID] = *r
	m.Saved = append(m.Saved, *r)
	return nil
}

func (m *MockTryOnRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.TryOnResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}

func (m *MockTryOnRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.TryOnResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.TryOnResult
	for _, r := range m.data {
		if r.UserID == userID {
			r := r
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ---- Mock StylistRepository ----

type MockStylistRepo struct {
	mu       sync.Mutex
	data     map[string]model.StylistEntry
	Feedback []model.StylistFeedback

	SaveFunc func(ctx context.Context, tx repository.Tx, e *model.StylistEntry) error
	ListArgs []int
}

var _ repository.StylistRepository = (*MockStylistRepo)(nil)

func NewMockStylistRepo() *MockStylistRepo {
	return &MockStylistRepo{data: map[string]model.StylistEntry{}}
}

func (m *MockStylistRepo) Save(ctx context.Context, tx repository.Tx, e *model.StylistEntry) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, e)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[e.ID] = *e
	return nil
}

func (m *MockStylistRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.StylistEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &e, nil
}

func (m *MockStylistRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.StylistEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListArgs = append(m.ListArgs, limit)
	var out []*model.StylistEntry
	for _, e := range m.data {
		if e.UserID == userID {
			e := e
			out = append(out, &e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockStylistRepo) SaveFeedback(ctx context.Context, tx repository.Tx, f *model.StylistFeedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Feedback = append(m.Feedback, *f)
	return nil
}

// ---- Mock OrderIntentRepository ----

type MockIntentRepo struct {
	mu   sync.Mutex
	data map[string]model.OrderIntent

	FindFunc func(ctx context.Context, orderID string) (*model.OrderIntent, error)
}

var _ repository.OrderIntentRepository = (*MockIntentRepo)(nil)

func NewMockIntentRepo() *MockIntentRepo {
	return &MockIntentRepo{data: map[string]model.OrderIntent{}}
}

func (m *MockIntentRepo) Save(ctx context.Context, in *model.OrderIntent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[in.OrderID] = *in
	return nil
}

func (m *MockIntentRepo) Find(ctx context.Context, orderID string) (*model.OrderIntent, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, orderID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.data[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &in, nil
}

// =============================
// Adapters
// =============================

// ---- Mock PaymentGateway ----

type MockGateway struct {
	mu       sync.Mutex
	Requests []adapter.OrderRequest
	orders   map[string]adapter.ProviderOrder

	CreateOrderFunc func(ctx context.Context, req adapter.OrderRequest) (*adapter.ProviderOrder, error)
	FetchOrderFunc  func(ctx context.Context, orderID string) (*adapter.ProviderOrder, error)
}

var _ adapter.PaymentGateway = (*MockGateway)(nil)

func (m *MockGateway) Name() string  { return "mock" }
func (m *MockGateway) KeyID() string { return "rzp_test_key" }

// PutOrder seeds the provider's copy of an order.
func (m *MockGateway) PutOrder(o adapter.ProviderOrder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.orders == nil {
		m.orders = map[string]adapter.ProviderOrder{}
	}
	m.orders[o.ID] = o
}

func (m *MockGateway) CreateOrder(ctx context.Context, req adapter.OrderRequest) (*adapter.ProviderOrder, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	n := len(m.Requests)
	m.mu.Unlock()
	if m.CreateOrderFunc != nil {
		return m.CreateOrderFunc(ctx, req)
	}
	o := adapter.ProviderOrder{
		ID:          "order_" + string(rune('A'+n-1)),
		AmountMinor: req.AmountMinor,
		Currency:    req.Currency,
		Receipt:     req.Receipt,
		Status:      "created",
		Notes:       req.Notes,
	}
	m.PutOrder(o)
	return &o, nil
}

func (m *MockGateway) FetchOrder(ctx context.Context, orderID string) (*adapter.ProviderOrder, error) {
	if m.FetchOrderFunc != nil {
		return m.FetchOrderFunc(ctx, orderID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &o, nil
}

// ---- Mock ImageGenerator ----

type MockGenerator struct {
	mu    sync.Mutex
	Calls int

	GenerateFunc func(ctx context.Context, in model.TryOnInput) (*adapter.GenerationResult, error)
}

var _ adapter.ImageGenerator = (*MockGenerator)(nil)

func (m *MockGenerator) Name() string { return "mock" }

func (m *MockGenerator) Generate(ctx context.Context, in model.TryOnInput) (*adapter.GenerationResult, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, in)
	}
	return &adapter.GenerationResult{ImageURL: "https://cdn.test/result.jpg", RequestID: "job-1"}, nil
}

// ---- Mock ImageProcessor ----

type MockImages struct {
	NormalizeFunc func(data []byte) (model.Image, error)
}

var _ adapter.ImageProcessor = (*MockImages)(nil)

func (m *MockImages) Normalize(data []byte) (model.Image, error) {
	if m.NormalizeFunc != nil {
		return m.NormalizeFunc(data)
	}
	return model.Image{Data: data, ContentType: "image/jpeg"}, nil
}

// ---- Mock StyleAdvisor ----

type MockAdvisor struct {
	name  string
	Calls int

	AdviseFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

var _ adapter.StyleAdvisor = (*MockAdvisor)(nil)

func (m *MockAdvisor) Name() string { return m.name }

func (m *MockAdvisor) Advise(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.Calls++
	if m.AdviseFunc != nil {
		return m.AdviseFunc(ctx, systemPrompt, userPrompt)
	}
	return "wear navy", nil
}

// ---- Mock WeatherProvider ----

type MockWeather struct {
	Calls    int
	LastDays int

	CurrentFunc  func(ctx context.Context, lat, lon float64) (*model.Weather, error)
	ForecastFunc func(ctx context.Context, lat, lon float64, days int) ([]model.DailyForecast, error)
}

var _ adapter.WeatherProvider = (*MockWeather)(nil)

func (m *MockWeather) Name() string { return "mock" }

func (m *MockWeather) Current(ctx context.Context, lat, lon float64) (*model.Weather, error) {
	m.Calls++
	if m.CurrentFunc != nil {
		return m.CurrentFunc(ctx, lat, lon)
	}
	return &model.Weather{Temp: 18, Condition: "Clouds", Humidity: 50}, nil
}

func (m *MockWeather) Forecast(ctx context.Context, lat, lon float64, days int) ([]model.DailyForecast, error) {
	m.Calls++
	m.LastDays = days
	if m.ForecastFunc != nil {
		return m.ForecastFunc(ctx, lat, lon, days)
	}
	out := make([]model.DailyForecast, days)
	for i := range out {
		out[i] = model.DailyForecast{Temp: float64(5 * i), Condition: "Clear"}
	}
	return out, nil
}

// ---- Mock SignatureVerifier ----

type MockVerifier struct {
	Valid map[string]string // order|payment -> signature
}

var _ adapter.SignatureVerifier = (*MockVerifier)(nil)

func (m *MockVerifier) Verify(orderID, paymentID, signature string) bool {
	want, ok := m.Valid[orderID+"|"+paymentID]
	return ok && want == signature
}

// =============================
// Infra helpers for tests
// =============================

// ---- Mock TransactionManager ----

type MockTxManager struct {
	mu sync.Mutex // serializes callbacks the way a row lock would

	WithTxFunc func(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs fn under a mutex. Assign WithTxFunc to simulate store failures.
func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, fn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, nil)
}

var errStoreDown = errors.New("store: connection refused")

// ---- Mock TokenCounter ----

// MockTokens counts one token per whitespace-separated word.
type MockTokens struct {
	Seen []string

	CountFunc func(ctx context.Context, texts ...string) (int, error)
}

var _ adapter.TokenCounter = (*MockTokens)(nil)

func (m *MockTokens) CountTokens(ctx context.Context, texts ...string) (int, error) {
	m.Seen = append(m.Seen, texts...)
	if m.CountFunc != nil {
		return m.CountFunc(ctx, texts...)
	}
	n := 0
	for _, t := range texts {
		n += len(strings.Fields(t))
	}
	return n, nil
}

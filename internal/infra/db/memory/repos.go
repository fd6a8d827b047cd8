package memory

import (
	"context"
	"sort"

	"sitfit-api/internal/domain"
	"sitfit-api/internal/domain/model"
	"sitfit-api/internal/domain/ports/repository"
)

var (
	_ repository.CreditRepository  = (*CreditRepo)(nil)
	_ repository.TryOnRepository   = (*TryOnRepo)(nil)
	_ repository.StylistRepository = (*StylistRepo)(nil)
)

// ---- credits ----

type CreditRepo struct{ s *Store }

func NewCreditRepo(s *Store) *CreditRepo { return &CreditRepo{s: s} }

func (r *CreditRepo) Find(ctx context.Context, tx repository.Tx, userID string) (*model.UserCredits, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.credits[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if c.SubscriptionEndDate != nil {
		end := *c.SubscriptionEndDate
		c.SubscriptionEndDate = &end
	}
	return &c, nil
}

func (r *CreditRepo) Apply(ctx context.Context, tx repository.Tx, userID string, u repository.CreditUpdate) error {
	if userID == "" {
		return domain.ErrInvalidArgument
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.credits[userID]
	if !ok {
		c = model.UserCredits{UserID: userID, SubscriptionType: model.SubscriptionFree}
	}
	u.ApplyTo(&c)
	r.s.credits[userID] = c

	if p := u.Payment; p != nil {
		if r.s.payments[userID] == nil {
			r.s.payments[userID] = map[string]model.PaymentRecord{}
		}
		if _, dup := r.s.payments[userID][p.PaymentID]; !dup {
			r.s.payments[userID][p.PaymentID] = *p
		}
	}
	return nil
}

func (r *CreditRepo) FindPayment(ctx context.Context, tx repository.Tx, userID, paymentID string) (*model.PaymentRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.payments[userID][paymentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r *CreditRepo) ListPayments(ctx context.Context, tx repository.Tx, userID string) ([]*model.PaymentRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*model.PaymentRecord, 0, len(r.s.payments[userID]))
	for _, p := range r.s.payments[userID] {
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// ---- try-on results ----

type TryOnRepo struct{ s *Store }

func NewTryOnRepo(s *Store) *TryOnRepo { return &TryOnRepo{s: s} }

func (r *TryOnRepo) Save(ctx context.Context, tx repository.Tx, t *model.TryOnResult) error {
	if t == nil || t.ID == "" {
		return domain.ErrInvalidArgument
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.tryons[t.ID] = *t
	return nil
}

func (r *TryOnRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.TryOnResult, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tryons[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (r *TryOnRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.TryOnResult, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*model.TryOnResult{}
	for _, t := range r.s.tryons {
		if t.UserID == userID {
			t := t
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ---- stylist ----

type StylistRepo struct{ s *Store }

func NewStylistRepo(s *Store) *StylistRepo { return &StylistRepo{s: s} }

func (r *StylistRepo) Save(ctx context.Context, tx repository.Tx, e *model.StylistEntry) error {
	if e == nil || e.ID == "" {
		return domain.ErrInvalidArgument
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.entries[e.ID] = *e
	return nil
}

func (r *StylistRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.StylistEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	e, ok := r.s.entries[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &e, nil
}

func (r *StylistRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.StylistEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*model.StylistEntry{}
	for _, e := range r.s.entries {
		if e.UserID == userID {
			e := e
			out = append(out, &e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *StylistRepo) SaveFeedback(ctx context.Context, tx repository.Tx, f *model.StylistFeedback) error {
	if f == nil || f.EntryID == "" {
		return domain.ErrInvalidArgument
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.entries[f.EntryID]; !ok {
		return domain.ErrNotFound
	}
	r.s.feedback = append(r.s.feedback, *f)
	return nil
}

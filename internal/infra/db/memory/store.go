// Package memory is an in-process store used in dev mode and by API tests.
// Nothing survives a restart.
package memory

import (
	"context"
	"sync"

	"sitfit-api/internal/domain/model"
	"sitfit-api/internal/domain/ports/repository"
)

var _ repository.TransactionManager = (*Store)(nil)

type Store struct {
	txMu sync.Mutex   // one ledger transaction at a time
	mu   sync.RWMutex // guards the maps below

	credits  map[string]model.UserCredits
	payments map[string]map[string]model.PaymentRecord
	tryons   map[string]model.TryOnResult
	entries  map[string]model.StylistEntry
	feedback []model.StylistFeedback
}

func NewStore() *Store {
	return &Store{
		credits:  map[string]model.UserCredits{},
		payments: map[string]map[string]model.PaymentRecord{},
		tryons:   map[string]model.TryOnResult{},
		entries:  map[string]model.StylistEntry{},
	}
}

type memTx struct{}

// WithTx serializes fn against other transactions and restores the ledger
// if fn fails.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	credits, payments := s.snapshot()
	if err := fn(ctx, &memTx{}); err != nil {
		s.mu.Lock()
		s.credits, s.payments = credits, payments
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) snapshot() (map[string]model.UserCredits, map[string]map[string]model.PaymentRecord) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	credits := make(map[string]model.UserCredits, len(s.credits))
	for k, v := range s.credits {
		credits[k] = v
	}
	payments := make(map[string]map[string]model.PaymentRecord, len(s.payments))
	for uid, m := range s.payments {
		cp := make(map[string]model.PaymentRecord, len(m))
		for k, v := range m {
			cp[k] = v
		}
		payments[uid] = cp
	}
	return credits, payments
}

package repository

import "context"

type Tx interface{}

// TransactionManager runs fn inside one storage transaction and passes the
// backend handle through tx. Repositories detect the handle and lock or
// buffer accordingly; a nil tx means a plain, non-transactional call.
//
// fn may be invoked more than once by backends that retry on contention
// (Firestore), so it must not have side effects outside the store.
type TransactionManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

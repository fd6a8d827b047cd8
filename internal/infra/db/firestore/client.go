// Package firestore keeps the ledger on users/{uid} documents, the layout the
// web and mobile clients already read.
package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"sitfit-api/internal/domain"
	"sitfit-api/internal/domain/ports/repository"
)

const (
	usersCollection    = "users"
	tryOnCollection    = "tryon_results"
	stylistCollection  = "stylist_history"
	feedbackCollection = "feedback"
)

var _ repository.TransactionManager = (*TxManager)(nil)

// NewClient opens Firestore from an initialized Firebase app.
func NewClient(ctx context.Context, app *firebase.App) (*firestore.Client, error) {
	c, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return c, nil
}

// TxManager runs callbacks in a Firestore transaction. Firestore retries the
// callback on contention, up to maxAttempts times.
type TxManager struct {
	client      *firestore.Client
	maxAttempts int
}

func NewTxManager(client *firestore.Client) *TxManager {
	return &TxManager{client: client, maxAttempts: 5}
}

func (m *TxManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	return m.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		return fn(ctx, tx)
	}, firestore.MaxAttempts(m.maxAttempts))
}

func asTx(tx repository.Tx) (*firestore.Transaction, error) {
	switch v := tx.(type) {
	case nil:
		return nil, nil
	case *firestore.Transaction:
		return v, nil
	default:
		return nil, domain.ErrInvalidExecContext
	}
}

func getDoc(ctx context.Context, tx repository.Tx, ref *firestore.DocumentRef) (*firestore.DocumentSnapshot, error) {
	ftx, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	var snap *firestore.DocumentSnapshot
	if ftx != nil {
		snap, err = ftx.Get(ref)
	} else {
		snap, err = ref.Get(ctx)
	}
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, storeErr(err)
	}
	return snap, nil
}

func setDoc(ctx context.Context, tx repository.Tx, ref *firestore.DocumentRef, data interface{}, opts ...firestore.SetOption) error {
	ftx, err := asTx(tx)
	if err != nil {
		return err
	}
	if ftx != nil {
		err = ftx.Set(ref, data, opts...)
	} else {
		_, err = ref.Set(ctx, data, opts...)
	}
	if err != nil {
		return storeErr(err)
	}
	return nil
}

func queryDocs(ctx context.Context, tx repository.Tx, q firestore.Query) ([]*firestore.DocumentSnapshot, error) {
	ftx, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	var it *firestore.DocumentIterator
	if ftx != nil {
		it = ftx.Documents(q)
	} else {
		it = q.Documents(ctx)
	}
	snaps, err := it.GetAll()
	if err != nil {
		return nil, storeErr(err)
	}
	return snaps, nil
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// storeErr keeps the gRPC status in the chain for logs and marks the failure.
func storeErr(err error) error {
	if errors.Is(err, domain.ErrInvalidExecContext) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrOperationFailed, err)
}

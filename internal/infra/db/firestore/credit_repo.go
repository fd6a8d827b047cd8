package firestore

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"

	"sitfit-api/internal/domain"
	"sitfit-api/internal/domain/model"
	"sitfit-api/internal/domain/ports/repository"
)

var _ repository.CreditRepository = (*CreditRepo)(nil)

type creditsDoc struct {
	Credits             int64      `firestore:"credits"`
	IsPremium           bool       `firestore:"isPremium"`
	SubscriptionType    string     `firestore:"subscriptionType"`
	SubscriptionEndDate *time.Time `firestore:"subscriptionEndDate"`
	LastResetDate       time.Time  `firestore:"lastResetDate"`
	TotalUsed           int64      `firestore:"totalUsed"`
}

type paymentDoc struct {
	OrderID   string    `firestore:"orderId"`
	PaymentID string    `firestore:"paymentId"`
	Plan      string    `firestore:"plan"`
	Amount    int64     `firestore:"amount"`
	Currency  string    `firestore:"currency"`
	Date      time.Time `firestore:"date"`
	Status    string    `firestore:"status"`
}

type userDoc struct {
	Credits        *creditsDoc           `firestore:"credits"`
	PaymentHistory map[string]paymentDoc `firestore:"paymentHistory"`
}

type CreditRepo struct {
	client *firestore.Client
}

func NewCreditRepo(client *firestore.Client) *CreditRepo {
	return &CreditRepo{client: client}
}

func (r *CreditRepo) user(userID string) *firestore.DocumentRef {
	return r.client.Collection(usersCollection).Doc(userID)
}

func (r *CreditRepo) load(ctx context.Context, tx repository.Tx, userID string) (*userDoc, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	snap, err := getDoc(ctx, tx, r.user(userID))
	if err != nil {
		return nil, err
	}
	var d userDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return &d, nil
}

func (r *CreditRepo) Find(ctx context.Context, tx repository.Tx, userID string) (*model.UserCredits, error) {
	d, err := r.load(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	// profile documents exist before the ledger does
	if d.Credits == nil {
		return nil, domain.ErrNotFound
	}
	return &model.UserCredits{
		UserID:              userID,
		Credits:             d.Credits.Credits,
		IsPremium:           d.Credits.IsPremium,
		SubscriptionType:    model.SubscriptionType(d.Credits.SubscriptionType),
		SubscriptionEndDate: d.Credits.SubscriptionEndDate,
		LastResetDate:       d.Credits.LastResetDate,
		TotalUsed:           d.Credits.TotalUsed,
	}, nil
}

// Apply writes one merged Set so a transaction holds a single write for the document.
func (r *CreditRepo) Apply(ctx context.Context, tx repository.Tx, userID string, u repository.CreditUpdate) error {
	if userID == "" {
		return domain.ErrInvalidArgument
	}
	return setDoc(ctx, tx, r.user(userID), updateFields(u, time.Now()), firestore.MergeAll)
}

// updateFields turns an update into a MergeAll payload: absolute values as plain
// fields, pure deltas as server-side increments.
func updateFields(u repository.CreditUpdate, now time.Time) map[string]interface{} {
	c := map[string]interface{}{}
	switch {
	case u.Credits != nil:
		c["credits"] = *u.Credits + u.CreditsDelta
	case u.CreditsDelta != 0:
		c["credits"] = firestore.Increment(u.CreditsDelta)
	}
	switch {
	case u.TotalUsed != nil:
		c["totalUsed"] = *u.TotalUsed + u.TotalUsedDelta
	case u.TotalUsedDelta != 0:
		c["totalUsed"] = firestore.Increment(u.TotalUsedDelta)
	}
	if u.IsPremium != nil {
		c["isPremium"] = *u.IsPremium
	}
	if u.SubscriptionType != nil {
		c["subscriptionType"] = string(*u.SubscriptionType)
	}
	switch {
	case u.SubscriptionEnd != nil:
		c["subscriptionEndDate"] = *u.SubscriptionEnd
	case u.ClearSubscriptionEnd:
		c["subscriptionEndDate"] = firestore.Delete
	}
	if u.LastResetDate != nil {
		c["lastResetDate"] = *u.LastResetDate
	}

	out := map[string]interface{}{"updatedAt": now}
	if len(c) > 0 {
		out["credits"] = c
	}
	if p := u.Payment; p != nil {
		out["paymentHistory"] = map[string]interface{}{
			p.PaymentID: paymentDoc{
				OrderID:   p.OrderID,
				PaymentID: p.PaymentID,
				Plan:      string(p.Plan),
				Amount:    p.Amount,
				Currency:  p.Currency,
				Date:      p.Date,
				Status:    string(p.Status),
			},
		}
	}
	return out
}

func (r *CreditRepo) FindPayment(ctx context.Context, tx repository.Tx, userID, paymentID string) (*model.PaymentRecord, error) {
	d, err := r.load(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	p, ok := d.PaymentHistory[paymentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return toPaymentRecord(paymentID, p), nil
}

func (r *CreditRepo) ListPayments(ctx context.Context, tx repository.Tx, userID string) ([]*model.PaymentRecord, error) {
	d, err := r.load(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]*model.PaymentRecord, 0, len(d.PaymentHistory))
	for id, p := range d.PaymentHistory {
		out = append(out, toPaymentRecord(id, p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func toPaymentRecord(key string, p paymentDoc) *model.PaymentRecord {
	id := p.PaymentID
	if id == "" {
		id = key
	}
	return &model.PaymentRecord{
		OrderID:   p.OrderID,
		PaymentID: id,
		Plan:      model.Plan(p.Plan),
		Amount:    p.Amount,
		Currency:  p.Currency,
		Date:      p.Date,
		Status:    model.PaymentStatus(p.Status),
	}
}

package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"sitfit-api/internal/domain"
	"sitfit-api/internal/domain/model"
	"sitfit-api/internal/domain/ports/repository"
)

var (
	_ repository.TryOnRepository   = (*TryOnRepo)(nil)
	_ repository.StylistRepository = (*StylistRepo)(nil)
)

type tryOnDoc struct {
	UserID            string    `firestore:"userId"`
	GarmentType       string    `firestore:"garmentType"`
	GeneratedImageURL string    `firestore:"generatedImageUrl"`
	ProviderRequestID string    `firestore:"requestId"`
	Status            string    `firestore:"status"`
	Message           string    `firestore:"message"`
	CreatedAt         time.Time `firestore:"createdAt"`
	UpdatedAt         time.Time `firestore:"updatedAt"`
}

type TryOnRepo struct{ client *firestore.Client }

func NewTryOnRepo(client *firestore.Client) *TryOnRepo { return &TryOnRepo{client: client} }

func (r *TryOnRepo) Save(ctx context.Context, tx repository.Tx, t *model.TryOnResult) error {
	if t == nil || t.ID == "" {
		return domain.ErrInvalidArgument
	}
	d := tryOnDoc{
		UserID:            t.UserID,
		GarmentType:       string(t.GarmentType),
		GeneratedImageURL: t.GeneratedImageURL,
		ProviderRequestID: t.ProviderRequestID,
		Status:            string(t.Status),
		Message:           t.Message,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
	return setDoc(ctx, tx, r.client.Collection(tryOnCollection).Doc(t.ID), d)
}

func (r *TryOnRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.TryOnResult, error) {
	if id == "" {
		return nil, domain.ErrInvalidArgument
	}
	snap, err := getDoc(ctx, tx, r.client.Collection(tryOnCollection).Doc(id))
	if err != nil {
		return nil, err
	}
	return decodeTryOn(snap)
}

func (r *TryOnRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.TryOnResult, error) {
	q := r.client.Collection(tryOnCollection).
		Where("userId", "==", userID).
		OrderBy("createdAt", firestore.Desc).
		Limit(limit)
	snaps, err := queryDocs(ctx, tx, q)
	if err != nil {
		return nil, err
	}
	out := make([]*model.TryOnResult, 0, len(snaps))
	for _, s := range snaps {
		t, err := decodeTryOn(s)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func decodeTryOn(snap *firestore.DocumentSnapshot) (*model.TryOnResult, error) {
	var d tryOnDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return &model.TryOnResult{
		ID:                snap.Ref.ID,
		UserID:            d.UserID,
		GarmentType:       model.GarmentType(d.GarmentType),
		GeneratedImageURL: d.GeneratedImageURL,
		ProviderRequestID: d.ProviderRequestID,
		Status:            model.TryOnStatus(d.Status),
		Message:           d.Message,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}, nil
}

type stylistDoc struct {
	UserID    string               `firestore:"userId"`
	Query     string               `firestore:"query"`
	Context   model.StylistContext `firestore:"context"`
	Response  string               `firestore:"response"`
	Provider  string               `firestore:"provider"`
	CreatedAt time.Time            `firestore:"createdAt"`
}

type feedbackDoc struct {
	UserID         string    `firestore:"userId"`
	ConversationID string    `firestore:"conversationId"`
	Rating         int       `firestore:"rating"`
	Feedback       string    `firestore:"feedback"`
	CreatedAt      time.Time `firestore:"createdAt"`
}

type StylistRepo struct{ client *firestore.Client }

func NewStylistRepo(client *firestore.Client) *StylistRepo { return &StylistRepo{client: client} }

func (r *StylistRepo) Save(ctx context.Context, tx repository.Tx, e *model.StylistEntry) error {
	if e == nil || e.ID == "" {
		return domain.ErrInvalidArgument
	}
	d := stylistDoc{UserID: e.UserID, Query: e.Query, Context: e.Context, Response: e.Response, Provider: e.Provider, CreatedAt: e.CreatedAt}
	return setDoc(ctx, tx, r.client.Collection(stylistCollection).Doc(e.ID), d)
}

func (r *StylistRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.StylistEntry, error) {
	if id == "" {
		return nil, domain.ErrInvalidArgument
	}
	snap, err := getDoc(ctx, tx, r.client.Collection(stylistCollection).Doc(id))
	if err != nil {
		return nil, err
	}
	return decodeStylist(snap)
}

func (r *StylistRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.StylistEntry, error) {
	q := r.client.Collection(stylistCollection).
		Where("userId", "==", userID).
		OrderBy("createdAt", firestore.Desc).
		Limit(limit)
	snaps, err := queryDocs(ctx, tx, q)
	if err != nil {
		return nil, err
	}
	out := make([]*model.StylistEntry, 0, len(snaps))
	for _, s := range snaps {
		e, err := decodeStylist(s)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *StylistRepo) SaveFeedback(ctx context.Context, tx repository.Tx, f *model.StylistFeedback) error {
	if f == nil || f.ID == "" {
		return domain.ErrInvalidArgument
	}
	d := feedbackDoc{UserID: f.UserID, ConversationID: f.EntryID, Rating: f.Rating, Feedback: f.Comment, CreatedAt: f.CreatedAt}
	return setDoc(ctx, tx, r.client.Collection(feedbackCollection).Doc(f.ID), d)
}

func decodeStylist(snap *firestore.DocumentSnapshot) (*model.StylistEntry, error) {
	var d stylistDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return &model.StylistEntry{
		ID:        snap.Ref.ID,
		UserID:    d.UserID,
		Query:     d.Query,
		Context:   d.Context,
		Response:  d.Response,
		Provider:  d.Provider,
		CreatedAt: d.CreatedAt,
	}, nil
}

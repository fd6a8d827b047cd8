//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"sitfit-api/internal/domain"
	"sitfit-api/internal/domain/model"
)

func TestTryOnRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	ctx := context.Background()
	repo := NewTryOnRepo(testPool)
	base := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("should upsert status and list newest first", func(t *testing.T) {
		cleanup(t)
		for i, id := range []string{"t1", "t2", "t3"} {
			r := &model.TryOnResult{ID: id, UserID: "u1", GarmentType: model.GarmentFullBody, Status: model.TryOnProcessing,
				CreatedAt: base.Add(time.Duration(i) * time.Minute), UpdatedAt: base}
			if err := repo.Save(ctx, nil, r); err != nil {
				t.Fatalf("save %s: %v", id, err)
			}
		}
		done := &model.TryOnResult{ID: "t1", UserID: "u1", GarmentType: model.GarmentFullBody, Status: model.TryOnCompleted,
			GeneratedImageURL: "https://cdn.test/t1.jpg", CreatedAt: base, UpdatedAt: base.Add(time.Hour)}
		if err := repo.Save(ctx, nil, done); err != nil {
			t.Fatalf("update: %v", err)
		}

		got, err := repo.FindByID(ctx, nil, "t1")
		if err != nil || got.Status != model.TryOnCompleted || got.GeneratedImageURL == "" {
			t.Errorf("unexpected t1: %+v %v", got, err)
		}
		list, err := repo.ListByUser(ctx, nil, "u1", 2)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(list) != 2 || list[0].ID != "t3" || list[1].ID != "t2" {
			t.Errorf("unexpected order: %+v", list)
		}
		if _, err := repo.FindByID(ctx, nil, "missing"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestStylistRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	ctx := context.Background()
	repo := NewStylistRepo(testPool)

	t.Run("should keep context and feedback", func(t *testing.T) {
		cleanup(t)
		e := &model.StylistEntry{ID: "s1", UserID: "u1", Query: "what to wear", Response: "navy",
			Provider: "keyword", Context: model.StylistContext{Age: 30, Occasion: "interview"}, CreatedAt: time.Now().UTC()}
		if err := repo.Save(ctx, nil, e); err != nil {
			t.Fatalf("save: %v", err)
		}
		got, err := repo.FindByID(ctx, nil, "s1")
		if err != nil || got.Context.Age != 30 || got.Context.Occasion != "interview" {
			t.Errorf("unexpected entry: %+v %v", got, err)
		}
		fb := &model.StylistFeedback{ID: "f1", UserID: "u1", EntryID: "s1", Rating: 4, CreatedAt: time.Now().UTC()}
		if err := repo.SaveFeedback(ctx, nil, fb); err != nil {
			t.Errorf("feedback: %v", err)
		}
	})
}

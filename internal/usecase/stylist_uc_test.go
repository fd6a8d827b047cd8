//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"sitfit-api/internal/domain"
	"sitfit-api/internal/domain/model"
	"sitfit-api/internal/domain/ports/repository"
	"sitfit-api/internal/usecase"
)

func TestStylistUseCase_Ask(t *testing.T) {
	ctx := context.Background()

	t.Run("should answer and store the entry", func(t *testing.T) {
		// --- Arrange ---
		repo := NewMockStylistRepo()
		var gotPrompt string
		primary := &MockAdvisor{name: "gemini", AdviseFunc: func(ctx context.Context, sys, user string) (string, error) {
			gotPrompt = user
			return "  Try a navy blazer.  ", nil
		}}
		uc := usecase.NewStylistUseCase(primary, nil, repo, usecase.StylistSettings{}, newTestLogger(), newFakeClock().Now)

		// --- Act ---
		e, err := uc.Ask(ctx, "u1", "What should I wear to an interview?", model.StylistContext{Age: 30, Occasion: "interview"})

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if e.Response != "Try a navy blazer." || e.Provider != "gemini" {
			t.Errorf("unexpected entry: %+v", e)
		}
		if !strings.Contains(gotPrompt, "- Age: 30") || !strings.Contains(gotPrompt, "- Occasion: interview") {
			t.Errorf("expected context in prompt, got %q", gotPrompt)
		}
		if _, err := repo.FindByID(ctx, nil, e.ID); err != nil {
			t.Errorf("expected entry to be stored: %v", err)
		}
	})

	t.Run("should fall back when the primary advisor fails", func(t *testing.T) {
		primary := &MockAdvisor{name: "gemini", AdviseFunc: func(ctx context.Context, sys, user string) (string, error) {
			return "", errors.New("quota exceeded")
		}}
		fallback := &MockAdvisor{name: "keyword"}
		uc := usecase.NewStylistUseCase(primary, fallback, NewMockStylistRepo(), usecase.StylistSettings{}, newTestLogger(), nil)

		e, err := uc.Ask(ctx, "u1", "casual weekend look", model.StylistContext{})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if e.Provider != "keyword" || fallback.Calls != 1 {
			t.Errorf("expected keyword fallback, got %+v", e)
		}
	})

	t.Run("should still answer when history cannot be stored", func(t *testing.T) {
		repo := NewMockStylistRepo()
		repo.SaveFunc = func(ctx context.Context, tx repository.Tx, e *model.StylistEntry) error {
			return errors.New("firestore: unavailable")
		}
		uc := usecase.NewStylistUseCase(&MockAdvisor{name: "keyword"}, nil, repo, usecase.StylistSettings{}, newTestLogger(), nil)

		if _, err := uc.Ask(ctx, "u1", "date night outfit", model.StylistContext{}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("should validate query and context", func(t *testing.T) {
		advisor := &MockAdvisor{name: "keyword"}
		uc := usecase.NewStylistUseCase(advisor, nil, NewMockStylistRepo(), usecase.StylistSettings{}, newTestLogger(), nil)
		cases := []struct {
			query string
			sc    model.StylistContext
		}{
			{"hey", model.StylistContext{}},
			{"    hi   ", model.StylistContext{}},
			{strings.Repeat("a", 501), model.StylistContext{}},
			{"what to wear", model.StylistContext{Age: 12}},
			{"what to wear", model.StylistContext{Age: 101}},
			{"what to wear", model.StylistContext{Gender: "robot"}},
		}
		for _, c := range cases {
			if _, err := uc.Ask(ctx, "u1", c.query, c.sc); !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("%q %+v: expected ErrInvalidArgument, got %v", c.query, c.sc, err)
			}
		}
		if advisor.Calls != 0 {
			t.Errorf("expected no advisor calls, got %d", advisor.Calls)
		}
	})
}

func TestStylistUseCase_HistoryAndFeedback(t *testing.T) {
	ctx := context.Background()
	repo := NewMockStylistRepo()
	uc := usecase.NewStylistUseCase(&MockAdvisor{name: "keyword"}, nil, repo, usecase.StylistSettings{}, newTestLogger(), newFakeClock().Now)

	e, err := uc.Ask(ctx, "u1", "what goes with white sneakers", model.StylistContext{})
	if err != nil {
		t.Fatalf("ask: %v", err)
	}

	t.Run("should clamp the history limit", func(t *testing.T) {
		if _, err := uc.History(ctx, "u1", 500); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, err := uc.History(ctx, "u1", 0); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(repo.ListArgs) != 2 || repo.ListArgs[0] != 50 || repo.ListArgs[1] != 20 {
			t.Errorf("expected limits [50 20], got %v", repo.ListArgs)
		}
	})

	t.Run("should store feedback on own entries only", func(t *testing.T) {
		if err := uc.Feedback(ctx, "u1", e.ID, 5, "great"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := uc.Feedback(ctx, "u2", e.ID, 5, ""); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound for another user's entry, got %v", err)
		}
		if err := uc.Feedback(ctx, "u1", e.ID, 6, ""); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for rating 6, got %v", err)
		}
		if len(repo.Feedback) != 1 || repo.Feedback[0].Rating != 5 {
			t.Errorf("unexpected feedback: %+v", repo.Feedback)
		}
	})
}

func TestStylistUseCase_PromptBudget(t *testing.T) {
	ctx := context.Background()

	t.Run("should refuse a prompt over the token budget without calling the provider", func(t *testing.T) {
		// --- Arrange ---
		advisor := &MockAdvisor{name: "gemini"}
		tokens := &MockTokens{}
		uc := usecase.NewStylistUseCase(advisor, nil, NewMockStylistRepo(),
			usecase.StylistSettings{Tokens: tokens, MaxPromptTokens: 60}, newTestLogger(), nil)
		sc := model.StylistContext{StylePreference: strings.Repeat("boho ", 20)}

		// --- Act ---
		_, err := uc.Ask(ctx, "u1", "what should I wear to a gallery opening", sc)

		// --- Assert ---
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
		if advisor.Calls != 0 {
			t.Errorf("expected no provider call, got %d", advisor.Calls)
		}
		if len(tokens.Seen) != 2 || !strings.Contains(tokens.Seen[1], "gallery opening") {
			t.Errorf("expected the system and user prompt to be counted, got %q", tokens.Seen)
		}
	})

	t.Run("should answer a prompt within the budget", func(t *testing.T) {
		advisor := &MockAdvisor{name: "gemini"}
		uc := usecase.NewStylistUseCase(advisor, nil, NewMockStylistRepo(),
			usecase.StylistSettings{Tokens: &MockTokens{}, MaxPromptTokens: 500}, newTestLogger(), nil)

		if _, err := uc.Ask(ctx, "u1", "what should I wear to a gallery opening", model.StylistContext{}); err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if advisor.Calls != 1 {
			t.Errorf("expected one provider call, got %d", advisor.Calls)
		}
	})

	t.Run("should go ahead when tokens cannot be counted", func(t *testing.T) {
		advisor := &MockAdvisor{name: "gemini"}
		tokens := &MockTokens{CountFunc: func(ctx context.Context, texts ...string) (int, error) {
			return 0, errors.New("tiktoken: bpe download failed")
		}}
		uc := usecase.NewStylistUseCase(advisor, nil, NewMockStylistRepo(),
			usecase.StylistSettings{Tokens: tokens, MaxPromptTokens: 1}, newTestLogger(), nil)

		if _, err := uc.Ask(ctx, "u1", "what should I wear to a gallery opening", model.StylistContext{}); err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if advisor.Calls != 1 {
			t.Errorf("expected one provider call, got %d", advisor.Calls)
		}
	})
}

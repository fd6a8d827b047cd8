// File: internal/usecase/stylist_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"sitfit-api/internal/domain"
	"sitfit-api/internal/domain/model"
	"sitfit-api/internal/domain/ports/adapter"
	"sitfit-api/internal/domain/ports/repository"
	"sitfit-api/internal/infra/logging"
	"sitfit-api/internal/infra/metrics"
)

var _ StylistUseCase = (*stylistUC)(nil)

type StylistUseCase interface {
	Ask(ctx context.Context, userID, query string, sc model.StylistContext) (*model.StylistEntry, error)
	History(ctx context.Context, userID string, limit int) ([]*model.StylistEntry, error)
	Feedback(ctx context.Context, userID, entryID string, rating int, comment string) error
}

const (
	queryMinLen           = 5
	queryMaxLen           = 500
	stylistHistoryDefault = 20
	stylistHistoryMax     = 50
	feedbackMaxLen        = 1000
)

const stylistSystemPrompt = `You are SitFit's AI Fashion Stylist, an expert in fashion, style, and personal styling.
Give personalized, practical and current fashion advice. Be encouraging and positive.
Cover specific outfit suggestions with colors and pieces, styling tips, and what suits the occasion.
Keep the answer conversational and under 300 words.`

// StylistSettings bounds what is sent to the provider. A nil Tokens or a
// non-positive MaxPromptTokens disables the prompt budget.
type StylistSettings struct {
	Tokens          adapter.TokenCounter
	MaxPromptTokens int
}

type stylistUC struct {
	advisor  adapter.StyleAdvisor
	fallback adapter.StyleAdvisor // optional
	entries  repository.StylistRepository
	settings StylistSettings
	log      *zerolog.Logger
	now      Clock
}

func NewStylistUseCase(
	advisor, fallback adapter.StyleAdvisor,
	entries repository.StylistRepository,
	settings StylistSettings,
	logger *zerolog.Logger,
	now Clock,
) *stylistUC {
	return &stylistUC{advisor: advisor, fallback: fallback, entries: entries, settings: settings, log: logger, now: clockOrNow(now)}
}

func (u *stylistUC) Ask(ctx context.Context, userID, query string, sc model.StylistContext) (*model.StylistEntry, error) {
	l := logging.With(ctx, u.log)
	query = strings.TrimSpace(query)
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if err := validateStylist(query, sc); err != nil {
		return nil, err
	}

	prompt := BuildStylistPrompt(query, sc)
	if err := u.checkPromptBudget(ctx, prompt); err != nil {
		return nil, err
	}
	provider := u.advisor.Name()
	answer, err := u.advise(ctx, u.advisor, prompt)
	if err != nil && u.fallback != nil && u.fallback != u.advisor {
		l.Warn().Err(err).Str("provider", provider).Msg("stylist provider failed; using fallback")
		provider = u.fallback.Name()
		answer, err = u.advise(ctx, u.fallback, prompt)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}

	e := &model.StylistEntry{
		ID:        ulid.Make().String(),
		UserID:    userID,
		Query:     query,
		Context:   sc,
		Response:  answer,
		Provider:  provider,
		CreatedAt: u.now(),
	}
	if err := u.entries.Save(ctx, nil, e); err != nil {
		l.Warn().Err(err).Str("entry_id", e.ID).Msg("stylist history not stored")
	}
	return e, nil
}

func (u *stylistUC) History(ctx context.Context, userID string, limit int) ([]*model.StylistEntry, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	out, err := u.entries.ListByUser(ctx, nil, userID, clampLimit(limit, stylistHistoryDefault, stylistHistoryMax))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return []*model.StylistEntry{}, nil
		}
		return nil, err
	}
	return out, nil
}

func (u *stylistUC) Feedback(ctx context.Context, userID, entryID string, rating int, comment string) error {
	if userID == "" || entryID == "" || rating < 1 || rating > 5 || utf8.RuneCountInString(comment) > feedbackMaxLen {
		return domain.ErrInvalidArgument
	}
	e, err := u.entries.FindByID(ctx, nil, entryID)
	if err != nil {
		return err
	}
	if e.UserID != userID {
		return domain.ErrNotFound
	}
	return u.entries.SaveFeedback(ctx, nil, &model.StylistFeedback{
		ID:        ulid.Make().String(),
		UserID:    userID,
		EntryID:   entryID,
		Rating:    rating,
		Comment:   strings.TrimSpace(comment),
		CreatedAt: u.now(),
	})
}

// checkPromptBudget counts the system and user prompt before any provider call.
// A counter failure is logged and the request goes ahead.
func (u *stylistUC) checkPromptBudget(ctx context.Context, prompt string) error {
	if u.settings.Tokens == nil || u.settings.MaxPromptTokens <= 0 {
		return nil
	}
	n, err := u.settings.Tokens.CountTokens(ctx, stylistSystemPrompt, prompt)
	if err != nil {
		logging.With(ctx, u.log).Warn().Err(err).Msg("prompt token count unavailable")
		return nil
	}
	metrics.ObserveStylistPromptTokens(n)
	if n > u.settings.MaxPromptTokens {
		return fmt.Errorf("prompt is %d tokens, over the %d limit: %w", n, u.settings.MaxPromptTokens, domain.ErrInvalidArgument)
	}
	return nil
}

func (u *stylistUC) advise(ctx context.Context, a adapter.StyleAdvisor, prompt string) (string, error) {
	start := time.Now()
	out, err := a.Advise(ctx, stylistSystemPrompt, prompt)
	if err == nil && strings.TrimSpace(out) == "" {
		err = errors.New("empty answer")
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.ObserveStylist(a.Name(), result, time.Since(start).Milliseconds(), err == nil)
	return strings.TrimSpace(out), err
}

func validateStylist(query string, sc model.StylistContext) error {
	n := utf8.RuneCountInString(query)
	if n < queryMinLen || n > queryMaxLen {
		return fmt.Errorf("query must be %d to %d characters: %w", queryMinLen, queryMaxLen, domain.ErrInvalidArgument)
	}
	if sc.Age != 0 && (sc.Age < 13 || sc.Age > 100) {
		return fmt.Errorf("age must be between 13 and 100: %w", domain.ErrInvalidArgument)
	}
	switch strings.ToLower(sc.Gender) {
	case "", "male", "female", "other":
	default:
		return fmt.Errorf("gender must be male, female or other: %w", domain.ErrInvalidArgument)
	}
	return nil
}

// BuildStylistPrompt renders the user part of the prompt.
func BuildStylistPrompt(query string, sc model.StylistContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User Query: %q", query)

	var ctxLines []string
	if sc.Age != 0 {
		ctxLines = append(ctxLines, fmt.Sprintf("- Age: %d", sc.Age))
	}
	if sc.Gender != "" {
		ctxLines = append(ctxLines, "- Gender: "+sc.Gender)
	}
	if sc.StylePreference != "" {
		ctxLines = append(ctxLines, "- Style Preference: "+sc.StylePreference)
	}
	if sc.Occasion != "" {
		ctxLines = append(ctxLines, "- Occasion: "+sc.Occasion)
	}
	if len(ctxLines) > 0 {
		b.WriteString("\n\nUser Context:\n")
		b.WriteString(strings.Join(ctxLines, "\n"))
	}
	return b.String()
}

// File: internal/usecase/tryon_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"sitfit-api/internal/domain"
	"sitfit-api/internal/domain/model"
	"sitfit-api/internal/domain/ports/adapter"
	"sitfit-api/internal/domain/ports/repository"
	"sitfit-api/internal/infra/logging"
	"sitfit-api/internal/infra/metrics"
)

var _ TryOnUseCase = (*tryOnUC)(nil)

// TryOnRequest carries raw image bytes as uploaded; Generate validates them.
type TryOnRequest struct {
	GarmentType model.GarmentType
	ModelImage  []byte
	OutfitImage []byte
	BottomImage []byte // only used with model.GarmentComb
}

type TryOnUseCase interface {
	// Generate gates on the credit ledger, spends one credit and calls the image
	// provider. A provider failure after the credit is spent is not refunded.
	Generate(ctx context.Context, userID string, req TryOnRequest) (*model.TryOnResult, error)
	History(ctx context.Context, userID string, limit int) ([]*model.TryOnResult, error)
	Get(ctx context.Context, userID, id string) (*model.TryOnResult, error)
}

const (
	tryOnHistoryDefault = 10
	tryOnHistoryMax     = 50
	statusWriteTimeout  = 5 * time.Second
)

type tryOnUC struct {
	credits   CreditUseCase
	images    adapter.ImageProcessor
	generator adapter.ImageGenerator
	results   repository.TryOnRepository
	log       *zerolog.Logger
	now       Clock
}

func NewTryOnUseCase(credits CreditUseCase, images adapter.ImageProcessor, generator adapter.ImageGenerator, results repository.TryOnRepository, logger *zerolog.Logger, now Clock) *tryOnUC {
	return &tryOnUC{credits: credits, images: images, generator: generator, results: results, log: logger, now: clockOrNow(now)}
}

func (u *tryOnUC) Generate(ctx context.Context, userID string, req TryOnRequest) (*model.TryOnResult, error) {
	l := logging.With(ctx, u.log)
	provider := u.generator.Name()

	in, err := u.prepare(userID, req)
	if err != nil {
		metrics.IncTryOn(provider, "invalid")
		return nil, err
	}

	// Gate: read, short-circuit, then spend before any remote call.
	c, err := u.credits.GetOrInit(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !c.CanSpend() {
		metrics.IncTryOn(provider, "insufficient")
		return nil, domain.ErrInsufficientCredits
	}
	if _, err := u.credits.Deduct(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrInsufficientCredits) {
			metrics.IncTryOn(provider, "insufficient")
		}
		return nil, err
	}

	now := u.now()
	res := &model.TryOnResult{
		ID:          ulid.Make().String(),
		UserID:      userID,
		GarmentType: in.GarmentType,
		Status:      model.TryOnProcessing,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := u.results.Save(ctx, nil, res); err != nil {
		l.Warn().Err(err).Str("tryon_id", res.ID).Msg("could not record processing try-on")
	}

	start := time.Now()
	gen, genErr := u.generator.Generate(ctx, *in)
	metrics.ObserveTryOnLatency(provider, time.Since(start).Seconds(), genErr == nil)

	res.UpdatedAt = u.now()
	if genErr != nil {
		res.Status = model.TryOnFailed
		res.Message = "generation failed"
		u.saveFinal(ctx, l, res)
		metrics.IncTryOn(provider, "failed")
		l.Error().Err(genErr).Str("tryon_id", res.ID).Str("provider", provider).Msg("try-on generation failed")
		return res, fmt.Errorf("%w: %v", domain.ErrGenerationFailed, genErr)
	}

	res.Status = model.TryOnCompleted
	res.GeneratedImageURL = gen.ImageURL
	res.ProviderRequestID = gen.RequestID
	res.Message = gen.Message
	u.saveFinal(ctx, l, res)
	metrics.IncTryOn(provider, "completed")
	l.Info().Str("tryon_id", res.ID).Str("provider", provider).Msg("try-on completed")
	return res, nil
}

func (u *tryOnUC) History(ctx context.Context, userID string, limit int) ([]*model.TryOnResult, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	out, err := u.results.ListByUser(ctx, nil, userID, clampLimit(limit, tryOnHistoryDefault, tryOnHistoryMax))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return []*model.TryOnResult{}, nil
		}
		return nil, err
	}
	return out, nil
}

func (u *tryOnUC) Get(ctx context.Context, userID, id string) (*model.TryOnResult, error) {
	if userID == "" || id == "" {
		return nil, domain.ErrInvalidArgument
	}
	r, err := u.results.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if r.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return r, nil
}

func (u *tryOnUC) prepare(userID string, req TryOnRequest) (*model.TryOnInput, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	gt, err := model.ParseGarmentType(string(req.GarmentType))
	if err != nil {
		return nil, err
	}
	if len(req.ModelImage) == 0 || len(req.OutfitImage) == 0 {
		return nil, fmt.Errorf("model and outfit images are required: %w", domain.ErrInvalidArgument)
	}

	in := &model.TryOnInput{GarmentType: gt}
	if in.Model, err = u.images.Normalize(req.ModelImage); err != nil {
		return nil, fmt.Errorf("model image: %w", err)
	}
	if in.Outfit, err = u.images.Normalize(req.OutfitImage); err != nil {
		return nil, fmt.Errorf("outfit image: %w", err)
	}
	if gt == model.GarmentComb && len(req.BottomImage) > 0 {
		bottom, err := u.images.Normalize(req.BottomImage)
		if err != nil {
			return nil, fmt.Errorf("bottom image: %w", err)
		}
		in.Bottom = &bottom
	}
	return in, nil
}

// saveFinal records the terminal status even if the request context is already done.
func (u *tryOnUC) saveFinal(ctx context.Context, l *zerolog.Logger, res *model.TryOnResult) {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statusWriteTimeout)
	defer cancel()
	if err := u.results.Save(wctx, nil, res); err != nil {
		l.Warn().Err(err).Str("tryon_id", res.ID).Str("status", string(res.Status)).Msg("could not record try-on status")
	}
}

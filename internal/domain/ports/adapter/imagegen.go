package adapter

import (
	"context"

	"sitfit-api/internal/domain/model"
)

type GenerationResult struct {
	ImageURL  string
	RequestID string
	Message   string
}

// ImageGenerator composites a garment onto a person image.
type ImageGenerator interface {
	Name() string
	Generate(ctx context.Context, in model.TryOnInput) (*GenerationResult, error)
}

// ImageProcessor validates raw upload bytes and returns a normalized image.
// Rejections wrap domain.ErrInvalidImage.
type ImageProcessor interface {
	Normalize(data []byte) (model.Image, error)
}

package model

import (
	"time"

	"sitfit-api/internal/domain"
)

type GarmentType string

const (
	GarmentFullBody GarmentType = "full_body"
	GarmentComb     GarmentType = "comb"
)

func ParseGarmentType(s string) (GarmentType, error) {
	switch GarmentType(s) {
	case "":
		return GarmentFullBody, nil
	case GarmentFullBody, GarmentComb:
		return GarmentType(s), nil
	default:
		return "", domain.ErrInvalidArgument
	}
}

type TryOnStatus string

const (
	TryOnProcessing TryOnStatus = "processing"
	TryOnCompleted  TryOnStatus = "completed"
	TryOnFailed     TryOnStatus = "failed"
)

// Image is a decoded, validated input image.
type Image struct {
	Data        []byte
	ContentType string
}

type TryOnInput struct {
	GarmentType GarmentType
	Model       Image
	Outfit      Image
	Bottom      *Image // only with GarmentComb
}

type TryOnResult struct {
	ID                string
	UserID            string
	GarmentType       GarmentType
	GeneratedImageURL string
	ProviderRequestID string
	Status            TryOnStatus
	Message           string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

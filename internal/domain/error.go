package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrRateLimited     = errors.New("rate limit exceeded")

	// Ledger
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrLedgerUnavailable   = errors.New("credit ledger unavailable")

	// Payments
	ErrInvalidPaymentSignature = errors.New("invalid payment signature")
	ErrOrderAmountMismatch     = errors.New("order amount does not match plan price")
	ErrOrderIntentMismatch     = errors.New("order does not belong to this user or plan")
	ErrPaymentProvider         = errors.New("payment provider error")

	// Generation
	ErrInvalidImage     = errors.New("invalid image")
	ErrGenerationFailed = errors.New("generation failed")

	// Weather
	ErrWeatherUnavailable = errors.New("weather provider unavailable")

	// Storage plumbing
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid execution context")
)

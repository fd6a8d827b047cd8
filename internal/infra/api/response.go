package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"sitfit-api/internal/domain"
	"sitfit-api/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Code    string `json:"code,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func WriteData(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, Envelope{Success: true, Data: data})
}

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// Order matters: the first match wins.
var errorMappings = []errorMapping{
	{domain.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated", "authentication required"},
	{domain.ErrInsufficientCredits, http.StatusPaymentRequired, "insufficient_credits", "no credits left, upgrade to premium for unlimited try-ons"},
	{domain.ErrInvalidPaymentSignature, http.StatusBadRequest, "invalid_signature", "payment verification failed"},
	{domain.ErrOrderAmountMismatch, http.StatusBadRequest, "amount_mismatch", "amount does not match the plan price"},
	{domain.ErrOrderIntentMismatch, http.StatusBadRequest, "order_mismatch", "order does not match this user or plan"},
	{domain.ErrInvalidImage, http.StatusBadRequest, "invalid_image", "image is missing, too large or not a supported format"},
	{domain.ErrInvalidArgument, http.StatusBadRequest, "invalid_argument", "invalid request"},
	{domain.ErrNotFound, http.StatusNotFound, "not_found", "not found"},
	{domain.ErrRateLimited, http.StatusTooManyRequests, "rate_limited", "too many requests, try again later"},
	{domain.ErrLedgerUnavailable, http.StatusServiceUnavailable, "ledger_unavailable", "please try again"},
	{domain.ErrPaymentProvider, http.StatusBadGateway, "payment_provider", "payment provider unavailable"},
	{domain.ErrGenerationFailed, http.StatusBadGateway, "generation_failed", "try-on generation failed"},
	{domain.ErrWeatherUnavailable, http.StatusBadGateway, "weather_unavailable", "weather data is unavailable right now"},
}

// StatusFor maps a domain error to its HTTP status and error code.
func StatusFor(err error) (int, string, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code, m.message
		}
	}
	return http.StatusInternalServerError, "internal", "internal error"
}

// WriteError never puts err's text in the body.
func WriteError(w http.ResponseWriter, r *http.Request, logger *zerolog.Logger, err error) {
	status, code, msg := StatusFor(err)
	l := logging.With(r.Context(), logger)
	switch {
	case status >= 500:
		l.Error().Err(err).Int("status", status).Msg("request failed")
	case status == http.StatusPaymentRequired:
		l.Debug().Err(err).Msg("request refused")
	default:
		l.Warn().Err(err).Int("status", status).Msg("request refused")
	}
	WriteJSON(w, status, Envelope{Message: msg, Code: code})
}

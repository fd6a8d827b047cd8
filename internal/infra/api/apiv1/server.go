// Package apiv1 serves the SitFit REST API under /api/v1.
package apiv1

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"sitfit-api/internal/domain"
	"sitfit-api/internal/domain/ports/adapter"
	"sitfit-api/internal/domain/ports/repository"
	"sitfit-api/internal/infra/api"
	"sitfit-api/internal/usecase"
)

const rateWindow = time.Hour

type Options struct {
	Verifier       adapter.IdentityVerifier
	Limiter        repository.RateLimiter // nil disables rate limiting
	TryOnPerHour   int
	StylistPerHour int
	TryOnTimeout   time.Duration
	MaxImageBytes  int64

	Weather        usecase.WeatherUseCase // nil leaves /weather unmounted
	WeatherPerHour int
}

type Server struct {
	credits  usecase.CreditUseCase
	payments usecase.PaymentUseCase
	tryOn    usecase.TryOnUseCase
	stylist  usecase.StylistUseCase
	opts     Options
	log      *zerolog.Logger
	validate *validator.Validate
}

func NewServer(
	credits usecase.CreditUseCase,
	payments usecase.PaymentUseCase,
	tryOn usecase.TryOnUseCase,
	stylist usecase.StylistUseCase,
	opts Options,
	logger *zerolog.Logger,
) *Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Server{
		credits:  credits,
		payments: payments,
		tryOn:    tryOn,
		stylist:  stylist,
		opts:     opts,
		log:      logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterAPIV1 mounts /health and the authenticated /api/v1 routes on r.
func RegisterAPIV1(r chi.Router, s *Server) {
	r.Get("/health", s.health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(api.Auth(s.opts.Verifier, s.log))

		r.Get("/credits", s.getCredits)
		r.Get("/credits/status", s.getCreditStatus)

		r.Post("/payment/create-order", s.createOrder)
		r.Post("/payment/verify", s.verifyPayment)
		r.Get("/payment/history", s.paymentHistory)

		r.Route("/tryon", func(r chi.Router) {
			r.With(
				api.RateLimit(s.opts.Limiter, "tryon", s.opts.TryOnPerHour, rateWindow, s.log),
				timeoutOr(s.opts.TryOnTimeout),
			).Post("/", s.generateTryOn)
			r.Get("/history", s.tryOnHistory)
			r.Get("/{id}", s.getTryOn)
		})

		r.Route("/stylist", func(r chi.Router) {
			r.With(api.RateLimit(s.opts.Limiter, "stylist", s.opts.StylistPerHour, rateWindow, s.log)).Post("/", s.askStylist)
			r.Get("/history", s.stylistHistory)
			r.Post("/feedback", s.stylistFeedback)
		})

		if s.opts.Weather != nil {
			r.Route("/weather", func(r chi.Router) {
				r.Use(api.RateLimit(s.opts.Limiter, "weather", s.opts.WeatherPerHour, rateWindow, s.log))
				r.Get("/current", s.currentWeather)
				r.Get("/forecast", s.weatherForecast)
			})
		}
	})
}

func timeoutOr(d time.Duration) func(http.Handler) http.Handler {
	if d <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return api.Timeout(d)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	api.WriteData(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ===== helpers =====

func (s *Server) userID(r *http.Request) string {
	if id := api.IdentityFrom(r.Context()); id != nil {
		return id.UserID
	}
	return ""
}

// decode reads a JSON body into dst and runs struct validation.
func (s *Server) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("body too large: %w", domain.ErrInvalidArgument)
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty body: %w", domain.ErrInvalidArgument)
		}
		return fmt.Errorf("malformed json: %w", domain.ErrInvalidArgument)
	}
	if err := s.validate.Struct(dst); err != nil {
		return fmt.Errorf("%v: %w", err, domain.ErrInvalidArgument)
	}
	return nil
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	api.WriteError(w, r, s.log, err)
}

func queryLimit(r *http.Request) int {
	n, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return n
}

// queryCoords reads the required lat and lon parameters.
func queryCoords(r *http.Request) (lat, lon float64, err error) {
	q := r.URL.Query()
	lat, err = strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("lat: %w", domain.ErrInvalidArgument)
	}
	lon, err = strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("lon: %w", domain.ErrInvalidArgument)
	}
	return lat, lon, nil
}

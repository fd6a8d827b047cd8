// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"sitfit-api/internal/config"
	"sitfit-api/internal/domain/model"
	"sitfit-api/internal/domain/ports/adapter"
	"sitfit-api/internal/domain/ports/repository"
	aiAdapters "sitfit-api/internal/infra/adapters/ai"
	"sitfit-api/internal/infra/adapters/identity"
	"sitfit-api/internal/infra/adapters/imagegen"
	payAdapters "sitfit-api/internal/infra/adapters/payment"
	"sitfit-api/internal/infra/adapters/weather"
	"sitfit-api/internal/infra/api"
	"sitfit-api/internal/infra/api/apiv1"
	fs "sitfit-api/internal/infra/db/firestore"
	"sitfit-api/internal/infra/db/memory"
	pg "sitfit-api/internal/infra/db/postgres"
	"sitfit-api/internal/infra/imageutil"
	"sitfit-api/internal/infra/logging"
	"sitfit-api/internal/infra/metrics"
	red "sitfit-api/internal/infra/redis"
	"sitfit-api/internal/infra/sched"
	"sitfit-api/internal/infra/security"
	"sitfit-api/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

// stores groups the repositories one backend provides.
type stores struct {
	credits repository.CreditRepository
	tryOns  repository.TryOnRepository
	stylist repository.StylistRepository
	tm      repository.TransactionManager
	close   func()
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, unredacted ids)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Firebase (store and/or identity) ----
	var fbApp *firebase.App
	if cfg.Store.Driver == "firestore" || cfg.Auth.Provider == "firebase" {
		fbApp, err = identity.NewFirebaseApp(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
		if err != nil {
			logger.Fatal().Err(err).Msg("firebase")
		}
	}

	// ---- Store ----
	st, err := openStores(ctx, cfg, fbApp, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("store")
	}
	defer st.close()

	// ---- Redis (optional) ----
	var (
		limiter repository.RateLimiter
		intents repository.OrderIntentRepository
	)
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		limiter = red.NewRateLimiter(redisClient)
		intents = red.NewOrderIntentRepo(redisClient, cfg.Payment.OrderTTL)
	} else {
		logger.Warn().Msg("redis.url not set; rate limiting and order intents disabled")
	}

	// ---- Identity ----
	verifier, err := newVerifier(ctx, cfg, fbApp)
	if err != nil {
		logger.Fatal().Err(err).Msg("identity")
	}

	// ---- Payment ----
	var gateway adapter.PaymentGateway
	switch cfg.Payment.Provider {
	case "razorpay":
		gateway, err = payAdapters.NewRazorpayGateway(cfg.Payment.Razorpay.KeyID, cfg.Payment.Razorpay.KeySecret, cfg.Payment.Razorpay.BaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("razorpay gateway")
		}
	default:
		gateway = payAdapters.NewNoopPaymentGateway()
	}
	signer, err := security.NewPaymentSigner(cfg.Payment.Razorpay.KeySecret)
	if err != nil {
		logger.Fatal().Err(err).Msg("payment signer")
	}
	logger.Info().Str("provider", gateway.Name()).Str("currency", cfg.Payment.Currency).Msg("payment gateway ready")

	// ---- Try-on generator ----
	var generator adapter.ImageGenerator
	switch cfg.TryOn.Provider {
	case "miragic":
		m := cfg.TryOn.Miragic
		generator, err = imagegen.NewMiragicGenerator(m.APIKey, m.BaseURL, m.PollInterval, m.PollAttempts)
		if err != nil {
			logger.Fatal().Err(err).Msg("miragic generator")
		}
	default:
		generator = imagegen.NewNoopGenerator()
	}
	logger.Info().Str("provider", generator.Name()).Msg("try-on generator ready")

	// ---- Stylist advisor (keyword table is always the fallback) ----
	fallback := aiAdapters.NewKeywordAdvisor()
	var advisor adapter.StyleAdvisor = fallback
	stylistSettings := usecase.StylistSettings{MaxPromptTokens: cfg.Stylist.MaxPromptTokens}
	switch cfg.Stylist.Provider {
	case "gemini":
		g, err := aiAdapters.NewGeminiAdapter(ctx, cfg.Stylist.GeminiKey, cfg.Stylist.GeminiURL, cfg.Stylist.Model, cfg.Stylist.MaxOutputTokens)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini adapter")
		}
		advisor = aiAdapters.NewLimitedAdvisor(g, 8)
		stylistSettings.Tokens = aiAdapters.NewTiktokenCounter(cfg.Stylist.Model)
	case "openai":
		o, err := aiAdapters.NewOpenAIAdapter(cfg.Stylist.OpenAIKey, cfg.Stylist.OpenAIBaseURL, cfg.Stylist.Model, cfg.Stylist.MaxOutputTokens)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai adapter")
		}
		advisor = aiAdapters.NewLimitedAdvisor(o, 8)
		stylistSettings.Tokens = aiAdapters.NewTiktokenCounter(cfg.Stylist.Model)
	}
	logger.Info().Str("provider", advisor.Name()).Str("model", cfg.Stylist.Model).Msg("stylist advisor ready")

	// ---- Weather (optional) ----
	var weatherUC usecase.WeatherUseCase
	switch cfg.Weather.Provider {
	case "openweather":
		c, err := weather.NewOpenWeatherClient(cfg.Weather.APIKey, cfg.Weather.BaseURL, cfg.Weather.Timeout)
		if err != nil {
			logger.Fatal().Err(err).Msg("openweather client")
		}
		weatherUC = usecase.NewWeatherUseCase(c, logger)
	case "static":
		weatherUC = usecase.NewWeatherUseCase(weather.NewStaticProvider(model.Weather{
			Temp: 22, FeelsLike: 22, Condition: "Clear", Description: "clear sky", Humidity: 50, WindSpeed: 3, Icon: "01d",
		}), logger)
	}
	logger.Info().Str("provider", cfg.Weather.Provider).Msg("weather provider ready")

	// ---- Use cases ----
	creditUC := usecase.NewCreditUseCase(st.credits, st.tm, logger, nil)
	prices := make(map[model.Plan]int64, len(cfg.Payment.Prices))
	for plan, price := range cfg.Payment.Prices {
		prices[model.Plan(plan)] = price
	}
	paymentUC := usecase.NewPaymentUseCase(gateway, signer, creditUC, st.credits, intents, st.tm, usecase.PaymentSettings{
		Currency: cfg.Payment.Currency,
		Prices:   prices,
		Dev:      cfg.Runtime.Dev,
	}, logger, nil)
	images := imageutil.NewProcessor(cfg.TryOn.MaxImageBytes, cfg.TryOn.MaxDimension, cfg.TryOn.MaxPixels)
	tryOnUC := usecase.NewTryOnUseCase(creditUC, images, generator, st.tryOns, logger, nil)
	stylistUC := usecase.NewStylistUseCase(advisor, fallback, st.stylist, stylistSettings, logger, nil)

	// ---- HTTP ----
	srv := apiv1.NewServer(creditUC, paymentUC, tryOnUC, stylistUC, apiv1.Options{
		Verifier:       verifier,
		Limiter:        limiter,
		TryOnPerHour:   cfg.TryOn.RateLimitPerHour,
		StylistPerHour: cfg.Stylist.RateLimitPerHour,
		TryOnTimeout:   cfg.HTTP.TryOnTimeout,
		MaxImageBytes:  cfg.TryOn.MaxImageBytes,
		Weather:        weatherUC,
		WeatherPerHour: cfg.Weather.RateLimitPerHour,
	}, logger)

	r := chi.NewRouter()
	r.Use(
		api.TraceID(logger),
		api.RequestLog(logger),
		api.Metrics(),
		api.Recover(logger),
		api.BodyLimit(cfg.HTTP.MaxBodyBytes),
	)
	r.Handle("/metrics", promhttp.Handler())
	r.Group(func(r chi.Router) {
		// try-on has its own, longer deadline
		r.Use(func(next http.Handler) http.Handler {
			short := api.Timeout(cfg.HTTP.RequestTimeout)(next)
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				if req.Method == http.MethodPost && req.URL.Path == "/api/v1/tryon" {
					next.ServeHTTP(w, req)
					return
				}
				short.ServeHTTP(w, req)
			})
		})
		apiv1.RegisterAPIV1(r, srv)
	})

	handler := cors.New(cors.Options{
		AllowedOrigins:   cfg.HTTP.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           600,
	}).Handler(r)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Str("version", version).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
			cancel()
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
	case <-ctx.Done():
	}
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	cancel()
}

func openStores(ctx context.Context, cfg *config.Config, app *firebase.App, logger *zerolog.Logger) (*stores, error) {
	switch cfg.Store.Driver {
	case "firestore":
		client, err := fs.NewClient(ctx, app)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("project", cfg.Firebase.ProjectID).Msg("firestore store ready")
		return &stores{
			credits: fs.NewCreditRepo(client),
			tryOns:  fs.NewTryOnRepo(client),
			stylist: fs.NewStylistRepo(client),
			tm:      fs.NewTxManager(client),
			close:   func() { _ = client.Close() },
		}, nil

	case "postgres":
		pool, err := pg.Connect(ctx, cfg.Database.URL, cfg.Database.MaxConns)
		if err != nil {
			return nil, err
		}
		w := sched.NewPoolStatsWorker(15*time.Second, poolStats(pool), logger)
		go func() { _ = w.Run(ctx) }()
		logger.Info().Int32("max_conns", cfg.Database.MaxConns).Msg("postgres store ready")
		return &stores{
			credits: pg.NewCreditRepo(pool),
			tryOns:  pg.NewTryOnRepo(pool),
			stylist: pg.NewStylistRepo(pool),
			tm:      pg.NewTxManager(pool),
			close:   pool.Close,
		}, nil

	default:
		logger.Warn().Msg("memory store: data is lost on restart")
		s := memory.NewStore()
		return &stores{
			credits: memory.NewCreditRepo(s),
			tryOns:  memory.NewTryOnRepo(s),
			stylist: memory.NewStylistRepo(s),
			tm:      s,
			close:   func() {},
		}, nil
	}
}

func poolStats(pool *pgxpool.Pool) sched.PoolStatsFunc {
	return func() (int32, int32, int32) {
		s := pool.Stat()
		return s.TotalConns(), s.IdleConns(), s.AcquiredConns()
	}
}

func newVerifier(ctx context.Context, cfg *config.Config, app *firebase.App) (adapter.IdentityVerifier, error) {
	if cfg.Auth.Provider == "jwt" {
		return identity.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
	}
	return identity.NewFirebaseVerifier(ctx, app)
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"sitfit-api/internal/config"
	"sitfit-api/internal/infra/adapters/identity"
	"sitfit-api/internal/infra/db/postgres"
	"sitfit-api/internal/infra/logging"
	"sitfit-api/internal/infra/redis"
	"sitfit-api/internal/infra/security"
)

// Prepares a clean, predictable state for manual end-to-end testing against a
// server running with the postgres store and jwt auth, then prints a bearer
// token for the test user. With -order and -payment it also prints the
// checkout signature the verify endpoint expects.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	userID := flag.String("user", "e2e-user-0001", "user id to mint a token for")
	ttl := flag.Duration("ttl", 2*time.Hour, "token lifetime")
	orderID := flag.String("order", "", "order id to sign")
	paymentID := flag.String("payment", "", "payment id to sign")
	wipe := flag.Bool("wipe", true, "truncate ledger tables and flush redis")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, true)

	logger.Info().Msg("--- Starting E2E Environment Setup ---")
	if *wipe {
		wipeState(ctx, cfg, logger)
	}

	if cfg.Auth.Provider != "jwt" {
		logger.Fatal().Str("provider", cfg.Auth.Provider).Msg("tokens can only be minted with auth.provider=jwt")
	}
	verifier, err := identity.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
	if err != nil {
		logger.Fatal().Err(err).Msg("jwt verifier")
	}
	token, err := verifier.Mint(*userID, *userID+"@e2e.test", *ttl)
	if err != nil {
		logger.Fatal().Err(err).Msg("mint token")
	}
	fmt.Printf("TOKEN=%s\n", token)

	if *orderID != "" && *paymentID != "" {
		signer, err := security.NewPaymentSigner(cfg.Payment.Razorpay.KeySecret)
		if err != nil {
			logger.Fatal().Err(err).Msg("payment signer")
		}
		fmt.Printf("SIGNATURE=%s\n", signer.Sign(*orderID, *paymentID))
	}
	logger.Info().Str("user_id", *userID).Msg("--- E2E Environment Setup Complete ---")
}

func wipeState(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if cfg.Redis.URL != "" {
		logger.Info().Msg("Wiping Redis (rate limits, order intents)...")
		rc, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		defer rc.Close()
		if err := rc.FlushDB(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to flush redis")
		}
	}

	if cfg.Store.Driver != "postgres" {
		logger.Warn().Str("driver", cfg.Store.Driver).Msg("store is not postgres; skipping table wipe")
		return
	}
	logger.Info().Msg("Wiping ledger and history tables...")
	pool, err := postgres.Connect(ctx, cfg.Database.URL, 2)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection failed")
	}
	defer pool.Close()
	if _, err := pool.Exec(ctx, `
		TRUNCATE
			stylist_feedback, stylist_history, tryon_results, payment_records, user_credits
		RESTART IDENTITY CASCADE;
	`); err != nil {
		logger.Fatal().Err(err).Msg("failed to truncate tables")
	}
}

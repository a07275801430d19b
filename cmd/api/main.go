package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/wordsmith/wordsmith-api/internal/config"
	"github.com/wordsmith/wordsmith-api/internal/domain/balance"
	"github.com/wordsmith/wordsmith-api/internal/domain/billing"
	"github.com/wordsmith/wordsmith-api/internal/domain/ledger"
	"github.com/wordsmith/wordsmith-api/internal/domain/purchase"
	"github.com/wordsmith/wordsmith-api/internal/middleware"
	"github.com/wordsmith/wordsmith-api/internal/pkg/database"
	"github.com/wordsmith/wordsmith-api/internal/pkg/jwt"
	"github.com/wordsmith/wordsmith-api/internal/pkg/logger"
	"github.com/wordsmith/wordsmith-api/internal/pkg/paygate"
	pkgresponse "github.com/wordsmith/wordsmith-api/internal/pkg/response"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting Wordsmith API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)

	paygateClient := paygate.NewClient(paygate.Config{
		BaseURL:       cfg.PaygateBaseURL,
		MerchantID:    cfg.PaygateMerchantID,
		SecretKey:     cfg.PaygateSecretKey,
		WebhookSecret: cfg.PaygateWebhookSecret,
	})

	// ---------- Repositories ----------
	purchaseRepo := purchase.NewRepository(db)
	ledgerRepo := ledger.NewRepository(db)
	balanceRepo := balance.NewRepository(db)

	// ---------- Services ----------
	ledgerService := ledger.NewService(ledgerRepo)
	balanceService := balance.NewService(balanceRepo)
	billingService := billing.NewService(purchaseRepo, ledgerRepo, paygateClient, billing.Config{
		SuccessURL: cfg.FrontendURL + "/billing/success",
		CancelURL:  cfg.FrontendURL + "/billing/cancelled",
	})

	// ---------- Handlers ----------
	ledgerHandler := ledger.NewHandler(ledgerService)
	balanceHandler := balance.NewHandler(balanceService)
	billingHandler := billing.NewHandler(billingService, purchaseRepo, cfg.PaygateWebhookSecret)

	authMiddleware := middleware.Auth(jwtService)
	confirmLimiter := middleware.RateLimit(redis, "billing_confirm", cfg.ConfirmRateLimit, cfg.ConfirmRateWindow)

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/billing", billingHandler.Routes(authMiddleware, confirmLimiter))
		r.Mount("/balance", balanceHandler.Routes(authMiddleware))
		r.Mount("/credits", ledgerHandler.Routes(authMiddleware))
	})

	r.Mount("/webhooks", billingHandler.WebhookRoutes())

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mealscan/mealscan-go/internal/config"
	"github.com/mealscan/mealscan-go/internal/crypto"
	"github.com/mealscan/mealscan-go/internal/handler"
	"github.com/mealscan/mealscan-go/internal/middleware"
	"github.com/mealscan/mealscan-go/internal/nutrition"
	"github.com/mealscan/mealscan-go/internal/oauth"
	"github.com/mealscan/mealscan-go/internal/repository"
	"github.com/mealscan/mealscan-go/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg := config.Load()
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		slog.Error("database migration failed", "error", err)
		os.Exit(1)
	}

	tokens, err := crypto.NewTokenIssuer(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.JWTExpiry)
	if err != nil {
		slog.Error("token issuer setup failed", "error", err)
		os.Exit(1)
	}
	states, err := crypto.NewStateSigner(cfg.JWTSecret)
	if err != nil {
		slog.Error("oauth state signer setup failed", "error", err)
		os.Exit(1)
	}

	var google service.IdentityProvider
	if cfg.GoogleEnabled() {
		g, err := oauth.NewGoogle(oauth.GoogleConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURI,
		})
		if err != nil {
			slog.Error("google oauth setup failed", "error", err)
			os.Exit(1)
		}
		google = g
	} else {
		slog.Warn("google oauth not configured, google login disabled")
	}

	if cfg.OpenAIAPIKey == "" {
		slog.Warn("OPENAI_API_KEY not set, analyze endpoints will fail")
	}
	if cfg.DevAuthEnabled {
		slog.Warn("dev login enabled, do not use in production")
	}

	userRepo := repository.NewUserRepository(db)
	mealRepo := repository.NewMealRepository(db)

	estimator := nutrition.NewEstimator(
		nutrition.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAITimeout),
		cfg.OpenAIModel,
		cfg.OpenAIVisionModel,
	)

	authService := service.NewAuthService(userRepo, tokens, google, cfg.DevAuthEnabled)
	mealService := service.NewMealService(mealRepo)
	analyzeService := service.NewAnalyzeService(estimator, mealRepo)

	limiter := middleware.NewIPRateLimiter(cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst)
	go limiter.Run(ctx)

	router := handler.NewRouter(handler.RouterConfig{
		Auth:           handler.NewAuthHandler(authService, states, cfg.FrontendRedirectURI, cfg.IsProduction()),
		Meals:          handler.NewMealHandler(mealService),
		Analyze:        handler.NewAnalyzeHandler(analyzeService),
		MCP:            handler.NewMCPHandler(analyzeService, mealService),
		Verifier:       tokens,
		AuthRateLimit:  limiter.Handler,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	// WriteTimeout must exceed OPENAI_TIMEOUT.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.OpenAITimeout + 30*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

func setupLogger(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var h slog.Handler
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

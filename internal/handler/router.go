package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/mealscan/mealscan-go/internal/middleware"
)

// RouterConfig carries everything NewRouter mounts.
type RouterConfig struct {
	Auth    *AuthHandler
	Meals   *MealHandler
	Analyze *AnalyzeHandler
	MCP     *MCPHandler

	Verifier       middleware.TokenVerifier
	AuthRateLimit  func(http.Handler) http.Handler
	AllowedOrigins []string
}

// NewRouter builds the HTTP routes.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/", handleHealth)
	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		if cfg.AuthRateLimit != nil {
			r.Use(cfg.AuthRateLimit)
		}
		r.Get("/auth/google/login", cfg.Auth.HandleGoogleLogin)
		r.Get("/auth/google/callback", cfg.Auth.HandleGoogleCallback)
		r.Post("/auth/dev/login", cfg.Auth.HandleDevLogin)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.JWTAuth(cfg.Verifier))
		r.Get("/auth/me", cfg.Auth.HandleMe)

		r.Post("/analyze/text", cfg.Analyze.HandleText)
		r.Post("/analyze/image", cfg.Analyze.HandleImage)

		r.Post("/meals", cfg.Meals.HandleCreate)
		r.Get("/meals", cfg.Meals.HandleList)
		r.Delete("/meals/{id}", cfg.Meals.HandleDelete)

		if cfg.MCP != nil {
			r.Post("/mcp/tools/call", cfg.MCP.HandleCall)
		}
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/docvision/internal/api/handlers"
	"github.com/nikhilbhutani/docvision/internal/api/middleware"
	"github.com/nikhilbhutani/docvision/internal/audit"
	"github.com/nikhilbhutani/docvision/internal/auth"
	"github.com/nikhilbhutani/docvision/internal/cache"
	"github.com/nikhilbhutani/docvision/internal/config"
	"github.com/nikhilbhutani/docvision/internal/document"
	"github.com/nikhilbhutani/docvision/internal/llm"
	"github.com/nikhilbhutani/docvision/internal/multimodal"
)

type Router struct {
	mux   *chi.Mux
	db    *pgxpool.Pool
	redis *redis.Client
	cfg   *config.Config
	jwt   *auth.JWTMiddleware
	llmGW llm.Gateway
}

// NewRouter wires the services. db and rdb may be nil; the audit log and the
// result cache are then disabled.
func NewRouter(db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config, gw llm.Gateway) *Router {
	return &Router{
		mux:   chi.NewRouter(),
		db:    db,
		redis: rdb,
		cfg:   cfg,
		jwt:   auth.NewJWTMiddleware(cfg.Auth.JWTSecret),
		llmGW: gw,
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(rt.cfg.Server.AllowedOrigins))

	// Health endpoints (no auth, no rate limit)
	health := handlers.NewHealthHandler(rt.db, rt.redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	// Initialize services
	var recorder audit.Recorder = audit.Nop{}
	if rt.db != nil {
		recorder = audit.NewService(rt.db)
	}

	var textCache cache.TextCache = cache.Nop{}
	if rt.redis != nil && rt.cfg.Cache.TTL > 0 {
		textCache = cache.NewRedisTextCache(rt.redis, rt.cfg.Cache.TTL)
	}

	vision := multimodal.NewVisionService(rt.llmGW, rt.cfg.LLM.ChatPrompt)
	docSvc := document.NewService(vision,
		document.WithCache(textCache),
		document.WithRecorder(recorder),
		document.WithMaxPixels(rt.cfg.Upload.MaxPixels),
	)

	extractH := handlers.NewExtractHandler(docSvc, rt.llmGW.Catalog(), recorder, rt.cfg.Upload.MaxBytes)
	formH := handlers.NewFormHandler(extractH)

	rl := middleware.NewRateLimiter(rt.cfg.Server.RateLimitRPS, rt.cfg.Server.RateLimitBurst)

	// Browser form
	r.Group(func(r chi.Router) {
		r.Use(rl.Limit)
		r.Get("/", formH.Index)
		r.Post("/", formH.Submit)
	})

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rl.Limit)
		r.Use(rt.jwt.Authenticate)

		r.Post("/extract", extractH.Extract)
		r.Get("/models", extractH.Models)
		r.Get("/submissions/{id}", extractH.Submission)
	})

	return r
}

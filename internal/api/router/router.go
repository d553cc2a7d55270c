package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/wolfman30/turnos/internal/directory"
	httpmiddleware "github.com/wolfman30/turnos/internal/http/middleware"
	"github.com/wolfman30/turnos/internal/web"
	"github.com/wolfman30/turnos/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Web                *web.Handler
	Directory          *directory.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// AdminToken enables the directory write endpoints when set.
	AdminToken string

	// RateLimiter throttles form posts. Nil disables limiting.
	RateLimiter *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.Directory != nil {
		r.Route("/api", func(api chi.Router) {
			api.Use(middleware.Compress(5))
			if len(cfg.CORSAllowedOrigins) > 0 {
				api.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
			}
			api.Get("/especialidades", cfg.Directory.ListEspecialidades)
			api.Get("/especialidades/{especialidad}/medicos", cfg.Directory.ListMedicos)
			api.Get("/directorio", cfg.Directory.GetTable)

			if _, ok := cfg.Directory.Writable(); ok && cfg.AdminToken != "" {
				api.Group(func(admin chi.Router) {
					admin.Use(httpmiddleware.RequireAdminToken(cfg.AdminToken))
					admin.Put("/directorio", cfg.Directory.ReplaceTable)
					admin.Delete("/directorio", cfg.Directory.ResetTable)
				})
			}
		})
	}

	if cfg.Web != nil {
		r.Group(func(page chi.Router) {
			if cfg.RateLimiter != nil {
				page.Use(limitWrites(cfg.RateLimiter))
			}
			page.Mount("/", cfg.Web.Routes())
		})
	}

	return r
}

// limitWrites applies the limiter to form posts only; page loads are free.
func limitWrites(limiter *httpmiddleware.RateLimiter) func(http.Handler) http.Handler {
	limited := httpmiddleware.RateLimit(limiter, nil)
	return func(next http.Handler) http.Handler {
		guarded := limited(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			guarded.ServeHTTP(w, r)
		})
	}
}

func health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Package httpserver exposes the quill REST API handlers.
package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/and161185/quill/internal/pagination"
	"github.com/and161185/quill/internal/service"
)

// Pinger reports storage liveness for /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options tunes the HTTP layer.
type Options struct {
	Pagination   pagination.Mode
	CookieDomain string
	CookieSecure bool
	CORSOrigins  []string
	RateLimit    rate.Limit
	RateBurst    int
	TrustProxy   bool
	Pinger       Pinger
	Metrics      *Metrics
}

// Server wires services into HTTP handlers.
type Server struct {
	auth     service.AuthService
	articles service.ArticleService
	comments service.CommentService

	log      *zap.Logger
	validate *validator.Validate
	metrics  *Metrics
	limiter  *ipLimiter
	opts     Options
}

// New constructs a Server with injected services.
func New(
	auth service.AuthService,
	articles service.ArticleService,
	comments service.CommentService,
	log *zap.Logger,
	opts Options,
) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 20
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 40
	}
	if opts.Pagination == "" {
		opts.Pagination = pagination.ModeOffset
	}
	s := &Server{
		auth:     auth,
		articles: articles,
		comments: comments,
		log:      log,
		validate: newValidator(),
		metrics:  opts.Metrics,
		limiter:  newIPLimiter(opts.RateLimit, opts.RateBurst, 2*time.Minute),
		opts:     opts,
	}
	go s.limiter.gc(30 * time.Second)
	return s
}

// Close releases background resources.
func (s *Server) Close() { s.limiter.Stop() }

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if s.opts.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(s.logging)
	r.Use(s.recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", s.health)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.rateLimit)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.register)
			r.Post("/login", s.login)
			r.Post("/refresh", s.refresh)
			r.Post("/logout", s.required(s.logout))
			r.Get("/profile", s.required(s.profile))
		})

		r.Route("/articles", func(r chi.Router) {
			r.Get("/", s.optional(s.listArticles))
			r.Post("/", s.required(s.createArticle))

			r.Route("/{articleID}", func(r chi.Router) {
				r.Get("/", s.optional(s.getArticle))
				r.Patch("/", s.required(s.updateArticle))
				r.Delete("/", s.required(s.deleteArticle))
				r.Put("/likes", s.required(s.likeArticle))
				r.Post("/likes", s.required(s.likeArticle))

				r.Route("/comments", func(r chi.Router) {
					r.Get("/", s.optional(s.listComments))
					r.Post("/", s.required(s.createComment))
					r.Get("/{commentID}", s.optional(s.getComment))
					r.Patch("/{commentID}", s.required(s.updateComment))
					r.Delete("/{commentID}", s.required(s.deleteComment))
				})
			})
		})
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.opts.Pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.opts.Pinger.Ping(ctx); err != nil {
			s.log.Warn("health", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

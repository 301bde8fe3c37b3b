package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/secmon-lab/riskreg/pkg/domain/types"
	"github.com/secmon-lab/riskreg/pkg/usecase"
	"github.com/secmon-lab/riskreg/pkg/utils/logging"
)

// DefaultMaxRequestSize bounds a whole request body, including every attachment of a submission
const DefaultMaxRequestSize int64 = 64 << 20

type Server struct {
	router         *chi.Mux
	uc             *usecase.UseCases
	authUC         AuthUseCase
	validate       *validator.Validate
	maxRequestSize int64
	secureCookie   bool
}

type Options func(*Server)

func WithAuth(authUC AuthUseCase) Options {
	return func(s *Server) {
		s.authUC = authUC
	}
}

func WithMaxRequestSize(size int64) Options {
	return func(s *Server) {
		s.maxRequestSize = size
	}
}

// WithSecureCookie marks the session cookie Secure regardless of the request scheme,
// for deployments behind a TLS terminating proxy
func WithSecureCookie(secure bool) Options {
	return func(s *Server) {
		s.secureCookie = secure
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:         r,
		uc:             uc,
		authUC:         uc.Auth,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
		maxRequestSize: DefaultMaxRequestSize,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", healthzHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.sessionMiddleware)

		r.Post("/auth/login", s.loginHandler)
		r.Post("/auth/logout", s.logoutHandler)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(s.authUC))

			r.Get("/auth/me", s.meHandler)
			r.Get("/config", s.configHandler)

			r.Route("/reports", func(r chi.Router) {
				r.Get("/", s.listReportsHandler)
				r.Get("/match", s.matchHandler)
				r.Get("/{id}", s.getReportHandler)

				r.Group(func(r chi.Router) {
					r.Use(requireRole(types.RoleRiskOwner))
					r.Post("/", s.submitHandler)
					r.Post("/preview", s.previewHandler)
					r.Patch("/{id}/status", s.updateStatusHandler)
					r.Patch("/{id}/owner", s.assignOwnerHandler)
					r.Patch("/{id}/classification", s.updateClassificationHandler)
				})
			})

			r.Route("/merge", func(r chi.Router) {
				r.Use(requireRole(types.RoleRiskOwner))
				r.Get("/candidates", s.mergeCandidatesHandler)
				r.Get("/selection", s.getSelectionHandler)
				r.Put("/selection", s.putSelectionHandler)
				r.Delete("/selection", s.deleteSelectionHandler)
			})
		})
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		logger := logging.From(r.Context()).With("request_id", middleware.GetReqID(r.Context()))
		ctx := logging.With(r.Context(), logger)

		defer func() {
			logger.Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r.WithContext(ctx))
	})
}

func healthzHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

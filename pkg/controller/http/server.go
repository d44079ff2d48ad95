package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/stackscout/pkg/domain/model"
	"github.com/secmon-lab/stackscout/pkg/domain/model/config"
	"github.com/secmon-lab/stackscout/pkg/usecase"
	"github.com/secmon-lab/stackscout/pkg/utils/logging"
)

// RetrieveUseCase answers opportunity scoped transcript queries
type RetrieveUseCase interface {
	Retrieve(ctx context.Context, input model.RetrieveInput) ([]*model.QueryResult, error)
	ListOpportunities(ctx context.Context, namespace string, limit int) ([]string, error)
}

// ExtractUseCase runs the stack extraction agent
type ExtractUseCase interface {
	Extract(ctx context.Context, input usecase.ExtractInput) (*model.ExtractionResult, error)
}

type Server struct {
	router   *chi.Mux
	retrieve RetrieveUseCase
	extract  ExtractUseCase
	pipeline *config.PipelineConfig
}

type Options func(*Server)

func WithRetrieve(uc RetrieveUseCase) Options {
	return func(s *Server) {
		s.retrieve = uc
	}
}

// WithExtract enables /api/extract. Without it the endpoint answers 503.
func WithExtract(uc ExtractUseCase) Options {
	return func(s *Server) {
		s.extract = uc
	}
}

func WithPipelineConfig(cfg *config.PipelineConfig) Options {
	return func(s *Server) {
		s.pipeline = cfg
	}
}

func New(opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:   r,
		pipeline: config.DefaultPipelineConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Post("/retrieve", s.retrieveHandler)
		r.Get("/opportunities", s.opportunitiesHandler)
		r.Post("/extract", s.extractHandler)
		r.Post("/score", s.scoreHandler)
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

		logger := logging.Default().With("request_id", middleware.GetReqID(r.Context()))
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

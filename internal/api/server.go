// Package api serves the ledger, category registry, summaries and
// suggestions as a JSON HTTP API.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Veraticus/tally/internal/aggregate"
	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/ledger"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/suggest"
)

// Categories is the registry surface the API needs.
type Categories interface {
	List() []model.Category
	Resolve(id string) (model.Category, bool)
	ForKind(kind model.Kind) []model.Category
	Register(ctx context.Context, label, icon string) (model.Category, error)
}

// Ledger is the transaction store surface the API needs.
type Ledger interface {
	Append(ctx context.Context, d ledger.Draft) (model.Transaction, error)
	All() []model.Transaction
}

// Suggester produces advisory category suggestions.
type Suggester interface {
	Suggest(ctx context.Context, description string) (model.Suggestion, bool)
}

// Server holds the collaborators behind the HTTP handlers.
type Server struct {
	categories Categories
	ledger     Ledger
	engine     *aggregate.Engine
	suggester  Suggester
	logger     *slog.Logger
	minLength  int
	now        func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithSuggester enables POST /suggestions. Without one every request
// answers with no suggestion.
func WithSuggester(s Suggester) Option {
	return func(srv *Server) {
		srv.suggester = s
	}
}

// WithMinLength sets the shortest description sent for a suggestion.
func WithMinLength(n int) Option {
	return func(srv *Server) {
		srv.minLength = n
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(srv *Server) {
		srv.logger = logger
	}
}

// WithClock overrides the clock used to anchor summary windows and default dates.
func WithClock(now func() time.Time) Option {
	return func(srv *Server) {
		srv.now = now
	}
}

// NewServer creates an API server.
func NewServer(categories Categories, l Ledger, engine *aggregate.Engine, opts ...Option) *Server {
	s := &Server{
		categories: categories,
		ledger:     l,
		engine:     engine,
		minLength:  suggest.DefaultMinLength,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = common.LoggerOrDefault(s.logger)
	return s
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/categories", s.handleListCategories)
	r.Post("/categories", s.handleCreateCategory)
	r.Get("/transactions", s.handleListTransactions)
	r.Post("/transactions", s.handleCreateTransaction)
	r.Get("/summary", s.handleSummary)
	r.Get("/balance", s.handleBalance)
	r.Post("/suggestions", s.handleSuggest)

	return r
}

// ListenAndServe serves the API on addr until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

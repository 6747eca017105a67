// Package suggest turns free-text expense descriptions into advisory
// category suggestions. Suggestions never commit a category on their own:
// every backend failure degrades to "no suggestion".
package suggest

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
)

// DefaultTimeout bounds a single suggestion request.
const DefaultTimeout = 5 * time.Second

// ErrNoMatch is returned when the backend names a category that is not registered.
var ErrNoMatch = errors.New("suggested category does not match any registered category")

// errNoBackend marks a service constructed without a backend.
var errNoBackend = errors.New("no classification backend configured")

// Backend classifies a description against a list of candidate category labels.
type Backend interface {
	Classify(ctx context.Context, description string, categories []string) (model.Classification, error)
}

// Registry is the part of the category registry the service matches against.
type Registry interface {
	Labels() []string
	MatchLabel(label string) (model.Category, bool)
}

// Service validates backend answers and matches them to registered categories.
type Service struct {
	backend  Backend
	registry Registry
	logger   *slog.Logger
	timeout  time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithTimeout bounds each backend call. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a suggestion service. A nil backend yields a service
// that never suggests anything.
func NewService(backend Backend, registry Registry, opts ...Option) *Service {
	s := &Service{
		backend:  backend,
		registry: registry,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = common.LoggerOrDefault(s.logger)
	return s
}

// Evaluate asks the backend for a category and returns the matched
// suggestion or the reason there is none: ErrNoMatch, a ContractViolation,
// or a BackendError.
func (s *Service) Evaluate(ctx context.Context, description string) (model.Suggestion, error) {
	if s.backend == nil {
		return model.Suggestion{}, common.NewBackendError(errNoBackend)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	description = strings.TrimSpace(description)

	classification, err := s.backend.Classify(ctx, description, s.registry.Labels())
	if err != nil {
		return model.Suggestion{}, common.NewBackendError(err)
	}

	if math.IsNaN(classification.Confidence) || classification.Confidence < 0 || classification.Confidence > 1 {
		return model.Suggestion{}, common.NewContractViolation("confidence %v outside [0,1]", classification.Confidence)
	}
	if strings.TrimSpace(classification.Category) == "" {
		return model.Suggestion{}, common.NewContractViolation("empty category")
	}

	category, ok := s.registry.MatchLabel(classification.Category)
	if !ok {
		return model.Suggestion{}, ErrNoMatch
	}

	return model.Suggestion{
		CategoryID:  category.ID,
		Label:       category.Label,
		Description: description,
		Confidence:  classification.Confidence,
	}, nil
}

// Suggest is Evaluate with every failure absorbed. The boolean reports
// whether a suggestion is available.
func (s *Service) Suggest(ctx context.Context, description string) (model.Suggestion, bool) {
	suggestion, err := s.Evaluate(ctx, description)
	if err != nil {
		s.logFailure(description, err)
		return model.Suggestion{}, false
	}

	s.logger.Debug("category suggested",
		"description", suggestion.Description,
		"category_id", suggestion.CategoryID,
		"confidence", suggestion.Confidence)
	return suggestion, true
}

func (s *Service) logFailure(description string, err error) {
	switch {
	case errors.Is(err, context.Canceled):
		s.logger.Debug("suggestion canceled", "description", description)
	case errors.Is(err, ErrNoMatch):
		s.logger.Debug("suggestion discarded", "description", description, "error", err)
	case errors.Is(err, common.ErrContractViolation):
		s.logger.Warn("suggestion backend contract violation", "description", description, "error", err)
	default:
		s.logger.Debug("suggestion unavailable", "description", description, "error", err)
	}
}

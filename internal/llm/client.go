package llm

import (
	"context"

	"github.com/Veraticus/tally/internal/model"
)

// Client sends a single classification prompt to a language model provider.
type Client interface {
	Classify(ctx context.Context, prompt string) (model.Classification, error)
}

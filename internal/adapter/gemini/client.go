package gemini

import (
	"context"
	"errors"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// ErrNotConfigured is returned by adapters constructed without an API key.
// Callers decide whether that is fatal (indexing) or degradable (search,
// categorization).
var ErrNotConfigured = errors.New("gemini api key not configured")

// NewClient returns nil without error when apiKey is empty so the
// application can run in keyword-only mode.
func NewClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, nil
	}
	return genai.NewClient(ctx, option.WithAPIKey(apiKey))
}

package ai

import (
	"context"
	"errors"
)

// ErrNoAPIKey means no generative API key is configured; callers fall
// back to the deterministic formatter.
var ErrNoAPIKey = errors.New("no generative API key configured")

// Provider abstracts the generative text backend. The API key is
// passed per call because it lives in user settings and may change
// between operations.
type Provider interface {
	Name() string
	Generate(ctx context.Context, apiKey, prompt string) (string, error)
}

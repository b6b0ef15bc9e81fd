package ai

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/plmdeck/backend/internal/metrics"
	"github.com/plmdeck/backend/internal/plm"
	"github.com/plmdeck/backend/internal/schema"
	"github.com/plmdeck/backend/pkg/circuitbreaker"
	"github.com/plmdeck/backend/pkg/logger"
	"github.com/plmdeck/backend/pkg/retry"
)

// SettingsSource provides the per-user pieces the client reads at call
// time: the generative API key and the schema field selections.
type SettingsSource interface {
	APIKey(ctx context.Context) string
	Schema(ctx context.Context) schema.Config
}

// Client converts normalized records plus user intent into
// presentation-ready text. Every failure mode inside it degrades to the
// deterministic fallback; summarization never fails a slide.
type Client struct {
	provider    Provider
	settings    SettingsSource
	cb          *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
	timeout     time.Duration
}

func NewClient(provider Provider, settings SettingsSource, timeoutSec int) *Client {
	if timeoutSec == 0 {
		timeoutSec = 60
	}

	cb := circuitbreaker.NewCircuitBreaker("ai", circuitbreaker.Config{
		MaxRequests:      5,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Logger:           logger.GetLogger(),
	})

	retryConfig := retry.Config{
		MaxAttempts:    3,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		Retryable: func(err error) bool {
			return !errors.Is(err, ErrNoAPIKey)
		},
		Logger: logger.GetLogger(),
	}

	logger.Info("AI client initialized", zap.String("provider", provider.Name()))

	return &Client{
		provider:    provider,
		settings:    settings,
		cb:          cb,
		retryConfig: retryConfig,
		timeout:     time.Duration(timeoutSec) * time.Second,
	}
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	apiKey := c.settings.APIKey(ctx)
	if apiKey == "" {
		return "", ErrNoAPIKey
	}

	var response string
	start := time.Now()

	err := c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			var err error
			response, err = c.provider.Generate(ctx, apiKey, prompt)
			return err
		})
	})

	metrics.AIRequestDuration.WithLabelValues(c.provider.Name()).Observe(time.Since(start).Seconds())

	if err != nil {
		return "", err
	}
	return response, nil
}

// SummarizeRecord builds and sends the single-record prompt, parses the
// marker-delimited response, and falls back to the deterministic
// formatter on any failure.
func (c *Client) SummarizeRecord(ctx context.Context, req SummarizeRequest) Summary {
	if req.RecordType == "" {
		req.RecordType = plm.DetectRecordType(req.Record.Number)
	}
	if req.DetailLevel == "" {
		req.DetailLevel = DetailMedium
	}
	if req.Total == 0 {
		req.Total = 1
	}
	if req.Position == 0 {
		req.Position = 1
	}

	selection := c.settings.Schema(ctx).ForType(req.RecordType)
	prompt := BuildRecordPrompt(req, selection)

	response, err := c.generate(ctx, prompt)
	if err != nil {
		metrics.AIFallbackTotal.WithLabelValues(fallbackReason(err)).Inc()
		logger.Warn("Summarization degraded to fallback",
			zap.String("number", req.Record.Number),
			zap.Error(err),
		)
		return FallbackSummary(req.Record, req.RecordType)
	}

	logger.Debug("Record summarized",
		zap.String("number", req.Record.Number),
		zap.Int("response_length", len(response)),
	)

	return ParseSummary(response)
}

// SynthesizeCollection sends the holistic multi-record prompt. API
// failure yields the deterministic one-slide listing.
func (c *Client) SynthesizeCollection(ctx context.Context, entries []CollectionEntry, intent string) CollectionResult {
	for i := range entries {
		if entries[i].RecordType == "" {
			entries[i].RecordType = plm.DetectRecordType(entries[i].Record.Number)
		}
	}

	prompt := BuildCollectionPrompt(entries, intent, c.settings.Schema(ctx))

	response, err := c.generate(ctx, prompt)
	if err != nil {
		metrics.AIFallbackTotal.WithLabelValues(fallbackReason(err)).Inc()
		logger.Warn("Collection synthesis degraded to fallback",
			zap.Int("records", len(entries)),
			zap.Error(err),
		)
		return FallbackCollectionResult(entries)
	}

	result := ParseCollectionResponse(response)

	logger.Info("Collection synthesized",
		zap.Int("records", len(entries)),
		zap.Int("slides", len(result.Slides)),
	)

	return result
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, ErrNoAPIKey):
		return "no_api_key"
	case errors.Is(err, circuitbreaker.ErrCircuitOpen):
		return "circuit_open"
	default:
		return "request_failed"
	}
}

package deck

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/plmdeck/backend/internal/ai"
	"github.com/plmdeck/backend/internal/cache/redis"
	"github.com/plmdeck/backend/internal/collections"
	"github.com/plmdeck/backend/internal/metrics"
	"github.com/plmdeck/backend/internal/plm"
	"github.com/plmdeck/backend/internal/settings"
	"github.com/plmdeck/backend/internal/slides"
	"github.com/plmdeck/backend/pkg/logger"
	"github.com/plmdeck/backend/pkg/utils"
)

// RecordClient is the slice of the PLM client the engine drives.
type RecordClient interface {
	ListRecords(ctx context.Context, recordType plm.RecordType) ([]plm.Record, error)
	GetRecord(ctx context.Context, recordType plm.RecordType, guid string) (plm.Record, error)
	GetFiles(ctx context.Context, itemGUID string) ([]plm.FileInfo, error)
}

// Synthesizer is the slice of the AI client the engine drives.
type Synthesizer interface {
	SummarizeRecord(ctx context.Context, req ai.SummarizeRequest) ai.Summary
	SynthesizeCollection(ctx context.Context, entries []ai.CollectionEntry, intent string) ai.CollectionResult
}

// Engine sequences the search -> summarize -> write-slide flow. Every
// top-level operation runs under a wall-clock ceiling and converts
// failures into a result value instead of propagating them to the
// transport layer; per-record failures inside a batch are isolated so
// one bad record never sinks the rest.
type Engine struct {
	client      RecordClient
	ai          Synthesizer
	writer      *slides.Writer
	collections *collections.Store
	store       *settings.Store
	cache       *redis.Client
	cacheTTL    time.Duration
	opTimeout   time.Duration
}

type Config struct {
	OperationTimeoutSec int
	ListCacheTTLSec     int
}

func NewEngine(client RecordClient, synthesizer Synthesizer, writer *slides.Writer, cols *collections.Store, store *settings.Store, cache *redis.Client, cfg Config) *Engine {
	if cfg.OperationTimeoutSec == 0 {
		cfg.OperationTimeoutSec = 300
	}
	if cfg.ListCacheTTLSec == 0 {
		cfg.ListCacheTTLSec = 120
	}

	return &Engine{
		client:      client,
		ai:          synthesizer,
		writer:      writer,
		collections: cols,
		store:       store,
		cache:       cache,
		cacheTTL:    time.Duration(cfg.ListCacheTTLSec) * time.Second,
		opTimeout:   time.Duration(cfg.OperationTimeoutSec) * time.Second,
	}
}

// Result is the uniform outcome envelope for top-level operations.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// SearchResult carries the matched records alongside the envelope.
type SearchResult struct {
	Result
	Records []plm.Record `json:"records"`
}

// Search fetches the full listing (through the advisory cache when one
// is configured) and filters client-side.
func (e *Engine) Search(ctx context.Context, recordType plm.RecordType, term string, generic bool) SearchResult {
	ctx, cancel := context.WithTimeout(ctx, e.opTimeout)
	defer cancel()

	records, err := e.listWithCache(ctx, recordType)
	if err != nil {
		return SearchResult{Result: failure("search", err)}
	}

	matched := plm.FilterRecords(records, term, generic)

	logger.Info("Search completed",
		zap.String("type", string(recordType)),
		zap.String("term", term),
		zap.Int("matched", len(matched)),
		zap.Int("total", len(records)),
	)

	return SearchResult{
		Result:  Result{Success: true},
		Records: matched,
	}
}

func (e *Engine) listWithCache(ctx context.Context, recordType plm.RecordType) ([]plm.Record, error) {
	if e.cache == nil {
		return e.client.ListRecords(ctx, recordType)
	}

	workspace := e.store.Session(ctx).WorkspaceID
	key := utils.ListingCacheKey(workspace, string(recordType))

	if cached, found, err := e.cache.GetListing(ctx, key); err == nil && found {
		metrics.ListingCacheHits.Inc()
		return cached, nil
	}
	metrics.ListingCacheMisses.Inc()

	records, err := e.client.ListRecords(ctx, recordType)
	if err != nil {
		return nil, err
	}

	if err := e.cache.SetListing(ctx, key, records, e.cacheTTL); err != nil {
		logger.Warn("Listing cache write failed", zap.Error(err))
	}

	return records, nil
}

// GenerateRequest describes a batch slide-generation run.
type GenerateRequest struct {
	GUIDs       []string
	RecordType  plm.RecordType
	UserIntent  string
	DetailLevel ai.DetailLevel
	WithImages  bool
}

// GenerateResult reports a batch outcome. Skipped lists records that
// failed individually; their failure does not fail the batch.
type GenerateResult struct {
	Result
	SlidesCreated int      `json:"slidesCreated"`
	Skipped       []string `json:"skipped,omitempty"`
}

// Progress is invoked after each record in a batch, for streaming
// feedback surfaces. It may be nil.
type Progress func(position, total int, number string, err error)

// GenerateSlides creates one slide per requested record, sequentially.
// Records execute one at a time; the whole batch shares the operation
// ceiling, so a truncated batch keeps whatever slides were already
// written.
func (e *Engine) GenerateSlides(ctx context.Context, req GenerateRequest, progress Progress) GenerateResult {
	ctx, cancel := context.WithTimeout(ctx, e.opTimeout)
	defer cancel()

	if req.DetailLevel == "" {
		req.DetailLevel = ai.ParseDetailLevel(e.store.DetailLevel(ctx))
	}

	total := len(req.GUIDs)
	var result GenerateResult

	for i, guid := range req.GUIDs {
		if ctx.Err() != nil {
			result.Message = fmt.Sprintf("stopped after %d of %d slides: %v", result.SlidesCreated, total, ctx.Err())
			result.Success = result.SlidesCreated > 0
			return result
		}

		number, err := e.generateOne(ctx, guid, req, i+1, total)
		if progress != nil {
			progress(i+1, total, number, err)
		}
		if err != nil {
			logger.Error("Record skipped in batch",
				zap.String("guid", guid),
				zap.Error(err),
			)
			metrics.BatchRecordsSkipped.Inc()
			label := number
			if label == "" {
				label = guid
			}
			result.Skipped = append(result.Skipped, label)
			continue
		}
		result.SlidesCreated++
	}

	result.Success = result.SlidesCreated > 0 || total == 0
	if !result.Success {
		result.Message = "no slides could be generated"
	}

	return result
}

func (e *Engine) generateOne(ctx context.Context, guid string, req GenerateRequest, position, total int) (string, error) {
	recordType := req.RecordType

	rec, err := e.client.GetRecord(ctx, recordType, guid)
	if err != nil {
		return "", fmt.Errorf("failed to fetch record: %w", err)
	}

	if recordType == "" {
		recordType = plm.DetectRecordType(rec.Number)
	}

	summary := e.ai.SummarizeRecord(ctx, ai.SummarizeRequest{
		Record:      rec,
		RecordType:  recordType,
		UserIntent:  req.UserIntent,
		Position:    position,
		Total:       total,
		DetailLevel: req.DetailLevel,
	})

	if _, err := e.writer.CreateSlide(ctx, rec, recordType, summary, req.WithImages); err != nil {
		return rec.Number, err
	}
	return rec.Number, nil
}

// GenerateCollectionDeck runs the holistic synthesis over a saved
// collection and writes the proposed slides.
func (e *Engine) GenerateCollectionDeck(ctx context.Context, collectionID, intent string) GenerateResult {
	ctx, cancel := context.WithTimeout(ctx, e.opTimeout)
	defer cancel()

	col, err := e.collections.Get(ctx, collectionID)
	if err != nil {
		return GenerateResult{Result: failure("collection deck", err)}
	}

	entries := make([]ai.CollectionEntry, 0, len(col.Items))
	for _, rec := range col.Items {
		entry := ai.CollectionEntry{
			Record:     rec,
			RecordType: plm.DetectRecordType(rec.Number),
		}
		if entry.RecordType == plm.TypeItem {
			if files, err := e.client.GetFiles(ctx, rec.GUID); err == nil {
				entry.ImageCount = len(files)
			}
		}
		entries = append(entries, entry)
	}

	synthesis := e.ai.SynthesizeCollection(ctx, entries, intent)

	var result GenerateResult
	for _, content := range synthesis.Slides {
		if _, err := e.writer.CreateSynthesisSlide(ctx, content); err != nil {
			logger.Error("Synthesis slide skipped", zap.String("title", content.Title), zap.Error(err))
			result.Skipped = append(result.Skipped, content.Title)
			continue
		}
		result.SlidesCreated++
	}

	result.Success = result.SlidesCreated > 0
	if !result.Success {
		result.Message = "no slides could be generated from the collection"
	}
	return result
}

// RefreshResult mirrors the writer's refresh outcome in the result
// envelope.
type RefreshResult struct {
	Result
	Updated int      `json:"updated"`
	Skipped []string `json:"skipped,omitempty"`
}

// RefreshDeck re-identifies every generated slide and rewrites it from
// live backend data.
func (e *Engine) RefreshDeck(ctx context.Context, intent string, detail ai.DetailLevel, withImages bool) RefreshResult {
	ctx, cancel := context.WithTimeout(ctx, e.opTimeout)
	defer cancel()

	if detail == "" {
		detail = ai.ParseDetailLevel(e.store.DetailLevel(ctx))
	}

	refreshed, err := e.writer.Refresh(ctx, intent, detail, withImages)
	if err != nil {
		return RefreshResult{Result: failure("refresh", err)}
	}

	return RefreshResult{
		Result:  Result{Success: true},
		Updated: refreshed.Updated,
		Skipped: refreshed.Skipped,
	}
}

// failure converts an internal error into the user-facing envelope,
// logging full detail for diagnostics and surfacing taxonomy errors
// with their intended messages.
func failure(operation string, err error) Result {
	logger.Error("Operation failed",
		zap.String("operation", operation),
		zap.Error(err),
	)

	var validationErr *plm.ValidationError
	var featureErr *plm.FeatureUnavailableError

	switch {
	case errors.Is(err, plm.ErrAuthExpired):
		return Result{Message: plm.ErrAuthExpired.Error()}
	case errors.As(err, &validationErr):
		return Result{Message: validationErr.Error()}
	case errors.As(err, &featureErr):
		return Result{Message: featureErr.Error()}
	case errors.Is(err, plm.ErrConflict):
		return Result{Message: plm.ErrConflict.Error()}
	default:
		return Result{Message: fmt.Sprintf("%s failed: %v", operation, err)}
	}
}

package slides

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/plmdeck/backend/internal/ai"
	"github.com/plmdeck/backend/internal/metrics"
	"github.com/plmdeck/backend/internal/plm"
	"github.com/plmdeck/backend/pkg/logger"
)

const noContentPlaceholder = "No content available"

// RecordSource is the slice of the PLM client the writer needs.
type RecordSource interface {
	GetRecord(ctx context.Context, recordType plm.RecordType, guid string) (plm.Record, error)
	GetRecordByNumber(ctx context.Context, recordType plm.RecordType, number string) (plm.Record, error)
	GetFiles(ctx context.Context, itemGUID string) ([]plm.FileInfo, error)
	DownloadFileContent(ctx context.Context, itemGUID, fileGUID string) ([]byte, error)
}

// Summarizer regenerates slide text during refresh.
type Summarizer interface {
	SummarizeRecord(ctx context.Context, req ai.SummarizeRequest) ai.Summary
}

// Writer materializes record+summary pairs as slides and can later
// re-identify and update them through their embedded metadata.
type Writer struct {
	host    DocumentHost
	records RecordSource
	ai      Summarizer
}

func NewWriter(host DocumentHost, records RecordSource, summarizer Summarizer) *Writer {
	return &Writer{
		host:    host,
		records: records,
		ai:      summarizer,
	}
}

// CreateSlide appends one slide for a record. Image embedding applies
// to items only and never aborts the slide: any download problem is
// logged and the slide is written without the image.
func (w *Writer) CreateSlide(ctx context.Context, rec plm.Record, recordType plm.RecordType, summary ai.Summary, withImage bool) (string, error) {
	body := summary.MainContent
	if body == "" {
		body = noContentPlaceholder
	}

	var image *Image
	if withImage && recordType == plm.TypeItem {
		image = w.fetchFirstImage(ctx, rec.GUID)
	}

	meta := Metadata{
		GUID:        rec.GUID,
		RecordType:  recordType,
		LastUpdated: time.Now(),
	}
	if image != nil {
		meta.ImageFile = image.Name
	}

	slide := Slide{
		Title: fmt.Sprintf("%s: %s", rec.Number, rec.Name),
		Body:  body,
		Notes: buildNotes(summary.DetailedNotes, meta),
		Image: image,
	}

	id, err := w.host.AppendSlide(slide)
	if err != nil {
		return "", fmt.Errorf("failed to append slide: %w", err)
	}

	metrics.SlidesGeneratedTotal.WithLabelValues("create", string(recordType)).Inc()
	logger.Info("Slide created",
		zap.String("slide_id", id),
		zap.String("number", rec.Number),
		zap.Bool("with_image", image != nil),
	)

	return id, nil
}

// CreateSynthesisSlide appends a slide produced by collection
// synthesis, which has no single source record.
func (w *Writer) CreateSynthesisSlide(ctx context.Context, content ai.SlideContent) (string, error) {
	body := content.MainContent
	if body == "" {
		body = noContentPlaceholder
	}

	meta := Metadata{
		GUID:        "",
		RecordType:  "collection",
		LastUpdated: time.Now(),
	}

	slide := Slide{
		Title: content.Title,
		Body:  body,
		Notes: buildNotes(content.DetailedNotes, meta),
	}

	id, err := w.host.AppendSlide(slide)
	if err != nil {
		return "", fmt.Errorf("failed to append slide: %w", err)
	}

	metrics.SlidesGeneratedTotal.WithLabelValues("create", "collection").Inc()
	return id, nil
}

func buildNotes(detailedNotes string, meta Metadata) string {
	notes := strings.TrimSpace(detailedNotes)
	if notes != "" {
		notes += "\n\n"
	}
	return notes + meta.Encode()
}

func (w *Writer) fetchFirstImage(ctx context.Context, itemGUID string) *Image {
	files, err := w.records.GetFiles(ctx, itemGUID)
	if err != nil {
		logger.Warn("Skipping image, file listing failed", zap.String("item", itemGUID), zap.Error(err))
		return nil
	}

	for _, file := range files {
		if !isImageFormat(file) {
			continue
		}
		data, err := w.records.DownloadFileContent(ctx, itemGUID, file.GUID)
		if err != nil {
			logger.Warn("Skipping image, download failed",
				zap.String("item", itemGUID),
				zap.String("file", file.Name),
				zap.Error(err),
			)
			return nil
		}
		return &Image{Name: file.Name, Data: data}
	}

	return nil
}

func isImageFormat(file plm.FileInfo) bool {
	format := strings.ToLower(file.Format)
	switch format {
	case "png", "jpg", "jpeg", "gif", "bmp", "webp":
		return true
	}
	name := strings.ToLower(file.Name)
	for _, ext := range []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp"} {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// RefreshResult reports what a refresh pass did.
type RefreshResult struct {
	Updated int      `json:"updated"`
	Skipped []string `json:"skipped,omitempty"`
}

// Refresh scans every slide, re-identifies generated ones through
// their metadata block (or the legacy title heuristic), re-fetches the
// backing record, re-summarizes it, and overwrites the slide in place.
// Failures are isolated per slide.
func (w *Writer) Refresh(ctx context.Context, intent string, detail ai.DetailLevel, withImages bool) (RefreshResult, error) {
	existing, err := w.host.Slides()
	if err != nil {
		return RefreshResult{}, fmt.Errorf("failed to enumerate slides: %w", err)
	}

	var result RefreshResult

	for _, slide := range existing {
		rec, recordType, identified := w.identify(ctx, slide)
		if !identified {
			continue
		}

		summary := w.ai.SummarizeRecord(ctx, ai.SummarizeRequest{
			Record:      rec,
			RecordType:  recordType,
			UserIntent:  intent,
			Position:    1,
			Total:       1,
			DetailLevel: detail,
		})

		if err := w.overwrite(ctx, slide, rec, recordType, summary, withImages); err != nil {
			logger.Warn("Slide refresh failed, skipping",
				zap.String("slide_id", slide.ID),
				zap.Error(err),
			)
			result.Skipped = append(result.Skipped, slide.Title)
			continue
		}

		metrics.SlidesGeneratedTotal.WithLabelValues("refresh", string(recordType)).Inc()
		result.Updated++
	}

	logger.Info("Deck refreshed", zap.Int("updated", result.Updated), zap.Int("skipped", len(result.Skipped)))

	return result, nil
}

// identify resolves a slide back to its record. Metadata wins; legacy
// titles are best-effort. Slides matching neither are left alone.
func (w *Writer) identify(ctx context.Context, slide Slide) (plm.Record, plm.RecordType, bool) {
	if meta, ok := ParseMetadata(slide.Notes); ok {
		if meta.GUID == "" {
			// Synthesis slides have no backing record to refresh.
			return plm.Record{}, "", false
		}
		rec, err := w.records.GetRecord(ctx, meta.RecordType, meta.GUID)
		if err != nil {
			logger.Warn("Record fetch by guid failed",
				zap.String("guid", meta.GUID),
				zap.Error(err),
			)
			return plm.Record{}, "", false
		}
		return rec, meta.RecordType, true
	}

	number, recordType, ok := ParseLegacyTitle(slide.Title)
	if !ok {
		return plm.Record{}, "", false
	}

	rec, err := w.records.GetRecordByNumber(ctx, recordType, number)
	if err != nil {
		logger.Warn("Legacy record fetch by number failed",
			zap.String("number", number),
			zap.Error(err),
		)
		return plm.Record{}, "", false
	}
	return rec, recordType, true
}

func (w *Writer) overwrite(ctx context.Context, slide Slide, rec plm.Record, recordType plm.RecordType, summary ai.Summary, withImages bool) error {
	body := summary.MainContent
	if body == "" {
		body = noContentPlaceholder
	}

	var image *Image
	if withImages && recordType == plm.TypeItem {
		image = w.fetchFirstImage(ctx, rec.GUID)
	}

	meta := Metadata{
		GUID:        rec.GUID,
		RecordType:  recordType,
		LastUpdated: time.Now(),
	}
	if image != nil {
		meta.ImageFile = image.Name
	}

	return w.host.UpdateSlide(slide.ID, Slide{
		Title: fmt.Sprintf("%s: %s", rec.Number, rec.Name),
		Body:  body,
		Notes: buildNotes(summary.DetailedNotes, meta),
		Image: image,
	})
}

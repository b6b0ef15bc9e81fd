package slides

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/plmdeck/backend/internal/ai"
	"github.com/plmdeck/backend/internal/plm"
)

type stubRecords struct {
	byGUID        map[string]plm.Record
	byNumber      map[string]plm.Record
	files         map[string][]plm.FileInfo
	fileData      map[string][]byte
	downloadError error
}

func (s *stubRecords) GetRecord(ctx context.Context, recordType plm.RecordType, guid string) (plm.Record, error) {
	rec, ok := s.byGUID[guid]
	if !ok {
		return plm.Record{}, fmt.Errorf("record %s not found", guid)
	}
	return rec, nil
}

func (s *stubRecords) GetRecordByNumber(ctx context.Context, recordType plm.RecordType, number string) (plm.Record, error) {
	rec, ok := s.byNumber[number]
	if !ok {
		return plm.Record{}, fmt.Errorf("record %s not found", number)
	}
	return rec, nil
}

func (s *stubRecords) GetFiles(ctx context.Context, itemGUID string) ([]plm.FileInfo, error) {
	return s.files[itemGUID], nil
}

func (s *stubRecords) DownloadFileContent(ctx context.Context, itemGUID, fileGUID string) ([]byte, error) {
	if s.downloadError != nil {
		return nil, s.downloadError
	}
	return s.fileData[fileGUID], nil
}

type stubSummarizer struct {
	summary ai.Summary
	calls   int
}

func (s *stubSummarizer) SummarizeRecord(ctx context.Context, req ai.SummarizeRequest) ai.Summary {
	s.calls++
	return s.summary
}

func TestCreateSlide(t *testing.T) {
	host := NewMemoryHost()
	w := NewWriter(host, &stubRecords{}, &stubSummarizer{})

	rec := plm.Record{GUID: "g1", Number: "900-0001", Name: "Main Board"}
	summary := ai.Summary{MainContent: "• Bullet", DetailedNotes: "Narrative"}

	id, err := w.CreateSlide(context.Background(), rec, plm.TypeItem, summary, false)
	if err != nil {
		t.Fatalf("CreateSlide: %v", err)
	}
	if id == "" {
		t.Fatal("no slide id returned")
	}

	slides, _ := host.Slides()
	if len(slides) != 1 {
		t.Fatalf("slides = %d, want 1", len(slides))
	}

	slide := slides[0]
	if slide.Title != "900-0001: Main Board" {
		t.Errorf("title = %q", slide.Title)
	}
	if slide.Body != "• Bullet" {
		t.Errorf("body = %q", slide.Body)
	}
	if !strings.HasPrefix(slide.Notes, "Narrative\n\n"+MetadataMarker) {
		t.Errorf("notes = %q", slide.Notes)
	}

	meta, ok := ParseMetadata(slide.Notes)
	if !ok || meta.GUID != "g1" || meta.RecordType != plm.TypeItem {
		t.Errorf("metadata = %+v ok = %v", meta, ok)
	}
}

func TestCreateSlideEmptyContentPlaceholder(t *testing.T) {
	host := NewMemoryHost()
	w := NewWriter(host, &stubRecords{}, &stubSummarizer{})

	_, err := w.CreateSlide(context.Background(), plm.Record{GUID: "g1", Number: "900-0001"}, plm.TypeItem, ai.Summary{}, false)
	if err != nil {
		t.Fatalf("CreateSlide: %v", err)
	}

	slides, _ := host.Slides()
	if slides[0].Body != "No content available" {
		t.Errorf("body = %q", slides[0].Body)
	}
}

func TestCreateSlideWithImage(t *testing.T) {
	records := &stubRecords{
		files: map[string][]plm.FileInfo{
			"g1": {
				{GUID: "f1", Name: "datasheet.pdf", Format: "pdf"},
				{GUID: "f2", Name: "board.png", Format: "png"},
			},
		},
		fileData: map[string][]byte{"f2": []byte("png-bytes")},
	}
	host := NewMemoryHost()
	w := NewWriter(host, records, &stubSummarizer{})

	_, err := w.CreateSlide(context.Background(), plm.Record{GUID: "g1", Number: "900-0001", Name: "Board"}, plm.TypeItem, ai.Summary{MainContent: "x"}, true)
	if err != nil {
		t.Fatalf("CreateSlide: %v", err)
	}

	slides, _ := host.Slides()
	if slides[0].Image == nil {
		t.Fatal("expected image on slide")
	}
	if slides[0].Image.Name != "board.png" {
		t.Errorf("image = %q, want first image-format file", slides[0].Image.Name)
	}

	meta, _ := ParseMetadata(slides[0].Notes)
	if meta.ImageFile != "board.png" {
		t.Errorf("metadata image = %q", meta.ImageFile)
	}
}

func TestCreateSlideImageFailureIsNonFatal(t *testing.T) {
	records := &stubRecords{
		files: map[string][]plm.FileInfo{
			"g1": {{GUID: "f1", Name: "board.png", Format: "png"}},
		},
		downloadError: errors.New("download failed"),
	}
	host := NewMemoryHost()
	w := NewWriter(host, records, &stubSummarizer{})

	_, err := w.CreateSlide(context.Background(), plm.Record{GUID: "g1", Number: "900-0001"}, plm.TypeItem, ai.Summary{MainContent: "x"}, true)
	if err != nil {
		t.Fatalf("image failure must not fail the slide: %v", err)
	}

	slides, _ := host.Slides()
	if slides[0].Image != nil {
		t.Error("expected slide without image")
	}
}

func TestCreateSlideNoImageForChanges(t *testing.T) {
	records := &stubRecords{
		files: map[string][]plm.FileInfo{
			"g1": {{GUID: "f1", Name: "board.png", Format: "png"}},
		},
		fileData: map[string][]byte{"f1": []byte("x")},
	}
	host := NewMemoryHost()
	w := NewWriter(host, records, &stubSummarizer{})

	_, err := w.CreateSlide(context.Background(), plm.Record{GUID: "g1", Number: "ECO-000001"}, plm.TypeChange, ai.Summary{MainContent: "x"}, true)
	if err != nil {
		t.Fatalf("CreateSlide: %v", err)
	}

	slides, _ := host.Slides()
	if slides[0].Image != nil {
		t.Error("images apply to items only")
	}
}

func TestRefreshIdentifiesByGUID(t *testing.T) {
	// The record's number changed since the slide was written; the GUID
	// in the metadata block must win over the stale title.
	records := &stubRecords{
		byGUID: map[string]plm.Record{
			"g1": {GUID: "g1", Number: "900-0001-B", Name: "Main Board rev B"},
		},
	}
	summarizer := &stubSummarizer{summary: ai.Summary{MainContent: "refreshed", DetailedNotes: "notes"}}
	host := NewMemoryHost()
	w := NewWriter(host, records, summarizer)

	staleMeta := Metadata{GUID: "g1", RecordType: plm.TypeItem}
	host.AppendSlide(Slide{
		Title: "900-0001: Main Board",
		Body:  "old body",
		Notes: "old notes\n\n" + staleMeta.Encode(),
	})

	result, err := w.Refresh(context.Background(), "", ai.DetailMedium, false)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if result.Updated != 1 {
		t.Fatalf("updated = %d, want 1", result.Updated)
	}

	slides, _ := host.Slides()
	if slides[0].Title != "900-0001-B: Main Board rev B" {
		t.Errorf("title = %q, want fresh record data", slides[0].Title)
	}
	if slides[0].Body != "refreshed" {
		t.Errorf("body = %q", slides[0].Body)
	}
}

func TestRefreshLegacyTitleFallback(t *testing.T) {
	records := &stubRecords{
		byNumber: map[string]plm.Record{
			"ECO-000042": {GUID: "g7", Number: "ECO-000042", Name: "Firmware rev bump"},
		},
	}
	summarizer := &stubSummarizer{summary: ai.Summary{MainContent: "refreshed"}}
	host := NewMemoryHost()
	w := NewWriter(host, records, summarizer)

	host.AppendSlide(Slide{
		Title: "ECO-000042: Firmware rev bump",
		Notes: "hand-written notes without any metadata",
	})

	result, err := w.Refresh(context.Background(), "", ai.DetailMedium, false)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if result.Updated != 1 {
		t.Fatalf("updated = %d, want 1", result.Updated)
	}

	// The refreshed slide gains a metadata block so the next refresh
	// can identify it by GUID.
	slides, _ := host.Slides()
	meta, ok := ParseMetadata(slides[0].Notes)
	if !ok || meta.GUID != "g7" {
		t.Errorf("metadata = %+v ok = %v", meta, ok)
	}
}

func TestRefreshLeavesForeignSlidesAlone(t *testing.T) {
	summarizer := &stubSummarizer{summary: ai.Summary{MainContent: "refreshed"}}
	host := NewMemoryHost()
	w := NewWriter(host, &stubRecords{}, summarizer)

	host.AppendSlide(Slide{Title: "Quarterly Review", Body: "hand-made"})

	result, err := w.Refresh(context.Background(), "", ai.DetailMedium, false)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if result.Updated != 0 {
		t.Errorf("updated = %d, want 0", result.Updated)
	}
	if summarizer.calls != 0 {
		t.Errorf("summarizer calls = %d, want 0", summarizer.calls)
	}

	slides, _ := host.Slides()
	if slides[0].Body != "hand-made" {
		t.Errorf("foreign slide modified: %q", slides[0].Body)
	}
}

func TestRefreshSkipsSynthesisSlides(t *testing.T) {
	// The second synthesis title names a record number that exists, so a
	// fall-through to the title heuristic would rewrite the slide.
	records := &stubRecords{
		byNumber: map[string]plm.Record{
			"ECO-000123": {GUID: "g-eco", Number: "ECO-000123", Name: "Record"},
		},
	}
	summarizer := &stubSummarizer{summary: ai.Summary{MainContent: "regenerated"}}
	host := NewMemoryHost()
	w := NewWriter(host, records, summarizer)

	for _, content := range []ai.SlideContent{
		{Title: "Collection Overview", MainContent: "overview"},
		{Title: "ECO-000123: Firmware corrective-action chain", MainContent: "synthesis body"},
	} {
		if _, err := w.CreateSynthesisSlide(context.Background(), content); err != nil {
			t.Fatalf("CreateSynthesisSlide: %v", err)
		}
	}

	result, err := w.Refresh(context.Background(), "", ai.DetailMedium, false)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if result.Updated != 0 {
		t.Errorf("updated = %d, synthesis slides have no record to refresh", result.Updated)
	}

	after, _ := host.Slides()
	if after[1].Body != "synthesis body" {
		t.Errorf("synthesis slide rewritten: body = %q", after[1].Body)
	}
	if after[1].Title != "ECO-000123: Firmware corrective-action chain" {
		t.Errorf("synthesis slide retitled: %q", after[1].Title)
	}
}

func TestRefreshIsolatesFailures(t *testing.T) {
	records := &stubRecords{
		byGUID: map[string]plm.Record{
			"good": {GUID: "good", Number: "900-0001", Name: "Board"},
		},
	}
	summarizer := &stubSummarizer{summary: ai.Summary{MainContent: "refreshed"}}
	host := NewMemoryHost()
	w := NewWriter(host, records, summarizer)

	host.AppendSlide(Slide{
		Title: "900-0002: Gone",
		Notes: Metadata{GUID: "missing", RecordType: plm.TypeItem}.Encode(),
	})
	host.AppendSlide(Slide{
		Title: "900-0001: Board",
		Notes: Metadata{GUID: "good", RecordType: plm.TypeItem}.Encode(),
	})

	result, err := w.Refresh(context.Background(), "", ai.DetailMedium, false)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if result.Updated != 1 {
		t.Errorf("updated = %d, want the healthy slide refreshed", result.Updated)
	}
}

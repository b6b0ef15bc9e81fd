package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/plmdeck/backend/internal/plm"
	"github.com/plmdeck/backend/internal/schema"
)

type stubSettings struct {
	apiKey string
	cfg    schema.Config
}

func (s stubSettings) APIKey(ctx context.Context) string { return s.apiKey }

func (s stubSettings) Schema(ctx context.Context) schema.Config { return s.cfg }

type stubProvider struct {
	response string
	err      error
	calls    int
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Generate(ctx context.Context, apiKey, prompt string) (string, error) {
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	return p.response, nil
}

func TestSummarizeRecordSuccess(t *testing.T) {
	provider := &stubProvider{
		response: "MAIN CONTENT:\n• Generated bullet\nDETAILED NOTES:\nGenerated narrative",
	}
	client := NewClient(provider, stubSettings{apiKey: "key"}, 5)

	summary := client.SummarizeRecord(context.Background(), SummarizeRequest{
		Record: plm.Record{Number: "900-0001", Name: "Main Board"},
	})

	if summary.MainContent != "• Generated bullet" {
		t.Errorf("MainContent = %q", summary.MainContent)
	}
	if summary.DetailedNotes != "Generated narrative" {
		t.Errorf("DetailedNotes = %q", summary.DetailedNotes)
	}
	if provider.calls != 1 {
		t.Errorf("provider calls = %d, want 1", provider.calls)
	}
}

func TestSummarizeRecordNoAPIKey(t *testing.T) {
	provider := &stubProvider{response: "should never be used"}
	client := NewClient(provider, stubSettings{}, 5)

	summary := client.SummarizeRecord(context.Background(), SummarizeRequest{
		Record: plm.Record{Number: "ECO-000003", Name: "Respin", Description: "Board respin"},
	})

	if provider.calls != 0 {
		t.Errorf("provider calls = %d, want 0 without an API key", provider.calls)
	}
	if !strings.HasPrefix(summary.MainContent, "• Change Number: ECO-000003") {
		t.Errorf("expected deterministic fallback, got %q", summary.MainContent)
	}
	if summary.DetailedNotes != "ECO-000003: Respin" {
		t.Errorf("DetailedNotes = %q", summary.DetailedNotes)
	}
}

func TestSummarizeRecordProviderFailure(t *testing.T) {
	provider := &stubProvider{err: errors.New("upstream unavailable")}
	client := NewClient(provider, stubSettings{apiKey: "key"}, 5)

	summary := client.SummarizeRecord(context.Background(), SummarizeRequest{
		Record:     plm.Record{Number: "900-0002", Name: "Power Supply"},
		RecordType: plm.TypeItem,
	})

	if provider.calls == 0 {
		t.Fatal("provider was never attempted")
	}
	if !strings.HasPrefix(summary.MainContent, "• Item Number: 900-0002") {
		t.Errorf("expected deterministic fallback, got %q", summary.MainContent)
	}
}

func TestSynthesizeCollectionSuccess(t *testing.T) {
	provider := &stubProvider{
		response: "SYNTHESIS:\nOne wave.\nSLIDES:\nSLIDE 1: Overview\nMAIN CONTENT:\n• Bullet",
	}
	client := NewClient(provider, stubSettings{apiKey: "key"}, 5)

	result := client.SynthesizeCollection(context.Background(), []CollectionEntry{
		{Record: plm.Record{Number: "900-0001", Name: "Main Board"}},
	}, "executive review")

	if result.Synthesis != "One wave." {
		t.Errorf("Synthesis = %q", result.Synthesis)
	}
	if len(result.Slides) != 1 || result.Slides[0].Title != "Overview" {
		t.Errorf("unexpected slides: %+v", result.Slides)
	}
}

func TestSynthesizeCollectionFallback(t *testing.T) {
	provider := &stubProvider{response: "unused"}
	client := NewClient(provider, stubSettings{}, 5)

	result := client.SynthesizeCollection(context.Background(), []CollectionEntry{
		{Record: plm.Record{Number: "900-0001", Name: "Main Board"}},
		{Record: plm.Record{Number: "CAR-000001", Name: "Solder audit"}},
	}, "")

	if provider.calls != 0 {
		t.Errorf("provider calls = %d, want 0", provider.calls)
	}
	if len(result.Slides) != 1 || result.Slides[0].Title != "Collection Overview" {
		t.Fatalf("expected one overview slide, got %+v", result.Slides)
	}
	// Untyped entries are inferred from the number prefix before the
	// fallback runs.
	if !strings.Contains(result.Slides[0].MainContent, "(quality)") {
		t.Errorf("quality type not inferred: %q", result.Slides[0].MainContent)
	}
}

package ai

import (
	"strings"
	"testing"
)

func TestParseSummary(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantMain  string
		wantNotes string
	}{
		{
			name:      "both markers",
			raw:       "MAIN CONTENT:\n• Point one\n• Point two\nDETAILED NOTES:\nLonger narrative here.",
			wantMain:  "• Point one\n• Point two",
			wantNotes: "Longer narrative here.",
		},
		{
			name:      "case-insensitive markers",
			raw:       "main content: bullets\ndetailed notes: narrative",
			wantMain:  "bullets",
			wantNotes: "narrative",
		},
		{
			name:      "main marker only",
			raw:       "MAIN CONTENT:\neverything goes to main",
			wantMain:  "everything goes to main",
			wantNotes: "",
		},
		{
			name:      "notes marker only",
			raw:       "leading text\nDETAILED NOTES:\nthe notes",
			wantMain:  "leading text",
			wantNotes: "the notes",
		},
		{
			name:      "single line no markers",
			raw:       "just one line",
			wantMain:  "just one line",
			wantNotes: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseSummary(tt.raw)
			if got.MainContent != tt.wantMain {
				t.Errorf("MainContent = %q, want %q", got.MainContent, tt.wantMain)
			}
			if got.DetailedNotes != tt.wantNotes {
				t.Errorf("DetailedNotes = %q, want %q", got.DetailedNotes, tt.wantNotes)
			}
		})
	}
}

func TestParseSummaryHalving(t *testing.T) {
	// Four unmarked lines split floor(4/2): two lines each side.
	got := ParseSummary("one\ntwo\nthree\nfour")
	if got.MainContent != "one\ntwo" {
		t.Errorf("MainContent = %q", got.MainContent)
	}
	if got.DetailedNotes != "three\nfour" {
		t.Errorf("DetailedNotes = %q", got.DetailedNotes)
	}

	// Five lines: floor(5/2) = 2 up front.
	got = ParseSummary("a\nb\nc\nd\ne")
	if got.MainContent != "a\nb" {
		t.Errorf("MainContent = %q", got.MainContent)
	}
	if got.DetailedNotes != "c\nd\ne" {
		t.Errorf("DetailedNotes = %q", got.DetailedNotes)
	}
}

func TestParseCollectionResponse(t *testing.T) {
	raw := strings.Join([]string{
		"SYNTHESIS:",
		"These records form one product change wave.",
		"PRESENTATION STRUCTURE:",
		"Open with the item, then the change.",
		"SLIDES:",
		"SLIDE 1: Product Overview",
		"MAIN CONTENT:",
		"• The flagship assembly",
		"DETAILED NOTES:",
		"Speaker detail for slide one.",
		"SLIDE 2: Change Summary",
		"MAIN CONTENT:",
		"• What the ECO touches",
	}, "\n")

	result := ParseCollectionResponse(raw)

	if result.Synthesis != "These records form one product change wave." {
		t.Errorf("Synthesis = %q", result.Synthesis)
	}
	if result.Structure != "Open with the item, then the change." {
		t.Errorf("Structure = %q", result.Structure)
	}
	if len(result.Slides) != 2 {
		t.Fatalf("slides = %d, want 2", len(result.Slides))
	}

	if result.Slides[0].Title != "Product Overview" {
		t.Errorf("slide 1 title = %q", result.Slides[0].Title)
	}
	if result.Slides[0].MainContent != "• The flagship assembly" {
		t.Errorf("slide 1 main = %q", result.Slides[0].MainContent)
	}
	if result.Slides[0].DetailedNotes != "Speaker detail for slide one." {
		t.Errorf("slide 1 notes = %q", result.Slides[0].DetailedNotes)
	}
	if result.Slides[1].Title != "Change Summary" {
		t.Errorf("slide 2 title = %q", result.Slides[1].Title)
	}
}

func TestParseCollectionResponseNoSlides(t *testing.T) {
	result := ParseCollectionResponse("SYNTHESIS:\nA narrative with no slide blocks.")

	if len(result.Slides) != 1 {
		t.Fatalf("slides = %d, want exactly one overview slide", len(result.Slides))
	}
	if result.Slides[0].Title != "Collection Overview" {
		t.Errorf("title = %q", result.Slides[0].Title)
	}
	if result.Slides[0].MainContent != "A narrative with no slide blocks." {
		t.Errorf("main = %q", result.Slides[0].MainContent)
	}
}

func TestParseCollectionResponseUnstructured(t *testing.T) {
	result := ParseCollectionResponse("The model ignored every instruction.")

	if len(result.Slides) != 1 {
		t.Fatalf("slides = %d, want 1", len(result.Slides))
	}
	if result.Slides[0].MainContent != "The model ignored every instruction." {
		t.Errorf("raw response should become the overview body, got %q", result.Slides[0].MainContent)
	}
}

func TestParseDetailLevel(t *testing.T) {
	tests := []struct {
		in   string
		want DetailLevel
	}{
		{"brief", DetailBrief},
		{"medium", DetailMedium},
		{"detailed", DetailDetailed},
		{"", DetailMedium},
		{"verbose", DetailMedium},
	}

	for _, tt := range tests {
		if got := ParseDetailLevel(tt.in); got != tt.want {
			t.Errorf("ParseDetailLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

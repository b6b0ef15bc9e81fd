package plm

import (
	"testing"
)

func TestNormalizeRecord(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want Record
	}{
		{
			name: "lowercase keys",
			raw: map[string]any{
				"guid":        "abc-123",
				"number":      "900-0001",
				"name":        "Main Board",
				"description": "Assembled PCB",
			},
			want: Record{GUID: "abc-123", Number: "900-0001", Name: "Main Board", Description: "Assembled PCB"},
		},
		{
			name: "capitalized keys",
			raw: map[string]any{
				"Guid":   "def-456",
				"Number": "ECO-000012",
				"Name":   "Firmware rev bump",
			},
			want: Record{GUID: "def-456", Number: "ECO-000012", Name: "Firmware rev bump"},
		},
		{
			name: "lowercase wins over capitalized",
			raw: map[string]any{
				"guid": "lower",
				"Guid": "upper",
				"name": "correct",
				"Name": "stale",
			},
			want: Record{GUID: "lower", Name: "correct"},
		},
		{
			name: "title fallback for name",
			raw: map[string]any{
				"guid":  "ghi-789",
				"title": "Corrective Action",
			},
			want: Record{GUID: "ghi-789", Name: "Corrective Action"},
		},
		{
			name: "nested category and lifecycle",
			raw: map[string]any{
				"guid":           "jkl-012",
				"category":       map[string]any{"name": "Electrical", "guid": "cat-1"},
				"lifecyclePhase": map[string]any{"Name": "Production"},
			},
			want: Record{GUID: "jkl-012", Category: "Electrical", LifecyclePhase: "Production"},
		},
		{
			name: "string category",
			raw: map[string]any{
				"guid":     "mno-345",
				"category": "Mechanical",
			},
			want: Record{GUID: "mno-345", Category: "Mechanical"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeRecord(tt.raw)

			if got.GUID != tt.want.GUID {
				t.Errorf("GUID = %q, want %q", got.GUID, tt.want.GUID)
			}
			if got.Number != tt.want.Number {
				t.Errorf("Number = %q, want %q", got.Number, tt.want.Number)
			}
			if got.Name != tt.want.Name {
				t.Errorf("Name = %q, want %q", got.Name, tt.want.Name)
			}
			if got.Description != tt.want.Description {
				t.Errorf("Description = %q, want %q", got.Description, tt.want.Description)
			}
			if got.Category != tt.want.Category {
				t.Errorf("Category = %q, want %q", got.Category, tt.want.Category)
			}
			if got.LifecyclePhase != tt.want.LifecyclePhase {
				t.Errorf("LifecyclePhase = %q, want %q", got.LifecyclePhase, tt.want.LifecyclePhase)
			}
		})
	}
}

func TestNormalizeRecordAttributes(t *testing.T) {
	rec := NormalizeRecord(map[string]any{
		"Guid":         "abc",
		"CustomColumn": "value",
		"revision":     "B",
	})

	if rec.Attributes["guid"] != "abc" {
		t.Errorf("attribute guid = %v, want abc", rec.Attributes["guid"])
	}
	if rec.Attributes["customColumn"] != "value" {
		t.Errorf("attribute customColumn = %v, want value", rec.Attributes["customColumn"])
	}
	if rec.Attributes["revision"] != "B" {
		t.Errorf("attribute revision = %v, want B", rec.Attributes["revision"])
	}
}

func TestNormalizeRecordAttributesBothCasings(t *testing.T) {
	// Map iteration order is randomized, so run enough times to catch
	// an order-dependent winner.
	for i := 0; i < 200; i++ {
		rec := NormalizeRecord(map[string]any{
			"guid": "lower",
			"Guid": "upper",
		})
		if rec.Attributes["guid"] != "lower" {
			t.Fatalf("iteration %d: attribute guid = %v, want lower", i, rec.Attributes["guid"])
		}
		if _, ok := rec.Attributes["Guid"]; ok {
			t.Fatalf("iteration %d: capitalized key survived normalization", i)
		}
	}
}

func TestExtractResults(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{
			name: "lowercase envelope",
			body: map[string]any{"results": []any{map[string]any{"guid": "a"}, map[string]any{"guid": "b"}}},
			want: 2,
		},
		{
			name: "capitalized envelope",
			body: map[string]any{"Results": []any{map[string]any{"guid": "a"}}},
			want: 1,
		},
		{
			name: "missing envelope",
			body: map[string]any{"count": float64(0)},
			want: 0,
		},
		{
			name: "non-array envelope",
			body: map[string]any{"results": "oops"},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractResults(tt.body)
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestMatchesTerm(t *testing.T) {
	rec := Record{
		Number:      "900-0001",
		Name:        "Main Controller Board",
		Description: "Assembled PCB with power regulation",
	}

	tests := []struct {
		term string
		want bool
	}{
		{"controller", true},
		{"CONTROLLER", true},
		{"900-", true},
		{"power regulation", true},
		{"hydraulic", false},
		{"", true},
	}

	for _, tt := range tests {
		if got := MatchesTerm(rec, tt.term); got != tt.want {
			t.Errorf("MatchesTerm(%q) = %v, want %v", tt.term, got, tt.want)
		}
	}
}

func TestMatchesAnyField(t *testing.T) {
	rec := Record{
		Number: "900-0001",
		Attributes: map[string]any{
			"number":       "900-0001",
			"customColumn": "titanium housing",
		},
	}

	if !MatchesAnyField(rec, "Titanium") {
		t.Error("expected generic match on custom attribute")
	}
	if MatchesAnyField(rec, "aluminium") {
		t.Error("unexpected generic match")
	}
}

func TestDetectRecordType(t *testing.T) {
	tests := []struct {
		number string
		want   RecordType
	}{
		{"ECO-000042", TypeChange},
		{"eco-000042", TypeChange},
		{"ECR-000007", TypeRequest},
		{"CAR-000003", TypeQuality},
		{"NCMR-000001", TypeQuality},
		{"NCR-000009", TypeQuality},
		{"900-0001", TypeItem},
		{"", TypeItem},
	}

	for _, tt := range tests {
		if got := DetectRecordType(tt.number); got != tt.want {
			t.Errorf("DetectRecordType(%q) = %v, want %v", tt.number, got, tt.want)
		}
	}
}

func TestFilterRecords(t *testing.T) {
	records := []Record{
		{Number: "900-0001", Name: "Main Board"},
		{Number: "900-0002", Name: "Power Supply", Description: "24V module"},
		{Number: "ECO-000001", Name: "Board respin"},
	}

	matched := FilterRecords(records, "board", false)
	if len(matched) != 2 {
		t.Fatalf("matched = %d, want 2", len(matched))
	}
	if matched[0].Number != "900-0001" || matched[1].Number != "ECO-000001" {
		t.Errorf("listing order not preserved: %v, %v", matched[0].Number, matched[1].Number)
	}

	if got := FilterRecords(records, "", false); len(got) != 3 {
		t.Errorf("empty term should pass everything through, got %d", len(got))
	}
}

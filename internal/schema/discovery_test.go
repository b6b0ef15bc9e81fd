package schema

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/plmdeck/backend/internal/plm"
)

type stubLister struct {
	records map[plm.RecordType][]plm.Record
	err     map[plm.RecordType]error
}

func (s *stubLister) ListRecords(ctx context.Context, recordType plm.RecordType) ([]plm.Record, error) {
	if err := s.err[recordType]; err != nil {
		return nil, err
	}
	return s.records[recordType], nil
}

func TestFieldsOf(t *testing.T) {
	rec := plm.Record{
		Attributes: map[string]any{
			"number":               "900-0001",
			"name":                 "Main Board",
			"guid":                 "abc",
			"url":                  "https://example.com",
			"creationDateTime":     "2024-01-01T00:00:00Z",
			"category":             map[string]any{"name": "Electrical"},
			"supplier":             map[string]any{"name": "Acme"},
			"revisionHistory":      []any{"A", "B"},
			"Zebra":                "sorts last alphabetically, case aside",
		},
	}

	fields := FieldsOf(rec)

	want := []string{"category", "name", "number", "revisionHistory", "Zebra"}
	if !reflect.DeepEqual(fields, want) {
		t.Errorf("fields = %v, want %v", fields, want)
	}
}

func TestFieldsOfExcludesSystemFields(t *testing.T) {
	rec := plm.Record{
		Attributes: map[string]any{
			"guid":                 "a",
			"apiUrl":               "x",
			"appUrl":               "y",
			"modificationDateTime": "z",
			"lastModifiedDateTime": "z",
			"effectivityDateTime":  "z",
			"number":               "900-0001",
		},
	}

	fields := FieldsOf(rec)
	if len(fields) != 1 || fields[0] != "number" {
		t.Errorf("fields = %v, want [number]", fields)
	}
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name       string
		discovered []string
		saved      []string
		want       []string
	}{
		{
			name:       "empty saved selects everything",
			discovered: []string{"name", "number"},
			saved:      nil,
			want:       []string{"name", "number"},
		},
		{
			name:       "intersection in discovery order",
			discovered: []string{"category", "name", "number"},
			saved:      []string{"number", "name"},
			want:       []string{"name", "number"},
		},
		{
			name:       "stale selections dropped",
			discovered: []string{"name"},
			saved:      []string{"name", "removedField"},
			want:       []string{"name"},
		},
		{
			name:       "no overlap",
			discovered: []string{"name"},
			saved:      []string{"gone"},
			want:       []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.discovered, tt.saved)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Merge = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDiscoverFieldsFallsBackToDefaults(t *testing.T) {
	lister := &stubLister{
		err: map[plm.RecordType]error{
			plm.TypeQuality: errors.New("endpoint unavailable"),
		},
	}
	d := NewDiscovery(lister)

	fields := d.DiscoverFields(context.Background(), plm.TypeQuality)
	want := []string{"number", "name", "description", "owner", "status"}
	if !reflect.DeepEqual(fields, want) {
		t.Errorf("fields = %v, want defaults %v", fields, want)
	}
}

func TestDiscoverAllIsolatesFailures(t *testing.T) {
	lister := &stubLister{
		records: map[plm.RecordType][]plm.Record{
			plm.TypeItem: {{Attributes: map[string]any{"number": "900-0001", "name": "Board"}}},
		},
		err: map[plm.RecordType]error{
			plm.TypeChange: errors.New("listing failed"),
		},
	}
	d := NewDiscovery(lister)

	saved := Config{
		Item: FieldSelection{Fields: []string{"name"}, Instructions: "keep it short"},
	}
	merged := d.DiscoverAll(context.Background(), saved)

	// The live item sample intersected with the saved selection.
	if !reflect.DeepEqual(merged.Item.Fields, []string{"name"}) {
		t.Errorf("item fields = %v", merged.Item.Fields)
	}
	if merged.Item.Instructions != "keep it short" {
		t.Errorf("instructions not preserved: %q", merged.Item.Instructions)
	}

	// The failed change listing degrades to defaults rather than
	// poisoning the whole discovery.
	if len(merged.Change.Fields) == 0 {
		t.Error("change fields empty, expected defaults")
	}
}

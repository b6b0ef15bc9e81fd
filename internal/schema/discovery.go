package schema

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/plmdeck/backend/internal/plm"
	"github.com/plmdeck/backend/pkg/logger"
)

// Discovery infers which fields each record type exposes by sampling
// one live record per type and reading its top-level keys.

// System fields are never offered for selection, in either casing.
var excludedFields = map[string]bool{
	"guid":                 true,
	"url":                  true,
	"apiurl":               true,
	"appurl":               true,
	"creationdatetime":     true,
	"modificationdatetime": true,
	"lastmodifieddatetime": true,
	"effectivitydatetime":  true,
}

// Nested objects are opaque to the AI prompt except for this short
// allow-list, whose name field is worth surfacing.
var nestedAllowList = map[string]bool{
	"category":       true,
	"lifecyclephase": true,
	"owner":          true,
	"creator":        true,
	"status":         true,
}

// defaultFields substitute for a type whose sample fetch failed, so a
// partial outage does not block discovery of the other types.
var defaultFields = map[plm.RecordType][]string{
	plm.TypeItem:    {"number", "name", "description", "category", "lifecyclePhase"},
	plm.TypeChange:  {"number", "title", "description", "category", "status"},
	plm.TypeRequest: {"number", "name", "description", "status"},
	plm.TypeQuality: {"number", "name", "description", "owner", "status"},
}

// Lister is the slice of the PLM client discovery needs.
type Lister interface {
	ListRecords(ctx context.Context, recordType plm.RecordType) ([]plm.Record, error)
}

type Discovery struct {
	client Lister
}

func NewDiscovery(client Lister) *Discovery {
	return &Discovery{client: client}
}

// DiscoverFields samples one record of the given type and returns its
// selectable field names, sorted case-insensitively. A fetch error
// yields the hand-written defaults for that type.
func (d *Discovery) DiscoverFields(ctx context.Context, recordType plm.RecordType) []string {
	records, err := d.client.ListRecords(ctx, recordType)
	if err != nil || len(records) == 0 {
		if err != nil {
			logger.Warn("Field discovery fell back to defaults",
				zap.String("type", string(recordType)),
				zap.Error(err),
			)
		}
		return append([]string(nil), defaultFields[recordType]...)
	}

	return FieldsOf(records[0])
}

// FieldsOf extracts the selectable fields from a single normalized
// record: exclusion list stripped, nested objects kept only when
// allow-listed, arrays and primitives always kept.
func FieldsOf(rec plm.Record) []string {
	fields := make([]string, 0, len(rec.Attributes))
	for name, value := range rec.Attributes {
		lower := strings.ToLower(name)
		if excludedFields[lower] {
			continue
		}
		if _, isObject := value.(map[string]any); isObject && !nestedAllowList[lower] {
			continue
		}
		fields = append(fields, name)
	}

	sort.Slice(fields, func(i, j int) bool {
		return strings.ToLower(fields[i]) < strings.ToLower(fields[j])
	})

	return fields
}

// Merge applies the user's saved selection to freshly discovered
// fields. An empty saved selection means the user has no preference, so
// everything discovered is selected. Otherwise only discovered fields
// that were previously selected survive, in discovery order; selections
// for fields that no longer exist are silently dropped.
func Merge(discovered, saved []string) []string {
	if len(saved) == 0 {
		return append([]string(nil), discovered...)
	}

	savedSet := make(map[string]bool, len(saved))
	for _, name := range saved {
		savedSet[name] = true
	}

	merged := make([]string, 0, len(discovered))
	for _, name := range discovered {
		if savedSet[name] {
			merged = append(merged, name)
		}
	}
	return merged
}

// DiscoverAll runs discovery for every record type and merges each
// against the saved config. Failure of one type never blocks the rest.
func (d *Discovery) DiscoverAll(ctx context.Context, saved Config) Config {
	merged := saved
	for _, recordType := range []plm.RecordType{plm.TypeItem, plm.TypeChange, plm.TypeRequest, plm.TypeQuality} {
		discovered := d.DiscoverFields(ctx, recordType)
		prior := saved.ForType(recordType)
		merged.SetForType(recordType, FieldSelection{
			Fields:       Merge(discovered, prior.Fields),
			Instructions: prior.Instructions,
		})
	}

	logger.Info("Schema discovery completed",
		zap.Int("item_fields", len(merged.Item.Fields)),
		zap.Int("change_fields", len(merged.Change.Fields)),
		zap.Int("request_fields", len(merged.Request.Fields)),
		zap.Int("quality_fields", len(merged.Quality.Fields)),
	)

	return merged
}

package plm

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
)

// The backend is inconsistent about key casing: the same field arrives
// as "guid" on some endpoints and "Guid" on others, and list envelopes
// use either "results" or "Results". Normalization happens once here,
// at receipt; downstream code only ever sees the canonical Record.

// pickString resolves a dual-cased string field. The lowercase form
// wins when both casings are present.
func pickString(raw map[string]any, key string) string {
	if v, ok := raw[key].(string); ok && v != "" {
		return v
	}
	if v, ok := raw[capitalize(key)].(string); ok {
		return v
	}
	return ""
}

func pickValue(raw map[string]any, key string) (any, bool) {
	if v, ok := raw[key]; ok && v != nil {
		return v, true
	}
	if v, ok := raw[capitalize(key)]; ok && v != nil {
		return v, true
	}
	return nil, false
}

func capitalize(key string) string {
	if key == "" {
		return key
	}
	r := []rune(key)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func lowercaseFirst(key string) string {
	if key == "" {
		return key
	}
	r := []rune(key)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// NormalizeRecord maps a raw backend object into the canonical Record.
// Category and lifecycle phase may arrive either as plain strings or as
// nested objects carrying a name field.
func NormalizeRecord(raw map[string]any) Record {
	rec := Record{
		GUID:           pickString(raw, "guid"),
		Number:         pickString(raw, "number"),
		Name:           pickString(raw, "name"),
		Description:    pickString(raw, "description"),
		Category:       nestedName(raw, "category"),
		LifecyclePhase: nestedName(raw, "lifecyclePhase"),
		Attributes:     make(map[string]any, len(raw)),
	}

	// Changes and quality records use "title" where items use "name".
	if rec.Name == "" {
		rec.Name = pickString(raw, "title")
	}

	for key, value := range raw {
		lower := lowercaseFirst(key)
		if key != lower {
			// When both casings are present the lowercase form wins;
			// never let map iteration order decide.
			if _, dup := raw[lower]; dup {
				continue
			}
		}
		rec.Attributes[lower] = value
	}

	return rec
}

// nestedName handles fields that are either strings or {name: ...}
// objects depending on endpoint.
func nestedName(raw map[string]any, key string) string {
	v, ok := pickValue(raw, key)
	if !ok {
		return ""
	}
	switch typed := v.(type) {
	case string:
		return typed
	case map[string]any:
		return pickString(typed, "name")
	default:
		return ""
	}
}

// ExtractResults pulls the listing array out of a paginated envelope,
// accepting both envelope spellings.
func ExtractResults(body map[string]any) []map[string]any {
	v, ok := pickValue(body, "results")
	if !ok {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for _, entry := range list {
		if m, ok := entry.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// MatchesTerm reports whether the record matches a case-insensitive
// substring search over name, number and description.
func MatchesTerm(rec Record, term string) bool {
	needle := strings.ToLower(term)
	return strings.Contains(strings.ToLower(rec.Name), needle) ||
		strings.Contains(strings.ToLower(rec.Number), needle) ||
		strings.Contains(strings.ToLower(rec.Description), needle)
}

// MatchesAnyField searches over the full serialized record, for generic
// text search across arbitrary attributes.
func MatchesAnyField(rec Record, term string) bool {
	data, err := json.Marshal(rec.Attributes)
	if err != nil {
		return MatchesTerm(rec, term)
	}
	return strings.Contains(strings.ToLower(string(data)), strings.ToLower(term))
}

// firstValidationMessage digs the first structured error message out of
// a 400 response body, which arrives as {"errors":[{"message":...}]}.
func firstValidationMessage(body []byte) string {
	var parsed struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && len(parsed.Errors) > 0 {
		return parsed.Errors[0].Message
	}

	// Some endpoints capitalize the envelope here too.
	var alt struct {
		Errors []struct {
			Message string `json:"Message"`
		} `json:"Errors"`
	}
	if err := json.Unmarshal(body, &alt); err == nil && len(alt.Errors) > 0 {
		return alt.Errors[0].Message
	}

	return fmt.Sprintf("request rejected: %s", strings.TrimSpace(string(body)))
}

package slides

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/plmdeck/backend/internal/plm"
)

// MetadataMarker is the literal sentinel embedded in speaker notes.
// It is the only persistent cross-reference between a generated slide
// and its backend record, so refresh can re-identify slides without any
// external bookkeeping. The exact string is load-bearing: decks written
// by earlier releases carry it verbatim.
const MetadataMarker = "[Arena Slides Metadata - Do Not Delete]"

// Metadata is the parsed content of a slide's embedded marker block.
type Metadata struct {
	GUID        string
	RecordType  plm.RecordType
	ImageFile   string
	LastUpdated time.Time
}

// Encode renders the metadata block appended to speaker notes.
func (m Metadata) Encode() string {
	var b strings.Builder
	b.WriteString(MetadataMarker)
	b.WriteString("\n")
	fmt.Fprintf(&b, "guid: %s\n", m.GUID)
	fmt.Fprintf(&b, "type: %s\n", m.RecordType)
	if m.ImageFile != "" {
		fmt.Fprintf(&b, "image: %s\n", m.ImageFile)
	}
	fmt.Fprintf(&b, "updated: %s", m.LastUpdated.UTC().Format(time.RFC3339))
	return b.String()
}

// ParseMetadata locates the marker block inside speaker notes. The
// second return is false only when the marker is absent and
// identification must fall back to the legacy title heuristic. A block
// with an empty guid still parses: synthesis slides are written that
// way, and the marker's presence is what keeps them out of the legacy
// fallback.
func ParseMetadata(notes string) (Metadata, bool) {
	idx := strings.Index(notes, MetadataMarker)
	if idx < 0 {
		return Metadata{}, false
	}

	var meta Metadata
	for _, line := range strings.Split(notes[idx+len(MetadataMarker):], "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(strings.ToLower(key))
		value = strings.TrimSpace(value)

		switch key {
		case "guid":
			meta.GUID = value
		case "type":
			meta.RecordType = plm.RecordType(value)
		case "image":
			meta.ImageFile = value
		case "updated":
			if t, err := time.Parse(time.RFC3339, value); err == nil {
				meta.LastUpdated = t
			}
		}
	}

	return meta, true
}

// StripMetadata returns the speaker notes without the marker block.
func StripMetadata(notes string) string {
	idx := strings.Index(notes, MetadataMarker)
	if idx < 0 {
		return notes
	}
	return strings.TrimRight(notes[:idx], "\n ")
}

// legacyTitlePattern matches the "PREFIX-NUMBER: rest" titles written
// before metadata blocks existed. Numbers are not guaranteed unique
// across time, so identification through it is best-effort only.
var legacyTitlePattern = regexp.MustCompile(`^([A-Za-z]+)-(\d+):\s*(.+)$`)

// ParseLegacyTitle extracts the record number from a legacy title and
// infers its type from the prefix.
func ParseLegacyTitle(title string) (number string, recordType plm.RecordType, ok bool) {
	m := legacyTitlePattern.FindStringSubmatch(strings.TrimSpace(title))
	if m == nil {
		return "", "", false
	}
	number = m[1] + "-" + m[2]
	return number, plm.DetectRecordType(number), true
}

package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/plmdeck/backend/internal/plm"
	"github.com/plmdeck/backend/internal/schema"
)

const domainContext = `You are preparing slides for a product-lifecycle-management (PLM) review.
The audience is an engineering and operations team familiar with items,
engineering changes, change requests and quality records.`

var detailInstructions = map[DetailLevel]string{
	DetailBrief:    "Keep the slide content to 2-3 short bullet points. Notes may add one sentence of context.",
	DetailMedium:   "Use 4-5 bullet points covering the key facts. Notes should add supporting context a presenter can speak to.",
	DetailDetailed: "Cover every significant field in the content. Notes should be thorough enough to answer audience questions.",
}

var typeEmphasis = map[plm.RecordType]string{
	plm.TypeItem:    "Emphasize what the item is, its lifecycle phase, and where it is used.",
	plm.TypeChange:  "Emphasize what is changing, why, and which items are affected.",
	plm.TypeRequest: "Emphasize the problem being raised and the requested disposition.",
	plm.TypeQuality: "Emphasize the issue found, its containment, and the corrective action.",
}

// FilterFields renders the record's fields down to the schema-selected
// subset. An empty selection includes everything, serialized raw.
func FilterFields(rec plm.Record, selection schema.FieldSelection) string {
	if len(selection.Fields) == 0 {
		data, err := json.Marshal(rec.Attributes)
		if err != nil {
			return fmt.Sprintf("number: %s\nname: %s\ndescription: %s", rec.Number, rec.Name, rec.Description)
		}
		return string(data)
	}

	var b strings.Builder
	for _, field := range selection.Fields {
		value, ok := rec.Attributes[field]
		if !ok || value == nil {
			continue
		}
		switch typed := value.(type) {
		case string:
			if typed != "" {
				fmt.Fprintf(&b, "%s: %s\n", field, typed)
			}
		case map[string]any:
			if name, ok := typed["name"].(string); ok && name != "" {
				fmt.Fprintf(&b, "%s: %s\n", field, name)
			}
		default:
			data, err := json.Marshal(typed)
			if err == nil {
				fmt.Fprintf(&b, "%s: %s\n", field, string(data))
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// BuildRecordPrompt composes the single-record summarization prompt.
func BuildRecordPrompt(req SummarizeRequest, selection schema.FieldSelection) string {
	var b strings.Builder

	b.WriteString(domainContext)
	b.WriteString("\n\n")

	if req.UserIntent != "" {
		fmt.Fprintf(&b, "The presenter's goal: %s\n\n", req.UserIntent)
	}

	fmt.Fprintf(&b, "This is slide %d of %d.\n", req.Position, req.Total)
	b.WriteString(detailInstructions[req.DetailLevel])
	b.WriteString("\n")
	b.WriteString(typeEmphasis[req.RecordType])
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Record (%s %s):\n%s\n", req.RecordType, req.Record.Number, FilterFields(req.Record, selection))

	if selection.Instructions != "" {
		fmt.Fprintf(&b, "\nAdditional guidance from the presenter: %s\n", selection.Instructions)
	}

	b.WriteString(`
Respond with exactly two sections:
MAIN CONTENT:
<the bullet points for the slide body>
DETAILED NOTES:
<the speaker notes>`)

	return b.String()
}

// BuildCollectionPrompt composes the holistic multi-record synthesis
// prompt: an aggregated context document followed by instructions to
// find cross-record relationships and propose a slide decomposition.
func BuildCollectionPrompt(entries []CollectionEntry, intent string, cfg schema.Config) string {
	counts := map[plm.RecordType]int{}
	for _, entry := range entries {
		counts[entry.RecordType]++
	}

	var b strings.Builder
	b.WriteString(domainContext)
	b.WriteString("\n\n")

	if intent != "" {
		fmt.Fprintf(&b, "The presenter's goal: %s\n\n", intent)
	}

	fmt.Fprintf(&b, "The collection contains %d records:", len(entries))
	for _, recordType := range []plm.RecordType{plm.TypeItem, plm.TypeChange, plm.TypeRequest, plm.TypeQuality} {
		if counts[recordType] > 0 {
			fmt.Fprintf(&b, " %d %s,", counts[recordType], recordType)
		}
	}
	b.WriteString("\n\n")

	for i, entry := range entries {
		fmt.Fprintf(&b, "--- Record %d: %s (%s) ---\n", i+1, entry.Record.Number, entry.RecordType)
		b.WriteString(FilterFields(entry.Record, cfg.ForType(entry.RecordType)))
		if entry.ImageCount > 0 {
			fmt.Fprintf(&b, "\n(%d image attachments available)", entry.ImageCount)
		}
		b.WriteString("\n\n")
	}

	b.WriteString(`Analyze the collection as a whole. Look for relationships:
change requests driving changes driving affected items, quality issues
leading to corrective changes, and assembly/component groupings.
Decide how many slides best tell the story.

Respond with exactly three sections:
SYNTHESIS:
<your cross-record analysis>
PRESENTATION STRUCTURE:
<the slide-by-slide outline you chose and why>
SLIDES:
SLIDE 1: <title on this line>
MAIN CONTENT:
<slide body>
DETAILED NOTES:
<speaker notes>
SLIDE 2: ...`)

	return b.String()
}

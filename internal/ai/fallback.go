package ai

import (
	"fmt"
	"strings"

	"github.com/plmdeck/backend/internal/plm"
)

// The deterministic fallback formatter builds slide text straight from
// the well-known record fields. It never errors, so a failed or
// unconfigured generative backend can never fail a slide.

var fallbackLabels = map[plm.RecordType]string{
	plm.TypeItem:    "Item",
	plm.TypeChange:  "Change",
	plm.TypeRequest: "Request",
	plm.TypeQuality: "Quality Record",
}

func FallbackSummary(rec plm.Record, recordType plm.RecordType) Summary {
	label := fallbackLabels[recordType]
	if label == "" {
		label = "Item"
	}

	main := fmt.Sprintf("• %s Number: %s\n• Category: %s\n• Lifecycle: %s\n• Description: %s",
		label, rec.Number, rec.Category, rec.LifecyclePhase, rec.Description)

	return Summary{
		MainContent:   main,
		DetailedNotes: fmt.Sprintf("%s: %s", rec.Number, rec.Name),
	}
}

// FallbackCollectionResult produces a single overview slide listing
// every record's number and title.
func FallbackCollectionResult(entries []CollectionEntry) CollectionResult {
	var b strings.Builder
	for _, entry := range entries {
		fmt.Fprintf(&b, "• %s: %s (%s)\n", entry.Record.Number, entry.Record.Name, entry.RecordType)
	}

	return CollectionResult{
		Slides: []SlideContent{{
			Title:         "Collection Overview",
			MainContent:   strings.TrimRight(b.String(), "\n"),
			DetailedNotes: fmt.Sprintf("%d records in this collection", len(entries)),
		}},
	}
}

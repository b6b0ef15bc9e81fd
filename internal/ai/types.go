package ai

import (
	"github.com/plmdeck/backend/internal/plm"
)

// Summary is presentation-ready text for one record. Both fields are
// always defined; DetailedNotes may be empty.
type Summary struct {
	MainContent   string `json:"mainContent"`
	DetailedNotes string `json:"detailedNotes"`
}

// DetailLevel controls how verbose the generated summary is.
type DetailLevel string

const (
	DetailBrief    DetailLevel = "brief"
	DetailMedium   DetailLevel = "medium"
	DetailDetailed DetailLevel = "detailed"
)

// ParseDetailLevel maps free-form input onto the enum, defaulting to
// medium.
func ParseDetailLevel(s string) DetailLevel {
	switch DetailLevel(s) {
	case DetailBrief, DetailMedium, DetailDetailed:
		return DetailLevel(s)
	default:
		return DetailMedium
	}
}

// SummarizeRequest describes one record to summarize within a deck.
type SummarizeRequest struct {
	Record      plm.Record
	RecordType  plm.RecordType // empty means infer from the number prefix
	UserIntent  string
	Position    int
	Total       int
	DetailLevel DetailLevel
}

// CollectionEntry is one record inside a multi-record synthesis.
type CollectionEntry struct {
	Record     plm.Record
	RecordType plm.RecordType
	ImageCount int
}

// SlideContent is one proposed slide from a collection synthesis.
type SlideContent struct {
	Title         string `json:"title"`
	MainContent   string `json:"mainContent"`
	DetailedNotes string `json:"detailedNotes"`
}

// CollectionResult is the parsed outcome of a collection synthesis.
// Slides always has at least one entry.
type CollectionResult struct {
	Synthesis string         `json:"synthesis"`
	Structure string         `json:"structure"`
	Slides    []SlideContent `json:"slides"`
}

package ai

import (
	"regexp"
	"strings"
)

// The generative backend is asked for marker-delimited sections rather
// than structured output; this file is the pure parser for those
// responses, with explicit fallback rules so a sloppy response still
// yields usable slide text.

var (
	mainMarker      = regexp.MustCompile(`(?i)MAIN CONTENT:`)
	notesMarker     = regexp.MustCompile(`(?i)DETAILED NOTES:`)
	synthesisMarker = regexp.MustCompile(`(?i)SYNTHESIS:`)
	structureMarker = regexp.MustCompile(`(?i)PRESENTATION STRUCTURE:`)
	slidesMarker    = regexp.MustCompile(`(?i)\bSLIDES:`)
	slideNMarker    = regexp.MustCompile(`(?i)SLIDE\s+\d+:`)
)

// ParseSummary splits a response on the MAIN CONTENT / DETAILED NOTES
// markers. Content runs from a marker to the next marker or the end of
// the string. With no markers at all, the raw text is split in half by
// line count at floor(n/2). Both fields are always defined; notes may
// be empty.
func ParseSummary(raw string) Summary {
	mainLoc := mainMarker.FindStringIndex(raw)
	notesLoc := notesMarker.FindStringIndex(raw)

	if mainLoc == nil && notesLoc == nil {
		return splitByLines(raw)
	}

	var main, notes string

	if notesLoc != nil {
		notes = strings.TrimSpace(raw[notesLoc[1]:])
	}

	if mainLoc != nil {
		end := len(raw)
		if notesLoc != nil && notesLoc[0] > mainLoc[1] {
			end = notesLoc[0]
		}
		main = strings.TrimSpace(raw[mainLoc[1]:end])
	} else if notesLoc != nil {
		main = strings.TrimSpace(raw[:notesLoc[0]])
	}

	return Summary{MainContent: main, DetailedNotes: notes}
}

func splitByLines(raw string) Summary {
	trimmed := strings.TrimSpace(raw)
	lines := strings.Split(trimmed, "\n")
	if len(lines) <= 1 {
		return Summary{MainContent: trimmed}
	}

	half := len(lines) / 2
	return Summary{
		MainContent:   strings.TrimSpace(strings.Join(lines[:half], "\n")),
		DetailedNotes: strings.TrimSpace(strings.Join(lines[half:], "\n")),
	}
}

// ParseCollectionResponse extracts the three sections of a collection
// synthesis and splits the SLIDES block on SLIDE <n>: markers. When no
// slides parse out, a single "Collection Overview" slide is synthesized
// from the captured synthesis text, or the raw response if even that is
// missing.
func ParseCollectionResponse(raw string) CollectionResult {
	result := CollectionResult{
		Synthesis: sectionBetween(raw, synthesisMarker, structureMarker, slidesMarker),
		Structure: sectionBetween(raw, structureMarker, slidesMarker),
	}

	if loc := slidesMarker.FindStringIndex(raw); loc != nil {
		result.Slides = parseSlideBlocks(raw[loc[1]:])
	}

	if len(result.Slides) == 0 {
		overview := result.Synthesis
		if overview == "" {
			overview = strings.TrimSpace(raw)
		}
		result.Slides = []SlideContent{{
			Title:       "Collection Overview",
			MainContent: overview,
		}}
	}

	return result
}

// sectionBetween returns the text from the end of the first marker to
// the start of whichever terminator appears first after it.
func sectionBetween(raw string, marker *regexp.Regexp, terminators ...*regexp.Regexp) string {
	loc := marker.FindStringIndex(raw)
	if loc == nil {
		return ""
	}

	rest := raw[loc[1]:]
	end := len(rest)
	for _, terminator := range terminators {
		if tLoc := terminator.FindStringIndex(rest); tLoc != nil && tLoc[0] < end {
			end = tLoc[0]
		}
	}

	return strings.TrimSpace(rest[:end])
}

func parseSlideBlocks(block string) []SlideContent {
	starts := slideNMarker.FindAllStringIndex(block, -1)
	if len(starts) == 0 {
		return nil
	}

	slides := make([]SlideContent, 0, len(starts))
	for i, start := range starts {
		end := len(block)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}

		body := block[start[1]:end]
		title := body
		rest := ""
		if idx := strings.Index(body, "\n"); idx >= 0 {
			title = body[:idx]
			rest = body[idx+1:]
		}

		summary := ParseSummary(rest)
		slides = append(slides, SlideContent{
			Title:         strings.TrimSpace(title),
			MainContent:   summary.MainContent,
			DetailedNotes: summary.DetailedNotes,
		})
	}

	return slides
}

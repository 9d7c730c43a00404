// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report assembles the outcomes gathered by the fan-out coordinator
// into a structured report and renders it as text. Assembly is pure: no I/O
// and no clock, so identical outcomes always produce identical text.
package report

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/serpfire/internal/docs"
	"github.com/pdiddy/serpfire/internal/fanout"
	"github.com/pdiddy/serpfire/pkg/types"
)

// TruncationMarker is appended to any text cut at its cap.
const TruncationMarker = "... [TRUNCATED]"

// separator closes a list block and every item.
const separator = "\n---\n\n"

// Report is an ordered sequence of sections under a title.
type Report struct {
	Title    string
	Sections []Section
}

// Section is one block of a report. Lead and List render first, followed by
// a separator, then each Item as a subsection.
type Section struct {
	Heading string
	Lead    string
	List    []string
	Items   []Item
}

// Item is a titled text blob within a section.
type Item struct {
	Heading string
	Text    string
}

// String renders the report. A report with no sections renders as its title
// alone.
func (r Report) String() string {
	if len(r.Sections) == 0 {
		return r.Title
	}

	var b strings.Builder
	b.WriteString(r.Title)
	b.WriteString("\n\n")
	for _, s := range r.Sections {
		if s.Heading != "" {
			fmt.Fprintf(&b, "## %s\n\n", s.Heading)
		}
		if s.Lead != "" || len(s.List) > 0 {
			if s.Lead != "" {
				b.WriteString(s.Lead)
				b.WriteByte('\n')
			}
			for _, entry := range s.List {
				fmt.Fprintf(&b, "- %s\n", entry)
			}
			b.WriteString(separator)
		}
		for _, it := range s.Items {
			fmt.Fprintf(&b, "### %s\n", it.Heading)
			b.WriteString(it.Text)
			b.WriteString("\n" + separator)
		}
	}
	return b.String()
}

// Truncate returns s cut to limit characters with TruncationMarker appended.
// s is returned unchanged when it is within the limit or limit is not
// positive. Characters are counted as runes so multi-byte text is never
// split mid-character.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i] + TruncationMarker
		}
		n++
	}
	return s
}

// NoResults is the whole report when a research search finds nothing.
func NoResults(topic string) string {
	return "No search results found for: " + topic
}

// Research builds the search-then-scrape report: the list of sources
// followed by one subsection per source, in search order.
func Research(o fanout.ResearchOutcome, limits types.ReportLimits) Report {
	limits = limits.WithDefaults()
	title := fmt.Sprintf("Research Results for \"%s\"", o.Topic)

	if !o.Search.Ok() {
		return Report{
			Title:    title,
			Sections: []Section{{Lead: "Web search failed: " + o.Search.Reason()}},
		}
	}
	if o.NoSources() {
		return Report{Title: NoResults(o.Topic)}
	}

	sources := Section{
		Lead: fmt.Sprintf("Found %d sources:", len(o.URLs)),
		List: o.URLs,
	}
	return Report{
		Title:    title,
		Sections: []Section{sources, {Items: sourceItems(o.Scrapes, limits.ResearchSourceChars)}},
	}
}

// Comprehensive builds the multi-source report. Sections are always
// Documentation, Web Search Results, Scraped Content, in that order, and
// each says explicitly when it has nothing to show.
func Comprehensive(o fanout.ComprehensiveOutcome, limits types.ReportLimits) Report {
	limits = limits.WithDefaults()
	return Report{
		Title: fmt.Sprintf("Comprehensive Research Results for \"%s\"", o.Topic),
		Sections: []Section{
			documentation(o, limits.DocDetailChars),
			webResults(o),
			scraped(o, limits.ComprehensiveSourceChars),
		},
	}
}

func documentation(o fanout.ComprehensiveOutcome, limit int) Section {
	s := Section{Heading: "Documentation"}
	switch {
	case o.DocSearch.Reason() == docs.NotConfiguredReason:
		s.Lead = "Documentation lookup not configured."
		return s
	case !o.DocSearch.Ok():
		s.Lead = "Documentation search failed: " + o.DocSearch.Reason()
		return s
	case len(o.DocSearch.Value()) == 0:
		s.Lead = "No documentation found for: " + o.Topic
		return s
	}

	libs := o.DocSearch.Value()
	s.Lead = fmt.Sprintf("Found %d libraries:", len(libs))
	for _, lib := range libs {
		s.List = append(s.List, libraryLine(lib))
	}
	if o.DocLibrary != nil {
		text := "[Failed to fetch documentation: " + o.DocDetail.Reason() + "]"
		if o.DocDetail.Ok() {
			text = Truncate(o.DocDetail.Value(), limit)
		}
		s.Items = []Item{{Heading: "Library: " + o.DocLibrary.ID, Text: text}}
	}
	return s
}

func webResults(o fanout.ComprehensiveOutcome) Section {
	s := Section{Heading: "Web Search Results"}
	switch {
	case !o.Search.Ok():
		s.Lead = "Web search failed: " + o.Search.Reason()
	case len(o.Search.Value()) == 0:
		s.Lead = NoResults(o.Topic)
	default:
		hits := o.Search.Value()
		s.Lead = fmt.Sprintf("Found %d results:", len(hits))
		for _, h := range hits {
			s.List = append(s.List, hitLine(h))
		}
	}
	return s
}

func scraped(o fanout.ComprehensiveOutcome, limit int) Section {
	s := Section{Heading: "Scraped Content"}
	if len(o.Scrapes) == 0 {
		s.Lead = "No pages were scraped."
		return s
	}
	s.Items = sourceItems(o.Scrapes, limit)
	return s
}

// sourceItems renders one item per scrape outcome. A failed scrape keeps its
// position and shows the reason instead of content.
func sourceItems(scrapes []types.ScrapeOutcome, limit int) []Item {
	items := make([]Item, 0, len(scrapes))
	for _, sc := range scrapes {
		text := "[Failed to scrape: " + sc.ErrorReason + "]"
		if sc.Success {
			text = Truncate(sc.Content, limit)
		}
		items = append(items, Item{Heading: "Source: " + sc.SourceURL, Text: text})
	}
	return items
}

func hitLine(h types.SearchHit) string {
	line := h.URL
	if h.Title != "" {
		line = h.Title + ": " + h.URL
	}
	if h.Snippet != "" {
		line += " - " + h.Snippet
	}
	return line
}

func libraryLine(lib types.LibraryHit) string {
	line := lib.ID
	if lib.Title != "" {
		line = lib.Title + " (" + lib.ID + ")"
	}
	if lib.Description != "" {
		line += ": " + lib.Description
	}
	return line
}

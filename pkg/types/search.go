// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for serpfire: the payloads
// produced by the upstream gateways, the tagged Result used to carry their
// outcomes, the tool result envelope, and runtime configuration.
package types

// SearchHit is one organic web search result. Hits keep the order in which
// the search provider returned them; serpfire never re-ranks.
type SearchHit struct {
	// URL is the result link.
	URL string `json:"url" yaml:"url"`

	// Title is the page title, if the provider returned one.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Snippet is the provider's short excerpt, if any.
	Snippet string `json:"snippet,omitempty" yaml:"snippet,omitempty"`
}

// ScrapeOutcome is the result of scraping one URL. A batch of outcomes always
// has the same length and order as the URLs that were requested.
type ScrapeOutcome struct {
	// SourceURL is the URL that was requested.
	SourceURL string `json:"source_url" yaml:"source_url"`

	// Content is the extracted long-form text (Markdown when available).
	Content string `json:"content" yaml:"content"`

	// Success reports whether the scrape produced content.
	Success bool `json:"success" yaml:"success"`

	// ErrorReason explains a failed scrape.
	ErrorReason string `json:"error_reason,omitempty" yaml:"error_reason,omitempty"`
}

// LibraryHit is one documentation library returned by a documentation search.
type LibraryHit struct {
	// ID is an opaque library token (e.g. "/websites/redis_io"). It must be
	// passed back to the provider unchanged apart from URL escaping.
	ID string `json:"id" yaml:"id"`

	// Title is the library display name.
	Title string `json:"title" yaml:"title"`

	// Description is the provider's summary of the library.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

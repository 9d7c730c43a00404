// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/pdiddy/serpfire/internal/docs"
	"github.com/pdiddy/serpfire/internal/fanout"
	"github.com/pdiddy/serpfire/internal/report"
	"github.com/pdiddy/serpfire/internal/scrape"
	"github.com/pdiddy/serpfire/internal/search"
	"github.com/pdiddy/serpfire/pkg/types"
)

// Operation names.
const (
	OpSearch                = "search"
	OpDocSearch             = "doc_search"
	OpDocFetch              = "doc_fetch"
	OpScrape                = "scrape"
	OpCrawl                 = "crawl"
	OpCrawlStatus           = "crawl_status"
	OpResearch              = "research"
	OpComprehensiveResearch = "comprehensive_research"
)

// WebSearcher is the search gateway used by the search operation.
type WebSearcher interface {
	Search(ctx context.Context, query string, desiredCount int) types.Result[[]types.SearchHit]
}

// PageScraper is the scrape gateway used by the scrape and crawl operations.
type PageScraper interface {
	Scrape(ctx context.Context, url string, formats []scrape.Format) types.Result[json.RawMessage]
	Crawl(ctx context.Context, url string, limit int, formats []scrape.Format) types.Result[json.RawMessage]
	CrawlStatus(ctx context.Context, id string) types.Result[json.RawMessage]
}

// Services are the collaborators behind the built-in operations.
type Services struct {
	Search      WebSearcher
	Scrape      PageScraper
	Docs        fanout.DocFinder
	Coordinator *fanout.Coordinator
	Limits      types.ReportLimits

	// SearchCount is the default desiredCount for the search operation.
	SearchCount int
}

// Typed requests decoded from validated arguments.
type (
	SearchRequest struct {
		Query        string
		DesiredCount int
	}
	DocSearchRequest struct {
		Query string
	}
	DocFetchRequest struct {
		ID    string
		Query string
		Page  int
	}
	ScrapeRequest struct {
		URL     string
		Formats []scrape.Format
	}
	CrawlRequest struct {
		URL     string
		Limit   int
		Formats []scrape.Format
	}
	CrawlStatusRequest struct {
		ID string
	}
	ResearchRequest struct {
		Topic      string
		MaxSources int
	}
	ComprehensiveRequest struct {
		Topic string
	}
)

// RegisterBuiltins registers every built-in operation on r.
func RegisterBuiltins(r *Registry, s Services) error {
	for _, op := range Builtins(s) {
		if err := r.Register(op); err != nil {
			return err
		}
	}
	return nil
}

// Builtins returns the built-in operations in discovery order.
func Builtins(s Services) []Operation {
	count := s.SearchCount
	if count < 1 {
		count = search.DefaultCount
	}
	formatEnum := append(scrape.FormatNames(), "screenshot@fullPage")

	return []Operation{
		{
			Name:        OpSearch,
			Description: "Search the web and return the top results (title, URL, snippet).",
			Params: []Param{
				{Name: "query", Kind: KindString, Required: true, Description: "Search query"},
				{Name: "desiredCount", Kind: KindNumber, Default: count, Min: 1, Aliases: []string{"num"},
					Description: fmt.Sprintf("Number of results (default %d)", count)},
			},
			Handler: func(ctx context.Context, a Args) (types.Envelope, error) {
				req := SearchRequest{Query: a.String("query"), DesiredCount: a.Int("desiredCount")}
				hits, reason, ok := s.Search.Search(ctx, req.Query, req.DesiredCount).Unwrap()
				if !ok {
					return apiError(reason), nil
				}
				return jsonEnvelope(hits)
			},
		},
		{
			Name:        OpDocSearch,
			Description: "Search the documentation index for libraries matching a query.",
			Params: []Param{
				{Name: "query", Kind: KindString, Required: true, Description: "Library or topic to look up"},
			},
			Handler: func(ctx context.Context, a Args) (types.Envelope, error) {
				req := DocSearchRequest{Query: a.String("query")}
				libs, reason, ok := s.Docs.Search(ctx, req.Query).Unwrap()
				if !ok {
					return docsError(reason), nil
				}
				return jsonEnvelope(libs)
			},
		},
		{
			Name:        OpDocFetch,
			Description: "Fetch documentation text for one library id returned by doc_search.",
			Params: []Param{
				{Name: "id", Kind: KindString, Required: true, Aliases: []string{"libraryId"},
					Description: "Library id, e.g. /websites/redis_io"},
				{Name: "query", Kind: KindString, Description: "Focus the documentation on this topic"},
				{Name: "page", Kind: KindNumber, Default: 1, Min: 1, Description: "Result page (default 1)"},
			},
			Handler: func(ctx context.Context, a Args) (types.Envelope, error) {
				req := DocFetchRequest{ID: a.String("id"), Query: a.String("query"), Page: a.Int("page")}
				text, reason, ok := s.Docs.FetchDetails(ctx, req.ID, req.Query, req.Page).Unwrap()
				if !ok {
					return docsError(reason), nil
				}
				return types.TextEnvelope(text), nil
			},
		},
		{
			Name:        OpScrape,
			Description: "Scrape a single URL and return the provider response.",
			Params: []Param{
				{Name: "url", Kind: KindString, Required: true, Description: "URL to scrape"},
				{Name: "formats", Kind: KindArray, Items: KindString, Enum: formatEnum,
					Default: []string{string(scrape.FormatMarkdown)}, Description: "Formats to return (default [markdown])"},
			},
			Handler: func(ctx context.Context, a Args) (types.Envelope, error) {
				formats, err := parseFormats(a.Strings("formats"))
				if err != nil {
					return types.Envelope{}, err
				}
				req := ScrapeRequest{URL: a.String("url"), Formats: formats}
				return rawResult(s.Scrape.Scrape(ctx, req.URL, req.Formats)), nil
			},
		},
		{
			Name:        OpCrawl,
			Description: "Start a crawl of a website and return the provider job response.",
			Params: []Param{
				{Name: "url", Kind: KindString, Required: true, Description: "Base URL to crawl"},
				{Name: "limit", Kind: KindNumber, Default: scrape.DefaultCrawlLimit, Min: 1,
					Description: fmt.Sprintf("Maximum number of pages to crawl (default %d)", scrape.DefaultCrawlLimit)},
				{Name: "scrapeOptions", Kind: KindObject, Description: "Per-page scrape options", Properties: []Param{
					{Name: "formats", Kind: KindArray, Items: KindString, Enum: formatEnum, Description: "Formats to return per page"},
				}},
			},
			Handler: func(ctx context.Context, a Args) (types.Envelope, error) {
				formats, err := parseFormats(a.Object("scrapeOptions").Strings("formats"))
				if err != nil {
					return types.Envelope{}, err
				}
				req := CrawlRequest{URL: a.String("url"), Limit: a.Int("limit"), Formats: formats}
				return rawResult(s.Scrape.Crawl(ctx, req.URL, req.Limit, req.Formats)), nil
			},
		},
		{
			Name:        OpCrawlStatus,
			Description: "Check the status of a crawl job started by crawl.",
			Params: []Param{
				{Name: "id", Kind: KindString, Required: true, Description: "Crawl job id"},
			},
			Handler: func(ctx context.Context, a Args) (types.Envelope, error) {
				req := CrawlStatusRequest{ID: a.String("id")}
				return rawResult(s.Scrape.CrawlStatus(ctx, req.ID)), nil
			},
		},
		{
			Name:        OpResearch,
			Description: "Research a topic by searching the web and scraping the top results into one report.",
			Params: []Param{
				{Name: "topic", Kind: KindString, Required: true, Description: "Topic to research"},
				{Name: "maxSources", Kind: KindNumber, Default: fanout.DefaultMaxSources, Min: 1, Aliases: []string{"max_sources"},
					Description: fmt.Sprintf("Number of top sources to scrape (default %d)", fanout.DefaultMaxSources)},
			},
			Handler: func(ctx context.Context, a Args) (types.Envelope, error) {
				req := ResearchRequest{Topic: a.String("topic"), MaxSources: a.Int("maxSources")}
				out := s.Coordinator.Research(ctx, req.Topic, req.MaxSources)
				return types.TextEnvelope(report.Research(out, s.Limits).String()), nil
			},
		},
		{
			Name: OpComprehensiveResearch,
			Description: "Research a topic across documentation and the web: library docs, " +
				"search results and scraped pages in one report.",
			Params: []Param{
				{Name: "topic", Kind: KindString, Required: true, Description: "Topic to research"},
			},
			Handler: func(ctx context.Context, a Args) (types.Envelope, error) {
				req := ComprehensiveRequest{Topic: a.String("topic")}
				out := s.Coordinator.Comprehensive(ctx, req.Topic)
				return types.TextEnvelope(report.Comprehensive(out, s.Limits).String()), nil
			},
		},
	}
}

func parseFormats(names []string) ([]scrape.Format, error) {
	if len(names) == 0 {
		return nil, nil
	}
	formats := make([]scrape.Format, 0, len(names))
	for _, n := range names {
		f, err := scrape.ParseFormat(n)
		if err != nil {
			return nil, err
		}
		formats = append(formats, f)
	}
	return formats, nil
}

func apiError(reason string) types.Envelope {
	return types.ErrorEnvelope("API Error: " + reason)
}

func docsError(reason string) types.Envelope {
	if reason == docs.NotConfiguredReason {
		return types.ErrorEnvelope(docs.ErrNotConfigured.Error())
	}
	return apiError(reason)
}

func jsonEnvelope(v any) (types.Envelope, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return types.Envelope{}, fmt.Errorf("encoding result: %w", err)
	}
	return types.TextEnvelope(string(b)), nil
}

// rawResult pretty-prints a provider response, or reports its failure.
func rawResult(res types.Result[json.RawMessage]) types.Envelope {
	raw, reason, ok := res.Unwrap()
	if !ok {
		return apiError(reason)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return types.TextEnvelope(string(raw))
	}
	return types.TextEnvelope(buf.String())
}

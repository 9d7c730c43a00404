// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fanout coordinates the gateway calls behind the composite research
// operations. It decides which calls depend on which, runs independent calls
// concurrently, and joins on all of them. Every gateway outcome is kept,
// success or failure; the coordinator itself never fails.
package fanout

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/serpfire/pkg/types"
)

const (
	// DefaultMaxSources is the number of pages scraped by Research when the
	// caller does not choose.
	DefaultMaxSources = 3

	// ComprehensiveSearchCount is the number of web hits requested by
	// Comprehensive.
	ComprehensiveSearchCount = 5

	// ComprehensiveSources is the number of top web hits Comprehensive scrapes.
	ComprehensiveSources = 3
)

// Searcher is the web search gateway.
type Searcher interface {
	Search(ctx context.Context, query string, desiredCount int) types.Result[[]types.SearchHit]
}

// Scraper is the page scraping gateway.
type Scraper interface {
	ScrapeText(ctx context.Context, url string) types.ScrapeOutcome
}

// DocFinder is the documentation lookup gateway.
type DocFinder interface {
	Search(ctx context.Context, query string) types.Result[[]types.LibraryHit]
	FetchDetails(ctx context.Context, id, query string, page int) types.Result[string]
}

// Coordinator runs the fan-out patterns over a set of gateways.
type Coordinator struct {
	search Searcher
	scrape Scraper
	docs   DocFinder
	log    *zap.Logger
}

// New returns a Coordinator. A nil logger discards output.
func New(search Searcher, scrape Scraper, docs DocFinder, log *zap.Logger) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{search: search, scrape: scrape, docs: docs, log: log}
}

// ResearchOutcome is everything gathered for a search-then-scrape request.
type ResearchOutcome struct {
	Topic string

	// Search is the web search outcome.
	Search types.Result[[]types.SearchHit]

	// URLs lists the pages that were scraped, in search order.
	URLs []string

	// Scrapes holds one outcome per entry of URLs, in the same order.
	Scrapes []types.ScrapeOutcome
}

// NoSources reports whether the search produced nothing to scrape.
func (o ResearchOutcome) NoSources() bool {
	return len(o.URLs) == 0
}

// Research searches for topic, then scrapes the first maxSources hits
// concurrently. When the search fails or finds nothing no page is scraped.
func (c *Coordinator) Research(ctx context.Context, topic string, maxSources int) ResearchOutcome {
	if maxSources < 1 {
		maxSources = DefaultMaxSources
	}
	start := time.Now()
	out := ResearchOutcome{Topic: topic}

	out.Search = c.webSearch(ctx, topic, maxSources)
	if !out.Search.Ok() {
		c.log.Warn("web search failed", zap.String("topic", topic), zap.String("reason", out.Search.Reason()))
		return out
	}

	out.URLs = topURLs(out.Search.Value(), maxSources)
	if len(out.URLs) == 0 {
		c.log.Info("web search found no sources", zap.String("topic", topic))
		return out
	}

	out.Scrapes = c.ScrapeAll(ctx, out.URLs)
	c.log.Info("research gathered",
		zap.String("topic", topic),
		zap.Int("sources", len(out.URLs)),
		zap.Int("scrape_failures", countFailed(out.Scrapes)),
		zap.Duration("elapsed", time.Since(start)))
	return out
}

// ComprehensiveOutcome is everything gathered for a multi-source request.
type ComprehensiveOutcome struct {
	Topic string

	// Search is the web search outcome; Scrapes follows its top hits.
	Search  types.Result[[]types.SearchHit]
	Scrapes []types.ScrapeOutcome

	// DocSearch is the documentation search outcome.
	DocSearch types.Result[[]types.LibraryHit]

	// DocLibrary is the library whose details were fetched, when a
	// documentation hit existed. DocDetail is only meaningful if it is set.
	DocLibrary *types.LibraryHit
	DocDetail  types.Result[string]
}

// Comprehensive runs two independent branches concurrently and joins on
// both: web search followed by concurrent scrapes of the top hits, and
// documentation search followed by one details fetch for the top-ranked
// library. A failure in one branch never affects the other.
func (c *Coordinator) Comprehensive(ctx context.Context, topic string) ComprehensiveOutcome {
	start := time.Now()
	out := ComprehensiveOutcome{Topic: topic}

	var g errgroup.Group
	g.Go(func() error {
		out.Search = c.webSearch(ctx, topic, ComprehensiveSearchCount)
		if !out.Search.Ok() {
			c.log.Warn("web search failed", zap.String("topic", topic), zap.String("reason", out.Search.Reason()))
			return nil
		}
		if urls := topURLs(out.Search.Value(), ComprehensiveSources); len(urls) > 0 {
			out.Scrapes = c.ScrapeAll(ctx, urls)
		}
		return nil
	})
	g.Go(func() error {
		out.DocSearch = c.docSearch(ctx, topic)
		if !out.DocSearch.Ok() {
			c.log.Warn("documentation search failed", zap.String("topic", topic), zap.String("reason", out.DocSearch.Reason()))
			return nil
		}
		hits := out.DocSearch.Value()
		if len(hits) == 0 {
			return nil
		}
		top := hits[0]
		out.DocLibrary = &top
		out.DocDetail = c.docFetch(ctx, top.ID, topic)
		return nil
	})
	_ = g.Wait()

	c.log.Info("comprehensive research gathered",
		zap.String("topic", topic),
		zap.Bool("web_ok", out.Search.Ok()),
		zap.Bool("docs_ok", out.DocSearch.Ok()),
		zap.Int("scrape_failures", countFailed(out.Scrapes)),
		zap.Duration("elapsed", time.Since(start)))
	return out
}

// ScrapeAll scrapes every URL concurrently and waits for all of them. The
// result has exactly one outcome per URL, in input order, regardless of
// completion order or individual failures.
func (c *Coordinator) ScrapeAll(ctx context.Context, urls []string) []types.ScrapeOutcome {
	out := make([]types.ScrapeOutcome, len(urls))
	var g errgroup.Group
	for i, u := range urls {
		g.Go(func() error {
			out[i] = c.scrapeOne(ctx, u)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (c *Coordinator) scrapeOne(ctx context.Context, url string) (res types.ScrapeOutcome) {
	defer func() {
		if r := recover(); r != nil {
			res = types.ScrapeOutcome{SourceURL: url, ErrorReason: fmt.Sprintf("scrape panicked: %v", r)}
		}
		if !res.Success {
			c.log.Debug("scrape failed", zap.String("url", url), zap.String("reason", res.ErrorReason))
		}
	}()

	res = c.scrape.ScrapeText(ctx, url)
	res.SourceURL = url
	if !res.Success && res.ErrorReason == "" {
		res.ErrorReason = "unknown error"
	}
	return res
}

func (c *Coordinator) webSearch(ctx context.Context, query string, n int) types.Result[[]types.SearchHit] {
	return guard("web search", func() types.Result[[]types.SearchHit] {
		return c.search.Search(ctx, query, n)
	})
}

func (c *Coordinator) docSearch(ctx context.Context, query string) types.Result[[]types.LibraryHit] {
	return guard("documentation search", func() types.Result[[]types.LibraryHit] {
		return c.docs.Search(ctx, query)
	})
}

func (c *Coordinator) docFetch(ctx context.Context, id, query string) types.Result[string] {
	return guard("documentation fetch", func() types.Result[string] {
		return c.docs.FetchDetails(ctx, id, query, 1)
	})
}

// guard turns a panic inside a gateway call into a failed Result.
func guard[T any](name string, fn func() types.Result[T]) (res types.Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			res = types.Failed[T](fmt.Sprintf("%s panicked: %v", name, r))
		}
	}()
	return fn()
}

// topURLs returns the URLs of the first n hits.
func topURLs(hits []types.SearchHit, n int) []string {
	if len(hits) > n {
		hits = hits[:n]
	}
	urls := make([]string, 0, len(hits))
	for _, h := range hits {
		urls = append(urls, h.URL)
	}
	return urls
}

func countFailed(outcomes []types.ScrapeOutcome) int {
	n := 0
	for _, o := range outcomes {
		if !o.Success {
			n++
		}
	}
	return n
}

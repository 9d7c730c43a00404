// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fanout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/pdiddy/serpfire/pkg/types"
)

type fakeSearch struct {
	res   types.Result[[]types.SearchHit]
	panic bool
	calls int32
	gotN  int32
}

func (f *fakeSearch) Search(_ context.Context, _ string, n int) types.Result[[]types.SearchHit] {
	atomic.AddInt32(&f.calls, 1)
	atomic.StoreInt32(&f.gotN, int32(n))
	if f.panic {
		panic("search exploded")
	}
	hits := f.res.Value()
	if f.res.Ok() && len(hits) > n {
		return types.OK(hits[:n])
	}
	return f.res
}

type fakeScrape struct {
	mu     sync.Mutex
	seen   []string
	fail   map[string]string
	panics map[string]bool
	delay  map[string]time.Duration
}

func (f *fakeScrape) ScrapeText(_ context.Context, url string) types.ScrapeOutcome {
	f.mu.Lock()
	f.seen = append(f.seen, url)
	f.mu.Unlock()

	if d := f.delay[url]; d > 0 {
		time.Sleep(d)
	}
	if f.panics[url] {
		panic("scraper exploded")
	}
	if reason, ok := f.fail[url]; ok {
		return types.ScrapeOutcome{SourceURL: url, ErrorReason: reason}
	}
	return types.ScrapeOutcome{SourceURL: url, Content: "content of " + url, Success: true}
}

func (f *fakeScrape) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}

type fakeDocs struct {
	search    types.Result[[]types.LibraryHit]
	detail    types.Result[string]
	fetchedID string
	fetches   int32
}

func (f *fakeDocs) Search(context.Context, string) types.Result[[]types.LibraryHit] {
	return f.search
}

func (f *fakeDocs) FetchDetails(_ context.Context, id, _ string, _ int) types.Result[string] {
	atomic.AddInt32(&f.fetches, 1)
	f.fetchedID = id
	return f.detail
}

func hits(urls ...string) []types.SearchHit {
	out := make([]types.SearchHit, len(urls))
	for i, u := range urls {
		out[i] = types.SearchHit{URL: u, Title: fmt.Sprintf("Hit %d", i+1)}
	}
	return out
}

func TestResearchScrapesTopHitsInOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	search := &fakeSearch{res: types.OK(hits("https://a", "https://b", "https://c", "https://d"))}
	scrape := &fakeScrape{
		fail: map[string]string{"https://b": "Firecrawl API returned HTTP 500"},
		// Later URLs finish first.
		delay: map[string]time.Duration{"https://a": 30 * time.Millisecond, "https://b": 15 * time.Millisecond},
	}
	c := New(search, scrape, &fakeDocs{}, zap.NewNop())

	out := c.Research(context.Background(), "redis", 3)

	require.True(t, out.Search.Ok())
	assert.Equal(t, int32(3), atomic.LoadInt32(&search.gotN))
	assert.Equal(t, []string{"https://a", "https://b", "https://c"}, out.URLs)
	require.Len(t, out.Scrapes, 3)
	assert.Equal(t, types.ScrapeOutcome{SourceURL: "https://a", Content: "content of https://a", Success: true}, out.Scrapes[0])
	assert.Equal(t, types.ScrapeOutcome{SourceURL: "https://b", ErrorReason: "Firecrawl API returned HTTP 500"}, out.Scrapes[1])
	assert.Equal(t, types.ScrapeOutcome{SourceURL: "https://c", Content: "content of https://c", Success: true}, out.Scrapes[2])
	assert.False(t, out.NoSources())
}

func TestResearchNoScrapeWhenSearchFailsOrEmpty(t *testing.T) {
	tests := []struct {
		name   string
		search *fakeSearch
	}{
		{"search failed", &fakeSearch{res: types.Failed[[]types.SearchHit]("Serper API returned HTTP 403")}},
		{"no hits", &fakeSearch{res: types.OK([]types.SearchHit{})}},
		{"search panicked", &fakeSearch{panic: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer goleak.VerifyNone(t)
			scrape := &fakeScrape{}
			c := New(tt.search, scrape, &fakeDocs{}, nil)

			out := c.Research(context.Background(), "topic", 3)

			assert.True(t, out.NoSources())
			assert.Empty(t, out.Scrapes)
			assert.Equal(t, 0, scrape.calls())
		})
	}
}

func TestResearchSearchPanicBecomesFailure(t *testing.T) {
	c := New(&fakeSearch{panic: true}, &fakeScrape{}, &fakeDocs{}, nil)

	out := c.Research(context.Background(), "topic", 2)

	require.False(t, out.Search.Ok())
	assert.Equal(t, "web search panicked: search exploded", out.Search.Reason())
}

func TestResearchDefaultsMaxSources(t *testing.T) {
	search := &fakeSearch{res: types.OK(hits("https://a", "https://b", "https://c", "https://d", "https://e"))}
	c := New(search, &fakeScrape{}, &fakeDocs{}, nil)

	out := c.Research(context.Background(), "topic", 0)

	assert.Len(t, out.URLs, DefaultMaxSources)
}

func TestScrapeAllRecoversPanics(t *testing.T) {
	defer goleak.VerifyNone(t)

	scrape := &fakeScrape{panics: map[string]bool{"https://boom": true}}
	c := New(&fakeSearch{}, scrape, &fakeDocs{}, nil)

	out := c.ScrapeAll(context.Background(), []string{"https://ok", "https://boom"})

	require.Len(t, out, 2)
	assert.True(t, out[0].Success)
	assert.False(t, out[1].Success)
	assert.Equal(t, "https://boom", out[1].SourceURL)
	assert.Equal(t, "scrape panicked: scraper exploded", out[1].ErrorReason)
}

func TestScrapeAllFillsEmptyReason(t *testing.T) {
	scrape := &fakeScrape{fail: map[string]string{"https://x": ""}}
	c := New(&fakeSearch{}, scrape, &fakeDocs{}, nil)

	out := c.ScrapeAll(context.Background(), []string{"https://x"})

	assert.Equal(t, "unknown error", out[0].ErrorReason)
}

func TestComprehensiveBothBranches(t *testing.T) {
	defer goleak.VerifyNone(t)

	search := &fakeSearch{res: types.OK(hits("https://1", "https://2", "https://3", "https://4", "https://5"))}
	scrape := &fakeScrape{}
	docs := &fakeDocs{
		search: types.OK([]types.LibraryHit{
			{ID: "/websites/redis_io", Title: "Redis"},
			{ID: "/redis/go-redis", Title: "go-redis"},
		}),
		detail: types.OK("SET key value"),
	}
	c := New(search, scrape, docs, nil)

	out := c.Comprehensive(context.Background(), "redis")

	assert.Equal(t, int32(ComprehensiveSearchCount), atomic.LoadInt32(&search.gotN))
	require.True(t, out.Search.Ok())
	assert.Len(t, out.Search.Value(), ComprehensiveSearchCount)
	require.Len(t, out.Scrapes, ComprehensiveSources)
	assert.Equal(t, "https://1", out.Scrapes[0].SourceURL)
	assert.Equal(t, "https://3", out.Scrapes[2].SourceURL)

	require.NotNil(t, out.DocLibrary)
	assert.Equal(t, "/websites/redis_io", out.DocLibrary.ID)
	assert.Equal(t, "/websites/redis_io", docs.fetchedID)
	assert.Equal(t, int32(1), atomic.LoadInt32(&docs.fetches))
	require.True(t, out.DocDetail.Ok())
	assert.Equal(t, "SET key value", out.DocDetail.Value())
}

func TestComprehensiveBranchesAreIndependent(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Run("docs fail", func(t *testing.T) {
		docs := &fakeDocs{search: types.Failed[[]types.LibraryHit]("not configured")}
		c := New(&fakeSearch{res: types.OK(hits("https://a"))}, &fakeScrape{}, docs, nil)

		out := c.Comprehensive(context.Background(), "x")

		assert.True(t, out.Search.Ok())
		require.Len(t, out.Scrapes, 1)
		assert.True(t, out.Scrapes[0].Success)
		assert.False(t, out.DocSearch.Ok())
		assert.Nil(t, out.DocLibrary)
		assert.Equal(t, int32(0), atomic.LoadInt32(&docs.fetches))
	})

	t.Run("web fails", func(t *testing.T) {
		scrape := &fakeScrape{}
		docs := &fakeDocs{
			search: types.OK([]types.LibraryHit{{ID: "/a/b"}}),
			detail: types.Failed[string]("Context7 API returned HTTP 404"),
		}
		c := New(&fakeSearch{res: types.Failed[[]types.SearchHit]("timeout")}, scrape, docs, nil)

		out := c.Comprehensive(context.Background(), "x")

		assert.False(t, out.Search.Ok())
		assert.Empty(t, out.Scrapes)
		assert.Equal(t, 0, scrape.calls())
		assert.True(t, out.DocSearch.Ok())
		require.NotNil(t, out.DocLibrary)
		assert.Equal(t, "Context7 API returned HTTP 404", out.DocDetail.Reason())
	})

	t.Run("no documentation hits", func(t *testing.T) {
		docs := &fakeDocs{search: types.OK([]types.LibraryHit{})}
		c := New(&fakeSearch{res: types.OK(hits("https://a"))}, &fakeScrape{}, docs, nil)

		out := c.Comprehensive(context.Background(), "x")

		assert.True(t, out.DocSearch.Ok())
		assert.Nil(t, out.DocLibrary)
		assert.Equal(t, int32(0), atomic.LoadInt32(&docs.fetches))
	})
}

func TestGuard(t *testing.T) {
	ok := guard("op", func() types.Result[int] { return types.OK(7) })
	assert.Equal(t, 7, ok.Value())

	failed := guard("op", func() types.Result[int] { panic(errors.New("boom")) })
	assert.False(t, failed.Ok())
	assert.Equal(t, "op panicked: boom", failed.Reason())
}

// rendezvousWait bounds how long a fake waits for its concurrent peers.
const rendezvousWait = 2 * time.Second

// barrierScrape succeeds only once n calls are in flight at the same time.
type barrierScrape struct {
	n       int
	mu      sync.Mutex
	arrived int
	all     chan struct{}
}

func newBarrierScrape(n int) *barrierScrape {
	return &barrierScrape{n: n, all: make(chan struct{})}
}

func (b *barrierScrape) ScrapeText(_ context.Context, url string) types.ScrapeOutcome {
	b.mu.Lock()
	b.arrived++
	if b.arrived == b.n {
		close(b.all)
	}
	b.mu.Unlock()

	select {
	case <-b.all:
		return types.ScrapeOutcome{SourceURL: url, Content: "content of " + url, Success: true}
	case <-time.After(rendezvousWait):
		return types.ScrapeOutcome{SourceURL: url, ErrorReason: "other scrapes never started"}
	}
}

func TestScrapeAllRunsConcurrently(t *testing.T) {
	defer goleak.VerifyNone(t)

	urls := []string{"https://a", "https://b", "https://c", "https://d"}
	c := New(&fakeSearch{}, newBarrierScrape(len(urls)), &fakeDocs{}, nil)

	out := c.ScrapeAll(context.Background(), urls)

	require.Len(t, out, len(urls))
	for i, o := range out {
		assert.True(t, o.Success, "scrape %d: %s", i, o.ErrorReason)
		assert.Equal(t, urls[i], o.SourceURL)
	}
}

// meeting lets the web and documentation branches each block until the
// other has started.
type meeting struct {
	web  chan struct{}
	docs chan struct{}
}

func (m *meeting) arrive(mine, theirs chan struct{}) bool {
	close(mine)
	select {
	case <-theirs:
		return true
	case <-time.After(rendezvousWait):
		return false
	}
}

type meetingSearch struct{ m *meeting }

func (s meetingSearch) Search(context.Context, string, int) types.Result[[]types.SearchHit] {
	if !s.m.arrive(s.m.web, s.m.docs) {
		return types.Failed[[]types.SearchHit]("documentation branch never started")
	}
	return types.OK(hits("https://a"))
}

type meetingDocs struct{ m *meeting }

func (d meetingDocs) Search(context.Context, string) types.Result[[]types.LibraryHit] {
	if !d.m.arrive(d.m.docs, d.m.web) {
		return types.Failed[[]types.LibraryHit]("web branch never started")
	}
	return types.OK([]types.LibraryHit{{ID: "/a/b"}})
}

func (d meetingDocs) FetchDetails(context.Context, string, string, int) types.Result[string] {
	return types.OK("details")
}

func TestComprehensiveBranchesRunConcurrently(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := &meeting{web: make(chan struct{}), docs: make(chan struct{})}
	c := New(meetingSearch{m}, &fakeScrape{}, meetingDocs{m}, nil)

	out := c.Comprehensive(context.Background(), "x")

	assert.True(t, out.Search.Ok(), out.Search.Reason())
	assert.True(t, out.DocSearch.Ok(), out.DocSearch.Reason())
	require.Len(t, out.Scrapes, 1)
	assert.True(t, out.DocDetail.Ok())
}

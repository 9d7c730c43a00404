// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scrape is the page scraping gateway. It talks to the Firecrawl API
// for single-page scrapes and site-wide crawls.
package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/serpfire/internal/httputil"
	"github.com/pdiddy/serpfire/pkg/types"
)

// firecrawlBase is the Firecrawl v1 API base. Declared as a var so tests can
// substitute an httptest server.
var firecrawlBase = "https://api.firecrawl.dev/v1"

// DefaultCrawlLimit is the page limit used when a crawl does not set one.
const DefaultCrawlLimit = 5

// Format is a page representation Firecrawl can return.
type Format string

const (
	FormatMarkdown           Format = "markdown"
	FormatHTML               Format = "html"
	FormatRawHTML            Format = "rawHtml"
	FormatLinks              Format = "links"
	FormatScreenshot         Format = "screenshot"
	FormatExtract            Format = "extract"
	FormatFullPageScreenshot Format = "full-page-screenshot"
)

// Formats lists every supported format in declaration order.
var Formats = []Format{
	FormatMarkdown, FormatHTML, FormatRawHTML, FormatLinks,
	FormatScreenshot, FormatExtract, FormatFullPageScreenshot,
}

// FormatNames returns Formats as strings, for schema enums.
func FormatNames() []string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return names
}

// ParseFormat validates s. The provider spelling "screenshot@fullPage" is
// accepted as an alias for FormatFullPageScreenshot.
func ParseFormat(s string) (Format, error) {
	if s == "screenshot@fullPage" {
		return FormatFullPageScreenshot, nil
	}
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported format %q", s)
}

// wire returns the name Firecrawl expects on the wire.
func (f Format) wire() string {
	if f == FormatFullPageScreenshot {
		return "screenshot@fullPage"
	}
	return string(f)
}

func wireFormats(formats []Format) []string {
	if len(formats) == 0 {
		formats = []Format{FormatMarkdown}
	}
	out := make([]string, len(formats))
	for i, f := range formats {
		out[i] = f.wire()
	}
	return out
}

// Client calls the Firecrawl API.
type Client struct {
	HTTP *http.Client
	Cfg  types.ScrapeConfig
}

// New returns a Client for cfg.
func New(cfg types.ScrapeConfig) *Client {
	return &Client{HTTP: httputil.NewClient(cfg.HTTPConfig), Cfg: cfg}
}

// Scrape requests the given representations of pageURL and returns the
// provider response unchanged. An empty formats list means Markdown only.
func (c *Client) Scrape(ctx context.Context, pageURL string, formats []Format) types.Result[json.RawMessage] {
	raw, reason := c.post(ctx, "/scrape", scrapeRequest{URL: pageURL, Formats: wireFormats(formats)})
	if reason != "" {
		return types.Failed[json.RawMessage](reason)
	}
	return types.OK(raw)
}

// ScrapeText scrapes pageURL as Markdown and returns its long-form text. The
// outcome always names pageURL, whether or not the scrape succeeded.
func (c *Client) ScrapeText(ctx context.Context, pageURL string) types.ScrapeOutcome {
	out := types.ScrapeOutcome{SourceURL: pageURL}

	raw, reason := c.post(ctx, "/scrape", scrapeRequest{URL: pageURL, Formats: wireFormats(nil)})
	if reason != "" {
		out.ErrorReason = reason
		return out
	}

	var sr scrapeResponse
	if err := json.Unmarshal(raw, &sr); err != nil {
		out.ErrorReason = fmt.Sprintf("parsing Firecrawl response: %v", err)
		return out
	}

	out.Content = sr.Data.text()
	if out.Content == "" {
		// No usable data object; keep whatever the provider did send.
		out.Content = string(raw)
	}
	out.Success = true
	return out
}

// Crawl starts a site-wide crawl rooted at siteURL and returns the provider
// response (a job id and status URL). limit <= 0 uses DefaultCrawlLimit.
func (c *Client) Crawl(ctx context.Context, siteURL string, limit int, formats []Format) types.Result[json.RawMessage] {
	if limit <= 0 {
		limit = DefaultCrawlLimit
	}
	raw, reason := c.post(ctx, "/crawl", crawlRequest{
		URL:           siteURL,
		Limit:         limit,
		ScrapeOptions: crawlScrapeOptions{Formats: wireFormats(formats)},
	})
	if reason != "" {
		return types.Failed[json.RawMessage](reason)
	}
	return types.OK(raw)
}

// CrawlStatus returns the provider's view of a crawl job.
func (c *Client) CrawlStatus(ctx context.Context, id string) types.Result[json.RawMessage] {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base()+"/crawl/"+url.PathEscape(id), nil)
	if err != nil {
		return types.Failed[json.RawMessage](fmt.Sprintf("creating request: %v", err))
	}
	raw, reason := c.do(ctx, req)
	if reason != "" {
		return types.Failed[json.RawMessage](reason)
	}
	return types.OK(raw)
}

func (c *Client) post(ctx context.Context, path string, payload any) (json.RawMessage, string) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Sprintf("encoding Firecrawl request: %v", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base()+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Sprintf("creating request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(ctx, req)
}

// do sends req and returns the raw body of a successful response, or a
// failure reason. A 2xx body with "success": false is a failure.
func (c *Client) do(ctx context.Context, req *http.Request) (json.RawMessage, string) {
	req.Header.Set("Authorization", "Bearer "+c.Cfg.APIKey)
	if c.Cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.Cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, c.Cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Sprintf("Firecrawl API request: %v", err)
	}
	defer resp.Body.Close()

	if !httputil.IsSuccess(resp) {
		return nil, "Firecrawl API returned " + httputil.StatusError(resp)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Sprintf("parsing Firecrawl response: %v", err)
	}

	var status struct {
		Success *bool  `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &status); err == nil && status.Success != nil && !*status.Success {
		if status.Error == "" {
			status.Error = "request unsuccessful"
		}
		return nil, "Firecrawl: " + status.Error
	}
	return raw, ""
}

func (c *Client) base() string {
	if c.Cfg.BaseURL != "" {
		return strings.TrimRight(c.Cfg.BaseURL, "/")
	}
	return firecrawlBase
}

// Firecrawl API JSON structures.
type scrapeRequest struct {
	URL     string   `json:"url"`
	Formats []string `json:"formats"`
}

type crawlRequest struct {
	URL           string             `json:"url"`
	Limit         int                `json:"limit"`
	ScrapeOptions crawlScrapeOptions `json:"scrapeOptions"`
}

type crawlScrapeOptions struct {
	Formats []string `json:"formats"`
}

type scrapeResponse struct {
	Success bool       `json:"success"`
	Data    scrapeData `json:"data"`
}

type scrapeData struct {
	Markdown string          `json:"markdown"`
	HTML     string          `json:"html"`
	Raw      json.RawMessage `json:"-"`
}

func (d *scrapeData) UnmarshalJSON(b []byte) error {
	type plain scrapeData
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*d = scrapeData(p)
	d.Raw = append(json.RawMessage(nil), b...)
	return nil
}

// text picks the best long-form text: Markdown, then visible HTML text,
// then the raw data object so the caller still sees what came back.
func (d scrapeData) text() string {
	if strings.TrimSpace(d.Markdown) != "" {
		return d.Markdown
	}
	if d.HTML != "" {
		if t := HTMLText(d.HTML); t != "" {
			return t
		}
	}
	if len(d.Raw) > 0 && string(d.Raw) != "null" {
		return string(d.Raw)
	}
	return ""
}

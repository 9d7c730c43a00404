// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search is the web search gateway. It queries the Serper Google
// Search API and returns organic hits in provider order.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/serpfire/internal/httputil"
	"github.com/pdiddy/serpfire/pkg/types"
)

// serperEndpoint is the Serper search endpoint. Declared as a var so tests
// can substitute an httptest server.
var serperEndpoint = "https://google.serper.dev/search"

// DefaultCount is the number of hits requested when the caller does not
// specify one.
const DefaultCount = 10

// Client queries the Serper API.
type Client struct {
	HTTP *http.Client
	Cfg  types.SearchConfig
}

// New returns a Client for cfg.
func New(cfg types.SearchConfig) *Client {
	return &Client{HTTP: httputil.NewClient(cfg.HTTPConfig), Cfg: cfg}
}

// Search returns at most desiredCount hits for query. Zero hits is a
// successful, empty result. Transport failures, non-2xx responses and
// malformed bodies become a failed Result; Search never returns an error.
func (c *Client) Search(ctx context.Context, query string, desiredCount int) types.Result[[]types.SearchHit] {
	raw, reason := c.do(ctx, query, desiredCount)
	if reason != "" {
		return types.Failed[[]types.SearchHit](reason)
	}

	var sr serperResponse
	if err := json.Unmarshal(raw, &sr); err != nil {
		return types.Failed[[]types.SearchHit](fmt.Sprintf("parsing Serper response: %v", err))
	}
	return types.OK(sr.hits(clampCount(desiredCount)))
}

func (c *Client) do(ctx context.Context, query string, desiredCount int) (json.RawMessage, string) {
	body, err := json.Marshal(serperRequest{Q: query, Num: clampCount(desiredCount)})
	if err != nil {
		return nil, fmt.Sprintf("encoding Serper request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Sprintf("creating request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.Cfg.APIKey)
	if c.Cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.Cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, c.Cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Sprintf("Serper API request: %v", err)
	}
	defer resp.Body.Close()

	if !httputil.IsSuccess(resp) {
		return nil, "Serper API returned " + httputil.StatusError(resp)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Sprintf("parsing Serper response: %v", err)
	}
	return raw, ""
}

func (c *Client) endpoint() string {
	if c.Cfg.Endpoint != "" {
		return c.Cfg.Endpoint
	}
	return serperEndpoint
}

// clampCount keeps the requested count at one or more.
func clampCount(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// Serper API JSON structures.
type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
}

type serperResponse struct {
	Organic []serperOrganic `json:"organic"`
}

type serperOrganic struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position"`
}

// hits maps organic results to SearchHits, skipping entries without a link,
// and truncates to limit. Provider order is kept.
func (sr serperResponse) hits(limit int) []types.SearchHit {
	hits := make([]types.SearchHit, 0, min(limit, len(sr.Organic)))
	for _, o := range sr.Organic {
		if len(hits) == limit {
			break
		}
		link := strings.TrimSpace(o.Link)
		if link == "" {
			continue
		}
		hits = append(hits, types.SearchHit{
			URL:     link,
			Title:   strings.TrimSpace(o.Title),
			Snippet: strings.TrimSpace(o.Snippet),
		})
	}
	return hits
}

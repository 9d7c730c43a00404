// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package docs is the documentation lookup gateway. It searches the Context7
// library index and fetches documentation text for one library.
//
// The API key is optional at start-up. Without it every call fails with
// NotConfiguredReason and no request is sent.
package docs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/serpfire/internal/httputil"
	"github.com/pdiddy/serpfire/pkg/types"
)

// context7Base is the Context7 API base. Declared as a var so tests can
// substitute an httptest server.
var context7Base = "https://context7.com/api/v2"

// NotConfiguredReason is the failure reason reported when no API key is set.
const NotConfiguredReason = "not configured"

// ErrNotConfigured is returned by Client.Err when the key is missing.
var ErrNotConfigured = errors.New("documentation lookup " + NotConfiguredReason + ": set CONTEXT7_API_KEY")

// maxDetailBytes bounds how much documentation text is read per fetch.
const maxDetailBytes = 1 << 20

// Client calls the Context7 API.
type Client struct {
	HTTP *http.Client
	Cfg  types.DocsConfig
}

// New returns a Client for cfg.
func New(cfg types.DocsConfig) *Client {
	return &Client{HTTP: httputil.NewClient(cfg.HTTPConfig), Cfg: cfg}
}

// Configured reports whether an API key is available.
func (c *Client) Configured() bool {
	return strings.TrimSpace(c.Cfg.APIKey) != ""
}

// Err returns ErrNotConfigured when the gateway cannot be used.
func (c *Client) Err() error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	return nil
}

// Search returns the libraries matching query, best match first.
func (c *Client) Search(ctx context.Context, query string) types.Result[[]types.LibraryHit] {
	if !c.Configured() {
		return types.Failed[[]types.LibraryHit](NotConfiguredReason)
	}

	params := url.Values{"query": {query}}
	body, reason := c.get(ctx, "/search", params)
	if reason != "" {
		return types.Failed[[]types.LibraryHit](reason)
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return types.Failed[[]types.LibraryHit](fmt.Sprintf("parsing Context7 response: %v", err))
	}

	hits := make([]types.LibraryHit, 0, len(sr.Results))
	for _, r := range sr.Results {
		if r.ID == "" {
			continue
		}
		hits = append(hits, types.LibraryHit{
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description,
		})
	}
	return types.OK(hits)
}

// FetchDetails returns documentation text for the library id, focused on
// query. page < 1 is treated as the first page. The id is sent verbatim as a
// query parameter; only URL escaping is applied.
func (c *Client) FetchDetails(ctx context.Context, id, query string, page int) types.Result[string] {
	if !c.Configured() {
		return types.Failed[string](NotConfiguredReason)
	}
	if page < 1 {
		page = 1
	}

	params := url.Values{
		"libraryId": {id},
		"type":      {"txt"},
		"page":      {strconv.Itoa(page)},
	}
	if query != "" {
		params.Set("query", query)
	}

	body, reason := c.get(ctx, "/docs", params)
	if reason != "" {
		return types.Failed[string](reason)
	}
	return types.OK(string(body))
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base()+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Sprintf("creating request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Cfg.APIKey)
	if c.Cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.Cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, c.Cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Sprintf("Context7 API request: %v", err)
	}
	defer resp.Body.Close()

	if !httputil.IsSuccess(resp) {
		return nil, "Context7 API returned " + httputil.StatusError(resp)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDetailBytes))
	if err != nil {
		return nil, fmt.Sprintf("reading Context7 response: %v", err)
	}
	return body, ""
}

func (c *Client) base() string {
	if c.Cfg.BaseURL != "" {
		return strings.TrimRight(c.Cfg.BaseURL, "/")
	}
	return context7Base
}

// Context7 API JSON structures.
type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

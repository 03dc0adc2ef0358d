// Package search talks to the external web and news search APIs with
// cache-through semantics against the store: a cached result set is
// served regardless of age, and live results replace the cache entry.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/avolkov/hopweaver/internal/model"
	"github.com/avolkov/hopweaver/internal/store"
)

const (
	defaultWebBaseURL  = "https://www.googleapis.com/customsearch/v1"
	defaultNewsBaseURL = "http://api.mediastack.com/v1/news"
)

// Client performs cached web and news searches
type Client struct {
	store      *store.Store
	httpClient *http.Client
	cfg        model.SearchConfig
	webBase    string
	newsBase   string
}

// NewClient creates a search client over the given store
func NewClient(st *store.Store, cfg model.SearchConfig, timeout time.Duration) *Client {
	webBase := cfg.WebBaseURL
	if webBase == "" {
		webBase = defaultWebBaseURL
	}
	newsBase := cfg.NewsBaseURL
	if newsBase == "" {
		newsBase = defaultNewsBaseURL
	}
	return &Client{
		store:      st,
		httpClient: &http.Client{Timeout: timeout},
		cfg:        cfg,
		webBase:    webBase,
		newsBase:   newsBase,
	}
}

// SearchWeb returns web search results for query. The second return
// value reports whether the result set came from the cache.
func (c *Client) SearchWeb(ctx context.Context, query string) ([]model.SearchResult, bool, error) {
	cached, found, err := c.store.CachedSearch(model.SearchKindWeb, query)
	if err != nil {
		return nil, false, err
	}
	if found {
		var results []model.SearchResult
		if err := json.Unmarshal(cached, &results); err != nil {
			return nil, false, fmt.Errorf("%w: web search cache for %q: %v", store.ErrCorruptRecord, query, err)
		}
		return results, true, nil
	}

	results, err := c.liveWebSearch(ctx, query)
	if err != nil {
		return nil, false, err
	}

	payload, err := json.Marshal(results)
	if err != nil {
		return nil, false, fmt.Errorf("marshal web results: %w", err)
	}
	if err := c.store.UpsertSearchCache(model.SearchKindWeb, query, payload); err != nil {
		return nil, false, err
	}
	return results, false, nil
}

func (c *Client) liveWebSearch(ctx context.Context, query string) ([]model.SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("key", c.cfg.WebAPIKey)
	params.Set("cx", c.cfg.WebEngineID)

	body, err := c.get(ctx, c.webBase+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("web search: %w", err)
	}

	var resp struct {
		Items []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode web search response: %w", err)
	}

	results := make([]model.SearchResult, 0, len(resp.Items))
	for _, item := range resp.Items {
		results = append(results, model.SearchResult{
			Title:   item.Title,
			Link:    item.Link,
			Snippet: item.Snippet,
		})
	}
	return results, nil
}

// SearchNews returns news search results for query. The second return
// value reports whether the result set came from the cache.
func (c *Client) SearchNews(ctx context.Context, query string) ([]model.NewsResult, bool, error) {
	cached, found, err := c.store.CachedSearch(model.SearchKindNews, query)
	if err != nil {
		return nil, false, err
	}
	if found {
		var results []model.NewsResult
		if err := json.Unmarshal(cached, &results); err != nil {
			return nil, false, fmt.Errorf("%w: news search cache for %q: %v", store.ErrCorruptRecord, query, err)
		}
		return results, true, nil
	}

	results, err := c.liveNewsSearch(ctx, query)
	if err != nil {
		return nil, false, err
	}

	payload, err := json.Marshal(results)
	if err != nil {
		return nil, false, fmt.Errorf("marshal news results: %w", err)
	}
	if err := c.store.UpsertSearchCache(model.SearchKindNews, query, payload); err != nil {
		return nil, false, err
	}
	return results, false, nil
}

func (c *Client) liveNewsSearch(ctx context.Context, query string) ([]model.NewsResult, error) {
	limit := c.cfg.NewsLimit
	if limit <= 0 {
		limit = 100
	}

	params := url.Values{}
	params.Set("access_key", c.cfg.NewsAPIKey)
	params.Set("keywords", query)
	params.Set("sort", "published_desc")
	params.Set("languages", "en")
	params.Set("limit", strconv.Itoa(limit))

	body, err := c.get(ctx, c.newsBase+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("news search: %w", err)
	}

	var resp struct {
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		Data []model.NewsResult `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode news search response: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("news search API error: %s: %s", resp.Error.Code, resp.Error.Message)
	}

	return resp.Data, nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// Package fetch implements the cache-through coordinator: a URL resolves
// to page content and claim records from the durable store when present,
// and from the external extraction collaborators exactly once otherwise.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/avolkov/hopweaver/internal/cache"
	"github.com/avolkov/hopweaver/internal/extract"
	"github.com/avolkov/hopweaver/internal/llm"
	"github.com/avolkov/hopweaver/internal/model"
	"github.com/avolkov/hopweaver/internal/store"
)

// ErrFetchFailed means an external content or claim fetch failed. Nothing
// is persisted; the caller may retry by re-invoking.
var ErrFetchFailed = errors.New("fetch failed")

// Coordinator resolves URLs against the store first and the external
// collaborators on miss. Concurrent callers for the same URL share one
// external fetch through a per-URL in-flight lock.
type Coordinator struct {
	store     *store.Store
	extractor ContentExtractor
	provider  llm.Provider
	memory    cache.Cache // nil disables the memory layer
	memoryTTL time.Duration
	chunkSize int
	maxChunks int

	mu       sync.Mutex
	inflight map[string]*sync.Mutex
}

// Options tunes coordinator behavior beyond its collaborators
type Options struct {
	Memory    cache.Cache
	MemoryTTL time.Duration
	ChunkSize int // approximate words per extraction chunk
	MaxChunks int // cap on chunks sent to the model per page
}

// NewCoordinator creates a coordinator over the given store and
// collaborators.
func NewCoordinator(st *store.Store, extractor ContentExtractor, provider llm.Provider, opts Options) *Coordinator {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 700
	}
	if opts.MaxChunks <= 0 {
		opts.MaxChunks = 10
	}
	return &Coordinator{
		store:     st,
		extractor: extractor,
		provider:  provider,
		memory:    opts.Memory,
		memoryTTL: opts.MemoryTTL,
		chunkSize: opts.ChunkSize,
		maxChunks: opts.MaxChunks,
		inflight:  make(map[string]*sync.Mutex),
	}
}

// urlLock returns the in-flight lock for url, creating it on first use
func (c *Coordinator) urlLock(url string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.inflight[url]
	if !ok {
		m = &sync.Mutex{}
		c.inflight[url] = m
	}
	return m
}

// FetchPage returns the page content for url. Store hits are served
// as-is; on a miss the external extractor runs once and the result is
// persisted with the current date as the fetch date. A PageMeta carries
// optional metadata from a search result into the stored page.
func (c *Coordinator) FetchPage(ctx context.Context, url string, meta PageMeta) (string, error) {
	if c.memory != nil {
		if cached, ok := c.memory.Get(cache.PageKey(url)); ok {
			return string(cached), nil
		}
	}

	lock := c.urlLock(url)
	lock.Lock()
	defer lock.Unlock()

	page, err := c.store.GetPageByURL(url)
	if err != nil {
		return "", err
	}
	if page != nil {
		c.remember(cache.PageKey(url), page.Content)
		return page.Content, nil
	}

	content, err := c.extractor.Extract(ctx, url)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrFetchFailed, url, err)
	}

	title := meta.Title
	if title == "" {
		title = content.Title
	}
	snippet := meta.Snippet
	if snippet == "" {
		snippet = content.Excerpt
	}

	err = c.store.UpsertPage(model.WebPage{
		URL:      url,
		Title:    title,
		Date:     time.Now().Format("2006-01-02"),
		Snippet:  snippet,
		Content:  content.Text,
		Source:   meta.Source,
		Language: meta.Language,
		Category: meta.Category,
		Country:  meta.Country,
	})
	if err != nil {
		return "", err
	}

	c.remember(cache.PageKey(url), content.Text)
	return content.Text, nil
}

// PageMeta carries search result metadata into a freshly stored page
type PageMeta struct {
	Title    string
	Snippet  string
	Source   string
	Language string
	Category string
	Country  string
}

// FetchClaims returns the claim records for url. A stored extraction is
// deserialized and returned; on a miss the content is chunked, sent to
// the extraction model in one order-preserving batch, normalized, and
// the full sequence persisted.
func (c *Coordinator) FetchClaims(ctx context.Context, url, content string) ([]model.ClaimRecord, error) {
	if c.memory != nil {
		if cached, ok := c.memory.Get(cache.ClaimsKey(url)); ok {
			var records []model.ClaimRecord
			if err := json.Unmarshal(cached, &records); err == nil {
				return records, nil
			}
		}
	}

	lock := c.urlLock(url)
	lock.Lock()
	defer lock.Unlock()

	records, found, err := c.store.GetClaimsByURL(url)
	if err != nil {
		return nil, err
	}
	if found {
		c.rememberClaims(url, records)
		return records, nil
	}

	chunks := extract.Chunks(content, c.chunkSize)
	if len(chunks) > c.maxChunks {
		chunks = chunks[:c.maxChunks]
	}

	prompts := make([]string, len(chunks))
	for i, chunk := range chunks {
		prompts[i] = llm.ClaimPrompt(chunk)
	}

	blocks, err := c.provider.BatchComplete(ctx, prompts, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: extract claims for %s: %v", ErrFetchFailed, url, err)
	}

	records = extract.Normalize(blocks, url)
	if err := c.store.UpsertClaims(url, records); err != nil {
		return nil, err
	}
	c.rememberClaims(url, records)
	return records, nil
}

func (c *Coordinator) remember(key, value string) {
	if c.memory == nil {
		return
	}
	_ = c.memory.Set(key, []byte(value), c.memoryTTL)
}

func (c *Coordinator) rememberClaims(url string, records []model.ClaimRecord) {
	if c.memory == nil {
		return
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return
	}
	_ = c.memory.Set(cache.ClaimsKey(url), payload, c.memoryTTL)
}

package fetch

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/avolkov/hopweaver/internal/model"
	"github.com/avolkov/hopweaver/internal/worker"
)

// PageFetcher resolves a URL to page content and claim records. The
// cache-through coordinator satisfies this.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string, meta PageMeta) (string, error)
	FetchClaims(ctx context.Context, url, content string) ([]model.ClaimRecord, error)
}

// PrefetchJob warms the cache for one URL: page content first, then
// claim extraction when enabled.
type PrefetchJob struct {
	URL           string
	Fetcher       PageFetcher
	ExtractClaims bool
}

// Execute runs the prefetch job
func (j *PrefetchJob) Execute(ctx context.Context) worker.Result {
	content, err := j.Fetcher.FetchPage(ctx, j.URL, PageMeta{})
	if err != nil {
		return &PrefetchResult{URL: j.URL, Error: err}
	}

	result := &PrefetchResult{URL: j.URL}
	if j.ExtractClaims {
		records, err := j.Fetcher.FetchClaims(ctx, j.URL, content)
		if err != nil {
			result.Error = err
			return result
		}
		result.Claims = len(records)
	}
	return result
}

// PrefetchResult reports the outcome for one URL
type PrefetchResult struct {
	URL    string
	Claims int
	Error  error
}

// GetError returns the error from the prefetch result
func (r *PrefetchResult) GetError() error {
	return r.Error
}

// Prefetcher warms the page and claim caches for many URLs concurrently
type Prefetcher struct {
	fetcher       PageFetcher
	concurrency   int
	extractClaims bool
}

// NewPrefetcher creates a prefetcher with the given concurrency
func NewPrefetcher(fetcher PageFetcher, concurrency int, extractClaims bool) *Prefetcher {
	return &Prefetcher{
		fetcher:       fetcher,
		concurrency:   concurrency,
		extractClaims: extractClaims,
	}
}

// Run prefetches all URLs and returns one result per URL. Cancelling
// ctx aborts jobs that have not finished; their results are not
// reported.
func (p *Prefetcher) Run(ctx context.Context, urls []string) []*PrefetchResult {
	if len(urls) == 0 {
		return nil
	}

	pool := worker.NewPool(ctx, p.concurrency)
	pool.Start()

	go func() {
		for _, u := range urls {
			pool.Submit(&PrefetchJob{URL: u, Fetcher: p.fetcher, ExtractClaims: p.extractClaims})
		}
		pool.Close()
	}()

	results := pool.Wait()
	out := make([]*PrefetchResult, len(results))
	for i, r := range results {
		out[i] = r.(*PrefetchResult)
	}
	return out
}

// RunFile reads URLs from a file (one per line, # comments and blanks
// skipped, duplicates dropped) and prefetches them.
func (p *Prefetcher) RunFile(ctx context.Context, path string) ([]*PrefetchResult, error) {
	urls, err := ReadURLsFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("read URLs: %w", err)
	}
	return p.Run(ctx, urls), nil
}

// ReadURLsFromFile reads URLs from a file, one per line
func ReadURLsFromFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			urls = append(urls, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return urls, nil
}

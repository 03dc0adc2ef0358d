package fetch

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/avolkov/hopweaver/internal/cache"
	"github.com/avolkov/hopweaver/internal/model"
	"github.com/avolkov/hopweaver/internal/store"
)

type fakeExtractor struct {
	mu      sync.Mutex
	calls   int
	content string
	err     error
	delay   time.Duration
}

func (f *fakeExtractor) Extract(ctx context.Context, rawURL string) (*PageContent, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &PageContent{Title: "title", Text: f.content}, nil
}

func (f *fakeExtractor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeProvider struct {
	mu     sync.Mutex
	calls  int
	blocks []string
	err    error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeProvider) BatchComplete(ctx context.Context, prompts []string, maxTokens int) ([]string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]string, len(prompts))
	for i := range prompts {
		if i < len(f.blocks) {
			out[i] = f.blocks[i]
		}
	}
	return out, nil
}

func (f *fakeProvider) IsAvailable(ctx context.Context) bool { return true }

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open store failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestFetchPage_SecondCallHitsCache(t *testing.T) {
	st := newTestStore(t)
	ext := &fakeExtractor{content: "page body"}
	coord := NewCoordinator(st, ext, &fakeProvider{}, Options{})

	first, err := coord.FetchPage(context.Background(), "https://example.com/p", PageMeta{})
	if err != nil {
		t.Fatalf("first FetchPage failed: %v", err)
	}
	second, err := coord.FetchPage(context.Background(), "https://example.com/p", PageMeta{})
	if err != nil {
		t.Fatalf("second FetchPage failed: %v", err)
	}

	if first != "page body" || second != "page body" {
		t.Errorf("Unexpected content: %q, %q", first, second)
	}
	if got := ext.callCount(); got != 1 {
		t.Errorf("Extractor should run once, ran %d times", got)
	}
}

func TestFetchPage_FailurePersistsNothing(t *testing.T) {
	st := newTestStore(t)
	ext := &fakeExtractor{err: errors.New("connection refused")}
	coord := NewCoordinator(st, ext, &fakeProvider{}, Options{})

	_, err := coord.FetchPage(context.Background(), "https://example.com/down", PageMeta{})
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("Expected ErrFetchFailed, got %v", err)
	}

	page, err := st.GetPageByURL("https://example.com/down")
	if err != nil {
		t.Fatalf("GetPageByURL failed: %v", err)
	}
	if page != nil {
		t.Errorf("Nothing should be persisted on failure, got %+v", page)
	}
}

func TestFetchPage_StoresSearchMetadata(t *testing.T) {
	st := newTestStore(t)
	ext := &fakeExtractor{content: "body"}
	coord := NewCoordinator(st, ext, &fakeProvider{}, Options{})

	meta := PageMeta{Title: "from search", Snippet: "snip", Source: "example", Category: "science"}
	if _, err := coord.FetchPage(context.Background(), "https://example.com/meta", meta); err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}

	page, err := st.GetPageByURL("https://example.com/meta")
	if err != nil {
		t.Fatalf("GetPageByURL failed: %v", err)
	}
	if page.Title != "from search" || page.Category != "science" {
		t.Errorf("Search metadata not stored: %+v", page)
	}
	if page.Date == "" {
		t.Error("Fetch date should be set")
	}
}

func TestFetchPage_ConcurrentCallersShareOneFetch(t *testing.T) {
	st := newTestStore(t)
	ext := &fakeExtractor{content: "shared", delay: 50 * time.Millisecond}
	coord := NewCoordinator(st, ext, &fakeProvider{}, Options{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := coord.FetchPage(context.Background(), "https://example.com/race", PageMeta{}); err != nil {
				t.Errorf("FetchPage failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := ext.callCount(); got != 1 {
		t.Errorf("Concurrent callers should share one fetch, got %d", got)
	}
}

func TestFetchPage_MemoryLayerAvoidsStore(t *testing.T) {
	st := newTestStore(t)
	ext := &fakeExtractor{content: "cached body"}
	mem := cache.NewMemoryCache(time.Minute, time.Minute)
	coord := NewCoordinator(st, ext, &fakeProvider{}, Options{Memory: mem, MemoryTTL: time.Minute})

	if _, err := coord.FetchPage(context.Background(), "https://example.com/m", PageMeta{}); err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}

	if _, ok := mem.Get(cache.PageKey("https://example.com/m")); !ok {
		t.Error("Memory layer should hold the page after first fetch")
	}
}

func TestFetchClaims_CacheHitSkipsModel(t *testing.T) {
	st := newTestStore(t)
	stored := []model.ClaimRecord{{Claim: "c", Topic: "t", Target: "x", Evidence: "e", URL: "https://example.com/c"}}
	if err := st.UpsertClaims("https://example.com/c", stored); err != nil {
		t.Fatalf("seed claims failed: %v", err)
	}

	provider := &fakeProvider{}
	coord := NewCoordinator(st, &fakeExtractor{}, provider, Options{})

	records, err := coord.FetchClaims(context.Background(), "https://example.com/c", "irrelevant content")
	if err != nil {
		t.Fatalf("FetchClaims failed: %v", err)
	}
	if len(records) != 1 || records[0].Claim != "c" {
		t.Errorf("Expected stored records, got %+v", records)
	}
	if provider.calls != 0 {
		t.Errorf("Model should not be called on cache hit, called %d times", provider.calls)
	}
}

func TestFetchClaims_MissExtractsNormalizesPersists(t *testing.T) {
	st := newTestStore(t)
	provider := &fakeProvider{blocks: []string{
		"##Evidence: e1\n##Claims: c1\n##Claim Target: t1\n##Claim Topic: p1",
		"##Claims: incomplete block",
	}}
	coord := NewCoordinator(st, &fakeExtractor{}, provider, Options{ChunkSize: 3})

	content := "one two three\n\nfour five six"
	records, err := coord.FetchClaims(context.Background(), "https://example.com/n", content)
	if err != nil {
		t.Fatalf("FetchClaims failed: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("Expected 1 normalized record, got %d", len(records))
	}
	if records[0].URL != "https://example.com/n" {
		t.Errorf("Record should carry provenance URL, got %q", records[0].URL)
	}

	persisted, found, err := st.GetClaimsByURL("https://example.com/n")
	if err != nil {
		t.Fatalf("GetClaimsByURL failed: %v", err)
	}
	if !found || len(persisted) != 1 {
		t.Errorf("Normalized records should be persisted, got found=%v %+v", found, persisted)
	}
}

func TestFetchClaims_OutageDoesNotPoisonCache(t *testing.T) {
	st := newTestStore(t)
	provider := &fakeProvider{err: errors.New("endpoint down")}
	coord := NewCoordinator(st, &fakeExtractor{}, provider, Options{})

	_, err := coord.FetchClaims(context.Background(), "https://example.com/o", "some page content")
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("Expected ErrFetchFailed during outage, got %v", err)
	}
	_, found, err := st.GetClaimsByURL("https://example.com/o")
	if err != nil {
		t.Fatalf("GetClaimsByURL failed: %v", err)
	}
	if found {
		t.Fatal("Failed extraction must not persist an empty result")
	}

	// Endpoint recovers; the next call must reach the model again
	provider.err = nil
	provider.blocks = []string{"##Evidence: e\n##Claims: c\n##Claim Target: t\n##Claim Topic: p"}

	records, err := coord.FetchClaims(context.Background(), "https://example.com/o", "some page content")
	if err != nil {
		t.Fatalf("FetchClaims after recovery failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("Expected 1 record after recovery, got %d", len(records))
	}
	if provider.calls != 2 {
		t.Errorf("Model should be retried after an outage, called %d times", provider.calls)
	}
}

func TestFetchClaims_MemoryLayerServesClaims(t *testing.T) {
	st := newTestStore(t)
	stored := []model.ClaimRecord{{Claim: "c", Topic: "t", Target: "x", Evidence: "e", URL: "https://example.com/mc"}}
	if err := st.UpsertClaims("https://example.com/mc", stored); err != nil {
		t.Fatalf("seed claims failed: %v", err)
	}

	mem := cache.NewMemoryCache(time.Minute, time.Minute)
	coord := NewCoordinator(st, &fakeExtractor{}, &fakeProvider{}, Options{Memory: mem, MemoryTTL: time.Minute})

	if _, err := coord.FetchClaims(context.Background(), "https://example.com/mc", "content"); err != nil {
		t.Fatalf("FetchClaims failed: %v", err)
	}
	if _, ok := mem.Get(cache.ClaimsKey("https://example.com/mc")); !ok {
		t.Fatal("Memory layer should hold the claims after first lookup")
	}

	// A coordinator over an empty store but the same memory must be
	// served from memory alone.
	empty := newTestStore(t)
	provider := &fakeProvider{}
	warm := NewCoordinator(empty, &fakeExtractor{}, provider, Options{Memory: mem, MemoryTTL: time.Minute})

	records, err := warm.FetchClaims(context.Background(), "https://example.com/mc", "content")
	if err != nil {
		t.Fatalf("FetchClaims from memory failed: %v", err)
	}
	if len(records) != 1 || records[0].Claim != "c" {
		t.Errorf("Expected memory-served records, got %+v", records)
	}
	if provider.calls != 0 {
		t.Errorf("Model should not run on a memory hit, called %d times", provider.calls)
	}
}

func TestFetchClaims_ModelFailurePersistsNothing(t *testing.T) {
	st := newTestStore(t)
	provider := &fakeProvider{err: errors.New("model down")}
	coord := NewCoordinator(st, &fakeExtractor{}, provider, Options{})

	_, err := coord.FetchClaims(context.Background(), "https://example.com/f", "some content")
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("Expected ErrFetchFailed, got %v", err)
	}

	_, found, err := st.GetClaimsByURL("https://example.com/f")
	if err != nil {
		t.Fatalf("GetClaimsByURL failed: %v", err)
	}
	if found {
		t.Error("Nothing should be persisted when extraction fails")
	}
}

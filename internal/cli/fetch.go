package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/avolkov/hopweaver/internal/cache"
	"github.com/avolkov/hopweaver/internal/fetch"
	"github.com/avolkov/hopweaver/internal/llm"
	"github.com/avolkov/hopweaver/internal/model"
	"github.com/avolkov/hopweaver/internal/store"
	"github.com/spf13/cobra"
)

var (
	fetchFile     string
	fetchClaims   bool
	fetchTimeout  time.Duration
	fetchWorkers  int
	fetchCategory string
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch [url]",
	Short: "Cache page content (and optionally claims) for URLs",
	Long: `Fetch resolves a URL through the cache: a stored page is returned
as-is, otherwise the page is fetched live, reduced to readable text,
and persisted. With --claims the extraction model also runs over the
content and the resulting claim records are cached.

With --file, URLs are read one per line and prefetched concurrently
with per-domain rate limiting.

Example:
  hopweaver fetch https://example.com/article
  hopweaver fetch https://example.com/article --claims
  hopweaver fetch --file urls.txt --claims --workers 8`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&fetchFile, "file", "", "file with URLs, one per line")
	fetchCmd.Flags().BoolVar(&fetchClaims, "claims", false, "also extract and cache claim records")
	fetchCmd.Flags().DurationVar(&fetchTimeout, "timeout", 10*time.Minute, "overall timeout")
	fetchCmd.Flags().IntVar(&fetchWorkers, "workers", 0, "concurrent fetch workers for --file (default from config)")
	fetchCmd.Flags().StringVar(&fetchCategory, "category", "", "category recorded on freshly cached pages")
}

func runFetch(cmd *cobra.Command, args []string) error {
	if fetchFile == "" && len(args) == 0 {
		return fmt.Errorf("either a URL argument or --file is required")
	}

	cfg := loadConfig()
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	coord, err := newCoordinator(cfg, st, fetchClaims)
	if err != nil {
		return err
	}

	if fetchFile != "" {
		workers := fetchWorkers
		if workers <= 0 {
			workers = cfg.Concurrency.FetchWorkers
		}
		prefetcher := fetch.NewPrefetcher(coord, workers, fetchClaims)
		results, err := prefetcher.RunFile(ctx, fetchFile)
		if err != nil {
			return fmt.Errorf("prefetch: %w", err)
		}

		var failed int
		for _, r := range results {
			if r.Error != nil {
				failed++
				fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.URL, r.Error)
				continue
			}
			if verbose {
				fmt.Fprintf(os.Stderr, "✓ %s (%d claims)\n", r.URL, r.Claims)
			}
		}
		fmt.Printf("Prefetched %d/%d URLs\n", len(results)-failed, len(results))
		if failed > 0 {
			return fmt.Errorf("%d of %d URLs failed", failed, len(results))
		}
		return nil
	}

	url := args[0]
	content, err := coord.FetchPage(ctx, url, fetch.PageMeta{Category: fetchCategory})
	if err != nil {
		return fmt.Errorf("fetch page: %w", err)
	}
	fmt.Printf("Cached %s (%d bytes of content)\n", url, len(content))

	if fetchClaims {
		records, err := coord.FetchClaims(ctx, url, content)
		if err != nil {
			return fmt.Errorf("fetch claims: %w", err)
		}
		fmt.Printf("Cached %d claim records\n", len(records))
		if verbose {
			for _, rec := range records {
				fmt.Fprintf(os.Stderr, "  - %s\n", rec.Claim)
			}
		}
	}
	return nil
}

// newCoordinator wires the cache-through coordinator from config. The
// extraction model is only constructed when claims are requested, so
// plain page fetches work without an API key.
func newCoordinator(cfg *model.Config, st *store.Store, withClaims bool) (*fetch.Coordinator, error) {
	extractor := fetch.NewReadabilityExtractor(cfg.HTTP)

	var provider llm.Provider
	if withClaims {
		p, err := llm.NewOpenAIProvider(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			return nil, fmt.Errorf("configure model provider: %w", err)
		}
		provider = p
	}

	opts := fetch.Options{
		ChunkSize: cfg.LLM.ChunkSize,
		MaxChunks: cfg.LLM.MaxChunks,
	}
	if cfg.Cache.Enabled {
		opts.Memory = cache.NewMemoryCache(cfg.Cache.TTL, 10*time.Minute)
		opts.MemoryTTL = cfg.Cache.TTL
	}
	return fetch.NewCoordinator(st, extractor, provider, opts), nil
}

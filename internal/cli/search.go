package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/avolkov/hopweaver/internal/index"
	"github.com/avolkov/hopweaver/internal/search"
	"github.com/spf13/cobra"
)

var (
	searchSource string
	searchTopK   int
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search cached topics, the web, or news",
	Long: `Search ranks results for a query from one of three sources:

  topic  BM25 ranking over the seeded claim corpus (default)
  web    Google Custom Search, cached through the store
  news   mediastack news search, cached through the store

Web and news results are served from the cache when the exact query was
seen before; live API calls require the matching API key environment
variable.

Example:
  hopweaver search "openai safety policy"
  hopweaver search "openai safety policy" --source web --top 5`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVar(&searchSource, "source", "topic", "result source (topic, web, news)")
	searchCmd.Flags().IntVar(&searchTopK, "top", 10, "maximum results to return")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]
	cfg := loadConfig()
	ctx := context.Background()

	switch searchSource {
	case "topic":
		idx, err := index.LoadIndex(cfg.Index.TopicFile)
		if err != nil {
			return fmt.Errorf("load topic index: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Indexed %d claim records from %s\n", idx.Len(), cfg.Index.TopicFile)
		}
		return printJSON(idx.Search(query, searchTopK))

	case "web":
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		client := search.NewClient(st, cfg.Search, cfg.HTTP.Timeout)
		results, cached, err := client.SearchWeb(ctx, query)
		if err != nil {
			return fmt.Errorf("web search: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Cache hit: %v\n", cached)
		}
		if len(results) > searchTopK {
			results = results[:searchTopK]
		}
		return printJSON(results)

	case "news":
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		client := search.NewClient(st, cfg.Search, cfg.HTTP.Timeout)
		results, cached, err := client.SearchNews(ctx, query)
		if err != nil {
			return fmt.Errorf("news search: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Cache hit: %v\n", cached)
		}
		if len(results) > searchTopK {
			results = results[:searchTopK]
		}
		return printJSON(results)

	default:
		return fmt.Errorf("unknown source %q (want topic, web, or news)", searchSource)
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	return nil
}

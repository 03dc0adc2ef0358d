package cli

import (
	"fmt"
	"os"

	"github.com/avolkov/hopweaver/internal/index"
	"github.com/spf13/cobra"
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed <file.jsonl>",
	Short: "Load claim records from a JSONL corpus into the store",
	Long: `Seed reads newline-delimited JSON claim records and upserts them into
the claim_data table. Records missing a category are backfilled from the
cached page for their source URL when one exists.

Example:
  hopweaver seed target_topic.jsonl
  hopweaver seed target_topic.jsonl --db search_db.db`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	records, err := index.LoadJSONL(args[0])
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	var loaded, backfilled int
	for _, rec := range records {
		if rec.Category == "" && rec.URL != "" {
			category, err := st.CategoryForURL(rec.URL)
			if err != nil {
				return fmt.Errorf("backfill category for %s: %w", rec.URL, err)
			}
			if category != "" {
				rec.Category = category
				backfilled++
			}
		}
		if err := st.UpsertClaimRecord(rec); err != nil {
			return fmt.Errorf("upsert claim: %w", err)
		}
		loaded++
	}

	fmt.Printf("Loaded %d claim records from %s\n", loaded, args[0])
	if verbose && backfilled > 0 {
		fmt.Fprintf(os.Stderr, "Backfilled category on %d records\n", backfilled)
	}
	return nil
}

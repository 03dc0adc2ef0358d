package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	sampleCount    int
	sampleCategory string
)

// sampleCmd represents the sample command
var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Sample random claim records from the store",
	Long: `Sample returns a uniform random selection of cached claim records,
optionally restricted to one category. Annotators use this to pick
starting claims for a multi-hop question.

Example:
  hopweaver sample --count 3
  hopweaver sample --count 5 --category technology`,
	RunE: runSample,
}

func init() {
	rootCmd.AddCommand(sampleCmd)

	sampleCmd.Flags().IntVar(&sampleCount, "count", 3, "number of records to sample")
	sampleCmd.Flags().StringVar(&sampleCategory, "category", "", "restrict sampling to one category")
}

func runSample(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	records, err := st.RandomClaims(sampleCount, sampleCategory)
	if err != nil {
		return fmt.Errorf("sample claims: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("no claim records in store (run 'hopweaver seed' first)")
	}
	return printJSON(records)
}

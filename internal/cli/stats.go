package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsRecent int

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show annotation counts per annotator",
	Long: `Stats lists how many multi-hop questions each annotator has saved,
sorted by count descending. With --recent the latest saved questions
are shown as well.`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().IntVar(&statsRecent, "recent", 0, "also show the N most recent annotated questions")
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	stats, err := st.AnnotationStats()
	if err != nil {
		return fmt.Errorf("annotation stats: %w", err)
	}
	if len(stats) == 0 {
		fmt.Println("No annotated questions yet")
		return nil
	}

	var total int
	for _, s := range stats {
		fmt.Printf("%-24s %d\n", s.Annotator, s.Count)
		total += s.Count
	}
	fmt.Printf("%-24s %d\n", "total", total)

	if statsRecent > 0 {
		questions, err := st.RecentAnnotations(statsRecent)
		if err != nil {
			return fmt.Errorf("recent annotations: %w", err)
		}
		fmt.Println()
		for _, q := range questions {
			fmt.Printf("#%d [%s] %s\n", q.ID, q.Annotator, q.Query)
			fmt.Printf("    -> %s (%d claims)\n", q.Answer, len(q.Records))
		}
	}
	return nil
}

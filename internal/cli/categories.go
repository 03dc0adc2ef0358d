package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// categoriesCmd represents the categories command
var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List claim record categories",
	Long: `Categories lists the distinct categories present in the seeded claim
records, for use with the --category flag of sample and compose.`,
	RunE: runCategories,
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
}

func runCategories(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	categories, err := st.ClaimCategories()
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	if len(categories) == 0 {
		fmt.Println("No categorized claim records (run 'hopweaver seed' first)")
		return nil
	}
	for _, c := range categories {
		fmt.Println(c)
	}
	return nil
}

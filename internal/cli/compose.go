package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/avolkov/hopweaver/internal/llm"
	"github.com/avolkov/hopweaver/internal/model"
	"github.com/spf13/cobra"
)

var (
	composeCount     int
	composeCategory  string
	composeAnnotator string
	composeClaims    []string
	composeTimeout   time.Duration
	composeDryRun    bool
)

// composeCmd represents the compose command
var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Generate a multi-hop question from cached claims",
	Long: `Compose picks claim records (randomly, or by exact claim text with
--claim), asks the model for a multi-hop question connecting them, and
appends the question, answer, and source claims to the annotated set.

Example:
  hopweaver compose --count 3 --annotator alice
  hopweaver compose --claim "OpenAI released GPT-4" --claim "GPT-4 passed the bar exam"
  hopweaver compose --count 2 --dry-run`,
	RunE: runCompose,
}

func init() {
	rootCmd.AddCommand(composeCmd)

	composeCmd.Flags().IntVar(&composeCount, "count", 3, "number of random claims to combine")
	composeCmd.Flags().StringVar(&composeCategory, "category", "", "restrict random claims to one category")
	composeCmd.Flags().StringVar(&composeAnnotator, "annotator", "model", "annotator name recorded with the question")
	composeCmd.Flags().StringArrayVar(&composeClaims, "claim", nil, "use this exact claim text instead of sampling (repeatable)")
	composeCmd.Flags().DurationVar(&composeTimeout, "timeout", 2*time.Minute, "model call timeout")
	composeCmd.Flags().BoolVar(&composeDryRun, "dry-run", false, "print the question without saving it")
}

func runCompose(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	ctx, cancel := context.WithTimeout(context.Background(), composeTimeout)
	defer cancel()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	var records []model.ClaimRecord
	if len(composeClaims) > 0 {
		for _, claim := range composeClaims {
			rec, err := st.GetClaimRecord(claim)
			if err != nil {
				return fmt.Errorf("look up claim: %w", err)
			}
			if rec == nil {
				return fmt.Errorf("claim not in store: %q", claim)
			}
			records = append(records, *rec)
		}
	} else {
		records, err = st.RandomClaims(composeCount, composeCategory)
		if err != nil {
			return fmt.Errorf("sample claims: %w", err)
		}
	}
	if len(records) < 2 {
		return fmt.Errorf("need at least 2 claims for a multi-hop question, have %d", len(records))
	}

	provider, err := llm.NewOpenAIProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return fmt.Errorf("configure model provider: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Composing from %d claims using %s\n", len(records), cfg.LLM.Model)
	}

	raw, err := provider.Complete(ctx, llm.MultiHopPrompt(records), cfg.LLM.MaxTokens)
	if err != nil {
		return fmt.Errorf("generate question: %w", err)
	}

	qa, err := llm.ParseQuestion(raw)
	if err != nil {
		return fmt.Errorf("parse model output: %w", err)
	}

	fmt.Printf("Query:  %s\n", qa.Query)
	fmt.Printf("Answer: %s\n", qa.Answer)

	if composeDryRun {
		return nil
	}
	if err := st.AppendAnnotatedQuestion(qa.Query, qa.Answer, composeAnnotator, records); err != nil {
		return fmt.Errorf("save annotation: %w", err)
	}
	fmt.Printf("Saved for annotator %q\n", composeAnnotator)
	return nil
}

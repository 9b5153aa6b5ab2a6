package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
)

func (c *CLI) newRankCommand() *cobra.Command {
	var flags engineFlags
	var topK int
	var noFrequencies bool

	cmd := &cobra.Command{
		Use:   "rank TERM...",
		Short: "Rank all items against a query of ontology terms",
		Args:  cobra.MinimumNArgs(1),
		Example: `  # Rank by term ids
  boqa rank --obo hp.obo --assoc annotations.tsv HP:0001250 HP:0004322

  # Rank by (unique) name fragments
  boqa rank --obo hp.obo --assoc annotations.tsv seizure "short stature"

  # Show the top 5 only, without frequency weighting
  boqa rank --obo hp.obo --assoc annotations.tsv --top 5 --no-frequencies HP:0001250`,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, err := flags.load()
			if err != nil {
				return err
			}

			sortedIDs, err := resolveQueryTerms(engine, args)
			if err != nil {
				return inputError(err)
			}

			start := time.Now()
			results, err := engine.ScoreWith(cmd.Context(), sortedIDs, !noFrequencies, 0)
			if err != nil {
				return internalError(err)
			}
			slog.Debug("query scored", "items", len(results), "duration", time.Since(start))

			if topK > 0 && topK < len(results) {
				results = results[:topK]
			}
			output, _ := json.MarshalIndent(results, "", "  ")
			fmt.Println(string(output))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&topK, "top", 20, "Number of top items to print (0 = all)")
	cmd.Flags().BoolVar(&noFrequencies, "no-frequencies", false, "Ignore annotation frequencies while scoring")
	return cmd
}

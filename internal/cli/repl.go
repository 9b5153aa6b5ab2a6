package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func (c *CLI) newReplCommand() *cobra.Command {
	var flags engineFlags
	var topK int

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactively query the loaded catalogue",
		Long: `Starts an interactive loop. Each line is a query of whitespace-separated
term ids or name fragments; the top items are printed as a table.
Lines starting with "?" search terms instead. An empty line or "quit" exits.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, err := flags.load()
			if err != nil {
				return err
			}

			fmt.Printf("loaded %d terms, %d items. Type a query, ? PATTERN to search terms, quit to exit.\n",
				engine.NumberOfTerms(""), engine.NumItems())

			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print("boqa> ")
				if !scanner.Scan() {
					break
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" || line == "quit" || line == "exit" {
					break
				}

				if rest, ok := strings.CutPrefix(line, "?"); ok {
					pattern := strings.TrimSpace(rest)
					for _, t := range engine.Terms(pattern) {
						fmt.Printf("  %6d  %-14s %s\n", engine.IDOfTerm(t), t.ID, t.Name)
					}
					continue
				}

				sortedIDs, err := resolveQueryTerms(engine, strings.Fields(line))
				if err != nil {
					fmt.Fprintln(os.Stderr, "error:", err)
					continue
				}
				results, err := engine.Score(cmd.Context(), sortedIDs)
				if err != nil {
					fmt.Fprintln(os.Stderr, "error:", err)
					continue
				}
				n := min(topK, len(results))
				for i, r := range results[:n] {
					fmt.Printf("  %2d. %-30s %.6f\n", i+1, r.Name, r.Marginal)
				}
			}
			return scanner.Err()
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&topK, "top", 10, "Number of top items to print per query")
	return cmd
}

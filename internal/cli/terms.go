package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newTermsCommand() *cobra.Command {
	var flags engineFlags

	cmd := &cobra.Command{
		Use:   "terms [PATTERN]",
		Short: "List ontology terms matching a pattern",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, err := flags.load()
			if err != nil {
				return err
			}
			pattern := ""
			if len(args) == 1 {
				pattern = args[0]
			}
			terms := engine.Terms(pattern)
			for _, t := range terms {
				fmt.Printf("%6d  %-14s %-40s annotated=%d\n",
					engine.IDOfTerm(t), t.ID, t.Name,
					engine.NumberOfItemsAnnotated(engine.IDOfTerm(t)))
			}
			fmt.Printf("%d terms\n", len(terms))
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

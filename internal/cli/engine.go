package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/happyhackingspace/boqa"
	"github.com/happyhackingspace/boqa/internal/config"
)

// engineFlags are the flags shared by every command that loads the engine.
type engineFlags struct {
	oboPath    string
	assocPath  string
	configPath string
	workers    int
	freqOnly   bool
}

func (f *engineFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.oboPath, "obo", "", "Path to the OBO ontology file")
	cmd.Flags().StringVar(&f.assocPath, "assoc", "", "Path to the association file (item<TAB>term[<TAB>frequency])")
	cmd.Flags().StringVar(&f.configPath, "config", "", "Path to a YAML config file")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Worker count for scoring (0 = number of CPUs)")
	cmd.Flags().BoolVar(&f.freqOnly, "frequencies-only", false, "Only consider items with an explicit frequency annotation below one")
	_ = cmd.MarkFlagRequired("obo")
	_ = cmd.MarkFlagRequired("assoc")
}

// load builds the engine and returns it together with the effective config.
func (f *engineFlags) load() (*boqa.Engine, *config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, nil, inputError(err)
	}
	opts := cfg.Engine.Options()
	if f.workers != 0 {
		opts.Workers = f.workers
	}
	if f.freqOnly {
		opts.ConsiderFrequenciesOnly = true
	}

	start := time.Now()
	engine, err := boqa.Load(f.oboPath, f.assocPath, opts)
	if err != nil {
		return nil, nil, inputError(err)
	}
	slog.Debug("engine loaded",
		"terms", engine.NumberOfTerms(""),
		"items", engine.NumItems(),
		"duration", time.Since(start))
	return engine, cfg, nil
}

// resolveQueryTerms maps the given term arguments (external ids or unique
// name patterns) to sorted ids.
func resolveQueryTerms(engine *boqa.Engine, args []string) ([]int, error) {
	var sortedIDs []int
	for _, arg := range args {
		matches := engine.Terms(arg)
		switch {
		case len(matches) == 0:
			return nil, fmt.Errorf("no term matches %q", arg)
		case len(matches) == 1:
			sortedIDs = append(sortedIDs, engine.IDOfTerm(matches[0]))
		default:
			// Prefer an exact id match over a substring one.
			exact := -1
			for _, t := range matches {
				if string(t.ID) == arg {
					exact = engine.IDOfTerm(t)
					break
				}
			}
			if exact < 0 {
				return nil, fmt.Errorf("term %q is ambiguous (%d matches)", arg, len(matches))
			}
			sortedIDs = append(sortedIDs, exact)
		}
	}
	return sortedIDs, nil
}

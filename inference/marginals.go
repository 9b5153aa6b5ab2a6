package inference

import (
	"context"
	"errors"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
)

// ErrCancelled is returned when the context is cancelled while scoring. No
// partial result is returned.
var ErrCancelled = errors.New("scoring cancelled")

// Result holds the outcome of one marginal computation. All slices are
// indexed by item.
type Result struct {
	// Scores is the per-item log score summed over the rate grid and the
	// hidden configurations.
	Scores []float64
	// Marginals is the normalised posterior per item, in [0, 1].
	Marginals []float64
	// MarginalsIdeal is only set for benchmark observations whose true
	// configuration is known.
	MarginalsIdeal []float64
	// Counts is the case tally of the last configuration evaluated per
	// item.
	Counts []CaseCounts
}

// BenchmarkInfo marks observations generated from a known item, enabling the
// ideal marginal computation.
type BenchmarkInfo struct {
	// Item is the index of the item the observations were generated from.
	Item int
	// Stats is the case tally of the true hidden state versus the
	// observations.
	Stats CaseCounts
}

// AssignMarginals computes the posterior probability of every item given the
// observations, marginalising over the rate grid and, when useFrequencies is
// set, over the frequency-implied hidden configurations. workers bounds the
// parallelism; values below one select the model default. The result is
// deterministic regardless of the worker count.
func (m *Model) AssignMarginals(ctx context.Context, obs *Observations, useFrequencies bool, workers int, benchmark *BenchmarkInfo) (*Result, error) {
	if workers <= 0 {
		workers = m.opts.Workers
	}
	numItems := m.items.numItems()
	numTerms := m.graph.NumVertices()

	res := &Result{
		Scores:    make([]float64, numItems),
		Marginals: make([]float64, numItems),
		Counts:    make([]CaseCounts, numItems),
	}
	idealScores := make([]float64, numItems)
	for i := range numItems {
		res.Scores[i] = math.Inf(-1)
		idealScores[i] = math.Inf(-1)
	}

	scoreItem := func(item int, stats configurationList) {
		for _, alpha := range m.alphaGrid {
			for _, beta := range m.betaGrid {
				res.Scores[item] = logAdd(res.Scores[item], stats.score(alpha, beta))
			}
		}
		if benchmark != nil {
			fpr := clampRate(benchmark.Stats.FalsePositiveRate())
			fnr := clampRate(benchmark.Stats.FalseNegativeRate())
			idealScores[item] = stats.score(fpr, fnr)
		}
	}

	if workers == 1 {
		// Single incremental chain across the whole catalogue.
		hidden := make([]bool, numTerms)
		var counts CaseCounts
		m.countCases(obs.States, hidden, &counts)

		for item := range numItems {
			stats, err := m.evaluateItem(ctx, item, obs.States, useFrequencies, hidden, &counts)
			if err != nil {
				return nil, err
			}
			res.Counts[item] = stats[len(stats)-1].counts
			scoreItem(item, stats)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for item := range numItems {
			g.Go(func() error {
				hidden := make([]bool, numTerms)
				var counts CaseCounts
				// In frequency mode evaluateItem rebuilds its own baseline;
				// otherwise reconstruct the state of the previous item so
				// the precomputed diff applies.
				if !useFrequencies {
					if item > 0 {
						for _, t := range m.items.directTerms[item-1] {
							hidden[t] = true
							m.graph.ActivateAncestors(t, hidden)
						}
					}
					m.countCases(obs.States, hidden, &counts)
				}
				stats, err := m.evaluateItem(gctx, item, obs.States, useFrequencies, hidden, &counts)
				if err != nil {
					return err
				}
				res.Counts[item] = stats[len(stats)-1].counts
				scoreItem(item, stats)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	normalization := logSum(res.Scores)
	for i := range numItems {
		res.Marginals[i] = math.Min(math.Exp(res.Scores[i]-normalization), 1)
	}

	if benchmark != nil {
		res.MarginalsIdeal = make([]float64, numItems)
		idealNormalization := logSum(idealScores)
		for i := range numItems {
			res.MarginalsIdeal[i] = math.Min(math.Exp(idealScores[i]-idealNormalization), 1)
		}
		// The estimated marginals can beat the "ideal" ones when the noise
		// disrupted the signal badly enough; take the better of the two for
		// the true item.
		if res.MarginalsIdeal[benchmark.Item] < res.Marginals[benchmark.Item] {
			copy(res.MarginalsIdeal, res.Marginals)
		}
	}
	return res, nil
}

// evaluateItem produces the weighted configuration list of one item. In
// plain mode, hidden and counts must hold the state of item-1 (all off with
// the matching baseline for item 0); on return they hold the state of this
// item. In frequency mode both are reset and rebuilt internally.
func (m *Model) evaluateItem(ctx context.Context, item int, observed []bool, useFrequencies bool, hidden []bool, counts *CaseCounts) (configurationList, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: item %d: %v", ErrCancelled, item, err)
	}

	if !useFrequencies {
		m.applyDiff(m.diff.diffOn[item], m.diff.diffOff[item], hidden, observed, counts)
		return configurationList{{counts: *counts, factor: 0}}, nil
	}

	for i := range hidden {
		hidden[i] = false
	}
	*counts = CaseCounts{}
	m.countCases(observed, hidden, counts)

	numConfigs := len(m.diff.diffOnFreq[item])
	stats := make(configurationList, 0, numConfigs)
	for c := range numConfigs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", ErrCancelled, item, err)
		}
		m.applyDiff(m.diff.diffOnFreq[item][c], m.diff.diffOffFreq[item][c], hidden, observed, counts)
		stats = append(stats, weightedCounts{counts: *counts, factor: m.diff.factors[item][c]})
	}
	return stats, nil
}

// clampRate keeps an empirical rate strictly inside (0, 1) so its logarithm
// stays finite.
func clampRate(r float64) float64 {
	switch {
	case math.IsNaN(r):
		return 0.5
	case r == 0:
		return 1e-7
	case r == 1:
		return 0.999999
	default:
		return r
	}
}

package inference

import "math"

// weightedCounts pairs a case tally with the log prior of the hidden
// configuration that produced it.
type weightedCounts struct {
	counts CaseCounts
	factor float64
}

// configurationList collects the weighted tallies of one item.
type configurationList []weightedCounts

// score sums, in log space, the likelihood of every configuration under the
// given rates, each weighted by its prior.
func (l configurationList) score(alpha, beta float64) float64 {
	sum := math.Inf(-1)
	for _, wc := range l {
		sum = logAdd(sum, wc.counts.Score(alpha, beta)+wc.factor)
	}
	return sum
}

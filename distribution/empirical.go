// Package distribution provides empirical score distributions and a
// compressed, fingerprinted store for precomputed ones.
package distribution

import "sort"

// Empirical is an exact empirical distribution over a set of observations.
type Empirical struct {
	observations []float64 // sorted
}

// NewEmpirical builds the distribution; the input slice is copied.
func NewEmpirical(observations []float64) *Empirical {
	obs := make([]float64, len(observations))
	copy(obs, observations)
	sort.Float64s(obs)
	return &Empirical{observations: obs}
}

// CDF returns P(X <= x).
func (d *Empirical) CDF(x float64) float64 {
	n := sort.SearchFloat64s(d.observations, x)
	for n < len(d.observations) && d.observations[n] == x {
		n++
	}
	return float64(n) / float64(len(d.observations))
}

// Approximated is an empirical distribution approximated with equidistant
// bins. Fields are exported for gob encoding.
type Approximated struct {
	Min, Max  float64
	NumBins   int
	CumCounts []int
}

// NewApproximated bins the observations into numBins equidistant bins and
// stores cumulative counts.
func NewApproximated(observations []float64, numBins int) *Approximated {
	obs := make([]float64, len(observations))
	copy(obs, observations)
	sort.Float64s(obs)

	d := &Approximated{
		Min:     obs[0],
		Max:     obs[len(obs)-1],
		NumBins: numBins,
	}
	counts := make([]int, numBins)
	for _, o := range obs {
		bin := d.findBin(o)
		if bin < 0 {
			bin = 0
		} else if bin >= numBins {
			bin = numBins - 1
		}
		counts[bin]++
	}
	for i := 1; i < numBins; i++ {
		counts[i] += counts[i-1]
	}
	d.CumCounts = counts
	return d
}

func (d *Approximated) findBin(x float64) int {
	if d.Max == d.Min {
		return 0
	}
	return int((x - d.Min) / (d.Max - d.Min) * float64(d.NumBins))
}

// CDF returns the approximated P(X <= x).
func (d *Approximated) CDF(x float64) float64 {
	if x < d.Min {
		return 0
	}
	bin := d.findBin(x)
	if bin < 0 {
		return 0
	}
	if bin >= d.NumBins {
		return 1
	}
	return float64(d.CumCounts[bin]) / float64(d.CumCounts[d.NumBins-1])
}

// Prob returns the approximated P(X = x), which is not necessarily zero for
// this discrete distribution.
func (d *Approximated) Prob(x float64) float64 {
	bin := d.findBin(x)
	if bin <= 0 {
		return d.CDF(x)
	}
	if bin >= d.NumBins {
		bin = d.NumBins - 1
	}
	return float64(d.CumCounts[bin]-d.CumCounts[bin-1]) / float64(d.CumCounts[d.NumBins-1])
}

// UpperTail returns P(X >= x), the p-value of scoring x or better.
func (d *Approximated) UpperTail(x float64) float64 {
	return 1 - (d.CDF(x) - d.Prob(x))
}

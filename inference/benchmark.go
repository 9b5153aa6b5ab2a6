package inference

import (
	"math/rand"
)

// SimulationParams configures the observation generator.
type SimulationParams struct {
	// Alpha and Beta are the false positive and false negative rates the
	// noise is sampled with.
	Alpha, Beta float64
	// MaxTerms bounds the number of most specific observed terms kept; -1
	// keeps everything.
	MaxTerms int
}

// DefaultSimulationParams mirrors the published benchmark setting.
func DefaultSimulationParams() SimulationParams {
	return SimulationParams{Alpha: 0.002, Beta: 0.1, MaxTerms: -1}
}

// GenerateObservations samples a noisy observation vector for the given
// item: the hidden layer follows the item's frequency-weighted annotations,
// each node is then observed through the noise model, and inheritance
// repairs keep the vector consistent with the active model variant. Retries
// a bounded number of times if the sampled query comes out empty.
func (m *Model) GenerateObservations(item int, p SimulationParams, rnd *rand.Rand) *Observations {
	numTerms := m.graph.NumVertices()

	var obs *Observations
	for range 50 {
		hidden := make([]bool, numTerms)
		observed := make([]bool, numTerms)

		for pos, t := range m.items.directTerms[item] {
			state := true
			if m.respectsFrequencies() {
				state = rnd.Float64() < m.items.frequencies[item][pos]
			}
			if state {
				hidden[t] = true
				observed[t] = true
				m.graph.ActivateAncestors(t, hidden)
				m.graph.ActivateAncestors(t, observed)
			}
		}

		var falsePositives, falseNegatives []int
		for t := range numTerms {
			r := rnd.Float64()
			if observed[t] {
				if r < p.Beta {
					falseNegatives = append(falseNegatives, t)
				}
			} else if r < p.Alpha {
				falsePositives = append(falsePositives, t)
			}
		}

		if m.opts.Variant&InheritFalseNegatives != 0 {
			// A missed term silences everything below it.
			for _, t := range falseNegatives {
				observed[t] = false
				for _, d := range m.graph.DescendantsOf(t) {
					observed[d] = false
				}
			}
		} else {
			for _, t := range falseNegatives {
				observed[t] = false
			}
			for t := range numTerms {
				if observed[t] {
					m.graph.ActivateAncestors(t, observed)
				}
			}
		}

		if m.opts.Variant&InheritFalsePositives != 0 {
			for _, t := range falsePositives {
				observed[t] = true
				m.graph.ActivateAncestors(t, observed)
			}
		} else {
			for _, t := range falsePositives {
				observed[t] = true
			}
			for t := range numTerms {
				if !observed[t] {
					for _, d := range m.graph.DescendantsOf(t) {
						observed[d] = false
					}
				}
			}
		}

		if p.MaxTerms != -1 {
			m.truncateObservations(observed, p.MaxTerms, rnd)
		}

		positive := 0
		for t := range numTerms {
			if observed[t] {
				positive++
			}
		}
		obs = &Observations{States: observed}
		if positive > 0 {
			break
		}
	}
	return obs
}

// BenchmarkFor pairs generated observations with the tally of the true
// configuration, enabling ideal marginals.
func (m *Model) BenchmarkFor(item int, obs *Observations) *BenchmarkInfo {
	hidden := make([]bool, m.graph.NumVertices())
	for _, t := range m.items.directTerms[item] {
		hidden[t] = true
		m.graph.ActivateAncestors(t, hidden)
	}
	var stats CaseCounts
	m.countCases(obs.States, hidden, &stats)
	return &BenchmarkInfo{Item: item, Stats: stats}
}

// truncateObservations keeps at most maxTerms randomly chosen most specific
// observed terms and rebuilds the closure from them.
func (m *Model) truncateObservations(observed []bool, maxTerms int, rnd *rand.Rand) {
	specific := m.MostSpecificTerms(sparseOn(observed))
	if len(specific) <= maxTerms {
		return
	}
	kept := make([]int, maxTerms)
	for j := range maxTerms {
		r := rnd.Intn(len(specific) - j)
		kept[j] = specific[r]
		specific[r] = specific[len(specific)-j-1]
	}
	for t := range observed {
		observed[t] = false
	}
	for _, t := range kept {
		observed[t] = true
		m.graph.ActivateAncestors(t, observed)
	}
}

func sparseOn(states []bool) []int {
	var on []int
	for t, v := range states {
		if v {
			on = append(on, t)
		}
	}
	return on
}

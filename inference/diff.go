package inference

import (
	"math"

	"github.com/happyhackingspace/boqa/internal/sparse"
)

// diffVectors holds the precomputed on/off deltas that let the scoring loop
// mutate one hidden vector across the whole catalogue instead of rebuilding
// it per item.
type diffVectors struct {
	// diffOn[i]/diffOff[i] move the hidden vector from item i-1's induced
	// set to item i's. diffOn[0] is the full induced set of item 0.
	diffOn  [][]int
	diffOff [][]int

	// diffOnFreq[i][c]/diffOffFreq[i][c] move between adjacent
	// frequency-implied configurations of item i, starting from the empty
	// hidden vector. factors[i][c] is the log prior of configuration c.
	diffOnFreq  [][][]int
	diffOffFreq [][][]int
	factors     [][]float64
}

// buildDiffVectors precomputes both the item-to-item deltas and, per item,
// the frequency configuration chain.
func buildDiffVectors(m *Model) *diffVectors {
	numItems := m.items.numItems()
	numTerms := m.graph.NumVertices()

	dv := &diffVectors{
		diffOn:      make([][]int, numItems),
		diffOff:     make([][]int, numItems),
		diffOnFreq:  make([][][]int, numItems),
		diffOffFreq: make([][][]int, numItems),
		factors:     make([][]float64, numItems),
	}

	dv.diffOn[0] = m.items.terms[0]
	dv.diffOff[0] = nil
	total := len(dv.diffOn[0])
	for i := 1; i < numItems; i++ {
		prev, next := m.items.terms[i-1], m.items.terms[i]
		dv.diffOn[i] = sparse.Diff(next, prev)
		dv.diffOff[i] = sparse.Diff(prev, next)
		total += len(dv.diffOn[i]) + len(dv.diffOff[i])
	}
	m.logger.Debug("item diff vectors built",
		"differences", total,
		"perItem", float64(total)/float64(numItems))

	hidden := make([]bool, numTerms)
	for item := range numItems {
		dv.buildFrequencyConfigs(m, item, hidden)
	}
	return dv
}

// buildFrequencyConfigs enumerates the on/off combinations of the item's
// lowest-frequency annotations and records the delta chain between adjacent
// configurations. hidden is a scratch vector of length numTerms, all false
// on entry and on return.
func (dv *diffVectors) buildFrequencyConfigs(m *Model, item int, hidden []bool) {
	direct := m.items.directTerms[item]
	freqs := m.items.frequencies[item]
	order := m.items.frequencyOrder[item]

	// Annotations with explicit frequency below one, capped at the k lowest.
	variable := 0
	for variable < len(direct) && variable < m.opts.MaxFrequencyTerms {
		if freqs[order[variable]] >= 1.0 {
			break
		}
		variable++
	}

	numConfigs := 0
	gen := newSubsetGenerator(variable, variable)
	for _, ok := gen.next(); ok; _, ok = gen.next() {
		numConfigs++
	}

	dv.diffOnFreq[item] = make([][]int, numConfigs)
	dv.diffOffFreq[item] = make([][]int, numConfigs)
	dv.factors[item] = make([]float64, numConfigs)

	var prev []int
	config := 0
	gen = newSubsetGenerator(variable, variable)
	for members, ok := gen.next(); ok; members, ok = gen.next() {
		factor := 0.0
		taken := make([]bool, variable)

		// Activate the selected variable annotations.
		for _, sel := range members {
			pos := order[sel]
			t := direct[pos]
			hidden[t] = true
			m.graph.ActivateAncestors(t, hidden)
			factor += math.Log(freqs[pos])
			taken[sel] = true
		}
		for v := range variable {
			if !taken[v] {
				factor += math.Log(1 - freqs[order[v]])
			}
		}
		// Mandatory annotations (frequency one) are always on.
		for v := variable; v < len(direct); v++ {
			t := direct[order[v]]
			hidden[t] = true
			m.graph.ActivateAncestors(t, hidden)
		}

		next := sparse.FromDense(hidden)
		dv.diffOnFreq[item][config] = sparse.Diff(next, prev)
		dv.diffOffFreq[item][config] = sparse.Diff(prev, next)
		dv.factors[item][config] = factor

		for _, t := range next {
			hidden[t] = false
		}
		prev = next
		config++
	}
}

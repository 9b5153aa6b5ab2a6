// Package inference implements the Bayesian network evaluation: per-node case
// accounting, precomputed diff vectors, and the marginal computation over the
// noise parameter grid.
package inference

import (
	"log/slog"
	"math"
)

// NodeCase classifies a single term under a hidden/observed state pair.
type NodeCase uint8

const (
	// CaseFault marks an impossible hidden/observed combination. Its
	// contribution to the likelihood is skipped.
	CaseFault NodeCase = iota
	CaseTruePositive
	CaseFalsePositive
	CaseTrueNegative
	CaseFalseNegative
	CaseInheritTrue
	CaseInheritFalse

	numNodeCases
)

var nodeCaseNames = [numNodeCases]string{
	"FAULT", "TRUE_POSITIVE", "FALSE_POSITIVE", "TRUE_NEGATIVE",
	"FALSE_NEGATIVE", "INHERIT_TRUE", "INHERIT_FALSE",
}

func (c NodeCase) String() string {
	if int(c) < len(nodeCaseNames) {
		return nodeCaseNames[c]
	}
	return "UNKNOWN"
}

// CaseCounts tallies the node cases of a complete hidden/observed pair. The
// slot sum equals the number of terms for any consistent pair.
type CaseCounts [numNodeCases]int

// Increment adds one to the slot of the given case.
func (c *CaseCounts) Increment(nc NodeCase) { c[nc]++ }

// Decrement removes one from the slot of the given case.
func (c *CaseCounts) Decrement(nc NodeCase) { c[nc]-- }

// Cases returns the tally of the given case.
func (c *CaseCounts) Cases(nc NodeCase) int { return c[nc] }

// Total returns the sum over all slots.
func (c *CaseCounts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Score returns the log-likelihood of the tally under the given false
// positive rate alpha and false negative rate beta. Inherited cases have
// probability one and contribute nothing; FAULT slots are skipped. Slots
// with a zero tally are skipped so that boundary rates (alpha or beta of
// exactly 0 or 1) yield -Inf rather than NaN.
func (c *CaseCounts) Score(alpha, beta float64) float64 {
	score := 0.0
	if n := c[CaseFalseNegative]; n != 0 {
		score += math.Log(beta) * float64(n)
	}
	if n := c[CaseFalsePositive]; n != 0 {
		score += math.Log(alpha) * float64(n)
	}
	if n := c[CaseTruePositive]; n != 0 {
		score += math.Log(1-beta) * float64(n)
	}
	if n := c[CaseTrueNegative]; n != 0 {
		score += math.Log(1-alpha) * float64(n)
	}
	return score
}

// FalsePositiveRate returns FP / (FP + TN).
func (c *CaseCounts) FalsePositiveRate() float64 {
	return float64(c[CaseFalsePositive]) / float64(c[CaseFalsePositive]+c[CaseTrueNegative])
}

// FalseNegativeRate returns FN / (FN + TP).
func (c *CaseCounts) FalseNegativeRate() float64 {
	return float64(c[CaseFalseNegative]) / float64(c[CaseFalseNegative]+c[CaseTruePositive])
}

// nodeCase classifies a single node. Inheritance checks run against the
// observed layer only, so the case of a node never depends on the hidden
// state of its neighbours.
func (m *Model) nodeCase(node int, hidden, observed []bool) NodeCase {
	if m.opts.Variant&InheritFalsePositives != 0 {
		for _, child := range m.graph.ChildrenOf(node) {
			if observed[child] {
				if observed[node] {
					return CaseInheritTrue
				}
				slog.Debug("impossible configuration: child observed but node is not", "node", node, "child", child)
				return CaseFault
			}
		}
	}

	if m.opts.Variant&InheritFalseNegatives != 0 {
		for _, parent := range m.graph.ParentsOf(node) {
			if !observed[parent] {
				if !observed[node] {
					return CaseInheritFalse
				}
				slog.Debug("impossible configuration: node observed but parent is not", "node", node, "parent", parent)
				return CaseFault
			}
		}
	}

	if hidden[node] {
		if observed[node] {
			return CaseTruePositive
		}
		return CaseFalseNegative
	}
	if !observed[node] {
		return CaseTrueNegative
	}
	return CaseFalsePositive
}

// countCases classifies every term and accumulates the tallies into counts.
func (m *Model) countCases(observed, hidden []bool, counts *CaseCounts) {
	for i := range m.graph.NumVertices() {
		counts.Increment(m.nodeCase(i, hidden, observed))
	}
}

// applyDiff flips the hidden state of the listed terms and updates counts
// incrementally: each touched node's case is removed under the old hidden
// state and re-added under the new one. With a single inheritance direction
// active, only the flipped nodes can change case. With both directions
// active the immediate parents and children of every flipped node are
// refreshed as well.
func (m *Model) applyDiff(diffOn, diffOff []int, hidden, observed []bool, counts *CaseCounts) {
	both := m.opts.Variant&InheritFalsePositives != 0 && m.opts.Variant&InheritFalseNegatives != 0

	if !both {
		for _, t := range diffOn {
			counts.Decrement(m.nodeCase(t, hidden, observed))
		}
		for _, t := range diffOff {
			counts.Decrement(m.nodeCase(t, hidden, observed))
		}
		for _, t := range diffOn {
			hidden[t] = true
		}
		for _, t := range diffOff {
			hidden[t] = false
		}
		for _, t := range diffOn {
			counts.Increment(m.nodeCase(t, hidden, observed))
		}
		for _, t := range diffOff {
			counts.Increment(m.nodeCase(t, hidden, observed))
		}
		return
	}

	affected := make(map[int]struct{}, 2*(len(diffOn)+len(diffOff)))
	mark := func(t int) {
		affected[t] = struct{}{}
		for _, p := range m.graph.ParentsOf(t) {
			affected[p] = struct{}{}
		}
		for _, c := range m.graph.ChildrenOf(t) {
			affected[c] = struct{}{}
		}
	}
	for _, t := range diffOn {
		mark(t)
	}
	for _, t := range diffOff {
		mark(t)
	}

	for t := range affected {
		counts.Decrement(m.nodeCase(t, hidden, observed))
	}
	for _, t := range diffOn {
		hidden[t] = true
	}
	for _, t := range diffOff {
		hidden[t] = false
	}
	for t := range affected {
		counts.Increment(m.nodeCase(t, hidden, observed))
	}
}

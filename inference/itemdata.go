package inference

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/happyhackingspace/boqa/annotations"
	"github.com/happyhackingspace/boqa/internal/sparse"
	"github.com/happyhackingspace/boqa/ontology"
)

// ErrInvalidAnnotations is returned by New when the association data cannot
// be mapped onto the ontology or no items survive filtering.
var ErrInvalidAnnotations = errors.New("invalid annotations")

// itemData holds the per-item index arrays derived from the association
// container. All term references are dense ontology indices; all per-item
// slices are sorted ascending.
type itemData struct {
	names []string
	index map[string]int

	// terms is the induced (ancestor-closed) term set per item.
	terms [][]int
	// directTerms is the set of directly annotated terms per item.
	directTerms [][]int
	// frequencies is parallel to directTerms; values are in (0, 1].
	frequencies [][]float64
	// frequencyOrder[i] is a permutation of positions into directTerms[i]
	// ordered by ascending frequency.
	frequencyOrder [][]int
	// hasFrequencies marks items with at least one explicit frequency < 1.
	hasFrequencies []bool

	// annotatedCount[t] is the number of items whose induced set contains t.
	annotatedCount []int
	// termItems[t] lists the items whose induced set contains t, ascending.
	termItems [][]int
	// ic[t] is -log(annotatedCount[t] / number of items).
	ic []float64
}

// buildItemData derives the item index arrays from the container. When
// frequenciesOnly is set, items without any explicit frequency below one are
// dropped before the arrays are built.
func buildItemData(g *ontology.SlimGraph, assoc *annotations.Container, frequenciesOnly bool) (*itemData, error) {
	names := assoc.Items()
	if frequenciesOnly {
		var kept []string
		for _, item := range names {
			for _, a := range assoc.Of(item) {
				if a.Frequency != "" && annotations.ParseFrequency(a.Frequency) < 1.0 {
					kept = append(kept, item)
					break
				}
			}
		}
		names = kept
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no items left after frequency filtering", ErrInvalidAnnotations)
	}

	numTerms := g.NumVertices()
	d := &itemData{
		names:          names,
		index:          make(map[string]int, len(names)),
		terms:          make([][]int, len(names)),
		directTerms:    make([][]int, len(names)),
		frequencies:    make([][]float64, len(names)),
		frequencyOrder: make([][]int, len(names)),
		hasFrequencies: make([]bool, len(names)),
		annotatedCount: make([]int, numTerms),
		termItems:      make([][]int, numTerms),
		ic:             make([]float64, numTerms),
	}

	induced := make([]bool, numTerms)
	for i, item := range names {
		d.index[item] = i

		// Resolve direct annotations, keeping one frequency per term.
		type direct struct {
			term int
			freq float64
		}
		seen := make(map[int]int) // term -> position in directs
		var directs []direct
		for _, a := range assoc.Of(item) {
			t := g.IndexOf(a.TermID)
			if t < 0 {
				return nil, fmt.Errorf("%w: item %s references unknown term %s", ErrInvalidAnnotations, item, a.TermID)
			}
			f := annotations.ParseFrequency(a.Frequency)
			if f <= 0 {
				// A zero probability annotation carries no signal for the
				// hidden layer; treat it like the smallest representable one.
				f = math.SmallestNonzeroFloat64
			}
			if pos, dup := seen[t]; dup {
				directs[pos].freq = f
				continue
			}
			seen[t] = len(directs)
			directs = append(directs, direct{term: t, freq: f})
			if a.Frequency != "" && f < 1.0 {
				d.hasFrequencies[i] = true
			}
		}
		sort.Slice(directs, func(a, b int) bool { return directs[a].term < directs[b].term })

		d.directTerms[i] = make([]int, len(directs))
		d.frequencies[i] = make([]float64, len(directs))
		for j, dt := range directs {
			d.directTerms[i][j] = dt.term
			d.frequencies[i][j] = dt.freq
		}

		// Ascending frequency permutation over direct positions.
		order := make([]int, len(directs))
		for j := range order {
			order[j] = j
		}
		sort.SliceStable(order, func(a, b int) bool {
			return d.frequencies[i][order[a]] < d.frequencies[i][order[b]]
		})
		d.frequencyOrder[i] = order

		// Induced set: ancestor closure of the direct terms.
		for _, t := range d.directTerms[i] {
			induced[t] = true
			g.ActivateAncestors(t, induced)
		}
		d.terms[i] = sparse.FromDense(induced)
		for _, t := range d.terms[i] {
			induced[t] = false
			d.annotatedCount[t]++
			d.termItems[t] = append(d.termItems[t], i)
		}
	}

	for t := range numTerms {
		d.ic[t] = -math.Log(float64(d.annotatedCount[t]) / float64(len(names)))
	}
	return d, nil
}

// numItems returns the number of items.
func (d *itemData) numItems() int { return len(d.names) }

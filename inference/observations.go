package inference

import (
	"fmt"
)

// Observations is the observed layer of the network: one boolean per
// ontology term, ancestor-closed.
type Observations struct {
	// States has one entry per term; true means the term was observed.
	States []bool
}

// NewObservations builds the ancestor-closed observed vector from a sparse
// list of observed term indices.
func NewObservations(m *Model, onTerms []int) (*Observations, error) {
	numTerms := m.graph.NumVertices()
	o := &Observations{States: make([]bool, numTerms)}
	for _, t := range onTerms {
		if t < 0 || t >= numTerms {
			return nil, fmt.Errorf("observation refers to non-existing term %d", t)
		}
		o.States[t] = true
		m.graph.ActivateAncestors(t, o.States)
	}
	return o, nil
}

// Positive returns the number of observed terms.
func (o *Observations) Positive() int {
	n := 0
	for _, v := range o.States {
		if v {
			n++
		}
	}
	return n
}

package inference

import (
	"math"
	"testing"
)

func TestNodeCaseClassification(t *testing.T) {
	m := chainModel(t, Options{Variant: RespectFrequencies}) // no inheritance
	hidden := make([]bool, 3)
	observed := make([]bool, 3)

	root := m.graph.IndexOf("T:0")

	tests := []struct {
		h, o bool
		want NodeCase
	}{
		{true, true, CaseTruePositive},
		{true, false, CaseFalseNegative},
		{false, false, CaseTrueNegative},
		{false, true, CaseFalsePositive},
	}
	for _, tt := range tests {
		hidden[root] = tt.h
		observed[root] = tt.o
		if got := m.nodeCase(root, hidden, observed); got != tt.want {
			t.Errorf("nodeCase(h=%v, o=%v) = %v, want %v", tt.h, tt.o, got, tt.want)
		}
	}
}

func TestNodeCaseInheritedFalseNegative(t *testing.T) {
	m := chainModel(t, Options{Variant: InheritFalseNegatives | RespectFrequencies})
	hidden := make([]bool, 3)
	observed := make([]bool, 3)

	leaf := m.graph.IndexOf("T:2")
	mid := m.graph.IndexOf("T:1")

	// Parent unobserved, node unobserved: the miss is inherited.
	observed[mid] = false
	if got := m.nodeCase(leaf, hidden, observed); got != CaseInheritFalse {
		t.Errorf("nodeCase = %v, want CaseInheritFalse", got)
	}

	// Parent unobserved but node observed: impossible.
	observed[leaf] = true
	if got := m.nodeCase(leaf, hidden, observed); got != CaseFault {
		t.Errorf("nodeCase = %v, want CaseFault", got)
	}
}

func TestNodeCaseInheritedTruePositive(t *testing.T) {
	m := chainModel(t, Options{Variant: InheritFalsePositives | RespectFrequencies})
	hidden := make([]bool, 3)
	observed := make([]bool, 3)

	leaf := m.graph.IndexOf("T:2")
	mid := m.graph.IndexOf("T:1")

	observed[leaf] = true
	observed[mid] = true
	if got := m.nodeCase(mid, hidden, observed); got != CaseInheritTrue {
		t.Errorf("nodeCase = %v, want CaseInheritTrue", got)
	}

	observed[mid] = false
	if got := m.nodeCase(mid, hidden, observed); got != CaseFault {
		t.Errorf("nodeCase = %v, want CaseFault", got)
	}
}

func TestCountConservation(t *testing.T) {
	m := randomModel(t, 60, 8, 7)
	numTerms := m.graph.NumVertices()

	obs, err := NewObservations(m, m.items.directTerms[3])
	if err != nil {
		t.Fatal(err)
	}

	hidden := make([]bool, numTerms)
	var counts CaseCounts
	m.countCases(obs.States, hidden, &counts)
	if counts.Total() != numTerms {
		t.Fatalf("Total = %d, want %d", counts.Total(), numTerms)
	}

	// Conservation holds across every incremental step.
	for item := range m.items.numItems() {
		m.applyDiff(m.diff.diffOn[item], m.diff.diffOff[item], hidden, obs.States, &counts)
		if counts.Total() != numTerms {
			t.Errorf("item %d: Total = %d, want %d", item, counts.Total(), numTerms)
		}
	}
}

func TestIncrementalEqualsBatch(t *testing.T) {
	m := randomModel(t, 80, 10, 11)
	numTerms := m.graph.NumVertices()

	obs, err := NewObservations(m, m.items.directTerms[0])
	if err != nil {
		t.Fatal(err)
	}

	hidden := make([]bool, numTerms)
	var counts CaseCounts
	m.countCases(obs.States, hidden, &counts)

	for item := range m.items.numItems() {
		m.applyDiff(m.diff.diffOn[item], m.diff.diffOff[item], hidden, obs.States, &counts)

		batchHidden := make([]bool, numTerms)
		for _, tm := range m.items.terms[item] {
			batchHidden[tm] = true
		}
		var batch CaseCounts
		m.countCases(obs.States, batchHidden, &batch)

		if counts != batch {
			t.Errorf("item %d: incremental %v != batch %v", item, counts, batch)
		}
	}
}

func TestScoreBoundaryRates(t *testing.T) {
	c := CaseCounts{}
	c[CaseTruePositive] = 3

	if got := c.Score(0, 0); got != 0 {
		t.Errorf("Score(0, 0) = %v, want 0 for pure true positives", got)
	}

	c[CaseFalsePositive] = 1
	if got := c.Score(0, 0); !math.IsInf(got, -1) {
		t.Errorf("Score(0, 0) = %v, want -Inf with a false positive", got)
	}
	if got := c.Score(0.5, 0.5); math.IsNaN(got) || math.IsInf(got, 0) {
		t.Errorf("Score(0.5, 0.5) = %v, want finite", got)
	}
}

package inference

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/happyhackingspace/boqa/annotations"
	"github.com/happyhackingspace/boqa/ontology"
)

// chainGraph builds T:0 <- T:1 <- T:2 with T:0 as root.
func chainGraph(t *testing.T) *ontology.SlimGraph {
	t.Helper()
	g, err := ontology.NewSlimGraph([]ontology.Term{
		{ID: "T:0", Name: "root"},
		{ID: "T:1", Name: "middle", IsA: []ontology.TermID{"T:0"}},
		{ID: "T:2", Name: "leaf", IsA: []ontology.TermID{"T:1"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return g
}

// simpleAssoc is a term id plus an optional raw frequency.
type simpleAssoc struct {
	id   string
	freq string
}

// assocsSimple builds a container keeping the given item order.
func assocsSimple(annots map[string][]simpleAssoc, order []string) *annotations.Container {
	c := annotations.NewContainer()
	for _, item := range order {
		for _, a := range annots[item] {
			c.Add(annotations.Association{
				Item:      item,
				TermID:    ontology.TermID(a.id),
				Frequency: a.freq,
			})
		}
	}
	return c
}

func newTestRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// chainModel builds the chain ontology with items I0 = {T:2} and I1 = {T:1}
// and the given options.
func chainModel(t *testing.T, opts Options) *Model {
	t.Helper()
	g := chainGraph(t)
	c := assocsSimple(map[string][]simpleAssoc{
		"I0": {{"T:2", ""}},
		"I1": {{"T:1", ""}},
	}, []string{"I0", "I1"})
	m, err := New(g, c, opts)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

// randomModel builds a random DAG with the given number of terms and items,
// each item annotated to a handful of random terms with random frequencies.
func randomModel(t *testing.T, numTerms, numItems int, seed int64) *Model {
	t.Helper()
	rnd := rand.New(rand.NewSource(seed))

	terms := make([]ontology.Term, numTerms)
	for i := range numTerms {
		terms[i] = ontology.Term{
			ID:   ontology.TermID(fmt.Sprintf("T:%04d", i)),
			Name: fmt.Sprintf("term %04d", i),
		}
		// Parents only point at lower indices, so the graph is acyclic.
		for p := range i {
			if rnd.Float64() < 2.0/float64(i) {
				terms[i].IsA = append(terms[i].IsA, terms[p].ID)
			}
		}
		if i > 0 && len(terms[i].IsA) == 0 {
			terms[i].IsA = []ontology.TermID{terms[rnd.Intn(i)].ID}
		}
	}
	g, err := ontology.NewSlimGraph(terms)
	if err != nil {
		t.Fatal(err)
	}

	c := annotations.NewContainer()
	for i := range numItems {
		item := fmt.Sprintf("ITEM:%03d", i)
		n := 2 + rnd.Intn(5)
		seen := map[int]bool{}
		for range n {
			term := rnd.Intn(numTerms)
			if seen[term] {
				continue
			}
			seen[term] = true
			a := annotations.Association{Item: item, TermID: terms[term].ID}
			if rnd.Float64() < 0.5 {
				a.Frequency = fmt.Sprintf("%d%%", 1+rnd.Intn(99))
			}
			c.Add(a)
		}
	}

	m, err := New(g, c, Options{})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

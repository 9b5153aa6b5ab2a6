package ontology

import (
	"errors"
	"reflect"
	"testing"
)

// chainTerms builds T0 <- T1 <- T2 where T0 is the root.
func chainTerms() []Term {
	return []Term{
		{ID: "T:0", Name: "root"},
		{ID: "T:1", Name: "middle", IsA: []TermID{"T:0"}},
		{ID: "T:2", Name: "leaf", IsA: []TermID{"T:1"}},
	}
}

func TestSlimGraphChain(t *testing.T) {
	g, err := NewSlimGraph(chainTerms())
	if err != nil {
		t.Fatal(err)
	}
	if g.NumVertices() != 3 {
		t.Fatalf("NumVertices = %d, want 3", g.NumVertices())
	}

	leaf := g.IndexOf("T:2")
	if leaf < 0 {
		t.Fatal("T:2 not found")
	}
	wantAnc := []int{g.IndexOf("T:0"), g.IndexOf("T:1")}
	if !reflect.DeepEqual(g.AncestorsOf(leaf), wantAnc) {
		t.Errorf("AncestorsOf(leaf) = %v, want %v", g.AncestorsOf(leaf), wantAnc)
	}

	root := g.IndexOf("T:0")
	if len(g.AncestorsOf(root)) != 0 {
		t.Errorf("root has ancestors %v", g.AncestorsOf(root))
	}
	if len(g.DescendantsOf(root)) != 2 {
		t.Errorf("DescendantsOf(root) = %v, want 2 entries", g.DescendantsOf(root))
	}
	if !g.IsDescendant(leaf, root) {
		t.Error("leaf should be a descendant of root")
	}
	if g.IsDescendant(root, leaf) {
		t.Error("root should not be a descendant of leaf")
	}
}

func TestSlimGraphTopologicalOrder(t *testing.T) {
	g, err := NewSlimGraph([]Term{
		{ID: "T:0", Name: "root"},
		{ID: "T:1", Name: "a", IsA: []TermID{"T:0"}},
		{ID: "T:2", Name: "b", IsA: []TermID{"T:0"}},
		{ID: "T:3", Name: "ab", IsA: []TermID{"T:1", "T:2"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	for v := range g.NumVertices() {
		for _, p := range g.ParentsOf(v) {
			if g.TopologicalRank(p) >= g.TopologicalRank(v) {
				t.Errorf("parent %d ranked after child %d", p, v)
			}
		}
	}
	// Diamond: ancestors of the bottom term are all three others.
	if got := g.AncestorsOf(g.IndexOf("T:3")); len(got) != 3 {
		t.Errorf("AncestorsOf(T:3) = %v, want 3 entries", got)
	}
}

func TestSlimGraphRejectsCycle(t *testing.T) {
	_, err := NewSlimGraph([]Term{
		{ID: "T:0", Name: "a", IsA: []TermID{"T:1"}},
		{ID: "T:1", Name: "b", IsA: []TermID{"T:0"}},
	})
	if !errors.Is(err, ErrInvalidOntology) {
		t.Fatalf("err = %v, want ErrInvalidOntology", err)
	}
}

func TestSlimGraphRejectsUnknownParent(t *testing.T) {
	_, err := NewSlimGraph([]Term{
		{ID: "T:0", Name: "a", IsA: []TermID{"T:9"}},
	})
	if !errors.Is(err, ErrInvalidOntology) {
		t.Fatalf("err = %v, want ErrInvalidOntology", err)
	}
}

func TestSlimGraphAltIDs(t *testing.T) {
	g, err := NewSlimGraph([]Term{
		{ID: "T:0", Name: "root", AltIDs: []TermID{"T:9"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if g.IndexOf("T:9") != g.IndexOf("T:0") {
		t.Error("alt id should resolve to the primary index")
	}
	if g.IndexOf("T:42") != -1 {
		t.Error("unknown id should resolve to -1")
	}
}

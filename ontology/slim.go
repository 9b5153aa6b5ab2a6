package ontology

import (
	"errors"
	"fmt"
	"sort"

	"github.com/happyhackingspace/boqa/internal/sparse"
)

// ErrInvalidOntology is returned when the term set does not form a DAG, e.g.
// because of a cycle or a dangling IS_A reference.
var ErrInvalidOntology = errors.New("invalid ontology")

// SlimGraph is a dense, index-based view of the ontology DAG. Terms carry
// indices in [0, NumVertices()); all adjacency and closure queries resolve to
// slices of such indices. A SlimGraph is immutable after construction.
type SlimGraph struct {
	terms []Term
	index map[TermID]int

	parents     [][]int
	children    [][]int
	ancestors   [][]int // strict ancestors, sorted
	descendants [][]int // strict descendants, sorted
	topoOrder   []int   // parents before children
	topoRank    []int
}

// NewSlimGraph builds the slim view from a term container. Obsolete terms are
// skipped. The construction fails with ErrInvalidOntology if an IS_A edge
// points to an unknown term or if the graph contains a cycle.
func NewSlimGraph(terms []Term) (*SlimGraph, error) {
	g := &SlimGraph{index: make(map[TermID]int)}
	for _, t := range terms {
		if t.Obsolete {
			continue
		}
		if _, dup := g.index[t.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate term %s", ErrInvalidOntology, t.ID)
		}
		g.index[t.ID] = len(g.terms)
		g.terms = append(g.terms, t)
	}
	if len(g.terms) == 0 {
		return nil, fmt.Errorf("%w: no terms", ErrInvalidOntology)
	}
	// Alternative ids resolve to the primary index.
	for i, t := range g.terms {
		for _, alt := range t.AltIDs {
			if _, taken := g.index[alt]; !taken {
				g.index[alt] = i
			}
		}
	}

	n := len(g.terms)
	g.parents = make([][]int, n)
	g.children = make([][]int, n)
	for i, t := range g.terms {
		for _, pid := range t.IsA {
			p, ok := g.index[pid]
			if !ok {
				return nil, fmt.Errorf("%w: term %s has unknown parent %s", ErrInvalidOntology, t.ID, pid)
			}
			g.parents[i] = append(g.parents[i], p)
			g.children[p] = append(g.children[p], i)
		}
	}
	for i := range n {
		sort.Ints(g.parents[i])
		sort.Ints(g.children[i])
	}

	if err := g.computeTopologicalOrder(); err != nil {
		return nil, err
	}
	g.computeClosures()
	return g, nil
}

// computeTopologicalOrder runs Kahn's algorithm over the child-to-parent
// edges so that every parent precedes its children in topoOrder.
func (g *SlimGraph) computeTopologicalOrder() error {
	n := len(g.terms)
	indeg := make([]int, n) // unresolved parents per term
	for i := range n {
		indeg[i] = len(g.parents[i])
	}

	queue := make([]int, 0, n)
	for i := range n {
		if indeg[i] == 0 {
			queue = append(queue, i)
		}
	}
	if len(queue) == 0 {
		return fmt.Errorf("%w: no root term", ErrInvalidOntology)
	}

	order := make([]int, 0, n)
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		order = append(order, v)
		for _, c := range g.children[v] {
			indeg[c]--
			if indeg[c] == 0 {
				queue = append(queue, c)
			}
		}
	}
	if len(order) != n {
		return fmt.Errorf("%w: graph contains a cycle", ErrInvalidOntology)
	}

	g.topoOrder = order
	g.topoRank = make([]int, n)
	for rank, v := range order {
		g.topoRank[v] = rank
	}
	return nil
}

// computeClosures fills the strict ancestor and descendant sets. Terms are
// visited in topological order, so the parents' closures are complete when a
// term is processed.
func (g *SlimGraph) computeClosures() {
	n := len(g.terms)
	g.ancestors = make([][]int, n)
	scratch := make([]bool, n)
	for _, v := range g.topoOrder {
		for _, p := range g.parents[v] {
			scratch[p] = true
			for _, a := range g.ancestors[p] {
				scratch[a] = true
			}
		}
		g.ancestors[v] = sparse.FromDense(scratch)
		for _, a := range g.ancestors[v] {
			scratch[a] = false
		}
	}

	g.descendants = make([][]int, n)
	for i := n - 1; i >= 0; i-- {
		v := g.topoOrder[i]
		for _, c := range g.children[v] {
			scratch[c] = true
			for _, d := range g.descendants[c] {
				scratch[d] = true
			}
		}
		g.descendants[v] = sparse.FromDense(scratch)
		for _, d := range g.descendants[v] {
			scratch[d] = false
		}
	}
}

// NumVertices returns the number of terms in the slim view.
func (g *SlimGraph) NumVertices() int { return len(g.terms) }

// TermAt returns the term with the given dense index.
func (g *SlimGraph) TermAt(i int) Term { return g.terms[i] }

// IndexOf returns the dense index of the given term id (primary or alt id),
// or -1 if the term is unknown.
func (g *SlimGraph) IndexOf(id TermID) int {
	if i, ok := g.index[id]; ok {
		return i
	}
	return -1
}

// ParentsOf returns the indices of the direct parents of t, sorted.
func (g *SlimGraph) ParentsOf(t int) []int { return g.parents[t] }

// ChildrenOf returns the indices of the direct children of t, sorted.
func (g *SlimGraph) ChildrenOf(t int) []int { return g.children[t] }

// AncestorsOf returns the strict ancestors of t, sorted. The returned slice
// is owned by the graph and must not be modified.
func (g *SlimGraph) AncestorsOf(t int) []int { return g.ancestors[t] }

// DescendantsOf returns the strict descendants of t, sorted.
func (g *SlimGraph) DescendantsOf(t int) []int { return g.descendants[t] }

// TopologicalOrder returns term indices with every parent before its
// children.
func (g *SlimGraph) TopologicalOrder() []int { return g.topoOrder }

// TopologicalRank returns the position of t within TopologicalOrder.
func (g *SlimGraph) TopologicalRank(t int) int { return g.topoRank[t] }

// IsDescendant reports whether a is a strict descendant of b.
func (g *SlimGraph) IsDescendant(a, b int) bool {
	return sparse.Contains(g.descendants[b], a)
}

// ActivateAncestors sets states[a] for every strict ancestor a of t.
func (g *SlimGraph) ActivateAncestors(t int, states []bool) {
	for _, a := range g.ancestors[t] {
		states[a] = true
	}
}

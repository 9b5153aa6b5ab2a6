// Package boqa ranks a catalogue of annotated items (e.g. diseases) against
// a query of ontology terms (e.g. observed phenotypes) by computing, for
// every item, the posterior probability that it causes the query.
//
//	e, _ := boqa.Load("hp.obo", "annotations.tsv", inference.Options{})
//	results, _ := e.Score(ctx, []int{42, 127})
//	for _, r := range results {
//	    fmt.Println(r.Name, r.Marginal)
//	}
//
// The engine exposes a stable, name-sorted term id space towards users;
// conversion to the internal dense indices happens at this boundary only.
package boqa

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/happyhackingspace/boqa/annotations"
	"github.com/happyhackingspace/boqa/inference"
	"github.com/happyhackingspace/boqa/ontology"
)

var (
	// ErrEmptyQuery is returned by Score for a query without terms.
	ErrEmptyQuery = errors.New("boqa: empty query")
	// ErrUnknownTerm is returned when a query refers to a term id outside
	// the sorted id space.
	ErrUnknownTerm = errors.New("boqa: unknown term")
)

// Engine wraps the inference model with the sorted term id space.
type Engine struct {
	model *inference.Model
	graph *ontology.SlimGraph

	// sortedToIdx[s] is the dense index of the term with sorted id s;
	// idxToSorted is its inverse.
	sortedToIdx []int
	idxToSorted []int
}

// ItemResult is one entry of a ranking.
type ItemResult struct {
	ItemID   int     `json:"item_id"`
	Name     string  `json:"name"`
	Marginal float64 `json:"marginal"`
}

// Setup builds the engine from an ontology and an association container.
func Setup(graph *ontology.SlimGraph, assoc *annotations.Container, opts inference.Options) (*Engine, error) {
	model, err := inference.New(graph, assoc, opts)
	if err != nil {
		return nil, fmt.Errorf("boqa: %w", err)
	}

	e := &Engine{model: model, graph: graph}
	e.buildSortedIndex()
	return e, nil
}

// Load builds the engine from an OBO file and an association file.
func Load(oboPath, assocPath string, opts inference.Options) (*Engine, error) {
	graph, err := ontology.LoadOBO(oboPath)
	if err != nil {
		return nil, fmt.Errorf("boqa: %w", err)
	}
	assoc, err := annotations.Load(assocPath)
	if err != nil {
		return nil, fmt.Errorf("boqa: %w", err)
	}
	return Setup(graph, assoc, opts)
}

// buildSortedIndex sorts the terms case-insensitively by name and records
// the permutation in both directions.
func (e *Engine) buildSortedIndex() {
	n := e.graph.NumVertices()
	e.sortedToIdx = make([]int, n)
	for i := range e.sortedToIdx {
		e.sortedToIdx[i] = i
	}
	sort.SliceStable(e.sortedToIdx, func(a, b int) bool {
		na := strings.ToLower(e.graph.TermAt(e.sortedToIdx[a]).Name)
		nb := strings.ToLower(e.graph.TermAt(e.sortedToIdx[b]).Name)
		return na < nb
	})
	e.idxToSorted = make([]int, n)
	for s, idx := range e.sortedToIdx {
		e.idxToSorted[idx] = s
	}
}

// Score ranks all items against the query given as sorted term ids. The
// result is ordered by descending marginal; equal marginals rank the item
// with the smaller index first.
func (e *Engine) Score(ctx context.Context, sortedIDs []int) ([]ItemResult, error) {
	return e.ScoreWith(ctx, sortedIDs, true, 0)
}

// ScoreWith is Score with explicit control over frequency handling and the
// worker count (0 selects the model default).
func (e *Engine) ScoreWith(ctx context.Context, sortedIDs []int, useFrequencies bool, workers int) ([]ItemResult, error) {
	if len(sortedIDs) == 0 {
		return nil, ErrEmptyQuery
	}
	onTerms := make([]int, len(sortedIDs))
	for i, s := range sortedIDs {
		if s < 0 || s >= len(e.sortedToIdx) {
			return nil, fmt.Errorf("%w: sorted id %d", ErrUnknownTerm, s)
		}
		onTerms[i] = e.sortedToIdx[s]
	}

	obs, err := inference.NewObservations(e.model, onTerms)
	if err != nil {
		return nil, fmt.Errorf("boqa: %w", err)
	}
	res, err := e.model.AssignMarginals(ctx, obs, useFrequencies, workers, nil)
	if err != nil {
		return nil, fmt.Errorf("boqa: %w", err)
	}

	results := make([]ItemResult, e.model.NumItems())
	for i := range results {
		results[i] = ItemResult{
			ItemID:   i,
			Name:     e.model.ItemName(i),
			Marginal: res.Marginals[i],
		}
	}
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Marginal > results[b].Marginal
	})
	return results, nil
}

// ScoreNames is Score for term ids given as external identifiers (e.g.
// "HP:0000118").
func (e *Engine) ScoreNames(ctx context.Context, termIDs []ontology.TermID) ([]ItemResult, error) {
	if len(termIDs) == 0 {
		return nil, ErrEmptyQuery
	}
	sortedIDs := make([]int, len(termIDs))
	for i, id := range termIDs {
		idx := e.graph.IndexOf(id)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTerm, id)
		}
		sortedIDs[i] = e.idxToSorted[idx]
	}
	return e.Score(ctx, sortedIDs)
}

// TermAt returns the term with the given sorted id.
func (e *Engine) TermAt(sortedIdx int) ontology.Term {
	return e.graph.TermAt(e.sortedToIdx[sortedIdx])
}

// IDOfTerm returns the sorted id of the given term, or -1 for an unknown
// term.
func (e *Engine) IDOfTerm(t ontology.Term) int {
	idx := e.graph.IndexOf(t.ID)
	if idx < 0 {
		return -1
	}
	return e.idxToSorted[idx]
}

// Terms returns, in sorted order, the terms whose name or identifier
// contains the pattern case-insensitively. An empty pattern matches all
// terms.
func (e *Engine) Terms(pattern string) []ontology.Term {
	pat := strings.ToLower(pattern)
	var out []ontology.Term
	for s := range len(e.sortedToIdx) {
		t := e.TermAt(s)
		if pat == "" || strings.Contains(strings.ToLower(t.Name), pat) ||
			strings.Contains(strings.ToLower(string(t.ID)), pat) {
			out = append(out, t)
		}
	}
	return out
}

// NumberOfTerms returns the number of terms matching the pattern.
func (e *Engine) NumberOfTerms(pattern string) int {
	if pattern == "" {
		return e.graph.NumVertices()
	}
	return len(e.Terms(pattern))
}

// NumItems returns the number of items in the catalogue.
func (e *Engine) NumItems() int { return e.model.NumItems() }

// ItemName returns the name of the given item.
func (e *Engine) ItemName(itemID int) string { return e.model.ItemName(itemID) }

// TermsDirectlyAnnotatedTo returns the sorted ids of the terms directly
// annotated to the item.
func (e *Engine) TermsDirectlyAnnotatedTo(itemID int) []int {
	direct := e.model.DirectTerms(itemID)
	out := make([]int, len(direct))
	for i, t := range direct {
		out[i] = e.idxToSorted[t]
	}
	return out
}

// FrequenciesDirectlyAnnotatedTo returns the annotation probabilities in
// the order of TermsDirectlyAnnotatedTo.
func (e *Engine) FrequenciesDirectlyAnnotatedTo(itemID int) []float64 {
	freqs := e.model.Frequencies(itemID)
	out := make([]float64, len(freqs))
	copy(out, freqs)
	return out
}

// ParentsOf returns the sorted ids of the parents of the term with the
// given sorted id.
func (e *Engine) ParentsOf(sortedIdx int) []int {
	parents := e.graph.ParentsOf(e.sortedToIdx[sortedIdx])
	out := make([]int, len(parents))
	for i, p := range parents {
		out[i] = e.idxToSorted[p]
	}
	return out
}

// NumberOfItemsAnnotated returns how many items carry the term with the
// given sorted id in their induced set.
func (e *Engine) NumberOfItemsAnnotated(sortedIdx int) int {
	return e.model.NumItemsAnnotated(e.sortedToIdx[sortedIdx])
}

// Model exposes the underlying inference model for advanced use (similarity
// measures, benchmarks).
func (e *Engine) Model() *inference.Model { return e.model }

// Ontology exposes the slim ontology view.
func (e *Engine) Ontology() *ontology.SlimGraph { return e.graph }

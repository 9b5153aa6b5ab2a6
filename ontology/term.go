// Package ontology provides the term model, an OBO subset parser, and a
// dense, index-based view of the ontology DAG.
package ontology

// TermID is the stable external identifier of a term, e.g. "HP:0000118".
type TermID string

// Term is a single vertex of the ontology DAG. Edges point child to parent
// (IS_A semantics).
type Term struct {
	ID       TermID
	Name     string
	IsA      []TermID
	AltIDs   []TermID
	Obsolete bool
}

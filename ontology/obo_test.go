package ontology

import (
	"strings"
	"testing"
)

const sampleOBO = `format-version: 1.2
ontology: sample

[Term]
id: T:0000001
name: root

[Term]
id: T:0000002
name: organ abnormality
alt_id: T:0000099
is_a: T:0000001 ! root

[Term]
id: T:0000003
name: gone
is_obsolete: true

[Typedef]
id: part_of
name: part of
`

func TestParseOBO(t *testing.T) {
	terms, err := ParseOBO(strings.NewReader(sampleOBO))
	if err != nil {
		t.Fatal(err)
	}
	if len(terms) != 3 {
		t.Fatalf("parsed %d terms, want 3", len(terms))
	}
	if terms[1].ID != "T:0000002" || terms[1].Name != "organ abnormality" {
		t.Errorf("term 1 = %+v", terms[1])
	}
	if len(terms[1].IsA) != 1 || terms[1].IsA[0] != "T:0000001" {
		t.Errorf("is_a = %v, want [T:0000001]", terms[1].IsA)
	}
	if len(terms[1].AltIDs) != 1 || terms[1].AltIDs[0] != "T:0000099" {
		t.Errorf("alt_id = %v, want [T:0000099]", terms[1].AltIDs)
	}
	if !terms[2].Obsolete {
		t.Error("term 2 should be obsolete")
	}

	g, err := NewSlimGraph(terms)
	if err != nil {
		t.Fatal(err)
	}
	// Obsolete term dropped by the graph.
	if g.NumVertices() != 2 {
		t.Errorf("NumVertices = %d, want 2", g.NumVertices())
	}
}

func TestParseOBOEmpty(t *testing.T) {
	if _, err := ParseOBO(strings.NewReader("format-version: 1.2\n")); err == nil {
		t.Fatal("expected error for OBO without terms")
	}
}

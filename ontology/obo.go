package ontology

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

const scannerBufferSize = 1 << 20

// ParseOBO reads the subset of the OBO flat file format needed here: the
// header and [Term] stanzas with id, name, alt_id, is_a and is_obsolete
// lines. Other stanza types and tags are skipped.
func ParseOBO(r io.Reader) ([]Term, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, scannerBufferSize), scannerBufferSize)

	var terms []Term
	inTerm := false
	var cur Term

	flush := func() {
		if inTerm && cur.ID != "" {
			terms = append(terms, cur)
		}
		cur = Term{}
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line[0] == '[' {
			flush()
			inTerm = line == "[Term]"
			continue
		}
		if !inTerm {
			continue
		}
		key, val, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		switch key {
		case "id":
			cur.ID = TermID(val)
		case "name":
			cur.Name = val
		case "alt_id":
			cur.AltIDs = append(cur.AltIDs, TermID(val))
		case "is_a":
			// "HP:0000001 ! name"
			id, _, _ := strings.Cut(val, " ! ")
			cur.IsA = append(cur.IsA, TermID(strings.TrimSpace(id)))
		case "is_obsolete":
			cur.Obsolete = val == "true"
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("parse obo: %w", err)
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("parse obo: %w: no [Term] stanzas found", ErrInvalidOntology)
	}
	return terms, nil
}

// LoadOBO parses the OBO file at the given path and builds the slim graph.
func LoadOBO(path string) (*SlimGraph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load obo: %w", err)
	}
	defer func() { _ = f.Close() }()

	terms, err := ParseOBO(f)
	if err != nil {
		return nil, err
	}
	return NewSlimGraph(terms)
}

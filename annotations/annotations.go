// Package annotations holds item-to-term associations and the frequency
// notation lexer.
package annotations

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/happyhackingspace/boqa/ontology"
)

// Association links one item to one directly annotated term, optionally with
// a raw frequency annotation ("12%", "3/20", "frequent", ...). An empty
// Frequency means the term is always present.
type Association struct {
	Item      string
	TermID    ontology.TermID
	Frequency string
}

// Container groups associations by item and preserves the item iteration
// order of the source.
type Container struct {
	order []string
	items map[string][]Association
}

// NewContainer creates an empty container.
func NewContainer() *Container {
	return &Container{items: make(map[string][]Association)}
}

// Add appends an association. The first occurrence of an item fixes its
// position in the iteration order.
func (c *Container) Add(a Association) {
	if _, seen := c.items[a.Item]; !seen {
		c.order = append(c.order, a.Item)
	}
	c.items[a.Item] = append(c.items[a.Item], a)
}

// Items returns the item names in source order.
func (c *Container) Items() []string { return c.order }

// Of returns the associations of the given item.
func (c *Container) Of(item string) []Association { return c.items[item] }

// Len returns the number of distinct items.
func (c *Container) Len() int { return len(c.order) }

// Parse reads tab-separated association lines of the form
//
//	item<TAB>termID[<TAB>frequency]
//
// Empty lines and lines starting with '#' or '!' are skipped.
func Parse(r io.Reader) (*Container, error) {
	c := NewContainer()
	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" || line[0] == '#' || line[0] == '!' {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			return nil, fmt.Errorf("parse associations: line %d: want at least 2 tab-separated fields, got %d", lineno, len(fields))
		}
		a := Association{
			Item:   strings.TrimSpace(fields[0]),
			TermID: ontology.TermID(strings.TrimSpace(fields[1])),
		}
		if len(fields) > 2 {
			a.Frequency = strings.TrimSpace(fields[2])
		}
		if a.Item == "" || a.TermID == "" {
			return nil, fmt.Errorf("parse associations: line %d: empty item or term id", lineno)
		}
		c.Add(a)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("parse associations: %w", err)
	}
	return c, nil
}

// Load parses the association file at the given path.
func Load(path string) (*Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load associations: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Parse(f)
}

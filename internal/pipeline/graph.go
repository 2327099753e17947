package pipeline

import (
	"fmt"

	"github.com/tbourn/go-graceful-response/internal/fault"
)

// Graph is an immutable category hierarchy stored as child -> parent.
// Categories without a parent entry are roots.
type Graph struct {
	parents map[fault.Category]fault.Category
}

// NewGraph validates parents and returns the hierarchy. Empty names,
// self-parents, and cycles are configuration errors.
func NewGraph(parents map[fault.Category]fault.Category) (*Graph, error) {
	g := &Graph{parents: make(map[fault.Category]fault.Category, len(parents))}
	for child, parent := range parents {
		if child == "" || parent == "" {
			return nil, fmt.Errorf("pipeline: category graph has an empty name (%q -> %q)", child, parent)
		}
		if child == parent {
			return nil, fmt.Errorf("pipeline: category %q is its own parent", child)
		}
		g.parents[child] = parent
	}
	for child := range g.parents {
		seen := map[fault.Category]struct{}{child: {}}
		for cur, ok := g.parents[child]; ok; cur, ok = g.parents[cur] {
			if _, dup := seen[cur]; dup {
				return nil, fmt.Errorf("pipeline: category cycle through %q", child)
			}
			seen[cur] = struct{}{}
		}
	}
	return g, nil
}

// Parent returns the direct parent of c.
func (g *Graph) Parent(c fault.Category) (fault.Category, bool) {
	if g == nil {
		return "", false
	}
	p, ok := g.parents[c]
	return p, ok
}

// Ancestors returns the ancestors of c, nearest first.
func (g *Graph) Ancestors(c fault.Category) []fault.Category {
	var out []fault.Category
	for cur, ok := g.Parent(c); ok; cur, ok = g.Parent(cur) {
		out = append(out, cur)
	}
	return out
}

// IsA reports whether c is ancestor or descends from it.
func (g *Graph) IsA(c, ancestor fault.Category) bool {
	if c == ancestor {
		return true
	}
	for _, a := range g.Ancestors(c) {
		if a == ancestor {
			return true
		}
	}
	return false
}

// Categories returns every category named in the graph.
func (g *Graph) Categories() []fault.Category {
	if g == nil {
		return nil
	}
	seen := make(map[fault.Category]struct{}, len(g.parents)*2)
	out := make([]fault.Category, 0, len(g.parents)*2)
	for child, parent := range g.parents {
		for _, c := range [...]fault.Category{child, parent} {
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				out = append(out, c)
			}
		}
	}
	return out
}

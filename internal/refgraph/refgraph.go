// Package refgraph answers reachability questions over the reference
// edges between entries. A Graph is built from one repository scan and
// discarded with it; the files stay the system of record.
package refgraph

import (
	"sort"

	"github.com/starford/ansuz/internal/models"
)

// Graph is an in-memory view of the directed reference edges.
type Graph struct {
	out map[string][]string
}

// Build collects the outgoing references of every entry.
func Build(entries []*models.Entry) *Graph {
	out := make(map[string][]string, len(entries))
	for _, e := range entries {
		if len(e.References) > 0 {
			out[e.ID] = append([]string(nil), e.References...)
		}
	}
	return &Graph{out: out}
}

// Reaches reports whether to is reachable from from by following
// outgoing references.
func (g *Graph) Reaches(from, to string) bool {
	if from == to {
		return true
	}
	seen := map[string]struct{}{from: {}}
	stack := append([]string(nil), g.out[from]...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == to {
			return true
		}
		if _, visited := seen[id]; visited {
			continue
		}
		seen[id] = struct{}{}
		stack = append(stack, g.out[id]...)
	}
	return false
}

// WouldCycle reports whether adding the edge from -> to would close a
// cycle. A self-loop is the trivial case.
func (g *Graph) WouldCycle(from, to string) bool {
	if from == to {
		return true
	}
	return g.Reaches(to, from)
}

// Backlinks returns the IDs of entries whose references include id,
// sorted for stable output.
func (g *Graph) Backlinks(id string) []string {
	var out []string
	for src, targets := range g.out {
		for _, t := range targets {
			if t == id {
				out = append(out, src)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

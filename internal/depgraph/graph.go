// Package depgraph infers causal links between CCDL events from the signals
// they broadcast and the signals they listen for.
package depgraph

import (
	"sort"

	"emodccdl/internal/ccdl"
)

// Node is one campaign event drawn in the graph.
type Node struct {
	Index int    `json:"index"`
	Label string `json:"label"`
	Color string `json:"color"`
	Shape string `json:"shape"`
	Line  string `json:"line"`
}

// Edge links a producer event to a consumer event through a signal.
type Edge struct {
	From   int    `json:"from"`
	To     int    `json:"to"`
	Signal string `json:"signal"`
}

// Graph is the dependency graph of one CCDL document. Nodes are ordered by
// event index and edges by (signal, from, to).
type Graph struct {
	Nodes       []Node           `json:"nodes"`
	Edges       []Edge           `json:"edges"`
	Diagnostics ccdl.Diagnostics `json:"-"`
}

// Node returns the node for an event index.
func (g *Graph) Node(index int) (Node, bool) {
	i := sort.Search(len(g.Nodes), func(i int) bool { return g.Nodes[i].Index >= index })
	if i < len(g.Nodes) && g.Nodes[i].Index == index {
		return g.Nodes[i], true
	}
	return Node{}, false
}

// Signals returns the distinct edge signals in order.
func (g *Graph) Signals() []string {
	var out []string
	for i, e := range g.Edges {
		if i == 0 || e.Signal != g.Edges[i-1].Signal {
			out = append(out, e.Signal)
		}
	}
	return out
}

func sortEdges(edges []Edge) {
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.Signal != b.Signal {
			return a.Signal < b.Signal
		}
		if a.From != b.From {
			return a.From < b.From
		}
		return a.To < b.To
	})
}

package depgraph

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// Output formats.
const (
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// Write renders g in the named format.
func (g *Graph) Write(w io.Writer, format, name string) error {
	switch format {
	case FormatDOT, "":
		return g.WriteDOT(w, name)
	case FormatJSON:
		return g.WriteJSON(w)
	default:
		return fmt.Errorf("unknown graph format %q", format)
	}
}

// WriteDOT renders g as a Graphviz digraph with filled nodes and
// signal-labelled edges.
func (g *Graph) WriteDOT(w io.Writer, name string) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "digraph %s {\n", strconv.Quote(name))
	fmt.Fprintln(bw, "\t// Patient Pathway Design")
	for _, n := range g.Nodes {
		fmt.Fprintf(bw, "\t%s [label=%s style=filled fillcolor=%s shape=%s]\n",
			nodeID(n.Index), strconv.Quote(n.Label), strconv.Quote(n.Color), strconv.Quote(n.Shape))
	}
	for _, e := range g.Edges {
		fmt.Fprintf(bw, "\t%s -> %s [label=%s]\n", nodeID(e.From), nodeID(e.To), strconv.Quote(e.Signal))
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}

// WriteJSON renders g as indented JSON.
func (g *Graph) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(g)
}

func nodeID(index int) string {
	return "e" + strconv.Itoa(index)
}

package depgraph

import (
	"context"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"emodccdl/internal/ccdl"
	"emodccdl/internal/logging"
)

// Options configures Build. The zero value uses the default styler and
// broadcaster set and keeps every signal.
type Options struct {
	Styler       Styler
	Broadcasters Broadcasters
	// Whitelist, when non-empty, keeps only edges for these signals.
	Whitelist []string
}

// event is one parsed CCDL line.
type event struct {
	index       int
	line        string
	start, end  float64
	restriction []ccdl.Pair
	produces    []string
	consumes    []string
	node        Node
}

// Build parses lines and links every producer to every consumer of the same
// signal whose property restrictions and active intervals are compatible.
// Malformed lines keep their index but get no node.
func Build(ctx context.Context, lines []string, opts Options) (*Graph, error) {
	timer := logging.StartTimer(logging.CategoryGraph, "build graph")
	defer timer.Stop()

	if opts.Styler == nil {
		opts.Styler = DefaultStyler{}
	}
	if opts.Broadcasters == nil {
		opts.Broadcasters = DefaultBroadcasters()
	}

	events := make([]*event, len(lines))
	perLine := make([]ccdl.Diagnostics, len(lines))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, line := range lines {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			events[i], perLine[i] = parseEvent(i, line, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	graph := &Graph{}
	for i, ev := range events {
		graph.Diagnostics = append(graph.Diagnostics, perLine[i]...)
		if ev != nil {
			graph.Nodes = append(graph.Nodes, ev.node)
		}
	}

	candidates, err := joinCandidates(events)
	if err != nil {
		return nil, err
	}
	log := logging.Get(logging.CategoryGraph)
	for _, c := range candidates {
		if len(opts.Whitelist) > 0 && !slices.Contains(opts.Whitelist, c.Signal) {
			continue
		}
		from, to := events[c.From], events[c.To]
		if !compatible(from.restriction, to.restriction) {
			log.Debug("dropped %d -> %d on %s: incompatible restrictions", c.From, c.To, c.Signal)
			continue
		}
		if !overlaps(from.start, from.end, to.start, to.end) {
			log.Debug("dropped %d -> %d on %s: no time overlap", c.From, c.To, c.Signal)
			continue
		}
		graph.Edges = append(graph.Edges, c)
	}
	sortEdges(graph.Edges)

	log.Info("built graph: %d nodes, %d edges, %d diagnostics", len(graph.Nodes), len(graph.Edges), len(graph.Diagnostics))
	return graph, nil
}

// parseEvent builds the event for one line. A nil event means the line has no node.
func parseEvent(index int, line string, opts Options) (*event, ccdl.Diagnostics) {
	fields := ccdl.SplitFields(line)
	if len(fields) < ccdl.MinFields {
		return nil, nil
	}
	if len(fields) < ccdl.EventFields {
		d := ccdl.Errorf(ccdl.StructuralParseError, line, "expected %d fields, got %d", ccdl.EventFields, len(fields))
		return nil, ccdl.Diagnostics{d.At(index)}
	}

	var diags ccdl.Diagnostics
	fields[ccdl.WhatIdx] = withOutbreak(fields[ccdl.WhatIdx])
	info := newNodeInfo(index, fields)

	ev := &event{index: index, line: strings.TrimSpace(line), end: ccdl.OpenEnd}
	if when, err := ccdl.ParseWhen(info.When); err != nil {
		d := ccdl.Warnf(ccdl.StructuralParseError, line, "WHEN treated as always active")
		d.Err = err
		diags = append(diags, d.At(index))
	} else {
		ev.start, ev.end = when.Interval()
	}

	who, whoDiags := ccdl.ParseWho(info.Who)
	for _, d := range whoDiags {
		w := d.At(index)
		w.Severity = ccdl.SeverityWarning
		diags = append(diags, w)
	}
	ev.restriction = ccdl.ParseRestriction(who.Restriction)

	what, whatDiags := ccdl.ParseWhat(info.What)
	for _, d := range whatDiags {
		diags = append(diags, d.At(index))
	}
	ev.consumes = consumes(what)
	ev.produces = opts.Broadcasters.Produces(what)

	ev.node = Node{
		Index: index,
		Label: opts.Styler.Label(info),
		Color: opts.Styler.Color(info),
		Shape: opts.Styler.Shape(info),
		Line:  ev.line,
	}
	return ev, diags
}

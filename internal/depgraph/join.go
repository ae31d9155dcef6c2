package depgraph

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	_ "github.com/google/mangle/builtin"
	"github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"
)

// joinProgram derives every (producer, consumer, signal) triple.
const joinProgram = `
Decl produces(Event, Signal) bound[/number, /string].
Decl consumes(Event, Signal) bound[/number, /string].

candidate(P, C, S) :- produces(P, S), consumes(C, S).
`

var (
	joinOnce sync.Once
	joinInfo *analysis.ProgramInfo
	joinErr  error
)

func joinProgramInfo() (*analysis.ProgramInfo, error) {
	joinOnce.Do(func() {
		unit, err := parse.Unit(strings.NewReader(joinProgram))
		if err != nil {
			joinErr = fmt.Errorf("parse error: %w", err)
			return
		}
		joinInfo, joinErr = analysis.AnalyzeOneUnit(unit, nil)
		if joinErr != nil {
			joinErr = fmt.Errorf("analysis error: %w", joinErr)
		}
	})
	return joinInfo, joinErr
}

// joinCandidates evaluates the join over the events' produced and consumed
// signals. Nil events are skipped.
func joinCandidates(events []*event) ([]Edge, error) {
	info, err := joinProgramInfo()
	if err != nil {
		return nil, err
	}

	store := factstore.NewSimpleInMemoryStore()
	for _, ev := range events {
		if ev == nil {
			continue
		}
		for _, sig := range ev.produces {
			store.Add(ast.NewAtom("produces", ast.Number(int64(ev.index)), ast.String(sig)))
		}
		for _, sig := range ev.consumes {
			store.Add(ast.NewAtom("consumes", ast.Number(int64(ev.index)), ast.String(sig)))
		}
	}

	if _, err := engine.EvalProgramWithStats(info, store); err != nil {
		return nil, fmt.Errorf("evaluation error: %w", err)
	}

	var edges []Edge
	query := ast.NewQuery(ast.PredicateSym{Symbol: "candidate", Arity: 3})
	err = store.GetFacts(query, func(a ast.Atom) error {
		from, ok1 := a.Args[0].(ast.Constant)
		to, ok2 := a.Args[1].(ast.Constant)
		sig, ok3 := a.Args[2].(ast.Constant)
		if !ok1 || !ok2 || !ok3 {
			return fmt.Errorf("unexpected candidate fact %v", a)
		}
		edges = append(edges, Edge{From: int(from.NumValue), To: int(to.NumValue), Signal: sig.Symbol})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	return edges, nil
}

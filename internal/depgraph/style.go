package depgraph

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"

	"emodccdl/internal/ccdl"
)

// Default node appearance.
const (
	DefaultColor = "white"
	DefaultShape = "circle"
)

// NodeInfo is what a Styler sees of one event line.
type NodeInfo struct {
	Index    int
	Fields   []string
	When     string
	Where    string
	Who      string
	What     string
	Nickname string
}

func newNodeInfo(index int, fields []string) NodeInfo {
	info := NodeInfo{Index: index, Fields: fields}
	at := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}
	info.When, info.Where, info.Who, info.What = at(ccdl.WhenIdx), at(ccdl.WhereIdx), at(ccdl.WhoIdx), at(ccdl.WhatIdx)
	info.Nickname = at(ccdl.NicknameIdx)
	return info
}

// Styler decides how an event node is drawn. Implementations must be safe
// for concurrent use.
type Styler interface {
	Label(NodeInfo) string
	Color(NodeInfo) string
	Shape(NodeInfo) string
}

// DefaultStyler labels nodes "[i]WHEN*WHERE*WHO", or with the nickname when
// the line has one, and draws white circles.
type DefaultStyler struct{}

func (DefaultStyler) Label(n NodeInfo) string {
	if n.Nickname != "" {
		return nicknameLabel(n.Nickname)
	}
	return fmt.Sprintf("[%d]%s*%s*%s", n.Index, n.When, n.Where, n.Who)
}

func (DefaultStyler) Color(NodeInfo) string { return DefaultColor }
func (DefaultStyler) Shape(NodeInfo) string { return DefaultShape }

// nicknameLabel breaks a nickname onto lines at spaces and dashes, leaving
// "->" arrows intact.
func nicknameLabel(nick string) string {
	parts := strings.Split(strings.TrimSpace(nick), ccdl.PostTriggerSep)
	for i, p := range parts {
		p = strings.ReplaceAll(p, " ", "\n")
		parts[i] = strings.ReplaceAll(p, ccdl.RangeSep, "\n")
	}
	return strings.Join(parts, ccdl.PostTriggerSep)
}

// StyleFuncs adapts plain callbacks to a Styler. Nil callbacks fall back to
// DefaultStyler.
type StyleFuncs struct {
	LabelFunc func(NodeInfo) string
	ColorFunc func(NodeInfo) string
	ShapeFunc func(NodeInfo) string
}

func (s StyleFuncs) Label(n NodeInfo) string {
	if s.LabelFunc == nil {
		return DefaultStyler{}.Label(n)
	}
	return s.LabelFunc(n)
}

func (s StyleFuncs) Color(n NodeInfo) string {
	if s.ColorFunc == nil {
		return DefaultStyler{}.Color(n)
	}
	return s.ColorFunc(n)
}

func (s StyleFuncs) Shape(n NodeInfo) string {
	if s.ShapeFunc == nil {
		return DefaultStyler{}.Shape(n)
	}
	return s.ShapeFunc(n)
}

// StyleExprs holds CEL expressions for node styling. Each expression sees
// index (int) and when, where, who, what, nickname (string) and must return a
// string. Empty expressions use the default.
type StyleExprs struct {
	Label string `yaml:"label"`
	Color string `yaml:"color"`
	Shape string `yaml:"shape"`
}

// IsZero reports whether no expression is set.
func (e StyleExprs) IsZero() bool {
	return e.Label == "" && e.Color == "" && e.Shape == ""
}

// CELStyler styles nodes with compiled CEL programs.
type CELStyler struct {
	label, color, shape cel.Program
}

// NewCELStyler compiles the expressions once.
func NewCELStyler(exprs StyleExprs) (*CELStyler, error) {
	env, err := cel.NewEnv(
		cel.Variable("index", cel.IntType),
		cel.Variable("when", cel.StringType),
		cel.Variable("where", cel.StringType),
		cel.Variable("who", cel.StringType),
		cel.Variable("what", cel.StringType),
		cel.Variable("nickname", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL env: %w", err)
	}

	s := &CELStyler{}
	for _, slot := range []struct {
		name string
		expr string
		prg  *cel.Program
	}{
		{"label", exprs.Label, &s.label},
		{"color", exprs.Color, &s.color},
		{"shape", exprs.Shape, &s.shape},
	} {
		if slot.expr == "" {
			continue
		}
		ast, issues := env.Compile(slot.expr)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("CEL compile error in %s: %w", slot.name, issues.Err())
		}
		if out := ast.OutputType(); !out.IsExactType(cel.StringType) && !out.IsExactType(cel.DynType) {
			return nil, fmt.Errorf("%s expression returns %v, want string", slot.name, out)
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("CEL program error in %s: %w", slot.name, err)
		}
		*slot.prg = prg
	}
	return s, nil
}

func (s *CELStyler) eval(prg cel.Program, n NodeInfo, fallback func(NodeInfo) string) string {
	if prg == nil {
		return fallback(n)
	}
	out, _, err := prg.Eval(map[string]any{
		"index":    int64(n.Index),
		"when":     n.When,
		"where":    n.Where,
		"who":      n.Who,
		"what":     n.What,
		"nickname": n.Nickname,
	})
	if err != nil {
		return fallback(n)
	}
	v, ok := out.Value().(string)
	if !ok {
		return fallback(n)
	}
	return v
}

func (s *CELStyler) Label(n NodeInfo) string { return s.eval(s.label, n, DefaultStyler{}.Label) }
func (s *CELStyler) Color(n NodeInfo) string { return s.eval(s.color, n, DefaultStyler{}.Color) }
func (s *CELStyler) Shape(n NodeInfo) string { return s.eval(s.shape, n, DefaultStyler{}.Shape) }

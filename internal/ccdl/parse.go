package ccdl

import (
	"fmt"
	"strconv"
	"strings"
)

// When is a parsed WHEN field.
type When struct {
	Raw      string
	Start    float64
	End      float64 // OpenEnd unless HasEnd
	HasEnd   bool
	Periodic bool
	Reps     int
	Gap      int
	HasGap   bool
}

// Duration is End-Start for a range, zero otherwise.
func (w When) Duration() float64 {
	if !w.HasEnd {
		return 0
	}
	return w.End - w.Start
}

// Interval returns the half-open [start, end) span used for overlap checks.
// Repetition cadence is not modelled: a periodic event spans from its first
// day to the open end.
func (w When) Interval() (start, end float64) {
	return w.Start, w.End
}

// ParseWhen parses "D", "D-E", "D(xR)", "D(xR/_G)" or "D(xR/_None)".
func ParseWhen(s string) (When, error) {
	s = strings.TrimSpace(s)
	w := When{Raw: s, End: OpenEnd}
	if s == "" {
		return w, fmt.Errorf("empty WHEN")
	}

	if open := strings.Index(s, RepeatOpen); open >= 0 {
		if !strings.HasSuffix(s, RepeatClose) {
			return w, fmt.Errorf("unterminated repetition in WHEN %q", s)
		}
		start, err := parseNumber(s[:open])
		if err != nil {
			return w, fmt.Errorf("WHEN start: %w", err)
		}
		inner := s[open+len(RepeatOpen) : len(s)-len(RepeatClose)]
		repsText, gapText, hasGap := strings.Cut(inner, RepeatGapSep)
		reps, err := strconv.Atoi(strings.TrimSpace(repsText))
		if err != nil {
			return w, fmt.Errorf("WHEN repetitions %q: %w", repsText, err)
		}
		w.Start, w.Periodic, w.Reps = start, true, reps
		gapText = strings.TrimSpace(gapText)
		if hasGap && gapText != "" && gapText != NoGapLiteral {
			gap, err := strconv.Atoi(gapText)
			if err != nil {
				return w, fmt.Errorf("WHEN gap %q: %w", gapText, err)
			}
			w.Gap, w.HasGap = gap, true
		}
		return w, nil
	}

	if cut := rangeCut(s); cut >= 0 {
		start, err := parseNumber(s[:cut])
		if err != nil {
			return w, fmt.Errorf("WHEN start: %w", err)
		}
		end, err := parseNumber(s[cut+1:])
		if err != nil {
			return w, fmt.Errorf("WHEN end: %w", err)
		}
		w.Start, w.End, w.HasEnd = start, end, true
		return w, nil
	}

	start, err := parseNumber(s)
	if err != nil {
		return w, fmt.Errorf("WHEN: %w", err)
	}
	w.Start = start
	return w, nil
}

// rangeCut returns the index of the '-' separating a WHEN range, or -1. A
// leading '-' is a sign and a '-' after an exponent marker belongs to the
// number.
func rangeCut(s string) int {
	for i := 1; i < len(s); i++ {
		if s[i] != RangeSep[0] {
			continue
		}
		if s[i-1] == 'e' || s[i-1] == 'E' {
			continue
		}
		return i
	}
	return -1
}

// Where is a parsed WHERE field. An empty node list with All unset still means
// every node to downstream builders.
type Where struct {
	All   bool
	Nodes []int
}

func (w Where) String() string {
	if w.All {
		return AllPlaces
	}
	return FormatNodes(w.Nodes)
}

// FormatNodes renders a node list as "[1, 2, 3]".
func FormatNodes(nodes []int) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = strconv.Itoa(n)
	}
	return "[" + strings.Join(parts, NodeListSep) + "]"
}

// ParseWhere parses "All..." or a bracketed integer list.
func ParseWhere(s string) (Where, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "All") {
		return Where{All: true}, nil
	}
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return Where{}, fmt.Errorf("WHERE %q is neither AllPlaces nor a node list", s)
	}
	inner := s[1 : len(s)-1]
	fields := strings.FieldsFunc(inner, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	nodes := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return Where{}, fmt.Errorf("WHERE node id %q: %w", f, err)
		}
		nodes = append(nodes, n)
	}
	return Where{Nodes: nodes}, nil
}

// Who is a parsed WHO field.
type Who struct {
	Steered     bool
	Coverage    float64 // fraction in [0,1]; meaningless when Steered
	Sex         string
	MinAge      *float64
	MaxAge      *float64
	Restriction string
}

// ParseWho parses the coverage token and classifies the optional tokens that
// follow it. Within each category the first token wins. A bad coverage token is
// an error diagnostic; bad age tokens are warnings and are dropped.
func ParseWho(s string) (Who, Diagnostics) {
	var who Who
	var diags Diagnostics
	tokens := strings.Split(strings.TrimSpace(s), MultiSignalSep)

	head := strings.TrimSpace(tokens[0])
	if head == Steered {
		who.Steered = true
	} else {
		pct, err := parseNumber(strings.TrimSuffix(head, PercentSuffix))
		if err != nil {
			d := Errorf(StructuralParseError, s, "coverage token %q", head)
			d.Err = err
			return who, append(diags, d)
		}
		who.Coverage = pct / 100
	}

	for _, raw := range tokens[1:] {
		tok := strings.TrimSpace(raw)
		switch {
		case tok == "", tok == Wildcard:
		case strings.HasPrefix(tok, MinAgePrefix):
			if who.MinAge != nil {
				continue
			}
			v, err := parseNumber(strings.TrimPrefix(tok, MinAgePrefix))
			if err != nil {
				diags = append(diags, Warnf(StructuralParseError, s, "min age token %q", tok))
				continue
			}
			who.MinAge = &v
		case strings.HasPrefix(tok, MaxAgePrefix):
			if who.MaxAge != nil {
				continue
			}
			v, err := parseNumber(strings.TrimPrefix(tok, MaxAgePrefix))
			if err != nil {
				diags = append(diags, Warnf(StructuralParseError, s, "max age token %q", tok))
				continue
			}
			who.MaxAge = &v
		case strings.Contains(tok, RestrictionSep):
			if who.Restriction == "" {
				who.Restriction = tok
			}
		case strings.Contains(tok, GenderMarker):
			if who.Sex == "" {
				who.Sex = tok
			}
		default:
			diags = append(diags, Warnf(StructuralParseError, s, "unrecognised WHO token %q", tok))
		}
	}
	return who, diags
}

// Pair is one key=value property restriction.
type Pair struct {
	Key   string
	Value string
}

// ParseRestriction splits "K=V[,K=V...]" into pairs. Tokens without '=' are ignored.
// The wildcard yields no pairs.
func ParseRestriction(s string) []Pair {
	s = strings.TrimSpace(s)
	if s == "" || s == Wildcard {
		return nil
	}
	var pairs []Pair
	for _, part := range strings.Split(s, RestrictionJoin) {
		k, v, ok := strings.Cut(part, RestrictionSep)
		if !ok {
			continue
		}
		pairs = append(pairs, Pair{Key: strings.TrimSpace(k), Value: strings.TrimSpace(v)})
	}
	return pairs
}

// What is a parsed WHAT field: listened-for triggers and a chain of stages.
// Each stage holds the "+"-joined terms between "=>" separators.
type What struct {
	Triggers []string
	Stages   [][]Term
}

// Last returns the final stage of the chain, or nil.
func (w What) Last() []Term {
	if len(w.Stages) == 0 {
		return nil
	}
	return w.Stages[len(w.Stages)-1]
}

func (w What) String() string {
	var b strings.Builder
	if len(w.Triggers) > 0 {
		b.WriteString(strings.Join(w.Triggers, MultiTriggerSep))
		b.WriteString(PostTriggerSep)
	}
	for i, stage := range w.Stages {
		if i > 0 {
			b.WriteString(PostDelaySep)
		}
		for j, t := range stage {
			if j > 0 {
				b.WriteString(MultiIVSep)
			}
			b.WriteString(t.String())
		}
	}
	return b.String()
}

// ParseWhat splits off the trigger prefix and parses the intervention chain.
// A term that fails to parse degrades to a bare name holding the raw text,
// reported as a warning.
func ParseWhat(s string) (What, Diagnostics) {
	var what What
	var diags Diagnostics

	body := strings.TrimSpace(s)
	if before, after, ok := CutTop(body, PostTriggerSep); ok {
		for _, t := range strings.Split(before, MultiTriggerSep) {
			if t = strings.TrimSpace(t); t != "" {
				what.Triggers = append(what.Triggers, t)
			}
		}
		body = strings.TrimSpace(after)
	}

	for _, stageText := range SplitTop(body, PostDelaySep) {
		var stage []Term
		for _, raw := range SplitTop(stageText, MultiIVSep) {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			term, err := ParseTerm(raw)
			if err != nil {
				d := Warnf(StructuralParseError, s, "intervention term %q", raw)
				d.Err = err
				diags = append(diags, d)
				term = Term{Name: raw}
			}
			stage = append(stage, term)
		}
		if len(stage) > 0 {
			what.Stages = append(what.Stages, stage)
		}
	}
	return what, diags
}

// ParsePreset recognises "name=literal" lines whose name mentions a map.
func ParsePreset(line string) (name, literal string, ok bool) {
	name, literal, found := strings.Cut(line, PresetSep)
	if !found {
		return "", "", false
	}
	name = strings.TrimSpace(name)
	if !strings.Contains(strings.ToLower(name), PresetMarker) {
		return "", "", false
	}
	return name, strings.TrimSpace(literal), true
}

func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

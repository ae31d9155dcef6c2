package encode

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"emodccdl/internal/ccdl"
	"emodccdl/internal/logging"
)

// Output is the result of one encode call.
type Output struct {
	Records     []ParameterRecord
	Presets     Presets
	Diagnostics ccdl.Diagnostics
}

// Maps returns the sparse mapping of every record, in input order.
func (o Output) Maps() []map[string]any {
	out := make([]map[string]any, len(o.Records))
	for i := range o.Records {
		out[i] = o.Records[i].Map()
	}
	return out
}

// Encode parses lines in order. Presets declared by earlier lines are visible
// in Output.Presets; bad lines are skipped with a diagnostic.
func Encode(lines []string) Output {
	timer := logging.StartTimer(logging.CategoryEncode, "encode")
	defer timer.Stop()

	out := Output{Presets: make(Presets)}
	for i, line := range lines {
		rec, diags := encodeLine(line, out.Presets)
		for _, d := range diags {
			out.Diagnostics = append(out.Diagnostics, d.At(i))
		}
		if rec != nil {
			rec.Line = i
			out.Records = append(out.Records, *rec)
		}
	}
	logging.Get(logging.CategoryEncode).Debug("encoded %d records from %d lines (%d diagnostics)",
		len(out.Records), len(lines), len(out.Diagnostics))
	return out
}

// EncodeReader reads CCDL text from r and encodes it.
func EncodeReader(r io.Reader) (Output, error) {
	lines, err := ReadLines(r)
	if err != nil {
		return Output{}, err
	}
	return Encode(lines), nil
}

// ReadLines splits r into lines without their terminators.
func ReadLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read CCDL: %w", err)
	}
	return lines, nil
}

// encodeLine encodes one line. A nil record means the line was a preset,
// blank, or rejected.
func encodeLine(line string, presets Presets) (*ParameterRecord, ccdl.Diagnostics) {
	fields := ccdl.SplitFields(line)
	if len(fields) < ccdl.MinFields {
		name, literal, ok := ccdl.ParsePreset(line)
		if !ok {
			return nil, nil
		}
		v, err := parsePresetLiteral(literal)
		if err != nil {
			d := ccdl.Errorf(ccdl.StructuralParseError, line, "preset %s", name)
			d.Err = err
			return nil, ccdl.Diagnostics{d}
		}
		presets[name] = v
		return nil, nil
	}
	if len(fields) < ccdl.EventFields {
		return nil, ccdl.Diagnostics{ccdl.Errorf(ccdl.StructuralParseError, line,
			"expected %d fields, got %d", ccdl.EventFields, len(fields))}
	}

	var diags ccdl.Diagnostics
	rec := &ParameterRecord{}

	when, err := ccdl.ParseWhen(fields[ccdl.WhenIdx])
	if err != nil {
		d := ccdl.Errorf(ccdl.StructuralParseError, line, "WHEN")
		d.Err = err
		return nil, append(diags, d)
	}
	rec.StartDay = when.Start
	if when.Periodic {
		reps := when.Reps
		rec.Reps = &reps
		if when.HasGap {
			gap := when.Gap
			rec.Gap = &gap
		}
	}
	if when.HasEnd {
		dur := when.Duration()
		rec.Duration = &dur
	}

	where, err := ccdl.ParseWhere(fields[ccdl.WhereIdx])
	if err != nil {
		d := ccdl.Errorf(ccdl.StructuralParseError, line, "WHERE")
		d.Err = err
		return nil, append(diags, d)
	}
	rec.Nodes = where.Nodes

	who, whoDiags := ccdl.ParseWho(fields[ccdl.WhoIdx])
	if who.Steered {
		return nil, append(diags, ccdl.Errorf(ccdl.UnsupportedConstruct, line, "reference-tracking coverage is not encoded"))
	}
	diags = append(diags, whoDiags...)
	if len(whoDiags.Errors()) > 0 {
		return nil, diags
	}
	rec.Frac = who.Coverage
	rec.Sex = who.Sex
	rec.MinAge = who.MinAge
	rec.MaxAge = who.MaxAge
	rec.IPs = who.Restriction

	what, whatDiags := ccdl.ParseWhat(fields[ccdl.WhatIdx])
	diags = append(diags, whatDiags...)
	if len(what.Stages) == 0 {
		return nil, append(diags, ccdl.Errorf(ccdl.StructuralParseError, line, "WHAT names no intervention"))
	}
	rec.Signal = strings.Join(what.Triggers, ccdl.MultiTriggerSep)

	for _, stage := range what.Stages {
		if len(stage) == 1 && stage[0].Name == ccdl.DelayedTerm && stage[0].HasPayload {
			rec.Delay = stage[0].Payload
		}
	}
	last := what.Last()
	rec.Multi = len(last) > 1
	for _, term := range last {
		rec.IVName = append(rec.IVName, term.Name)
		rec.Payload = append(rec.Payload, term.Payload)
	}
	if !rec.Multi && last[0].Name == ccdl.DelayedTerm {
		rec.Payload = []string{""}
	}
	return rec, diags
}

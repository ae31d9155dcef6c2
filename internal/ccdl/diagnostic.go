package ccdl

import (
	"errors"
	"fmt"
)

// Kind classifies a recoverable input problem.
type Kind int

const (
	// StructuralParseError: a line or sub-token does not match the grammar.
	StructuralParseError Kind = iota
	// UnsupportedConstruct: input that is understood but deliberately not handled (STEERED coverage).
	UnsupportedConstruct
	// FieldAccessError: an expected field is absent from a structured record.
	FieldAccessError
)

func (k Kind) String() string {
	switch k {
	case StructuralParseError:
		return "structural_parse_error"
	case UnsupportedConstruct:
		return "unsupported_construct"
	case FieldAccessError:
		return "field_access_error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Severity indicates whether the unit that produced a diagnostic was kept.
type Severity int

const (
	// SeverityWarning means a best-effort partial result was kept.
	SeverityWarning Severity = iota
	// SeverityError means the unit (line or event) was skipped.
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Diagnostic describes one problem found while transforming a single input unit.
// Index is the zero-based position of the unit (line or event) in its input.
type Diagnostic struct {
	Kind     Kind
	Severity Severity
	Index    int
	Input    string
	Message  string
	Err      error
}

func (d *Diagnostic) Error() string {
	msg := fmt.Sprintf("%s at %d: %s", d.Kind, d.Index, d.Message)
	if d.Err != nil {
		msg += ": " + d.Err.Error()
	}
	return msg
}

func (d *Diagnostic) Unwrap() error { return d.Err }

// Partial reports whether the diagnostic accompanies a kept result.
func (d *Diagnostic) Partial() bool { return d.Severity == SeverityWarning }

// Errorf builds an error-severity diagnostic.
func Errorf(kind Kind, input string, format string, args ...any) *Diagnostic {
	return &Diagnostic{Kind: kind, Severity: SeverityError, Input: input, Message: fmt.Sprintf(format, args...)}
}

// Warnf builds a warning-severity diagnostic.
func Warnf(kind Kind, input string, format string, args ...any) *Diagnostic {
	return &Diagnostic{Kind: kind, Severity: SeverityWarning, Input: input, Message: fmt.Sprintf(format, args...)}
}

// AsDiagnostic unwraps err to a *Diagnostic when it carries one.
func AsDiagnostic(err error) (*Diagnostic, bool) {
	var d *Diagnostic
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}

// At returns a copy of d positioned at index.
func (d *Diagnostic) At(index int) *Diagnostic {
	c := *d
	c.Index = index
	return &c
}

// Diagnostics is an ordered list of per-unit problems returned alongside a transform's output.
type Diagnostics []*Diagnostic

// Errors returns only the diagnostics whose unit was skipped.
func (ds Diagnostics) Errors() Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	return out
}

// Err joins all diagnostics into one error, or nil when there are none.
// Callers wanting fail-fast behaviour check it; best-effort callers ignore it.
func (ds Diagnostics) Err() error {
	if len(ds) == 0 {
		return nil
	}
	errs := make([]error, len(ds))
	for i, d := range ds {
		errs[i] = d
	}
	return errors.Join(errs...)
}

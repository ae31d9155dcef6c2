package intervention

import (
	"strings"

	"emodccdl/internal/ccdl"
)

// Decorator renders intervention records as CCDL terms. It holds the alias
// table resolved from the simulation config and an optional highlighter for
// the signal a muxer broadcasts. A Decorator is safe for concurrent use once built.
type Decorator struct {
	Registry  *Registry
	Aliases   map[string]string
	Highlight func(string) string
}

// Option configures a Decorator.
type Option func(*Decorator)

// WithRegistry replaces the default registry.
func WithRegistry(reg *Registry) Option {
	return func(d *Decorator) { d.Registry = reg }
}

// WithHighlight sets the highlighter applied to HIVMuxer signals.
func WithHighlight(fn func(string) string) Option {
	return func(d *Decorator) { d.Highlight = fn }
}

// New builds a Decorator over aliases using the default registry.
func New(aliases map[string]string, opts ...Option) *Decorator {
	d := &Decorator{Registry: DefaultRegistry(), Aliases: aliases}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Alias resolves a signal through the alias table. Unknown signals pass through.
func (d *Decorator) Alias(signal string) string {
	if v, ok := d.Aliases[signal]; ok {
		return v
	}
	return signal
}

// highlight marks s with the highlighter, when one is set.
func (d *Decorator) highlight(s string) string {
	if d.Highlight != nil {
		return d.Highlight(s)
	}
	return s
}

// Family reports the family of r's class.
func (d *Decorator) Family(r Record) Family {
	return d.Registry.Lookup(r.Class).Family
}

// Decorate renders r as [signal->]Name[(payload)].
//
// Tolerant families return the bare name together with a warning diagnostic;
// other failures return an error diagnostic and no text.
func (d *Decorator) Decorate(r Record, signal string) (string, error) {
	var b strings.Builder
	if signal != "" {
		b.WriteString(signal)
		b.WriteString(ccdl.PostTriggerSep)
	}
	b.WriteString(r.Class)

	rule := d.Registry.Lookup(r.Class)
	if rule.Render == nil {
		return b.String(), nil
	}
	tail, err := rule.Render(d, r)
	if err != nil {
		if rule.Tolerant {
			return b.String(), warnFrom(err)
		}
		return "", err
	}
	b.WriteString(tail)
	return b.String(), nil
}

func warnFrom(err error) error {
	if diag, ok := ccdl.AsDiagnostic(err); ok {
		w := *diag
		w.Severity = ccdl.SeverityWarning
		return &w
	}
	w := ccdl.Warnf(ccdl.FieldAccessError, "", "%v", err)
	w.Err = err
	return w
}

func wrap(payload string) string { return "(" + payload + ")" }

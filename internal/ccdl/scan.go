package ccdl

import (
	"fmt"
	"strings"
)

// scanTop calls fn for every occurrence of sep in s that sits outside parentheses.
// Returning false from fn stops the scan.
func scanTop(s, sep string, fn func(i int) bool) {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
			continue
		case ')':
			if depth > 0 {
				depth--
			}
			continue
		}
		if depth == 0 && strings.HasPrefix(s[i:], sep) {
			if !fn(i) {
				return
			}
			i += len(sep) - 1
		}
	}
}

// SplitTop splits s around every top-level occurrence of sep. Separators inside
// parentheses belong to a payload and are left alone.
func SplitTop(s, sep string) []string {
	var parts []string
	last := 0
	scanTop(s, sep, func(i int) bool {
		parts = append(parts, s[last:i])
		last = i + len(sep)
		return true
	})
	return append(parts, s[last:])
}

// CutTop slices s around the first top-level occurrence of sep.
func CutTop(s, sep string) (before, after string, found bool) {
	at := -1
	scanTop(s, sep, func(i int) bool {
		at = i
		return false
	})
	if at < 0 {
		return s, "", false
	}
	return s[:at], s[at+len(sep):], true
}

// SplitFields splits a line into its trimmed "::" fields.
func SplitFields(line string) []string {
	parts := SplitTop(strings.TrimSpace(line), FieldSepBare)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// Term is one intervention in a WHAT field: Name or Name(Payload).
type Term struct {
	Name       string
	Payload    string
	HasPayload bool
}

func (t Term) String() string {
	if !t.HasPayload {
		return t.Name
	}
	return t.Name + "(" + t.Payload + ")"
}

// ParseTerm parses "Name(Payload)" or a bare "Name". The payload is everything
// between the first '(' and its matching ')', which must end the term.
func ParseTerm(s string) (Term, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Term{}, fmt.Errorf("empty intervention term")
	}
	open := strings.IndexByte(s, '(')
	if open < 0 {
		if strings.ContainsRune(s, ')') {
			return Term{}, fmt.Errorf("unbalanced ')' in %q", s)
		}
		return Term{Name: s}, nil
	}
	if open == 0 {
		return Term{}, fmt.Errorf("missing intervention name in %q", s)
	}
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				if i != len(s)-1 {
					return Term{}, fmt.Errorf("trailing text after payload in %q", s)
				}
				return Term{
					Name:       strings.TrimSpace(s[:open]),
					Payload:    s[open+1 : i],
					HasPayload: true,
				}, nil
			}
		}
	}
	return Term{}, fmt.Errorf("unterminated payload in %q", s)
}

package depgraph

import (
	"strings"

	"emodccdl/internal/ccdl"
)

// Outbreak events are tied into the graph as if they broadcast ActivationSignal.
const (
	OutbreakMarker   = "Outbreak"
	ActivationSignal = "TBActivation"
)

// SignalFunc extracts the signals a broadcaster term emits from its payload.
type SignalFunc func(payload string) []string

// Broadcasters maps intervention names to their signal extractors.
type Broadcasters map[string]SignalFunc

// DefaultBroadcasters returns the interventions known to emit signals.
func DefaultBroadcasters() Broadcasters {
	return Broadcasters{
		"BroadcastEvent":              allSegments,
		"SimpleHealthSeekingBehavior": firstSegment,
		"DiagnosticTreatNeg":          allSegments,
	}
}

func allSegments(payload string) []string {
	var out []string
	for _, s := range strings.Split(payload, ccdl.MultiSignalSep) {
		if s = strings.TrimSpace(s); s != "" && s != ccdl.NullSignal {
			out = append(out, s)
		}
	}
	return out
}

func firstSegment(payload string) []string {
	first, _, _ := strings.Cut(payload, ccdl.MultiSignalSep)
	if first = strings.TrimSpace(first); first == "" || first == ccdl.NullSignal {
		return nil
	}
	return []string{first}
}

// Produces returns the signals emitted by the final stage of what.
func (b Broadcasters) Produces(what ccdl.What) []string {
	var out []string
	seen := make(map[string]bool)
	for _, term := range what.Last() {
		extract, ok := b[term.Name]
		if !ok || !term.HasPayload {
			continue
		}
		for _, sig := range extract(term.Payload) {
			if !seen[sig] {
				seen[sig] = true
				out = append(out, sig)
			}
		}
	}
	return out
}

// consumes returns the distinct non-empty triggers of what.
func consumes(what ccdl.What) []string {
	var out []string
	seen := make(map[string]bool)
	for _, t := range what.Triggers {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// withOutbreak appends the activation broadcast to an outbreak WHAT field.
func withOutbreak(what string) string {
	if !strings.Contains(what, OutbreakMarker) {
		return what
	}
	return what + ccdl.MultiIVSep + "BroadcastEvent(" + ActivationSignal + ")"
}

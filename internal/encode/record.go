// Package encode parses CCDL lines into sparse parameter records.
package encode

import (
	"strings"

	"emodccdl/internal/ccdl"
)

// Keys of the sparse parameter mapping.
const (
	KeyStartDay = "start_day"
	KeyReps     = "reps"
	KeyGap      = "gap"
	KeyDuration = "duration"
	KeyNodes    = "nodes"
	KeyFrac     = "frac"
	KeySex      = "sex"
	KeyMinAge   = "minage"
	KeyMaxAge   = "maxage"
	KeyIPs      = "ips"
	KeySignal   = "signal"
	KeyIVName   = "iv_name"
	KeyPayload  = "payload"
	KeyDelay    = "delay"
)

// ParameterRecord is one encoded campaign event. Optional parts are pointers
// or empty strings; Map drops them.
type ParameterRecord struct {
	Line     int // zero-based source line
	StartDay float64
	Reps     *int
	Gap      *int
	Duration *float64
	Nodes    []int // empty means every node
	Frac     float64
	Sex      string
	MinAge   *float64
	MaxAge   *float64
	IPs      string
	Signal   string

	// Multi is set when the final stage lists several interventions; IVName
	// and Payload then hold one entry per intervention.
	Multi   bool
	IVName  []string
	Payload []string
	Delay   string
}

// Name returns the intervention name, joined with "+" for a multi stage.
func (r *ParameterRecord) Name() string {
	return strings.Join(r.IVName, ccdl.MultiIVSep)
}

// Map returns the sparse mapping handed to campaign builders. start_day,
// nodes, frac and iv_name are always present.
func (r *ParameterRecord) Map() map[string]any {
	m := map[string]any{
		KeyStartDay: r.StartDay,
		KeyNodes:    nodesOrEmpty(r.Nodes),
		KeyFrac:     r.Frac,
	}
	if r.Reps != nil {
		m[KeyReps] = *r.Reps
	}
	if r.Gap != nil {
		m[KeyGap] = *r.Gap
	}
	if r.Duration != nil {
		m[KeyDuration] = *r.Duration
	}
	if r.Sex != "" {
		m[KeySex] = r.Sex
	}
	if r.MinAge != nil {
		m[KeyMinAge] = *r.MinAge
	}
	if r.MaxAge != nil {
		m[KeyMaxAge] = *r.MaxAge
	}
	if r.IPs != "" {
		m[KeyIPs] = r.IPs
	}
	if r.Signal != "" {
		m[KeySignal] = r.Signal
	}
	if r.Delay != "" {
		m[KeyDelay] = r.Delay
	}

	if r.Multi {
		m[KeyIVName] = append([]string(nil), r.IVName...)
		m[KeyPayload] = append([]string(nil), r.Payload...)
		return m
	}
	m[KeyIVName] = r.Name()
	if len(r.Payload) == 1 && r.Payload[0] != "" {
		m[KeyPayload] = r.Payload[0]
	}
	return m
}

func nodesOrEmpty(nodes []int) []int {
	if nodes == nil {
		return []int{}
	}
	return nodes
}

package encode_test

import (
	"testing"

	"emodccdl/internal/decode"
	"emodccdl/internal/encode"
	"emodccdl/internal/intervention"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Decoding then encoding a simple event keeps its start day, nodes and coverage.
func TestDecodeEncodeRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	d := decode.New(intervention.New(nil))

	properties.Property("start_day, nodes and frac survive", prop.ForAll(
		func(day int, nodes []int, percent int, signal string) bool {
			nodeset := map[string]any{"class": "NodeSetAll"}
			if len(nodes) > 0 {
				list := make([]any, len(nodes))
				for i, n := range nodes {
					list[i] = n
				}
				nodeset = map[string]any{"class": "NodeSetNodeList", "Node_List": list}
			}
			frac := float64(percent) / 100
			event := map[string]any{
				"Start_Day":      day,
				"Nodeset_Config": nodeset,
				"Event_Coordinator_Config": map[string]any{
					"class":                decode.StandardCoordinator,
					"Demographic_Coverage": frac,
					"Intervention_Config": map[string]any{
						"class":           "BroadcastEvent",
						"Broadcast_Event": signal,
					},
				},
			}

			res := d.DecodeEvent(0, event)
			if res.Err != nil {
				return false
			}
			out := encode.Encode([]string{res.Line})
			if len(out.Records) != 1 || len(out.Diagnostics) != 0 {
				return false
			}
			rec := out.Records[0]

			if rec.StartDay != float64(day) {
				return false
			}
			if len(rec.Nodes) != len(nodes) {
				return false
			}
			for i := range nodes {
				if rec.Nodes[i] != nodes[i] {
					return false
				}
			}
			diff := rec.Frac - frac
			return diff < 1e-9 && diff > -1e-9
		},
		gen.IntRange(0, 3650),
		gen.SliceOf(gen.IntRange(1, 500)),
		gen.IntRange(1, 100),
		gen.Identifier(),
	))

	properties.TestingRun(t)
}

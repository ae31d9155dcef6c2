package decode

import (
	"strings"
	"testing"

	"emodccdl/internal/ccdl"
	"emodccdl/internal/intervention"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T) *Campaign {
	t.Helper()
	c, err := LoadFile("testdata/campaign.json")
	require.NoError(t, err)
	return c
}

func collect(d *Decoder, c *Campaign) []Result {
	var out []Result
	for res := range d.Decode(c) {
		out = append(out, res)
	}
	return out
}

func TestDecodeFixture(t *testing.T) {
	d := New(intervention.New(map[string]string{"GP_EVENT_001": "Vaccinated"}))
	results := collect(d, loadFixture(t))
	require.Len(t, results, 6)

	want := []string{
		"1 :: AllPlaces :: 70.0%/Female/>15/<49/Risk=High :: PropertyValueChanger(Risk:Low)",
		"10(x3/_5) :: [1, 2] :: 100.0% :: BroadcastEvent(Vaccinated)",
		"5-105 :: AllPlaces :: 25.0%/Male/Place=Urban,Risk=Low :: Births+Vaccinated->DelayedIntervention(FIXED/30)=>BroadcastEvent(Tested)",
		"0(x2) :: AllPlaces :: STEERED :: PMTCT(0.9)+DelayedIntervention(UNIFORM/0/10)=>BroadcastEvent(Done)",
	}
	for i, line := range want {
		require.NoError(t, results[i].Err, "event %d", i)
		assert.Equal(t, i, results[i].Index)
		assert.Equal(t, line, results[i].Line, "event %d", i)
	}

	t.Run("failing event carries its source", func(t *testing.T) {
		res := results[4]
		require.Error(t, res.Err)
		assert.Empty(t, res.Line)
		diag, ok := ccdl.AsDiagnostic(res.Err)
		require.True(t, ok)
		assert.Equal(t, ccdl.FieldAccessError, diag.Kind)
		assert.Equal(t, ccdl.SeverityError, diag.Severity)
		assert.Equal(t, 4, diag.Index)
		assert.Contains(t, diag.Input, `"Target_Property_Key":"Risk"`)
	})

	t.Run("tolerant decoration keeps the line", func(t *testing.T) {
		res := results[5]
		require.NoError(t, res.Err)
		assert.Equal(t, "1 :: AllPlaces :: 100.0% :: SimpleDiagnostic", res.Line)
		require.Len(t, res.Diagnostics, 1)
		assert.True(t, res.Diagnostics[0].Partial())
		assert.Equal(t, 5, res.Diagnostics[0].Index)
	})
}

func TestDecodeLines(t *testing.T) {
	d := New(intervention.New(nil))
	lines, diags := d.Lines(loadFixture(t))
	assert.Len(t, lines, 5)
	assert.Len(t, diags.Errors(), 1)
	assert.Len(t, diags, 2)
	assert.Contains(t, lines[1], "BroadcastEvent(GP_EVENT_001)")
}

func TestDecodeStopsWhenConsumerStops(t *testing.T) {
	d := New(intervention.New(nil))
	seen := 0
	for range d.Decode(loadFixture(t)) {
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)
}

func TestDecodeTriggeredPeriodicKeepsWhen(t *testing.T) {
	c, err := Load(strings.NewReader(`{"Events":[{
		"Start_Day": 7,
		"Nodeset_Config": {"class": "NodeSetAll"},
		"Event_Coordinator_Config": {
			"class": "StandardInterventionDistributionEventCoordinator",
			"Number_Repetitions": 4,
			"Timesteps_Between_Repetitions": 30,
			"Target_Age_Min": 0,
			"Target_Age_Max": 43800,
			"Intervention_Config": {
				"class": "NodeLevelHealthTriggeredIV",
				"Trigger_Condition_List": ["NewInfection"],
				"Target_Age_Min": 5.5,
				"Duration": 10,
				"Actual_IndividualIntervention_Config": {
					"class": "MultiInterventionDistributor",
					"Intervention_List": [
						{"class": "BroadcastEvent", "Broadcast_Event": "A"},
						{"class": "MigrateIndividuals", "NodeID_To_Migrate_To": 3}
					]
				}
			}
		}
	}]}`))
	require.NoError(t, err)

	results := collect(New(intervention.New(nil)), c)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, "7(x4/_30) :: AllPlaces :: 100.0%/>5.5 :: NewInfection->BroadcastEvent(A)+MigrateIndividuals(3)", results[0].Line)
}

func TestDecodeNonObjectEvent(t *testing.T) {
	c, err := Load(strings.NewReader(`{"Events":[42]}`))
	require.NoError(t, err)
	results := collect(New(intervention.New(nil)), c)
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
}

func TestFormatFloat(t *testing.T) {
	scale := func(frac float64) float64 { return frac * 100 }
	cases := []struct {
		in   float64
		want string
	}{
		{100, "100.0"},
		{scale(0.7), "70.0"},
		{scale(0.07), "7.000000000000001"},
		{scale(0.333), "33.300000000000004"},
		{0.00001, "1e-05"},
		{1e16, "1e+16"},
		{0, "0.0"},
		{12.5, "12.5"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, formatFloat(tc.in), "%v", tc.in)
	}
}

// A plain top-level intervention decodes to exactly the decorator's output.
func TestWhatMatchesDecorator(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	dec := intervention.New(map[string]string{"GP_EVENT_000": "Aliased"})
	d := New(dec)

	signals := gen.OneGenOf(gen.Const("GP_EVENT_000"), gen.Identifier())
	ivs := gen.OneGenOf(
		signals.Map(func(s string) map[string]any {
			return map[string]any{"class": "BroadcastEvent", "Broadcast_Event": s}
		}),
		gen.Identifier().Map(func(s string) map[string]any {
			return map[string]any{"class": "PropertyValueChanger", "Target_Property_Key": "Risk", "Target_Property_Value": s}
		}),
		gen.IntRange(0, 500).Map(func(n int) map[string]any {
			return map[string]any{"class": "MigrateIndividuals", "NodeID_To_Migrate_To": n}
		}),
	)

	properties.Property("WHAT equals decorator output", prop.ForAll(
		func(day int, iv map[string]any) bool {
			event := map[string]any{
				"Start_Day":      day,
				"Nodeset_Config": map[string]any{"class": "NodeSetAll"},
				"Event_Coordinator_Config": map[string]any{
					"class":               StandardCoordinator,
					"Intervention_Config": iv,
				},
			}
			res := d.DecodeEvent(0, event)
			if res.Err != nil {
				return false
			}
			rec, err := intervention.NewRecord(iv)
			if err != nil {
				return false
			}
			want, err := dec.Decorate(rec, "")
			if err != nil {
				return false
			}
			fields := ccdl.SplitFields(res.Line)
			return len(fields) == ccdl.EventFields && fields[ccdl.WhatIdx] == want
		},
		gen.IntRange(0, 3650),
		ivs,
	))

	properties.TestingRun(t)
}

package ccdl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWhen(t *testing.T) {
	t.Run("plain day", func(t *testing.T) {
		w, err := ParseWhen("12")
		require.NoError(t, err)
		assert.Equal(t, 12.0, w.Start)
		assert.False(t, w.Periodic)
		assert.False(t, w.HasEnd)
		assert.Equal(t, OpenEnd, w.End)
	})

	t.Run("periodic with gap", func(t *testing.T) {
		w, err := ParseWhen("10(x3/_5)")
		require.NoError(t, err)
		assert.Equal(t, 10.0, w.Start)
		assert.True(t, w.Periodic)
		assert.Equal(t, 3, w.Reps)
		assert.True(t, w.HasGap)
		assert.Equal(t, 5, w.Gap)
	})

	t.Run("periodic without gap", func(t *testing.T) {
		for _, in := range []string{"10(x3)", "10(x3/_None)"} {
			w, err := ParseWhen(in)
			require.NoError(t, err, in)
			assert.Equal(t, 3, w.Reps, in)
			assert.False(t, w.HasGap, in)
		}
	})

	t.Run("range", func(t *testing.T) {
		w, err := ParseWhen("10-20")
		require.NoError(t, err)
		start, end := w.Interval()
		assert.Equal(t, 10.0, start)
		assert.Equal(t, 20.0, end)
		assert.Equal(t, 10.0, w.Duration())
	})

	t.Run("exponent start", func(t *testing.T) {
		w, err := ParseWhen("1e-5")
		require.NoError(t, err)
		assert.Equal(t, 1e-5, w.Start)
		assert.False(t, w.HasEnd)

		w, err = ParseWhen("1E-2-3e+1")
		require.NoError(t, err)
		assert.Equal(t, 0.01, w.Start)
		assert.Equal(t, 30.0, w.End)
		assert.True(t, w.HasEnd)
	})

	t.Run("periodic ignores cadence for interval", func(t *testing.T) {
		w, err := ParseWhen("30(x4/_90)")
		require.NoError(t, err)
		start, end := w.Interval()
		assert.Equal(t, 30.0, start)
		assert.Equal(t, OpenEnd, end)
	})

	t.Run("garbage", func(t *testing.T) {
		for _, in := range []string{"", "soon", "10(x3/_5", "10(xmany)", "1-later"} {
			_, err := ParseWhen(in)
			assert.Error(t, err, in)
		}
	})
}

func TestParseWhere(t *testing.T) {
	w, err := ParseWhere("AllPlaces")
	require.NoError(t, err)
	assert.True(t, w.All)
	assert.Equal(t, "AllPlaces", w.String())

	w, err = ParseWhere("[1, 2, 30]")
	require.NoError(t, err)
	assert.False(t, w.All)
	assert.Equal(t, []int{1, 2, 30}, w.Nodes)
	assert.Equal(t, "[1, 2, 30]", w.String())

	_, err = ParseWhere("[1, two]")
	assert.Error(t, err)
	_, err = ParseWhere("Somewhere")
	assert.Error(t, err)
}

func TestParseWho(t *testing.T) {
	who, diags := ParseWho("100.0%/Female/>15/<49/Risk=High")
	require.Empty(t, diags)
	assert.InDelta(t, 1.0, who.Coverage, 1e-12)
	assert.Equal(t, "Female", who.Sex)
	require.NotNil(t, who.MinAge)
	require.NotNil(t, who.MaxAge)
	assert.Equal(t, 15.0, *who.MinAge)
	assert.Equal(t, 49.0, *who.MaxAge)
	assert.Equal(t, "Risk=High", who.Restriction)

	t.Run("first match wins per category", func(t *testing.T) {
		who, _ := ParseWho("50%/>1/>2/A=1/B=2")
		assert.InDelta(t, 0.5, who.Coverage, 1e-12)
		assert.Equal(t, 1.0, *who.MinAge)
		assert.Equal(t, "A=1", who.Restriction)
	})

	t.Run("steered", func(t *testing.T) {
		who, diags := ParseWho("STEERED/Male")
		assert.Empty(t, diags)
		assert.True(t, who.Steered)
		assert.Equal(t, "Male", who.Sex)
	})

	t.Run("bad coverage is an error", func(t *testing.T) {
		_, diags := ParseWho("lots/Male")
		require.Len(t, diags, 1)
		assert.Equal(t, SeverityError, diags[0].Severity)
		assert.Equal(t, StructuralParseError, diags[0].Kind)
	})

	t.Run("bad age is a warning", func(t *testing.T) {
		who, diags := ParseWho("10%/>old")
		require.Len(t, diags, 1)
		assert.True(t, diags[0].Partial())
		assert.Nil(t, who.MinAge)
	})
}

func TestParseRestriction(t *testing.T) {
	assert.Nil(t, ParseRestriction("*"))
	assert.Nil(t, ParseRestriction(""))
	assert.Equal(t, []Pair{{"A", "1"}, {"B", "x"}}, ParseRestriction("A=1,B=x"))
}

func TestParseWhat(t *testing.T) {
	t.Run("trigger prefix and chain", func(t *testing.T) {
		what, diags := ParseWhat("Births+NewInfection->DelayedIntervention(FIXED/5)=>BroadcastEvent(Done)+PropertyValueChanger(Risk:Low)")
		require.Empty(t, diags)
		assert.Equal(t, []string{"Births", "NewInfection"}, what.Triggers)
		require.Len(t, what.Stages, 2)
		assert.Equal(t, []Term{{Name: "DelayedIntervention", Payload: "FIXED/5", HasPayload: true}}, what.Stages[0])
		assert.Equal(t, []Term{
			{Name: "BroadcastEvent", Payload: "Done", HasPayload: true},
			{Name: "PropertyValueChanger", Payload: "Risk:Low", HasPayload: true},
		}, what.Last())
		assert.Equal(t, "Births+NewInfection->DelayedIntervention(FIXED/5)=>BroadcastEvent(Done)+PropertyValueChanger(Risk:Low)", what.String())
	})

	t.Run("separators inside payload are kept", func(t *testing.T) {
		what, diags := ParseWhat("Odd(a+b=>c)")
		require.Empty(t, diags)
		require.Len(t, what.Stages, 1)
		assert.Equal(t, "a+b=>c", what.Stages[0][0].Payload)
	})

	t.Run("empty trigger list from leading arrow", func(t *testing.T) {
		what, _ := ParseWhat("->BroadcastEvent(X)")
		assert.Empty(t, what.Triggers)
		assert.Equal(t, "BroadcastEvent", what.Last()[0].Name)
	})

	t.Run("bad term degrades to bare name", func(t *testing.T) {
		what, diags := ParseWhat("Good(1)+Broken(2")
		require.Len(t, diags, 1)
		assert.True(t, diags[0].Partial())
		assert.Equal(t, []Term{{Name: "Good", Payload: "1", HasPayload: true}, {Name: "Broken(2"}}, what.Last())
	})

	t.Run("bare name", func(t *testing.T) {
		what, diags := ParseWhat("OutbreakIndividual")
		require.Empty(t, diags)
		assert.Equal(t, []Term{{Name: "OutbreakIndividual"}}, what.Last())
	})
}

func TestSplitFields(t *testing.T) {
	fields := SplitFields("1 :: AllPlaces :: 100.0% :: PropertyValueChanger(Risk:High)  ")
	assert.Equal(t, []string{"1", "AllPlaces", "100.0%", "PropertyValueChanger(Risk:High)"}, fields)
	assert.Len(t, SplitFields("just text"), 1)
}

func TestParsePreset(t *testing.T) {
	name, lit, ok := ParsePreset("RiskMap={'High': 1}")
	require.True(t, ok)
	assert.Equal(t, "RiskMap", name)
	assert.Equal(t, "{'High': 1}", lit)

	_, _, ok = ParsePreset("coverage=0.5")
	assert.False(t, ok)
	_, _, ok = ParsePreset("no equals sign")
	assert.False(t, ok)
}

func TestParseTerm(t *testing.T) {
	term, err := ParseTerm("HIVRandomChoice({\"a\":0.5})")
	require.NoError(t, err)
	assert.Equal(t, "HIVRandomChoice", term.Name)
	assert.Equal(t, "{\"a\":0.5}", term.Payload)

	term, err = ParseTerm("Nested(f(x))")
	require.NoError(t, err)
	assert.Equal(t, "f(x)", term.Payload)

	for _, bad := range []string{"", "(x)", "A(b)c", "A(b", "A)b"} {
		_, err := ParseTerm(bad)
		assert.Error(t, err, bad)
	}
}

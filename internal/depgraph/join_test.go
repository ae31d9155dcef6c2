package depgraph

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinProgramAnalyzes(t *testing.T) {
	info, err := joinProgramInfo()
	require.NoError(t, err)
	require.NotNil(t, info)
}

func TestJoinCandidates(t *testing.T) {
	events := []*event{
		{index: 0, produces: []string{"X", "Y"}},
		nil,
		{index: 2, consumes: []string{"X"}},
		{index: 3, produces: []string{"Z"}, consumes: []string{"Y", "Q"}},
	}

	edges, err := joinCandidates(events)
	require.NoError(t, err)
	sort.Slice(edges, func(i, j int) bool { return edges[i].Signal < edges[j].Signal })
	assert.Equal(t, []Edge{{From: 0, To: 2, Signal: "X"}, {From: 0, To: 3, Signal: "Y"}}, edges)
}

func TestJoinCandidatesEmpty(t *testing.T) {
	edges, err := joinCandidates([]*event{nil, {index: 1, produces: []string{"X"}}})
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestBuildAfterMalformedLine(t *testing.T) {
	g := build(t, []string{
		"1 :: AllPlaces",
		"10-30 :: AllPlaces :: 100%/A=1 :: ->BroadcastEvent(X)",
		"20-50 :: AllPlaces :: 100%/A=1 :: X->SomeIV()",
	}, Options{})
	assert.Equal(t, []Edge{{From: 1, To: 2, Signal: "X"}}, g.Edges)
	require.Len(t, g.Nodes, 2)
	assert.Equal(t, 1, g.Nodes[0].Index)
}

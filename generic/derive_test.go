package generic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/perm-engine/generic"
)

// =============================================================================
// TEST INFRASTRUCTURE
// =============================================================================

// a -> b (+10 days) -> c (+1 day); a -> d (link only); d -> e (+5 days)
func newTestDeriver(t *testing.T) *generic.Deriver {
	t.Helper()
	plus := func(n int) func(generic.Date) generic.Date {
		return func(d generic.Date) generic.Date { return d.AddDays(n) }
	}
	d, err := generic.NewDeriver(
		[]generic.Rule{
			{Name: "b", Source: "a", Target: "b", Compute: plus(10)},
			{Name: "c", Source: "b", Target: "c", Compute: plus(1)},
			{Name: "e", Source: "d", Target: "e", Compute: plus(5)},
		},
		[]generic.Link{{From: "a", To: "d"}},
	)
	require.NoError(t, err)
	return d
}

// =============================================================================
// GRAPH
// =============================================================================

func TestGraph_RejectsCycles(t *testing.T) {
	g := generic.NewGraph()
	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("b", "c"))
	require.NoError(t, g.AddEdge("a", "b"), "duplicate edges are ignored")

	err := g.AddEdge("c", "a")
	assert.ErrorIs(t, err, generic.ErrCycle)
	var cycle *generic.CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, generic.Field("c"), cycle.From)

	assert.ErrorIs(t, g.AddEdge("a", "a"), generic.ErrCycle)
	assert.Equal(t, []generic.Field{"b"}, g.Children("a"))
	assert.Equal(t, []generic.Field{"b", "c"}, g.Descendants("a"))
}

func TestNewDeriver_CycleInRules(t *testing.T) {
	_, err := generic.NewDeriver(nil, []generic.Link{{From: "x", To: "y"}, {From: "y", To: "x"}})
	assert.ErrorIs(t, err, generic.ErrCycle)
}

// =============================================================================
// TRIGGER
// =============================================================================

func TestTrigger_PropagatesDownTheChain(t *testing.T) {
	d := newTestDeriver(t)

	out := d.Trigger(generic.Dates{"a": "2024-01-01"}, nil, "a")

	assert.Equal(t, "2024-01-11", out.Dates["b"])
	assert.Equal(t, "2024-01-12", out.Dates["c"])
	assert.Equal(t, generic.Dates{"b": "2024-01-11", "c": "2024-01-12"}, out.Patch)
	assert.Equal(t, []generic.Field{"b", "c"}, out.Ownership.AutoFields())
	assert.NotContains(t, out.Dates, generic.Field("d"), "links never compute")
}

func TestTrigger_DoesNotMutateInputs(t *testing.T) {
	d := newTestDeriver(t)
	dates := generic.Dates{"a": "2024-01-01"}
	own := generic.Ownership{}

	_ = d.Trigger(dates, own, "a")

	assert.Equal(t, generic.Dates{"a": "2024-01-01"}, dates)
	assert.Empty(t, own)
}

func TestTrigger_ManualSkipped(t *testing.T) {
	d := newTestDeriver(t)
	own := generic.MarkManual(nil, "b")

	out := d.Trigger(generic.Dates{"a": "2024-01-01", "b": "2024-06-01"}, own, "a")

	assert.Equal(t, "2024-06-01", out.Dates["b"])
	assert.NotContains(t, out.Dates, generic.Field("c"), "walk stops at a manual field")
	assert.Empty(t, out.Patch)
}

func TestTrigger_CascadeClearThroughLinks(t *testing.T) {
	// GIVEN: a cleared; d is an empty unset link target; b, c, e are auto
	// WHEN: Triggering on a
	// THEN: b, c and e are written as "" and lose their auto tag

	d := newTestDeriver(t)
	dates := generic.Dates{"a": "", "b": "2024-01-11", "c": "2024-01-12", "e": "2024-02-06"}
	own := generic.NewOwnership("b", "c", "e")

	out := d.Trigger(dates, own, "a")

	assert.Equal(t, generic.Dates{"b": "", "c": "", "e": ""}, out.Patch)
	assert.Empty(t, out.Ownership.AutoFields())
}

func TestTrigger_CascadeReleasesManualChild(t *testing.T) {
	d := newTestDeriver(t)
	dates := generic.Dates{"b": "2024-06-01", "c": "2024-06-02"}
	own := generic.Ownership{"b": generic.OriginManual, "c": generic.OriginAuto}

	out := d.Trigger(dates, own, "a")

	assert.Equal(t, "2024-06-01", out.Dates["b"], "manual value survives")
	assert.Equal(t, generic.OriginUnset, out.Ownership.Of("b"))
	assert.Equal(t, "2024-06-02", out.Dates["c"], "walk stops below a kept value")
	assert.Empty(t, out.Patch)
}

func TestTrigger_MalformedTriggerActsAsClear(t *testing.T) {
	d := newTestDeriver(t)
	own := generic.NewOwnership("b")

	out := d.Trigger(generic.Dates{"a": "garbage", "b": "2024-01-11"}, own, "a")

	assert.Equal(t, "", out.Dates["b"])
}

func TestOrigin_StringRoundTrip(t *testing.T) {
	for _, o := range []generic.Origin{generic.OriginUnset, generic.OriginAuto, generic.OriginManual} {
		assert.Equal(t, o, generic.ParseOrigin(o.String()))
	}
}

func TestValidation_CollectsEverything(t *testing.T) {
	v := &generic.Validation{}
	v.Warn("x", "w1", "warning")
	assert.True(t, v.Result().Valid, "warnings never block")

	v.Error("y", "e1", "error")
	v.Error("z", "e2", "error")
	r := v.Result()

	assert.False(t, r.Valid)
	assert.Len(t, r.Errors, 2)
	assert.True(t, r.HasError("z"))
	assert.True(t, r.HasRule("w1"))
	assert.False(t, r.HasError("x"))
}

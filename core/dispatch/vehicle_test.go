package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/drt/core/model"
)

func TestVehicle_CreatedHeldAtEntry(t *testing.T) {
	n := newLineNet()
	s := newTestSimulation(t, n, Config{ShiftEnd: 500, DepotLink: "e4", DepotOffset: 10})
	addVehicle(t, s, n, "v1", at("e1", 30))
	cmd, ok := n.lastStop("v1")
	require.True(t, ok)
	assert.Equal(t, at("e1", 30), cmd.loc)
	assert.Equal(t, int64(500), int64(cmd.d.Seconds()))

	v, _ := s.Fleet().Get("v1")
	depot := v.Plan().Depot()
	assert.Equal(t, at("e4", 10), depot.Location)
	require.NotNil(t, depot.EarliestService)
	assert.Equal(t, int64(500), *depot.EarliestService)
}

func TestVehicle_AdvanceIgnoresLargeAndParkedNoise(t *testing.T) {
	n := newLineNet()
	s := newTestSimulation(t, n, Config{LargeDistance: 500})
	v := addVehicle(t, s, n, "v1", at("e0", 0))

	require.NoError(t, v.Advance(1))
	assert.Zero(t, v.Stats().TotalDistance)

	// a jump beyond the large-distance cut-off is an artefact
	n.place("v1", at("e1", 0))
	require.NoError(t, v.Advance(2))
	assert.Zero(t, v.Stats().TotalDistance)

	n.place("v1", at("e1", 40))
	require.NoError(t, v.Advance(3))
	assert.InDelta(t, 40, v.Stats().TotalDistance, 1e-9)
	assert.InDelta(t, 40, v.Stats().DeadheadDistance, 1e-9)
}

func TestVehicle_ServesStopsWithinTolerance(t *testing.T) {
	n := newLineNet()
	s := newTestSimulation(t, n, Config{})
	v := addVehicle(t, s, n, "v1", at("e0", 0))
	a := addRequest(t, s, "a", 0, at("e0", 100), at("e0", 300))
	b := addRequest(t, s, "b", 0, at("e0", 105), at("e0", 300))
	for _, r := range []*model.Request{a, b} {
		res, err := s.Fleet().Assign(0, r)
		require.NoError(t, err)
		require.True(t, res.Accepted)
	}

	n.place("v1", at("e0", 80))
	require.NoError(t, v.Advance(8))
	assert.Equal(t, model.RequestAllocated, a.State)

	// both pickups are within 20 m ahead and served in the same tick
	n.place("v1", at("e0", 90))
	require.NoError(t, v.Advance(9))
	assert.Equal(t, model.RequestOnboard, a.State)
	assert.Equal(t, model.RequestOnboard, b.State)
	assert.ElementsMatch(t, []string{"a", "b"}, v.Passengers())
	assert.Equal(t, model.BookingEngaged, v.Booking())

	// other link, same offset: not there yet
	n.place("v1", at("e1", 295))
	require.NoError(t, v.Advance(10))
	assert.Equal(t, 2, v.PassengerCount())

	n.place("v1", at("e0", 290))
	require.NoError(t, v.Advance(11))
	assert.Equal(t, model.RequestArrived, a.State)
	assert.Equal(t, model.RequestArrived, b.State)
	assert.Zero(t, v.PassengerCount())
	assert.True(t, v.Plan().OnlyDepot())
	require.NotNil(t, v.Snapshot(11).NextStop)
	assert.Equal(t, "depot", v.Snapshot(11).NextStop.Kind)
	st := v.Stats()
	assert.Equal(t, 2, st.PassengersServed)
	assert.Equal(t, int64(4), st.OccupiedTime)
	assert.LessOrEqual(t, st.SharedDistance+st.DeadheadDistance, st.TotalDistance)
}

func TestVehicle_StopIsTerminal(t *testing.T) {
	n := newLineNet()
	s := newTestSimulation(t, n, Config{})
	v := addVehicle(t, s, n, "v1", at("e0", 0))
	require.NoError(t, v.Stop(42))
	assert.Equal(t, int64(42), v.ActiveUntil())
	assert.ErrorIs(t, v.Stop(43), model.ErrInvalidTransition)
	require.NoError(t, v.Advance(44))
	snap := v.Snapshot(44)
	assert.Equal(t, "stopped", snap.StateName)
	assert.Equal(t, int64(42), snap.ActiveUntil)
}

func TestVehicle_ReleasesHoldWhenStopInsertedAhead(t *testing.T) {
	n := newLineNet()
	s := newTestSimulation(t, n, Config{})
	addVehicle(t, s, n, "v1", at("e0", 0))
	a := addRequest(t, s, "a", 0, at("e0", 800), at("e1", 500))
	res, err := s.Fleet().Assign(0, a)
	require.NoError(t, err)
	require.True(t, res.Accepted)
	cmd, _ := n.lastStop("v1")
	require.Equal(t, at("e0", 800), cmd.loc)
	holds := len(n.stops)

	b := addRequest(t, s, "b", 0, at("e0", 200), at("e0", 400))
	res, err = s.Fleet().Assign(0, b)
	require.NoError(t, err)
	require.True(t, res.Accepted)

	issued := n.stops[holds:]
	require.Len(t, issued, 2)
	assert.Equal(t, at("e0", 800), issued[0].loc)
	assert.Zero(t, issued[0].d)
	assert.Equal(t, at("e0", 200), issued[1].loc)
	assert.Positive(t, issued[1].d)
}

func TestVehicle_UnchangedHeadIssuesNoCommand(t *testing.T) {
	n := newLineNet()
	s := newTestSimulation(t, n, Config{})
	addVehicle(t, s, n, "v1", at("e0", 0))
	a := addRequest(t, s, "a", 0, at("e0", 200), at("e1", 500))
	res, err := s.Fleet().Assign(0, a)
	require.NoError(t, err)
	require.True(t, res.Accepted)
	holds := len(n.stops)

	b := addRequest(t, s, "b", 0, at("e1", 600), at("e1", 900))
	res, err = s.Fleet().Assign(0, b)
	require.NoError(t, err)
	require.True(t, res.Accepted)
	assert.Len(t, n.stops, holds)
}

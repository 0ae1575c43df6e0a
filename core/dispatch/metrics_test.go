package dispatch

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/drt/core/model"
)

func TestMetricsFollowAssignments(t *testing.T) {
	n := newLineNet()
	s := newTestSimulation(t, n, Config{Capacity: 1, ShiftEnd: 320})
	reg := prometheus.NewRegistry()
	ResetMetrics(reg)
	t.Cleanup(func() { ResetMetrics(nil) })

	addVehicle(t, s, n, "v1", at("e0", 0))
	a := addRequest(t, s, "a", 0, at("e0", 10), at("e1", 500))
	b := addRequest(t, s, "b", 0, at("e0", 20), at("e1", 400))
	for _, r := range []*model.Request{a, b} {
		_, err := s.Fleet().Assign(0, r)
		require.NoError(t, err)
	}
	s.Fleet().updateGauges()

	assert.Equal(t, 1.0, testutil.ToFloat64(requestsAssigned))
	assert.Equal(t, 1.0, testutil.ToFloat64(requestsRejected))
	assert.Equal(t, 1.0, testutil.ToFloat64(vehiclesByState.WithLabelValues(model.VehicleRunning.String())))
	assert.Equal(t, 0.0, testutil.ToFloat64(vehiclesByState.WithLabelValues(model.VehicleStopped.String())))

	n2, err := testutil.GatherAndCount(reg, "drt_assignment_latency_seconds", "drt_marginal_penalty")
	require.NoError(t, err)
	assert.Equal(t, 2, n2)
}

package metrics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordSink struct {
	count int
}

func (r *recordSink) RecordAssignment(AssignmentEvent) error {
	r.count++
	return nil
}

func (r *recordSink) RecordTrip(TripEvent) error {
	r.count++
	return nil
}

type assignOnly struct{ err error }

func (a assignOnly) RecordAssignment(AssignmentEvent) error { return a.err }

// TestMultiSink ensures events are forwarded to all sinks that support them.
func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &recordSink{}
	m := NewMultiSink(s1, s2, assignOnly{})
	require.NoError(t, m.RecordAssignment(AssignmentEvent{RequestID: "p1"}))
	require.NoError(t, m.RecordTrip(TripEvent{Kind: "pickup"}))
	require.NoError(t, m.RecordVehicleSnapshots(VehicleSnapshotEvent{}))
	assert.Equal(t, 2, s1.count)
	assert.Equal(t, 2, s2.count)
}

func TestMultiSinkStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	after := &recordSink{}
	m := NewMultiSink(assignOnly{err: boom}, after)
	err := m.RecordAssignment(AssignmentEvent{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, after.count)
}

type closingSink struct {
	assignOnly
	closed bool
}

func (c *closingSink) Close() error {
	c.closed = true
	return nil
}

type plainCloser struct {
	assignOnly
	closed *bool
}

func (p plainCloser) Close() { *p.closed = true }

func TestMultiSinkClose(t *testing.T) {
	var plain bool
	c := &closingSink{}
	m := NewMultiSink(c, plainCloser{closed: &plain}, assignOnly{})
	m.Close()
	assert.True(t, c.closed)
	assert.True(t, plain)
}

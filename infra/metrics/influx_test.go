package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/drt/core/metrics"
	"github.com/kilianp07/drt/core/model"
)

type lineServer struct {
	mu     sync.Mutex
	bodies []string
	srv    *httptest.Server
}

func newLineServer(t *testing.T) *lineServer {
	t.Helper()
	ls := &lineServer{}
	ls.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		ls.mu.Lock()
		ls.bodies = append(ls.bodies, strings.TrimSpace(string(b)))
		ls.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(ls.srv.Close)
	return ls
}

func (ls *lineServer) lines() []string {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return append([]string(nil), ls.bodies...)
}

func line(p *write.Point) string {
	return strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
}

func TestInfluxSink_RecordAssignment(t *testing.T) {
	ls := newLineServer(t)
	sink := NewInfluxSink(InfluxConfig{URL: ls.srv.URL, Token: "token", Org: "org", Bucket: "bucket", RunID: "r0"})
	defer sink.Close()
	now := time.Now()
	ev := coremetrics.AssignmentEvent{
		Tick:       42,
		RequestID:  "p1",
		VehicleID:  "v1",
		Accepted:   true,
		Penalty:    1.25,
		Marginal:   0.5,
		Candidates: 3,
		Latency:    2 * time.Millisecond,
		Time:       now,
	}
	require.NoError(t, sink.RecordAssignment(ev))

	p := write.NewPointWithMeasurement("assignment").
		AddTag("run_id", "r0").
		AddTag("request_id", "p1").
		AddTag("accepted", "true").
		AddTag("vehicle_id", "v1").
		AddField("tick", int64(42)).
		AddField("penalty", 1.25).
		AddField("marginal", 0.5).
		AddField("candidates", 3).
		AddField("latency_ms", 2.0).
		SetTime(now)
	assert.Equal(t, []string{line(p)}, ls.lines())
}

func TestInfluxSink_RecordVehicleSnapshots(t *testing.T) {
	ls := newLineServer(t)
	sink := NewInfluxSink(InfluxConfig{URL: ls.srv.URL + "/api/v2/write", Token: "t", Org: "o", Bucket: "b"})
	defer sink.Close()
	now := time.Now()
	snaps := []model.VehicleSnapshot{
		{ID: "v1", State: model.VehicleRunning, Booking: model.BookingEngaged, Passengers: 2, PlanLength: 3,
			Position: model.Location{Link: "e1", Offset: 12.5},
			Stats:    model.VehicleStats{TotalDistance: 900, SharedDistance: 100, DeadheadDistance: 600}},
		{ID: "v2", State: model.VehicleStopped, Booking: model.BookingVacant, PlanLength: 1},
	}
	require.NoError(t, sink.RecordVehicleSnapshots(coremetrics.VehicleSnapshotEvent{Tick: 60, Snapshots: snaps, Time: now}))

	lines := ls.lines()
	require.Len(t, lines, 2)
	p := write.NewPointWithMeasurement("vehicle_state").
		AddTag("vehicle_id", "v1").
		AddTag("state", "running").
		AddTag("booking", "engaged").
		AddField("tick", int64(60)).
		AddField("passengers", 2).
		AddField("plan_length", 3).
		AddField("link", "e1").
		AddField("offset", 12.5).
		AddField("distance_m", 900.0).
		AddField("shared_m", 100.0).
		AddField("deadhead_m", 600.0).
		SetTime(now)
	assert.Equal(t, line(p), lines[0])
	assert.Contains(t, lines[1], "state=stopped")
}

func TestInfluxSink_RecordTrip(t *testing.T) {
	ls := newLineServer(t)
	sink := NewInfluxSink(InfluxConfig{URL: ls.srv.URL, Token: "t", Org: "o", Bucket: "b"})
	defer sink.Close()
	now := time.Now()
	require.NoError(t, sink.RecordTrip(coremetrics.TripEvent{
		Tick: 40, RequestID: "p1", VehicleID: "v1", Kind: "dropoff", Duration: 30, Distance: 300, Time: now,
	}))
	p := write.NewPointWithMeasurement("stop_served").
		AddTag("kind", "dropoff").
		AddTag("request_id", "p1").
		AddTag("vehicle_id", "v1").
		AddField("tick", int64(40)).
		AddField("duration", int64(30)).
		AddField("distance_m", 300.0).
		SetTime(now)
	assert.Equal(t, []string{line(p)}, ls.lines())
}

func TestInfluxSink_RecordRunSummary(t *testing.T) {
	ls := newLineServer(t)
	sink := NewInfluxSink(InfluxConfig{URL: ls.srv.URL, Token: "t", Org: "o", Bucket: "b"})
	defer sink.Close()
	require.NoError(t, sink.RecordRunSummary(coremetrics.RunSummary{
		RunID: "r1", Ticks: 200, Requests: map[string]int{"arrived": 4}, Vehicles: 2, Passengers: 4, Distance: 1800, Time: time.Now(),
	}))
	lines := ls.lines()
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "run_summary,run_id=r1 "))
	assert.Contains(t, lines[0], "requests_arrived=4i")
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "tok", Org: "org", Bucket: "bucket"})
	_, isInflux := sink.(*InfluxSink)
	assert.False(t, isInflux, "expected NopSink on failing health check")
	assert.True(t, called, "health endpoint not called")
}

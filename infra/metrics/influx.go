package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/drt/core/metrics"
	"github.com/kilianp07/drt/infra/logger"
)

// InfluxConfig locates the bucket the sink writes to.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
	// RunID tags every point so several runs can share a bucket.
	RunID string `json:"run_id"`
}

// InfluxSink writes dispatch events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	runID    string
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		runID:    cfg.RunID,
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the HTTP client.
func (s *InfluxSink) Close() { s.client.Close() }

func (s *InfluxSink) point(measurement string) *write.Point {
	p := write.NewPointWithMeasurement(measurement)
	if s.runID != "" {
		p.AddTag("run_id", s.runID)
	}
	return p
}

// RecordAssignment writes the outcome of one offer.
func (s *InfluxSink) RecordAssignment(ev coremetrics.AssignmentEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := s.point("assignment").
		AddTag("request_id", ev.RequestID).
		AddTag("accepted", strconv.FormatBool(ev.Accepted))
	if ev.VehicleID != "" {
		p = p.AddTag("vehicle_id", ev.VehicleID)
	}
	p = p.AddField("tick", ev.Tick).
		AddField("penalty", round3(ev.Penalty)).
		AddField("marginal", round3(ev.Marginal)).
		AddField("candidates", ev.Candidates).
		AddField("latency_ms", round3(ev.Latency.Seconds()*1000)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordVehicleSnapshots writes one vehicle_state point per vehicle.
func (s *InfluxSink) RecordVehicleSnapshots(ev coremetrics.VehicleSnapshotEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, v := range ev.Snapshots {
		p := s.point("vehicle_state").
			AddTag("vehicle_id", v.ID).
			AddTag("state", v.State.String()).
			AddTag("booking", v.Booking.String()).
			AddField("tick", ev.Tick).
			AddField("passengers", v.Passengers).
			AddField("plan_length", v.PlanLength).
			AddField("link", v.Position.Link).
			AddField("offset", round3(v.Position.Offset)).
			AddField("distance_m", round3(v.Stats.TotalDistance)).
			AddField("shared_m", round3(v.Stats.SharedDistance)).
			AddField("deadhead_m", round3(v.Stats.DeadheadDistance)).
			SetTime(ev.Time)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordTrip writes a served pickup or dropoff.
func (s *InfluxSink) RecordTrip(ev coremetrics.TripEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := s.point("stop_served").
		AddTag("kind", ev.Kind).
		AddTag("request_id", ev.RequestID).
		AddTag("vehicle_id", ev.VehicleID).
		AddField("tick", ev.Tick).
		AddField("duration", ev.Duration).
		AddField("distance_m", round3(ev.Distance)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordRunSummary writes the end of run totals.
func (s *InfluxSink) RecordRunSummary(sum coremetrics.RunSummary) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("run_summary").
		AddTag("run_id", sum.RunID).
		AddField("ticks", sum.Ticks).
		AddField("vehicles", sum.Vehicles).
		AddField("passengers", sum.Passengers).
		AddField("distance_m", round3(sum.Distance))
	for state, n := range sum.Requests {
		p = p.AddField("requests_"+state, n)
	}
	p = p.SetTime(sum.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

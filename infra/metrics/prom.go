package metrics

import (
	coremetrics "github.com/kilianp07/drt/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records dispatch outcomes, served stops and fleet snapshots in
// Prometheus metrics.
type PromSink struct {
	offers     *prometheus.CounterVec
	candidates prometheus.Histogram
	trips      *prometheus.CounterVec
	tripTicks  *prometheus.HistogramVec
	passengers *prometheus.GaugeVec
	distance   *prometheus.GaugeVec
}

// NewPromSink registers the sink metrics on the default Prometheus
// registerer. The HTTP endpoint is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by a previous sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	offers := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "drt_offers_total",
		Help: "Requests offered to the fleet by outcome",
	}, []string{"outcome"})
	candidates := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "drt_offer_candidates",
		Help:    "Vehicles with a feasible insertion per offered request",
		Buckets: prometheus.LinearBuckets(0, 2, 10),
	})
	trips := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "drt_stops_served_total",
		Help: "Pickups and dropoffs served",
	}, []string{"kind"})
	tripTicks := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "drt_stop_duration_ticks",
		Help:    "Wait time at pickup and onboard time at dropoff",
		Buckets: prometheus.ExponentialBuckets(30, 2, 8),
	}, []string{"kind"})
	passengers := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "drt_vehicle_passengers",
		Help: "Passengers onboard at the last snapshot",
	}, []string{"vehicle_id"})
	distance := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "drt_vehicle_distance_meters",
		Help: "Cumulative distance at the last snapshot",
	}, []string{"vehicle_id", "kind"})

	var err error
	if offers, err = register(reg, offers); err != nil {
		return nil, err
	}
	if candidates, err = register(reg, candidates); err != nil {
		return nil, err
	}
	if trips, err = register(reg, trips); err != nil {
		return nil, err
	}
	if tripTicks, err = register(reg, tripTicks); err != nil {
		return nil, err
	}
	if passengers, err = register(reg, passengers); err != nil {
		return nil, err
	}
	if distance, err = register(reg, distance); err != nil {
		return nil, err
	}
	return &PromSink{
		offers:     offers,
		candidates: candidates,
		trips:      trips,
		tripTicks:  tripTicks,
		passengers: passengers,
		distance:   distance,
	}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordAssignment counts the offer outcome.
func (s *PromSink) RecordAssignment(ev coremetrics.AssignmentEvent) error {
	outcome := "rejected"
	if ev.Accepted {
		outcome = "assigned"
	}
	s.offers.WithLabelValues(outcome).Inc()
	s.candidates.Observe(float64(ev.Candidates))
	return nil
}

// RecordTrip counts a served stop.
func (s *PromSink) RecordTrip(ev coremetrics.TripEvent) error {
	s.trips.WithLabelValues(ev.Kind).Inc()
	s.tripTicks.WithLabelValues(ev.Kind).Observe(float64(ev.Duration))
	return nil
}

// RecordVehicleSnapshots refreshes the per vehicle gauges.
func (s *PromSink) RecordVehicleSnapshots(ev coremetrics.VehicleSnapshotEvent) error {
	for _, v := range ev.Snapshots {
		s.passengers.WithLabelValues(v.ID).Set(float64(v.Passengers))
		s.distance.WithLabelValues(v.ID, "total").Set(v.Stats.TotalDistance)
		s.distance.WithLabelValues(v.ID, "shared").Set(v.Stats.SharedDistance)
		s.distance.WithLabelValues(v.ID, "deadhead").Set(v.Stats.DeadheadDistance)
	}
	return nil
}

package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	insertionLatency prometheus.Histogram
	requestsAssigned prometheus.Counter
	requestsRejected prometheus.Counter
	marginalPenalty  prometheus.Histogram
	vehiclesByState  *prometheus.GaugeVec
)

// newCollectors creates new metric collectors.
func newCollectors() (prometheus.Histogram, prometheus.Counter, prometheus.Counter, prometheus.Histogram, *prometheus.GaugeVec) {
	lat := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "drt_assignment_latency_seconds",
			Help:    "Wall time spent searching the fleet for one request",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
	)
	asn := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "drt_requests_assigned_total",
			Help: "Number of requests inserted into a vehicle plan",
		},
	)
	rej := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "drt_requests_rejected_total",
			Help: "Number of requests no vehicle could serve",
		},
	)
	marg := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "drt_marginal_penalty",
			Help:    "Marginal lateness penalty of accepted requests",
			Buckets: prometheus.LinearBuckets(0, 1, 12),
		},
	)
	veh := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "drt_vehicles",
			Help: "Number of vehicles per operating state",
		},
		[]string{"state"},
	)
	return lat, asn, rej, marg, veh
}

func init() {
	insertionLatency, requestsAssigned, requestsRejected, marginalPenalty, vehiclesByState = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers dispatch metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(insertionLatency, requestsAssigned, requestsRejected, marginalPenalty, vehiclesByState)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	insertionLatency, requestsAssigned, requestsRejected, marginalPenalty, vehiclesByState = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}

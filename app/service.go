package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/drt/api/dispatch"
	"github.com/kilianp07/drt/api/gtfsrt"
	"github.com/kilianp07/drt/api/vehicles"
	"github.com/kilianp07/drt/config"
	coredispatch "github.com/kilianp07/drt/core/dispatch"
	"github.com/kilianp07/drt/core/dispatch/logging"
	"github.com/kilianp07/drt/core/events"
	coremetrics "github.com/kilianp07/drt/core/metrics"
	"github.com/kilianp07/drt/core/metrics/kpi"
	"github.com/kilianp07/drt/core/network"
	"github.com/kilianp07/drt/core/vehiclestatus"
	kpistore "github.com/kilianp07/drt/infra/kpi"
	"github.com/kilianp07/drt/infra/logger"
	"github.com/kilianp07/drt/infra/metrics"
	"github.com/kilianp07/drt/infra/mqtt"
	"github.com/kilianp07/drt/internal/eventbus"
	"github.com/kilianp07/drt/jobs/kpihistory"
	"github.com/kilianp07/drt/pkg/demand"
	"github.com/kilianp07/drt/pkg/export"
	"github.com/kilianp07/drt/simulator"
)

// Result describes a finished run.
type Result struct {
	RunID    string         `json:"run_id"`
	Ticks    int64          `json:"ticks"`
	Requests map[string]int `json:"requests"`
	Vehicles int            `json:"vehicles"`
	Files    []string       `json:"files"`
	// Truncated is set when the run hit max_ticks with vehicles still active.
	Truncated bool `json:"truncated,omitempty"`
	// DroppedEvents counts bus events no subscriber could take in time.
	DroppedEvents uint64 `json:"dropped_events,omitempty"`
}

// Service wires the dispatcher to the simulator and its adapters.
type Service struct {
	cfg    *config.Config
	log    logger.Logger
	road   *simulator.Road
	sim    *coredispatch.Simulation
	bus    *eventbus.TypedBus[events.Event]
	status *vehiclestatus.MemoryStore
	store  logging.LogStore
	sink   coremetrics.MetricsSink
	mqtt   *mqtt.PahoClient
	kpis   *kpistore.SQLiteStore
	// epoch is the wall time of tick 0.
	epoch time.Time
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	return NewWithLogger(cfg, logger.New("service"))
}

// NewWithLogger is New with an explicit logger.
func NewWithLogger(cfg *config.Config, log logger.Logger) (*Service, error) {
	traffic, err := simulator.FromConfig(cfg.Network, logger.New("simulator"))
	if err != nil {
		return nil, fmt.Errorf("simulator: %w", err)
	}
	svc := &Service{cfg: cfg, log: log, road: traffic.Road(), status: vehiclestatus.NewMemoryStore(), epoch: time.Now()}

	var sim network.Simulator = traffic
	if cfg.MQTT.Enabled {
		client, err := mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		svc.mqtt = client
		sim = mqtt.NewCommandMirror(traffic, client, logger.New("mqtt_mirror"))
	}

	svc.sim, err = coredispatch.NewSimulation(sim, cfg.Dispatch, logger.New("dispatch"))
	if err != nil {
		_ = svc.Close()
		return nil, err
	}
	svc.store, err = logging.NewStore(cfg.Logging.Module())
	if err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("decision log: %w", err)
	}
	svc.sim.SetLogStore(svc.store, cfg.Run.RunID)
	svc.sink, err = coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	svc.sim.SetMetricsSink(svc.sink, cfg.Metrics.SnapshotInterval)
	if cfg.Run.KPIStore != "" {
		svc.kpis, err = kpistore.NewSQLiteStore(cfg.Run.KPIStore)
		if err != nil {
			_ = svc.Close()
			return nil, fmt.Errorf("kpi store: %w", err)
		}
	}
	svc.bus = eventbus.NewTyped[events.Event]()
	svc.sim.SetBus(svc.bus)
	return svc, nil
}

func (s *Service) Simulation() *coredispatch.Simulation { return s.sim }
func (s *Service) Status() *vehiclestatus.MemoryStore   { return s.status }
func (s *Service) Road() *simulator.Road                { return s.road }
func (s *Service) DecisionLog() logging.LogStore        { return s.store }

// KPIHistory returns the KPI history store, or nil when none is configured.
func (s *Service) KPIHistory() kpi.Store {
	if s.kpis == nil {
		return nil
	}
	return s.kpis
}

// LoadRequests reads the demand file and registers every request. Nothing
// is registered when the file is malformed.
func (s *Service) LoadRequests(path string) (int, error) {
	recs, err := demand.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("load requests: %w", err)
	}
	for _, rec := range recs {
		if err := s.sim.AddRequest(rec.Request()); err != nil {
			return 0, err
		}
		s.status.Track(rec.ID, rec.CallTime)
	}
	s.log.Infof("loaded %d requests from %s", len(recs), path)
	return len(recs), nil
}

// Routes returns the HTTP read model mounted beside /metrics.
func (s *Service) Routes() []metrics.Route {
	return []metrics.Route{
		{Pattern: "/api/vehicles", Handler: vehicles.NewStatusHandler(s.status)},
		{Pattern: "/api/vehicles/", Handler: vehicles.NewDetailHandler(s.status, s.KPIHistory())},
		{Pattern: "/api/requests", Handler: vehicles.NewRequestHandler(s.status)},
		{Pattern: "/api/dispatch/decisions", Handler: dispatch.NewLogHandler(s.store, s.cfg.Run.APIToken)},
		{Pattern: "/api/gtfs-rt/vehicle-positions", Handler: gtfsrt.NewHandler(gtfsrt.NewFeed(s.status, s.epoch))},
	}
}

// Run ticks the simulation until the simulator has no active vehicle, the
// tick limit is reached or ctx is canceled, then writes the reports.
func (s *Service) Run(ctx context.Context) (Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	collector := metrics.StartEventCollector(ctx, s.bus, s.sink)
	consumer := vehiclestatus.Consume(ctx, s.bus, s.status)
	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr, s.Routes()...); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	res := Result{RunID: s.cfg.Run.RunID}
	var runErr error
	for !s.sim.Done() {
		if s.sim.Now() >= s.cfg.Run.MaxTicks {
			res.Truncated = true
			s.log.Warnf("stopping at max_ticks %d with vehicles still active", s.cfg.Run.MaxTicks)
			break
		}
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if _, err := s.sim.Tick(); err != nil {
			runErr = err
			break
		}
		s.status.SetVehicles(s.sim.Snapshots())
	}
	s.bus.Close()
	<-collector
	<-consumer
	if res.DroppedEvents = s.bus.Dropped(); res.DroppedEvents > 0 {
		s.log.Warnf("event bus dropped %d events, vehicle status and metrics may be incomplete", res.DroppedEvents)
	}

	res.Ticks = s.sim.Now()
	res.Requests = make(map[string]int)
	for st, n := range s.sim.Pool().Count() {
		res.Requests[st.String()] = n
	}
	res.Vehicles = s.sim.Fleet().Len()
	if runErr != nil {
		return res, fmt.Errorf("run %s: %w", res.RunID, runErr)
	}

	files, err := s.EmitReports()
	res.Files = files
	if err != nil {
		return res, err
	}
	s.recordSummary(res)
	if s.kpis != nil {
		if err := kpihistory.Record(s.kpis, res.RunID, time.Now(), s.sim.Snapshots()); err != nil {
			s.log.Errorf("kpi history: %v", err)
		}
	}
	s.log.Infof("run %s finished at tick %d: %v", res.RunID, res.Ticks, res.Requests)
	return res, nil
}

// EmitReports writes the request, vehicle and summary files.
func (s *Service) EmitReports() ([]string, error) {
	return export.WriteReports(s.cfg.Run.OutputDir, s.cfg.Run.RunID, s.sim.Pool().All(), s.sim.Snapshots())
}

func (s *Service) recordSummary(res Result) {
	rec, ok := s.sink.(coremetrics.RunSummaryRecorder)
	if !ok {
		return
	}
	sum := coremetrics.RunSummary{
		RunID:    res.RunID,
		Ticks:    res.Ticks,
		Requests: res.Requests,
		Vehicles: res.Vehicles,
		Time:     time.Now(),
	}
	for _, v := range s.sim.Snapshots() {
		sum.Passengers += v.Stats.PassengersServed
		sum.Distance += v.Stats.TotalDistance
	}
	if err := rec.RecordRunSummary(sum); err != nil {
		s.log.Errorf("run summary metrics: %v", err)
	}
}

// Close releases the stores, the metrics sinks and the broker connection.
func (s *Service) Close() error {
	var errs []error
	if s.sim != nil {
		errs = append(errs, s.sim.Close())
	} else if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	if s.kpis != nil {
		errs = append(errs, s.kpis.Close())
	}
	if s.sink != nil {
		coremetrics.Close(s.sink)
	}
	if s.mqtt != nil {
		s.mqtt.Disconnect()
	}
	return errors.Join(errs...)
}

// Package simulator is a deterministic traffic simulation used as the
// dispatcher's road network. Vehicles drive at link speed along fastest
// routes, honour hold commands in the order they were given and leave the
// network at the end of their target link once no hold is left.
package simulator

import (
	"fmt"
	"sort"
	"time"

	"github.com/kilianp07/drt/core/logger"
	"github.com/kilianp07/drt/core/model"
	"github.com/kilianp07/drt/core/network"
)

var _ network.Simulator = (*Simulator)(nil)

// Simulator advances vehicles one second per step. It is not safe for
// concurrent use.
type Simulator struct {
	road     *Road
	now      int64
	vehicles map[string]*vehicle
	ids      []string
	log      logger.Logger
}

// New creates a simulator with the given departures.
func New(road *Road, departures []Departure, log logger.Logger) (*Simulator, error) {
	s := &Simulator{road: road, vehicles: make(map[string]*vehicle, len(departures)), log: logger.OrNop(log)}
	for _, d := range departures {
		l, ok := road.links[d.Link]
		if !ok {
			return nil, fmt.Errorf("vehicle %s: unknown link %s", d.ID, d.Link)
		}
		if d.Offset < 0 || d.Offset > l.Length {
			return nil, fmt.Errorf("vehicle %s: offset %.1f outside link %s", d.ID, d.Offset, d.Link)
		}
		if d.Depart < 1 {
			return nil, fmt.Errorf("vehicle %s: depart must be at least 1", d.ID)
		}
		if _, dup := s.vehicles[d.ID]; dup {
			return nil, fmt.Errorf("vehicle %s: duplicate id", d.ID)
		}
		s.vehicles[d.ID] = &vehicle{
			id:     d.ID,
			depart: d.Depart,
			pos:    model.Location{Link: d.Link, Offset: d.Offset},
			target: d.Link,
		}
		s.ids = append(s.ids, d.ID)
	}
	sort.Strings(s.ids)
	return s, nil
}

// FromConfig builds the road and the simulator described by cfg.
func FromConfig(cfg Config, log logger.Logger) (*Simulator, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	road, err := cfg.BuildRoad()
	if err != nil {
		return nil, err
	}
	return New(road, cfg.Departures(road), log)
}

// Road returns the road network.
func (s *Simulator) Road() *Road { return s.road }

// Now returns the last simulated second.
func (s *Simulator) Now() int64 { return s.now }

// Step advances the simulation by one second. Vehicles already on the road
// move first; vehicles due at the new second are then inserted.
func (s *Simulator) Step() network.Observation {
	s.now++
	obs := network.Observation{Time: s.now}
	for _, id := range s.ids {
		v := s.vehicles[id]
		if !v.active() {
			continue
		}
		left, dropped := v.step(s.road)
		for _, loc := range dropped {
			s.log.Warnf("vehicle %s: hold at %s unreachable, dropped", id, loc)
		}
		if left {
			v.left = true
			v.leftAt = s.now
			obs.Arrived = append(obs.Arrived, id)
		}
	}
	for _, id := range s.ids {
		v := s.vehicles[id]
		if !v.departed && v.depart <= s.now {
			v.departed = true
			obs.Departed = append(obs.Departed, id)
		}
	}
	return obs
}

// Active reports whether a vehicle is on the road or still to depart.
func (s *Simulator) Active() bool {
	for _, v := range s.vehicles {
		if !v.left {
			return true
		}
	}
	return false
}

// TravelTime returns the fastest travel time in seconds.
func (s *Simulator) TravelTime(from, to model.Location) float64 { return s.road.TravelTime(from, to) }

// Distance returns the length of the fastest route in metres.
func (s *Simulator) Distance(from, to model.Location) float64 { return s.road.Distance(from, to) }

// Position returns the current position of the vehicle, or its last one
// once it left the network.
func (s *Simulator) Position(vehicleID string) model.Location {
	v, ok := s.vehicles[vehicleID]
	if !ok {
		return model.Location{}
	}
	return v.pos
}

// Reroute changes the link the vehicle heads for once its holds are served.
func (s *Simulator) Reroute(vehicleID, link string) {
	v, ok := s.vehicles[vehicleID]
	if !ok || v.left {
		s.log.Warnf("reroute: vehicle %s not on the road", vehicleID)
		return
	}
	if _, ok := s.road.links[link]; !ok {
		s.log.Warnf("reroute %s: unknown link %s", vehicleID, link)
		return
	}
	v.target = link
}

// ScheduleStop queues a hold of d at loc. A zero duration removes the first
// queued hold at loc.
func (s *Simulator) ScheduleStop(vehicleID string, loc model.Location, d time.Duration) {
	v, ok := s.vehicles[vehicleID]
	if !ok || v.left {
		s.log.Warnf("stop: vehicle %s not on the road", vehicleID)
		return
	}
	if d <= 0 {
		v.release(loc)
		return
	}
	if _, ok := s.road.links[loc.Link]; !ok {
		s.log.Warnf("stop %s: unknown link %s", vehicleID, loc.Link)
		return
	}
	v.addHold(s.road, loc, d)
}

// Holds returns the number of holds queued for the vehicle.
func (s *Simulator) Holds(vehicleID string) int {
	if v, ok := s.vehicles[vehicleID]; ok {
		return len(v.holds)
	}
	return 0
}


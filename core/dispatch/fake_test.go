package dispatch

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/kilianp07/drt/core/model"
	"github.com/kilianp07/drt/core/network"
)

// lineNet is a deterministic network where every link is a 1000 m segment
// of one straight road: link "eN" starts at N*1000 m. Vehicles drive toward
// their latest hold target at speed metres per tick.
type lineNet struct {
	speed float64
	now   int64

	pos     map[string]float64
	target  map[string]*model.Location
	route   map[string]string
	departs map[int64][]departure
	gone    map[string]bool

	reroutes []string
	stops    []stopCmd
}

type departure struct {
	id  string
	loc model.Location
}

type stopCmd struct {
	vehicle string
	loc     model.Location
	d       time.Duration
}

var _ network.Simulator = (*lineNet)(nil)

func newLineNet() *lineNet {
	return &lineNet{
		speed:   10,
		pos:     make(map[string]float64),
		target:  make(map[string]*model.Location),
		route:   make(map[string]string),
		departs: make(map[int64][]departure),
		gone:    make(map[string]bool),
	}
}

func coord(l model.Location) float64 {
	var n int
	_, _ = fmt.Sscanf(l.Link, "e%d", &n)
	return float64(n)*1000 + l.Offset
}

func loc(g float64) model.Location {
	n := int(math.Floor(g / 1000))
	return model.Location{Link: fmt.Sprintf("e%d", n), Offset: g - float64(n)*1000}
}

func at(link string, offset float64) model.Location {
	return model.Location{Link: link, Offset: offset}
}

func (n *lineNet) place(id string, l model.Location) { n.pos[id] = coord(l) }

func (n *lineNet) depart(tick int64, id string, l model.Location) {
	n.departs[tick] = append(n.departs[tick], departure{id: id, loc: l})
}

func (n *lineNet) TravelTime(from, to model.Location) float64 {
	return math.Abs(coord(to)-coord(from)) / n.speed
}

func (n *lineNet) Distance(from, to model.Location) float64 {
	return math.Abs(coord(to) - coord(from))
}

func (n *lineNet) Position(id string) model.Location { return loc(n.pos[id]) }

func (n *lineNet) Reroute(id, link string) {
	n.reroutes = append(n.reroutes, id+"->"+link)
	n.route[id] = link
}

func (n *lineNet) ScheduleStop(id string, l model.Location, d time.Duration) {
	n.stops = append(n.stops, stopCmd{vehicle: id, loc: l, d: d})
	if d == 0 {
		if t := n.target[id]; t != nil && *t == l {
			n.target[id] = nil
		}
		return
	}
	l2 := l
	n.target[id] = &l2
}

func (n *lineNet) Step() network.Observation {
	n.now++
	obs := network.Observation{Time: n.now}
	ids := make([]string, 0, len(n.pos))
	for id := range n.pos {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		g := n.pos[id]
		if n.gone[id] {
			continue
		}
		dest, ok := n.destination(id)
		if !ok {
			continue
		}
		switch d := dest - g; {
		case math.Abs(d) <= n.speed:
			n.pos[id] = dest
		case d > 0:
			n.pos[id] = g + n.speed
		default:
			n.pos[id] = g - n.speed
		}
		if n.target[id] == nil && n.pos[id] == dest {
			n.gone[id] = true
			obs.Arrived = append(obs.Arrived, id)
		}
	}
	for _, d := range n.departs[n.now] {
		n.pos[d.id] = coord(d.loc)
		obs.Departed = append(obs.Departed, d.id)
	}
	return obs
}

func (n *lineNet) destination(id string) (float64, bool) {
	if t := n.target[id]; t != nil {
		return coord(*t), true
	}
	if link, ok := n.route[id]; ok {
		return coord(at(link, 0)), true
	}
	return 0, false
}

func (n *lineNet) Active() bool {
	for id := range n.pos {
		if !n.gone[id] {
			return true
		}
	}
	for t := range n.departs {
		if t > n.now {
			return true
		}
	}
	return false
}

func (n *lineNet) lastStop(id string) (stopCmd, bool) {
	for i := len(n.stops) - 1; i >= 0; i-- {
		if n.stops[i].vehicle == id {
			return n.stops[i], true
		}
	}
	return stopCmd{}, false
}

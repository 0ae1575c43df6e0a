package simulator

import (
	"math"
	"time"

	"github.com/kilianp07/drt/core/model"
)

const (
	offsetEpsilon = 1e-6
	maxHops       = 1024
)

type hold struct {
	// requested is the location as given by the dispatcher; at is the same
	// location clamped to the link.
	requested model.Location
	at        model.Location
	remaining int64
	dwelling  bool
}

type vehicle struct {
	id     string
	depart int64
	pos    model.Location
	// target is the link whose end the vehicle drives to once every hold
	// has been served. Reaching it removes the vehicle from the network.
	target string
	holds  []hold

	departed bool
	left     bool
	leftAt   int64
}

func (v *vehicle) active() bool { return v.departed && !v.left }

func (v *vehicle) addHold(r *Road, loc model.Location, d time.Duration) {
	l, ok := r.links[loc.Link]
	if !ok {
		return
	}
	v.holds = append(v.holds, hold{
		requested: loc,
		at:        model.Location{Link: loc.Link, Offset: clamp(loc.Offset, l.Length)},
		remaining: int64(math.Ceil(d.Seconds())),
	})
}

// release removes the first hold requested at loc.
func (v *vehicle) release(loc model.Location) bool {
	for i, h := range v.holds {
		if h.requested.Link == loc.Link && math.Abs(h.requested.Offset-loc.Offset) < offsetEpsilon {
			v.holds = append(v.holds[:i], v.holds[i+1:]...)
			return true
		}
	}
	return false
}

func (v *vehicle) goal(r *Road) (*Link, float64, bool) {
	if len(v.holds) > 0 {
		h := v.holds[0]
		return r.links[h.at.Link], h.at.Offset, true
	}
	l := r.links[v.target]
	return l, l.Length, false
}

// step moves the vehicle for one second. It reports whether the vehicle
// left the network and returns the holds dropped because they could not
// be reached.
func (v *vehicle) step(r *Road) (bool, []model.Location) {
	if len(v.holds) > 0 && v.holds[0].dwelling {
		v.holds[0].remaining--
		if v.holds[0].remaining <= 0 {
			v.holds = v.holds[1:]
		}
		return false, nil
	}
	var dropped []model.Location
	budget := 1.0
	for i := 0; i < maxHops && budget > offsetEpsilon; i++ {
		cur := r.links[v.pos.Link]
		goal, offset, isHold := v.goal(r)
		if goal == cur && offset >= v.pos.Offset-offsetEpsilon {
			t := (offset - v.pos.Offset) / cur.Speed
			if t > budget {
				v.pos.Offset += cur.Speed * budget
				return false, dropped
			}
			v.pos.Offset = offset
			if !isHold {
				return true, dropped
			}
			if v.holds[0].remaining <= 0 {
				v.holds = v.holds[1:]
				budget -= t
				continue
			}
			v.holds[0].dwelling = true
			return false, dropped
		}
		next := r.next(r.nodes[cur.To], goal)
		if next == nil {
			if !isHold {
				return true, dropped
			}
			dropped = append(dropped, v.holds[0].requested)
			v.holds = v.holds[1:]
			continue
		}
		t := (cur.Length - v.pos.Offset) / cur.Speed
		if t > budget {
			v.pos.Offset += cur.Speed * budget
			return false, dropped
		}
		budget -= t
		v.pos = model.Location{Link: next.ID}
	}
	return false, dropped
}

package dispatch

import (
	"fmt"
	"math"
	"time"

	"github.com/kilianp07/drt/core/events"
	"github.com/kilianp07/drt/core/logger"
	"github.com/kilianp07/drt/core/model"
	"github.com/kilianp07/drt/core/network"
	"github.com/kilianp07/drt/internal/eventbus"
)

// env is shared by the fleet and all of its vehicles.
type env struct {
	net  network.Network
	cfg  Config
	pool *RequestPool
	log  logger.Logger
	bus  eventbus.Publisher[events.Event]
}

func (e *env) publish(ev events.Event) {
	if e.bus != nil {
		e.bus.Publish(ev)
	}
}

// Vehicle is a shared-ride vehicle and the itinerary it still has to drive.
// Its plan and states change only through Advance and through an assignment
// committed by the Fleet.
type Vehicle struct {
	id       string
	env      *env
	capacity int
	shiftEnd int64

	plan       model.Plan
	state      model.OperatingState
	booking    model.BookingStatus
	passengers []string

	last   model.Location
	parked model.Location
	target model.Stop
	aimed  bool
	ended  *int64

	stats model.VehicleStats
}

func newVehicle(id string, now int64, e *env) *Vehicle {
	pos := e.net.Position(id)
	v := &Vehicle{
		id:       id,
		env:      e,
		capacity: e.cfg.Capacity,
		shiftEnd: e.cfg.ShiftEnd,
		plan:     model.NewPlan(model.NewDepotStop(e.cfg.depot(pos), e.cfg.ShiftEnd)),
		state:    model.VehicleNotStarted,
		booking:  model.BookingParked,
		last:     pos,
		parked:   pos,
	}
	// wait at the entry position until the first booking
	e.net.ScheduleStop(id, pos, secs(v.shiftEnd-now))
	return v
}

func (v *Vehicle) ID() string                   { return v.id }
func (v *Vehicle) Capacity() int                { return v.capacity }
func (v *Vehicle) State() model.OperatingState  { return v.state }
func (v *Vehicle) Booking() model.BookingStatus { return v.booking }
func (v *Vehicle) Plan() model.Plan             { return v.plan.Clone() }
func (v *Vehicle) Stats() model.VehicleStats    { return v.stats }
func (v *Vehicle) LastPosition() model.Location { return v.last }
func (v *Vehicle) PassengerCount() int          { return len(v.passengers) }

// Passengers returns the ids of the requests currently onboard.
func (v *Vehicle) Passengers() []string {
	out := make([]string, len(v.passengers))
	copy(out, v.passengers)
	return out
}

// ActiveUntil is the tick the vehicle left service, or its shift end while
// it is still in the simulation.
func (v *Vehicle) ActiveUntil() int64 {
	if v.ended != nil {
		return *v.ended
	}
	return v.shiftEnd
}

// CurrentPosition is where plans are evaluated from. A parked vehicle is
// considered to be where it decided to park.
func (v *Vehicle) CurrentPosition() model.Location {
	if v.booking == model.BookingParked {
		return v.last
	}
	return v.env.net.Position(v.id)
}

func (v *Vehicle) trip(now int64) Trip {
	return Trip{
		Start:      v.CurrentPosition(),
		Now:        now,
		Passengers: len(v.passengers),
		Capacity:   v.capacity,
		ShiftEnd:   v.shiftEnd,
	}
}

// commit inserts the request into the plan at ins and sends the vehicle to
// its next stop.
func (v *Vehicle) commit(now int64, ins Insertion, r *model.Request) error {
	if !v.state.Dispatchable() {
		return fmt.Errorf("vehicle %s: %w: commit while %s", v.id, model.ErrInvalidTransition, v.state)
	}
	if !r.State.CanTransition(model.RequestAllocated) {
		return fmt.Errorf("request %s: %w: allocate from %s", r.ID, model.ErrInvalidTransition, r.State)
	}
	if err := v.plan.InsertPair(ins.PickupIndex, ins.DropoffIndex, r.Origin, r.Destination); err != nil {
		return fmt.Errorf("vehicle %s: %w", v.id, err)
	}
	if err := r.Allocate(); err != nil {
		return err
	}
	prevState, prevBooking := v.state, v.booking
	if v.booking == model.BookingParked {
		v.unpark()
	}
	v.booking = v.bookedStatus()
	v.state = model.VehicleRunning
	v.routeToHead()
	v.notify(now, prevState, prevBooking)
	return nil
}

// Advance updates the vehicle for tick now from its observed position: it
// accrues distance, serves the stops it reached and issues the next travel
// command.
func (v *Vehicle) Advance(now int64) error {
	if v.state == model.VehicleStopped {
		return nil
	}
	prevState, prevBooking := v.state, v.booking
	pos := v.env.net.Position(v.id)

	if pos != v.last || v.booking != model.BookingParked {
		if err := v.accrue(v.env.net.Distance(v.last, pos)); err != nil {
			return err
		}
	}
	if err := v.serve(now, pos); err != nil {
		return err
	}

	head, _ := v.plan.Head()
	if head.Kind == model.StopDepot {
		v.idle(now, head)
	} else {
		if v.booking == model.BookingParked {
			v.unpark()
		}
		v.booking = v.bookedStatus()
		v.routeToHead()
	}

	v.last = pos
	v.notify(now, prevState, prevBooking)
	return nil
}

func (v *Vehicle) accrue(d float64) error {
	if math.IsNaN(d) || d >= v.env.cfg.LargeDistance {
		v.env.log.Warnf("vehicle %s: ignoring distance increment %.1f", v.id, d)
		return nil
	}
	v.stats.TotalDistance += d
	switch n := len(v.passengers); {
	case n == 0:
		v.stats.DeadheadDistance += d
	case n >= 2:
		v.stats.SharedDistance += d
	}
	for _, id := range v.passengers {
		r, err := v.env.pool.Get(id)
		if err != nil {
			return err
		}
		r.AddDistance(d)
	}
	return nil
}

// serve processes every leading stop the vehicle is close enough to.
func (v *Vehicle) serve(now int64, pos model.Location) error {
	for {
		head, ok := v.plan.Head()
		if !ok || head.Kind == model.StopDepot || !v.reached(head, pos) {
			return nil
		}
		switch head.Kind {
		case model.StopPickup:
			if err := v.pickup(now, head.RequestID); err != nil {
				return err
			}
		case model.StopDropoff:
			if err := v.dropoff(now, head.RequestID); err != nil {
				return err
			}
		}
		v.plan.PopHead()
		v.aimed = false
	}
}

func (v *Vehicle) reached(s model.Stop, pos model.Location) bool {
	return s.Location.Link == pos.Link && s.Location.Offset-pos.Offset < v.env.cfg.StopTolerance
}

func (v *Vehicle) pickup(now int64, id string) error {
	r, err := v.env.pool.Get(id)
	if err != nil {
		return err
	}
	if len(v.passengers) >= v.capacity {
		return fmt.Errorf("vehicle %s: pickup of %s over capacity %d", v.id, id, v.capacity)
	}
	if err := r.Board(now); err != nil {
		return err
	}
	v.passengers = append(v.passengers, id)
	wait, _ := r.WaitTime()
	v.env.log.Infof("vehicle %s picked up %s at %d (%d onboard)", v.id, id, now, len(v.passengers))
	v.env.publish(events.PassengerPickedUp{At: now, RequestID: id, VehicleID: v.id, WaitTime: wait})
	return nil
}

func (v *Vehicle) dropoff(now int64, id string) error {
	r, err := v.env.pool.Get(id)
	if err != nil {
		return err
	}
	idx := -1
	for i, p := range v.passengers {
		if p == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("vehicle %s: dropoff of %s not onboard", v.id, id)
	}
	if err := r.Alight(now); err != nil {
		return err
	}
	v.passengers = append(v.passengers[:idx], v.passengers[idx+1:]...)
	travel, _ := r.TravelTime()
	v.stats.OccupiedTime += travel
	v.stats.PassengersServed++
	v.env.log.Infof("vehicle %s dropped off %s at %d (%d onboard)", v.id, id, now, len(v.passengers))
	v.env.publish(events.PassengerDroppedOff{
		At:         now,
		RequestID:  id,
		VehicleID:  v.id,
		TravelTime: travel,
		Distance:   r.ActualDistance,
	})
	return nil
}

// idle handles a plan that only holds the depot: park until the last
// moment that still allows a timely return, then drive home.
func (v *Vehicle) idle(now int64, depot model.Stop) {
	if v.state != model.VehicleRunning {
		return
	}
	tt := v.env.net.TravelTime(v.CurrentPosition(), depot.Location)
	goHome := v.shiftEnd
	if !math.IsInf(tt, 0) {
		goHome -= int64(tt)
	}
	if now < goHome {
		if v.booking != model.BookingParked {
			cur := v.env.net.Position(v.id)
			v.booking = model.BookingParked
			v.parked = model.Location{Link: cur.Link, Offset: cur.Offset + v.env.cfg.ParkOffset}
			v.env.net.ScheduleStop(v.id, v.parked, secs(goHome-now))
			v.env.log.Debugf("vehicle %s parked until %d", v.id, goHome)
		}
		return
	}
	v.unpark()
	v.state = model.VehicleGoingHome
	v.booking = model.BookingBooked
	v.env.net.Reroute(v.id, depot.Location.Link)
	v.env.log.Infof("vehicle %s returning to depot %s", v.id, depot.Location)
}

func (v *Vehicle) unpark() {
	v.env.net.ScheduleStop(v.id, v.parked, 0)
}

// routeToHead sends the vehicle to the first stop of its plan with a dwell
// on arrival. Commands are only issued when the target changes.
func (v *Vehicle) routeToHead() {
	head, ok := v.plan.Head()
	if !ok || head.Kind == model.StopDepot {
		return
	}
	if v.aimed && sameStop(v.target, head) {
		return
	}
	if v.aimed {
		// The simulator serves holds in order, the superseded one must go.
		v.env.net.ScheduleStop(v.id, v.target.Location, 0)
	}
	v.env.net.Reroute(v.id, head.Location.Link)
	v.env.net.ScheduleStop(v.id, head.Location, v.env.cfg.DwellTime())
	v.target = head
	v.aimed = true
}

func (v *Vehicle) bookedStatus() model.BookingStatus {
	if len(v.passengers) > 0 {
		return model.BookingEngaged
	}
	return model.BookingBooked
}

func (v *Vehicle) notify(now int64, prevState model.OperatingState, prevBooking model.BookingStatus) {
	if v.state == prevState && v.booking == prevBooking {
		return
	}
	v.env.publish(events.VehicleStateChanged{At: now, VehicleID: v.id, State: v.state, Booking: v.booking})
}

// Stop marks the vehicle as having left the simulation at tick now.
func (v *Vehicle) Stop(now int64) error {
	if !v.state.CanTransition(model.VehicleStopped) {
		return fmt.Errorf("vehicle %s: %w: %s -> %s", v.id, model.ErrInvalidTransition, v.state, model.VehicleStopped)
	}
	prevState := v.state
	v.state = model.VehicleStopped
	v.ended = model.Int64(now)
	v.env.log.Infof("vehicle %s stopped at %d", v.id, now)
	v.notify(now, prevState, v.booking)
	return nil
}

// Snapshot returns the reportable state of the vehicle at tick now.
func (v *Vehicle) Snapshot(now int64) model.VehicleSnapshot {
	var next *model.NextStop
	if head, ok := v.plan.Head(); ok {
		next = &model.NextStop{Kind: head.Kind.String(), RequestID: head.RequestID, Location: head.Location}
	}
	return model.VehicleSnapshot{
		ID:          v.id,
		Tick:        now,
		State:       v.state,
		Booking:     v.booking,
		StateName:   v.state.String(),
		BookingName: v.booking.String(),
		Capacity:    v.capacity,
		Passengers:  len(v.passengers),
		PlanLength:  v.plan.Len(),
		Position:    v.last,
		NextStop:    next,
		ShiftEnd:    v.shiftEnd,
		ActiveUntil: v.ActiveUntil(),
		Stats:       v.stats,
	}
}

func sameStop(a, b model.Stop) bool {
	return a.RequestID == b.RequestID && a.Kind == b.Kind && a.Location == b.Location
}

func secs(s int64) time.Duration {
	if s < 0 {
		return 0
	}
	return time.Duration(s) * time.Second
}

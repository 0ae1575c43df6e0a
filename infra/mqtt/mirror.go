package mqtt

import (
	"time"

	"github.com/kilianp07/drt/core/logger"
	"github.com/kilianp07/drt/core/model"
	coremqtt "github.com/kilianp07/drt/core/mqtt"
	"github.com/kilianp07/drt/core/network"
)

// CommandMirror forwards every call to the wrapped simulator and publishes
// the reroute and hold commands it carries. Publishing failures are logged
// and never reach the dispatcher.
type CommandMirror struct {
	network.Simulator
	pub  coremqtt.Publisher
	log  logger.Logger
	tick int64
}

// NewCommandMirror wraps sim so its commands are published on pub.
func NewCommandMirror(sim network.Simulator, pub coremqtt.Publisher, log logger.Logger) *CommandMirror {
	return &CommandMirror{Simulator: sim, pub: pub, log: logger.OrNop(log)}
}

// Step advances the wrapped simulator and remembers the tick for the
// commands issued during it.
func (m *CommandMirror) Step() network.Observation {
	obs := m.Simulator.Step()
	m.tick = obs.Time
	return obs
}

// Reroute forwards the new target link and publishes it.
func (m *CommandMirror) Reroute(vehicleID, link string) {
	m.Simulator.Reroute(vehicleID, link)
	m.publish(coremqtt.Command{VehicleID: vehicleID, Kind: coremqtt.CommandReroute, Link: link})
}

// ScheduleStop forwards the hold and publishes it.
func (m *CommandMirror) ScheduleStop(vehicleID string, loc model.Location, d time.Duration) {
	m.Simulator.ScheduleStop(vehicleID, loc, d)
	m.publish(coremqtt.HoldCommand(vehicleID, loc, d))
}

func (m *CommandMirror) publish(cmd coremqtt.Command) {
	cmd.Tick = m.tick
	if _, err := m.pub.PublishCommand(cmd); err != nil {
		m.log.Warnf("mirror %s for %s: %v", cmd.Kind, cmd.VehicleID, err)
	}
}

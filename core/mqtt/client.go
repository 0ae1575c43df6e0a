// Package mqtt declares how vehicle commands are mirrored to an external
// broker. The paho implementation lives in infra/mqtt.
package mqtt

import (
	"time"

	"github.com/kilianp07/drt/core/model"
)

// CommandKind identifies what a vehicle is told to do.
type CommandKind string

const (
	CommandReroute CommandKind = "reroute"
	CommandHold    CommandKind = "hold"
	// CommandRelease is a zero-duration hold lifting a previous one.
	CommandRelease CommandKind = "release"
)

// Command is the broker payload for one instruction sent to a vehicle.
type Command struct {
	CommandID  string      `json:"command_id"`
	VehicleID  string      `json:"vehicle_id"`
	Kind       CommandKind `json:"kind"`
	Tick       int64       `json:"tick"`
	Link       string      `json:"link"`
	Offset     float64     `json:"offset,omitempty"`
	DurationMS int64       `json:"duration_ms,omitempty"`
	Timestamp  int64       `json:"timestamp"`
}

// HoldCommand builds the command for a hold of d at loc.
func HoldCommand(vehicleID string, loc model.Location, d time.Duration) Command {
	kind := CommandHold
	if d == 0 {
		kind = CommandRelease
	}
	return Command{VehicleID: vehicleID, Kind: kind, Link: loc.Link, Offset: loc.Offset, DurationMS: d.Milliseconds()}
}

// Publisher sends commands to the broker and returns the command id used.
type Publisher interface {
	PublishCommand(cmd Command) (commandID string, err error)
}

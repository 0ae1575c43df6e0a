// Package events defines the dispatch related events emitted on the event bus.
//
// Available event types:
//   - RequestAssigned: a request was committed to a vehicle
//   - RequestRejected: no vehicle could take the request
//   - PassengerPickedUp / PassengerDroppedOff: itinerary progress
//   - VehicleStateChanged: operating state or booking status change
package events

// Package gtfsrt publishes the fleet as a GTFS-realtime VehiclePositions
// feed so passenger information systems can follow the vehicles.
package gtfsrt

import (
	"net/http"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/kilianp07/drt/core/model"
	vehiclestatus "github.com/kilianp07/drt/core/vehiclestatus"
)

const version = "2.0"

// Feed converts status snapshots to feed messages. Ticks are seconds after
// epoch.
type Feed struct {
	store vehiclestatus.Store
	epoch time.Time
}

func NewFeed(store vehiclestatus.Store, epoch time.Time) *Feed {
	return &Feed{store: store, epoch: epoch}
}

// Message builds a full dataset with one entity per vehicle on the road.
// Vehicles that have not started or have stopped are left out.
func (f *Feed) Message() *gtfsrtpb.FeedMessage {
	var latest int64
	var entities []*gtfsrtpb.FeedEntity
	for _, st := range f.store.List(vehiclestatus.Filter{}) {
		if st.State != model.VehicleRunning && st.State != model.VehicleGoingHome {
			continue
		}
		if st.Tick > latest {
			latest = st.Tick
		}
		entities = append(entities, &gtfsrtpb.FeedEntity{
			Id:      proto.String(st.ID),
			Vehicle: f.position(st.VehicleSnapshot),
		})
	}
	return &gtfsrtpb.FeedMessage{
		Header: &gtfsrtpb.FeedHeader{
			GtfsRealtimeVersion: proto.String(version),
			Incrementality:      gtfsrtpb.FeedHeader_FULL_DATASET.Enum(),
			Timestamp:           proto.Uint64(f.unix(latest)),
		},
		Entity: entities,
	}
}

func (f *Feed) position(s model.VehicleSnapshot) *gtfsrtpb.VehiclePosition {
	vp := &gtfsrtpb.VehiclePosition{
		Vehicle:         &gtfsrtpb.VehicleDescriptor{Id: proto.String(s.ID), Label: proto.String(s.ID)},
		Timestamp:       proto.Uint64(f.unix(s.Tick)),
		OccupancyStatus: occupancy(s).Enum(),
	}
	switch {
	case s.Booking == model.BookingParked:
		vp.CurrentStatus = gtfsrtpb.VehiclePosition_STOPPED_AT.Enum()
		vp.StopId = proto.String(s.Position.String())
	case s.NextStop != nil:
		vp.CurrentStatus = gtfsrtpb.VehiclePosition_IN_TRANSIT_TO.Enum()
		vp.StopId = proto.String(s.NextStop.Location.String())
	}
	return vp
}

func occupancy(s model.VehicleSnapshot) gtfsrtpb.VehiclePosition_OccupancyStatus {
	switch {
	case s.State == model.VehicleGoingHome:
		return gtfsrtpb.VehiclePosition_NOT_ACCEPTING_PASSENGERS
	case s.Passengers == 0:
		return gtfsrtpb.VehiclePosition_EMPTY
	case s.Passengers >= s.Capacity:
		return gtfsrtpb.VehiclePosition_FULL
	case 2*s.Passengers < s.Capacity:
		return gtfsrtpb.VehiclePosition_MANY_SEATS_AVAILABLE
	default:
		return gtfsrtpb.VehiclePosition_FEW_SEATS_AVAILABLE
	}
}

func (f *Feed) unix(tick int64) uint64 {
	return uint64(f.epoch.Add(time.Duration(tick) * time.Second).Unix())
}

// NewHandler serves GET /api/gtfs-rt/vehicle-positions as protobuf, or as
// JSON with ?format=json.
func NewHandler(feed *Feed) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		msg := feed.Message()
		var (
			body []byte
			err  error
		)
		if r.URL.Query().Get("format") == "json" {
			w.Header().Set("Content-Type", "application/json")
			body, err = protojson.Marshal(msg)
		} else {
			w.Header().Set("Content-Type", "application/x-protobuf")
			body, err = proto.Marshal(msg)
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_, _ = w.Write(body)
	})
}

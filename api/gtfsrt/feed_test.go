package gtfsrt

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"

	"github.com/kilianp07/drt/core/model"
	vehiclestatus "github.com/kilianp07/drt/core/vehiclestatus"
)

var epoch = time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)

func store() *vehiclestatus.MemoryStore {
	s := vehiclestatus.NewMemoryStore()
	s.SetVehicles([]model.VehicleSnapshot{
		{ID: "v1", Tick: 120, State: model.VehicleRunning, Booking: model.BookingEngaged, Capacity: 4, Passengers: 3,
			Position: model.Location{Link: "a", Offset: 10},
			NextStop: &model.NextStop{Kind: "dropoff", RequestID: "p1", Location: model.Location{Link: "b", Offset: 50}}},
		{ID: "v2", Tick: 120, State: model.VehicleRunning, Booking: model.BookingParked, Capacity: 4,
			Position: model.Location{Link: "c", Offset: 60}},
		{ID: "v3", Tick: 118, State: model.VehicleGoingHome, Booking: model.BookingBooked, Capacity: 4,
			NextStop: &model.NextStop{Kind: "depot", Location: model.Location{Link: "d"}}},
		{ID: "v4", Tick: 90, State: model.VehicleStopped, Capacity: 4},
	})
	return s
}

func TestFeedMessage(t *testing.T) {
	msg := NewFeed(store(), epoch).Message()
	assert.Equal(t, "2.0", msg.GetHeader().GetGtfsRealtimeVersion())
	assert.Equal(t, gtfsrtpb.FeedHeader_FULL_DATASET, msg.GetHeader().GetIncrementality())
	assert.Equal(t, uint64(epoch.Unix()+120), msg.GetHeader().GetTimestamp())
	require.Len(t, msg.GetEntity(), 3)

	v1 := msg.GetEntity()[0].GetVehicle()
	assert.Equal(t, "v1", v1.GetVehicle().GetId())
	assert.Equal(t, gtfsrtpb.VehiclePosition_IN_TRANSIT_TO, v1.GetCurrentStatus())
	assert.Equal(t, "b@50.0", v1.GetStopId())
	assert.Equal(t, gtfsrtpb.VehiclePosition_FEW_SEATS_AVAILABLE, v1.GetOccupancyStatus())

	v2 := msg.GetEntity()[1].GetVehicle()
	assert.Equal(t, gtfsrtpb.VehiclePosition_STOPPED_AT, v2.GetCurrentStatus())
	assert.Equal(t, "c@60.0", v2.GetStopId())
	assert.Equal(t, gtfsrtpb.VehiclePosition_EMPTY, v2.GetOccupancyStatus())

	v3 := msg.GetEntity()[2].GetVehicle()
	assert.Equal(t, gtfsrtpb.VehiclePosition_NOT_ACCEPTING_PASSENGERS, v3.GetOccupancyStatus())
	assert.Equal(t, uint64(epoch.Unix()+118), v3.GetTimestamp())
}

func TestHandlerFormats(t *testing.T) {
	h := NewHandler(NewFeed(store(), epoch))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/gtfs-rt/vehicle-positions", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/x-protobuf", rr.Header().Get("Content-Type"))
	var msg gtfsrtpb.FeedMessage
	require.NoError(t, proto.Unmarshal(rr.Body.Bytes(), &msg))
	assert.Len(t, msg.GetEntity(), 3)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/gtfs-rt/vehicle-positions?format=json", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "IN_TRANSIT_TO")

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("POST", "/api/gtfs-rt/vehicle-positions", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestEmptyFleet(t *testing.T) {
	msg := NewFeed(vehiclestatus.NewMemoryStore(), epoch).Message()
	assert.Empty(t, msg.GetEntity())
	assert.Equal(t, uint64(epoch.Unix()), msg.GetHeader().GetTimestamp())
}

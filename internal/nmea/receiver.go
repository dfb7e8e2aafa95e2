package nmea

import (
	"time"

	"gpsfeed/internal/position"
)

// PositionReceiver consumes completed positioning updates from the adapter.
//
// Each method corresponds to one update kind, and the adapter only invokes a
// method once every parameter it needs is available; callbacks never see
// partial data. Implementations are called synchronously from
// Adapter.SentenceReceived and should return quickly.
type PositionReceiver interface {
	PositionReceived(latitude, longitude *position.Coordinate)
	PositionErrorReceived(pe *position.PositionError)
	TimeReceived(t time.Time)
	HeadingReceived(h *position.Heading)
	AltitudeReceived(alt position.Altitude)
	SpeedReceived(sp position.Speed)
	ClimbReceived(c position.Climb)
	BeaconsReceived(bi *position.BeaconInformation)
}

// updateKinds is the static requirement table behind callback firing: for
// each update kind, the state keys that must all be available before the
// corresponding PositionReceiver method fires. The slice fixes the firing
// order.
var updateKinds = []struct {
	name   string
	fields []string
}{
	{"position", []string{"latitude", "longitude"}},
	{"positionError", []string{"positionError"}},
	{"time", []string{"time"}},
	{"heading", []string{"heading"}},
	{"altitude", []string{"altitude"}},
	{"speed", []string{"speed"}},
	{"climb", []string{"climb"}},
	{"beacons", []string{"beaconInformation"}},
}

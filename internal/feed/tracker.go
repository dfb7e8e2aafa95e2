package feed

import (
	"sync"
	"time"

	"gpsfeed/internal/position"
)

// Tracker is a PositionReceiver that retains the most recent value of every
// update kind, for status output and live streaming. Absent values stay nil
// in the snapshot.
type Tracker struct {
	mu sync.RWMutex

	latDeg, lonDeg   *float64
	altitudeM        *float64
	speedMPS         *float64
	climbMPS         *float64
	courseDeg        *float64
	variationDeg     *float64
	hdop, vdop, pdop *float64
	fixTime          time.Time
	satellites       []position.Satellite
	lastUpdate       time.Time
}

type TrackerSnapshot struct {
	LatDeg       *float64 `json:"lat_deg,omitempty"`
	LonDeg       *float64 `json:"lon_deg,omitempty"`
	AltitudeM    *float64 `json:"altitude_m,omitempty"`
	SpeedMPS     *float64 `json:"speed_mps,omitempty"`
	ClimbMPS     *float64 `json:"climb_mps,omitempty"`
	CourseDeg    *float64 `json:"course_deg,omitempty"`
	VariationDeg *float64 `json:"variation_deg,omitempty"`

	HDOP *float64 `json:"hdop,omitempty"`
	VDOP *float64 `json:"vdop,omitempty"`
	PDOP *float64 `json:"pdop,omitempty"`

	TimeUTC string `json:"time_utc,omitempty"`

	Satellites     []position.Satellite `json:"satellites,omitempty"`
	SatellitesUsed int                  `json:"satellites_used,omitempty"`

	LastUpdateUTC string `json:"last_update_utc,omitempty"`
}

func NewTracker() *Tracker {
	return &Tracker{}
}

func (t *Tracker) PositionReceived(lat, lon *position.Coordinate) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.latDeg = ptr(lat.Degrees)
	t.lonDeg = ptr(lon.Degrees)
	t.touch()
}

func (t *Tracker) PositionErrorReceived(pe *position.PositionError) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hdop = copyPtr(pe.HDOP)
	t.vdop = copyPtr(pe.VDOP)
	t.pdop = copyPtr(pe.PDOP)
	t.touch()
}

func (t *Tracker) TimeReceived(ts time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fixTime = ts
	t.touch()
}

func (t *Tracker) HeadingReceived(h *position.Heading) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.courseDeg = ptr(h.Course)
	if h.Variation != nil {
		t.variationDeg = ptr(h.Variation.Degrees)
	}
	t.touch()
}

func (t *Tracker) AltitudeReceived(a position.Altitude) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.altitudeM = ptr(float64(a))
	t.touch()
}

func (t *Tracker) SpeedReceived(s position.Speed) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.speedMPS = ptr(float64(s))
	t.touch()
}

func (t *Tracker) ClimbReceived(c position.Climb) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.climbMPS = ptr(float64(c))
	t.touch()
}

func (t *Tracker) BeaconsReceived(bi *position.BeaconInformation) {
	sats := make([]position.Satellite, 0, bi.Len())
	for _, s := range bi.Satellites() {
		sats = append(sats, *s)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.satellites = sats
	t.touch()
}

// touch must be called with the lock held.
func (t *Tracker) touch() { t.lastUpdate = time.Now().UTC() }

func (t *Tracker) Snapshot() TrackerSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := TrackerSnapshot{
		LatDeg:       copyPtr(t.latDeg),
		LonDeg:       copyPtr(t.lonDeg),
		AltitudeM:    copyPtr(t.altitudeM),
		SpeedMPS:     copyPtr(t.speedMPS),
		ClimbMPS:     copyPtr(t.climbMPS),
		CourseDeg:    copyPtr(t.courseDeg),
		VariationDeg: copyPtr(t.variationDeg),
		HDOP:         copyPtr(t.hdop),
		VDOP:         copyPtr(t.vdop),
		PDOP:         copyPtr(t.pdop),
	}
	if !t.fixTime.IsZero() {
		out.TimeUTC = t.fixTime.Format(time.RFC3339)
	}
	if len(t.satellites) > 0 {
		out.Satellites = append([]position.Satellite(nil), t.satellites...)
		for _, s := range t.satellites {
			if s.Used {
				out.SatellitesUsed++
			}
		}
	}
	if !t.lastUpdate.IsZero() {
		out.LastUpdateUTC = t.lastUpdate.Format(time.RFC3339Nano)
	}
	return out
}

func ptr(v float64) *float64 { return &v }

func copyPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

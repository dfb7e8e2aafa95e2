package feed

import (
	"log"
	"strconv"
	"time"

	"gpsfeed/internal/nmea"
	"gpsfeed/internal/position"
)

// MultiReceiver fans every update out to a list of receivers, in order.
type MultiReceiver struct {
	receivers []nmea.PositionReceiver
}

func NewMultiReceiver(receivers ...nmea.PositionReceiver) *MultiReceiver {
	return &MultiReceiver{receivers: receivers}
}

func (m *MultiReceiver) PositionReceived(lat, lon *position.Coordinate) {
	for _, r := range m.receivers {
		r.PositionReceived(lat, lon)
	}
}

func (m *MultiReceiver) PositionErrorReceived(pe *position.PositionError) {
	for _, r := range m.receivers {
		r.PositionErrorReceived(pe)
	}
}

func (m *MultiReceiver) TimeReceived(t time.Time) {
	for _, r := range m.receivers {
		r.TimeReceived(t)
	}
}

func (m *MultiReceiver) HeadingReceived(h *position.Heading) {
	for _, r := range m.receivers {
		r.HeadingReceived(h)
	}
}

func (m *MultiReceiver) AltitudeReceived(a position.Altitude) {
	for _, r := range m.receivers {
		r.AltitudeReceived(a)
	}
}

func (m *MultiReceiver) SpeedReceived(s position.Speed) {
	for _, r := range m.receivers {
		r.SpeedReceived(s)
	}
}

func (m *MultiReceiver) ClimbReceived(c position.Climb) {
	for _, r := range m.receivers {
		r.ClimbReceived(c)
	}
}

func (m *MultiReceiver) BeaconsReceived(bi *position.BeaconInformation) {
	for _, r := range m.receivers {
		r.BeaconsReceived(bi)
	}
}

// LogReceiver prints every update, for console diagnostics.
type LogReceiver struct{}

func (LogReceiver) PositionReceived(lat, lon *position.Coordinate) {
	log.Printf("position lat=%.6f lon=%.6f", lat.Degrees, lon.Degrees)
}

func (LogReceiver) PositionErrorReceived(pe *position.PositionError) {
	log.Printf("position error hdop=%s vdop=%s pdop=%s",
		fmtDOP(pe.HDOP), fmtDOP(pe.VDOP), fmtDOP(pe.PDOP))
}

func (LogReceiver) TimeReceived(t time.Time) {
	log.Printf("time %s", t.Format(time.RFC3339))
}

func (LogReceiver) HeadingReceived(h *position.Heading) {
	if h.Variation != nil {
		log.Printf("heading course=%.1f variation=%.1f", h.Course, h.Variation.Degrees)
		return
	}
	log.Printf("heading course=%.1f", h.Course)
}

func (LogReceiver) AltitudeReceived(a position.Altitude) {
	log.Printf("altitude %.1fm", float64(a))
}

func (LogReceiver) SpeedReceived(s position.Speed) {
	log.Printf("speed %.2fm/s", float64(s))
}

func (LogReceiver) ClimbReceived(c position.Climb) {
	log.Printf("climb %.2fm/s", float64(c))
}

func (LogReceiver) BeaconsReceived(bi *position.BeaconInformation) {
	used := 0
	for _, s := range bi.Satellites() {
		if s.Used {
			used++
		}
	}
	log.Printf("satellites seen=%d used=%d", bi.Len(), used)
}

func fmtDOP(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

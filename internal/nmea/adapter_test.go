package nmea

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"gpsfeed/internal/position"
)

// recordingReceiver captures every callback invocation for inspection.
type recordingReceiver struct {
	positions [][2]*position.Coordinate
	posErrs   []*position.PositionError
	times     []time.Time
	headings  []*position.Heading
	altitudes []position.Altitude
	speeds    []position.Speed
	climbs    []position.Climb
	beacons   []*position.BeaconInformation
}

func (r *recordingReceiver) PositionReceived(lat, lon *position.Coordinate) {
	r.positions = append(r.positions, [2]*position.Coordinate{lat, lon})
}
func (r *recordingReceiver) PositionErrorReceived(pe *position.PositionError) {
	r.posErrs = append(r.posErrs, pe)
}
func (r *recordingReceiver) TimeReceived(t time.Time)            { r.times = append(r.times, t) }
func (r *recordingReceiver) HeadingReceived(h *position.Heading) { r.headings = append(r.headings, h) }
func (r *recordingReceiver) AltitudeReceived(a position.Altitude) {
	r.altitudes = append(r.altitudes, a)
}
func (r *recordingReceiver) SpeedReceived(s position.Speed) { r.speeds = append(r.speeds, s) }
func (r *recordingReceiver) ClimbReceived(c position.Climb) { r.climbs = append(r.climbs, c) }
func (r *recordingReceiver) BeaconsReceived(bi *position.BeaconInformation) {
	r.beacons = append(r.beacons, bi)
}

func newTestAdapter(t *testing.T, cfg AdapterConfig) (*Adapter, *recordingReceiver) {
	t.Helper()
	rec := &recordingReceiver{}
	a, err := NewAdapter(rec, cfg)
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}
	return a, rec
}

func feed(t *testing.T, a *Adapter, payload string) {
	t.Helper()
	s, err := Decode(nmeaLine(payload))
	if err != nil {
		t.Fatalf("decode %q: %v", payload, err)
	}
	if err := a.SentenceReceived(s); err != nil {
		t.Fatalf("sentence %q: %v", payload, err)
	}
}

// rmcPayload builds a sparse GPRMC payload from the 11 schema positions.
func rmcPayload(fields ...string) string {
	padded := make([]string, 11)
	copy(padded, fields)
	return "GPRMC," + strings.Join(padded, ",")
}

func closeTo(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestAdapter_HeadingOnlySentence(t *testing.T) {
	a, rec := newTestAdapter(t, AdapterConfig{})

	feed(t, a, "GPHDT,123.4,T")

	if len(rec.headings) != 1 {
		t.Fatalf("expected 1 heading callback, got %d", len(rec.headings))
	}
	h := rec.headings[0]
	if !closeTo(h.Course, 123.4) {
		t.Fatalf("course = %v", h.Course)
	}
	if h.Variation != nil {
		t.Fatalf("unexpected variation %+v", h.Variation)
	}
	if len(rec.positions)+len(rec.times)+len(rec.speeds)+len(rec.altitudes)+
		len(rec.posErrs)+len(rec.beacons)+len(rec.climbs) != 0 {
		t.Fatalf("unexpected extra callbacks: %+v", rec)
	}
}

func TestAdapter_GGAFullFix(t *testing.T) {
	a, rec := newTestAdapter(t, AdapterConfig{})

	feed(t, a, "GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,")

	if len(rec.positions) != 1 {
		t.Fatalf("expected 1 position callback, got %d", len(rec.positions))
	}
	lat, lon := rec.positions[0][0], rec.positions[0][1]
	if !closeTo(lat.Degrees, 48+7.038/60) {
		t.Fatalf("lat = %v", lat.Degrees)
	}
	if !closeTo(lon.Degrees, 11+31.0/60) {
		t.Fatalf("lon = %v", lon.Degrees)
	}
	if len(rec.altitudes) != 1 || !closeTo(float64(rec.altitudes[0]), 545.4) {
		t.Fatalf("altitudes = %v", rec.altitudes)
	}
	if len(rec.posErrs) != 1 || rec.posErrs[0].HDOP == nil || !closeTo(*rec.posErrs[0].HDOP, 0.9) {
		t.Fatalf("posErrs = %+v", rec.posErrs)
	}
	// Time of day without a date must not produce a time update.
	if len(rec.times) != 0 {
		t.Fatalf("unexpected time callbacks: %v", rec.times)
	}
}

func TestAdapter_RMCFullFix(t *testing.T) {
	a, rec := newTestAdapter(t, AdapterConfig{})

	feed(t, a, "GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W")

	if len(rec.positions) != 1 {
		t.Fatalf("positions = %d", len(rec.positions))
	}
	if len(rec.speeds) != 1 || !closeTo(float64(rec.speeds[0]), 22.4*position.MetersPerSecondPerKnot) {
		t.Fatalf("speeds = %v", rec.speeds)
	}
	if len(rec.headings) != 1 {
		t.Fatalf("headings = %d", len(rec.headings))
	}
	h := rec.headings[0]
	if !closeTo(h.Course, 84.4) {
		t.Fatalf("course = %v", h.Course)
	}
	if h.Variation == nil || !closeTo(h.Variation.Degrees, -3.1) {
		t.Fatalf("variation = %+v", h.Variation)
	}
	if len(rec.times) != 1 {
		t.Fatalf("times = %v", rec.times)
	}
	want := time.Date(1994, time.March, 23, 12, 35, 19, 0, time.UTC)
	if !rec.times[0].Equal(want) {
		t.Fatalf("time = %v, want %v", rec.times[0], want)
	}
}

func TestAdapter_SouthWestSigns(t *testing.T) {
	a, rec := newTestAdapter(t, AdapterConfig{})

	feed(t, a, "GPGLL,4916.45,S,12311.12,W,225444,A")

	if len(rec.positions) != 1 {
		t.Fatalf("positions = %d", len(rec.positions))
	}
	lat, lon := rec.positions[0][0], rec.positions[0][1]
	if lat.Degrees >= 0 || lon.Degrees >= 0 {
		t.Fatalf("expected negative lat/lon, got %v %v", lat.Degrees, lon.Degrees)
	}
	if !closeTo(lat.Degrees, -(49 + 16.45/60)) {
		t.Fatalf("lat = %v", lat.Degrees)
	}
}

func TestAdapter_BadHemisphereLetter(t *testing.T) {
	a, _ := newTestAdapter(t, AdapterConfig{})

	s, err := Decode(nmeaLine("GPGLL,4916.45,Q,12311.12,W,225444,A"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := a.SentenceReceived(s); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestAdapter_HeadingAccumulatesAcrossSentences(t *testing.T) {
	a, rec := newTestAdapter(t, AdapterConfig{})

	// Course only.
	feed(t, a, rmcPayload("", "A", "", "", "", "", "", "084.4"))
	// Variation only, in a later sentence.
	feed(t, a, rmcPayload("", "A", "", "", "", "", "", "", "", "003.1", "W"))

	if len(rec.headings) != 2 {
		t.Fatalf("headings = %d", len(rec.headings))
	}
	h := rec.headings[len(rec.headings)-1]
	if !closeTo(h.Course, 84.4) {
		t.Fatalf("course = %v", h.Course)
	}
	if h.Variation == nil || !closeTo(h.Variation.Degrees, -3.1) {
		t.Fatalf("variation = %+v", h.Variation)
	}
}

func TestAdapter_TimeCombinesAcrossSentences(t *testing.T) {
	a, rec := newTestAdapter(t, AdapterConfig{})

	// RMC supplies date and time together.
	feed(t, a, "GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W")
	// A later GGA supplies only a fresh time of day; the cached date carries.
	feed(t, a, "GPGGA,123520,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,")

	if len(rec.times) != 2 {
		t.Fatalf("times = %v", rec.times)
	}
	want := time.Date(1994, time.March, 23, 12, 35, 20, 0, time.UTC)
	if !rec.times[1].Equal(want) {
		t.Fatalf("time = %v, want %v", rec.times[1], want)
	}
}

func TestAdapter_FreshnessGate(t *testing.T) {
	a, rec := newTestAdapter(t, AdapterConfig{})

	feed(t, a, "GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,")
	if len(rec.positions) != 1 {
		t.Fatalf("positions = %d", len(rec.positions))
	}

	// A heading-only sentence leaves position state satisfiable but stale;
	// the position callback must not re-fire.
	feed(t, a, "GPHDT,123.4,T")

	if len(rec.positions) != 1 {
		t.Fatalf("position re-fired on stale data: %d", len(rec.positions))
	}
	if len(rec.altitudes) != 1 {
		t.Fatalf("altitude re-fired on stale data: %d", len(rec.altitudes))
	}
	if len(rec.headings) != 1 {
		t.Fatalf("headings = %d", len(rec.headings))
	}
}

func TestAdapter_DatestampPolicies(t *testing.T) {
	cases := []struct {
		name string
		cfg  AdapterConfig
		date string
		want int
	}{
		{"intelligent above threshold", AdapterConfig{}, "230394", 1994},
		{"intelligent below threshold", AdapterConfig{}, "230315", 2015},
		{"forced 19xx", AdapterConfig{DatestampPolicy: Datestamp19xx}, "230315", 1915},
		{"forced 20xx", AdapterConfig{DatestampPolicy: Datestamp20xx}, "230394", 2094},
		{"custom threshold", AdapterConfig{DateThreshold: 50}, "230365", 1965},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, rec := newTestAdapter(t, tc.cfg)
			feed(t, a, rmcPayload("123519", "A", "", "", "", "", "", "", tc.date))
			if len(rec.times) != 1 {
				t.Fatalf("times = %v", rec.times)
			}
			if got := rec.times[0].Year(); got != tc.want {
				t.Fatalf("year = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestNewAdapter_BadConfig(t *testing.T) {
	rec := &recordingReceiver{}
	if _, err := NewAdapter(rec, AdapterConfig{DatestampPolicy: DatestampPolicy(7)}); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for bad policy, got %v", err)
	}
	if _, err := NewAdapter(rec, AdapterConfig{DateThreshold: 120}); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for bad threshold, got %v", err)
	}
}

func TestAdapter_GSVAggregationWithGSA(t *testing.T) {
	a, rec := newTestAdapter(t, AdapterConfig{})

	feed(t, a, "GPGSA,A,3,19,28,14,18,27,22,31,39,,,,,1.7,1.0,1.3")
	if len(rec.posErrs) != 1 {
		t.Fatalf("posErrs = %d", len(rec.posErrs))
	}
	pe := rec.posErrs[0]
	if pe.PDOP == nil || !closeTo(*pe.PDOP, 1.7) ||
		pe.HDOP == nil || !closeTo(*pe.HDOP, 1.0) ||
		pe.VDOP == nil || !closeTo(*pe.VDOP, 1.3) {
		t.Fatalf("position error = %+v", pe)
	}

	feed(t, a, "GPGSV,3,1,11,03,03,111,00,04,15,270,00,06,01,010,00,13,06,292,00")
	feed(t, a, "GPGSV,3,2,11,14,25,170,00,16,57,208,39,18,67,296,40,19,40,246,00")
	if len(rec.beacons) != 0 {
		t.Fatalf("beacons fired before the group completed")
	}

	feed(t, a, "GPGSV,3,3,11,22,42,067,42,24,14,311,43,27,05,244,00,,,,")
	if len(rec.beacons) != 1 {
		t.Fatalf("beacons = %d", len(rec.beacons))
	}

	sats := rec.beacons[0].Satellites()
	if len(sats) != 11 {
		t.Fatalf("satellites = %d", len(sats))
	}
	used := map[int]bool{}
	for _, s := range sats {
		if s.Used {
			used[s.PRN] = true
		}
	}
	for _, prn := range []int{14, 18, 19, 22, 27} {
		if !used[prn] {
			t.Errorf("PRN %d should be marked used", prn)
		}
	}
	if len(used) != 5 {
		t.Fatalf("used set = %v", used)
	}
}

func TestAdapter_GSVSingleSentenceGroup(t *testing.T) {
	a, rec := newTestAdapter(t, AdapterConfig{})

	feed(t, a, "GPGSV,1,1,02,03,03,111,00,04,15,270,00,,,,,,,,")

	if len(rec.beacons) != 1 {
		t.Fatalf("beacons = %d", len(rec.beacons))
	}
	if got := rec.beacons[0].Len(); got != 2 {
		t.Fatalf("satellites = %d", got)
	}
}

func TestAdapter_GSVSlotSkipIsPerSlot(t *testing.T) {
	a, rec := newTestAdapter(t, AdapterConfig{})

	// Slot 1 is missing its SNR; slots 0 and 2 must still be taken.
	feed(t, a, "GPGSV,1,1,03,03,03,111,00,04,15,270,,06,01,010,31,,,,")

	if len(rec.beacons) != 1 {
		t.Fatalf("beacons = %d", len(rec.beacons))
	}
	sats := rec.beacons[0].Satellites()
	if len(sats) != 2 {
		t.Fatalf("satellites = %v", sats)
	}
	if sats[0].PRN != 3 || sats[1].PRN != 6 {
		t.Fatalf("unexpected PRNs: %d, %d", sats[0].PRN, sats[1].PRN)
	}
}

func TestAdapter_InvalidFixClearsState(t *testing.T) {
	a, rec := newTestAdapter(t, AdapterConfig{})

	// Accumulate a date+time and a partial GSV aggregation.
	feed(t, a, "GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W")
	feed(t, a, "GPGSV,3,1,11,03,03,111,00,04,15,270,00,06,01,010,00,13,06,292,00")

	// Invalid fix quality wipes everything; no callbacks fire.
	before := len(rec.positions) + len(rec.times) + len(rec.beacons)
	feed(t, a, "GPGGA,123519,4807.038,N,01131.000,E,0,08,0.9,545.4,M,46.9,M,,")
	after := len(rec.positions) + len(rec.times) + len(rec.beacons)
	if before != after {
		t.Fatalf("callbacks fired on an invalid sentence")
	}
	if len(a.state) != 0 {
		t.Fatalf("state not cleared: %v", a.state)
	}

	// The in-progress aggregation is gone: finishing the group yields only
	// the final sentence's satellites.
	feed(t, a, "GPGSV,3,3,11,22,42,067,42,24,14,311,43,27,05,244,00,,,,")
	if len(rec.beacons) != 1 {
		t.Fatalf("beacons = %d", len(rec.beacons))
	}
	if got := rec.beacons[0].Len(); got != 3 {
		t.Fatalf("satellites = %d, want only the final sentence's 3", got)
	}

	// The cached date was also wiped: a fresh time of day alone must not
	// produce a time update.
	feed(t, a, "GPGGA,123520,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,")
	if len(rec.times) != 1 {
		t.Fatalf("times = %v", rec.times)
	}
}

func TestAdapter_VoidDataModeClearsState(t *testing.T) {
	a, rec := newTestAdapter(t, AdapterConfig{})

	feed(t, a, "GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W")
	feed(t, a, rmcPayload("123520", "V"))

	if len(a.state) != 0 {
		t.Fatalf("state not cleared: %v", a.state)
	}
	if len(rec.times) != 1 {
		t.Fatalf("times = %v", rec.times)
	}
}

func TestAdapter_GSANoFixClearsState(t *testing.T) {
	a, _ := newTestAdapter(t, AdapterConfig{})

	feed(t, a, "GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,")
	feed(t, a, "GPGSA,A,1,,,,,,,,,,,,,,,")

	if len(a.state) != 0 {
		t.Fatalf("state not cleared: %v", a.state)
	}
}

func TestAdapter_ClearIsIdempotent(t *testing.T) {
	a, _ := newTestAdapter(t, AdapterConfig{})

	a.Clear()
	if len(a.state) != 0 || len(a.scratch) != 0 {
		t.Fatalf("fresh adapter not empty after Clear")
	}
	a.Clear()
	if len(a.state) != 0 || len(a.scratch) != 0 {
		t.Fatalf("second Clear not a no-op")
	}

	feed(t, a, "GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,")
	a.Clear()
	if len(a.state) != 0 {
		t.Fatalf("state survived Clear: %v", a.state)
	}
}

func TestAdapter_UnknownUnit(t *testing.T) {
	a, _ := newTestAdapter(t, AdapterConfig{})

	s, err := Decode(nmeaLine("GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,1789.0,F,46.9,M,,"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := a.SentenceReceived(s); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for unknown unit, got %v", err)
	}
}

func TestAdapter_SpeedUnitInAltitudeSlot(t *testing.T) {
	a, rec := newTestAdapter(t, AdapterConfig{})

	// "K" and "N" are valid speed units but never altitude units; they
	// must be rejected rather than converted into a Speed stored under an
	// altitude key.
	for _, payload := range []string{
		"GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,K,46.9,M,,",
		"GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,N,,",
	} {
		s, err := Decode(nmeaLine(payload))
		if err != nil {
			t.Fatalf("decode %q: %v", payload, err)
		}
		if err := a.SentenceReceived(s); !errors.Is(err, ErrConfiguration) {
			t.Fatalf("expected ErrConfiguration for %q, got %v", payload, err)
		}
	}
	if len(rec.altitudes) != 0 {
		t.Fatalf("altitude fired from a rejected sentence: %v", rec.altitudes)
	}
	if len(rec.speeds) != 0 {
		t.Fatalf("speed fired from a rejected sentence: %v", rec.speeds)
	}
}

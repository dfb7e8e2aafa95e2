// Package position holds the typed value objects produced by the NMEA
// decoding pipeline: angles, coordinates, headings, speeds, altitudes,
// dilution-of-precision figures and satellite visibility sets.
//
// Values are built with positive magnitudes and get their sign assigned in a
// second step from the hemisphere/direction field of the sentence, so the
// construction order inside the adapter does not depend on field order.
package position

import (
	"fmt"
	"sort"
)

// AngleKind says what an Angle measures.
type AngleKind int

const (
	Latitude AngleKind = iota
	Longitude
	Variation
	HeadingKind
)

func (k AngleKind) String() string {
	switch k {
	case Latitude:
		return "latitude"
	case Longitude:
		return "longitude"
	case Variation:
		return "variation"
	case HeadingKind:
		return "heading"
	default:
		return fmt.Sprintf("AngleKind(%d)", int(k))
	}
}

// Conversion factors to the canonical speed unit (meters per second).
const (
	MetersPerSecondPerKnot = 0.5144444444444444
	MetersPerSecondPerKPH  = 0.2777777777777778
)

// Angle is a signed angular value in decimal degrees.
type Angle struct {
	Kind    AngleKind
	Degrees float64
}

// NewAngle builds an angle and checks its magnitude against the kind's range.
func NewAngle(degrees float64, kind AngleKind) (*Angle, error) {
	a := &Angle{Kind: kind, Degrees: degrees}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Angle) validate() error {
	switch a.Kind {
	case Latitude:
		if a.Degrees < -90 || a.Degrees > 90 {
			return fmt.Errorf("position: latitude %v out of range", a.Degrees)
		}
	case Longitude:
		if a.Degrees < -180 || a.Degrees > 180 {
			return fmt.Errorf("position: longitude %v out of range", a.Degrees)
		}
	}
	return nil
}

// SetSign forces the sign of the angle's magnitude. sign must be -1 or 1.
func (a *Angle) SetSign(sign int) error {
	if sign != 1 && sign != -1 {
		return fmt.Errorf("position: invalid sign %d", sign)
	}
	mag := a.Degrees
	if mag < 0 {
		mag = -mag
	}
	a.Degrees = float64(sign) * mag
	return a.validate()
}

// Coordinate is a latitude or longitude angle.
type Coordinate = Angle

// NewCoordinate builds a coordinate of the given kind (Latitude or Longitude).
func NewCoordinate(degrees float64, kind AngleKind) (*Coordinate, error) {
	if kind != Latitude && kind != Longitude {
		return nil, fmt.Errorf("position: %v is not a coordinate kind", kind)
	}
	return NewAngle(degrees, kind)
}

// Heading is a course over ground plus an optional magnetic variation.
// The variation accumulates separately because course and variation may
// arrive in different sentences.
type Heading struct {
	Course    float64
	Variation *Angle
}

// SetCourse sets the true course in degrees.
func (h *Heading) SetCourse(degrees float64) { h.Course = degrees }

// SetVariation sets the magnetic variation angle.
func (h *Heading) SetVariation(v *Angle) { h.Variation = v }

// SetSign assigns the sign of the magnetic variation. Headings without a
// variation cannot take a sign.
func (h *Heading) SetSign(sign int) error {
	if h.Variation == nil {
		return fmt.Errorf("position: heading has no variation to sign")
	}
	return h.Variation.SetSign(sign)
}

// Speed is a ground speed in meters per second.
type Speed float64

// Altitude is a height in meters (above mean sea level or above the WGS84
// geoid, depending on the producing field).
type Altitude float64

// Climb is a vertical speed in meters per second.
type Climb float64

// PositionError carries the dilution-of-precision figures of a fix.
// Fields are pointers so partially known errors can accumulate across
// sentences.
type PositionError struct {
	HDOP *float64 `json:"hdop,omitempty"`
	VDOP *float64 `json:"vdop,omitempty"`
	PDOP *float64 `json:"pdop,omitempty"`
}

func (pe *PositionError) SetHDOP(v float64) { pe.HDOP = &v }
func (pe *PositionError) SetVDOP(v float64) { pe.VDOP = &v }
func (pe *PositionError) SetPDOP(v float64) { pe.PDOP = &v }

// Satellite is one visible or used satellite and its signal metrics.
type Satellite struct {
	PRN       int     `json:"prn"`
	Azimuth   float64 `json:"azimuth_deg"`
	Elevation float64 `json:"elevation_deg"`
	SNR       float64 `json:"snr_db"`
	Used      bool    `json:"used"`
}

// BeaconInformation is a set of satellites, unique by PRN.
type BeaconInformation struct {
	beacons map[int]*Satellite
}

func NewBeaconInformation() *BeaconInformation {
	return &BeaconInformation{beacons: make(map[int]*Satellite)}
}

// Add inserts or replaces the satellite with the same PRN.
func (bi *BeaconInformation) Add(s *Satellite) {
	bi.beacons[s.PRN] = s
}

// Len reports the number of distinct satellites.
func (bi *BeaconInformation) Len() int { return len(bi.beacons) }

// Merge folds other's satellites into bi. Satellites already present in bi
// keep their entry; only PRNs unknown to bi are taken from other.
func (bi *BeaconInformation) Merge(other *BeaconInformation) {
	if other == nil {
		return
	}
	for prn, s := range other.beacons {
		if _, ok := bi.beacons[prn]; !ok {
			bi.beacons[prn] = s
		}
	}
}

// MarkUsed sets each satellite's Used flag from the given PRN set.
func (bi *BeaconInformation) MarkUsed(usedPRNs map[int]bool) {
	for prn, s := range bi.beacons {
		s.Used = usedPRNs[prn]
	}
}

// Satellites returns the satellites ordered by PRN.
func (bi *BeaconInformation) Satellites() []*Satellite {
	out := make([]*Satellite, 0, len(bi.beacons))
	for _, s := range bi.beacons {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PRN < out[j].PRN })
	return out
}

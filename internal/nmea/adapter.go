package nmea

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gpsfeed/internal/position"
)

// Fix quality / data mode markers that make a sentence invalid.
const (
	ggaInvalidFix = "0"
	dataVoid      = "V"
	gsaNoFix      = "1"
)

// ErrConfiguration marks faults that indicate a misconfigured adapter or a
// corrupt field that cannot be interpreted under any configuration: an
// unknown datestamp policy, an unknown hemisphere letter, an unknown unit.
var ErrConfiguration = errors.New("nmea: configuration error")

// DatestampPolicy selects how two-digit years are resolved to a century.
type DatestampPolicy int

const (
	// DatestampIntelligent resolves years above the threshold to 19xx and
	// the rest to 20xx.
	DatestampIntelligent DatestampPolicy = iota
	// Datestamp19xx forces all years into the twentieth century.
	Datestamp19xx
	// Datestamp20xx forces all years into the twenty-first century.
	Datestamp20xx
)

// DefaultDateThreshold is the two-digit year above which
// DatestampIntelligent assumes the twentieth century.
const DefaultDateThreshold = 80

// AdapterConfig carries the per-adapter decoding policies. Multiple adapters
// with different policies can coexist.
type AdapterConfig struct {
	DatestampPolicy DatestampPolicy

	// DateThreshold overrides DefaultDateThreshold when non-zero.
	// Must satisfy 0 <= threshold < 100.
	DateThreshold int
}

// Adapter turns decoded sentences into positioning updates.
//
// It accumulates state across sentences because a single fix is assembled
// piecemeal from several sentence types, fires receiver callbacks once an
// update kind has all of its required data, and resets itself whenever a
// sentence reports an invalid fix.
//
// An Adapter is not safe for concurrent use; feed it one sentence at a time
// from a single device stream.
type Adapter struct {
	cfg      AdapterConfig
	receiver PositionReceiver

	// state maps semantic keys to typed values accumulated across
	// sentences. scratch holds the values derived from the sentence
	// currently being processed, so firing can tell fresh data from
	// carried-over state.
	state   map[string]any
	scratch map[string]any
}

// NewAdapter builds an adapter delivering updates to receiver. The
// configuration is validated here so a bad policy fails fast instead of on
// the first datestamp.
func NewAdapter(receiver PositionReceiver, cfg AdapterConfig) (*Adapter, error) {
	switch cfg.DatestampPolicy {
	case DatestampIntelligent, Datestamp19xx, Datestamp20xx:
	default:
		return nil, fmt.Errorf("%w: unknown datestamp policy %d", ErrConfiguration, cfg.DatestampPolicy)
	}
	if cfg.DateThreshold < 0 || cfg.DateThreshold >= 100 {
		return nil, fmt.Errorf("%w: date threshold %d out of range", ErrConfiguration, cfg.DateThreshold)
	}
	if cfg.DateThreshold == 0 {
		cfg.DateThreshold = DefaultDateThreshold
	}
	return &Adapter{
		cfg:      cfg,
		receiver: receiver,
		state:    make(map[string]any),
		scratch:  make(map[string]any),
	}, nil
}

// Clear resets all accumulated state, including any in-progress satellite
// aggregation. It is called internally on invalid sentences and may be used
// as an explicit reset between device streams.
func (a *Adapter) Clear() {
	a.state = make(map[string]any)
	a.scratch = make(map[string]any)
}

// SentenceReceived folds one sentence into the adapter.
//
// A sentence reporting an invalid fix wipes the accumulated state and is
// otherwise absorbed: no callbacks fire and nil is returned. A field that
// cannot be interpreted returns an error and leaves the accumulated state
// unmerged for this sentence. Otherwise the sentence's data is merged and
// every update kind that gained fresh required data fires its callback.
func (a *Adapter) SentenceReceived(s *Sentence) error {
	a.scratch = make(map[string]any)

	if a.invalidFix(s) {
		a.Clear()
	} else if err := a.applyFixers(s); err != nil {
		return err
	}

	a.mergeBeaconInformation(s)
	a.combineDateAndTime()
	for key, value := range a.scratch {
		a.state[key] = value
	}

	a.fireCallbacks()
	return nil
}

// invalidFix reports whether the sentence explicitly declares a no-fix or
// void-data condition.
func (a *Adapter) invalidFix(s *Sentence) bool {
	return s.Field("fixQuality") == ggaInvalidFix ||
		s.Field("dataMode") == dataVoid ||
		s.Field("fixType") == gsaNoFix
}

// applyFixers runs the sentence-type specific fix, then the per-field
// conversion of every present field in lexicographic order. The field order
// matters only in one respect: a coordinate's magnitude is always fixed
// before its hemisphere assigns the sign, which the schema's field names
// guarantee under lexicographic iteration.
func (a *Adapter) applyFixers(s *Sentence) error {
	switch s.Type() {
	case "GPGSV":
		if err := a.fixGSV(s); err != nil {
			return err
		}
	case "GPGSA":
		if err := a.fixGSA(s); err != nil {
			return err
		}
	}

	for _, name := range s.PresentFields() {
		if err := a.fixField(s, name); err != nil {
			return fmt.Errorf("nmea: %s field %s: %w", s.Type(), name, err)
		}
	}
	return nil
}

func (a *Adapter) fixField(s *Sentence, name string) error {
	switch name {
	case "timestamp":
		return a.fixTimestamp(s.Field(name))
	case "datestamp":
		return a.fixDatestamp(s.Field(name))

	case "latitudeFloat":
		return a.fixCoordinate(s.Field(name), position.Latitude)
	case "latitudeHemisphere":
		return a.fixHemisphereSign(s.Field(name), "latitude")
	case "longitudeFloat":
		return a.fixCoordinate(s.Field(name), position.Longitude)
	case "longitudeHemisphere":
		return a.fixHemisphereSign(s.Field(name), "longitude")

	case "altitude":
		return a.fixAltitude(s.Field(name), "altitude")
	case "altitudeUnits":
		return a.fixAltitudeUnits(s.Field(name))
	case "heightOfGeoidAboveWGS84":
		return a.fixAltitude(s.Field(name), "heightOfGeoidAboveWGS84")
	case "heightOfGeoidAboveWGS84Units":
		return a.fixAltitudeUnits(s.Field(name))

	case "speedInKnots":
		return a.fixSpeed(s.Field(name), "N")

	case "trueHeading":
		return a.fixHeadingCourse(s.Field(name))
	case "magneticVariation":
		return a.fixHeadingVariation(s.Field(name))
	case "magneticVariationDirection":
		return a.fixHemisphereSign(s.Field(name), "heading")

	case "horizontalDilutionOfPrecision":
		return a.fixDilution(s.Field(name), (*position.PositionError).SetHDOP)
	case "verticalDilutionOfPrecision":
		return a.fixDilution(s.Field(name), (*position.PositionError).SetVDOP)
	case "positionDilutionOfPrecision":
		return a.fixDilution(s.Field(name), (*position.PositionError).SetPDOP)
	}

	// Fields without a fixer (fix quality, data mode, satellite slots,
	// sequence counters) are consumed elsewhere or intentionally unused.
	return nil
}

// fixTimestamp converts HHMMSS[.fff] into a time of day. Fractional seconds
// are discarded.
func (a *Adapter) fixTimestamp(raw string) error {
	if dot := strings.IndexByte(raw, '.'); dot != -1 {
		raw = raw[:dot]
	}
	if len(raw) != 6 {
		return fmt.Errorf("bad timestamp %q", raw)
	}
	hour, err1 := strconv.Atoi(raw[0:2])
	minute, err2 := strconv.Atoi(raw[2:4])
	second, err3 := strconv.Atoi(raw[4:6])
	if err1 != nil || err2 != nil || err3 != nil ||
		hour > 23 || minute > 59 || second > 60 {
		return fmt.Errorf("bad timestamp %q", raw)
	}
	a.scratch["_time"] = timeOfDay{hour: hour, minute: minute, second: second}
	return nil
}

// fixDatestamp converts DDMMYY into a calendar date, resolving the two-digit
// year through the configured century policy.
func (a *Adapter) fixDatestamp(raw string) error {
	if len(raw) != 6 {
		return fmt.Errorf("bad datestamp %q", raw)
	}
	day, err1 := strconv.Atoi(raw[0:2])
	month, err2 := strconv.Atoi(raw[2:4])
	year, err3 := strconv.Atoi(raw[4:6])
	if err1 != nil || err2 != nil || err3 != nil ||
		day < 1 || day > 31 || month < 1 || month > 12 {
		return fmt.Errorf("bad datestamp %q", raw)
	}

	switch a.cfg.DatestampPolicy {
	case DatestampIntelligent:
		if year > a.cfg.DateThreshold {
			year += 1900
		} else {
			year += 2000
		}
	case Datestamp19xx:
		year += 1900
	case Datestamp20xx:
		year += 2000
	}

	a.scratch["_date"] = calendarDate{year: year, month: time.Month(month), day: day}
	return nil
}

// fixCoordinate converts the DDDMM.mmmm magnitude into decimal degrees. The
// sign is assigned separately by the hemisphere fixer, which runs later in
// the same field iteration.
func (a *Adapter) fixCoordinate(raw string, kind position.AngleKind) error {
	intPart := raw
	if dot := strings.IndexByte(raw, '.'); dot != -1 {
		intPart = raw[:dot]
	}
	if len(intPart) < 3 {
		return fmt.Errorf("bad coordinate %q", raw)
	}
	degrees, err := strconv.Atoi(intPart[:len(intPart)-2])
	if err != nil {
		return fmt.Errorf("bad coordinate %q", raw)
	}
	minutes, err := strconv.ParseFloat(raw[len(intPart)-2:], 64)
	if err != nil {
		return fmt.Errorf("bad coordinate %q", raw)
	}

	coord, err := position.NewCoordinate(float64(degrees)+minutes/60, kind)
	if err != nil {
		return err
	}
	if kind == position.Latitude {
		a.scratch["latitude"] = coord
	} else {
		a.scratch["longitude"] = coord
	}
	return nil
}

// fixHemisphereSign assigns the sign of an already-derived scratch value
// (latitude, longitude or the heading's variation) from a hemisphere letter.
func (a *Adapter) fixHemisphereSign(letter, scratchKey string) error {
	var sign int
	switch strings.ToUpper(letter) {
	case "N", "E":
		sign = 1
	case "S", "W":
		sign = -1
	default:
		return fmt.Errorf("%w: bad hemisphere %q", ErrConfiguration, letter)
	}

	target, ok := a.scratch[scratchKey]
	if !ok {
		return fmt.Errorf("hemisphere %q without a %s value", letter, scratchKey)
	}
	switch v := target.(type) {
	case *position.Coordinate:
		return v.SetSign(sign)
	case *position.Heading:
		return v.SetSign(sign)
	default:
		return fmt.Errorf("cannot sign %s", scratchKey)
	}
}

func (a *Adapter) fixAltitude(raw, scratchKey string) error {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("bad altitude %q", raw)
	}
	a.scratch[scratchKey] = position.Altitude(v)
	return nil
}

// fixAltitudeUnits checks that an altitude figure is expressed in meters,
// the canonical unit of the typed values. Altitudes never carry a speed-style
// convertible unit, so anything but "M" is a device misconfiguration.
func (a *Adapter) fixAltitudeUnits(unit string) error {
	if unit != "M" {
		return fmt.Errorf("%w: unknown altitude unit %q", ErrConfiguration, unit)
	}
	return nil
}

// speedConverters turns a raw speed expressed in the given unit into meters
// per second.
var speedConverters = map[string]func(raw string) (position.Speed, error){
	"N": func(raw string) (position.Speed, error) {
		knots, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("bad speed %q", raw)
		}
		return position.Speed(knots * position.MetersPerSecondPerKnot), nil
	},
	"K": func(raw string) (position.Speed, error) {
		kph, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("bad speed %q", raw)
		}
		return position.Speed(kph * position.MetersPerSecondPerKPH), nil
	},
}

func (a *Adapter) fixSpeed(raw, unit string) error {
	converter, ok := speedConverters[unit]
	if !ok {
		return fmt.Errorf("%w: unknown speed unit %q", ErrConfiguration, unit)
	}
	speed, err := converter(raw)
	if err != nil {
		return err
	}
	a.scratch["speed"] = speed
	return nil
}

// scratchHeading returns this sentence's heading under construction, seeding
// it from accumulated state (or fresh) on first use. Seeding from state lets
// a course and a variation arriving in different sentences accumulate onto
// the same heading.
func (a *Adapter) scratchHeading() *position.Heading {
	if v, ok := a.scratch["heading"]; ok {
		return v.(*position.Heading)
	}
	h, ok := a.state["heading"].(*position.Heading)
	if !ok {
		h = &position.Heading{}
	}
	a.scratch["heading"] = h
	return h
}

func (a *Adapter) fixHeadingCourse(raw string) error {
	course, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("bad heading %q", raw)
	}
	a.scratchHeading().SetCourse(course)
	return nil
}

func (a *Adapter) fixHeadingVariation(raw string) error {
	degrees, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("bad variation %q", raw)
	}
	variation, err := position.NewAngle(degrees, position.Variation)
	if err != nil {
		return err
	}
	a.scratchHeading().SetVariation(variation)
	return nil
}

// fixDilution folds one dilution-of-precision figure into this sentence's
// position error, seeded from state like the heading.
func (a *Adapter) fixDilution(raw string, set func(*position.PositionError, float64)) error {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("bad dilution %q", raw)
	}

	pe, ok := a.scratch["positionError"].(*position.PositionError)
	if !ok {
		pe, ok = a.state["positionError"].(*position.PositionError)
		if !ok {
			pe = &position.PositionError{}
		}
		a.scratch["positionError"] = pe
	}
	set(pe, v)
	return nil
}

// fixGSV builds the partial satellite set carried by one GSV sentence. A
// slot missing its PRN or its SNR is skipped on its own; the remaining slots
// are still taken.
func (a *Adapter) fixGSV(s *Sentence) error {
	bi := position.NewBeaconInformation()
	a.scratch["_partialBeaconInformation"] = bi

	for slot := 0; slot < 4; slot++ {
		prnKey := fmt.Sprintf("satellitePRN_%d", slot)
		snrKey := fmt.Sprintf("signalToNoiseRatio_%d", slot)
		if !s.Has(prnKey) || !s.Has(snrKey) {
			continue
		}

		prn, err := strconv.Atoi(s.Field(prnKey))
		if err != nil {
			return fmt.Errorf("bad satellite PRN %q", s.Field(prnKey))
		}
		azimuth, err := optionalFloat(s, fmt.Sprintf("azimuth_%d", slot))
		if err != nil {
			return err
		}
		elevation, err := optionalFloat(s, fmt.Sprintf("elevation_%d", slot))
		if err != nil {
			return err
		}
		snr, err := optionalFloat(s, snrKey)
		if err != nil {
			return err
		}

		bi.Add(&position.Satellite{
			PRN:       prn,
			Azimuth:   azimuth,
			Elevation: elevation,
			SNR:       snr,
		})
	}
	return nil
}

// fixGSA collects the used-satellite PRNs of a GSA sentence into a set.
func (a *Adapter) fixGSA(s *Sentence) error {
	used := make(map[int]bool)
	for slot := 0; slot < 12; slot++ {
		key := fmt.Sprintf("usedSatellitePRN_%d", slot)
		if !s.Has(key) {
			continue
		}
		prn, err := strconv.Atoi(s.Field(key))
		if err != nil {
			return fmt.Errorf("bad used PRN %q", s.Field(key))
		}
		used[prn] = true
	}
	a.scratch["_usedPRNs"] = used
	return nil
}

func optionalFloat(s *Sentence, name string) (float64, error) {
	if !s.Has(name) {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s.Field(name), 64)
	if err != nil {
		return 0, fmt.Errorf("bad value %q for %s", s.Field(name), name)
	}
	return v, nil
}

// mergeBeaconInformation folds this sentence's partial satellite set into
// the aggregation running across the numbered GSV group, and promotes the
// accumulated set to a finished beaconInformation value on the group's last
// sentence.
func (a *Adapter) mergeBeaconInformation(s *Sentence) {
	v, ok := a.scratch["_partialBeaconInformation"]
	if !ok {
		return
	}
	fresh := v.(*position.BeaconInformation)

	// Prefer this sentence's own used-PRN set, else the accumulated one.
	usedPRNs, ok := a.scratch["_usedPRNs"].(map[int]bool)
	if !ok {
		usedPRNs, ok = a.state["_usedPRNs"].(map[int]bool)
	}
	if ok {
		fresh.MarkUsed(usedPRNs)
	}

	if old, ok := a.state["_partialBeaconInformation"].(*position.BeaconInformation); ok {
		fresh.Merge(old)
	}

	if s.isLastOfGroup() {
		if !s.isFirstOfGroup() {
			// A multi-sentence group finished; the in-progress
			// accumulator is no longer needed.
			delete(a.state, "_partialBeaconInformation")
		}
		delete(a.scratch, "_partialBeaconInformation")
		a.scratch["beaconInformation"] = fresh
	}
}

type timeOfDay struct {
	hour, minute, second int
}

type calendarDate struct {
	year  int
	month time.Month
	day   int
}

// combineDateAndTime builds a full timestamp once both a date and a time of
// day are known, at least one of them freshly decoded from this sentence.
// The freshness requirement keeps a cached date+time pair from re-firing the
// time callback on every unrelated sentence.
func (a *Adapter) combineDateAndTime() {
	_, freshDate := a.scratch["_date"]
	_, freshTime := a.scratch["_time"]
	if !freshDate && !freshTime {
		return
	}

	date, ok := a.scratch["_date"].(calendarDate)
	if !ok {
		date, ok = a.state["_date"].(calendarDate)
		if !ok {
			return
		}
	}
	tod, ok := a.scratch["_time"].(timeOfDay)
	if !ok {
		tod, ok = a.state["_time"].(timeOfDay)
		if !ok {
			return
		}
	}

	a.scratch["time"] = time.Date(date.year, date.month, date.day,
		tod.hour, tod.minute, tod.second, 0, time.UTC)
}

// fireCallbacks fires every update kind whose required fields are all
// available in state and of which at least one was touched by this sentence.
// Without the freshness gate every sentence would re-fire every previously
// satisfiable callback.
func (a *Adapter) fireCallbacks() {
	for _, kind := range updateKinds {
		satisfied := true
		fresh := false
		for _, field := range kind.fields {
			if _, ok := a.state[field]; !ok {
				satisfied = false
				break
			}
			if _, ok := a.scratch[field]; ok {
				fresh = true
			}
		}
		if !satisfied || !fresh {
			continue
		}

		switch kind.name {
		case "position":
			a.receiver.PositionReceived(
				a.state["latitude"].(*position.Coordinate),
				a.state["longitude"].(*position.Coordinate))
		case "positionError":
			a.receiver.PositionErrorReceived(a.state["positionError"].(*position.PositionError))
		case "time":
			a.receiver.TimeReceived(a.state["time"].(time.Time))
		case "heading":
			a.receiver.HeadingReceived(a.state["heading"].(*position.Heading))
		case "altitude":
			a.receiver.AltitudeReceived(a.state["altitude"].(position.Altitude))
		case "speed":
			a.receiver.SpeedReceived(a.state["speed"].(position.Speed))
		case "climb":
			a.receiver.ClimbReceived(a.state["climb"].(position.Climb))
		case "beacons":
			a.receiver.BeaconsReceived(a.state["beaconInformation"].(*position.BeaconInformation))
		}
	}
}

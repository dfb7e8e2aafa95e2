package nmea

// fieldIgnored marks a sentence position carrying data this package does not
// use. Tokens at ignored positions are dropped during decoding.
const fieldIgnored = ""

// sentenceSchema maps a sentence type tag to the ordered field names of its
// payload, checksum and type tag excluded. The names double as the keys of
// the adapter state and of the callback requirement table, so they are part
// of the package contract.
var sentenceSchema = map[string][]string{
	"GPGGA": {
		"timestamp",

		"latitudeFloat",
		"latitudeHemisphere",
		"longitudeFloat",
		"longitudeHemisphere",

		"fixQuality",
		"numberOfSatellitesSeen",
		"horizontalDilutionOfPrecision",

		"altitude",
		"altitudeUnits",
		"heightOfGeoidAboveWGS84",
		"heightOfGeoidAboveWGS84Units",

		// Trailing DGPS fields are not decoded.
	},

	"GPRMC": {
		"timestamp",

		"dataMode",

		"latitudeFloat",
		"latitudeHemisphere",
		"longitudeFloat",
		"longitudeHemisphere",

		"speedInKnots",

		"trueHeading",

		"datestamp",

		"magneticVariation",
		"magneticVariationDirection",
	},

	"GPGSV": {
		"numberOfGSVSentences",
		"GSVSentenceIndex",

		"numberOfSatellitesSeen",

		"satellitePRN_0",
		"elevation_0",
		"azimuth_0",
		"signalToNoiseRatio_0",

		"satellitePRN_1",
		"elevation_1",
		"azimuth_1",
		"signalToNoiseRatio_1",

		"satellitePRN_2",
		"elevation_2",
		"azimuth_2",
		"signalToNoiseRatio_2",

		"satellitePRN_3",
		"elevation_3",
		"azimuth_3",
		"signalToNoiseRatio_3",
	},

	"GPGLL": {
		"latitudeFloat",
		"latitudeHemisphere",
		"longitudeFloat",
		"longitudeHemisphere",
		"timestamp",
		"dataMode",
	},

	"GPHDT": {
		"trueHeading",
	},

	"GPTRF": {
		"datestamp",
		"timestamp",

		"latitudeFloat",
		"latitudeHemisphere",
		"longitudeFloat",
		"longitudeHemisphere",

		"elevation",
		fieldIgnored, // number of iterations
		fieldIgnored, // number of Doppler intervals
		fieldIgnored, // update distance in nautical miles
		"satellitePRN",
	},

	"GPGSA": {
		"dataMode",
		"fixType",

		"usedSatellitePRN_0",
		"usedSatellitePRN_1",
		"usedSatellitePRN_2",
		"usedSatellitePRN_3",
		"usedSatellitePRN_4",
		"usedSatellitePRN_5",
		"usedSatellitePRN_6",
		"usedSatellitePRN_7",
		"usedSatellitePRN_8",
		"usedSatellitePRN_9",
		"usedSatellitePRN_10",
		"usedSatellitePRN_11",

		"positionDilutionOfPrecision",
		"horizontalDilutionOfPrecision",
		"verticalDilutionOfPrecision",
	},
}

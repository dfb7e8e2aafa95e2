// Package nmea decodes NMEA 0183 sentences and adapts them into
// strongly-typed positioning updates.
//
// Decode turns one raw line into a Sentence: framing and checksum are
// verified and the comma-separated tokens are matched against a per-type
// schema, keeping only the fields actually present. The Adapter then folds
// Sentences, in arrival order, into accumulated cross-sentence state and
// fires PositionReceiver callbacks whenever an update kind has gathered all
// of its required data with at least one freshly arrived field. Satellite
// visibility is assembled across a numbered group of GSV sentences and
// correlated with the used-satellite set of GSA sentences.
package nmea

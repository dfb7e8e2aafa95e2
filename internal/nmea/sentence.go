package nmea

import "sort"

// Sentence is one decoded NMEA sentence: a type tag plus a sparse map of the
// fields that were actually present. Empty tokens and ignored positions are
// never stored, so field presence can be tested directly.
//
// A Sentence is immutable once built and is only valid for the duration of
// the adapter call that consumes it.
type Sentence struct {
	typ    string
	fields map[string]string
}

// Type returns the sentence type tag, e.g. "GPGGA".
func (s *Sentence) Type() string { return s.typ }

// Field returns the raw value of the named field, or the empty string if the
// field was not present. Absent fields are not an error.
func (s *Sentence) Field(name string) string { return s.fields[name] }

// Has reports whether the named field was present in the sentence.
func (s *Sentence) Has(name string) bool {
	_, ok := s.fields[name]
	return ok
}

// PresentFields returns the names of all present fields in lexicographic
// order. The adapter relies on this order being deterministic.
func (s *Sentence) PresentFields() []string {
	names := make([]string, 0, len(s.fields))
	for name := range s.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// isFirstOfGroup reports whether this sentence is the first of a numbered
// same-type sequence (GSV).
func (s *Sentence) isFirstOfGroup() bool {
	return s.Field("GSVSentenceIndex") == "1"
}

// isLastOfGroup reports whether this sentence is the last of a numbered
// same-type sequence (GSV). The index and the total count are compared as
// raw strings, the way they appear on the wire.
func (s *Sentence) isLastOfGroup() bool {
	return s.Has("GSVSentenceIndex") &&
		s.Field("GSVSentenceIndex") == s.Field("numberOfGSVSentences")
}

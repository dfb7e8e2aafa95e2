package nmea

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Decode failure taxonomy. All failures concern only the offending line and
// leave any adapter state untouched.
var (
	ErrMalformedSentence   = errors.New("nmea: malformed sentence")
	ErrInvalidChecksum     = errors.New("nmea: invalid checksum")
	ErrUnknownSentenceType = errors.New("nmea: unknown sentence type")
)

// Decode parses one raw NMEA line into a Sentence.
//
// Accepted framing is "$TYPE,f1,...,fN*CC" (two hex checksum digits, either
// case) or "$TYPE,f1,...,fN*" (checksum omitted). When a checksum is present
// it must equal the XOR of every byte strictly between '$' and '*'.
//
// Tokens are matched positionally against the sentence type's schema. Extra
// trailing tokens are ignored; missing trailing tokens simply leave their
// fields absent. Empty tokens and ignored schema positions are not stored.
func Decode(line string) (*Sentence, error) {
	line = strings.TrimSpace(line)
	if len(line) < 2 || line[0] != '$' {
		return nil, fmt.Errorf("%w: missing '$' prefix", ErrMalformedSentence)
	}

	var payload string
	switch {
	case line[len(line)-1] == '*':
		// Checksum omitted.
		payload = line[1 : len(line)-1]
	case len(line) >= 4 && line[len(line)-3] == '*':
		payload = line[1 : len(line)-3]
		declared, err := strconv.ParseUint(line[len(line)-2:], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("%w: unreadable checksum %q", ErrInvalidChecksum, line[len(line)-2:])
		}
		computed := byte(0)
		for i := 0; i < len(payload); i++ {
			computed ^= payload[i]
		}
		if computed != byte(declared) {
			return nil, fmt.Errorf("%w: %02X != %02X", ErrInvalidChecksum, computed, byte(declared))
		}
	default:
		return nil, fmt.Errorf("%w: no checksum delimiter", ErrMalformedSentence)
	}

	tokens := strings.Split(payload, ",")
	typ := tokens[0]
	schema, ok := sentenceSchema[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSentenceType, typ)
	}

	fields := make(map[string]string)
	for i, value := range tokens[1:] {
		if i >= len(schema) {
			break
		}
		name := schema[i]
		if name == fieldIgnored || value == "" {
			continue
		}
		fields[name] = value
	}

	return &Sentence{typ: typ, fields: fields}, nil
}

// Package feed wires a transport source, the NMEA decoder and the semantic
// adapter into a running pipeline, and provides receiver implementations for
// fanning updates out and keeping a latest-state snapshot.
package feed

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"gpsfeed/internal/nmea"
	"gpsfeed/internal/transport"
)

// Service runs the line loop: every line from the source is decoded and fed
// to the adapter. Decode failures and adapter faults concern single lines of
// a noisy serial stream, so they are counted and remembered rather than
// treated as fatal.
type Service struct {
	source  transport.Source
	adapter *nmea.Adapter

	mu          sync.Mutex
	lines       uint64
	decodeErrs  uint64
	adapterErrs uint64
	lastErr     string
	lastLine    time.Time
}

type Snapshot struct {
	Source       string `json:"source"`
	Lines        uint64 `json:"lines"`
	DecodeErrors uint64 `json:"decode_errors"`
	AdapterErrs  uint64 `json:"adapter_errors"`
	LastError    string `json:"last_error,omitempty"`
	LastLineUTC  string `json:"last_line_utc,omitempty"`
}

func New(source transport.Source, adapter *nmea.Adapter) *Service {
	return &Service{source: source, adapter: adapter}
}

// Run blocks until the source stops or ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	log.Printf("feed starting source=%s", s.source.Describe())
	return s.source.Run(ctx, s.handleLine)
}

func (s *Service) handleLine(line string) error {
	// Some receivers emit non-NMEA chatter; filter quickly.
	if !strings.HasPrefix(line, "$") {
		return nil
	}

	s.mu.Lock()
	s.lines++
	s.lastLine = time.Now().UTC()
	s.mu.Unlock()

	sentence, err := nmea.Decode(line)
	if err != nil {
		// Avoid spamming on bad noise; just keep the last error.
		s.noteError(err, true)
		return nil
	}
	if err := s.adapter.SentenceReceived(sentence); err != nil {
		s.noteError(err, false)
		return nil
	}
	return nil
}

func (s *Service) noteError(err error, decode bool) {
	s.mu.Lock()
	if decode {
		s.decodeErrs++
	} else {
		s.adapterErrs++
	}
	s.lastErr = err.Error()
	s.mu.Unlock()
}

func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Snapshot{
		Source:       s.source.Describe(),
		Lines:        s.lines,
		DecodeErrors: s.decodeErrs,
		AdapterErrs:  s.adapterErrs,
		LastError:    s.lastErr,
	}
	if !s.lastLine.IsZero() {
		out.LastLineUTC = s.lastLine.Format(time.RFC3339Nano)
	}
	return out
}

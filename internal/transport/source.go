// Package transport provides line-oriented NMEA sources: a serial device, a
// TCP line feed and a log-file replayer. Sources only frame bytes into
// lines; all interpretation happens downstream.
package transport

import (
	"context"
	"time"
)

// Source delivers complete sentence lines, one at a time, in arrival order.
type Source interface {
	// Run blocks, invoking onLine for every line until ctx is cancelled
	// or the source fails permanently. onLine errors are reported back to
	// the source but do not stop it.
	Run(ctx context.Context, onLine func(line string) error) error

	// Describe returns a short human-readable description for logs and
	// status output.
	Describe() string
}

// sleepCtx sleeps for d unless ctx is cancelled first. Reports whether the
// full sleep elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

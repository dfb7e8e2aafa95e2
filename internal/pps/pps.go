// Package pps watches the pulse-per-second output of a GNSS module on a
// GPIO line. The pulse itself carries no data; its arrival time and count
// are useful for judging whether the receiver has a stable fix and for
// diagnosing wiring.
package pps

import (
	"fmt"
	"io"
	"sync"
	"time"
)

type Config struct {
	// Chip is the GPIO character device name, e.g. "gpiochip0".
	Chip string
	// Line is the line offset the PPS signal is wired to.
	Line int
}

// Monitor counts rising edges on the configured line.
type Monitor struct {
	mu     sync.Mutex
	pulses uint64
	last   time.Time

	closer io.Closer
}

type Snapshot struct {
	Pulses       uint64 `json:"pulses"`
	LastPulseUTC string `json:"last_pulse_utc,omitempty"`
}

// New requests the GPIO line and starts counting edges. On platforms
// without the Linux GPIO character device this fails with an explanatory
// error.
func New(cfg Config) (*Monitor, error) {
	if cfg.Chip == "" {
		cfg.Chip = "gpiochip0"
	}
	if cfg.Line <= 0 {
		return nil, fmt.Errorf("pps: invalid gpio line %d", cfg.Line)
	}

	m := &Monitor{}
	closer, err := requestLine(cfg, m.pulse)
	if err != nil {
		return nil, err
	}
	m.closer = closer
	return m, nil
}

func (m *Monitor) pulse(at time.Time) {
	m.mu.Lock()
	m.pulses++
	m.last = at
	m.mu.Unlock()
}

func (m *Monitor) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := Snapshot{Pulses: m.pulses}
	if !m.last.IsZero() {
		out.LastPulseUTC = m.last.UTC().Format(time.RFC3339Nano)
	}
	return out
}

func (m *Monitor) Close() {
	if m == nil || m.closer == nil {
		return
	}
	_ = m.closer.Close()
	m.closer = nil
}

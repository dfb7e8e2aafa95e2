package transport

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	serial "github.com/jacobsa/go-serial/serial"
)

type SerialConfig struct {
	Device string
	Baud   uint
}

// Serial reads NMEA lines from a serial GNSS receiver.
type Serial struct {
	cfg SerialConfig
}

func NewSerial(cfg SerialConfig) (*Serial, error) {
	if cfg.Device == "" {
		return nil, fmt.Errorf("transport: serial device is required")
	}
	if cfg.Baud == 0 {
		cfg.Baud = 9600
	}
	return &Serial{cfg: cfg}, nil
}

func (s *Serial) Describe() string {
	return fmt.Sprintf("serial %s @ %d", s.cfg.Device, s.cfg.Baud)
}

func (s *Serial) Run(ctx context.Context, onLine func(line string) error) error {
	port, err := serial.Open(serial.OpenOptions{
		PortName:        s.cfg.Device,
		BaudRate:        s.cfg.Baud,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
		ParityMode:      serial.PARITY_NONE,
	})
	if err != nil {
		return fmt.Errorf("transport: open %s: %w", s.cfg.Device, err)
	}

	// Closing the port unblocks a pending read when the context ends.
	go func() {
		<-ctx.Done()
		_ = port.Close()
	}()

	scanner := bufio.NewScanner(port)
	// NMEA sentences are typically < 82 chars, but allow some headroom.
	scanner.Buffer(make([]byte, 0, 256), 4096)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		_ = onLine(line)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("transport: read %s: %w", s.cfg.Device, err)
	}
	return io.EOF
}

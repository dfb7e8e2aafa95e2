package transport

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net"
	"strings"
	"time"
)

type TCPConfig struct {
	Addr string

	ReconnectDelay time.Duration
	DialTimeout    time.Duration
	MaxLineBytes   int
}

// TCP reads NMEA lines from a TCP line feed (for instance gpsd's raw NMEA
// export on port 10110) and reconnects with a fixed delay when the
// connection drops.
type TCP struct {
	cfg TCPConfig
}

func NewTCP(cfg TCPConfig) (*TCP, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("transport: tcp addr is required")
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 1 * time.Second
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 2 * time.Second
	}
	if cfg.MaxLineBytes <= 0 {
		cfg.MaxLineBytes = 4096
	}
	return &TCP{cfg: cfg}, nil
}

func (t *TCP) Describe() string {
	return fmt.Sprintf("tcp %s", t.cfg.Addr)
}

func (t *TCP) Run(ctx context.Context, onLine func(line string) error) error {
	dialer := &net.Dialer{Timeout: t.cfg.DialTimeout}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		conn, err := dialer.DialContext(ctx, "tcp", t.cfg.Addr)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("transport: dial %s failed: %v", t.cfg.Addr, err)
			if !sleepCtx(ctx, t.cfg.ReconnectDelay) {
				return ctx.Err()
			}
			continue
		}

		t.readLines(ctx, conn, onLine)

		if !sleepCtx(ctx, t.cfg.ReconnectDelay) {
			return ctx.Err()
		}
	}
}

func (t *TCP) readLines(ctx context.Context, conn net.Conn, onLine func(line string) error) {
	defer func() { _ = conn.Close() }()

	// Closing the connection unblocks a pending read on cancellation.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("transport: read %s stopped: %v", t.cfg.Addr, err)
			}
			return
		}
		if len(line) > t.cfg.MaxLineBytes {
			log.Printf("transport: %s: line too large (%d bytes)", t.cfg.Addr, len(line))
			continue
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		_ = onLine(line)
	}
}

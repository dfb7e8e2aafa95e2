package transport

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"
)

type ReplayConfig struct {
	Path string

	// Pace inserts a delay between lines; zero replays as fast as
	// possible.
	Pace time.Duration

	// Loop restarts from the top of the file after the last line.
	Loop bool
}

// Replay feeds recorded NMEA lines from a log file, mainly for development
// and for reproducing device traces.
type Replay struct {
	cfg ReplayConfig
}

func NewReplay(cfg ReplayConfig) (*Replay, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("transport: replay path is required")
	}
	return &Replay{cfg: cfg}, nil
}

func (r *Replay) Describe() string {
	return fmt.Sprintf("replay %s", r.cfg.Path)
}

func (r *Replay) Run(ctx context.Context, onLine func(line string) error) error {
	for {
		if err := r.playOnce(ctx, onLine); err != nil {
			return err
		}
		if !r.cfg.Loop {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (r *Replay) playOnce(ctx context.Context, onLine func(line string) error) error {
	f, err := os.Open(r.cfg.Path)
	if err != nil {
		return fmt.Errorf("transport: open replay: %w", err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
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
		if r.cfg.Pace > 0 && !sleepCtx(ctx, r.cfg.Pace) {
			return ctx.Err()
		}
	}
	return scanner.Err()
}

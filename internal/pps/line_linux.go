//go:build linux

package pps

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// requestLine opens the GPIO character device and subscribes to rising
// edges on the PPS line. Each edge invokes onPulse with the wall-clock
// arrival time.
func requestLine(cfg Config, onPulse func(time.Time)) (io.Closer, error) {
	chipPath := filepath.Join("/dev", cfg.Chip)
	chip, err := gpiocdev.NewChip(chipPath)
	if err != nil {
		return nil, fmt.Errorf("pps: open %s: %w", chipPath, err)
	}

	line, err := chip.RequestLine(cfg.Line,
		gpiocdev.WithRisingEdge,
		gpiocdev.WithConsumer("gpsfeed-pps"),
		gpiocdev.WithEventHandler(func(gpiocdev.LineEvent) {
			onPulse(time.Now())
		}))
	if err != nil {
		_ = chip.Close()
		return nil, fmt.Errorf("pps: request %s line %d: %w", cfg.Chip, cfg.Line, err)
	}

	return &gpiodLine{chip: chip, line: line}, nil
}

type gpiodLine struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

func (g *gpiodLine) Close() error {
	if g == nil || g.line == nil {
		return nil
	}
	err := g.line.Close()
	g.line = nil
	if g.chip != nil {
		_ = g.chip.Close()
		g.chip = nil
	}
	return err
}

//go:build !linux

package pps

import (
	"errors"
	"io"
	"time"
)

func requestLine(Config, func(time.Time)) (io.Closer, error) {
	return nil, errors.New("pps: gpio character device only supported on linux")
}

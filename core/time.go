// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"context"
	"time"
)

// NewTime creates a new time service
func NewTime(cfg TimeConfiguration) *Time {
	t := &Time{
		fps: cfg.FramesPerSecond,
	}
	if cfg.FramesPerSecond > 0 {
		t.fpsTicker = time.NewTicker(time.Second / time.Duration(cfg.FramesPerSecond))
	}
	return t
}

// Time paces the frame loop
type Time struct {
	fps       int
	fpsTicker *time.Ticker
	started   time.Time
	ticks     uint64
}

// Fps gets the set frames per second, 0 if unlimited
func (t *Time) Fps() int {
	return t.fps
}

// Pace blocks until the next frame is due. Without a
// frame rate cap it returns immediately.
func (t *Time) Pace(ctx context.Context) error {
	if t.started.IsZero() {
		t.started = time.Now()
	}
	t.ticks++

	if t.fpsTicker == nil {
		return ctx.Err()
	}
	select {
	case <-t.fpsTicker.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Rate returns the average number of paced frames per second so far
func (t *Time) Rate() float64 {
	elapsed := time.Since(t.started).Seconds()
	if t.started.IsZero() || elapsed == 0 {
		return 0
	}
	return float64(t.ticks) / elapsed
}

// Stop releases the ticker
func (t *Time) Stop() {
	if t.fpsTicker != nil {
		t.fpsTicker.Stop()
	}
}

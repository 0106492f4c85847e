// Package stream drives the capture, pack and send cycle.
package stream

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/hamishcoleman/led-sp108e/internal/capture"
	"github.com/hamishcoleman/led-sp108e/internal/led"
	"github.com/hamishcoleman/led-sp108e/internal/render"
)

type State int32

const (
	Handshaking State = iota
	Streaming
)

func (s State) String() string {
	if s == Streaming {
		return "streaming"
	}
	return "handshaking"
}

// Tap observes every packed frame after it was accepted by the driver.
// The slice is reused on the next iteration.
type Tap interface {
	Publish(frame []byte, fps int64)
}

// Loop is single-threaded: one frame is in flight at a time and the next
// capture starts only after the driver accepted the previous one.
type Loop struct {
	Source capture.Source
	Rect   capture.Rect
	Packer *render.Packer
	Driver led.Driver
	Meter  *Meter
	Tap    Tap
	Log    zerolog.Logger

	state  atomic.Int32
	frames atomic.Uint64
}

func (l *Loop) State() State   { return State(l.state.Load()) }
func (l *Loop) Frames() uint64 { return l.frames.Load() }

// beginner is implemented by drivers whose start-up can be cancelled.
type beginner interface {
	BeginContext(ctx context.Context) error
}

// interrupter is implemented by drivers that can unblock a pending Write.
type interrupter interface {
	Interrupt()
}

// Run performs the handshake, then streams until ctx is cancelled or an
// error occurs. Cancellation is not an error.
func (l *Loop) Run(ctx context.Context) error {
	l.state.Store(int32(Handshaking))
	if err := l.begin(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("handshake: %w", err)
	}
	l.state.Store(int32(Streaming))
	l.Log.Info().Str("state", Streaming.String()).Str("grab", l.Rect.String()).
		Int("stride", l.Packer.Stride()).Int("frame_bytes", l.Packer.Capacity()).Msg("streaming")

	if it, ok := l.Driver.(interrupter); ok {
		stop := context.AfterFunc(ctx, it.Interrupt)
		defer stop()
	}
	if l.Meter != nil {
		l.Meter.Reset()
	}

	buf := l.Packer.NewFrame()
	for {
		if ctx.Err() != nil {
			return nil
		}
		err := l.step(buf)
		if err != nil {
			if ctx.Err() != nil {
				l.Log.Debug().Err(err).Msg("stopped mid-frame")
				return nil
			}
			return err
		}
	}
}

func (l *Loop) begin(ctx context.Context) error {
	if b, ok := l.Driver.(beginner); ok {
		return b.BeginContext(ctx)
	}
	return l.Driver.Begin()
}

func (l *Loop) step(buf []byte) error {
	f, err := l.Source.Capture(l.Rect)
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	if err := l.Packer.Pack(buf, f); err != nil {
		return fmt.Errorf("pack: %w", err)
	}
	if err := l.Driver.Write(buf); err != nil {
		return fmt.Errorf("frame %d: %w", l.frames.Load(), err)
	}
	n := l.frames.Add(1)

	var fps int64
	if l.Meter != nil {
		if l.Meter.Tick() {
			l.Log.Debug().Int64("fps", l.Meter.FPS()).Uint64("frames", n).
				Float64("pack_ms", l.Packer.Last.PackMS).Msg("rate")
		}
		fps = l.Meter.FPS()
	}
	if l.Tap != nil {
		l.Tap.Publish(buf, fps)
	}
	return nil
}

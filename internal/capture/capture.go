// Package capture grabs rectangles of a display surface as dense
// 4-bytes-per-pixel frames.
//
// Every backend re-reads the full rectangle on each Capture call; there is
// no dirty-region tracking and no double buffering. The returned Frame
// aliases a buffer the next Capture overwrites.
package capture

import (
	"fmt"
	"strings"

	"github.com/hamishcoleman/led-sp108e/internal/fault"
	"github.com/hamishcoleman/led-sp108e/internal/led"
)

// BytesPerPixel is fixed for every source.
const BytesPerPixel = 4

// Rect is the region to grab, relative to the source surface origin.
type Rect struct {
	X, Y          int
	Width, Height int
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// Validate rejects empty or negative rectangles.
func (r Rect) Validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: capture rect %s must have positive size", fault.ErrDisplay, r)
	}
	if r.X < 0 || r.Y < 0 {
		return fmt.Errorf("%w: capture rect %s has negative origin", fault.ErrDisplay, r)
	}
	return nil
}

// Frame is one captured rectangle, row-major, BytesPerPixel per sample.
type Frame struct {
	Width  int
	Height int
	Order  led.ChannelOrder
	Pix    []byte
}

// Pixel returns the 4-byte sample at x,y.
func (f *Frame) Pixel(x, y int) []byte {
	off := (y*f.Width + x) * BytesPerPixel
	return f.Pix[off : off+BytesPerPixel]
}

func (f *Frame) reset(w, h int, order led.ChannelOrder) {
	n := w * h * BytesPerPixel
	if cap(f.Pix) < n {
		f.Pix = make([]byte, n)
	}
	f.Pix = f.Pix[:n]
	f.Width, f.Height, f.Order = w, h, order
}

// Source is a display surface that can be captured repeatedly.
type Source interface {
	Capture(r Rect) (*Frame, error)
	Close() error
}

// Options selects and configures a backend for Open.
type Options struct {
	// Kind is "screen", "fbdev" or "pattern".
	Kind string
	// Display is the screen index for the screen backend.
	Display int
	// Device is the framebuffer path for the fbdev backend.
	Device string
	// Pattern names the calibration pattern for the pattern backend.
	Pattern string
}

// Open returns the backend named by opts.Kind.
func Open(opts Options) (Source, error) {
	switch strings.ToLower(opts.Kind) {
	case "", "screen", "x11":
		s, err := NewScreen(opts.Display)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "fbdev", "fb":
		dev := opts.Device
		if dev == "" {
			dev = DefaultFBDevice
		}
		d, err := OpenFBDev(dev)
		if err != nil {
			return nil, err
		}
		return d, nil
	case "pattern":
		kind, err := ParsePattern(opts.Pattern)
		if err != nil {
			return nil, err
		}
		return NewPattern(kind), nil
	}
	return nil, fmt.Errorf("%w: unknown source %q", fault.ErrConfig, opts.Kind)
}

package capture

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"

	"github.com/hamishcoleman/led-sp108e/internal/fault"
	"github.com/hamishcoleman/led-sp108e/internal/led"
)

// Screen captures from an active display through the platform screenshot
// API (XGetImage on X11). Samples come back as RGBA.
//
// TODO: an XShm path would avoid the per-frame round trip through the X
// server; the screenshot package only offers it for full-display grabs.
type Screen struct {
	display int
	bounds  image.Rectangle
	frame   Frame
}

// NewScreen opens display index n (0 is the primary display).
func NewScreen(n int) (*Screen, error) {
	count := screenshot.NumActiveDisplays()
	if count == 0 {
		return nil, fmt.Errorf("%w: no active displays found", fault.ErrDisplay)
	}
	if n < 0 || n >= count {
		return nil, fmt.Errorf("%w: display %d out of range (have %d)", fault.ErrDisplay, n, count)
	}
	return &Screen{display: n, bounds: screenshot.GetDisplayBounds(n)}, nil
}

// Bounds is the display surface in virtual-screen coordinates.
func (s *Screen) Bounds() image.Rectangle { return s.bounds }

func (s *Screen) Capture(r Rect) (*Frame, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	want := image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height).Add(s.bounds.Min)
	if !want.In(s.bounds) {
		return nil, fmt.Errorf("%w: capture rect %s outside display %d (%v)", fault.ErrDisplay, r, s.display, s.bounds)
	}
	img, err := screenshot.CaptureRect(want)
	if err != nil {
		return nil, fmt.Errorf("%w: capture screen: %w", fault.ErrDisplay, err)
	}
	s.frame.reset(r.Width, r.Height, led.RGBX)
	copyRows(s.frame.Pix, img.Pix, img.Stride, r.Width, r.Height)
	return &s.frame, nil
}

func (s *Screen) Close() error { return nil }

// copyRows packs h rows of w samples from a strided buffer into dst.
func copyRows(dst, src []byte, stride, w, h int) {
	row := w * BytesPerPixel
	for y := 0; y < h; y++ {
		copy(dst[y*row:(y+1)*row], src[y*stride:y*stride+row])
	}
}

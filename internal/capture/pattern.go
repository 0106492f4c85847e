package capture

import (
	"fmt"
	"strings"

	"github.com/hamishcoleman/led-sp108e/internal/fault"
	"github.com/hamishcoleman/led-sp108e/internal/led"
)

type PatternKind string

const (
	IndexSweep  PatternKind = "index_sweep"
	RGBChannels PatternKind = "rgb_channels"
	RowSweep    PatternKind = "rows"
)

func ParsePattern(s string) (PatternKind, error) {
	switch k := PatternKind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return IndexSweep, nil
	case IndexSweep, RGBChannels, RowSweep:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown pattern %q", fault.ErrConfig, s)
}

// Pattern is a synthetic source for checking LED wiring without a display.
// Each Capture advances one step; patterns wrap around forever.
type Pattern struct {
	kind  PatternKind
	step  int
	frame Frame
}

func NewPattern(kind PatternKind) *Pattern { return &Pattern{kind: kind} }

// Step is the number of frames produced so far.
func (p *Pattern) Step() int { return p.step }

// Capture fills a BGRX frame of r's size. The origin is ignored.
func (p *Pattern) Capture(r Rect) (*Frame, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	f := &p.frame
	f.reset(r.Width, r.Height, led.BGRX)
	for i := range f.Pix {
		f.Pix[i] = 0
	}
	n := r.Width * r.Height

	switch p.kind {
	case IndexSweep:
		px := f.Pix[(p.step%n)*BytesPerPixel:]
		px[0], px[1], px[2] = 255, 255, 255
	case RGBChannels:
		// BGRX: blue, green, red live at 0, 1, 2.
		ch := 2 - p.step%3
		for i := 0; i < n; i++ {
			f.Pix[i*BytesPerPixel+ch] = 255
		}
	case RowSweep:
		y := p.step % r.Height
		for x := 0; x < r.Width; x++ {
			px := f.Pixel(x, y)
			px[0], px[1] = 255, 255 // cyan
		}
	default:
		return nil, fmt.Errorf("%w: unknown pattern %q", fault.ErrConfig, p.kind)
	}
	p.step++
	return f, nil
}

func (p *Pattern) Close() error { return nil }

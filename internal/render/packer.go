package render

import (
	"fmt"
	"time"

	"github.com/hamishcoleman/led-sp108e/internal/capture"
	"github.com/hamishcoleman/led-sp108e/internal/fault"
	"github.com/hamishcoleman/led-sp108e/internal/layout"
	"github.com/hamishcoleman/led-sp108e/internal/led"
)

// MinStride is one RGB triplet.
const MinStride = 3

// Packer turns captured frames into the controller's fixed-size frame:
// one RGB triplet per LED at i*stride, the rest of each slot zero.
type Packer struct {
	layout   layout.Layout
	order    led.ChannelOrder
	stride   int
	capacity int
	table    []int

	// metrics (last duration in ms)
	Last struct {
		PackMS float64
	}
}

// NewPacker validates the geometry against the frame capacity. order may be
// led.Auto to use whatever each captured frame reports.
func NewPacker(l layout.Layout, order led.ChannelOrder, stride, capacity int) (*Packer, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	if stride < MinStride {
		return nil, fmt.Errorf("%w: stride %d is below %d bytes per LED", fault.ErrConfig, stride, MinStride)
	}
	if need := l.Count() * stride; need > capacity {
		return nil, fmt.Errorf("%w: %dx%d LEDs at stride %d need %d bytes, frame holds %d",
			fault.ErrConfig, l.Width, l.Height, stride, need, capacity)
	}
	if order != led.Auto {
		if _, _, _, ok := order.Offsets(); !ok {
			return nil, fmt.Errorf("%w: unknown channel order %s", fault.ErrConfig, order)
		}
	}
	return &Packer{
		layout:   l,
		order:    order,
		stride:   stride,
		capacity: capacity,
		table:    l.Table(),
	}, nil
}

func (p *Packer) Layout() layout.Layout { return p.layout }
func (p *Packer) Stride() int           { return p.stride }
func (p *Packer) Capacity() int         { return p.capacity }

// NewFrame allocates an output buffer of the right size.
func (p *Packer) NewFrame() []byte { return make([]byte, p.capacity) }

// Pack writes f into dst, which must be exactly Capacity bytes.
func (p *Packer) Pack(dst []byte, f *capture.Frame) error {
	start := time.Now()

	if len(dst) != p.capacity {
		return fmt.Errorf("%w: output buffer is %d bytes, want %d", fault.ErrConfig, len(dst), p.capacity)
	}
	if f.Width != p.layout.Width || f.Height != p.layout.Height {
		return fmt.Errorf("%w: frame is %dx%d, layout is %dx%d",
			fault.ErrConfig, f.Width, f.Height, p.layout.Width, p.layout.Height)
	}
	if len(f.Pix) < p.layout.Count()*capture.BytesPerPixel {
		return fmt.Errorf("%w: frame has %d bytes, want %d",
			fault.ErrConfig, len(f.Pix), p.layout.Count()*capture.BytesPerPixel)
	}
	order := p.order
	if order == led.Auto {
		order = f.Order
	}
	rOff, gOff, bOff, ok := order.Offsets()
	if !ok {
		return fmt.Errorf("%w: channel order unknown for this source, set it explicitly", fault.ErrConfig)
	}

	for i := range dst {
		dst[i] = 0
	}
	for i, src := range p.table {
		s := f.Pix[src*capture.BytesPerPixel:]
		d := dst[i*p.stride:]
		d[0], d[1], d[2] = s[rOff], s[gOff], s[bOff]
	}

	p.Last.PackMS = float64(time.Since(start).Microseconds()) / 1000.0
	return nil
}

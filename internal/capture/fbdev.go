package capture

import (
	"fmt"

	"github.com/hamishcoleman/led-sp108e/internal/fault"
	"github.com/hamishcoleman/led-sp108e/internal/led"
)

// DefaultFBDevice is the first Linux framebuffer.
const DefaultFBDevice = "/dev/fb0"

// fbBitField mirrors struct fb_bitfield.
type fbBitField struct {
	Offset, Length, MsbRight uint32
}

// fbVarScreenInfo mirrors struct fb_var_screeninfo.
type fbVarScreenInfo struct {
	Xres, Yres,
	XresVirtual, YresVirtual,
	Xoffset, Yoffset,
	BitsPerPixel, Grayscale uint32
	Red, Green, Blue, Transp fbBitField
	Nonstd, Activate,
	Height, Width,
	AccelFlags, Pixclock,
	LeftMargin, RightMargin, UpperMargin, LowerMargin,
	HsyncLen, VsyncLen, Sync,
	Vmode, Rotate, Colorspace uint32
	Reserved [4]uint32
}

// fbFixScreenInfo mirrors struct fb_fix_screeninfo.
type fbFixScreenInfo struct {
	ID           [16]byte
	SmemStart    uintptr
	SmemLen      uint32
	Type         uint32
	TypeAux      uint32
	Visual       uint32
	Xpanstep     uint16
	Ypanstep     uint16
	Ywrapstep    uint16
	LineLength   uint32
	MmioStart    uintptr
	MmioLen      uint32
	Accel        uint32
	Capabilities uint16
	Reserved     [2]uint16
}

// fbOrder derives the in-memory sample order of a 32 bpp little-endian
// framebuffer from its colour bitfields.
func fbOrder(v *fbVarScreenInfo) (led.ChannelOrder, error) {
	if v.BitsPerPixel != 32 {
		return led.Auto, fmt.Errorf("%w: framebuffer is %d bpp, only 32 is supported", fault.ErrDisplay, v.BitsPerPixel)
	}
	for _, f := range []fbBitField{v.Red, v.Green, v.Blue} {
		if f.Length != 8 || f.Offset%8 != 0 {
			return led.Auto, fmt.Errorf("%w: unsupported framebuffer channel %+v", fault.ErrDisplay, f)
		}
	}
	idx := [3]uint32{v.Red.Offset / 8, v.Green.Offset / 8, v.Blue.Offset / 8}
	switch idx {
	case [3]uint32{2, 1, 0}:
		return led.BGRX, nil
	case [3]uint32{0, 1, 2}:
		return led.RGBX, nil
	case [3]uint32{1, 2, 3}:
		return led.XRGB, nil
	case [3]uint32{3, 2, 1}:
		return led.XBGR, nil
	}
	return led.Auto, fmt.Errorf("%w: unsupported framebuffer layout r=%d g=%d b=%d",
		fault.ErrDisplay, v.Red.Offset, v.Green.Offset, v.Blue.Offset)
}

// fbSurface is the visible area of a mapped framebuffer.
type fbSurface struct {
	mem        []byte
	lineLength int
	xoff, yoff int
	width      int
	height     int
	order      led.ChannelOrder
}

func (s *fbSurface) grab(f *Frame, r Rect) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.X+r.Width > s.width || r.Y+r.Height > s.height {
		return fmt.Errorf("%w: capture rect %s outside framebuffer %dx%d", fault.ErrDisplay, r, s.width, s.height)
	}
	f.reset(r.Width, r.Height, s.order)
	row := r.Width * BytesPerPixel
	for y := 0; y < r.Height; y++ {
		src := (s.yoff+r.Y+y)*s.lineLength + (s.xoff+r.X)*BytesPerPixel
		if src+row > len(s.mem) {
			return fmt.Errorf("%w: framebuffer read past mapping", fault.ErrDisplay)
		}
		copy(f.Pix[y*row:(y+1)*row], s.mem[src:src+row])
	}
	return nil
}

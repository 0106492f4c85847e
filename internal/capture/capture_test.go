package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamishcoleman/led-sp108e/internal/fault"
	"github.com/hamishcoleman/led-sp108e/internal/led"
)

func TestRectValidate(t *testing.T) {
	assert.NoError(t, Rect{Width: 16, Height: 16}.Validate())
	assert.ErrorIs(t, Rect{Width: 0, Height: 16}.Validate(), fault.ErrDisplay)
	assert.ErrorIs(t, Rect{X: -1, Width: 4, Height: 4}.Validate(), fault.ErrDisplay)
	assert.Equal(t, "16x8+2+3", Rect{X: 2, Y: 3, Width: 16, Height: 8}.String())
}

func TestIndexSweepWalksPixels(t *testing.T) {
	p := NewPattern(IndexSweep)
	r := Rect{Width: 2, Height: 2}
	for step := 0; step < 5; step++ {
		f, err := p.Capture(r)
		require.NoError(t, err)
		require.Len(t, f.Pix, 16)
		assert.Equal(t, led.BGRX, f.Order)
		lit := step % 4
		for i := 0; i < 4; i++ {
			want := byte(0)
			if i == lit {
				want = 255
			}
			assert.Equal(t, want, f.Pix[i*4], "step %d pixel %d", step, i)
		}
	}
	assert.Equal(t, 5, p.Step())
}

func TestRGBChannelsCycles(t *testing.T) {
	p := NewPattern(RGBChannels)
	r := Rect{Width: 3, Height: 1}
	for _, want := range [][3]byte{{0, 0, 255}, {0, 255, 0}, {255, 0, 0}} {
		f, err := p.Capture(r)
		require.NoError(t, err)
		px := f.Pixel(2, 0)
		assert.Equal(t, want[:], px[:3])
	}
}

func TestRowSweep(t *testing.T) {
	p := NewPattern(RowSweep)
	f, err := p.Capture(Rect{Width: 2, Height: 3})
	require.NoError(t, err)
	assert.Equal(t, []byte{255, 255, 0, 0}, f.Pixel(1, 0))
	assert.Equal(t, []byte{0, 0, 0, 0}, f.Pixel(1, 1))
}

func TestOpenUnknownSource(t *testing.T) {
	_, err := Open(Options{Kind: "webcam"})
	assert.ErrorIs(t, err, fault.ErrConfig)
	_, err = Open(Options{Kind: "pattern", Pattern: "plaid"})
	assert.ErrorIs(t, err, fault.ErrConfig)

	s, err := Open(Options{Kind: "pattern", Pattern: "rows"})
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}

func TestFBOrder(t *testing.T) {
	mk := func(r, g, b uint32) *fbVarScreenInfo {
		return &fbVarScreenInfo{
			BitsPerPixel: 32,
			Red:          fbBitField{Offset: r, Length: 8},
			Green:        fbBitField{Offset: g, Length: 8},
			Blue:         fbBitField{Offset: b, Length: 8},
		}
	}
	cases := []struct {
		v    *fbVarScreenInfo
		want led.ChannelOrder
	}{
		{mk(16, 8, 0), led.BGRX},
		{mk(0, 8, 16), led.RGBX},
		{mk(8, 16, 24), led.XRGB},
		{mk(24, 16, 8), led.XBGR},
	}
	for _, c := range cases {
		got, err := fbOrder(c.v)
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
	}

	v := mk(16, 8, 0)
	v.BitsPerPixel = 16
	_, err := fbOrder(v)
	assert.ErrorIs(t, err, fault.ErrDisplay)

	_, err = fbOrder(mk(11, 5, 0))
	assert.ErrorIs(t, err, fault.ErrDisplay)
}

func TestFBSurfaceGrab(t *testing.T) {
	// 4x3 visible area, 24-byte lines (two samples of padding).
	const line = 24
	mem := make([]byte, line*3)
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			mem[y*line+x*4] = byte(y*10 + x)
		}
	}
	s := &fbSurface{mem: mem, lineLength: line, width: 4, height: 3, order: led.BGRX}

	var f Frame
	require.NoError(t, s.grab(&f, Rect{X: 1, Y: 1, Width: 2, Height: 2}))
	assert.Equal(t, 2, f.Width)
	assert.Equal(t, led.BGRX, f.Order)
	assert.Equal(t, byte(11), f.Pixel(0, 0)[0])
	assert.Equal(t, byte(12), f.Pixel(1, 0)[0])
	assert.Equal(t, byte(21), f.Pixel(0, 1)[0])

	assert.ErrorIs(t, s.grab(&f, Rect{X: 3, Width: 2, Height: 1}), fault.ErrDisplay)
}

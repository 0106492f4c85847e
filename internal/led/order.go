package led

import (
	"fmt"
	"strings"

	"github.com/hamishcoleman/led-sp108e/internal/fault"
)

// ChannelOrder is the byte layout of one 4-byte captured sample, in memory
// order. X is the padding (or alpha) byte and is ignored.
type ChannelOrder int

const (
	// Auto defers to whatever the frame source reports.
	Auto ChannelOrder = iota
	BGRX
	RGBX
	XRGB
	XBGR
)

var orderNames = map[ChannelOrder]string{
	Auto: "auto",
	BGRX: "bgrx",
	RGBX: "rgbx",
	XRGB: "xrgb",
	XBGR: "xbgr",
}

func (o ChannelOrder) String() string {
	if n, ok := orderNames[o]; ok {
		return n
	}
	return fmt.Sprintf("ChannelOrder(%d)", int(o))
}

// ParseChannelOrder accepts the names above, case-insensitive. "bgra" and
// "rgba" are accepted as aliases.
func ParseChannelOrder(s string) (ChannelOrder, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "":
		return Auto, nil
	case "bgra":
		return BGRX, nil
	case "rgba":
		return RGBX, nil
	case "argb":
		return XRGB, nil
	case "abgr":
		return XBGR, nil
	}
	for o, n := range orderNames {
		if n == v {
			return o, nil
		}
	}
	return Auto, fmt.Errorf("%w: unknown channel order %q", fault.ErrConfig, s)
}

// Offsets returns the byte positions of red, green and blue inside a sample.
// ok is false for Auto or an unknown order.
func (o ChannelOrder) Offsets() (r, g, b int, ok bool) {
	switch o {
	case BGRX:
		return 2, 1, 0, true
	case RGBX:
		return 0, 1, 2, true
	case XRGB:
		return 1, 2, 3, true
	case XBGR:
		return 3, 2, 1, true
	}
	return 0, 0, 0, false
}

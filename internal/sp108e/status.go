package sp108e

import (
	"encoding/binary"
	"fmt"

	"github.com/hamishcoleman/led-sp108e/internal/fault"
)

// statusLen is the size of the sync response.
const statusLen = 17

// Status is the controller state returned for CmdSync.
//
//	[0]     0x38
//	[1]     lamp on/off
//	[2]     mode
//	[3]     speed
//	[4]     brightness
//	[5]     rgb order
//	[6..7]  dots per segment (big-endian)
//	[8..9]  segments (big-endian)
//	[10..12] static colour
//	[13..15] unknown
//	[16]    0x83
type Status struct {
	Lamp           bool
	Mode           Mode
	Speed          byte
	Brightness     byte
	RGBOrder       byte
	DotsPerSegment uint16
	Segments       uint16
	StaticColor    [3]byte
}

// ParseStatus decodes a sync response.
func ParseStatus(b []byte) (*Status, error) {
	if len(b) < statusLen {
		return nil, fmt.Errorf("%w: status is %d bytes, want %d", fault.ErrProtocol, len(b), statusLen)
	}
	if b[0] != frameStart || b[statusLen-1] != frameEnd {
		return nil, fmt.Errorf("%w: status framing % x", fault.ErrProtocol, []byte{b[0], b[statusLen-1]})
	}
	s := &Status{
		Lamp:           b[1] != 0,
		Mode:           Mode(b[2]),
		Speed:          b[3],
		Brightness:     b[4],
		RGBOrder:       b[5],
		DotsPerSegment: binary.BigEndian.Uint16(b[6:8]),
		Segments:       binary.BigEndian.Uint16(b[8:10]),
	}
	copy(s.StaticColor[:], b[10:13])
	return s, nil
}

package sp108e

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/hamishcoleman/led-sp108e/internal/fault"
)

// ─── Packet framing ─────────────────────────────────────────────────────────────
//
// Every command is a fixed 6-byte packet:
//
//	[1B] 0x38        frame start
//	[3B] data        command argument, zero padded
//	[1B] command
//	[1B] 0x83        frame end
//
// Frame payloads for the custom preview are sent raw, without any framing.

// Cmd is an SP108E command byte.
type Cmd byte

const (
	CmdCustomEffect      Cmd = 0x02
	CmdSpeed             Cmd = 0x03
	CmdModeAuto          Cmd = 0x06
	CmdCustomDelete      Cmd = 0x07
	CmdWhiteBrightness   Cmd = 0x08
	CmdSync              Cmd = 0x10
	CmdSetDeviceName     Cmd = 0x14
	CmdSetDevicePassword Cmd = 0x16
	CmdSetICModel        Cmd = 0x1c
	CmdGetRecordNum      Cmd = 0x20
	CmdColor             Cmd = 0x22
	CmdCustomPreview     Cmd = 0x24
	CmdChangePage        Cmd = 0x25
	CmdBrightness        Cmd = 0x2a
	CmdModeChange        Cmd = 0x2c
	CmdDotCount          Cmd = 0x2d
	CmdSecCount          Cmd = 0x2e
	CmdCheckDeviceIsCool Cmd = 0x2f
	CmdSetRGBSeq         Cmd = 0x3c
	CmdCustomRecode      Cmd = 0x4c
	CmdGetDeviceName     Cmd = 0x77
	CmdSetDeviceToAPMode Cmd = 0x88
	CmdToggleLamp        Cmd = 0xaa
	CmdCheckDevice       Cmd = 0xd5
)

const (
	frameStart byte = 0x38
	frameEnd   byte = 0x83

	// PacketLen is the size of every command packet.
	PacketLen = 6
	// AckOK is the controller's "ready for the next frame" byte.
	AckOK byte = 0x31
	// AckBufSize bounds a single acknowledgment read.
	AckBufSize = 10

	// MaxDotCount is the largest dots-per-segment the controller keeps;
	// anything outside 1..MaxDotCount is silently reset to 0x32.
	MaxDotCount = 0x697
)

// Responds reports whether the controller answers cmd. Commands not listed
// are treated as fire-and-forget.
func Responds(cmd Cmd) bool {
	switch cmd {
	case CmdCheckDevice, CmdGetDeviceName, CmdSync, CmdCustomPreview:
		return true
	}
	return false
}

// Packet builds the framed packet for cmd. data is at most 3 bytes and is
// zero padded.
func Packet(cmd Cmd, data ...byte) ([]byte, error) {
	if len(data) > 3 {
		return nil, fmt.Errorf("%w: command 0x%02x data is %d bytes, max 3", fault.ErrConfig, byte(cmd), len(data))
	}
	pkt := make([]byte, PacketLen)
	pkt[0] = frameStart
	copy(pkt[1:4], data)
	pkt[4] = byte(cmd)
	pkt[5] = frameEnd
	return pkt, nil
}

// mustPacket is for builders whose data length is fixed.
func mustPacket(cmd Cmd, data ...byte) []byte {
	pkt, err := Packet(cmd, data...)
	if err != nil {
		panic(err)
	}
	return pkt
}

// PreviewPacket starts custom preview streaming: 38 00 00 00 24 83.
func PreviewPacket() []byte { return mustPacket(CmdCustomPreview) }

// SyncPacket requests the status block (see ParseStatus).
func SyncPacket() []byte { return mustPacket(CmdSync) }

// DeviceNamePacket requests the device name.
func DeviceNamePacket() []byte { return mustPacket(CmdGetDeviceName) }

// ToggleLampPacket switches the output on or off.
func ToggleLampPacket() []byte { return mustPacket(CmdToggleLamp) }

func SpeedPacket(v byte) []byte      { return mustPacket(CmdSpeed, v) }
func BrightnessPacket(v byte) []byte { return mustPacket(CmdBrightness, v) }
func ICModelPacket(v byte) []byte    { return mustPacket(CmdSetICModel, v) }

// ColorPacket sets the colour used by the single-colour modes.
func ColorPacket(r, g, b byte) []byte { return mustPacket(CmdColor, r, g, b) }

// ModePacket selects a display mode. ModeAuto has its own command.
func ModePacket(m Mode) []byte {
	if m == ModeAuto {
		return mustPacket(CmdModeAuto)
	}
	return mustPacket(CmdModeChange, byte(m))
}

// CheckDevicePacket carries a 24-bit little-endian challenge.
func CheckDevicePacket(challenge uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], challenge)
	return mustPacket(CmdCheckDevice, b[:3]...)
}

// DotCountPacket configures LEDs per segment (little-endian).
func DotCountPacket(n uint16) ([]byte, error) {
	if n == 0 || n > MaxDotCount {
		return nil, fmt.Errorf("%w: dot count %d outside 1..%d", fault.ErrConfig, n, MaxDotCount)
	}
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], n)
	return mustPacket(CmdDotCount, b[:]...), nil
}

// SecCountPacket configures the number of segments (little-endian).
func SecCountPacket(n uint16) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], n)
	return mustPacket(CmdSecCount, b[:]...)
}

// ─── Modes ──────────────────────────────────────────────────────────────────────

// Mode is a built-in display pattern. Modes 205..212 use the single colour
// set with ColorPacket.
type Mode byte

const (
	ModeMeteor       Mode = 205
	ModeBreathing    Mode = 206
	ModeStack        Mode = 207
	ModeFlow         Mode = 208
	ModeWave         Mode = 209
	ModeFlash        Mode = 210
	ModeStatic       Mode = 211
	ModeCatchup      Mode = 212
	ModeCustomEffect Mode = 219
	ModeAuto         Mode = 0xfc
)

var modeNames = map[Mode]string{
	ModeMeteor:       "meteor",
	ModeBreathing:    "breathing",
	ModeStack:        "stack",
	ModeFlow:         "flow",
	ModeWave:         "wave",
	ModeFlash:        "flash",
	ModeStatic:       "static",
	ModeCatchup:      "catch-up",
	ModeCustomEffect: "custom_effect",
	ModeAuto:         "auto",
}

// String returns the mode name, or "" for the numbered multi-colour modes.
func (m Mode) String() string { return modeNames[m] }

// ParseMode accepts a mode name or a number (decimal or 0x hex).
func ParseMode(s string) (Mode, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for m, n := range modeNames {
		if n == v {
			return m, nil
		}
	}
	n, err := strconv.ParseUint(v, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: unknown mode %q", fault.ErrConfig, s)
	}
	return Mode(n), nil
}

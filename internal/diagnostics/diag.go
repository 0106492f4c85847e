package diagnostics

import (
	"errors"

	"github.com/hamishcoleman/led-sp108e/internal/fault"
)

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

type Diagnostic struct {
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

// FromError describes a failed run for the preview's diagnostics feed.
func FromError(err error) Diagnostic {
	d := Diagnostic{Severity: Err, Detail: err.Error(), Evidence: map[string]any{"kind": fault.Kind(err)}}
	switch {
	case errors.Is(err, fault.ErrDisplay):
		d.Code = "CAPTURE.FAILED"
		d.Summary = "Could not capture the screen region"
		d.LikelyCauses = []string{"no display available", "grab region outside the screen", "framebuffer not readable"}
		d.SuggestedFixes = []string{"check DISPLAY or source.device", "shrink grab.x/grab.y"}
	case errors.Is(err, fault.ErrResolve):
		d.Code = "NET.RESOLVE"
		d.Summary = "Controller host name did not resolve"
		d.SuggestedFixes = []string{"use the controller IP address (192.168.4.1 in AP mode)"}
	case errors.Is(err, fault.ErrSocket):
		d.Code = "NET.SOCKET"
		d.Summary = "Connection to the controller failed"
		d.LikelyCauses = []string{"not joined to the controller's Wi-Fi", "controller rebooted", "timeout too short"}
		d.SuggestedFixes = []string{"ping the controller", "raise timeout"}
	case errors.Is(err, fault.ErrProtocol):
		d.Code = "PROTO.ACK"
		d.Summary = "Controller sent an unexpected reply"
		d.LikelyCauses = []string{"frame size does not match the controller's dot count"}
		d.SuggestedFixes = []string{"check frame_bytes and stride_bytes", "set strict_ack: false"}
	case errors.Is(err, fault.ErrConfig):
		d.Code = "CONFIG.INVALID"
		d.Summary = "Configuration rejected"
	case errors.Is(err, fault.ErrDevice):
		d.Code = "DEVICE.SPI"
		d.Summary = "Local LED device failed"
		d.SuggestedFixes = []string{"check spi.port and permissions on /dev/spidev*"}
	default:
		d.Code = "RUN.FAILED"
		d.Summary = "Streaming stopped"
	}
	return d
}

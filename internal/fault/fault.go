// Package fault defines the error kinds the streamer reports. Every error
// leaving a package wraps exactly one of these so callers can classify it
// with errors.Is.
package fault

import "errors"

var (
	// ErrDisplay: the display cannot be opened or captured.
	ErrDisplay = errors.New("display error")
	// ErrResolve: the controller host name did not resolve.
	ErrResolve = errors.New("resolve error")
	// ErrSocket: creating, connecting, writing or reading the socket failed.
	ErrSocket = errors.New("socket error")
	// ErrConfig: geometry, stride or another setting is inconsistent.
	ErrConfig = errors.New("config error")
	// ErrProtocol: the controller answered with something unexpected.
	ErrProtocol = errors.New("protocol error")
	// ErrDevice: a locally attached output (SPI strip) failed.
	ErrDevice = errors.New("device error")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrDisplay, "display"},
	{ErrResolve, "resolve"},
	{ErrSocket, "socket"},
	{ErrConfig, "config"},
	{ErrProtocol, "protocol"},
	{ErrDevice, "device"},
}

// Kind returns a short name for the kind err wraps, or "unknown".
func Kind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "unknown"
}

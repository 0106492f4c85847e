//go:build linux

package sp108e

import (
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// segmentControl sets TCP_MAXSEG on the socket before connect. Failure is
// logged and ignored.
func segmentControl(mss int, log zerolog.Logger) func(network, address string, c syscall.RawConn) error {
	if mss <= 0 {
		return nil
	}
	return func(network, address string, c syscall.RawConn) error {
		var serr error
		err := c.Control(func(fd uintptr) {
			serr = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_MAXSEG, mss)
		})
		if err == nil {
			err = serr
		}
		if err != nil {
			log.Warn().Err(err).Int("max_seg", mss).Msg("TCP_MAXSEG hint ignored")
		}
		return nil
	}
}

//go:build !linux

package sp108e

import (
	"syscall"

	"github.com/rs/zerolog"
)

func segmentControl(mss int, log zerolog.Logger) func(network, address string, c syscall.RawConn) error {
	if mss > 0 {
		log.Debug().Int("max_seg", mss).Msg("TCP_MAXSEG hint not supported here")
	}
	return nil
}

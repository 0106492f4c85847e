package diagnostics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hamishcoleman/led-sp108e/internal/fault"
)

func TestFromError(t *testing.T) {
	cases := []struct {
		err  error
		code string
	}{
		{fmt.Errorf("%w: :0", fault.ErrDisplay), "CAPTURE.FAILED"},
		{fmt.Errorf("%w: sp108e.lan", fault.ErrResolve), "NET.RESOLVE"},
		{fmt.Errorf("frame 3: %w", fault.ErrSocket), "NET.SOCKET"},
		{fmt.Errorf("%w: ack 0x00", fault.ErrProtocol), "PROTO.ACK"},
		{fault.ErrConfig, "CONFIG.INVALID"},
		{fault.ErrDevice, "DEVICE.SPI"},
		{errors.New("boom"), "RUN.FAILED"},
	}
	for _, c := range cases {
		d := FromError(c.err)
		assert.Equal(t, c.code, d.Code, c.err.Error())
		assert.Equal(t, Err, d.Severity)
		assert.Equal(t, c.err.Error(), d.Detail)
		assert.NotEmpty(t, d.Summary)
	}
	assert.Equal(t, "unknown", FromError(errors.New("x")).Evidence["kind"])
}

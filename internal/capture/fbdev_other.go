//go:build !linux

package capture

import (
	"fmt"

	"github.com/hamishcoleman/led-sp108e/internal/fault"
)

type FBDev struct{}

func OpenFBDev(path string) (*FBDev, error) {
	return nil, fmt.Errorf("%w: framebuffer capture not supported on this platform", fault.ErrDisplay)
}

func (d *FBDev) Capture(r Rect) (*Frame, error) {
	return nil, fmt.Errorf("%w: framebuffer capture not supported on this platform", fault.ErrDisplay)
}

func (d *FBDev) Close() error { return nil }

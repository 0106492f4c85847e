//go:build linux

package capture

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/hamishcoleman/led-sp108e/internal/fault"
)

const (
	fbioGetVScreenInfo = 0x4600
	fbioGetFScreenInfo = 0x4602
)

// FBDev captures from a memory-mapped Linux framebuffer.
type FBDev struct {
	fd    int
	path  string
	surf  fbSurface
	frame Frame
}

func ioctl(fd int, req uintptr, arg unsafe.Pointer) error {
	if _, _, e := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg)); e != 0 {
		return e
	}
	return nil
}

// OpenFBDev maps the framebuffer at path read-only.
func OpenFBDev(path string) (*FBDev, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", fault.ErrDisplay, path, err)
	}
	var v fbVarScreenInfo
	if err := ioctl(fd, fbioGetVScreenInfo, unsafe.Pointer(&v)); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("%w: FBIOGET_VSCREENINFO: %w", fault.ErrDisplay, err)
	}
	var fix fbFixScreenInfo
	if err := ioctl(fd, fbioGetFScreenInfo, unsafe.Pointer(&fix)); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("%w: FBIOGET_FSCREENINFO: %w", fault.ErrDisplay, err)
	}
	order, err := fbOrder(&v)
	if err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	size := int(fix.LineLength) * int(v.YresVirtual)
	if fix.SmemLen > 0 && int(fix.SmemLen) < size {
		size = int(fix.SmemLen)
	}
	mem, err := unix.Mmap(fd, 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("%w: mmap %s: %w", fault.ErrDisplay, path, err)
	}
	return &FBDev{
		fd:   fd,
		path: path,
		surf: fbSurface{
			mem:        mem,
			lineLength: int(fix.LineLength),
			xoff:       int(v.Xoffset),
			yoff:       int(v.Yoffset),
			width:      int(v.Xres),
			height:     int(v.Yres),
			order:      order,
		},
	}, nil
}

func (d *FBDev) Capture(r Rect) (*Frame, error) {
	if d.surf.mem == nil {
		return nil, fmt.Errorf("%w: %s is closed", fault.ErrDisplay, d.path)
	}
	if err := d.surf.grab(&d.frame, r); err != nil {
		return nil, err
	}
	return &d.frame, nil
}

func (d *FBDev) Close() error {
	var err error
	if d.surf.mem != nil {
		err = unix.Munmap(d.surf.mem)
		d.surf.mem = nil
	}
	if d.fd >= 0 {
		if cerr := unix.Close(d.fd); err == nil {
			err = cerr
		}
		d.fd = -1
	}
	return err
}

package led

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"

	"github.com/hamishcoleman/led-sp108e/internal/fault"
)

// DefaultSPIFreq is the WS2812b bit rate.
const DefaultSPIFreq = 800 * physic.KiloHertz

// SPI drives a WS281x strip wired to a local SPI port through nrzled.
type SPI struct {
	mu     sync.Mutex
	port   spi.PortCloser
	dev    *nrzled.Dev
	count  int
	stride int
	rgb    []byte

	// WhiteCap limits per-LED brightness, see WhiteCap. 0 disables it.
	WhiteCap float64
}

// NewSPI opens the named SPI port ("" picks the first one) for count LEDs
// fed from frames laid out with the given stride.
func NewSPI(name string, count, stride int, freq physic.Frequency) (*SPI, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%w: periph host init: %w", fault.ErrDevice, err)
	}
	p, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%w: open spi %q: %w", fault.ErrDevice, name, err)
	}
	s, err := NewSPIPort(p, count, stride, freq)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	s.port = p
	return s, nil
}

// NewSPIPort wraps an already opened port. The caller keeps ownership of p.
func NewSPIPort(p spi.Port, count, stride int, freq physic.Frequency) (*SPI, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: invalid LED count: %d", fault.ErrConfig, count)
	}
	if stride < 3 {
		return nil, fmt.Errorf("%w: invalid stride: %d", fault.ErrConfig, stride)
	}
	if freq == 0 {
		freq = DefaultSPIFreq
	}
	d, err := nrzled.NewSPI(p, &nrzled.Opts{NumPixels: count, Channels: 3, Freq: freq})
	if err != nil {
		return nil, fmt.Errorf("%w: nrzled: %w", fault.ErrDevice, err)
	}
	return &SPI{dev: d, count: count, stride: stride, rgb: make([]byte, 0, count*3)}, nil
}

func (s *SPI) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dev == nil {
		return "nrzled{closed}"
	}
	return s.dev.String()
}

// Begin blanks the strip.
func (s *SPI) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.dev.Halt(); err != nil {
		return fmt.Errorf("%w: spi halt: %w", fault.ErrDevice, err)
	}
	return nil
}

func (s *SPI) Write(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dev == nil {
		return fmt.Errorf("%w: SPI closed", fault.ErrDevice)
	}
	s.rgb = Compact(s.rgb, frame, s.count, s.stride)
	WhiteCap(s.rgb, s.WhiteCap)
	if _, err := s.dev.Write(s.rgb); err != nil {
		return fmt.Errorf("%w: spi write: %w", fault.ErrDevice, err)
	}
	return nil
}

func (s *SPI) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dev == nil {
		return nil
	}
	err := s.dev.Halt()
	s.dev = nil
	if s.port != nil {
		if cerr := s.port.Close(); err == nil {
			err = cerr
		}
		s.port = nil
	}
	return err
}

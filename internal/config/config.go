package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hamishcoleman/led-sp108e/internal/capture"
	"github.com/hamishcoleman/led-sp108e/internal/fault"
	"github.com/hamishcoleman/led-sp108e/internal/layout"
	"github.com/hamishcoleman/led-sp108e/internal/led"
	"github.com/hamishcoleman/led-sp108e/internal/render"
	"github.com/hamishcoleman/led-sp108e/internal/sp108e"
)

const DefaultPath = "sp108e.yaml"

type Grab struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type Source struct {
	Kind    string `yaml:"kind"`              // "screen" | "fbdev" | "pattern"
	Display int    `yaml:"display"`           // screen index
	Device  string `yaml:"device,omitempty"`  // e.g. /dev/fb0
	Pattern string `yaml:"pattern,omitempty"` // index_sweep | rgb_channels | rows
}

type SPI struct {
	Port     string  `yaml:"port,omitempty"` // periph spireg name, "" = first
	FreqKHz  int     `yaml:"freq_khz"`
	WhiteCap float64 `yaml:"white_cap"` // 0 = off
}

type Preview struct {
	Addr string `yaml:"addr,omitempty"` // e.g. :8080, "" = off
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" | "json"
}

type Config struct {
	Host      string        `yaml:"host"`
	Port      int           `yaml:"port"`
	Timeout   time.Duration `yaml:"timeout"`
	MaxSeg    int           `yaml:"max_seg"` // 0 = frame_bytes
	StrictAck bool          `yaml:"strict_ack"`

	Grab         Grab   `yaml:"grab"`
	StrideBytes  int    `yaml:"stride_bytes"` // 0 = derive from frame_bytes
	FrameBytes   int    `yaml:"frame_bytes"`
	ChannelOrder string `yaml:"channel_order"`
	Traversal    string `yaml:"traversal"`

	Source     Source  `yaml:"source"`
	Driver     string  `yaml:"driver"` // "sp108e" | "spi" | "sim"
	SPI        SPI     `yaml:"spi"`
	Brightness int     `yaml:"brightness"` // -1 = leave the controller alone
	Preview    Preview `yaml:"preview"`
	Log        Log     `yaml:"log"`
}

// Defaults match the stock controller in AP mode driving a 16x16 panel.
func Defaults() *Config {
	return &Config{
		Host:         sp108e.DefaultHost,
		Port:         sp108e.DefaultPort,
		Timeout:      sp108e.DefaultTimeout,
		StrictAck:    true,
		Grab:         Grab{Width: 16, Height: 16},
		FrameBytes:   900,
		ChannelOrder: led.Auto.String(),
		Traversal:    layout.Serpentine.String(),
		Source:       Source{Kind: "screen"},
		Driver:       "sp108e",
		SPI:          SPI{FreqKHz: 800, WhiteCap: 0.85},
		Brightness:   -1,
		Log:          Log{Level: "info", Format: "console"},
	}
}

// Load reads path over the defaults. A missing file is not an error; found
// reports whether it existed.
func Load(path string) (c *Config, found bool, err error) {
	c = Defaults()
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return c, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: %s: %w", fault.ErrConfig, path, err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, true, fmt.Errorf("%w: %s: %w", fault.ErrConfig, path, err)
	}
	return c, true, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Rect is the capture region.
func (c *Config) Rect() capture.Rect {
	return capture.Rect{X: c.Grab.X, Y: c.Grab.Y, Width: c.Grab.Width, Height: c.Grab.Height}
}

// Layout parses the traversal for the grab size.
func (c *Config) Layout() (layout.Layout, error) {
	order, err := layout.ParseOrder(c.Traversal)
	if err != nil {
		return layout.Layout{}, err
	}
	return layout.Layout{Width: c.Grab.Width, Height: c.Grab.Height, Order: order}, nil
}

// Stride is stride_bytes, or the largest whole-triplet slot that fits
// frame_bytes when it is 0.
func (c *Config) Stride() int {
	if c.StrideBytes > 0 {
		return c.StrideBytes
	}
	pixels := c.Grab.Width * c.Grab.Height
	if pixels <= 0 {
		return 0
	}
	return c.FrameBytes / 3 / pixels * 3
}

// MaxSegment is the TCP_MAXSEG hint: max_seg, else the frame size.
func (c *Config) MaxSegment() int {
	if c.MaxSeg > 0 {
		return c.MaxSeg
	}
	return c.FrameBytes
}

// Packer builds the repacker for this geometry.
func (c *Config) Packer() (*render.Packer, error) {
	l, err := c.Layout()
	if err != nil {
		return nil, err
	}
	order, err := led.ParseChannelOrder(c.ChannelOrder)
	if err != nil {
		return nil, err
	}
	return render.NewPacker(l, order, c.Stride(), c.FrameBytes)
}

// SourceOptions maps the source section onto capture.Options.
func (c *Config) SourceOptions() capture.Options {
	return capture.Options{
		Kind:    c.Source.Kind,
		Display: c.Source.Display,
		Device:  c.Source.Device,
		Pattern: c.Source.Pattern,
	}
}

// Validate checks everything that can be checked without opening devices.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d", fault.ErrConfig, c.Port)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: negative timeout %s", fault.ErrConfig, c.Timeout)
	}
	if c.FrameBytes <= 0 {
		return fmt.Errorf("%w: frame_bytes %d", fault.ErrConfig, c.FrameBytes)
	}
	if g := c.Grab; g.Width <= 0 || g.Height <= 0 || g.X < 0 || g.Y < 0 {
		return fmt.Errorf("%w: grab %s", fault.ErrConfig, c.Rect())
	}
	if c.Brightness < -1 || c.Brightness > 255 {
		return fmt.Errorf("%w: brightness %d outside -1..255", fault.ErrConfig, c.Brightness)
	}
	switch c.Driver {
	case "sp108e", "spi", "sim":
	default:
		return fmt.Errorf("%w: unknown driver %q", fault.ErrConfig, c.Driver)
	}
	if c.SPI.WhiteCap < 0 || c.SPI.WhiteCap > 1 {
		return fmt.Errorf("%w: spi.white_cap %g outside 0..1", fault.ErrConfig, c.SPI.WhiteCap)
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", fault.ErrConfig, c.Log.Format)
	}
	if _, err := c.Packer(); err != nil {
		return err
	}
	return nil
}

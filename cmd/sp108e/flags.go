package main

import (
	"github.com/spf13/pflag"

	"github.com/hamishcoleman/led-sp108e/internal/config"
)

// bindFlags registers one flag per config key, defaulting to c.
func bindFlags(fs *pflag.FlagSet, c *config.Config) {
	fs.StringVar(&c.Host, "host", c.Host, "controller host or IP")
	fs.IntVar(&c.Port, "port", c.Port, "controller TCP port")
	fs.DurationVar(&c.Timeout, "timeout", c.Timeout, "per send/receive timeout (0 = none)")
	fs.IntVar(&c.MaxSeg, "max-seg", c.MaxSeg, "TCP_MAXSEG hint (0 = frame size)")
	fs.BoolVar(&c.StrictAck, "strict-ack", c.StrictAck, "fail on any acknowledgment other than 0x31")

	fs.IntVarP(&c.Grab.X, "grab-x", "x", c.Grab.X, "capture origin X")
	fs.IntVarP(&c.Grab.Y, "grab-y", "y", c.Grab.Y, "capture origin Y")
	fs.IntVarP(&c.Grab.Width, "width", "W", c.Grab.Width, "capture width (LED columns)")
	fs.IntVarP(&c.Grab.Height, "height", "H", c.Grab.Height, "capture height (LED rows)")
	fs.IntVar(&c.StrideBytes, "stride", c.StrideBytes, "bytes per LED in the frame (0 = derive)")
	fs.IntVar(&c.FrameBytes, "frame-bytes", c.FrameBytes, "frame size the controller expects")
	fs.StringVar(&c.ChannelOrder, "channel-order", c.ChannelOrder, "source byte order: auto|bgrx|rgbx|xrgb|xbgr")
	fs.StringVar(&c.Traversal, "traversal", c.Traversal, "LED wiring: serpentine|row_major")

	fs.StringVar(&c.Source.Kind, "source", c.Source.Kind, "frame source: screen|fbdev|pattern")
	fs.IntVar(&c.Source.Display, "display", c.Source.Display, "screen index")
	fs.StringVar(&c.Source.Device, "device", c.Source.Device, "framebuffer device")
	fs.StringVar(&c.Source.Pattern, "pattern", c.Source.Pattern, "test pattern: index_sweep|rgb_channels|rows")

	fs.StringVarP(&c.Driver, "driver", "d", c.Driver, "output: sp108e|spi|sim")
	fs.StringVar(&c.SPI.Port, "spi-port", c.SPI.Port, "SPI port for driver=spi")
	fs.IntVar(&c.SPI.FreqKHz, "spi-freq-khz", c.SPI.FreqKHz, "WS281x bit rate for driver=spi")
	fs.Float64Var(&c.SPI.WhiteCap, "spi-white-cap", c.SPI.WhiteCap, "per-LED white limit 0..1 for driver=spi (0 = off)")
	fs.IntVar(&c.Brightness, "brightness", c.Brightness, "set controller brightness before streaming (-1 = leave)")
	fs.StringVar(&c.Preview.Addr, "preview", c.Preview.Addr, "serve the websocket preview on this address")

	fs.StringVar(&c.Log.Level, "log-level", c.Log.Level, "debug|info|warn|error")
	fs.StringVar(&c.Log.Format, "log-format", c.Log.Format, "console|json")
}

// overrides copies one flag's value from src to dst.
var overrides = map[string]func(dst, src *config.Config){
	"host":          func(d, s *config.Config) { d.Host = s.Host },
	"port":          func(d, s *config.Config) { d.Port = s.Port },
	"timeout":       func(d, s *config.Config) { d.Timeout = s.Timeout },
	"max-seg":       func(d, s *config.Config) { d.MaxSeg = s.MaxSeg },
	"strict-ack":    func(d, s *config.Config) { d.StrictAck = s.StrictAck },
	"grab-x":        func(d, s *config.Config) { d.Grab.X = s.Grab.X },
	"grab-y":        func(d, s *config.Config) { d.Grab.Y = s.Grab.Y },
	"width":         func(d, s *config.Config) { d.Grab.Width = s.Grab.Width },
	"height":        func(d, s *config.Config) { d.Grab.Height = s.Grab.Height },
	"stride":        func(d, s *config.Config) { d.StrideBytes = s.StrideBytes },
	"frame-bytes":   func(d, s *config.Config) { d.FrameBytes = s.FrameBytes },
	"channel-order": func(d, s *config.Config) { d.ChannelOrder = s.ChannelOrder },
	"traversal":     func(d, s *config.Config) { d.Traversal = s.Traversal },
	"source":        func(d, s *config.Config) { d.Source.Kind = s.Source.Kind },
	"display":       func(d, s *config.Config) { d.Source.Display = s.Source.Display },
	"device":        func(d, s *config.Config) { d.Source.Device = s.Source.Device },
	"pattern":       func(d, s *config.Config) { d.Source.Pattern = s.Source.Pattern },
	"driver":        func(d, s *config.Config) { d.Driver = s.Driver },
	"spi-port":      func(d, s *config.Config) { d.SPI.Port = s.SPI.Port },
	"spi-freq-khz":  func(d, s *config.Config) { d.SPI.FreqKHz = s.SPI.FreqKHz },
	"spi-white-cap": func(d, s *config.Config) { d.SPI.WhiteCap = s.SPI.WhiteCap },
	"brightness":    func(d, s *config.Config) { d.Brightness = s.Brightness },
	"preview":       func(d, s *config.Config) { d.Preview.Addr = s.Preview.Addr },
	"log-level":     func(d, s *config.Config) { d.Log.Level = s.Log.Level },
	"log-format":    func(d, s *config.Config) { d.Log.Format = s.Log.Format },
}

// applyFlags lets flags given on the command line win over the file.
func applyFlags(fs *pflag.FlagSet, dst, src *config.Config) {
	fs.Visit(func(f *pflag.Flag) {
		if o, ok := overrides[f.Name]; ok {
			o(dst, src)
		}
	})
}

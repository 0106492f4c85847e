package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamishcoleman/led-sp108e/internal/fault"
	"github.com/hamishcoleman/led-sp108e/internal/layout"
)

func TestDefaults(t *testing.T) {
	c := Defaults()
	require.NoError(t, c.Validate())
	assert.Equal(t, "192.168.4.1", c.Host)
	assert.Equal(t, 8189, c.Port)
	assert.Equal(t, 3, c.Stride())
	assert.Equal(t, 900, c.MaxSegment())
	assert.True(t, c.StrictAck)

	l, err := c.Layout()
	require.NoError(t, err)
	assert.Equal(t, layout.Layout{Width: 16, Height: 16, Order: layout.Serpentine}, l)
}

func TestStrideDerivation(t *testing.T) {
	cases := []struct {
		w, h, frame, want int
	}{
		{16, 16, 900, 3},
		{8, 8, 960, 15},
		{8, 8, 900, 12},
		{10, 1, 900, 90},
		{1, 300, 900, 3},
	}
	for _, c := range cases {
		cfg := Defaults()
		cfg.Grab = Grab{Width: c.w, Height: c.h}
		cfg.FrameBytes = c.frame
		assert.Equal(t, c.want, cfg.Stride(), "%dx%d/%d", c.w, c.h, c.frame)
		assert.NoError(t, cfg.Validate())
	}

	cfg := Defaults()
	cfg.StrideBytes = 6
	cfg.Grab = Grab{Width: 8, Height: 8}
	assert.Equal(t, 6, cfg.Stride())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	c, found, err := Load(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, Defaults(), c)

	path := filepath.Join(dir, "sp108e.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
host: sp108e.lan
timeout: 2s
grab: {x: 100, y: 50, width: 8, height: 8}
frame_bytes: 960
traversal: row_major
channel_order: bgrx
strict_ack: false
`), 0644))

	c, found, err = Load(path)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "sp108e.lan", c.Host)
	assert.Equal(t, 8189, c.Port)
	assert.Equal(t, 2*time.Second, c.Timeout)
	assert.Equal(t, Grab{X: 100, Y: 50, Width: 8, Height: 8}, c.Grab)
	assert.Equal(t, 15, c.Stride())
	assert.False(t, c.StrictAck)
	require.NoError(t, c.Validate())

	p, err := c.Packer()
	require.NoError(t, err)
	assert.Equal(t, 960, p.Capacity())
	assert.Equal(t, layout.RowMajor, p.Layout().Order)

	require.NoError(t, os.WriteFile(path, []byte("grab: [1, 2"), 0644))
	_, _, err = Load(path)
	assert.ErrorIs(t, err, fault.ErrConfig)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	c := Defaults()
	c.Preview.Addr = ":8080"
	require.NoError(t, Save(path, c))

	got, found, err := Load(path)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, c, got)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(c *Config){
		"port":        func(c *Config) { c.Port = 0 },
		"grab":        func(c *Config) { c.Grab.Width = 0 },
		"origin":      func(c *Config) { c.Grab.X = -1 },
		"overflow":    func(c *Config) { c.Grab = Grab{Width: 32, Height: 32} },
		"stride":      func(c *Config) { c.StrideBytes = 2 },
		"traversal":   func(c *Config) { c.Traversal = "zigzag" },
		"order":       func(c *Config) { c.ChannelOrder = "grb" },
		"driver":      func(c *Config) { c.Driver = "pwm" },
		"brightness":  func(c *Config) { c.Brightness = 300 },
		"frame_bytes": func(c *Config) { c.FrameBytes = 0 },
		"log":         func(c *Config) { c.Log.Format = "xml" },
	}
	for name, mutate := range cases {
		c := Defaults()
		mutate(c)
		assert.ErrorIs(t, c.Validate(), fault.ErrConfig, name)
	}
}

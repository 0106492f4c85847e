package main

import (
	"bytes"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamishcoleman/led-sp108e/internal/config"
	"github.com/hamishcoleman/led-sp108e/internal/sp108e"
)

func TestInitConfigAppliesFlags(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.yaml")

	var stdout, stderr bytes.Buffer
	code := run([]string{
		"--config", filepath.Join(dir, "none.yaml"),
		"--host", "10.0.0.7", "-W", "8", "-H", "8", "--frame-bytes", "960",
		"init-config", out,
	}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	c, found, err := config.Load(out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "10.0.0.7", c.Host)
	assert.Equal(t, 8, c.Grab.Width)
	assert.Equal(t, 15, c.Stride())
}

func TestFlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.yaml")
	require.NoError(t, os.WriteFile(in, []byte("host: from-file\nport: 9000\n"), 0644))
	out := filepath.Join(dir, "out.yaml")

	var stdout, stderr bytes.Buffer
	code := run([]string{"--config", in, "--port", "9001", "init-config", out}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	c, _, err := config.Load(out)
	require.NoError(t, err)
	assert.Equal(t, "from-file", c.Host)
	assert.Equal(t, 9001, c.Port)
}

func TestErrorsExitOne(t *testing.T) {
	dir := t.TempDir()
	none := filepath.Join(dir, "none.yaml")
	cases := [][]string{
		{"--config", none, "frobnicate"},
		{"--config", none, "--width", "64", "--source", "pattern", "stream"},
		{"--config", none, "--log-level", "loud", "stream"},
		{"--config", none, "--host", "no-such-host.invalid", "status"},
	}
	for _, args := range cases {
		var stdout, stderr bytes.Buffer
		assert.Equal(t, 1, run(args, &stdout, &stderr), args)
		assert.Contains(t, stderr.String(), "sp108e: ", args)
	}
}

// fakeController answers one request on a loopback port.
func fakeController(t *testing.T, reply []byte) (int, <-chan []byte) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	got := make(chan []byte, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		pkt := make([]byte, sp108e.PacketLen)
		if _, err := io.ReadFull(c, pkt); err != nil {
			return
		}
		got <- pkt
		if reply != nil {
			_, _ = c.Write(reply)
		}
	}()
	return ln.Addr().(*net.TCPAddr).Port, got
}

func TestStatusCommand(t *testing.T) {
	raw := []byte{0x38, 0x01, 0xfc, 0x01, 0x0a, 0x02, 0x00, 0x3c, 0x00, 0x01, 0xb3, 0x00, 0xff, 0x03, 0x00, 0xff, 0x83}
	port, got := fakeController(t, raw)

	var stdout, stderr bytes.Buffer
	code := run([]string{"--config", filepath.Join(t.TempDir(), "none.yaml"),
		"--host", "127.0.0.1", "--port", strconv.Itoa(port), "status"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Equal(t, sp108e.SyncPacket(), <-got)
	assert.Contains(t, stdout.String(), "mode:        auto (0xfc)")
	assert.Contains(t, stdout.String(), "dots/seg:    60")
	assert.Contains(t, stdout.String(), "color:       b300ff")
}

func TestBrightnessCommand(t *testing.T) {
	port, got := fakeController(t, nil)

	var stdout, stderr bytes.Buffer
	code := run([]string{"--config", filepath.Join(t.TempDir(), "none.yaml"),
		"--host", "127.0.0.1", "--port", strconv.Itoa(port), "brightness", "0x40"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Equal(t, sp108e.BrightnessPacket(0x40), <-got)
}

func TestParseByte(t *testing.T) {
	v, err := parseByte("0x2a")
	require.NoError(t, err)
	assert.Equal(t, byte(0x2a), v)

	_, err = parseByte("256")
	assert.Error(t, err)
}

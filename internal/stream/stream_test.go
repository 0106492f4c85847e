package stream

import (
	"bytes"
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamishcoleman/led-sp108e/internal/capture"
	"github.com/hamishcoleman/led-sp108e/internal/fault"
	"github.com/hamishcoleman/led-sp108e/internal/layout"
	"github.com/hamishcoleman/led-sp108e/internal/led"
	"github.com/hamishcoleman/led-sp108e/internal/render"
	"github.com/hamishcoleman/led-sp108e/internal/sp108e"
)

type fakeDriver struct {
	begun    bool
	beginErr error
	frames   [][]byte
	failAt   int
	cancelAt int
	cancel   context.CancelFunc
}

func (d *fakeDriver) Begin() error {
	d.begun = true
	return d.beginErr
}

func (d *fakeDriver) Write(frame []byte) error {
	if d.failAt > 0 && len(d.frames)+1 == d.failAt {
		return fault.ErrSocket
	}
	d.frames = append(d.frames, append([]byte(nil), frame...))
	if d.cancelAt > 0 && len(d.frames) == d.cancelAt {
		d.cancel()
	}
	return nil
}

func (d *fakeDriver) Close() error { return nil }

type failingSource struct{}

func (failingSource) Capture(capture.Rect) (*capture.Frame, error) {
	return nil, fault.ErrDisplay
}
func (failingSource) Close() error { return nil }

type recordTap struct{ n int }

func (t *recordTap) Publish(frame []byte, fps int64) { t.n++ }

func newLoop(t *testing.T, d led.Driver, src capture.Source) *Loop {
	t.Helper()
	p, err := render.NewPacker(layout.Layout{Width: 2, Height: 2}, led.Auto, 3, 12)
	require.NoError(t, err)
	return &Loop{
		Source: src,
		Rect:   capture.Rect{Width: 2, Height: 2},
		Packer: p,
		Driver: d,
		Log:    zerolog.Nop(),
	}
}

func TestLoopStreamsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d := &fakeDriver{cancelAt: 5, cancel: cancel}
	tap := &recordTap{}
	l := newLoop(t, d, capture.NewPattern(capture.IndexSweep))
	l.Tap = tap

	require.NoError(t, l.Run(ctx))
	assert.True(t, d.begun)
	assert.Equal(t, Streaming, l.State())
	assert.Equal(t, uint64(5), l.Frames())
	assert.Equal(t, 5, tap.n)
	require.Len(t, d.frames, 5)

	// index sweep lights pixel 0 first; serpentine puts it at LED 1.
	assert.Equal(t, []byte{0, 0, 0, 255, 255, 255, 0, 0, 0, 0, 0, 0}, d.frames[0])
}

func TestLoopHandshakeFailure(t *testing.T) {
	d := &fakeDriver{beginErr: fault.ErrProtocol}
	l := newLoop(t, d, capture.NewPattern(capture.IndexSweep))

	err := l.Run(context.Background())
	assert.ErrorIs(t, err, fault.ErrProtocol)
	assert.Equal(t, Handshaking, l.State())
	assert.Empty(t, d.frames)
}

func TestLoopPropagatesErrors(t *testing.T) {
	d := &fakeDriver{failAt: 3}
	l := newLoop(t, d, capture.NewPattern(capture.RowSweep))
	err := l.Run(context.Background())
	assert.ErrorIs(t, err, fault.ErrSocket)
	assert.Equal(t, uint64(2), l.Frames())

	l = newLoop(t, &fakeDriver{}, failingSource{})
	err = l.Run(context.Background())
	assert.ErrorIs(t, err, fault.ErrDisplay)
}

func TestLoopCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := &fakeDriver{}
	l := newLoop(t, d, capture.NewPattern(capture.IndexSweep))
	require.NoError(t, l.Run(ctx))
	assert.Empty(t, d.frames)
}

func TestMeter(t *testing.T) {
	now := time.Unix(100, 0)
	var out bytes.Buffer
	m := &Meter{Out: &out, Now: func() time.Time { return now }}
	m.Reset()

	for i := 0; i < 9; i++ {
		assert.False(t, m.Tick())
	}
	now = now.Add(time.Second)
	assert.True(t, m.Tick())
	assert.Equal(t, "FPS: 10\n", out.String())
	assert.Equal(t, int64(10), m.FPS())

	out.Reset()
	for i := 0; i < 7; i++ {
		m.Tick()
	}
	now = now.Add(2 * time.Second)
	assert.True(t, m.Tick())
	assert.Equal(t, "FPS: 4\n", out.String())
}

// device answers the preview command and every frame with an ack.
func device(c net.Conn, frameLen int, seen chan<- []byte) {
	defer c.Close()
	hello := make([]byte, sp108e.PacketLen)
	if _, err := io.ReadFull(c, hello); err != nil {
		return
	}
	seen <- hello
	if _, err := c.Write([]byte{sp108e.AckOK}); err != nil {
		return
	}
	for {
		frame := make([]byte, frameLen)
		if _, err := io.ReadFull(c, frame); err != nil {
			return
		}
		if _, err := c.Write([]byte{sp108e.AckOK}); err != nil {
			return
		}
	}
}

func TestLoopOverSession(t *testing.T) {
	client, dev := net.Pipe()
	seen := make(chan []byte, 1)
	go device(dev, 12, seen)

	d := &sp108e.Driver{Brightness: -1}
	d.Attach(sp108e.NewSession(client, sp108e.WithTimeout(time.Second)))
	defer d.Close()

	l := newLoop(t, d, capture.NewPattern(capture.RGBChannels))
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := l.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, sp108e.PreviewPacket(), <-seen)
	assert.Greater(t, l.Frames(), uint64(0))
}

func TestLoopInterruptsBlockedWrite(t *testing.T) {
	client, dev := net.Pipe()
	defer dev.Close()
	go func() {
		hello := make([]byte, sp108e.PacketLen)
		if _, err := io.ReadFull(dev, hello); err != nil {
			return
		}
		_, _ = dev.Write([]byte{sp108e.AckOK})
		// never read the frame
	}()

	d := &sp108e.Driver{Brightness: -1}
	d.Attach(sp108e.NewSession(client, sp108e.WithTimeout(0)))
	defer d.Close()

	l := newLoop(t, d, capture.NewPattern(capture.IndexSweep))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop")
	}
}

func TestLoopCancelledDuringHandshake(t *testing.T) {
	client, dev := net.Pipe()
	defer dev.Close()
	go func() {
		hello := make([]byte, sp108e.PacketLen)
		_, _ = io.ReadFull(dev, hello)
		// never ack the preview command
	}()

	d := &sp108e.Driver{Brightness: -1}
	d.Attach(sp108e.NewSession(client, sp108e.WithTimeout(0)))
	defer d.Close()

	l := newLoop(t, d, capture.NewPattern(capture.IndexSweep))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	select {
	case err := <-done:
		assert.NoError(t, err)
		assert.Equal(t, Handshaking, l.State())
		assert.Zero(t, l.Frames())
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop during handshake")
	}
}

package stream

import (
	"fmt"
	"io"
	"time"
)

// Meter counts frames and prints "FPS: n" each time the wall-clock second
// advances. The rate is whole frames per elapsed whole second.
type Meter struct {
	Out io.Writer
	Now func() time.Time

	last   int64
	frames int64
	fps    int64
}

func NewMeter(out io.Writer) *Meter {
	m := &Meter{Out: out, Now: time.Now}
	m.Reset()
	return m
}

// Reset starts a new measurement window at the current second.
func (m *Meter) Reset() {
	m.last = m.Now().Unix()
	m.frames = 0
}

// Tick records one frame and reports whether a rate line was printed.
func (m *Meter) Tick() bool {
	m.frames++
	now := m.Now().Unix()
	if now <= m.last {
		return false
	}
	m.fps = m.frames / (now - m.last)
	if m.Out != nil {
		fmt.Fprintf(m.Out, "FPS: %d\n", m.fps)
	}
	m.last = now
	m.frames = 0
	return true
}

// FPS is the last printed rate.
func (m *Meter) FPS() int64 { return m.fps }

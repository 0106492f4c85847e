package led

import (
	"github.com/rs/zerolog"
)

// Sim logs a compact summary of each frame (first LED & average), useful for
// headless runs without a controller.
type Sim struct {
	Log    zerolog.Logger
	LEDs   int
	Stride int
	Count  int

	rgb []byte
}

func NewSim(log zerolog.Logger, leds, stride int) *Sim {
	return &Sim{Log: log, LEDs: leds, Stride: stride}
}

func (d *Sim) Begin() error {
	d.Log.Info().Int("leds", d.LEDs).Int("stride", d.Stride).Msg("sim driver ready")
	return nil
}

func (d *Sim) Write(frame []byte) error {
	d.Count++
	d.rgb = Compact(d.rgb, frame, d.LEDs, d.Stride)

	var r, g, b float64
	for i := 0; i+2 < len(d.rgb); i += 3 {
		r += float64(d.rgb[i])
		g += float64(d.rgb[i+1])
		b += float64(d.rgb[i+2])
	}
	n := float64(len(d.rgb) / 3)
	if n == 0 {
		n = 1
	}
	ev := d.Log.Debug().Int("frame", d.Count).
		Floats64("avg", []float64{r / n, g / n, b / n})
	if len(d.rgb) >= 3 {
		ev = ev.Hex("first", d.rgb[:3])
	}
	ev.Msg("sim frame")
	return nil
}

func (d *Sim) Close() error { return nil }

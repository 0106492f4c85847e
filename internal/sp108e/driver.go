package sp108e

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/hamishcoleman/led-sp108e/internal/fault"
)

// Driver adapts a Session to led.Driver: Begin enters custom preview mode
// and every Write is one acknowledged frame.
type Driver struct {
	Host       string
	Port       int
	Brightness int // -1 leaves the controller setting alone
	Options    []Option
	Log        zerolog.Logger

	sess atomic.Pointer[Session]
}

// Attach uses an existing session instead of dialling in Begin.
func (d *Driver) Attach(s *Session) { d.sess.Store(s) }

func (d *Driver) Session() *Session { return d.sess.Load() }

func (d *Driver) Begin() error {
	return d.BeginContext(context.Background())
}

// BeginContext dials (unless attached) and performs the preview handshake.
// Cancelling ctx aborts a handshake the controller never answers.
func (d *Driver) BeginContext(ctx context.Context) error {
	s := d.sess.Load()
	if s == nil {
		var err error
		s, err = Dial(ctx, d.Host, d.Port, d.Options...)
		if err != nil {
			return err
		}
		d.sess.Store(s)
	}
	stop := context.AfterFunc(ctx, s.Interrupt)
	defer stop()

	if d.Brightness >= 0 && d.Brightness <= 0xff {
		if err := s.Send(BrightnessPacket(byte(d.Brightness))); err != nil {
			return err
		}
		d.Log.Debug().Int("brightness", d.Brightness).Msg("brightness set")
	}
	if _, err := s.SendCommand(PreviewPacket()); err != nil {
		return err
	}
	d.Log.Info().Msg("preview mode")
	return nil
}

func (d *Driver) Write(frame []byte) error {
	s := d.sess.Load()
	if s == nil {
		return fmt.Errorf("%w: driver not started", fault.ErrSocket)
	}
	_, err := s.SendFrame(frame)
	return err
}

// Interrupt unblocks a pending Write. Safe to call concurrently with Close.
func (d *Driver) Interrupt() {
	d.sess.Load().Interrupt()
}

func (d *Driver) Close() error {
	s := d.sess.Swap(nil)
	if s == nil {
		return nil
	}
	return s.Close()
}

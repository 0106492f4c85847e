package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"periph.io/x/conn/v3/physic"

	"github.com/hamishcoleman/led-sp108e/internal/capture"
	diag "github.com/hamishcoleman/led-sp108e/internal/diagnostics"
	"github.com/hamishcoleman/led-sp108e/internal/led"
	"github.com/hamishcoleman/led-sp108e/internal/render"
	"github.com/hamishcoleman/led-sp108e/internal/sp108e"
	"github.com/hamishcoleman/led-sp108e/internal/stream"
	"github.com/hamishcoleman/led-sp108e/internal/ws"
)

func (a *app) sessionOptions() []sp108e.Option {
	return []sp108e.Option{
		sp108e.WithTimeout(a.cfg.Timeout),
		sp108e.WithMaxSegment(a.cfg.MaxSegment()),
		sp108e.WithStrictAck(a.cfg.StrictAck),
		sp108e.WithLogger(a.log),
	}
}

func (a *app) newDriver(p *render.Packer) (led.Driver, error) {
	count := p.Layout().Count()
	switch a.cfg.Driver {
	case "spi":
		freq := physic.Frequency(a.cfg.SPI.FreqKHz) * physic.KiloHertz
		d, err := led.NewSPI(a.cfg.SPI.Port, count, p.Stride(), freq)
		if err != nil {
			return nil, err
		}
		d.WhiteCap = a.cfg.SPI.WhiteCap
		return d, nil
	case "sim":
		return led.NewSim(a.log, count, p.Stride()), nil
	}
	return &sp108e.Driver{
		Host:       a.cfg.Host,
		Port:       a.cfg.Port,
		Brightness: a.cfg.Brightness,
		Options:    a.sessionOptions(),
		Log:        a.log,
	}, nil
}

func (a *app) stream(ctx context.Context) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	runID := uuid.NewString()
	a.log = a.log.With().Str("run", runID).Logger()

	p, err := a.cfg.Packer()
	if err != nil {
		return err
	}
	src, err := capture.Open(a.cfg.SourceOptions())
	if err != nil {
		return err
	}
	defer src.Close()

	drv, err := a.newDriver(p)
	if err != nil {
		return err
	}
	defer drv.Close()

	loop := &stream.Loop{
		Source: src,
		Rect:   a.cfg.Rect(),
		Packer: p,
		Driver: drv,
		Meter:  stream.NewMeter(a.stdout),
		Log:    a.log,
	}

	var preview *ws.State
	if addr := a.cfg.Preview.Addr; addr != "" {
		preview = ws.NewState(p.Layout(), p.Stride(), runID)
		preview.Driver = a.cfg.Driver
		preview.Log = a.log
		loop.Tap = preview

		srv := &http.Server{
			Addr:         addr,
			Handler:      withCORS(preview.Mux()),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go preview.Run(ctx)
		go func() {
			a.log.Info().Str("addr", addr).Msg("preview server starting")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Error().Err(err).Msg("preview server stopped")
			}
		}()
		defer srv.Close()
	}

	a.log.Info().Str("driver", a.cfg.Driver).Str("host", a.cfg.Host).Int("port", a.cfg.Port).
		Str("source", a.cfg.Source.Kind).Msg("starting")
	err = loop.Run(ctx)
	if err != nil && preview != nil {
		preview.PushDiag(diag.FromError(err))
	}
	if err == nil {
		a.log.Info().Uint64("frames", loop.Frames()).Msg("stopped")
	}
	return err
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		h.ServeHTTP(w, r)
	})
}

package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/hamishcoleman/led-sp108e/internal/fault"
	"github.com/hamishcoleman/led-sp108e/internal/sp108e"
)

// control runs one controller command over a fresh session.
func (a *app) control(ctx context.Context, cmd string, args []string) error {
	s, err := sp108e.Dial(ctx, a.cfg.Host, a.cfg.Port, a.sessionOptions()...)
	if err != nil {
		return err
	}
	defer s.Close()

	switch cmd {
	case "status":
		st, err := s.Status()
		if err != nil {
			return err
		}
		printStatus(a, st)
		return nil
	case "name":
		name, err := s.DeviceName()
		if err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, name)
		return nil
	case "toggle":
		return s.Send(sp108e.ToggleLampPacket())
	case "brightness", "speed":
		if len(args) != 1 {
			return fmt.Errorf("%w: %s takes one value 0..255", fault.ErrConfig, cmd)
		}
		v, err := parseByte(args[0])
		if err != nil {
			return err
		}
		if cmd == "speed" {
			return s.Send(sp108e.SpeedPacket(v))
		}
		return s.Send(sp108e.BrightnessPacket(v))
	case "mode":
		if len(args) != 1 {
			return fmt.Errorf("%w: mode takes a name or number", fault.ErrConfig)
		}
		m, err := sp108e.ParseMode(args[0])
		if err != nil {
			return err
		}
		return s.Send(sp108e.ModePacket(m))
	case "raw":
		return a.raw(s, args)
	}
	return fmt.Errorf("%w: unknown command %q", fault.ErrConfig, cmd)
}

func (a *app) raw(s *sp108e.Session, args []string) error {
	if len(args) < 1 || len(args) > 4 {
		return fmt.Errorf("%w: raw takes CMD and up to 3 data bytes", fault.ErrConfig)
	}
	var b []byte
	for _, arg := range args {
		v, err := parseByte(arg)
		if err != nil {
			return err
		}
		b = append(b, v)
	}
	cmd := sp108e.Cmd(b[0])
	pkt, err := sp108e.Packet(cmd, b[1:]...)
	if err != nil {
		return err
	}
	a.log.Debug().Hex("packet", pkt).Msg("raw")
	if !sp108e.Responds(cmd) {
		return s.Send(pkt)
	}
	resp, err := s.Request(pkt)
	if err != nil {
		return err
	}
	fmt.Fprint(a.stdout, hex.Dump(resp))
	return nil
}

// parseByte accepts decimal or 0x-prefixed hex.
func parseByte(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a byte value", fault.ErrConfig, s)
	}
	return byte(v), nil
}

func printStatus(a *app, st *sp108e.Status) {
	lamp := "off"
	if st.Lamp {
		lamp = "on"
	}
	mode := st.Mode.String()
	if mode == "" {
		mode = "preset"
	}
	fmt.Fprintf(a.stdout, "lamp:        %s\n", lamp)
	fmt.Fprintf(a.stdout, "mode:        %s (0x%02x)\n", mode, byte(st.Mode))
	fmt.Fprintf(a.stdout, "speed:       %d\n", st.Speed)
	fmt.Fprintf(a.stdout, "brightness:  %d\n", st.Brightness)
	fmt.Fprintf(a.stdout, "rgb order:   %d\n", st.RGBOrder)
	fmt.Fprintf(a.stdout, "dots/seg:    %d\n", st.DotsPerSegment)
	fmt.Fprintf(a.stdout, "segments:    %d\n", st.Segments)
	fmt.Fprintf(a.stdout, "color:       %x\n", st.StaticColor[:])
}

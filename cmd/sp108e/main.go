// sp108e mirrors a screen region onto an LED matrix driven by an SP108E
// Wi-Fi controller, and offers a few one-shot controller commands.
//
//	sp108e [flags] [stream]
//	sp108e [flags] status | name | toggle
//	sp108e [flags] brightness N | speed N | mode NAME|N
//	sp108e [flags] raw CMD [D1 [D2 [D3]]]
//	sp108e [flags] init-config PATH
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/hamishcoleman/led-sp108e/internal/config"
	"github.com/hamishcoleman/led-sp108e/internal/fault"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	stdout io.Writer
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("sp108e", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", config.DefaultPath, "path to the YAML config")
	fl := config.Defaults()
	bindFlags(fs, fl)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: sp108e [flags] [stream|status|name|toggle|brightness N|speed N|mode M|raw CMD [D...]|init-config PATH]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, found, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "sp108e: %v\n", err)
		return 1
	}
	applyFlags(fs, cfg, fl)

	logger, err := newLogger(cfg.Log, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "sp108e: %v\n", err)
		return 1
	}
	log.Logger = logger
	if !found && fs.Changed("config") {
		logger.Warn().Str("path", *configPath).Msg("config file not found; using defaults and flags")
	}

	cmd, rest := "stream", fs.Args()
	if len(rest) > 0 {
		cmd, rest = rest[0], rest[1:]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{cfg: cfg, log: logger, stdout: stdout}
	if err := a.dispatch(ctx, cmd, rest); err != nil {
		logger.Debug().Err(err).Str("kind", fault.Kind(err)).Str("cmd", cmd).Msg("failed")
		fmt.Fprintf(stderr, "sp108e: %v\n", err)
		return 1
	}
	return 0
}

func newLogger(c config.Log, w io.Writer) (zerolog.Logger, error) {
	lvl := zerolog.InfoLevel
	if c.Level != "" {
		l, err := zerolog.ParseLevel(c.Level)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("%w: log level %q", fault.ErrConfig, c.Level)
		}
		lvl = l
	}
	zerolog.TimeFieldFormat = time.RFC3339
	out := w
	if c.Format != "json" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "stream":
		return a.stream(ctx)
	case "init-config":
		if len(args) != 1 {
			return fmt.Errorf("%w: init-config takes one path", fault.ErrConfig)
		}
		if err := config.Save(args[0], a.cfg); err != nil {
			return fmt.Errorf("%w: %w", fault.ErrConfig, err)
		}
		a.log.Info().Str("path", args[0]).Msg("config written")
		return nil
	case "status", "name", "toggle", "brightness", "speed", "mode", "raw":
		return a.control(ctx, cmd, args)
	}
	return fmt.Errorf("%w: unknown command %q", fault.ErrConfig, cmd)
}

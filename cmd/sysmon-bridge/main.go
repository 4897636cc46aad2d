// cmd/sysmon-bridge/main.go

// sysmon-bridge caches telemetry from a remote visual-tracking process
// and relays operator commands to it over NATS.
//
// Status text is printed to stdout whenever it changes. Commands are read
// from stdin, one per line: start | reset [<map> <pose>] | quit.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/tamzrod/sysmon-bridge/internal/bridge"
	"github.com/tamzrod/sysmon-bridge/internal/codec"
	"github.com/tamzrod/sysmon-bridge/internal/config"
	"github.com/tamzrod/sysmon-bridge/internal/console"
	"github.com/tamzrod/sysmon-bridge/internal/logger"
	"github.com/tamzrod/sysmon-bridge/internal/natsbus"
	"github.com/tamzrod/sysmon-bridge/internal/poller"
	"github.com/tamzrod/sysmon-bridge/internal/writer"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var cfgPath, namespace, logLevel string

	flagSet := pflag.NewFlagSet("sysmon-bridge", pflag.ContinueOnError)
	flagSet.StringVarP(&cfgPath, "config", "c", "", "path to YAML config")
	flagSet.StringVar(&namespace, "namespace", "", "remote process namespace (overrides config)")
	flagSet.StringVar(&logLevel, "log-level", "", "log level (overrides config)")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	if namespace != "" {
		cfg.Bridge.Namespace = namespace
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	// stdout carries the status display
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stderr"
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	config.Normalize(cfg)

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, os.Stdin, os.Stdout, log)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return &config.Config{}, nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	return cfg, nil
}

// serve wires one bridge session and blocks until ctx ends.
func serve(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer, log zerolog.Logger) error {
	b := cfg.Bridge

	c, err := codec.Lookup(b.Codec)
	if err != nil {
		return err
	}

	// ---- transport ----
	conn, err := natsbus.Connect(natsbus.BuildConfig(b), logger.WithComponent(log, "natsbus"))
	if err != nil {
		return err
	}
	defer conn.Close()

	// ---- bridge ----
	br, err := bridge.New(bridge.BuildConfig(b), conn, conn, c, log)
	if err != nil {
		return err
	}
	defer br.Close()

	// ---- poller ----
	p, err := poller.Build(b.Refresh, br)
	if err != nil {
		return err
	}

	// ---- mirror (optional) ----
	var mirror writer.Writer
	if b.Mirror != nil {
		w, closeMirror, err := writer.Build(*b.Mirror)
		if err != nil {
			return fmt.Errorf("mirror: %w", err)
		}
		defer closeMirror()
		mirror = w
	}

	frames := make(chan poller.Frame)
	go p.Run(ctx, frames)
	go display(ctx, frames, out, mirror, logger.WithComponent(log, "display"))

	// Telemetry flows while the handshake waits for the remote service.
	log.Info().Str("namespace", b.Namespace).Msg("waiting for remote command endpoints")
	if err := br.Start(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	if err := console.Run(ctx, in, br, logger.WithComponent(log, "console")); err != nil {
		log.Warn().Err(err).Msg("console input closed")
	}

	// stdin EOF does not end the session
	<-ctx.Done()
	log.Info().Msg("shutting down")
	return nil
}

// display is the runner-owned consumer of poll frames.
func display(ctx context.Context, frames <-chan poller.Frame, out io.Writer, mirror writer.Writer, log zerolog.Logger) {
	var last string
	var mirrorFailing bool

	for {
		select {
		case <-ctx.Done():
			return

		case f := <-frames:
			if f.Text != last {
				last = f.Text
				fmt.Fprintln(out, f.Text)
				log.Debug().
					Uint16("health", f.Health).
					Uint64("received", f.Snapshot.Received).
					Msg("status changed")
			}

			if mirror == nil {
				continue
			}

			// log transitions only; frames arrive every few ms
			if err := mirror.Write(f); err != nil {
				if !mirrorFailing {
					log.Warn().Err(err).Msg("mirror write failed")
				}
				mirrorFailing = true
			} else if mirrorFailing {
				log.Info().Msg("mirror write recovered")
				mirrorFailing = false
			}
		}
	}
}

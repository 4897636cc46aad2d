// internal/console/console.go

// Package console turns operator lines into bridge commands.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tamzrod/sysmon-bridge/internal/command"
)

// Issuer is the command side of the bridge.
type Issuer interface {
	Issue(ctx context.Context, req command.Request) (command.Ack, error)
}

// ErrUsage is returned by Parse for lines it does not understand.
var ErrUsage = errors.New("usage: start | reset [<map> <pose>] | quit")

// Default flags for a bare "reset": clear the map, keep the pose.
var defaultReset = command.ResetFlags{ResetMap: true, ResetPose: false}

// Parse converts one console line into a request.
// ok is false for blank lines.
func Parse(line string) (req command.Request, ok bool, err error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return command.Request{}, false, nil
	}

	switch strings.ToLower(parts[0]) {
	case "start", "init":
		if len(parts) != 1 {
			return command.Request{}, false, ErrUsage
		}
		return command.Request{Kind: command.KindInit}, true, nil

	case "reset":
		switch len(parts) {
		case 1:
			return command.Request{Kind: command.KindReset, Reset: defaultReset}, true, nil
		case 3:
			m, err := strconv.ParseBool(parts[1])
			if err != nil {
				return command.Request{}, false, fmt.Errorf("reset map flag: %w", err)
			}
			p, err := strconv.ParseBool(parts[2])
			if err != nil {
				return command.Request{}, false, fmt.Errorf("reset pose flag: %w", err)
			}
			return command.Request{
				Kind:  command.KindReset,
				Reset: command.ResetFlags{ResetMap: m, ResetPose: p},
			}, true, nil
		default:
			return command.Request{}, false, ErrUsage
		}

	case "quit":
		if len(parts) != 1 {
			return command.Request{}, false, ErrUsage
		}
		return command.Request{Kind: command.KindQuit}, true, nil
	}

	return command.Request{}, false, ErrUsage
}

// Run reads lines from r until EOF or ctx ends, issuing one command per line.
// Commands run one at a time; the client still rejects overlap per kind.
func Run(ctx context.Context, r io.Reader, iss Issuer, log zerolog.Logger) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, open := <-lines:
			if !open {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			handle(ctx, line, iss, log)
		}
	}
}

func handle(ctx context.Context, line string, iss Issuer, log zerolog.Logger) {
	req, ok, err := Parse(line)
	if err != nil {
		log.Warn().Err(err).Str("line", strings.TrimSpace(line)).Msg("console input ignored")
		return
	}
	if !ok {
		return
	}

	ev := log.With().Str("command", req.Kind.String()).Logger()
	if req.Kind == command.KindReset {
		ev = ev.With().
			Bool("reset_map", req.Reset.ResetMap).
			Bool("reset_pose", req.Reset.ResetPose).
			Logger()
	}

	ack, err := iss.Issue(ctx, req)
	if err != nil {
		ev.Error().Err(err).Str("reason", command.Reason(err)).Msg("command failed")
		return
	}

	ev.Info().
		Str("request_id", ack.RequestID).
		Str("message", ack.Message).
		Dur("latency", ack.Latency).
		Msg("command acknowledged")
}

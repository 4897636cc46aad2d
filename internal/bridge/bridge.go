// internal/bridge/bridge.go

// Package bridge is the single entry point for the presentation layer.
// It composes the telemetry cache, the two ingress channels and the
// command client for one remote-process session.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tamzrod/sysmon-bridge/internal/codec"
	"github.com/tamzrod/sysmon-bridge/internal/command"
	"github.com/tamzrod/sysmon-bridge/internal/ingress"
	"github.com/tamzrod/sysmon-bridge/internal/logger"
	"github.com/tamzrod/sysmon-bridge/internal/status"
)

// Config wires subjects and command bounds for one session.
type Config struct {
	Telemetry ingress.Subjects
	Commands  command.Config
}

// Bridge is the status-and-control facade.
type Bridge struct {
	log      zerolog.Logger
	source   ingress.Source
	cache    *status.Cache
	ingress  *ingress.Ingress
	commands *command.Client

	mu         sync.Mutex
	subscribed bool
	starting   bool
	started    bool
	closed     bool

	closeOnce sync.Once
	closeErr  error
}

// New builds a bridge. Nothing touches the network until Start.
func New(cfg Config, src ingress.Source, caller command.Caller, c codec.Codec, log zerolog.Logger) (*Bridge, error) {
	if src == nil {
		return nil, errors.New("bridge: telemetry source required")
	}

	cache := status.NewCache()

	in, err := ingress.New(cache, c, cfg.Telemetry, logger.WithComponent(log, "ingress"))
	if err != nil {
		return nil, fmt.Errorf("bridge: %w", err)
	}

	cmds, err := command.NewClient(cfg.Commands, caller, c, logger.WithComponent(log, "command"))
	if err != nil {
		return nil, fmt.Errorf("bridge: %w", err)
	}

	return &Bridge{
		log:      logger.WithComponent(log, "bridge"),
		source:   src,
		cache:    cache,
		ingress:  in,
		commands: cmds,
	}, nil
}

// Start subscribes telemetry, then blocks on the command handshake.
// Telemetry is recorded while the handshake is pending. A failed Start
// may be retried; subscriptions made by an earlier attempt stay live.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	switch {
	case b.closed:
		b.mu.Unlock()
		return errors.New("bridge: start: closed")
	case b.started:
		b.mu.Unlock()
		return errors.New("bridge: start: already started")
	case b.starting:
		b.mu.Unlock()
		return errors.New("bridge: start: already in progress")
	}

	if !b.subscribed {
		if err := b.ingress.Start(b.source); err != nil {
			b.mu.Unlock()
			return fmt.Errorf("bridge: start: %w", err)
		}
		b.subscribed = true
	}
	b.starting = true
	b.mu.Unlock()

	err := b.commands.Handshake(ctx)

	b.mu.Lock()
	b.starting = false
	b.started = err == nil
	b.mu.Unlock()

	if err != nil {
		b.log.Warn().Err(err).Msg("handshake failed; start may be retried")
		return fmt.Errorf("bridge: start: %w", err)
	}

	b.log.Info().Msg("bridge ready")
	return nil
}

// Ready is closed once commands are usable.
func (b *Bridge) Ready() <-chan struct{} {
	return b.commands.Ready()
}

// Snapshot returns the latest consistent telemetry.
func (b *Bridge) Snapshot() status.Snapshot {
	return b.cache.Snapshot()
}

// HasData reports whether any telemetry has been recorded.
func (b *Bridge) HasData() bool {
	return b.cache.HasData()
}

// Dropped is the number of malformed telemetry payloads discarded.
func (b *Bridge) Dropped() uint64 {
	return b.ingress.Dropped()
}

// Issue performs one operator command.
func (b *Bridge) Issue(ctx context.Context, req command.Request) (command.Ack, error) {
	return b.commands.Do(ctx, req)
}

// Close unsubscribes telemetry and retires the command client.
// The underlying connection belongs to the caller.
func (b *Bridge) Close() error {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		b.mu.Unlock()

		b.commands.Close()
		b.closeErr = b.ingress.Stop()
		b.log.Info().Msg("bridge closed")
	})
	return b.closeErr
}

// internal/natsbus/natsbus.go

// Package natsbus adapts a NATS connection to the bridge's telemetry
// Source and command Caller contracts.
//
// Telemetry uses core subscriptions; each subscription's handler runs on
// its own goroutine in arrival order. Commands use request/reply. The
// command handshake queries the remote micro service's $SRV.INFO
// endpoint until the wanted subject is listed.
package natsbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"
	"github.com/rs/zerolog"

	"github.com/tamzrod/sysmon-bridge/internal/command"
	"github.com/tamzrod/sysmon-bridge/internal/ingress"
)

// RequestIDHeader carries the command request id to the remote side.
const RequestIDHeader = "Sysmon-Request-Id"

const defaultProbeInterval = 500 * time.Millisecond

// Config is minimal transport config.
type Config struct {
	URL        string
	ClientName string

	// ServiceName is the remote micro service that owns the command endpoints.
	ServiceName string

	// ProbeInterval paces endpoint discovery during the handshake.
	ProbeInterval time.Duration
}

// Conn implements ingress.Source and command.Caller.
type Conn struct {
	nc    *nats.Conn
	cfg   Config
	log   zerolog.Logger
	owned bool
}

var (
	_ ingress.Source = (*Conn)(nil)
	_ command.Caller = (*Conn)(nil)
)

// Connect dials cfg.URL. The connection reconnects forever; Close releases it.
func Connect(cfg Config, log zerolog.Logger, opts ...nats.Option) (*Conn, error) {
	if cfg.URL == "" {
		return nil, errors.New("natsbus: url required")
	}

	base := []nats.Option{
		nats.Name(cfg.ClientName),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
	}

	nc, err := nats.Connect(cfg.URL, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("natsbus: connect %s: %w", cfg.URL, err)
	}

	c := New(nc, cfg, log)
	c.owned = true

	log.Info().Str("url", nc.ConnectedUrl()).Msg("nats connected")
	return c, nil
}

// New wraps an existing connection. Close will not close nc.
func New(nc *nats.Conn, cfg Config, log zerolog.Logger) *Conn {
	if cfg.ProbeInterval <= 0 {
		cfg.ProbeInterval = defaultProbeInterval
	}
	return &Conn{nc: nc, cfg: cfg, log: log}
}

// Close closes the connection if Connect opened it.
func (c *Conn) Close() error {
	if c == nil || c.nc == nil || !c.owned {
		return nil
	}
	c.nc.Close()
	return nil
}

// ---- ingress.Source ----

func (c *Conn) Subscribe(subject string, h ingress.Handler) (ingress.Subscription, error) {
	sub, err := c.nc.Subscribe(subject, func(m *nats.Msg) {
		h(m.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("natsbus: subscribe %s: %w", subject, err)
	}
	return sub, nil
}

// ---- command.Caller ----

func (c *Conn) Call(ctx context.Context, subject, requestID string, payload []byte) ([]byte, error) {
	msg := nats.NewMsg(subject)
	msg.Data = payload
	msg.Header.Set(RequestIDHeader, requestID)

	resp, err := c.nc.RequestMsgWithContext(ctx, msg)
	if err != nil {
		if errors.Is(err, nats.ErrTimeout) {
			return nil, fmt.Errorf("%w: %v", command.ErrTimeout, err)
		}
		return nil, fmt.Errorf("natsbus: request %s: %w", subject, err)
	}

	if code := resp.Header.Get(micro.ErrorCodeHeader); code != "" {
		return nil, fmt.Errorf("%w: service error %s: %s",
			command.ErrRejected, code, resp.Header.Get(micro.ErrorHeader))
	}

	return resp.Data, nil
}

func (c *Conn) WaitForEndpoint(ctx context.Context, subject string) error {
	infoSubject, err := micro.ControlSubject(micro.InfoVerb, c.cfg.ServiceName, "")
	if err != nil {
		return fmt.Errorf("natsbus: %w", err)
	}

	ticker := time.NewTicker(c.cfg.ProbeInterval)
	defer ticker.Stop()

	for {
		found, err := c.probe(ctx, infoSubject, subject)
		if found {
			return nil
		}
		c.log.Debug().Err(err).Str("subject", subject).Msg("command endpoint not available yet")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// probe asks the service for its endpoint list once.
func (c *Conn) probe(ctx context.Context, infoSubject, subject string) (bool, error) {
	pctx, cancel := context.WithTimeout(ctx, c.cfg.ProbeInterval)
	defer cancel()

	resp, err := c.nc.RequestWithContext(pctx, infoSubject, nil)
	if err != nil {
		return false, err
	}

	var info micro.Info
	if err := json.Unmarshal(resp.Data, &info); err != nil {
		return false, fmt.Errorf("natsbus: decode service info: %w", err)
	}

	for _, ep := range info.Endpoints {
		if ep.Subject == subject {
			return true, nil
		}
	}
	return false, fmt.Errorf("natsbus: service %q does not list %s", c.cfg.ServiceName, subject)
}

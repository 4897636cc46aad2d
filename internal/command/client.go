// internal/command/client.go

// Package command invokes remote commands on the tracking process.
//
// At most one invocation per Kind is in flight; a second request of the
// same Kind is refused with ErrBusy instead of being queued. Every
// invocation is bounded by Config.Timeout. All failures are returned as
// *Error values; nothing panics or propagates past the client.
package command

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tamzrod/sysmon-bridge/internal/codec"
)

// Caller is the request/reply side of the messaging layer.
//
// Call sends payload to subject and waits for a single reply. Adapters
// should wrap ErrRejected when the remote side answers with a service
// error, and honor ctx.
//
// WaitForEndpoint blocks until subject has a responder or ctx ends.
type Caller interface {
	Call(ctx context.Context, subject, requestID string, payload []byte) ([]byte, error)
	WaitForEndpoint(ctx context.Context, subject string) error
}

// Client serializes command invocations per Kind.
type Client struct {
	cfg    Config
	caller Caller
	codec  codec.Codec
	log    zerolog.Logger
	newID  func() string

	ready     chan struct{}
	readyOnce sync.Once
	closed    atomic.Bool

	mu       sync.Mutex
	inFlight map[Kind]bool
}

// NewClient creates a client. It is unusable until Handshake succeeds.
func NewClient(cfg Config, caller Caller, c codec.Codec, log zerolog.Logger) (*Client, error) {
	if caller == nil {
		return nil, errors.New("command: caller required")
	}
	if c == nil {
		return nil, errors.New("command: codec required")
	}
	if cfg.Endpoints.Init == "" || cfg.Endpoints.Reset == "" {
		return nil, errors.New("command: init and reset endpoints required")
	}
	if cfg.Timeout <= 0 {
		return nil, errors.New("command: timeout must be > 0")
	}
	return &Client{
		cfg:      cfg,
		caller:   caller,
		codec:    c,
		log:      log,
		newID:    uuid.NewString,
		ready:    make(chan struct{}),
		inFlight: make(map[Kind]bool),
	}, nil
}

// Handshake blocks until both command endpoints are reachable.
func (c *Client) Handshake(ctx context.Context) error {
	if c.cfg.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.HandshakeTimeout)
		defer cancel()
	}

	for _, subject := range []string{c.cfg.Endpoints.Init, c.cfg.Endpoints.Reset} {
		c.log.Info().Str("subject", subject).Msg("waiting for command endpoint")

		if err := c.caller.WaitForEndpoint(ctx, subject); err != nil {
			return fmt.Errorf("command: waiting for %s: %w", subject, err)
		}
	}

	c.readyOnce.Do(func() { close(c.ready) })
	c.log.Info().Msg("command endpoints connected")
	return nil
}

// Ready is closed once Handshake has succeeded.
func (c *Client) Ready() <-chan struct{} {
	return c.ready
}

// Close makes every later invocation fail with ErrClosed.
// Invocations already in flight run to completion or timeout.
func (c *Client) Close() {
	c.closed.Store(true)
}

func (c *Client) Init(ctx context.Context) (Ack, error) {
	return c.Do(ctx, Request{Kind: KindInit})
}

func (c *Client) Reset(ctx context.Context, flags ResetFlags) (Ack, error) {
	return c.Do(ctx, Request{Kind: KindReset, Reset: flags})
}

// Quit has no remote contract yet; it always reports ErrNotImplemented.
func (c *Client) Quit(ctx context.Context) (Ack, error) {
	return c.Do(ctx, Request{Kind: KindQuit})
}

// Do performs one invocation.
func (c *Client) Do(ctx context.Context, req Request) (Ack, error) {
	if c.closed.Load() {
		return Ack{}, fail(req.Kind, ErrClosed, nil)
	}

	var (
		subject string
		body    any
	)

	switch req.Kind {
	case KindInit:
		subject, body = c.cfg.Endpoints.Init, emptyRequest{}
	case KindReset:
		subject, body = c.cfg.Endpoints.Reset, req.Reset
	case KindQuit:
		c.log.Warn().Str("kind", req.Kind.String()).Msg("quit requested but not implemented remotely")
		return Ack{}, fail(req.Kind, ErrNotImplemented, nil)
	default:
		return Ack{}, fail(req.Kind, ErrTransport, errors.New("unknown command kind"))
	}

	if !c.isReady() {
		return Ack{}, fail(req.Kind, ErrNotReady, nil)
	}

	if !c.acquire(req.Kind) {
		return Ack{}, fail(req.Kind, ErrBusy, nil)
	}
	defer c.release(req.Kind)

	payload, err := c.codec.Marshal(body)
	if err != nil {
		return Ack{}, fail(req.Kind, ErrTransport, fmt.Errorf("encode request: %w", err))
	}

	id := c.newID()
	log := c.log.With().Str("kind", req.Kind.String()).Str("request_id", id).Logger()
	log.Info().Str("subject", subject).Msg("command requested")

	start := time.Now()
	raw, err := c.call(ctx, subject, id, payload)
	latency := time.Since(start)

	if err != nil {
		cerr := fail(req.Kind, classify(err), err)
		log.Warn().Err(err).Str("reason", Reason(cerr)).Dur("latency", latency).Msg("command failed")
		return Ack{}, cerr
	}

	var rep reply
	if err := c.codec.Unmarshal(raw, &rep); err != nil {
		cerr := fail(req.Kind, ErrTransport, fmt.Errorf("decode reply: %w", err))
		log.Warn().Err(cerr).Msg("command failed")
		return Ack{}, cerr
	}
	if !rep.OK {
		var cause error
		if rep.Message != "" {
			cause = errors.New(rep.Message)
		}
		cerr := fail(req.Kind, ErrRejected, cause)
		log.Warn().Str("remote_message", rep.Message).Msg("command rejected")
		return Ack{}, cerr
	}

	log.Info().Dur("latency", latency).Msg("command acknowledged")

	return Ack{
		Kind:      req.Kind,
		RequestID: id,
		Message:   rep.Message,
		Latency:   latency,
	}, nil
}

// call races the transport against the bounded context so a caller that
// ignores ctx still resolves to a timeout.
func (c *Client) call(ctx context.Context, subject, id string, payload []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	type result struct {
		raw []byte
		err error
	}
	done := make(chan result, 1)

	go func() {
		raw, err := c.caller.Call(ctx, subject, id, payload)
		done <- result{raw: raw, err: err}
	}()

	select {
	case r := <-done:
		return r.raw, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func classify(err error) error {
	switch {
	case errors.Is(err, ErrRejected):
		return ErrRejected
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	default:
		return ErrTransport
	}
}

func (c *Client) isReady() bool {
	select {
	case <-c.ready:
		return true
	default:
		return false
	}
}

func (c *Client) acquire(k Kind) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight[k] {
		return false
	}
	c.inFlight[k] = true
	return true
}

func (c *Client) release(k Kind) {
	c.mu.Lock()
	delete(c.inFlight, k)
	c.mu.Unlock()
}

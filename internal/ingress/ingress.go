// internal/ingress/ingress.go

// Package ingress applies inbound telemetry to the status cache.
//
// Two independent channels feed the cache: system-info and tracker-state.
// Each arriving payload is decoded and recorded as one step; payloads that
// fail to decode are dropped and the previous snapshot is retained.
package ingress

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/sysmon-bridge/internal/codec"
	"github.com/tamzrod/sysmon-bridge/internal/status"
)

// Handler receives one raw payload. A Source invokes a given
// subscription's handler sequentially, in arrival order.
type Handler func(data []byte)

// Subscription is a live registration on a Source.
type Subscription interface {
	Unsubscribe() error
}

// Source is the messaging layer that delivers telemetry.
type Source interface {
	Subscribe(subject string, h Handler) (Subscription, error)
}

// Subjects names the two inbound channels.
type Subjects struct {
	SystemInfo   string
	TrackerState string
}

// ErrMalformed marks a payload that was dropped.
var ErrMalformed = errors.New("ingress: malformed payload")

// systemInfoMsg is the wire form of a system-info record.
// Both fields are required; pointers tell absent from zero.
type systemInfoMsg struct {
	FPS     *float64 `json:"fps" cbor:"fps"`
	Message *string  `json:"message" cbor:"message"`
}

// Ingress dispatches arrivals on both channels into a status.Cache.
type Ingress struct {
	cache    *status.Cache
	codec    codec.Codec
	subjects Subjects
	log      zerolog.Logger
	now      func() time.Time

	mu   sync.Mutex
	subs []Subscription

	dropped atomic.Uint64
}

// New creates an ingress bound to cache. Nothing is subscribed until Start.
func New(cache *status.Cache, c codec.Codec, subjects Subjects, log zerolog.Logger) (*Ingress, error) {
	if cache == nil {
		return nil, errors.New("ingress: cache required")
	}
	if c == nil {
		return nil, errors.New("ingress: codec required")
	}
	if subjects.SystemInfo == "" || subjects.TrackerState == "" {
		return nil, errors.New("ingress: both subjects required")
	}
	return &Ingress{
		cache:    cache,
		codec:    c,
		subjects: subjects,
		log:      log,
		now:      time.Now,
	}, nil
}

// Start subscribes both channels on src.
// If the second subscription fails the first is released.
func (in *Ingress) Start(src Source) error {
	in.mu.Lock()
	defer in.mu.Unlock()

	if len(in.subs) > 0 {
		return errors.New("ingress: already started")
	}

	info, err := src.Subscribe(in.subjects.SystemInfo, in.onSystemInfo)
	if err != nil {
		return fmt.Errorf("ingress: subscribe %s: %w", in.subjects.SystemInfo, err)
	}

	tracker, err := src.Subscribe(in.subjects.TrackerState, in.onTrackerState)
	if err != nil {
		_ = info.Unsubscribe()
		return fmt.Errorf("ingress: subscribe %s: %w", in.subjects.TrackerState, err)
	}

	in.subs = []Subscription{info, tracker}

	in.log.Info().
		Str("system_info", in.subjects.SystemInfo).
		Str("tracker_state", in.subjects.TrackerState).
		Msg("telemetry subscribed")

	return nil
}

// Stop releases both subscriptions. Safe to call more than once.
func (in *Ingress) Stop() error {
	in.mu.Lock()
	subs := in.subs
	in.subs = nil
	in.mu.Unlock()

	var errs []error
	for _, s := range subs {
		if err := s.Unsubscribe(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Dropped is the number of payloads rejected as malformed.
func (in *Ingress) Dropped() uint64 {
	return in.dropped.Load()
}

// ---- per-channel handlers ----

// ApplySystemInfo decodes and records one system-info payload.
func (in *Ingress) ApplySystemInfo(data []byte) error {
	var msg systemInfoMsg
	if err := in.codec.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("%w: system-info: %v", ErrMalformed, err)
	}
	if msg.FPS == nil || msg.Message == nil {
		return fmt.Errorf("%w: system-info: fps and message are required", ErrMalformed)
	}
	fps := *msg.FPS
	if math.IsNaN(fps) || math.IsInf(fps, 0) || fps < 0 {
		return fmt.Errorf("%w: system-info: frame rate %v out of range", ErrMalformed, fps)
	}

	in.cache.RecordSystemInfo(status.SystemInfo{
		FrameRate: fps,
		Message:   *msg.Message,
	}, in.now())
	return nil
}

// ApplyTrackerState validates and records one tracker-state payload.
// The payload is stored verbatim.
func (in *Ingress) ApplyTrackerState(data []byte) error {
	if err := codec.Valid(in.codec, data); err != nil {
		return fmt.Errorf("%w: tracker-state: %v", ErrMalformed, err)
	}

	in.cache.RecordTrackerState(data, in.now())
	return nil
}

func (in *Ingress) onSystemInfo(data []byte) {
	if err := in.ApplySystemInfo(data); err != nil {
		in.drop(in.subjects.SystemInfo, err)
	}
}

func (in *Ingress) onTrackerState(data []byte) {
	if err := in.ApplyTrackerState(data); err != nil {
		in.drop(in.subjects.TrackerState, err)
	}
}

func (in *Ingress) drop(subject string, err error) {
	n := in.dropped.Add(1)
	in.log.Warn().
		Err(err).
		Str("subject", subject).
		Uint64("dropped_total", n).
		Msg("telemetry dropped")
}

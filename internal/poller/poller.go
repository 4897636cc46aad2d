// internal/poller/poller.go
package poller

import (
	"errors"
	"time"

	"github.com/tamzrod/sysmon-bridge/internal/status"
)

// SnapshotSource is the read-only side of the bridge.
// The poller has no other path into the bridge.
type SnapshotSource interface {
	Snapshot() status.Snapshot
}

// Config is the minimal runtime config the poller needs.
type Config struct {
	Interval   time.Duration
	StaleAfter time.Duration // <= 0 disables staleness
}

// Poller is a dumb, clock-driven reader.
type Poller struct {
	cfg Config
	src SnapshotSource
	now func() time.Time
}

// New creates a poller with immutable config.
func New(cfg Config, src SnapshotSource) (*Poller, error) {
	if src == nil {
		return nil, errors.New("poller: snapshot source required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	return &Poller{cfg: cfg, src: src, now: time.Now}, nil
}

// PollOnce performs exactly one read.
func (p *Poller) PollOnce() Frame {
	s := p.src.Snapshot()
	now := p.now()

	return Frame{
		At:       now,
		Snapshot: s,
		Health:   status.HealthOf(s, now, p.cfg.StaleAfter),
		Text:     status.Render(s),
	}
}

// internal/poller/types.go
package poller

import (
	"time"

	"github.com/tamzrod/sysmon-bridge/internal/status"
)

// Frame is one display-ready reading produced by one poll cycle.
type Frame struct {
	At       time.Time
	Snapshot status.Snapshot

	// Health is one of the status.Health* codes.
	Health uint16

	// Text is the rendered display text.
	Text string
}

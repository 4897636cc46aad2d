// internal/poller/builder.go
package poller

import (
	"time"

	cfg "github.com/tamzrod/sysmon-bridge/internal/config"
)

// Build constructs a Poller from the refresh section.
// Assumes config has already been validated and normalized.
func Build(r cfg.RefreshConfig, src SnapshotSource) (*Poller, error) {
	return New(
		Config{
			Interval:   time.Duration(r.IntervalMs) * time.Millisecond,
			StaleAfter: time.Duration(r.StaleAfterMs) * time.Millisecond,
		},
		src,
	)
}

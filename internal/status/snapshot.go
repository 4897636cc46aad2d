// internal/status/snapshot.go
package status

import "time"

// Snapshot is the latest reconciled telemetry.
// The zero value is the sentinel "no data yet" state.
type Snapshot struct {
	// From the system-info channel.
	FrameRate     float64
	StatusMessage string
	InfoAt        time.Time

	// From the tracker-state channel. Encoded payload, never interpreted.
	TrackerState []byte
	TrackerAt    time.Time

	// Received is the number of messages recorded across both channels
	// at the time this snapshot was taken.
	Received uint64
}

// HasData reports whether at least one message was recorded.
func (s Snapshot) HasData() bool {
	return s.Received > 0
}

// LastUpdate is the most recent arrival on either channel.
func (s Snapshot) LastUpdate() time.Time {
	if s.TrackerAt.After(s.InfoAt) {
		return s.TrackerAt
	}
	return s.InfoAt
}

// SystemInfo is one decoded system-info record.
type SystemInfo struct {
	FrameRate float64
	Message   string
}

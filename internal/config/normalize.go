// internal/config/normalize.go
package config

import (
	"github.com/tamzrod/sysmon-bridge/internal/codec"
	"github.com/tamzrod/sysmon-bridge/internal/status"
)

// Defaults applied by Normalize.
const (
	DefaultNATSURL         = "nats://127.0.0.1:4222"
	DefaultClientName      = "sysmon-bridge"
	DefaultTimeoutMs       = 2000
	DefaultProbeIntervalMs = 500
	DefaultRefreshMs       = 40
	DefaultStaleAfterMs    = 2000
	DefaultMirrorTimeoutMs = 1000
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	b := &cfg.Bridge

	if b.Codec == "" {
		b.Codec = codec.NameJSON
	}
	if b.NATS.URL == "" {
		b.NATS.URL = DefaultNATSURL
	}
	if b.NATS.ClientName == "" {
		b.NATS.ClientName = DefaultClientName
	}

	// ------------------------------------------------------------
	// DERIVED SUBJECTS
	// ------------------------------------------------------------

	setDefault(&b.Subjects.SystemInfo, b.Namespace+".system_info")
	setDefault(&b.Subjects.TrackerState, b.Namespace+".tracker_state")
	setDefault(&b.Subjects.Init, b.Namespace+".init")
	setDefault(&b.Subjects.Reset, b.Namespace+".reset")

	// ------------------------------------------------------------
	// TIMING
	// ------------------------------------------------------------

	if b.Commands.TimeoutMs == 0 {
		b.Commands.TimeoutMs = DefaultTimeoutMs
	}
	if b.Commands.ProbeIntervalMs == 0 {
		b.Commands.ProbeIntervalMs = DefaultProbeIntervalMs
	}
	if b.Refresh.IntervalMs == 0 {
		b.Refresh.IntervalMs = DefaultRefreshMs
	}
	if b.Refresh.StaleAfterMs == 0 {
		b.Refresh.StaleAfterMs = DefaultStaleAfterMs
	}

	// ------------------------------------------------------------
	// MIRROR (OPT-IN)
	// ------------------------------------------------------------

	if b.Mirror == nil {
		return
	}

	if b.Mirror.TimeoutMs == 0 {
		b.Mirror.TimeoutMs = DefaultMirrorTimeoutMs
	}

	// Device name: ASCII already validated, truncate to block capacity.
	if len(b.Mirror.DeviceName) > status.DeviceNameMaxChars {
		b.Mirror.DeviceName = b.Mirror.DeviceName[:status.DeviceNameMaxChars]
	}
}

func setDefault(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

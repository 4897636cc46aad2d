// internal/config/validate.go
package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tamzrod/sysmon-bridge/internal/codec"
	"github.com/tamzrod/sysmon-bridge/internal/status"
)

// namespacePattern matches a name usable both as a subject token and as a
// micro service name.
var namespacePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
// Zero values mean "use the default" and are accepted.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil config")
	}

	b := cfg.Bridge

	// ------------------------------------------------------------
	// IDENTITY
	// ------------------------------------------------------------

	if b.Namespace == "" {
		return errors.New("bridge.namespace is required")
	}
	if !namespacePattern.MatchString(b.Namespace) {
		return fmt.Errorf("bridge.namespace %q must match %s", b.Namespace, namespacePattern)
	}

	if b.Codec != "" {
		if _, err := codec.Lookup(b.Codec); err != nil {
			return fmt.Errorf("bridge.codec: %w", err)
		}
	}

	// ------------------------------------------------------------
	// SUBJECTS
	// ------------------------------------------------------------

	subjects := []struct{ name, override string }{
		{"system_info", b.Subjects.SystemInfo},
		{"tracker_state", b.Subjects.TrackerState},
		{"init", b.Subjects.Init},
		{"reset", b.Subjects.Reset},
	}
	seen := make(map[string]string)

	// Uniqueness is checked on the effective subject, the override or
	// the <namespace>.<name> Normalize will derive.
	for _, sub := range subjects {
		effective := sub.override
		if effective == "" {
			effective = b.Namespace + "." + sub.name
		} else if err := validSubject(effective); err != nil {
			return fmt.Errorf("bridge.subjects.%s: %w", sub.name, err)
		}
		if prev, ok := seen[effective]; ok {
			return fmt.Errorf("bridge.subjects: %s and %s both use %q", prev, sub.name, effective)
		}
		seen[effective] = sub.name
	}

	// ------------------------------------------------------------
	// TIMING
	// ------------------------------------------------------------

	nonNegative := map[string]int{
		"bridge.commands.timeout_ms":           b.Commands.TimeoutMs,
		"bridge.commands.handshake_timeout_ms": b.Commands.HandshakeTimeoutMs,
		"bridge.commands.probe_interval_ms":    b.Commands.ProbeIntervalMs,
		"bridge.refresh.interval_ms":           b.Refresh.IntervalMs,
		"bridge.refresh.stale_after_ms":        b.Refresh.StaleAfterMs,
	}
	for key, v := range nonNegative {
		if v < 0 {
			return fmt.Errorf("%s must be >= 0, got %d", key, v)
		}
	}

	// ------------------------------------------------------------
	// LOGGING
	// ------------------------------------------------------------

	if cfg.Log.Level != "" {
		if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil {
			return fmt.Errorf("log.level: %w", err)
		}
	}

	// ------------------------------------------------------------
	// MIRROR STATUS BLOCK (OPT-IN)
	// ------------------------------------------------------------

	if b.Mirror == nil {
		return nil
	}

	m := b.Mirror

	if m.Endpoint == "" {
		return errors.New("bridge.mirror.endpoint is required when mirror is set")
	}
	if m.TimeoutMs < 0 {
		return fmt.Errorf("bridge.mirror.timeout_ms must be >= 0, got %d", m.TimeoutMs)
	}

	// the whole block must fit in the 16-bit register space
	end := (int(m.BaseSlot) + 1) * status.SlotsPerBlock
	if end > 65536 {
		return fmt.Errorf("bridge.mirror.base_slot %d: status block exceeds register space", m.BaseSlot)
	}

	for i := 0; i < len(m.DeviceName); i++ {
		if m.DeviceName[i] > 0x7F {
			return errors.New("bridge.mirror.device_name must contain ASCII characters only")
		}
	}

	return nil
}

func validSubject(s string) error {
	if strings.ContainsAny(s, " \t\r\n*>") {
		return fmt.Errorf("subject %q must not contain whitespace or wildcards", s)
	}
	for _, tok := range strings.Split(s, ".") {
		if tok == "" {
			return fmt.Errorf("subject %q has an empty token", s)
		}
	}
	return nil
}

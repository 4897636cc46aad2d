// internal/bridge/builder.go
package bridge

import (
	"time"

	cfg "github.com/tamzrod/sysmon-bridge/internal/config"
	"github.com/tamzrod/sysmon-bridge/internal/command"
	"github.com/tamzrod/sysmon-bridge/internal/ingress"
)

// BuildConfig converts the bridge section into runtime config.
// Assumes config has already been validated and normalized.
func BuildConfig(b cfg.BridgeConfig) Config {
	return Config{
		Telemetry: ingress.Subjects{
			SystemInfo:   b.Subjects.SystemInfo,
			TrackerState: b.Subjects.TrackerState,
		},
		Commands: command.Config{
			Endpoints: command.Endpoints{
				Init:  b.Subjects.Init,
				Reset: b.Subjects.Reset,
			},
			Timeout:          time.Duration(b.Commands.TimeoutMs) * time.Millisecond,
			HandshakeTimeout: time.Duration(b.Commands.HandshakeTimeoutMs) * time.Millisecond,
		},
	}
}

// internal/natsbus/builder.go
package natsbus

import (
	"time"

	cfg "github.com/tamzrod/sysmon-bridge/internal/config"
)

// BuildConfig converts the bridge section into transport config.
// The remote service is named after the namespace.
func BuildConfig(b cfg.BridgeConfig) Config {
	return Config{
		URL:           b.NATS.URL,
		ClientName:    b.NATS.ClientName,
		ServiceName:   b.Namespace,
		ProbeInterval: time.Duration(b.Commands.ProbeIntervalMs) * time.Millisecond,
	}
}

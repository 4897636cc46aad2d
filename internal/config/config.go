// internal/config/config.go
package config

import "github.com/tamzrod/sysmon-bridge/internal/logger"

type Config struct {
	Bridge BridgeConfig  `yaml:"bridge"`
	Log    logger.Config `yaml:"log"`
}

type BridgeConfig struct {
	// Namespace prefixes every derived subject and names the remote service.
	Namespace string         `yaml:"namespace"`
	Codec     string         `yaml:"codec"`
	NATS      NATSConfig     `yaml:"nats"`
	Subjects  SubjectsConfig `yaml:"subjects"`
	Commands  CommandsConfig `yaml:"commands"`
	Refresh   RefreshConfig  `yaml:"refresh"`
	Mirror    *MirrorConfig  `yaml:"mirror"` // optional, opt-in
}

// ---- TRANSPORT ----

type NATSConfig struct {
	URL        string `yaml:"url"`
	ClientName string `yaml:"client_name"`
}

// SubjectsConfig overrides derived subjects. Empty => <namespace>.<name>.
type SubjectsConfig struct {
	SystemInfo   string `yaml:"system_info"`
	TrackerState string `yaml:"tracker_state"`
	Init         string `yaml:"init"`
	Reset        string `yaml:"reset"`
}

// ---- COMMANDS ----

type CommandsConfig struct {
	TimeoutMs          int `yaml:"timeout_ms"`
	HandshakeTimeoutMs int `yaml:"handshake_timeout_ms"` // 0 => wait forever
	ProbeIntervalMs    int `yaml:"probe_interval_ms"`
}

// ---- REFRESH ----

type RefreshConfig struct {
	IntervalMs   int `yaml:"interval_ms"`
	StaleAfterMs int `yaml:"stale_after_ms"`
}

// ---- MIRROR ----

type MirrorConfig struct {
	Endpoint   string `yaml:"endpoint"`
	UnitID     uint8  `yaml:"unit_id"`
	BaseSlot   uint16 `yaml:"base_slot"`
	TimeoutMs  int    `yaml:"timeout_ms"`
	DeviceName string `yaml:"device_name"`
}

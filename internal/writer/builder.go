// internal/writer/builder.go
package writer

import (
	"errors"
	"time"

	cfg "github.com/tamzrod/sysmon-bridge/internal/config"
	wmodbus "github.com/tamzrod/sysmon-bridge/internal/writer/modbus"
)

// BuildPlan converts the mirror section into a Writer Plan.
// Assumes config has already been validated and normalized.
func BuildPlan(m cfg.MirrorConfig) (Plan, error) {
	if m.Endpoint == "" {
		return Plan{}, errors.New("writer: mirror.endpoint required")
	}

	return Plan{
		Endpoint:   m.Endpoint,
		UnitID:     m.UnitID,
		BaseSlot:   m.BaseSlot,
		DeviceName: m.DeviceName,
	}, nil
}

// Build creates the TCP client for the mirror and the Writer on top of it.
// The returned close func releases the connection.
func Build(m cfg.MirrorConfig) (Writer, func() error, error) {
	plan, err := BuildPlan(m)
	if err != nil {
		return nil, nil, err
	}

	c, err := wmodbus.NewEndpointClient(wmodbus.Config{
		Endpoint: plan.Endpoint,
		Timeout:  time.Duration(m.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		return nil, nil, err
	}

	w, err := New(plan, c)
	if err != nil {
		_ = c.Close()
		return nil, nil, err
	}

	return w, c.Close, nil
}

// internal/writer/types.go
package writer

import "github.com/tamzrod/sysmon-bridge/internal/poller"

// Plan is the fully-built mirror plan for one bridge.
type Plan struct {
	Endpoint   string
	UnitID     uint8
	BaseSlot   uint16 // block index; address = BaseSlot * SlotsPerBlock
	DeviceName string
}

// Writer delivers poll frames into the mirror.
type Writer interface {
	Write(f poller.Frame) error
}

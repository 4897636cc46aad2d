// internal/writer/writer.go
package writer

import (
	"errors"

	"github.com/tamzrod/sysmon-bridge/internal/poller"
	"github.com/tamzrod/sysmon-bridge/internal/status"
)

// endpointClient is the exact contract the writer uses.
type endpointClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}

type frameWriter struct {
	plan  Plan
	block *blockWriter
}

// New returns a Writer that encodes each frame into the status block
// and hands it to the block writer.
func New(plan Plan, cli endpointClient) (Writer, error) {
	if cli == nil {
		return nil, errors.New("writer: endpoint client required")
	}
	return &frameWriter{
		plan:  plan,
		block: newBlockWriter(plan, cli),
	}, nil
}

func (w *frameWriter) Write(f poller.Frame) error {
	regs := status.Encode(f.Snapshot, f.Health, f.At, w.plan.DeviceName)
	return w.block.WriteBlock(regs)
}

// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/sysmon-bridge/internal/status"
)

// blockWriter owns one status block in the mirror.
// It knows nothing about telemetry; it diffs registers.
type blockWriter struct {
	plan Plan
	cli  endpointClient

	needFull bool
	last     []uint16
}

func newBlockWriter(plan Plan, cli endpointClient) *blockWriter {
	return &blockWriter{
		plan:     plan,
		cli:      cli,
		needFull: true, // full re-assert on first successful write
	}
}

// WriteBlock delivers a full block of registers.
// The first call, and the first call after any failure, writes the
// whole block; otherwise only changed runs are written.
func (bw *blockWriter) WriteBlock(regs []uint16) error {
	if len(regs) != status.SlotsPerBlock {
		return fmt.Errorf("status writer: block has %d registers, want %d", len(regs), status.SlotsPerBlock)
	}

	base := bw.baseAddr()

	// ------------------------------------------------------------
	// Full block write (identity re-assert)
	// ------------------------------------------------------------
	if bw.needFull {
		if err := bw.cli.WriteRegisters(bw.plan.UnitID, base, regs); err != nil {
			return fmt.Errorf("status writer: full block write failed: %w", err)
		}
		bw.needFull = false
		bw.last = append(bw.last[:0], regs...)
		return nil
	}

	var errs []string

	for _, r := range changedRuns(bw.last, regs) {
		chunk := regs[r.start:r.end]
		if err := bw.cli.WriteRegisters(bw.plan.UnitID, base+uint16(r.start), chunk); err != nil {
			errs = append(errs, fmt.Sprintf("slots %d-%d write failed: %v", r.start, r.end-1, err))
			continue
		}
		copy(bw.last[r.start:r.end], chunk)
	}

	if len(errs) > 0 {
		// Any partial failure introduces doubt; re-assert on next success.
		bw.needFull = true
		return errors.New("status writer: " + strings.Join(errs, " | "))
	}

	return nil
}

func (bw *blockWriter) baseAddr() uint16 {
	return bw.plan.BaseSlot * status.SlotsPerBlock
}

type run struct{ start, end int }

// changedRuns returns the contiguous index ranges where next differs from prev.
func changedRuns(prev, next []uint16) []run {
	var out []run
	start := -1
	for i := range next {
		if prev[i] != next[i] {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			out = append(out, run{start, i})
			start = -1
		}
	}
	if start >= 0 {
		out = append(out, run{start, len(next)})
	}
	return out
}

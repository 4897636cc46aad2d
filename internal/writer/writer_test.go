// internal/writer/writer_test.go
package writer

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/sysmon-bridge/internal/config"
	"github.com/tamzrod/sysmon-bridge/internal/poller"
	"github.com/tamzrod/sysmon-bridge/internal/status"
)

// ---- fake endpoint client ----

type fakeEndpointClient struct {
	writes []writeCall
	failOn int // 1-based write number to fail; 0 = never
}

type writeCall struct {
	unitID uint8
	addr   uint16
	regs   []uint16
}

func (f *fakeEndpointClient) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	f.writes = append(f.writes, writeCall{
		unitID: unitID,
		addr:   addr,
		regs:   append([]uint16(nil), regs...),
	})
	if f.failOn == len(f.writes) {
		return errors.New("connection reset")
	}
	return nil
}

func (f *fakeEndpointClient) last() writeCall {
	return f.writes[len(f.writes)-1]
}

var testPlan = Plan{
	Endpoint:   "mirror",
	UnitID:     7,
	BaseSlot:   2,
	DeviceName: "TRACKER-01",
}

func frame(at time.Time, fps float64, msg string) poller.Frame {
	s := status.Snapshot{
		FrameRate:     fps,
		StatusMessage: msg,
		InfoAt:        at,
		Received:      1,
	}
	return poller.Frame{At: at, Snapshot: s, Health: status.HealthOK, Text: status.Render(s)}
}

// ---- tests ----

func TestNew_RequiresClient(t *testing.T) {
	_, err := New(testPlan, nil)
	require.Error(t, err)
}

func TestWriter_FirstWriteIsFullBlock(t *testing.T) {
	cli := &fakeEndpointClient{}
	w, err := New(testPlan, cli)
	require.NoError(t, err)

	now := time.Unix(1700000000, 0)
	require.NoError(t, w.Write(frame(now, 12.5, "TRACKING")))

	require.Len(t, cli.writes, 1)
	call := cli.last()
	assert.Equal(t, uint8(7), call.unitID)
	assert.Equal(t, uint16(2*status.SlotsPerBlock), call.addr)
	require.Len(t, call.regs, status.SlotsPerBlock)

	assert.Equal(t, status.HealthOK, call.regs[status.SlotHealthCode])
	assert.Equal(t, uint16(1250), call.regs[status.SlotFrameRate])
	assert.Equal(t,
		status.PackASCII("TRACKER-01", status.SlotDeviceNameSlots),
		call.regs[status.SlotDeviceNameStart:status.SlotDeviceNameStart+status.SlotDeviceNameSlots],
	)
}

func TestWriter_IncrementalWritesOnlyChangedRuns(t *testing.T) {
	cli := &fakeEndpointClient{}
	w, err := New(testPlan, cli)
	require.NoError(t, err)

	now := time.Unix(1700000000, 0)
	require.NoError(t, w.Write(frame(now, 12.5, "TRACKING")))

	// identical frame: nothing to do
	require.NoError(t, w.Write(frame(now, 12.5, "TRACKING")))
	require.Len(t, cli.writes, 1)

	// only the frame rate changes
	require.NoError(t, w.Write(frame(now, 30, "TRACKING")))
	require.Len(t, cli.writes, 2)

	call := cli.last()
	assert.Equal(t, uint16(2*status.SlotsPerBlock+status.SlotFrameRate), call.addr)
	assert.Equal(t, []uint16{3000}, call.regs)

	// device name is never rewritten on incremental updates
	for _, c := range cli.writes[1:] {
		assert.Less(t, int(c.addr-2*status.SlotsPerBlock), status.SlotDeviceNameStart)
	}
}

func TestWriter_FailureForcesFullReassert(t *testing.T) {
	cli := &fakeEndpointClient{failOn: 2}
	w, err := New(testPlan, cli)
	require.NoError(t, err)

	now := time.Unix(1700000000, 0)
	require.NoError(t, w.Write(frame(now, 12.5, "TRACKING")))
	require.Error(t, w.Write(frame(now, 20, "TRACKING")))

	require.NoError(t, w.Write(frame(now, 20, "TRACKING")))
	assert.Len(t, cli.last().regs, status.SlotsPerBlock)
}

func TestBlockWriter_RejectsWrongSize(t *testing.T) {
	bw := newBlockWriter(testPlan, &fakeEndpointClient{})
	require.Error(t, bw.WriteBlock(make([]uint16, 3)))
}

func TestChangedRuns(t *testing.T) {
	prev := []uint16{0, 0, 0, 0, 0, 0}
	next := []uint16{1, 0, 2, 2, 0, 3}

	assert.Equal(t, []run{{0, 1}, {2, 4}, {5, 6}}, changedRuns(prev, next))
	assert.Empty(t, changedRuns(prev, prev))
}

func TestBuildPlan(t *testing.T) {
	_, err := BuildPlan(config.MirrorConfig{})
	require.Error(t, err)

	p, err := BuildPlan(config.MirrorConfig{
		Endpoint:   "127.0.0.1:502",
		UnitID:     3,
		BaseSlot:   1,
		DeviceName: "DEV",
	})
	require.NoError(t, err)
	assert.Equal(t, Plan{Endpoint: "127.0.0.1:502", UnitID: 3, BaseSlot: 1, DeviceName: "DEV"}, p)
}

// internal/status/encode.go
package status

import (
	"fmt"
	"math"
	"time"
)

// WaitingText is what Render shows before the first message.
const WaitingText = "Waiting for MAV connection"

// HealthOf classifies s at now. staleAfter <= 0 disables staleness.
func HealthOf(s Snapshot, now time.Time, staleAfter time.Duration) uint16 {
	if !s.HasData() {
		return HealthUnknown
	}
	if staleAfter > 0 && now.Sub(s.LastUpdate()) > staleAfter {
		return HealthStale
	}
	return HealthOK
}

// Render produces the display text for s.
func Render(s Snapshot) string {
	if !s.HasData() {
		return WaitingText
	}
	return fmt.Sprintf("fps = %.2f\n%s\n", s.FrameRate, s.StatusMessage)
}

// Encode converts a Snapshot into a full status block.
// Layout is protocol-locked.
// No IO. No side effects.
func Encode(s Snapshot, health uint16, now time.Time, deviceName string) []uint16 {
	regs := make([]uint16, SlotsPerBlock)

	regs[SlotHealthCode] = health
	regs[SlotFrameRate] = saturate16(math.Round(s.FrameRate * 100))

	received := uint32(math.MaxUint32)
	if s.Received < math.MaxUint32 {
		received = uint32(s.Received)
	}
	regs[SlotReceivedHi] = uint16(received >> 16)
	regs[SlotReceivedLo] = uint16(received)

	if s.HasData() {
		regs[SlotSecondsSinceUpdate] = saturate16(math.Floor(now.Sub(s.LastUpdate()).Seconds()))
	}

	copy(regs[SlotDeviceNameStart:], PackASCII(deviceName, SlotDeviceNameSlots))
	copy(regs[SlotMessageStart:], PackASCII(s.StatusMessage, SlotMessageSlots))

	return regs
}

// PackASCII packs up to 2*slots ASCII characters into registers.
// Each register stores two bytes in big-endian order; non-printable
// bytes become '?'.
func PackASCII(text string, slots int) []uint16 {
	out := make([]uint16, slots)

	b := []byte(text)
	if len(b) > slots*2 {
		b = b[:slots*2]
	}

	for i := 0; i < len(b); i++ {
		if b[i] < 0x20 || b[i] > 0x7E {
			b[i] = '?'
		}
	}

	for i := 0; i < slots*2; i += 2 {
		var hi, lo byte
		if i < len(b) {
			hi = b[i]
		}
		if i+1 < len(b) {
			lo = b[i+1]
		}
		out[i/2] = uint16(hi)<<8 | uint16(lo)
	}

	return out
}

func saturate16(v float64) uint16 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= math.MaxUint16:
		return math.MaxUint16
	default:
		return uint16(v)
	}
}

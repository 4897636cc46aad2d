// internal/status/constants.go
package status

// Status Block layout constants.
// These values define the mirror protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerBlock is the fixed number of registers per mirrored bridge.
const SlotsPerBlock = 32

// ---- SLOT INDICES ----

// SlotHealthCode holds the telemetry health state.
const SlotHealthCode = 0

// SlotFrameRate holds the frame rate in hundredths of a frame per second.
const SlotFrameRate = 1

// SlotReceivedHi and SlotReceivedLo hold the received count as a
// big-endian uint32 (saturating).
const SlotReceivedHi = 2
const SlotReceivedLo = 3

// SlotSecondsSinceUpdate holds the age of the newest telemetry in seconds.
const SlotSecondsSinceUpdate = 4

// ---- RESERVED RANGE ----

// Slots 5-7 are reserved for future use.
const SlotReservedStart = 5
const SlotReservedEnd = 7

// ---- DEVICE NAME ----

// SlotDeviceNameStart is the first slot used for the configured device name.
const SlotDeviceNameStart = 8

// SlotDeviceNameSlots is the number of slots reserved for the device name.
const SlotDeviceNameSlots = 8

// ---- STATUS MESSAGE ----

// SlotMessageStart is the first slot of the status message text.
// The message always occupies the END of the block.
const SlotMessageStart = SlotDeviceNameStart + SlotDeviceNameSlots

// SlotMessageSlots is the number of slots reserved for the status message.
const SlotMessageSlots = SlotsPerBlock - SlotMessageStart

// ---- LIMITS ----

// DeviceNameMaxChars is the maximum number of ASCII characters stored for device name.
const DeviceNameMaxChars = SlotDeviceNameSlots * 2

// MessageMaxChars is the maximum number of ASCII characters stored for the message.
const MessageMaxChars = SlotMessageSlots * 2

// ---- HEALTH CODES ----

// HealthUnknown represents the waiting state before any telemetry.
const HealthUnknown uint16 = 0

// HealthOK represents fresh telemetry.
const HealthOK uint16 = 1

// HealthStale represents telemetry older than the stale threshold.
const HealthStale uint16 = 3

// internal/command/types.go
package command

import (
	"fmt"
	"time"
)

// Kind selects a remote command.
type Kind int

const (
	KindInit Kind = iota
	KindReset
	KindQuit
)

func (k Kind) String() string {
	switch k {
	case KindInit:
		return "init"
	case KindReset:
		return "reset"
	case KindQuit:
		return "quit"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ResetFlags are passed through to the remote reset endpoint verbatim.
type ResetFlags struct {
	ResetMap  bool `json:"reset_map" cbor:"reset_map"`
	ResetPose bool `json:"reset_pose" cbor:"reset_pose"`
}

// Request is one operator intent. Reset is read only for KindReset.
type Request struct {
	Kind  Kind
	Reset ResetFlags
}

// Ack is a positive acknowledgment from the remote process.
type Ack struct {
	Kind      Kind
	RequestID string
	Message   string
	Latency   time.Duration
}

// Endpoints are the remote command subjects.
type Endpoints struct {
	Init  string
	Reset string
}

// Config is the runtime config the client needs.
type Config struct {
	Endpoints Endpoints

	// Timeout bounds every invocation.
	Timeout time.Duration

	// HandshakeTimeout bounds Handshake; <= 0 waits until ctx ends.
	HandshakeTimeout time.Duration
}

// ---- wire forms ----

type emptyRequest struct{}

type reply struct {
	OK      bool   `json:"ok" cbor:"ok"`
	Message string `json:"message,omitempty" cbor:"message,omitempty"`
}

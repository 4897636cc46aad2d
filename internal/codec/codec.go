// internal/codec/codec.go

// Package codec holds the payload encodings spoken on the telemetry and
// command subjects. The remote side picks one; the bridge is configured
// to match.
package codec

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// Codec encodes and decodes subject payloads.
type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

const (
	NameJSON = "json"
	NameCBOR = "cbor"
)

// Lookup returns the codec registered under name.
func Lookup(name string) (Codec, error) {
	switch name {
	case NameJSON:
		return JSON{}, nil
	case NameCBOR:
		return CBOR{}, nil
	default:
		return nil, fmt.Errorf("codec: unknown codec %q", name)
	}
}

// Valid reports whether data holds exactly one well-formed, non-null document.
// Used for payloads the bridge carries but does not interpret.
func Valid(c Codec, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("codec %s: empty payload", c.Name())
	}
	var v any
	if err := c.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("codec %s: %w", c.Name(), err)
	}
	if v == nil {
		return fmt.Errorf("codec %s: null document", c.Name())
	}
	return nil
}

// ---- JSON ----

type JSON struct{}

func (JSON) Name() string                       { return NameJSON }
func (JSON) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// ---- CBOR ----

// Core deterministic encoding; decoding maps to map[string]any so
// opaque payloads stay usable by JSON-minded consumers.
var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	var err error

	cborEnc, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	cborDec, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

type CBOR struct{}

func (CBOR) Name() string                       { return NameCBOR }
func (CBOR) Marshal(v any) ([]byte, error)      { return cborEnc.Marshal(v) }
func (CBOR) Unmarshal(data []byte, v any) error { return cborDec.Unmarshal(data, v) }

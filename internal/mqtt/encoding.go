package mqtt

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Encoder turns a payload struct into message bytes.
type Encoder interface {
	Marshal(v any) ([]byte, error)
	Format() string
}

type jsonEncoder struct{}

func (jsonEncoder) Marshal(v any) ([]byte, error) { return json.Marshal(v) }
func (jsonEncoder) Format() string                { return "json" }

type cborEncoder struct {
	mode cbor.EncMode
}

func (e cborEncoder) Marshal(v any) ([]byte, error) { return e.mode.Marshal(v) }
func (cborEncoder) Format() string                  { return "cbor" }

// NewEncoder returns the encoder for format ("json" or "cbor").
func NewEncoder(format string) (Encoder, error) {
	switch format {
	case "", "json":
		return jsonEncoder{}, nil
	case "cbor":
		mode, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
		if err != nil {
			return nil, fmt.Errorf("cbor enc mode: %w", err)
		}
		return cborEncoder{mode: mode}, nil
	default:
		return nil, fmt.Errorf("unknown telemetry format %q", format)
	}
}

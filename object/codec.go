package object

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	// Deterministic encoding: commit IDs are derived from these bytes.
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("object: cbor enc mode: %v", err))
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("object: cbor dec mode: %v", err))
	}
}

// Marshal encodes v as deterministic CBOR.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Decode reads the typed datum of o.
func Decode[T any](o *Object) (T, error) {
	var v T
	if o == nil || len(o.Datum) == 0 {
		return v, ErrNoDatum
	}
	if err := Unmarshal(o.Datum, &v); err != nil {
		return v, fmt.Errorf("object: decode %s: %w", o.Ref, err)
	}
	return v, nil
}

package metadata_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/fxamacker/cbor/v2"

	"github.com/xraph/edition/metadata"
	"github.com/xraph/edition/object"
)

func TestNewStartsAtVersionOne(t *testing.T) {
	r, err := metadata.New(42, metadata.Payload{"name": "Gen #42"})
	if err != nil {
		t.Fatal(err)
	}
	if r.ID != 42 || r.Version != 1 || r.Payload["name"] != "Gen #42" {
		t.Errorf("got %+v", r)
	}
	if _, err := metadata.New(-1, nil); !errors.Is(err, metadata.ErrInvalidID) {
		t.Errorf("expected ErrInvalidID, got %v", err)
	}
}

func TestMutateIncrementsByOne(t *testing.T) {
	extra := cbor.RawMessage{0x01}
	r, _ := metadata.New(7, metadata.Payload{"v": "0"})
	r.Extra = extra

	for want := int64(2); want <= 20; want++ {
		next := r.Mutate(metadata.Payload{"v": want})
		if next.Version != r.Version+1 || next.Version != want {
			t.Fatalf("version %d -> %d", r.Version, next.Version)
		}
		if next.ID != r.ID {
			t.Fatalf("id changed: %d -> %d", r.ID, next.ID)
		}
		if !bytes.Equal(next.Extra, extra) {
			t.Fatalf("extra not preserved: %x", next.Extra)
		}
		r = next
	}
}

func TestMutateDoesNotAlias(t *testing.T) {
	p := metadata.Payload{"k": "a"}
	r, _ := metadata.New(1, p)
	p["k"] = "b"
	if r.Payload["k"] != "a" {
		t.Error("record aliases caller payload")
	}
}

func TestRecordCodec(t *testing.T) {
	r, _ := metadata.New(3, metadata.Payload{"name": "x", "traits": map[string]any{"eyes": "blue"}})
	raw, err := object.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}

	got, err := object.Decode[metadata.Record](&object.Object{Datum: raw})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if err := got.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got.ID != 3 || got.Version != 1 || got.Payload["name"] != "x" {
		t.Errorf("got %+v", got)
	}
	traits, ok := got.Payload["traits"].(map[string]any)
	if !ok || traits["eyes"] != "blue" {
		t.Errorf("traits = %#v", got.Payload["traits"])
	}
}

func TestValidate(t *testing.T) {
	if err := (metadata.Record{ID: 1}).Validate(); !errors.Is(err, metadata.ErrInvalidVersion) {
		t.Errorf("got %v", err)
	}
}

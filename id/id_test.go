package id_test

import (
	"strings"
	"testing"

	"github.com/xraph/edition/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"OperationID", id.NewOperationID, "op_"},
		{"FundingID", id.NewFundingID, "fund_"},
		{"AuditEventID", id.NewAuditEventID, "aud_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestParseOperationID(t *testing.T) {
	op := id.NewOperationID()
	parsed, err := id.ParseOperationID(op.String())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if parsed.String() != op.String() {
		t.Errorf("round-trip mismatch: %q != %q", parsed.String(), op.String())
	}

	if _, err := id.ParseOperationID(id.NewFundingID().String()); err == nil {
		t.Error("expected error for fund_ prefix")
	}
}

func TestParseEmpty(t *testing.T) {
	if _, err := id.Parse(""); err == nil {
		t.Error("expected error for empty string")
	}
}

func TestNilID(t *testing.T) {
	var i id.ID
	if !i.IsNil() {
		t.Error("zero-value ID should be nil")
	}
	if i.String() != "" {
		t.Errorf("expected empty string, got %q", i.String())
	}
	if i.Prefix() != "" {
		t.Errorf("expected empty prefix, got %q", i.Prefix())
	}
}

func TestMarshalUnmarshalText(t *testing.T) {
	original := id.NewAuditEventID()
	data, err := original.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText failed: %v", err)
	}

	var restored id.ID
	if err := restored.UnmarshalText(data); err != nil {
		t.Fatalf("UnmarshalText failed: %v", err)
	}
	if restored.String() != original.String() {
		t.Errorf("mismatch: %q != %q", restored.String(), original.String())
	}

	var empty id.ID
	if err := empty.UnmarshalText(nil); err != nil {
		t.Fatalf("UnmarshalText(nil) failed: %v", err)
	}
	if !empty.IsNil() {
		t.Error("expected nil after empty unmarshal")
	}
}

func TestUniqueness(t *testing.T) {
	a := id.NewOperationID()
	b := id.NewOperationID()
	if a.String() == b.String() {
		t.Errorf("two consecutive NewOperationID() calls returned the same ID: %q", a.String())
	}
}

package capability_test

import (
	"errors"
	"testing"

	"github.com/xraph/edition/capability"
)

func TestLabelPrefix(t *testing.T) {
	tests := []struct {
		label capability.Label
		want  string
	}{
		{capability.LabelReference, "000643b0"},
		{capability.LabelAuthenticity, "000de140"},
		{333, "0014df10"},
		{444, "001bc280"},
	}

	for _, tt := range tests {
		if got := tt.label.Prefix(); got != tt.want {
			t.Errorf("Label(%d).Prefix() = %q, want %q", tt.label, got, tt.want)
		}
		parsed, err := capability.ParseLabel(tt.want)
		if err != nil {
			t.Fatalf("ParseLabel(%q): %v", tt.want, err)
		}
		if parsed != tt.label {
			t.Errorf("ParseLabel(%q) = %d, want %d", tt.want, parsed, tt.label)
		}
	}
}

func TestParseLabelRejectsBadChecksum(t *testing.T) {
	if _, err := capability.ParseLabel("000643c0"); !errors.Is(err, capability.ErrInvalidAssetName) {
		t.Errorf("expected ErrInvalidAssetName, got %v", err)
	}
	if _, err := capability.ParseLabel("100643b0"); err == nil {
		t.Error("expected error for leading nibble")
	}
}

func TestEditionAssetNameRoundTrip(t *testing.T) {
	base := []byte("Gen")
	name := capability.EditionAssetName(capability.LabelAuthenticity, base, 4207)
	if name != "000de140"+"47656e"+"34323037" {
		t.Fatalf("unexpected name %q", name)
	}

	label, edition, err := capability.ParseEditionAssetName(name, base)
	if err != nil {
		t.Fatalf("ParseEditionAssetName: %v", err)
	}
	if label != capability.LabelAuthenticity || edition != 4207 {
		t.Errorf("got label %d edition %d", label, edition)
	}

	if _, _, err := capability.ParseEditionAssetName(name, []byte("Other")); err == nil {
		t.Error("expected base name mismatch")
	}
}

func TestEditionNameFits(t *testing.T) {
	if !capability.EditionNameFits([]byte("Collection"), 9999) {
		t.Error("short base name should fit")
	}
	if capability.EditionNameFits(make([]byte, 26), 9999) {
		t.Error("26-byte base name plus label and 4 digits exceeds 32 bytes")
	}
}

func TestKinds(t *testing.T) {
	for _, k := range capability.ControlKinds() {
		if k.PerEdition() {
			t.Errorf("%s should not be per-edition", k)
		}
	}
	if capability.Reference.Label() != capability.LabelReference {
		t.Error("reference label mismatch")
	}
	if capability.Authenticity.Label() != capability.LabelAuthenticity {
		t.Error("authenticity label mismatch")
	}
	if capability.Lane.AssetName() != "4c616e65" {
		t.Errorf("Lane asset name = %q", capability.Lane.AssetName())
	}
}

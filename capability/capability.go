// Package capability names the tokens whose possession grants a privileged
// action. It carries no logic beyond naming: the control tokens minted once
// per instance, and the two per-edition markers minted with every edition.
package capability

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/xraph/edition/types"
)

// Kind is a capability token class.
type Kind string

const (
	// Lane marks a lane object. One is minted per lane.
	Lane Kind = "Lane"
	// Payment travels with the payment table.
	Payment Kind = "Payment"
	// Ownership grants administration of payments and teardown.
	Ownership Kind = "Ownership"
	// AppWallet grants application-level metadata mutation.
	AppWallet Kind = "AppWallet"
	// Reference is the per-edition marker carried by the metadata record.
	Reference Kind = "Reference"
	// Authenticity is the per-edition marker held by the edition owner.
	Authenticity Kind = "Authenticity"
)

// MaxAssetNameLen is the longest asset name the ledger accepts, in bytes.
const MaxAssetNameLen = 32

// ErrInvalidAssetName is returned when a per-edition asset name does not parse.
var ErrInvalidAssetName = types.Invalid("capability: invalid asset name")

// ControlKinds lists the kinds minted by the control policy at deploy.
func ControlKinds() []Kind {
	return []Kind{Lane, Payment, Ownership, AppWallet}
}

// PerEdition reports whether k is minted once per edition.
func (k Kind) PerEdition() bool {
	return k == Reference || k == Authenticity
}

// AssetName returns the hex asset name of a control kind.
func (k Kind) AssetName() string {
	return hex.EncodeToString([]byte(k))
}

// Label returns the label of a per-edition kind.
func (k Kind) Label() Label {
	switch k {
	case Reference:
		return LabelReference
	case Authenticity:
		return LabelAuthenticity
	default:
		return 0
	}
}

// Label is a CIP-67 asset name label.
type Label uint16

const (
	LabelReference    Label = 100
	LabelAuthenticity Label = 222
)

// Prefix returns the 4-byte label prefix as hex: a zero nibble, the label in
// 4 hex digits, a CRC-8 checksum of the label bytes, and a trailing zero.
func (l Label) Prefix() string {
	num := fmt.Sprintf("%04x", uint16(l))
	raw, _ := hex.DecodeString(num)
	return "0" + num + fmt.Sprintf("%02x", crc8(raw)) + "0"
}

// ParseLabel reads a label from an 8-hex-digit prefix and checks its checksum.
func ParseLabel(prefix string) (Label, error) {
	if len(prefix) != 8 || prefix[0] != '0' || prefix[7] != '0' {
		return 0, fmt.Errorf("%w: label prefix %q", ErrInvalidAssetName, prefix)
	}
	n, err := strconv.ParseUint(prefix[1:5], 16, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: label prefix %q: %v", ErrInvalidAssetName, prefix, err)
	}
	l := Label(n)
	if l.Prefix() != prefix {
		return 0, fmt.Errorf("%w: label checksum %q", ErrInvalidAssetName, prefix)
	}
	return l, nil
}

// EditionAssetName returns the hex asset name of a per-edition marker:
// label prefix, base name, then the edition number in decimal.
func EditionAssetName(label Label, baseName []byte, edition int64) string {
	return label.Prefix() + hex.EncodeToString(baseName) +
		hex.EncodeToString([]byte(strconv.FormatInt(edition, 10)))
}

// EditionNameFits reports whether every edition name up to maxEdition fits
// within MaxAssetNameLen.
func EditionNameFits(baseName []byte, maxEdition int64) bool {
	return 4+len(baseName)+len(strconv.FormatInt(maxEdition, 10)) <= MaxAssetNameLen
}

// ParseEditionAssetName splits a hex per-edition asset name back into label
// and edition number.
func ParseEditionAssetName(nameHex string, baseName []byte) (Label, int64, error) {
	if len(nameHex) < 8 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidAssetName, nameHex)
	}
	label, err := ParseLabel(nameHex[:8])
	if err != nil {
		return 0, 0, err
	}
	rest, err := hex.DecodeString(nameHex[8:])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q: %v", ErrInvalidAssetName, nameHex, err)
	}
	if len(rest) <= len(baseName) || string(rest[:len(baseName)]) != string(baseName) {
		return 0, 0, fmt.Errorf("%w: %q: base name mismatch", ErrInvalidAssetName, nameHex)
	}
	digits := string(rest[len(baseName):])
	edition, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || edition < 0 || strconv.FormatInt(edition, 10) != digits {
		return 0, 0, fmt.Errorf("%w: %q: edition %q", ErrInvalidAssetName, nameHex, digits)
	}
	return label, edition, nil
}

// crc8 computes CRC-8 with polynomial 0x07 and zero init.
func crc8(data []byte) byte {
	var crc byte
	for _, b := range data {
		crc ^= b
		for range 8 {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x07
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

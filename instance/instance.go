// Package instance derives everything a running deployment needs from its
// identity string: policies, addresses and token units.
//
// The identity is fixed when an instance is deployed. It names the
// single-use object consumed by the deploy (which makes it globally unique),
// the base name of every edition, and the capacity of each lane. Nothing else
// is persisted off the store; any process holding the string can reconnect.
package instance

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/xraph/edition/capability"
	"github.com/xraph/edition/object"
	"github.com/xraph/edition/types"
)

// ErrInvalidIdentity is returned when an identity string does not parse.
var ErrInvalidIdentity = types.Invalid("instance: invalid identity")

const sep = "-"

// Identity is the persisted form of an instance.
type Identity struct {
	Source   object.Ref
	BaseName []byte
	PerLane  int64
}

// String encodes the identity as
// "<commit>-<output index>-<hex base name>-<per-lane capacity>".
func (id Identity) String() string {
	return strings.Join([]string{
		string(id.Source.Commit),
		strconv.FormatUint(uint64(id.Source.Index), 10),
		hex.EncodeToString(id.BaseName),
		strconv.FormatInt(id.PerLane, 10),
	}, sep)
}

// Parse decodes an identity string.
func Parse(s string) (Identity, error) {
	parts := strings.Split(s, sep)
	if len(parts) != 4 {
		return Identity{}, fmt.Errorf("%w: %q: want 4 fields, got %d", ErrInvalidIdentity, s, len(parts))
	}

	commit, err := object.ParseCommitID(parts[0])
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidIdentity, err)
	}
	index, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: output index %q", ErrInvalidIdentity, parts[1])
	}
	name, err := hex.DecodeString(parts[2])
	if err != nil || len(name) == 0 {
		return Identity{}, fmt.Errorf("%w: base name %q", ErrInvalidIdentity, parts[2])
	}
	perLane, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil || perLane < 1 {
		return Identity{}, fmt.Errorf("%w: per-lane capacity %q", ErrInvalidIdentity, parts[3])
	}

	return Identity{Source: object.NewRef(commit, uint32(index)), BaseName: name, PerLane: perLane}, nil
}

// Instance is an identity with its derived policies and addresses.
type Instance struct {
	Identity

	// ControlPolicy mints the lane, payment, ownership and app tokens.
	ControlPolicy string
	// MintPolicy mints the per-edition markers.
	MintPolicy string

	LaneAddress     types.Address
	MetadataAddress types.Address
	PaymentAddress  types.Address
}

// Derive computes every policy and address of id.
func Derive(id Identity) Instance {
	control := hash224("control", id.Source, id.BaseName, id.PerLane)
	metadataScript := hash224("metadata", control)
	paymentScript := hash224("payment", control)
	mint := hash224("mint", control, metadataScript)

	return Instance{
		Identity:        id,
		ControlPolicy:   hex.EncodeToString(control),
		MintPolicy:      hex.EncodeToString(mint),
		LaneAddress:     types.ScriptAddress(mint),
		MetadataAddress: types.ScriptAddress(metadataScript),
		PaymentAddress:  types.ScriptAddress(paymentScript),
	}
}

// Name returns the base name as text.
func (i Instance) Name() string { return string(i.BaseName) }

// ControlUnit returns the unit of a control token.
func (i Instance) ControlUnit(k capability.Kind) types.Unit {
	return types.AssetUnit(i.ControlPolicy, k.AssetName())
}

// EditionUnit returns the unit of a per-edition marker.
func (i Instance) EditionUnit(k capability.Kind, edition int64) types.Unit {
	return types.AssetUnit(i.MintPolicy, capability.EditionAssetName(k.Label(), i.BaseName, edition))
}

// ParseEditionUnit reports the kind and edition of a per-edition marker of
// this instance.
func (i Instance) ParseEditionUnit(u types.Unit) (capability.Kind, int64, bool) {
	if u.Policy() != i.MintPolicy {
		return "", 0, false
	}
	label, edition, err := capability.ParseEditionAssetName(u.AssetName(), i.BaseName)
	if err != nil {
		return "", 0, false
	}
	switch label {
	case capability.LabelReference:
		return capability.Reference, edition, true
	case capability.LabelAuthenticity:
		return capability.Authenticity, edition, true
	default:
		return "", 0, false
	}
}

// TotalSupply is the number of editions across count lanes.
func (i Instance) TotalSupply(count int) int64 {
	return i.PerLane * int64(count)
}

func hash224(parts ...any) []byte {
	b, err := object.Marshal(parts)
	if err != nil {
		panic(fmt.Sprintf("instance: encode derivation input: %v", err))
	}
	h, err := blake2b.New(28, nil)
	if err != nil {
		panic(fmt.Sprintf("instance: blake2b-224: %v", err))
	}
	h.Write(b)
	return h.Sum(nil)
}

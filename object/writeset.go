package object

import (
	"fmt"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"github.com/xraph/edition/types"
)

// WriteSet is one atomic commit: consume Inputs, require References to be
// unspent without consuming them, and create Outputs. Mint records tokens
// created (positive) or retired (negative) by the commit.
//
// A write set without inputs is a genesis write and must carry a Memo so
// that its ID is unique.
type WriteSet struct {
	Inputs     []Ref       `cbor:"1,keyasint,omitempty" json:"inputs,omitempty"`
	References []Ref       `cbor:"2,keyasint,omitempty" json:"references,omitempty"`
	Outputs    []Output    `cbor:"3,keyasint,omitempty" json:"outputs,omitempty"`
	Mint       types.Value `cbor:"4,keyasint,omitempty" json:"mint,omitempty"`
	Memo       string      `cbor:"5,keyasint,omitempty" json:"memo,omitempty"`
}

// Consume appends inputs.
func (w *WriteSet) Consume(refs ...Ref) *WriteSet {
	w.Inputs = append(w.Inputs, refs...)
	return w
}

// Reference appends read-only references, skipping refs already consumed
// or referenced.
func (w *WriteSet) Reference(refs ...Ref) *WriteSet {
	for _, r := range refs {
		if w.touches(r) {
			continue
		}
		w.References = append(w.References, r)
	}
	return w
}

// Create appends an output and returns its index.
func (w *WriteSet) Create(out Output) uint32 {
	w.Outputs = append(w.Outputs, out)
	return uint32(len(w.Outputs) - 1)
}

// AddMint records minted (qty > 0) or burned (qty < 0) tokens.
func (w *WriteSet) AddMint(u types.Unit, qty int64) *WriteSet {
	w.Mint = w.Mint.Add(types.Of(u, qty))
	return w
}

// Consumes reports whether r is an input of w.
func (w *WriteSet) Consumes(r Ref) bool {
	for _, in := range w.Inputs {
		if in == r {
			return true
		}
	}
	return false
}

func (w *WriteSet) touches(r Ref) bool {
	if w.Consumes(r) {
		return true
	}
	for _, ref := range w.References {
		if ref == r {
			return true
		}
	}
	return false
}

// Validate checks the structural rules every store enforces before commit.
func (w *WriteSet) Validate() error {
	if len(w.Inputs) == 0 && len(w.Outputs) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidWriteSet)
	}
	if len(w.Inputs) == 0 && w.Memo == "" {
		return fmt.Errorf("%w: genesis write without memo", ErrInvalidWriteSet)
	}

	seen := make(map[Ref]struct{}, len(w.Inputs)+len(w.References))
	for _, r := range w.Inputs {
		if r.IsZero() {
			return fmt.Errorf("%w: zero input", ErrInvalidWriteSet)
		}
		if _, dup := seen[r]; dup {
			return fmt.Errorf("%w: input %s listed twice", ErrInvalidWriteSet, r)
		}
		seen[r] = struct{}{}
	}
	for _, r := range w.References {
		if r.IsZero() {
			return fmt.Errorf("%w: zero reference", ErrInvalidWriteSet)
		}
		if _, dup := seen[r]; dup {
			return fmt.Errorf("%w: reference %s also consumed or repeated", ErrInvalidWriteSet, r)
		}
		seen[r] = struct{}{}
	}
	for i, out := range w.Outputs {
		if out.Address == "" {
			return fmt.Errorf("%w: output %d has no address", ErrInvalidWriteSet, i)
		}
		if out.Assets.HasNegative() {
			return fmt.Errorf("%w: output %d has negative assets", ErrInvalidWriteSet, i)
		}
	}
	return nil
}

// ID derives the commit ID of w.
func (w *WriteSet) ID() (CommitID, error) {
	b, err := Marshal(w)
	if err != nil {
		return "", fmt.Errorf("object: encode write set: %w", err)
	}
	sum, err := multihash.Sum(b, multihash.SHA2_256, -1)
	if err != nil {
		return "", fmt.Errorf("object: hash write set: %w", err)
	}
	return CommitID(cid.NewCidV1(cid.DagCBOR, sum).String()), nil
}

// Materialize returns the objects w creates when committed as commit.
func (w *WriteSet) Materialize(commit CommitID, at time.Time) []*Object {
	objs := make([]*Object, len(w.Outputs))
	for i, out := range w.Outputs {
		objs[i] = &Object{
			Ref:       NewRef(commit, uint32(i)),
			Address:   out.Address,
			Assets:    out.Assets.Clone(),
			Datum:     out.Datum,
			CreatedAt: at,
		}
	}
	return objs
}

// Package object defines the boundary with the object store: references to
// unspent objects, the objects themselves, and the write sets that consume
// and create them in a single atomic commit.
//
// Objects are immutable. A mutation consumes an object and creates its
// replacement; the store guarantees that any object is consumed by at most
// one committed write set.
package object

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ipfs/go-cid"

	"github.com/xraph/edition/types"
)

var (
	ErrInvalidRef      = types.Invalid("object: invalid reference")
	ErrInvalidWriteSet = types.Invalid("object: invalid write set")
	ErrNoDatum         = errors.New("object: no datum")
)

// CommitID identifies a committed write set. It is the CIDv1 (dag-cbor,
// sha2-256) of the write set's deterministic encoding, so two write sets
// with identical content share an ID.
type CommitID string

// ParseCommitID validates a commit ID string.
func ParseCommitID(s string) (CommitID, error) {
	c, err := cid.Decode(s)
	if err != nil {
		return "", fmt.Errorf("%w: commit %q: %v", ErrInvalidRef, s, err)
	}
	if c.Type() != cid.DagCBOR {
		return "", fmt.Errorf("%w: commit %q: codec %d", ErrInvalidRef, s, c.Type())
	}
	return CommitID(c.String()), nil
}

// String implements fmt.Stringer.
func (c CommitID) String() string { return string(c) }

// Ref points at the Index-th output of a commit.
type Ref struct {
	_      struct{} `cbor:",toarray"`
	Commit CommitID `json:"commit"`
	Index  uint32   `json:"index"`
}

// NewRef returns a reference to output index of commit.
func NewRef(commit CommitID, index uint32) Ref {
	return Ref{Commit: commit, Index: index}
}

// ParseRef parses the "<commit>#<index>" form produced by String.
func ParseRef(s string) (Ref, error) {
	commit, idx, ok := strings.Cut(s, "#")
	if !ok {
		return Ref{}, fmt.Errorf("%w: %q", ErrInvalidRef, s)
	}
	c, err := ParseCommitID(commit)
	if err != nil {
		return Ref{}, err
	}
	n, err := strconv.ParseUint(idx, 10, 32)
	if err != nil {
		return Ref{}, fmt.Errorf("%w: %q: %v", ErrInvalidRef, s, err)
	}
	return NewRef(c, uint32(n)), nil
}

// String returns "<commit>#<index>".
func (r Ref) String() string {
	return string(r.Commit) + "#" + strconv.FormatUint(uint64(r.Index), 10)
}

// IsZero reports whether r is unset.
func (r Ref) IsZero() bool { return r.Commit == "" }

// Hash returns sha256 of the reference's encoding.
func (r Ref) Hash() []byte {
	b, err := Marshal(r)
	if err != nil {
		// A two-field array of string and uint cannot fail to encode.
		panic(fmt.Sprintf("object: encode ref: %v", err))
	}
	sum := sha256.Sum256(b)
	return sum[:]
}

// Output is an object to be created by a write set.
type Output struct {
	_       struct{}      `cbor:",toarray"`
	Address types.Address `json:"address"`
	Assets  types.Value   `json:"assets"`
	Datum   []byte        `json:"datum,omitempty"`
}

// Object is an unspent object in the store.
type Object struct {
	Ref       Ref           `json:"ref"`
	Address   types.Address `json:"address"`
	Assets    types.Value   `json:"assets"`
	Datum     []byte        `json:"datum,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// Holds reports whether o carries a positive quantity of u.
func (o *Object) Holds(u types.Unit) bool {
	return o.Assets.Get(u) > 0
}

// Output returns the object's content as an output spec.
func (o *Object) Output() Output {
	return Output{Address: o.Address, Assets: o.Assets.Clone(), Datum: o.Datum}
}

// Package lane implements the sharded sequential-ID allocator.
//
// The ID space [0, totalSupply) is split at deploy into a fixed number of
// lanes of equal capacity. Each lane is a separate store object holding its
// own counter, so concurrent issuers only contend when they pick the same
// lane. A lane is picked from session entropy derived from single-use
// inputs; the store's single-consumption rule makes the claim of a lane a
// single-writer critical section without any in-process lock.
package lane

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"

	"github.com/xraph/edition/object"
	"github.com/xraph/edition/types"
)

// DefaultCount is the number of lanes an instance is deployed with.
const DefaultCount = 100

var (
	// ErrNoCapacity is the parent of both capacity errors.
	ErrNoCapacity = errors.New("lane: no capacity available")
	// ErrLaneFull means the selected lane cannot take the batch. Another
	// lane may; resample entropy and retry.
	ErrLaneFull = fmt.Errorf("%w: selected lane full", ErrNoCapacity)
	// ErrExhausted means no lane anywhere can take the batch.
	ErrExhausted = fmt.Errorf("%w: supply exhausted", ErrNoCapacity)

	ErrInvalidSupply    = types.Invalid("lane: total supply must be a positive multiple of the lane count")
	ErrInvalidBatchSize = types.Invalid("lane: batch size must be at least 1")
	ErrInvalidCount     = types.Invalid("lane: lane count must be positive")
)

// Lane is the datum of a lane object.
type Lane struct {
	_       struct{} `cbor:",toarray"`
	Base    int64    `json:"base"`
	Counter int64    `json:"counter"`
	MaxID   int64    `json:"max_id"`
}

// Capacity is the number of IDs the lane owns.
func (l Lane) Capacity() int64 { return l.MaxID - l.Base }

// Remaining is the number of IDs not yet issued.
func (l Lane) Remaining() int64 { return l.MaxID - l.Base - l.Counter }

// Index is the lane's position given the per-lane capacity.
func (l Lane) Index(perLane int64) int64 { return l.Base / perLane }

// Fits reports whether n more IDs fit in the lane.
func (l Lane) Fits(n int64) bool {
	return n >= 1 && l.Counter+n <= l.MaxID-l.Base
}

// Valid checks the lane invariants.
func (l Lane) Valid() bool {
	return l.Base >= 0 && l.Counter >= 0 && l.Base+l.Counter <= l.MaxID
}

// Claim returns the lane advanced by n and the range of IDs it hands out.
func (l Lane) Claim(n int64) (Lane, Range, error) {
	if n < 1 {
		return l, Range{}, ErrInvalidBatchSize
	}
	if !l.Fits(n) {
		return l, Range{}, ErrLaneFull
	}
	next := l
	next.Counter += n
	return next, Range{First: l.Base + l.Counter, Count: n}, nil
}

// Range is a contiguous block of IDs [First, First+Count).
type Range struct {
	First int64 `json:"first"`
	Count int64 `json:"count"`
}

// IDs lists the IDs of r.
func (r Range) IDs() []int64 {
	ids := make([]int64, r.Count)
	for i := range ids {
		ids[i] = r.First + int64(i)
	}
	return ids
}

// End is the exclusive upper bound of r.
func (r Range) End() int64 { return r.First + r.Count }

// PerLane returns the capacity of each lane for totalSupply.
func PerLane(totalSupply int64, count int) (int64, error) {
	if count < 1 {
		return 0, ErrInvalidCount
	}
	if totalSupply <= 0 || totalSupply%int64(count) != 0 {
		return 0, fmt.Errorf("%w: supply %d, lanes %d", ErrInvalidSupply, totalSupply, count)
	}
	return totalSupply / int64(count), nil
}

// Layout returns the initial lanes for totalSupply: contiguous,
// non-overlapping ranges covering [0, totalSupply).
func Layout(totalSupply int64, count int) ([]Lane, error) {
	perLane, err := PerLane(totalSupply, count)
	if err != nil {
		return nil, err
	}
	lanes := make([]Lane, count)
	for i := range lanes {
		base := int64(i) * perLane
		lanes[i] = Lane{Base: base, MaxID: base + perLane}
	}
	return lanes, nil
}

// Entropy derives session entropy from the single-use nonce input and the
// settlement object referenced by the same write.
func Entropy(nonce, settlement object.Ref) []byte {
	h := sha256.New()
	h.Write(nonce.Hash())
	h.Write(settlement.Hash())
	return h.Sum(nil)
}

// SelectIndex maps entropy to a lane index, reading all of it as one
// unsigned integer.
func SelectIndex(entropy []byte, count int) int {
	if count < 1 {
		return 0
	}
	n := new(big.Int).SetBytes(entropy)
	return int(n.Mod(n, big.NewInt(int64(count))).Int64())
}

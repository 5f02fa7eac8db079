package lane

import (
	"fmt"

	"github.com/xraph/edition/object"
)

// Candidate is a lane object read from the store.
type Candidate struct {
	Ref  object.Ref
	Lane Lane
}

// Claim is the outcome of a successful pick: the lane object to consume,
// its replacement datum, and the IDs handed out.
type Claim struct {
	Index int64
	From  Candidate
	Next  Lane
	Range Range
}

// Allocator picks lanes for batches. It holds no state between calls; the
// store serializes writers per lane.
type Allocator struct {
	count   int
	perLane int64
}

// NewAllocator returns an allocator for count lanes of perLane IDs each.
func NewAllocator(count int, perLane int64) (*Allocator, error) {
	if count < 1 {
		return nil, ErrInvalidCount
	}
	if perLane < 1 {
		return nil, fmt.Errorf("%w: per-lane capacity %d", ErrInvalidSupply, perLane)
	}
	return &Allocator{count: count, perLane: perLane}, nil
}

// Count returns the number of lanes.
func (a *Allocator) Count() int { return a.count }

// PerLane returns each lane's capacity.
func (a *Allocator) PerLane() int64 { return a.perLane }

// Pick selects the lane chosen by entropy from candidates and claims batch
// IDs from it. When the chosen lane is absent or cannot take the batch it
// returns ErrLaneFull if some other lane could, and ErrExhausted otherwise.
func (a *Allocator) Pick(candidates []Candidate, entropy []byte, batch int64) (Claim, error) {
	if batch < 1 {
		return Claim{}, ErrInvalidBatchSize
	}

	idx := int64(SelectIndex(entropy, a.count))
	for _, c := range candidates {
		if c.Lane.Index(a.perLane) != idx || !c.Lane.Fits(batch) {
			continue
		}
		next, r, err := c.Lane.Claim(batch)
		if err != nil {
			return Claim{}, err
		}
		return Claim{Index: idx, From: c, Next: next, Range: r}, nil
	}

	for _, c := range candidates {
		if c.Lane.Fits(batch) {
			return Claim{}, fmt.Errorf("%w: lane %d", ErrLaneFull, idx)
		}
	}
	return Claim{}, ErrExhausted
}

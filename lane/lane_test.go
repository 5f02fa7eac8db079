package lane_test

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/xraph/edition/lane"
	"github.com/xraph/edition/object"
)

func TestLayoutCoversSupply(t *testing.T) {
	tests := []struct {
		supply int64
		count  int
	}{
		{10_000, 100},
		{100, 100},
		{3_000, 3},
		{1, 1},
	}

	for _, tt := range tests {
		lanes, err := lane.Layout(tt.supply, tt.count)
		if err != nil {
			t.Fatalf("Layout(%d, %d): %v", tt.supply, tt.count, err)
		}
		if len(lanes) != tt.count {
			t.Fatalf("got %d lanes, want %d", len(lanes), tt.count)
		}

		var next int64
		capacity := lanes[0].Capacity()
		for i, l := range lanes {
			if l.Base != next {
				t.Errorf("lane %d base %d, want %d", i, l.Base, next)
			}
			if l.Capacity() != capacity {
				t.Errorf("lane %d capacity %d, want %d", i, l.Capacity(), capacity)
			}
			if l.Counter != 0 || !l.Valid() {
				t.Errorf("lane %d not fresh: %+v", i, l)
			}
			if l.Index(capacity) != int64(i) {
				t.Errorf("lane %d reports index %d", i, l.Index(capacity))
			}
			next = l.MaxID
		}
		if next != tt.supply {
			t.Errorf("lanes end at %d, want %d", next, tt.supply)
		}
	}
}

func TestLayoutRejectsBadSupply(t *testing.T) {
	for _, supply := range []int64{0, -100, 150, 10_001} {
		if _, err := lane.Layout(supply, 100); !errors.Is(err, lane.ErrInvalidSupply) {
			t.Errorf("Layout(%d) = %v, want ErrInvalidSupply", supply, err)
		}
	}
	if _, err := lane.Layout(100, 0); !errors.Is(err, lane.ErrInvalidCount) {
		t.Errorf("expected ErrInvalidCount, got %v", err)
	}
}

func TestClaim(t *testing.T) {
	l := lane.Lane{Base: 500, Counter: 10, MaxID: 600}

	next, r, err := l.Claim(3)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if r.First != 510 || r.Count != 3 || r.End() != 513 {
		t.Errorf("range = %+v", r)
	}
	ids := r.IDs()
	if len(ids) != 3 || ids[0] != 510 || ids[2] != 512 {
		t.Errorf("ids = %v", ids)
	}
	if next.Counter != 13 || next.Base != l.Base || next.MaxID != l.MaxID {
		t.Errorf("next = %+v", next)
	}
	if l.Counter != 10 {
		t.Error("Claim mutated receiver")
	}

	if _, _, err := l.Claim(0); !errors.Is(err, lane.ErrInvalidBatchSize) {
		t.Errorf("Claim(0) = %v", err)
	}
	if _, _, err := l.Claim(91); !errors.Is(err, lane.ErrLaneFull) {
		t.Errorf("Claim(91) = %v", err)
	}
	if _, _, err := l.Claim(90); err != nil {
		t.Errorf("Claim(90) exactly fills lane: %v", err)
	}
}

func TestSelectIndexBounds(t *testing.T) {
	counts := make([]int, 100)
	for i := range 10_000 {
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uint64(i))
		sum := sha256.Sum256(buf[:])
		idx := lane.SelectIndex(sum[:], 100)
		if idx < 0 || idx >= 100 {
			t.Fatalf("index %d out of range", idx)
		}
		counts[idx]++
	}
	for i, c := range counts {
		if c == 0 {
			t.Errorf("lane %d never selected in 10000 draws", i)
		}
	}
}

func TestSelectIndexUsesFullWidth(t *testing.T) {
	// Only the last byte differs; a truncated hash would map both to one lane.
	a := make([]byte, 32)
	b := make([]byte, 32)
	b[31] = 1
	if lane.SelectIndex(a, 100) == lane.SelectIndex(b, 100) {
		t.Error("low-order bytes ignored")
	}
}

func TestEntropyDependsOnBothInputs(t *testing.T) {
	ws := &object.WriteSet{Memo: "entropy"}
	ws.Create(object.Output{Address: "a"})
	commit, err := ws.ID()
	if err != nil {
		t.Fatal(err)
	}
	n0, n1 := object.NewRef(commit, 0), object.NewRef(commit, 1)
	s := object.NewRef(commit, 2)

	if string(lane.Entropy(n0, s)) == string(lane.Entropy(n1, s)) {
		t.Error("nonce change did not change entropy")
	}
	if string(lane.Entropy(n0, s)) != string(lane.Entropy(n0, s)) {
		t.Error("entropy not deterministic")
	}
	if string(lane.Entropy(n0, s)) == string(lane.Entropy(s, n0)) {
		t.Error("entropy should be order-sensitive")
	}
}

package object_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xraph/edition/object"
	"github.com/xraph/edition/types"
)

func genesis(memo string) *object.WriteSet {
	ws := &object.WriteSet{Memo: memo}
	ws.Create(object.Output{Address: "wallet", Assets: types.Of(types.Native, 1_000)})
	return ws
}

func TestWriteSetIDDeterministic(t *testing.T) {
	a, err := genesis("salt-1").ID()
	if err != nil {
		t.Fatalf("ID: %v", err)
	}
	b, err := genesis("salt-1").ID()
	if err != nil {
		t.Fatalf("ID: %v", err)
	}
	if a != b {
		t.Errorf("content-identical write sets got different IDs: %s != %s", a, b)
	}

	c, err := genesis("salt-2").ID()
	if err != nil {
		t.Fatalf("ID: %v", err)
	}
	if a == c {
		t.Error("different memos produced the same ID")
	}

	if _, err := object.ParseCommitID(string(a)); err != nil {
		t.Errorf("ParseCommitID(%s): %v", a, err)
	}
}

func TestRefRoundTrip(t *testing.T) {
	commit, err := genesis("ref").ID()
	if err != nil {
		t.Fatal(err)
	}
	ref := object.NewRef(commit, 7)

	parsed, err := object.ParseRef(ref.String())
	if err != nil {
		t.Fatalf("ParseRef: %v", err)
	}
	if parsed != ref {
		t.Errorf("got %s, want %s", parsed, ref)
	}

	for _, bad := range []string{"", "nohash", string(commit) + "#x", "bogus#1"} {
		if _, err := object.ParseRef(bad); !errors.Is(err, object.ErrInvalidRef) {
			t.Errorf("ParseRef(%q) = %v, want ErrInvalidRef", bad, err)
		}
	}
}

func TestRefHashDistinct(t *testing.T) {
	commit, _ := genesis("hash").ID()
	a := object.NewRef(commit, 0).Hash()
	b := object.NewRef(commit, 1).Hash()
	if len(a) != 32 {
		t.Fatalf("hash length = %d", len(a))
	}
	if string(a) == string(b) {
		t.Error("different refs hashed equal")
	}
}

func TestWriteSetValidate(t *testing.T) {
	commit, _ := genesis("v").ID()
	r0 := object.NewRef(commit, 0)
	r1 := object.NewRef(commit, 1)
	out := object.Output{Address: "a", Assets: types.Of(types.Native, 1)}

	tests := []struct {
		name string
		ws   object.WriteSet
		msg  string
	}{
		{"empty", object.WriteSet{}, "empty"},
		{"genesis without memo", object.WriteSet{Outputs: []object.Output{out}}, "memo"},
		{"duplicate input", object.WriteSet{Inputs: []object.Ref{r0, r0}}, "twice"},
		{"input also referenced", object.WriteSet{Inputs: []object.Ref{r0}, References: []object.Ref{r0}}, "also"},
		{"output without address", object.WriteSet{Inputs: []object.Ref{r0}, Outputs: []object.Output{{}}}, "address"},
		{"negative output", object.WriteSet{
			Inputs:  []object.Ref{r0},
			Outputs: []object.Output{{Address: "a", Assets: types.Of(types.Native, -1)}},
		}, "negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ws.Validate()
			if !errors.Is(err, object.ErrInvalidWriteSet) {
				t.Fatalf("expected ErrInvalidWriteSet, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error %q does not mention %q", err, tt.msg)
			}
		})
	}

	ok := object.WriteSet{Inputs: []object.Ref{r0}, References: []object.Ref{r1}, Outputs: []object.Output{out}}
	if err := ok.Validate(); err != nil {
		t.Errorf("valid write set rejected: %v", err)
	}
}

func TestReferenceSkipsConsumed(t *testing.T) {
	commit, _ := genesis("skip").ID()
	r0 := object.NewRef(commit, 0)

	ws := &object.WriteSet{}
	ws.Consume(r0)
	ws.Reference(r0, r0)
	if len(ws.References) != 0 {
		t.Errorf("consumed ref was also referenced: %v", ws.References)
	}
}

type datum struct {
	Name  string
	Count int64
}

func TestMaterializeAndDecode(t *testing.T) {
	raw, err := object.Marshal(datum{Name: "lane", Count: 3})
	if err != nil {
		t.Fatal(err)
	}
	ws := &object.WriteSet{Memo: "decode"}
	ws.Create(object.Output{Address: "x", Assets: types.Of("T", 1), Datum: raw})
	commit, _ := ws.ID()

	now := time.Now().UTC()
	objs := ws.Materialize(commit, now)
	if len(objs) != 1 || objs[0].Ref != object.NewRef(commit, 0) || !objs[0].CreatedAt.Equal(now) {
		t.Fatalf("unexpected objects %+v", objs)
	}
	if !objs[0].Holds("T") {
		t.Error("expected object to hold T")
	}

	got, err := object.Decode[datum](objs[0])
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Name != "lane" || got.Count != 3 {
		t.Errorf("got %+v", got)
	}

	if _, err := object.Decode[datum](&object.Object{}); !errors.Is(err, object.ErrNoDatum) {
		t.Errorf("expected ErrNoDatum, got %v", err)
	}
}

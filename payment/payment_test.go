package payment_test

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/xraph/edition/payment"
	"github.com/xraph/edition/types"
)

func TestResolveScenario(t *testing.T) {
	table := []payment.Entry{{Recipient: "A", PerUnit: types.Value{"ADA": 10}}}

	got, err := payment.Resolve("ADA", 5, table)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(got) != 1 || got[0].To != "A" || got[0].Amount != 50 || got[0].Unit != "ADA" {
		t.Errorf("got %+v", got)
	}
}

func TestResolveSkipsAlternativeOptions(t *testing.T) {
	table := []payment.Entry{
		{Recipient: "artist", PerUnit: types.Value{types.Native: 8_000_000, "HOSKY": 100}},
		{Recipient: "platform", PerUnit: types.Value{types.Native: 2_000_000}},
		{Recipient: "dao", PerUnit: types.Value{"HOSKY": 5}},
	}

	tests := []struct {
		name  string
		unit  types.Unit
		qty   int64
		want  map[types.Address]int64
		match bool
	}{
		{"native", types.Native, 2, map[types.Address]int64{"artist": 16_000_000, "platform": 4_000_000}, true},
		{"token", "HOSKY", 3, map[types.Address]int64{"artist": 300, "dao": 15}, true},
		{"unknown", "USDM", 1, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := payment.Resolve(tt.unit, tt.qty, table)
			if !tt.match {
				if !errors.Is(err, payment.ErrNoMatchingOption) {
					t.Fatalf("expected ErrNoMatchingOption, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d transfers, want %d", len(got), len(tt.want))
			}
			for _, tr := range got {
				if tr.Unit != tt.unit {
					t.Errorf("mixed unit %s", tr.Unit)
				}
				if tt.want[tr.To] != tr.Amount {
					t.Errorf("%s: got %d, want %d", tr.To, tr.Amount, tt.want[tr.To])
				}
			}
		})
	}
}

func TestResolveLinearInQuantity(t *testing.T) {
	table := []payment.Entry{
		{Recipient: "a", PerUnit: types.Value{"ADA": 7}},
		{Recipient: "b", PerUnit: types.Value{"ADA": 13, "X": 1}},
	}
	for q := int64(1); q <= 50; q++ {
		one, err := payment.Resolve("ADA", q, table)
		if err != nil {
			t.Fatal(err)
		}
		two, err := payment.Resolve("ADA", 2*q, table)
		if err != nil {
			t.Fatal(err)
		}
		for i := range one {
			if two[i].Amount != 2*one[i].Amount || two[i].To != one[i].To {
				t.Fatalf("q=%d entry %d: %d != 2 x %d", q, i, two[i].Amount, one[i].Amount)
			}
		}
	}
}

func TestResolveFailsClosed(t *testing.T) {
	if _, err := payment.Resolve("ADA", 1, nil); !errors.Is(err, payment.ErrNoMatchingOption) {
		t.Errorf("empty table: %v", err)
	}
	table := []payment.Entry{{Recipient: "a", PerUnit: types.Value{"ADA": 1}}}
	if _, err := payment.Resolve("ADA", 0, table); !errors.Is(err, payment.ErrInvalidQuantity) {
		t.Errorf("zero quantity: %v", err)
	}
	big := []payment.Entry{{Recipient: "a", PerUnit: types.Value{"ADA": math.MaxInt64 / 2}}}
	if _, err := payment.Resolve("ADA", 3, big); !errors.Is(err, payment.ErrAmountOverflow) {
		t.Errorf("overflow: %v", err)
	}
}

func TestTableVersioning(t *testing.T) {
	t1, err := payment.NewTable([]payment.Entry{{Recipient: "a", PerUnit: types.Value{types.Native: 1}}})
	if err != nil {
		t.Fatal(err)
	}
	if t1.Version != 1 {
		t.Errorf("version = %d", t1.Version)
	}
	t2, err := t1.Replace([]payment.Entry{{Recipient: "b", PerUnit: types.Value{types.Native: 2}}})
	if err != nil {
		t.Fatal(err)
	}
	if t2.Version != 2 || t2.Entries[0].Recipient != "b" || t1.Entries[0].Recipient != "a" {
		t.Errorf("replace: %+v / %+v", t1, t2)
	}

	bad := [][]payment.Entry{
		{{PerUnit: types.Value{types.Native: 1}}},
		{{Recipient: "a"}},
		{{Recipient: "a", PerUnit: types.Value{types.Native: -1}}},
		{{Recipient: "a", PerUnit: types.Value{"ADA": 10}}},
	}
	for i, entries := range bad {
		if _, err := payment.NewTable(entries); !errors.Is(err, payment.ErrInvalidTable) {
			t.Errorf("case %d: expected ErrInvalidTable, got %v", i, err)
		}
	}
	if _, err := payment.NewTable(nil); err != nil {
		t.Errorf("empty table rejected: %v", err)
	}
}

func TestTableNormalizesUnits(t *testing.T) {
	policy := strings.Repeat("AB", types.PolicyIDLen/2)
	upper := types.Unit(policy + "4E4654")
	lower := types.Unit(strings.ToLower(string(upper)))

	tbl, err := payment.NewTable([]payment.Entry{{Recipient: "a", PerUnit: types.Value{upper: 3}}})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	if got := tbl.Entries[0].PerUnit.Get(lower); got != 3 {
		t.Fatalf("lowercase amount = %d, entries %+v", got, tbl.Entries)
	}
	if _, ok := tbl.Entries[0].PerUnit[upper]; ok {
		t.Errorf("uppercase key kept: %+v", tbl.Entries)
	}
	if err := tbl.Validate(); err != nil {
		t.Errorf("normalized table invalid: %v", err)
	}

	raw := payment.Table{Entries: []payment.Entry{{Recipient: "a", PerUnit: types.Value{upper: 3}}}, Version: 1}
	if err := raw.Validate(); !errors.Is(err, payment.ErrInvalidTable) {
		t.Errorf("uppercase table validated: %v", err)
	}

	tests := []struct {
		name    string
		per     types.Value
		wantErr error
	}{
		{"free-form unit", types.Value{"ADA": 10}, types.ErrInvalidUnit},
		{"odd hex", types.Value{lower + "0": 1}, types.ErrInvalidUnit},
		{"two spellings", types.Value{upper: 1, lower: 2}, payment.ErrInvalidTable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := payment.NewTable([]payment.Entry{{Recipient: "a", PerUnit: tt.per}})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if !errors.Is(err, types.ErrInvalid) {
				t.Errorf("error %v is not an input error", err)
			}
		})
	}
}

func TestTotalsAndOutputs(t *testing.T) {
	transfers := []payment.Transfer{
		{To: "a", Unit: "ADA", Amount: 5},
		{To: "b", Unit: "ADA", Amount: 7},
		{To: "a", Unit: "ADA", Amount: 1},
	}
	total, err := payment.Total(transfers)
	if err != nil {
		t.Fatal(err)
	}
	if total.Get("ADA") != 13 {
		t.Errorf("total = %s", total)
	}

	order, byTo := payment.Outputs(transfers)
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Errorf("order = %v", order)
	}
	if byTo["a"].Get("ADA") != 6 || byTo["b"].Get("ADA") != 7 {
		t.Errorf("byTo = %v", byTo)
	}
}

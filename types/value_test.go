package types

import (
	"math"
	"strings"
	"testing"
)

const testPolicy = "0123456789abcdef0123456789abcdef0123456789abcdef01234567"

func TestValueArithmetic(t *testing.T) {
	token := AssetUnit(testPolicy, "4c616e65")

	tests := []struct {
		name     string
		op       func() Value
		expected Value
	}{
		{"Add", func() Value { return Of(Native, 100).Add(Of(Native, 200)) }, Of(Native, 300)},
		{"Add disjoint", func() Value { return Of(Native, 5).Add(Of(token, 1)) }, Value{Native: 5, token: 1}},
		{"Subtract", func() Value { return Of(Native, 500).Subtract(Of(Native, 200)) }, Of(Native, 300)},
		{"Subtract to zero drops unit", func() Value {
			return Value{Native: 5, token: 1}.Subtract(Of(token, 1))
		}, Of(Native, 5)},
		{"Sum", func() Value { return Sum(Of(Native, 1), Of(Native, 2), Of(token, 3)) }, Value{Native: 3, token: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.op()
			if !got.Equal(tt.expected) {
				t.Errorf("got %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestValueImmutability(t *testing.T) {
	v := Of(Native, 10)
	_ = v.Add(Of(Native, 5))
	_ = v.Subtract(Of(Native, 5))
	if v.Get(Native) != 10 {
		t.Errorf("receiver mutated: %s", v)
	}
}

func TestValueMultiply(t *testing.T) {
	v := Value{Native: 10, "ADA": 3}
	got, err := v.Multiply(5)
	if err != nil {
		t.Fatalf("Multiply: %v", err)
	}
	if got.Get(Native) != 50 || got.Get("ADA") != 15 {
		t.Errorf("got %s", got)
	}

	if _, err := Of(Native, math.MaxInt64/2+1).Multiply(2); err == nil {
		t.Error("expected overflow error")
	}
}

func TestValueComparisons(t *testing.T) {
	have := Value{Native: 100, "ADA": 1}
	if !have.Covers(Of(Native, 100)) {
		t.Error("expected cover of equal amount")
	}
	if have.Covers(Of(Native, 101)) {
		t.Error("expected no cover of larger amount")
	}
	if have.Covers(Of("OTHER", 1)) {
		t.Error("expected no cover of absent unit")
	}
	if !have.Subtract(Of(Native, 101)).HasNegative() {
		t.Error("expected negative after overdraw")
	}
	if !(Value{}).IsZero() || !Of(Native, 0).IsZero() {
		t.Error("expected zero values")
	}
}

func TestValueString(t *testing.T) {
	got := Value{"b": 2, "a": 1}.String()
	if got != "{a:1,b:2}" {
		t.Errorf("got %q", got)
	}
}

func TestMulInt64(t *testing.T) {
	tests := []struct {
		a, b int64
		want int64
		ok   bool
	}{
		{3, 4, 12, true},
		{0, math.MaxInt64, 0, true},
		{-1, math.MinInt64, 0, false},
		{math.MaxInt64, 2, 0, false},
		{-5, 5, -25, true},
	}
	for _, tt := range tests {
		got, ok := MulInt64(tt.a, tt.b)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("MulInt64(%d, %d) = %d, %v; want %d, %v", tt.a, tt.b, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseUnit(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"native", "lovelace", false},
		{"policy only", testPolicy, false},
		{"policy with name", testPolicy + "4c616e65", false},
		{"upper case folds", strings.ToUpper(testPolicy), false},
		{"too short", "abcd", true},
		{"odd length", testPolicy + "4", true},
		{"not hex", testPolicy + "zz", true},
		{"name too long", testPolicy + strings.Repeat("00", 33), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := ParseUnit(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && u != Native && u.Policy() != strings.ToLower(testPolicy) {
				t.Errorf("policy = %q", u.Policy())
			}
		})
	}
}

func TestUnitParts(t *testing.T) {
	u := AssetUnit(testPolicy, "4c616e65")
	if u.Policy() != testPolicy {
		t.Errorf("Policy = %q", u.Policy())
	}
	if u.AssetName() != "4c616e65" {
		t.Errorf("AssetName = %q", u.AssetName())
	}
	if Native.Policy() != "" || Native.AssetName() != "" {
		t.Error("native unit has no policy")
	}
}

package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRoundToUnitHalfAwayFromZero(t *testing.T) {
	cases := map[string]Money{
		"765.6":  766,
		"765.5":  766,
		"765.4":  765,
		"-2.5":   -3,
		"-2.4":   -2,
		"0.5":    1,
		"-0.5":   -1,
		"1000.0": 1000,
	}
	for in, want := range cases {
		got := RoundToUnit(decimal.RequireFromString(in))
		if got != want {
			t.Fatalf("RoundToUnit(%s) = %d, want %d", in, got, want)
		}
	}
}

func TestFloorToUnit(t *testing.T) {
	if got := FloorToUnit(decimal.RequireFromString("76.6")); got != 76 {
		t.Fatalf("expected 76, got %d", got)
	}
	if got := FloorToUnit(decimal.RequireFromString("-0.2")); got != -1 {
		t.Fatalf("expected -1, got %d", got)
	}
}

func TestDiscounted(t *testing.T) {
	if got := Discounted(957, 20); got != 766 {
		t.Fatalf("expected 766, got %d", got)
	}
	if got := Discounted(957, 0); got != 957 {
		t.Fatalf("expected 957, got %d", got)
	}
	if got := Discounted(957, 100); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestRoundToStep(t *testing.T) {
	cases := []struct {
		in, want Money
	}{
		{1158, 1160},
		{1152, 1150},
		{1155, 1155},
		{1157, 1155},
		{-1158, -1160},
		{3, 5},
		{2, 0},
	}
	for _, tc := range cases {
		if got := RoundToStep(tc.in, 5); got != tc.want {
			t.Fatalf("RoundToStep(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
	if got := RoundToStep(1158, 1); got != 1158 {
		t.Fatalf("step 1 should be a no-op, got %d", got)
	}
}

func TestReconcileAbsorbsOnLast(t *testing.T) {
	in := []Money{25, 26, 26}
	out, delta := Reconcile(in, 76)
	if delta != -1 {
		t.Fatalf("expected delta -1, got %d", delta)
	}
	if Sum(out) != 76 {
		t.Fatalf("expected sum 76, got %d", Sum(out))
	}
	if out[2] != 25 || out[0] != 25 || out[1] != 26 {
		t.Fatalf("unexpected allocation %v", out)
	}
	if in[2] != 26 {
		t.Fatalf("input slice was mutated: %v", in)
	}
}

func TestReconcileEmpty(t *testing.T) {
	out, delta := Reconcile(nil, 5)
	if len(out) != 0 || delta != 5 {
		t.Fatalf("expected empty result and delta 5, got %v %d", out, delta)
	}
}

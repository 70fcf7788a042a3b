package core

import (
	"errors"
	"testing"
	"time"
)

func ids(f Filter, snapshot []Payment) []int64 {
	var out []int64
	for p := range f.Apply(snapshot) {
		out = append(out, p.ID)
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFilterApply(t *testing.T) {
	snapshot := demoPayments()
	snapshot[3].Notes = "quarterly ELECTRIC adjustment"
	pending := StatusPending
	overdue := StatusOverdue

	cases := []struct {
		f    Filter
		want []int64
	}{
		{Filter{}, []int64{1, 2, 3, 4, 5, 6}},
		{Filter{Status: &pending}, []int64{2}},
		{Filter{Search: "electric"}, []int64{1, 4}},
		{Filter{Search: "  RENT "}, []int64{3}},
		{Filter{Search: "nothing matches"}, nil},
		{Filter{Status: &overdue, Today: NewDate(2024, time.January, 19)}, []int64{1, 2}},
		{Filter{Sort: SortAmount}, []int64{4, 2, 1, 5, 6, 3}},
		{Filter{Sort: SortDueDate, Desc: true}, []int64{3, 2, 1, 5, 4, 6}},
		{Filter{Sort: SortPayee}, []int64{6, 5, 2, 3, 1, 4}},
		{Filter{Desc: true}, []int64{6, 5, 4, 3, 2, 1}},
	}
	for i, tc := range cases {
		if got := ids(tc.f, snapshot); !equalIDs(got, tc.want) {
			t.Fatalf("case %d: got %v, want %v", i, got, tc.want)
		}
	}
}

func TestFilterSequenceIsRestartable(t *testing.T) {
	snapshot := demoPayments()
	seq := Filter{}.Apply(snapshot)

	first := Collect(seq)
	snapshot[0].PayeeName = "changed after the call"
	second := Collect(seq)
	if len(first) != len(second) || len(first) != 6 {
		t.Fatalf("expected two full walks, got %d and %d", len(first), len(second))
	}
	if second[0].PayeeName != "Tokyo Electric Power" {
		t.Fatalf("sequence must walk the snapshot taken at call time")
	}

	// early break
	n := 0
	for range seq {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Fatalf("break not honoured")
	}
}

func TestFilterValidate(t *testing.T) {
	bad := Status("lost")
	if err := (Filter{Status: &bad}).Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := (Filter{Sort: "color"}).Validate(); !errors.Is(err, ErrUnknownSortKey) {
		t.Fatalf("expected unknown sort key, got %v", err)
	}
	if err := (Filter{Sort: SortDueDate}).Validate(); err != nil {
		t.Fatal(err)
	}
}

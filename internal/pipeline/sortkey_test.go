package pipeline

import (
	"sort"
	"testing"
)

func TestNumericSortKey(t *testing.T) {
	if got, want := NumericSortKey("ab123cd45ef"), "000000123"; got != want {
		t.Errorf("NumericSortKey = %q, want %q", got, want)
	}
	if got, want := NumericSortKey("noDigitsHere"), "noDigitsHere"; got != want {
		t.Errorf("NumericSortKey = %q, want %q", got, want)
	}
	if got, want := NumericSortKey("x5y"), "x5y"; got != want {
		t.Errorf("single digit run should not match (min 2 digits): got %q, want %q", got, want)
	}
}

func TestNumericSortKeyOrdering(t *testing.T) {
	in := []string{"b", "a", "c345", "d12345", "x001"}
	want := []string{"x001", "c345", "d12345", "a", "b"}
	sort.SliceStable(in, func(i, j int) bool {
		return NumericSortKey(in[i]) < NumericSortKey(in[j])
	})
	for i := range want {
		if in[i] != want[i] {
			t.Fatalf("sorted = %v, want %v", in, want)
		}
	}
}

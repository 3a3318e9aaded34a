package collate

import (
	"sort"
	"testing"
)

func TestLessBasic(t *testing.T) {
	if !Less("Фыва", "Asdf") {
		t.Error("Cyrillic should sort before Latin")
	}
}

func TestSortMatchesReference(t *testing.T) {
	in := []string{
		"",
		"123",
		"*",
		"Eeny",
		"meeny",
		"miny",
		"moe",
		"Мама",
		"...мыла",
		"раму",
		"Маша",
		"«ела»",
		"кашу",
		"ёлка",
	}
	want := []string{
		"«ела»",
		"ёлка",
		"кашу",
		"Мама",
		"Маша",
		"...мыла",
		"раму",
		"Eeny",
		"meeny",
		"miny",
		"moe",
		"123",
		"*",
		"",
	}
	sort.SliceStable(in, func(i, j int) bool { return Less(in[i], in[j]) })
	for i := range want {
		if in[i] != want[i] {
			t.Fatalf("sorted[%d] = %q, want %q\nfull: %v", i, in[i], want[i], in)
		}
	}
}

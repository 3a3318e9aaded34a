// Package collate implements the Cyrillic-first locale ordering used to sort
// search results by title/author/translator/sequence the way a
// Russian-speaking reader expects:
// Cyrillic before Latin before digits, everything else pushed to the end.
package collate

import "unicode"

const orderedAlphabet = "АаБбВвГгДдЕеЁёЖжЗзИиЙйКкЛлМмНнОоПпРрСсТтУуФфХхЦцЧчШшЩщЪъЫыЬьЭэЮюЯяAaBbCcDdEeFfGgHhIiJjKkLlMmNnOoPpQqRrSsTtUuVvWwXxYyZz0123456789"

// order maps a rune to its rank in orderedAlphabet. Runes absent from the
// map are "non-reference" characters and always sort after every rune that
// is present.
var order map[rune]int

func init() {
	order = make(map[rune]int, len(orderedAlphabet))
	i := 0
	for _, r := range orderedAlphabet {
		order[r] = i
		i++
	}
}

// Less reports whether a sorts before b under the locale collation.
//
// Empty strings sort after non-empty ones. A string containing no
// alphanumeric-or-whitespace rune sorts after one that has at least one.
// Otherwise the filtered (alphanumeric-or-whitespace-only) rune sequences are
// compared position by position: a rune present in the reference alphabet
// always beats one that isn't, two reference runes compare by rank, two
// non-reference runes fall back to raw rune comparison. Equal filtered
// sequences (or two with no qualifying rune at all) fall back to the raw,
// unfiltered string.
func Less(a, b string) bool {
	return cmp(a, b) < 0
}

// Cmp is the three-way comparator backing Less, exposed for sort.Slice-style
// callers that want to reuse one comparison across a stable sort key.
func Cmp(a, b string) int {
	return cmp(a, b)
}

func cmp(a, b string) int {
	aEmpty, bEmpty := a == "", b == ""
	switch {
	case !aEmpty && bEmpty:
		return -1
	case aEmpty && !bEmpty:
		return 1
	}

	af := filterRunes(a)
	bf := filterRunes(b)
	aHas, bHas := len(af) > 0, len(bf) > 0
	switch {
	case !aHas && bHas:
		return 1
	case aHas && !bHas:
		return -1
	case !aHas && !bHas:
		return rawCmp(a, b)
	}

	n := len(af)
	if len(bf) < n {
		n = len(bf)
	}
	for i := 0; i < n; i++ {
		ra, rb := af[i], bf[i]
		if ra == rb {
			continue
		}
		ai, aok := order[ra]
		bi, bok := order[rb]
		switch {
		case aok && bok:
			if ai < bi {
				return -1
			}
			return 1
		case aok && !bok:
			return -1
		case !aok && bok:
			return 1
		default:
			return rawCmp(string(ra), string(rb))
		}
	}
	return rawCmp(a, b)
}

func filterRunes(s string) []rune {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsSpace(r) {
			out = append(out, r)
		}
	}
	return out
}

func rawCmp(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

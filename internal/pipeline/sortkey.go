package pipeline

import "regexp"

// digitsRe matches the first run of 2 to 9 ASCII digits in a filename,
// mirroring the reference implementation's sort-key extraction regex
// exactly (greedy, leftmost match, capped at 9 digits so a 10+ digit run
// still only contributes its first 9).
var digitsRe = regexp.MustCompile(`[0-9]{2,9}`)

// NumericSortKey returns a zero-padded (to width 9) sort key derived from
// the first 2-9 digit run in name, or name itself if it has no such run.
// Archives are processed in this order rather than lexical order so that
// "book99.zip" sorts before "book100.zip". A single digit is not a run:
// "book2.zip" has no numeric key and sorts after every name that has one.
func NumericSortKey(name string) string {
	loc := digitsRe.FindStringIndex(name)
	if loc == nil {
		return name
	}
	digits := name[loc[0]:loc[1]]
	return zeroPad9(digits)
}

func zeroPad9(s string) string {
	if len(s) >= 9 {
		return s
	}
	pad := make([]byte, 9-len(s))
	for i := range pad {
		pad[i] = '0'
	}
	return string(pad) + s
}

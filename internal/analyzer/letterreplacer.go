// Package analyzer builds the bleve text analyzers used to index book
// titles, bodies and annotations: a plain analyzer and a language-stemmed
// one, both folding ё to е so a search for "елка" also finds "ёлка".
package analyzer

import "github.com/blevesearch/bleve/v2/analysis"

// yo is 'ё' (U+0451), ye is 'е' (U+0435). Capitals are folded too since
// this filter normally runs after lower-casing, but it's defensive either
// way.
const (
	yo          = 'ё'
	ye          = 'е'
	yoUpper     = 'Ё'
	yeUpper     = 'Е'
)

// letterReplacerFilter replaces every occurrence of 'ё'/'Ё' with 'е'/'Е' in
// each token's term, so the two spellings of the same word collapse to one
// index term. Russian orthography treats ё as optional; most digitized
// books drop it inconsistently, so without this filter "ёлка" and "елка"
// would never match each other.
type letterReplacerFilter struct{}

// NewLetterReplacerFilter returns a TokenFilter replacing ё with е in every
// token's term.
func NewLetterReplacerFilter() analysis.TokenFilter {
	return &letterReplacerFilter{}
}

func (f *letterReplacerFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	for _, tok := range input {
		tok.Term = replaceYo(tok.Term)
	}
	return input
}

func replaceYo(term []byte) []byte {
	out := make([]byte, 0, len(term))
	for i := 0; i < len(term); {
		r, size := decodeRune(term[i:])
		switch r {
		case yo:
			out = appendRune(out, ye)
		case yoUpper:
			out = appendRune(out, yeUpper)
		default:
			out = append(out, term[i:i+size]...)
		}
		i += size
	}
	return out
}

// decodeRune is a tiny UTF-8 decoder: token terms are valid UTF-8 produced
// by earlier stages of the analyzer chain, so invalid sequences never reach
// here in practice, but we degrade to one byte at a time rather than panic.
func decodeRune(b []byte) (rune, int) {
	if len(b) == 0 {
		return 0, 0
	}
	c := b[0]
	switch {
	case c < 0x80:
		return rune(c), 1
	case c&0xE0 == 0xC0 && len(b) >= 2:
		return rune(c&0x1F)<<6 | rune(b[1]&0x3F), 2
	case c&0xF0 == 0xE0 && len(b) >= 3:
		return rune(c&0x0F)<<12 | rune(b[1]&0x3F)<<6 | rune(b[2]&0x3F), 3
	case c&0xF8 == 0xF0 && len(b) >= 4:
		return rune(c&0x07)<<18 | rune(b[1]&0x3F)<<12 | rune(b[2]&0x3F)<<6 | rune(b[3]&0x3F), 4
	default:
		return rune(c), 1
	}
}

func appendRune(b []byte, r rune) []byte {
	switch {
	case r < 0x80:
		return append(b, byte(r))
	case r < 0x800:
		return append(b, byte(0xC0|r>>6), byte(0x80|r&0x3F))
	default:
		return append(b, byte(0xE0|r>>12), byte(0x80|(r>>6)&0x3F), byte(0x80|r&0x3F))
	}
}

package index

import (
	"fmt"
	"math/rand"
	"regexp"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/query"

	"porcula/internal/collate"
)

// BookHit is one search result, flattened from the underlying document for
// JSON rendering.
type BookHit struct {
	ZipFile  string                 `json:"zipfile"`
	FileName string                 `json:"filename"`
	Score    float64                `json:"score"`
	Fields   map[string]interface{} `json:"fields"`
}

// Order selects how Search ranks/sorts hits.
type Order string

const (
	OrderDefault    Order = "default"
	OrderTitle      Order = "title"
	OrderAuthor     Order = "author"
	OrderTranslator Order = "translator"
	OrderSequence   Order = "sequence"
	OrderRandom     Order = "random"
)

// regexTokenRe matches the reference grammar's second classification rule:
// a token containing one of '.', '\', ']', ')' immediately followed by one
// of '*', '+', '?' is itself a ready-made regex, not a wildcard needing
// translation.
var regexTokenRe = regexp.MustCompile(`[.\\)\]][*+?]`)

// ParseQuery builds a bleve Query from the reference query grammar:
// whitespace-split tokens are classified in order —
//
//  1. the lone token "*" is a standard term, passed through untouched.
//  2. a token matching regexTokenRe is used verbatim (lowercased) as a
//     regex query.
//  3. a token containing '*' or '?' (and not already caught by rule 2) is a
//     wildcard, translated to a regex by "*" -> ".*" and "?" -> ".".
//  4. a token ending in one or more '~' is a fuzzy query; the number of
//     trailing '~' is the edit distance.
//  5. everything else is a standard term.
//
// Regex/wildcard/fuzzy tokens may be field-qualified ("title:war~~"); an
// unqualified one becomes a disjunction across defaultFields. Standard
// terms are collected and handed to the engine's own query-string parser so
// that phrase quoting and boolean operators behave exactly as bleve itself
// would parse them; when every token is a standard term, that parsed query
// is returned directly instead of being wrapped in an extra conjunction, and
// likewise a lone regex/wildcard/fuzzy token is returned unwrapped.
func ParseQuery(raw string, defaultFields []string) (query.Query, error) {
	tokens := strings.Fields(raw)
	if len(tokens) == 0 {
		return bleve.NewMatchAllQuery(), nil
	}

	var plainTokens []string
	var special []query.Query

	for _, tok := range tokens {
		field, term, hasField := splitFieldPrefix(tok)

		switch {
		case term == "*":
			plainTokens = append(plainTokens, tok)
		case regexTokenRe.MatchString(term):
			pattern := strings.ToLower(term)
			special = append(special, fieldOrDisjunction(field, hasField, defaultFields, func(f string) query.Query {
				q := bleve.NewRegexpQuery(pattern)
				q.SetField(f)
				return q
			}))
		case strings.ContainsAny(term, "*?"):
			pattern := wildcardToRegex(term)
			special = append(special, fieldOrDisjunction(field, hasField, defaultFields, func(f string) query.Query {
				q := bleve.NewRegexpQuery(pattern)
				q.SetField(f)
				return q
			}))
		case strings.HasSuffix(term, "~"):
			base, distance := splitFuzzyTilde(term)
			special = append(special, fieldOrDisjunction(field, hasField, defaultFields, func(f string) query.Query {
				q := bleve.NewFuzzyQuery(base)
				q.Fuzziness = distance
				q.SetField(f)
				return q
			}))
		default:
			plainTokens = append(plainTokens, tok)
		}
	}

	if len(special) == 0 {
		return bleve.NewQueryStringQuery(strings.Join(plainTokens, " ")), nil
	}

	all := special
	if len(plainTokens) > 0 {
		sq := bleve.NewQueryStringQuery(strings.Join(plainTokens, " "))
		all = append([]query.Query{sq}, special...)
	}
	if len(all) == 1 {
		return all[0], nil
	}
	return bleve.NewConjunctionQuery(all...), nil
}

// splitFuzzyTilde strips the trailing run of '~' from term, returning the
// base token and the count of stripped tildes as the fuzzy edit distance.
func splitFuzzyTilde(term string) (base string, distance int) {
	i := len(term)
	for i > 0 && term[i-1] == '~' {
		i--
		distance++
	}
	return term[:i], distance
}

// wildcardToRegex rewrites a wildcard token into the equivalent regex per
// the reference grammar: "*" expands to ".*", "?" to ".".
func wildcardToRegex(term string) string {
	var b strings.Builder
	for _, r := range term {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteByte('.')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// fieldOrDisjunction builds q for field when the token was explicitly
// field-qualified; otherwise it ORs together one copy of q per default
// field, since a regex/fuzzy/wildcard query in bleve only ever targets a
// single field.
func fieldOrDisjunction(field string, hasField bool, defaultFields []string, makeForField func(string) query.Query) query.Query {
	if hasField {
		return makeForField(field)
	}
	if len(defaultFields) == 0 {
		return makeForField("")
	}
	disj := make([]query.Query, 0, len(defaultFields))
	for _, f := range defaultFields {
		disj = append(disj, makeForField(f))
	}
	return bleve.NewDisjunctionQuery(disj...)
}

func splitFieldPrefix(tok string) (field, term string, ok bool) {
	i := strings.IndexByte(tok, ':')
	if i <= 0 || i == len(tok)-1 {
		return "", tok, false
	}
	return tok[:i], tok[i+1:], true
}

// SearchOptions controls one /search call.
type SearchOptions struct {
	Query  string
	Order  Order
	Limit  int
	Offset int
}

// DefaultFields lists the fields an unqualified query term matches against,
// matching the reference reader's default-field list.
var DefaultFields = []string{FieldTitle, FieldAuthor, FieldSrcAuthor, FieldTranslator, FieldAnnotation, FieldKeyword, FieldBody}

// Search executes a parsed query with ordering/paging.
//
// OrderDefault asks the engine for relevance-ranked TopDocs(limit+offset)
// and slices off the leading offset hits locally. Every other order
// requests a large TopDocs window, re-sorts the whole result set locally
// (by locale-collated title/author/translator, or numerically by sequence
// position, or by a random key), and only then applies limit/offset —
// OrderRandom ignores offset entirely and always starts from the top,
// since re-randomizing on every page would make paging nonsensical.
func (r *Reader) Search(opts SearchOptions) ([]BookHit, uint64, error) {
	q, err := ParseQuery(opts.Query, DefaultFields)
	if err != nil {
		return nil, 0, err
	}
	q = excludeMarkers(q)

	limit, offset := opts.Limit, opts.Offset
	if limit <= 0 {
		limit = 10
	}

	fetch := limit + offset
	if opts.Order != OrderDefault && opts.Order != "" {
		fetch = 10000
		if opts.Order == OrderRandom {
			offset = 0
		}
	}

	req := bleve.NewSearchRequestOptions(q, fetch, 0, false)
	req.Fields = []string{"*"}
	res, err := r.idx.Search(req)
	if err != nil {
		return nil, 0, fmt.Errorf("search: %w", err)
	}

	hits := toBookHits(res.Hits)

	switch opts.Order {
	case "", OrderDefault:
		// already relevance-sorted by the engine
	case OrderTitle:
		sortByCollatedField(hits, FieldTitle)
	case OrderAuthor:
		sortByCollatedField(hits, FieldAuthor)
	case OrderTranslator:
		sortByCollatedField(hits, FieldTranslator)
	case OrderSequence:
		sortBySequence(hits)
	case OrderRandom:
		shuffleRandomly(hits)
	default:
		return nil, 0, fmt.Errorf("unknown order %q", opts.Order)
	}

	if offset > len(hits) {
		offset = len(hits)
	}
	hits = hits[offset:]
	if limit < len(hits) {
		hits = hits[:limit]
	}
	return hits, res.Total, nil
}

func excludeMarkers(q query.Query) query.Query {
	notMarker := bleve.NewTermQuery(DocTypeMarker)
	notMarker.SetField(FieldDocType)
	bq := bleve.NewBooleanQuery()
	bq.AddMust(q)
	bq.AddMustNot(notMarker)
	return bq
}

func toBookHits(docs search.DocumentMatchCollection) []BookHit {
	out := make([]BookHit, 0, len(docs))
	for _, d := range docs {
		out = append(out, BookHit{
			ZipFile:  fieldString(d.Fields, FieldZipFile),
			FileName: fieldString(d.Fields, FieldFileName),
			Score:    d.Score,
			Fields:   d.Fields,
		})
	}
	return out
}

func fieldString(fields map[string]interface{}, key string) string {
	v, ok := fields[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func sortByCollatedField(hits []BookHit, field string) {
	sort.SliceStable(hits, func(i, j int) bool {
		return collate.Less(fieldString(hits[i].Fields, field), fieldString(hits[j].Fields, field))
	})
}

// sortBySequence orders by the collated series name first, falling back to
// the numeric position within the series only to break ties between books
// sharing the same sequence name.
func sortBySequence(hits []BookHit) {
	sort.SliceStable(hits, func(i, j int) bool {
		c := collate.Cmp(fieldString(hits[i].Fields, FieldSequence), fieldString(hits[j].Fields, FieldSequence))
		if c != 0 {
			return c < 0
		}
		ni, _ := hits[i].Fields[FieldSeqNum].(float64)
		nj, _ := hits[j].Fields[FieldSeqNum].(float64)
		return ni < nj
	})
}

// shuffleRandomly puts hits into a fresh pseudo-random order on every call;
// it only needs to look random to a human, not to be cryptographically
// unpredictable.
func shuffleRandomly(hits []BookHit) {
	rand.Shuffle(len(hits), func(i, j int) { hits[i], hits[j] = hits[j], hits[i] })
}

func fnv32(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

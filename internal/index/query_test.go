package index

import (
	"testing"

	"github.com/blevesearch/bleve/v2/search/query"
)

func TestSplitFieldPrefix(t *testing.T) {
	cases := []struct {
		in        string
		field     string
		term      string
		hasField  bool
	}{
		{"title:war", "title", "war", true},
		{"war", "", "war", false},
		{":war", "", ":war", false},
		{"war:", "", "war:", false},
	}
	for _, c := range cases {
		field, term, ok := splitFieldPrefix(c.in)
		if field != c.field || term != c.term || ok != c.hasField {
			t.Errorf("splitFieldPrefix(%q) = (%q,%q,%v), want (%q,%q,%v)",
				c.in, field, term, ok, c.field, c.term, c.hasField)
		}
	}
}

func TestParseQueryEmptyIsMatchAll(t *testing.T) {
	q, err := ParseQuery("", DefaultFields)
	if err != nil {
		t.Fatalf("ParseQuery: %v", err)
	}
	if q == nil {
		t.Fatal("expected a non-nil match-all query")
	}
}

func TestParseQueryPlainWordsDelegateToQueryStringQuery(t *testing.T) {
	q, err := ParseQuery("war peace", DefaultFields)
	if err != nil {
		t.Fatalf("ParseQuery: %v", err)
	}
	if _, ok := q.(*query.QueryStringQuery); !ok {
		t.Fatalf("ParseQuery(plain-only) = %T, want *query.QueryStringQuery", q)
	}
}

func TestSplitFuzzyTilde(t *testing.T) {
	cases := []struct {
		in       string
		base     string
		distance int
	}{
		{"hxllo~", "hxllo", 1},
		{"hxllo~~~", "hxllo", 3},
		{"hxllo", "hxllo", 0},
	}
	for _, c := range cases {
		base, distance := splitFuzzyTilde(c.in)
		if base != c.base || distance != c.distance {
			t.Errorf("splitFuzzyTilde(%q) = (%q,%d), want (%q,%d)", c.in, base, distance, c.base, c.distance)
		}
	}
}

func TestParseQueryFuzzyToken(t *testing.T) {
	q, err := ParseQuery("hxllo~", DefaultFields)
	if err != nil {
		t.Fatalf("ParseQuery: %v", err)
	}
	dq, ok := q.(*query.DisjunctionQuery)
	if !ok || len(dq.Disjuncts) != len(DefaultFields) {
		t.Fatalf("ParseQuery(fuzzy) = %T, want a %d-way disjunction across default fields", q, len(DefaultFields))
	}
	fq, ok := dq.Disjuncts[0].(*query.FuzzyQuery)
	if !ok || fq.Fuzziness != 1 {
		t.Fatalf("ParseQuery(fuzzy) disjunct = %+v, want FuzzyQuery with Fuzziness=1", dq.Disjuncts[0])
	}
}

func TestParseQueryRegexTokenTakesPriorityOverWildcard(t *testing.T) {
	q, err := ParseQuery("field:ab.*", []string{"field"})
	if err != nil {
		t.Fatalf("ParseQuery: %v", err)
	}
	rq, ok := q.(*query.RegexpQuery)
	if !ok {
		t.Fatalf("ParseQuery(regex token) = %T, want *query.RegexpQuery", q)
	}
	if rq.Regexp != "ab.*" {
		t.Errorf("Regexp = %q, want %q", rq.Regexp, "ab.*")
	}
}

func TestParseQueryWildcardTranslatesToRegex(t *testing.T) {
	q, err := ParseQuery("field:ab*c", []string{"field"})
	if err != nil {
		t.Fatalf("ParseQuery: %v", err)
	}
	rq, ok := q.(*query.RegexpQuery)
	if !ok {
		t.Fatalf("ParseQuery(wildcard) = %T, want *query.RegexpQuery", q)
	}
	if rq.Regexp != "ab.*c" {
		t.Errorf("Regexp = %q, want %q", rq.Regexp, "ab.*c")
	}
}

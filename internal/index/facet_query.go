package index

import (
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// FacetEntry is one value/count pair returned by GetFacet.
type FacetEntry struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

const maxFacetTerms = 1_000_000

// GetFacet resolves the sub-facets directly under path, optionally
// restricted to documents matching rawQuery ("" = every document). hits,
// when non-nil, caps how many sub-facet values are returned, keeping those
// with the highest counts; nil means "all of them". debug only controls
// whether the resolved query and path are logged, per the documented resolution of the facet debug argument's
// semantics (§9 Open Question): it is a plain bool, not a count.
func (r *Reader) GetFacet(path, rawQuery string, hits *int, debug bool) ([]FacetEntry, error) {
	var q query.Query = bleve.NewMatchAllQuery()
	if rawQuery != "" {
		parsed, err := ParseQuery(rawQuery, DefaultFields)
		if err != nil {
			return nil, err
		}
		q = parsed
	}

	size := maxFacetTerms
	if hits != nil {
		size = *hits
	}

	req := bleve.NewSearchRequestOptions(q, 0, 0, false)
	req.AddFacet("f", bleve.NewFacetRequest(FieldFacet, maxFacetTerms))
	res, err := r.idx.Search(req)
	if err != nil {
		return nil, err
	}

	if debug {
		r.log.Sugar().Debugf("facet debug: path=%q query=%q size=%d", path, rawQuery, size)
	}

	fr, ok := res.Facets["f"]
	if !ok {
		return nil, nil
	}

	prefix := path
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	counts := map[string]int{}
	for _, t := range fr.Terms {
		if !strings.HasPrefix(t.Term, prefix) {
			continue
		}
		rest := t.Term[len(prefix):]
		seg := rest
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			seg = rest[:i]
		}
		if seg == "" {
			continue
		}
		counts[seg] += t.Count
	}

	out := make([]FacetEntry, 0, len(counts))
	for v, c := range counts {
		out = append(out, FacetEntry{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	if size >= 0 && size < len(out) {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
		out = out[:size]
		sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	}
	return out, nil
}

// GetBookInfo returns the full field map for one book by archive/filename,
// or ok=false if it isn't indexed.
func (r *Reader) GetBookInfo(zipFile, fileName string) (map[string]interface{}, bool, error) {
	q := bleve.NewTermQuery(FileFacet(zipFile, fileName))
	q.SetField(FieldFacet)
	req := bleve.NewSearchRequestOptions(q, 1, 0, false)
	req.Fields = []string{"*"}
	res, err := r.idx.Search(req)
	if err != nil {
		return nil, false, err
	}
	if len(res.Hits) == 0 {
		return nil, false, nil
	}
	return res.Hits[0].Fields, true, nil
}

// GetCover returns the stored JPEG cover bytes for one book, or ok=false if
// the book has no cover or isn't indexed.
func (r *Reader) GetCover(zipFile, fileName string) ([]byte, bool, error) {
	fields, ok, err := r.GetBookInfo(zipFile, fileName)
	if err != nil || !ok {
		return nil, false, err
	}
	raw, ok := fields[FieldCoverImage]
	if !ok {
		return nil, false, nil
	}
	s, ok := raw.(string)
	if !ok || s == "" {
		return nil, false, nil
	}
	return []byte(s), true, nil
}

// GenreTranslation exposes the loaded genre map's code -> description table.
func (r *Reader) GenreTranslation() map[string]string {
	if r.genreMap == nil {
		return map[string]string{}
	}
	return r.genreMap.Translation()
}

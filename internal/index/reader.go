package index

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"go.uber.org/zap"

	"porcula/internal/genremap"
)

// Reader is the read-only side of the index, opened by the server and the
// query/facet CLI subcommands.
type Reader struct {
	idx      bleve.Index
	genreMap *genremap.Map
	log      *zap.Logger
}

// OpenReader opens an existing index read-only. lang is accepted for
// symmetry with OpenWriter but is not used: bleve persists the analyzer
// configuration (built by OpenWriter's BuildMapping call) in the index
// itself and restores it on open.
func OpenReader(path, lang string, gm *genremap.Map, log *zap.Logger) (*Reader, error) {
	if log == nil {
		log = zap.NewNop()
	}
	idx, err := bleve.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index at %s: %w", path, err)
	}
	return &Reader{idx: idx, genreMap: gm, log: log}, nil
}

func (r *Reader) Close() error { return r.idx.Close() }

// CountAll returns the raw document count in the index, including /WHOLE
// markers. This implementation deliberately does not subtract markers (see
// DESIGN.md): callers who need a book-only count should use
// GetIndexedBooks(false) and count set members, or subtract one marker per
// archive that GetIndexedBooks(true) reports as {WholeSentinel}.
func (r *Reader) CountAll() (uint64, error) {
	return r.idx.DocCount()
}

// IndexedFiles is the per-archive result of GetIndexedBooks: the set of
// filenames already indexed from that archive, or the single sentinel
// member WholeSentinel when the whole archive is known to be fully indexed.
type IndexedFiles map[string]map[string]bool

// WholeSentinel is the synthetic filename GetIndexedBooks(true) reports for
// an archive carrying a /WHOLE marker, in place of enumerating its real
// per-file names: the pipeline checks for this single member to skip
// opening the archive at all, rather than skipping its files one by one.
const WholeSentinel = "WHOLE"

// GetIndexedBooks enumerates which (zipfile, filename) pairs are already
// indexed, for delta-indexing skip-set computation.
//
// In compact mode, an archive carrying a /WHOLE marker is reported as
// {WholeSentinel} only — its real per-file names are read from the facet
// but dropped, since the marker already certifies the whole archive is done. An archive
// without a marker is reported with its actual indexed filenames, so the
// pipeline can still skip the individual files already present while
// walking the rest of the archive.
//
// In non-compact mode every zipfile that has ANY indexed file is reported
// with its full known file set regardless of whether a WHOLE marker exists
// — this intentionally ignores WHOLE markers, since the non-compact mode
// exists for tooling that wants "what do we have", not "what's safe to
// skip".
func (r *Reader) GetIndexedBooks(compact bool) (IndexedFiles, error) {
	wholeZips := map[string]bool{}
	if compact {
		fc, err := r.topFacetValues(FieldFacet, "/WHOLE/", 100000)
		if err != nil {
			return nil, err
		}
		for _, v := range fc {
			zip, ok := stripPrefix(v, "/WHOLE/")
			if ok {
				wholeZips[zip] = true
			}
		}
	}

	out := IndexedFiles{}
	if compact {
		for zip := range wholeZips {
			out[zip] = map[string]bool{WholeSentinel: true}
		}
	}

	fileFacets, err := r.topFacetValues(FieldFacet, "/file/", 1000000)
	if err != nil {
		return nil, err
	}

	for _, v := range fileFacets {
		rest, ok := stripPrefix(v, "/file/")
		if !ok {
			continue
		}
		zip, name, ok := splitOnce(rest, "/")
		if !ok {
			continue
		}
		if compact && wholeZips[zip] {
			// already reported as {WholeSentinel}; its real file list is
			// not needed.
			continue
		}
		if _, seen := out[zip]; !seen {
			out[zip] = map[string]bool{}
		}
		out[zip][name] = true
	}
	return out, nil
}

func splitOnce(s, sep string) (string, string, bool) {
	for i := 0; i+len(sep) <= len(s); i++ {
		if s[i:i+len(sep)] == sep {
			return s[:i], s[i+len(sep):], true
		}
	}
	return "", "", false
}

func stripPrefix(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || s[:len(prefix)] != prefix {
		return "", false
	}
	return s[len(prefix):], true
}

// topFacetValues runs a terms facet over field and returns every term value
// starting with prefix, up to size terms considered.
func (r *Reader) topFacetValues(field, prefix string, size int) ([]string, error) {
	q := bleve.NewMatchAllQuery()
	req := bleve.NewSearchRequestOptions(q, 0, 0, false)
	req.AddFacet("f", bleve.NewFacetRequest(field, size))
	res, err := r.idx.Search(req)
	if err != nil {
		return nil, err
	}
	fr, ok := res.Facets["f"]
	if !ok {
		return nil, nil
	}
	var out []string
	for _, t := range fr.Terms {
		if len(t.Term) >= len(prefix) && t.Term[:len(prefix)] == prefix {
			out = append(out, t.Term)
		}
	}
	return out, nil
}

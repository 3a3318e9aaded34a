package index

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gosimple/slug"

	"porcula/internal/bookfmt"
	"porcula/internal/genremap"
)

// FileFacet is the path every book document carries (WHOLE markers do not),
// anchoring it under a specific archive/filename pair so a later reindex can
// find and replace exactly that document.
func FileFacet(zipFile, fileName string) string {
	return fmt.Sprintf("/file/%s/%s", zipFile, fileName)
}

// WholeFacet marks an archive as fully processed.
func WholeFacet(zipFile string) string {
	return fmt.Sprintf("/WHOLE/%s", zipFile)
}

// GenreFacets returns one /genre/<category>/<code> path per genre code on
// the book, resolving category via gm (falling back to "misc" for unknown
// codes, same as genremap.Map.Category).
func GenreFacets(genres []string, gm *genremap.Map) []string {
	out := make([]string, 0, len(genres))
	for _, g := range genres {
		cat := "misc"
		if gm != nil {
			cat = gm.Category(g)
		}
		out = append(out, fmt.Sprintf("/genre/%s/%s", cat, g))
	}
	return out
}

// DeriveKeywords returns the sorted, deduplicated union of declared
// keywords, single-word genre codes, and those codes' localized labels —
// the same set that is both stored as the book's "keyword" field and
// turned into /kw facet paths, so a search for a genre's translated name
// finds books that only ever declared the bare genre code.
func DeriveKeywords(keywords []string, genres []string, gm *genremap.Map) []string {
	set := make(map[string]bool, len(keywords)+len(genres))
	for _, k := range keywords {
		if k != "" {
			set[k] = true
		}
	}
	for _, g := range genres {
		if g == "" || strings.Contains(g, "_") {
			continue
		}
		set[g] = true
		if gm != nil {
			if label, ok := gm.Translation()[g]; ok && label != "" {
				set[strings.ToLower(label)] = true
			}
		}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// KeywordFacets returns one /kw/<word> path per entry in words (the
// DeriveKeywords union).
func KeywordFacets(words []string) []string {
	out := make([]string, 0, len(words))
	for _, k := range words {
		out = append(out, "/kw/"+k)
	}
	return out
}

// AuthorFacets returns one /author/<Letter>/<Last Name> path per author,
// grouping by the first letter of the normalized last name (see
// bookfmt.Person.LastNameNormalized) so the UI can browse authors
// alphabetically without a separate index structure. When the last name has
// no normalizable leading letter run (a name given entirely in a script
// LastNameNormalized doesn't special-case, or decorative punctuation), the
// full person string is transliterated into an ASCII slug instead, so the
// author still gets a browsable facet rather than silently vanishing from
// the listing.
//
// groups is variadic so a caller can pass both a book's declared authors and
// its source-authors (the original-language author of a translated work) in
// one call: /author/... facets are emitted for every person in every group.
func AuthorFacets(groups ...[]bookfmt.Person) []string {
	var out []string
	for _, authors := range groups {
		for _, a := range authors {
			name := a.LastNameNormalized()
			if name == "" {
				fallback := slug.Make(a.String())
				if fallback == "" {
					continue
				}
				out = append(out, fmt.Sprintf("/author/%s/%s", strings.ToUpper(string([]rune(fallback)[0])), fallback))
				continue
			}
			letter := string([]rune(name)[0])
			out = append(out, fmt.Sprintf("/author/%s/%s", letter, name))
		}
	}
	return out
}

// FacetCategory classifies a facet path by its first path segment ("file",
// "genre", "author", "kw", "WHOLE") and returns the remaining segments
// ("/genre/sf/sf_heroic" -> "genre", ["sf", "sf_heroic"]).
func FacetCategory(path string) (kind string, rest []string) {
	trimmed := strings.TrimPrefix(path, "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) == 0 {
		return "", nil
	}
	return parts[0], parts[1:]
}

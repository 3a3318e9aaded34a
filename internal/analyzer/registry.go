package analyzer

import (
	"fmt"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/length"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/registry"

	// Blank-imported for their init() side effect of registering each
	// language's snowball stemmer token filter into bleve's global
	// registry under the "stemmer_<lang>_snowball" naming convention used
	// below in stemmerFilterName.
	_ "github.com/blevesearch/bleve/v2/analysis/lang/ar"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/da"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/de"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/el"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/en"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/es"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/fi"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/fr"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/hu"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/it"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/nl"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/no"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/pt"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/ro"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/ru"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/sv"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/tr"
)

// SimpleName and StemmedName are the fixed analyzer names registered with
// every index, matching the reference implementation's "p_simple" /
// "p_stemmed" tokenizer names: field mappings reference analyzers by name,
// so these names must stay stable across writer and reader.
const (
	SimpleName  = "p_simple"
	StemmedName = "p_stemmed"
)

// maxTokenLength mirrors RemoveLongFilter(40): tokens longer than this are
// dropped rather than indexed, since legitimate words rarely exceed it and
// run-on OCR garbage regularly does.
const maxTokenLength = 40

// supportedStemmerLangs is the same language set the reference stemmer
// table recognizes. Anything else falls back to no stemming at all: the
// stemmed analyzer then runs the same filter chain as the simple one, with
// no stemmer step appended.
var supportedStemmerLangs = map[string]bool{
	"ar": true, "da": true, "nl": true, "en": true, "fi": true,
	"fr": true, "de": true, "el": true, "hu": true, "it": true,
	"no": true, "pt": true, "ro": true, "ru": true, "es": true,
	"sv": true, "tr": true,
}

func stemmerFilterName(lang string) string {
	return fmt.Sprintf("stemmer_%s_snowball", lang)
}

// OffSentinel, configured as the stemmer language, disables the stemmed
// body field entirely: callers check StemmingEnabled before populating
// xbody rather than relying on Register alone, since Register has no way
// to withhold a field from a document.
const OffSentinel = "OFF"

// StemmingEnabled reports whether lang requests real stemming. OffSentinel
// is the only value that turns stemming off outright; any other
// unrecognized code still gets a (stemmerless) StemmedName analyzer, per
// the reference's unsupported-language fallback.
func StemmingEnabled(lang string) bool {
	return lang != OffSentinel
}

// Register installs the simple and stemmed analyzers into m's custom
// analyzer registry under the fixed SimpleName/StemmedName identifiers.
// lang selects the stemmer used for StemmedName; an unrecognized lang
// (including OffSentinel) produces a stemmed analyzer identical to the
// simple one, exactly like the reference's unsupported-language fallback.
func Register(m *mapping.IndexMappingImpl, lang string) error {
	if err := m.AddCustomTokenFilter("porcula_letter_replacer", map[string]interface{}{
		"type": letterReplacerFilterTypeName,
	}); err != nil {
		return err
	}
	if err := m.AddCustomTokenFilter("porcula_length", map[string]interface{}{
		"type": length.Name,
		"min":  1.0,
		"max":  float64(maxTokenLength),
	}); err != nil {
		return err
	}

	simpleFilters := []string{"porcula_length", lowercase.Name, "porcula_letter_replacer"}
	if err := m.AddCustomAnalyzer(SimpleName, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     unicode.Name,
		"token_filters": toInterfaceSlice(simpleFilters),
	}); err != nil {
		return err
	}

	stemmedFilters := append([]string{}, simpleFilters...)
	if supportedStemmerLangs[lang] {
		stemmedFilters = append(stemmedFilters, stemmerFilterName(lang))
	}
	return m.AddCustomAnalyzer(StemmedName, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     unicode.Name,
		"token_filters": toInterfaceSlice(stemmedFilters),
	})
}

func toInterfaceSlice(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

const letterReplacerFilterTypeName = "porcula_letter_replacer_filter"

func init() {
	registry.RegisterTokenFilter(letterReplacerFilterTypeName,
		func(config map[string]interface{}, cache *registry.Cache) (analysis.TokenFilter, error) {
			return NewLetterReplacerFilter(), nil
		})
}

// Package index wraps the embedded search engine: document schema, the
// writer side used by the pipeline, and the reader/query side used by the
// CLI and HTTP surface.
package index

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"porcula/internal/analyzer"
)

// Field names of the indexed document, matching the indexed-document field
// table: one bleve document per book plus one synthetic "WHOLE marker"
// document per fully-indexed archive.
const (
	FieldID         = "id"
	FieldZipFile    = "zipfile"
	FieldFileName   = "filename"
	FieldEncoding   = "encoding"
	FieldLength     = "length"
	FieldTitle      = "title"
	FieldLang       = "lang"
	FieldDate       = "date"
	FieldGenre      = "genre"
	FieldKeyword    = "keyword"
	FieldAuthor     = "author"
	FieldSrcAuthor  = "src_author"
	FieldTranslator = "translator"
	FieldCoverImage = "cover_image"
	FieldSequence   = "sequence"
	FieldSeqNum     = "seqnum"
	FieldAnnotation = "annotation"
	FieldBody       = "body"
	// FieldXBody is an optional, stemmed copy of the body text, populated
	// only when indexing was run with the stemmed-body option on; it uses
	// the stemmed analyzer where every other text field below uses the
	// simple one.
	FieldXBody = "xbody"

	// FieldFacet backs the hierarchical facet tree: every book document
	// gets a /file/<zip>/<name> facet term and adds
	// /genre/<category>/<code>, /author/<Letter>/<Last Name> and
	// /kw/<keyword> terms, and archive markers add a single /WHOLE/<zip>
	// term instead of any /file term of their own.
	FieldFacet = "facet"
)

// docType distinguishes an ordinary book document from a WHOLE marker
// within the same index, since both live in the same bleve index and share
// the facet field.
const (
	DocTypeBook   = "book"
	DocTypeMarker = "marker"
)

const FieldDocType = "doctype"

// BuildMapping constructs the index schema: "title", "author", "src_author",
// "translator", "sequence", "annotation" and "body" all use the simple
// analyzer; only the optional "xbody" field uses the stemmed analyzer.
// Facet-bearing and numeric/keyword-exact fields are left unanalyzed.
func BuildMapping(lang string) (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()
	if err := analyzer.Register(im, lang); err != nil {
		return nil, err
	}

	simple := bleve.NewTextFieldMapping()
	simple.Analyzer = analyzer.SimpleName

	stemmed := bleve.NewTextFieldMapping()
	stemmed.Analyzer = analyzer.StemmedName

	kw := bleve.NewKeywordFieldMapping()

	num := bleve.NewNumericFieldMapping()

	stored := bleve.NewTextFieldMapping()
	stored.Index = false
	stored.Store = true

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt(FieldID, kw)
	doc.AddFieldMappingsAt(FieldZipFile, kw)
	doc.AddFieldMappingsAt(FieldFileName, kw)
	doc.AddFieldMappingsAt(FieldEncoding, kw)
	doc.AddFieldMappingsAt(FieldLength, num)
	doc.AddFieldMappingsAt(FieldTitle, simple)
	doc.AddFieldMappingsAt(FieldLang, kw)
	doc.AddFieldMappingsAt(FieldDate, kw)
	doc.AddFieldMappingsAt(FieldGenre, kw)
	doc.AddFieldMappingsAt(FieldKeyword, simple)
	doc.AddFieldMappingsAt(FieldAuthor, simple)
	doc.AddFieldMappingsAt(FieldSrcAuthor, simple)
	doc.AddFieldMappingsAt(FieldTranslator, simple)
	doc.AddFieldMappingsAt(FieldCoverImage, stored)
	doc.AddFieldMappingsAt(FieldSequence, simple)
	doc.AddFieldMappingsAt(FieldSeqNum, num)
	doc.AddFieldMappingsAt(FieldAnnotation, simple)
	doc.AddFieldMappingsAt(FieldBody, simple)
	doc.AddFieldMappingsAt(FieldXBody, stemmed)
	doc.AddFieldMappingsAt(FieldFacet, kw)
	doc.AddFieldMappingsAt(FieldDocType, kw)

	im.AddDocumentMapping("_default", doc)
	im.DefaultAnalyzer = analyzer.SimpleName
	return im, nil
}

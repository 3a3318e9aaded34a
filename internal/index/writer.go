package index

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/blevesearch/bleve/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"porcula/internal/analyzer"
	"porcula/internal/bookfmt"
	"porcula/internal/genremap"
)

// Writer owns the index for the duration of an `index` run: one writer per
// process, batched commits, closed exactly once when indexing finishes or
// is canceled.
type Writer struct {
	idx             bleve.Index
	genreMap        *genremap.Map
	log             *zap.Logger
	batch           *bleve.Batch
	batchBytes      int // flush threshold: sum of pending parsed_size
	uncommittedSize int
	pending         int
	stemmingEnabled bool
}

// OpenWriter creates (or re-opens) the index at path for writing, with the
// given primary language driving the stemmed analyzer (lang == "OFF"
// disables the stemmed xbody field regardless of what callers pass to
// AddBook) and batchBytes setting the uncommitted_size threshold, in bytes,
// that accumulates before an automatic Flush.
func OpenWriter(path, lang string, gm *genremap.Map, batchBytes int, log *zap.Logger) (*Writer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	im, err := BuildMapping(lang)
	if err != nil {
		return nil, fmt.Errorf("index mapping: %w", err)
	}

	idx, err := bleve.Open(path)
	if err != nil {
		idx, err = bleve.New(path, im)
		if err != nil {
			return nil, fmt.Errorf("create index at %s: %w", path, err)
		}
	}

	if batchBytes <= 0 {
		batchBytes = 4 << 20
	}
	w := &Writer{
		idx:             idx,
		genreMap:        gm,
		log:             log,
		batch:           idx.NewBatch(),
		batchBytes:      batchBytes,
		stemmingEnabled: analyzer.StemmingEnabled(lang),
	}
	return w, nil
}

// DeleteAll removes every document from the index, used at the start of a
// full (non-delta) reindex.
func (w *Writer) DeleteAll() error {
	for {
		ids, err := w.allDocIDs()
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		b := w.idx.NewBatch()
		for _, id := range ids {
			b.Delete(id)
		}
		if err := w.idx.Batch(b); err != nil {
			return err
		}
	}
}

func (w *Writer) allDocIDs() ([]string, error) {
	q := bleve.NewMatchAllQuery()
	req := bleve.NewSearchRequestOptions(q, 100000, 0, false)
	res, err := w.idx.Search(req)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(res.Hits))
	for _, h := range res.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}

// indexDoc is the flat map shape bleve indexes; kept separate from
// bookfmt.Book because stored facet/doctype bookkeeping fields don't belong
// in the domain model.
type indexDoc map[string]interface{}

// AddBook indexes one parsed book, replacing any prior document with the
// same zip/filename facet. Cover images, when present, are resized to a
// thumbnail by the caller before being handed here as already-JPEG bytes.
//
// parsedSize is the caller's deep-size estimate of b (metadata + text +
// cover), used both to overwrite the stored length when neither body nor
// xbody was requested (so the stored size still reflects what got indexed)
// and to drive the writer's byte-sized batch accounting. wantXBody asks for
// a stemmed copy of the body text in the xbody field; it is silently
// ignored when the writer's configured stemmer language is OffSentinel.
func (w *Writer) AddBook(b *bookfmt.Book, coverJPEG []byte, parsedSize int, wantBody, wantXBody bool) error {
	id := uuid.NewString()
	length := b.Length
	if !wantBody && !wantXBody {
		length = uint64(parsedSize)
	}
	keywords := DeriveKeywords(b.Keyword, b.Genre, w.genreMap)
	doc := indexDoc{
		FieldDocType:    DocTypeBook,
		FieldZipFile:    b.ZipFile,
		FieldFileName:   b.FileName,
		FieldEncoding:   b.Encoding,
		FieldLength:     length,
		FieldTitle:      b.Title,
		FieldLang:       b.Lang,
		FieldDate:       b.Date,
		FieldGenre:      b.Genre,
		FieldKeyword:    keywords,
		FieldSequence:   b.Sequence,
		FieldSeqNum:     b.SeqNum,
		FieldAnnotation: b.Annotation,
		FieldBody:       b.Body,
	}
	doc[FieldAuthor] = personStrings(b.Author)
	doc[FieldSrcAuthor] = personStrings(b.SrcAuthor)
	doc[FieldTranslator] = personStrings(b.Translator)
	if len(coverJPEG) > 0 {
		doc[FieldCoverImage] = string(coverJPEG)
	}
	if wantXBody && w.stemmingEnabled && b.Body != "" {
		doc[FieldXBody] = b.Body
	}

	facets := []string{FileFacet(b.ZipFile, b.FileName)}
	facets = append(facets, GenreFacets(b.Genre, w.genreMap)...)
	facets = append(facets, KeywordFacets(keywords)...)
	facets = append(facets, AuthorFacets(b.Author, b.SrcAuthor)...)
	doc[FieldFacet] = facets

	if err := w.deleteByFileFacet(b.ZipFile, b.FileName); err != nil {
		return err
	}
	if err := w.batch.Index(id, doc); err != nil {
		return err
	}
	return w.maybeFlush(parsedSize)
}

func personStrings(people []bookfmt.Person) []string {
	out := make([]string, 0, len(people))
	for _, p := range people {
		out = append(out, p.String())
	}
	return out
}

// MarkArchiveIndexed writes (or replaces) the /WHOLE marker for zipFile,
// recording count (the number of books processed from it) in the marker's
// length field.
func (w *Writer) MarkArchiveIndexed(zipFile string, count int) error {
	if err := w.deleteWholeMarker(zipFile); err != nil {
		return err
	}
	id := "whole:" + zipFile
	doc := indexDoc{
		FieldDocType: DocTypeMarker,
		FieldZipFile: zipFile,
		FieldLength:  count,
		FieldFacet:   []string{WholeFacet(zipFile)},
	}
	if err := w.batch.Index(id, doc); err != nil {
		return err
	}
	return w.maybeFlush(0)
}

func (w *Writer) deleteByFileFacet(zipFile, fileName string) error {
	return w.deleteByTerm(FieldFacet, FileFacet(zipFile, fileName))
}

func (w *Writer) deleteWholeMarker(zipFile string) error {
	return w.deleteByTerm(FieldFacet, WholeFacet(zipFile))
}

func (w *Writer) deleteByTerm(field, term string) error {
	q := bleve.NewTermQuery(term)
	q.SetField(field)
	req := bleve.NewSearchRequestOptions(q, 10, 0, false)
	res, err := w.idx.Search(req)
	if err != nil {
		return err
	}
	for _, h := range res.Hits {
		w.batch.Delete(h.ID)
	}
	return nil
}

func (w *Writer) maybeFlush(parsedSize int) error {
	w.pending++
	w.uncommittedSize += parsedSize
	if w.uncommittedSize < w.batchBytes {
		return nil
	}
	return w.Flush()
}

// Flush commits the pending batch. Safe to call with an empty batch.
func (w *Writer) Flush() error {
	if w.batch == nil || w.pending == 0 {
		w.pending = 0
		w.uncommittedSize = 0
		return nil
	}
	if err := w.idx.Batch(w.batch); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	w.batch = w.idx.NewBatch()
	w.pending = 0
	w.uncommittedSize = 0
	return nil
}

// Close flushes any remaining batch and closes the underlying index,
// then triggers a best-effort GC pause so large scorch segment buffers
// from a big reindex don't linger in RSS past the run.
func (w *Writer) Close() error {
	if err := w.Flush(); err != nil {
		_ = w.idx.Close()
		return err
	}
	err := w.idx.Close()
	runtime.GC()
	return err
}

// IndexDir returns the on-disk location of the underlying index, useful for
// logging.
func (w *Writer) IndexDir() string {
	return filepath.Clean(w.idx.Name())
}

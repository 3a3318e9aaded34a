package pipeline

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/maruel/natural"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"porcula/internal/bookfmt"
	"porcula/internal/index"
	"porcula/internal/resize"
)

// Options configures one indexing run.
type Options struct {
	BooksDir string
	Delta    bool // skip already-indexed (zipfile, filename) pairs
	// AcceptLangs is the target language filter: a book is indexed only
	// when its primary language (Lang[0], or empty) is present here, or
	// AcceptLangs contains the wildcard "any", or the primary language is
	// empty. An empty AcceptLangs accepts every book.
	AcceptLangs   map[string]bool
	ReadThreads   int  // size of the parser worker pool
	ReadQueueSize int  // bounded channel capacity between workers and the writer
	Cover         bool // parse and store resized cover images
	Annotation    bool // parse and store annotations
	Body          bool // parse and store body text
	WantXBody     bool // also populate the stemmed xbody copy of the body text
	// DeltaReader, when Delta is set, supplies the already-indexed
	// (zipfile, filename) skip set. The writer itself has no read path, so
	// a caller doing delta indexing must open a Reader on the same index
	// directory before opening the Writer for write.
	DeltaReader *index.Reader
}

// AnyLang is the accept-list wildcard meaning "accept every language".
const AnyLang = "any"

// acceptLang reports whether the primary language (Lang[0], or "" when
// Lang is empty) passes opts' accept-list filter. An empty primary
// language is always accepted, matching an FB2 document that never
// declared one.
func acceptLang(lang []string, accept map[string]bool) bool {
	if len(accept) == 0 {
		return true
	}
	if accept[AnyLang] {
		return true
	}
	primary := ""
	if len(lang) > 0 {
		primary = lang[0]
	}
	if primary == "" {
		return true
	}
	return accept[primary]
}

// Stats summarizes one run for the CLI's final report line.
type Stats struct {
	ArchivesSeen    int
	ArchivesFailed  int
	BooksIndexed    int
	BooksSkipped    int
	BooksFailed     int
	Warnings        int
	Canceled        bool
}

// parsedBook is one unit of work flowing from a parser worker to the
// single committer goroutine.
type parsedBook struct {
	zipFile    string
	fileName   string
	book       *bookfmt.Book
	cover      []byte
	parsedSize int
	err        error
}

// Run walks every zip archive under opts.BooksDir (processed in
// NumericSortKey order, not lexical, so "book99.zip" precedes "book100.zip"),
// parses every recognized file through bookfmt's format registry using a
// bounded worker pool, and funnels parsed books through a single writer
// goroutine so the underlying index only ever sees one writer at a time.
// canceled is checked between archives and between files; when it flips to
// true the run stops as soon as in-flight work drains, leaving the index in
// a well-formed, committed state rather than aborting mid-write.
func Run(w *index.Writer, opts Options, canceled *atomic.Bool, log *zap.Logger) (*Stats, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.ReadThreads <= 0 {
		opts.ReadThreads = 4
	}
	if opts.ReadQueueSize <= 0 {
		opts.ReadQueueSize = opts.ReadThreads * 4
	}

	archives, err := findArchives(opts.BooksDir)
	if err != nil {
		return nil, fmt.Errorf("scan books dir: %w", err)
	}

	var skipSet index.IndexedFiles
	if opts.Delta {
		if opts.DeltaReader == nil {
			return nil, fmt.Errorf("delta indexing requested without a DeltaReader")
		}
		skipSet, err = opts.DeltaReader.GetIndexedBooks(true)
		if err != nil {
			return nil, fmt.Errorf("load delta skip set: %w", err)
		}
	} else {
		if err := w.DeleteAll(); err != nil {
			return nil, fmt.Errorf("clear index for full reindex: %w", err)
		}
	}

	stats := &Stats{}
	for _, archivePath := range archives {
		if canceled != nil && canceled.Load() {
			stats.Canceled = true
			break
		}
		stats.ArchivesSeen++
		zipName := filepath.Base(archivePath)
		if skipSet[zipName][index.WholeSentinel] {
			log.Info("pipeline: skipping fully-indexed archive", zap.String("archive", zipName))
			continue
		}
		count, err := processArchive(w, archivePath, zipName, opts, skipSet[zipName], canceled, stats, log)
		if err != nil {
			stats.ArchivesFailed++
			log.Error("pipeline: archive failed", zap.String("archive", zipName), zap.Error(err))
			continue
		}
		if canceled != nil && canceled.Load() {
			stats.Canceled = true
			break
		}
		if err := w.MarkArchiveIndexed(zipName, count); err != nil {
			log.Error("pipeline: failed to write WHOLE marker", zap.String("archive", zipName), zap.Error(err))
		}
	}

	if err := w.Flush(); err != nil {
		return stats, fmt.Errorf("final flush: %w", err)
	}
	return stats, nil
}

// findArchives lists *.zip files directly under dir, sorted by
// NumericSortKey.
func findArchives(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if extOf(e.Name()) == ".zip" {
			names = append(names, e.Name())
		}
	}
	// Collisions on the numeric key (two names differing only outside the
	// matched digit run) fall back to natural string order, not raw lexical
	// order, so "vol12_part2" comes before "vol12_part10".
	sort.Sort(natural.StringSlice(names))
	sort.SliceStable(names, func(i, j int) bool {
		return NumericSortKey(names[i]) < NumericSortKey(names[j])
	})
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = filepath.Join(dir, n)
	}
	return out, nil
}

func processArchive(w *index.Writer, archivePath, zipName string, opts Options, skip map[string]bool, canceled *atomic.Bool, stats *Stats, log *zap.Logger) (int, error) {
	type job struct {
		entry    *zip.File
		fileName string
	}

	jobs := make(chan job, opts.ReadQueueSize)
	results := make(chan parsedBook, opts.ReadQueueSize)

	var wg sync.WaitGroup
	for i := 0; i < opts.ReadThreads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if canceled != nil && canceled.Load() {
					continue
				}
				results <- parseOne(archivePath, j.fileName, j.entry, opts)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var walkErr error
	go func() {
		defer close(jobs)
		walkErr = WalkArchive(archivePath, bookfmtExtensions(), func(zf string, entry *zip.File, decodedName string) error {
			if canceled != nil && canceled.Load() {
				return errStopWalk
			}
			if skip != nil && skip[decodedName] {
				stats.BooksSkipped++
				return nil
			}
			jobs <- job{entry: entry, fileName: decodedName}
			return nil
		})
		if walkErr == errStopWalk {
			walkErr = nil
		}
	}()

	count := 0
	var errs error
	for r := range results {
		if r.err != nil {
			stats.BooksFailed++
			log.Warn("pipeline: skipping unparsable file",
				zap.String("archive", zipName), zap.String("file", r.fileName), zap.Error(r.err))
			continue
		}
		if err := w.AddBook(r.book, r.cover, r.parsedSize, opts.Body, opts.WantXBody); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s/%s: %w", zipName, r.fileName, err))
			continue
		}
		stats.BooksIndexed++
		stats.Warnings += len(r.book.Warning)
		count++
	}

	if walkErr != nil {
		errs = multierr.Append(errs, walkErr)
	}
	return count, errs
}

var errStopWalk = fmt.Errorf("pipeline: canceled")

func bookfmtExtensions() map[string]bool {
	return map[string]bool{".fb2": true}
}

func parseOne(zipFile, fileName string, entry *zip.File, opts Options) parsedBook {
	ext := extOf(fileName)
	format, ok := bookfmt.Lookup(ext)
	if !ok {
		return parsedBook{zipFile: zipFile, fileName: fileName, err: fmt.Errorf("no format registered for %q", ext)}
	}

	rc, err := entry.Open()
	if err != nil {
		return parsedBook{zipFile: zipFile, fileName: fileName, err: err}
	}
	defer rc.Close()

	var buf []byte
	buf, err = io.ReadAll(rc)
	if err != nil {
		return parsedBook{zipFile: zipFile, fileName: fileName, err: err}
	}

	book, err := format.Parse(zipFile, fileName, bytes.NewReader(buf), opts.Body, opts.Annotation, opts.Cover)
	if err != nil {
		return parsedBook{zipFile: zipFile, fileName: fileName, err: err}
	}

	if !acceptLang(book.Lang, opts.AcceptLangs) {
		primary := ""
		if len(book.Lang) > 0 {
			primary = book.Lang[0]
		}
		return parsedBook{zipFile: zipFile, fileName: fileName, err: fmt.Errorf("language %q not accepted", primary)}
	}

	var cover []byte
	if opts.Cover && len(book.CoverImage) > 0 {
		thumb, err := resize.Thumbnail(book.CoverImage)
		if err == nil {
			cover = thumb
		}
		book.CoverImage = nil
	}

	return parsedBook{zipFile: zipFile, fileName: fileName, book: book, cover: cover, parsedSize: estimateParsedSize(book, cover)}
}

// estimateParsedSize approximates the in-memory footprint of book plus its
// (already-thumbnailed) cover: the sum of len() over every text field and
// the cover bytes. It only needs to scale with the record's real size,
// not be exact, since it feeds batch-size heuristics, not accounting.
func estimateParsedSize(book *bookfmt.Book, cover []byte) int {
	n := len(book.Annotation) + len(book.Body) + len(cover)
	for _, s := range book.Title {
		n += len(s)
	}
	for _, s := range book.Lang {
		n += len(s)
	}
	for _, s := range book.Date {
		n += len(s)
	}
	for _, s := range book.Genre {
		n += len(s)
	}
	for _, s := range book.Keyword {
		n += len(s)
	}
	for _, s := range book.Sequence {
		n += len(s)
	}
	for _, p := range book.Author {
		n += len(p.String())
	}
	for _, p := range book.SrcAuthor {
		n += len(p.String())
	}
	for _, p := range book.Translator {
		n += len(p.String())
	}
	return n
}

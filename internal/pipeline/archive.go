// Package pipeline orchestrates the indexing run: walking zip archives in
// the books directory, dispatching each entry to a pool of parser workers,
// and funneling parsed books through a single writer goroutine.
package pipeline

import (
	"archive/zip"
	"fmt"
	"path"
	"strings"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
)

// WalkFunc is called once per matching entry found in an archive.
type WalkFunc func(zipFile string, entry *zip.File, decodedName string) error

// WalkArchive visits every non-directory entry in zipFile, applying Zip-Slip
// protection and extension filtering before calling walkFn. Entry names are
// passed through DecodeEntryName first, since some archives store non-UTF8
// filenames without declaring it.
func WalkArchive(zipFile string, extensions map[string]bool, walkFn WalkFunc) error {
	r, err := zip.OpenReader(zipFile)
	if err != nil {
		return fmt.Errorf("open archive %s: %w", zipFile, err)
	}
	defer r.Close()

	for _, f := range r.File {
		name := f.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q in %s: unsafe path", name, zipFile)
		}
		if f.FileInfo().IsDir() {
			continue
		}
		ext := extOf(name)
		if len(extensions) > 0 && !extensions[ext] {
			continue
		}
		decoded := DecodeEntryName(name)
		if err := walkFn(zipFile, f, decoded); err != nil {
			return err
		}
	}
	return nil
}

// isSafePath rejects absolute paths and ".." traversal components,
// preventing a malicious archive from writing or referencing files outside
// its own namespace (Zip Slip).
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return false
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}

func extOf(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return strings.ToLower(name[i:])
		}
		if name[i] == '/' {
			break
		}
	}
	return ""
}

// confidenceThreshold is the statistical-detector confidence required
// before we trust a non-UTF-8 charset guess over leaving the name as-is.
const confidenceThreshold = 0.8

// DecodeEntryName re-decodes a zip entry name that might be stored in a
// legacy 8-bit codepage (common for archives built on older Windows
// tooling) rather than UTF-8. It runs a statistical charset detector over
// the raw bytes and only applies a conversion when the detector is
// confident (> 0.8); otherwise the name is returned unchanged, since a
// low-confidence guess is more likely to mangle a perfectly good UTF-8 or
// ASCII name than to fix a broken one.
func DecodeEntryName(name string) string {
	raw := []byte(name)
	if isValidUTF8(raw) {
		return name
	}
	det := chardet.NewTextDetector()
	result, err := det.DetectBest(raw)
	if err != nil || result == nil || result.Confidence <= confidenceThreshold {
		return name
	}
	enc := encodingFor(result.Charset)
	if enc == nil {
		return name
	}
	out, err := enc.NewDecoder().String(name)
	if err != nil {
		return name
	}
	return out
}

func isValidUTF8(b []byte) bool {
	i := 0
	for i < len(b) {
		c := b[i]
		switch {
		case c < 0x80:
			i++
		case c&0xE0 == 0xC0:
			if i+1 >= len(b) || b[i+1]&0xC0 != 0x80 {
				return false
			}
			i += 2
		case c&0xF0 == 0xE0:
			if i+2 >= len(b) || b[i+1]&0xC0 != 0x80 || b[i+2]&0xC0 != 0x80 {
				return false
			}
			i += 3
		case c&0xF8 == 0xF0:
			if i+3 >= len(b) || b[i+1]&0xC0 != 0x80 || b[i+2]&0xC0 != 0x80 || b[i+3]&0xC0 != 0x80 {
				return false
			}
			i += 4
		default:
			return false
		}
	}
	return true
}

func encodingFor(name string) encoding.Encoding {
	switch strings.ToUpper(name) {
	case "WINDOWS-1251", "CP1251":
		return charmap.Windows1251
	case "IBM866", "CP866":
		return charmap.CodePage866
	case "KOI8-R":
		return charmap.KOI8R
	default:
		if enc, err := ianaindex.IANA.Encoding(name); err == nil && enc != nil {
			return enc
		}
		return nil
	}
}

package index

import (
	"testing"

	"porcula/internal/bookfmt"
)

func TestGetIndexedBooksCompactModeReportsSentinelForWholeArchives(t *testing.T) {
	dir := t.TempDir()
	w, err := OpenWriter(dir, "en", nil, 1000, nil)
	if err != nil {
		t.Fatalf("OpenWriter: %v", err)
	}

	if err := w.AddBook(&bookfmt.Book{ZipFile: "done.zip", FileName: "a.fb2", Title: []string{"A"}}, nil, 0, true, false); err != nil {
		t.Fatalf("AddBook: %v", err)
	}
	if err := w.AddBook(&bookfmt.Book{ZipFile: "partial.zip", FileName: "b.fb2", Title: []string{"B"}}, nil, 0, true, false); err != nil {
		t.Fatalf("AddBook: %v", err)
	}
	if err := w.MarkArchiveIndexed("done.zip", 1); err != nil {
		t.Fatalf("MarkArchiveIndexed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := OpenReader(dir, "en", nil, nil)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer r.Close()

	got, err := r.GetIndexedBooks(true)
	if err != nil {
		t.Fatalf("GetIndexedBooks: %v", err)
	}

	done, ok := got["done.zip"]
	if !ok || len(done) != 1 || !done[WholeSentinel] {
		t.Errorf("done.zip = %v, want {%q: true}", done, WholeSentinel)
	}
	partial, ok := got["partial.zip"]
	if !ok || len(partial) != 1 || !partial["b.fb2"] {
		t.Errorf("partial.zip = %v, want {\"b.fb2\": true}", partial)
	}
}

package httpapi

import (
	"archive/zip"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"porcula/internal/bookfmt"
	"porcula/internal/genremap"
	"porcula/internal/index"
)

func init() { gin.SetMode(gin.TestMode) }

func newTestReader(t *testing.T) *index.Reader {
	t.Helper()
	dir := t.TempDir()
	gm := genremap.New()
	w, err := index.OpenWriter(filepath.Join(dir, "idx"), "ru", gm, 100, nil)
	if err != nil {
		t.Fatalf("OpenWriter: %v", err)
	}
	book := &bookfmt.Book{
		ID:      "1",
		ZipFile: "books.zip",
		FileName: "a.fb2",
		Title:   []string{"War and Peace"},
		Lang:    []string{"ru"},
		Author:  []bookfmt.Person{{FirstName: "Leo", LastName: "Tolstoy"}},
	}
	if err := w.AddBook(book, nil, 0, true, false); err != nil {
		t.Fatalf("AddBook: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	r, err := index.OpenReader(filepath.Join(dir, "idx"), "ru", gm, nil)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	booksDir := t.TempDir()
	writeTestZip(t, filepath.Join(booksDir, "books.zip"), "a.fb2", "<xml/>")
	return &Server{Reader: newTestReader(t), BooksDir: booksDir, BaseURL: "/porcula"}, booksDir
}

func writeTestZip(t *testing.T, path, entryName, content string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)
	w, err := zw.Create(entryName)
	if err != nil {
		t.Fatalf("zip create entry: %v", err)
	}
	if _, err := w.Write([]byte(content)); err != nil {
		t.Fatalf("zip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
}

func TestHandleCount(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router()

	req := httptest.NewRequest(http.MethodGet, "/porcula/book/count", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Body.String() == "0" {
		t.Errorf("expected non-zero count, got %q", w.Body.String())
	}
}

func TestHandleSearchMissingQuery(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router()

	req := httptest.NewRequest(http.MethodGet, "/porcula/search", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestHandleSearchFindsBook(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router()

	req := httptest.NewRequest(http.MethodGet, "/porcula/search?query=War", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Total uint64 `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Total == 0 {
		t.Error("expected at least one hit")
	}
}

func TestHandleGenreTranslation(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router()

	req := httptest.NewRequest(http.MethodGet, "/porcula/genre/translation", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestHandleCoverMissingReturns404(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router()

	req := httptest.NewRequest(http.MethodGet, "/porcula/book/books.zip/a.fb2/cover", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestHandleOpenSearch(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router()

	req := httptest.NewRequest(http.MethodGet, "/porcula/opensearch", nil)
	req.Host = "example.com"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct == "" {
		t.Error("expected content-type set")
	}
}

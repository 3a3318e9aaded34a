package pipeline

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

func TestAcceptLangPrimaryLanguageOnly(t *testing.T) {
	accept := map[string]bool{"ru": true}
	if !acceptLang([]string{"ru", "en"}, accept) {
		t.Error("primary ru should be accepted")
	}
	if acceptLang([]string{"en", "ru"}, accept) {
		t.Error("primary en should not be accepted even though ru (a secondary lang) is")
	}
}

func TestAcceptLangEmptyPrimaryAlwaysAccepted(t *testing.T) {
	if !acceptLang(nil, map[string]bool{"ru": true}) {
		t.Error("missing primary language should be accepted")
	}
	if !acceptLang([]string{""}, map[string]bool{"ru": true}) {
		t.Error("empty primary language should be accepted")
	}
}

func TestAcceptLangWildcardAny(t *testing.T) {
	if !acceptLang([]string{"de"}, map[string]bool{AnyLang: true}) {
		t.Error("any wildcard should accept every language")
	}
}

func TestAcceptLangEmptyAcceptListAcceptsEverything(t *testing.T) {
	if !acceptLang([]string{"de"}, nil) {
		t.Error("an empty accept list should accept every language")
	}
}

func TestFindArchivesSortsByNumericKey(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"lib.b.zip", "lib.a.zip", "lib.c345.zip", "lib.d12345.zip", "lib.x001.zip"} {
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		zw := zip.NewWriter(f)
		if err := zw.Close(); err != nil {
			t.Fatalf("close zip writer: %v", err)
		}
		f.Close()
	}
	got, err := findArchives(dir)
	if err != nil {
		t.Fatalf("findArchives: %v", err)
	}
	want := []string{"lib.x001.zip", "lib.c345.zip", "lib.d12345.zip", "lib.a.zip", "lib.b.zip"}
	if len(got) != len(want) {
		t.Fatalf("got %d archives, want %d: %v", len(got), len(want), got)
	}
	for i, w := range want {
		if filepath.Base(got[i]) != w {
			t.Errorf("archives[%d] = %q, want %q", i, filepath.Base(got[i]), w)
		}
	}
}

func TestWalkArchiveFiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "lib.zip")
	f, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	zw := zip.NewWriter(f)
	for _, name := range []string{"a.fb2", "b.txt", "c.fb2"} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("Create entry: %v", err)
		}
		w.Write([]byte("data"))
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip writer: %v", err)
	}
	f.Close()

	var seen []string
	err = WalkArchive(zipPath, map[string]bool{".fb2": true}, func(zf string, entry *zip.File, decoded string) error {
		seen = append(seen, decoded)
		return nil
	})
	if err != nil {
		t.Fatalf("WalkArchive: %v", err)
	}
	if len(seen) != 2 || seen[0] != "a.fb2" || seen[1] != "c.fb2" {
		t.Errorf("seen = %v, want [a.fb2 c.fb2]", seen)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadIndexSettingsDefaultsWhenMissing(t *testing.T) {
	s, err := LoadIndexSettings(t.TempDir())
	if err != nil {
		t.Fatalf("LoadIndexSettings: %v", err)
	}
	if len(s.Langs) != 1 || s.Langs[0] != "ru" {
		t.Errorf("Langs = %v", s.Langs)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := &IndexSettings{
		Langs:    []string{"en", "ru"},
		Stemmer:  "en",
		BooksDir: "books",
		Disabled: []string{"fr"},
	}
	if err := s.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, IndexSettingsFile)); err != nil {
		t.Fatalf("settings file not written: %v", err)
	}
	loaded, err := LoadIndexSettings(dir)
	if err != nil {
		t.Fatalf("LoadIndexSettings: %v", err)
	}
	if len(loaded.Langs) != 2 || loaded.Langs[0] != "en" || loaded.Langs[1] != "ru" {
		t.Errorf("Langs = %v", loaded.Langs)
	}
	if !loaded.DisabledSet()["fr"] {
		t.Error("expected fr in DisabledSet")
	}
}

func TestLoadIndexSettingsParsesJSON(t *testing.T) {
	dir := t.TempDir()
	content := `{"langs":["de"],"stemmer":"de","books_dir":"b","disabled":[]}`
	os.WriteFile(filepath.Join(dir, IndexSettingsFile), []byte(content), 0o644)
	s, err := LoadIndexSettings(dir)
	if err != nil {
		t.Fatalf("LoadIndexSettings: %v", err)
	}
	if s.Stemmer != "de" {
		t.Errorf("Stemmer = %q", s.Stemmer)
	}
}

package main

import (
	"testing"

	"porcula/internal/config"
)

func TestPrimaryLangDefaultsWhenEmpty(t *testing.T) {
	if got := primaryLang(&config.IndexSettings{}); got != "ru" {
		t.Errorf("primaryLang() = %q, want ru", got)
	}
}

func TestPrimaryLangUsesFirstConfigured(t *testing.T) {
	s := &config.IndexSettings{Langs: []string{"en", "ru"}}
	if got := primaryLang(s); got != "en" {
		t.Errorf("primaryLang() = %q, want en", got)
	}
}

func TestLoadGenreMapFallsBackToEmpty(t *testing.T) {
	gm := loadGenreMap(t.TempDir(), nil)
	if gm == nil {
		t.Fatal("expected non-nil genre map")
	}
	if len(gm.Translation()) != 0 {
		t.Errorf("expected empty translation table, got %v", gm.Translation())
	}
}

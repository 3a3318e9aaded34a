package genremap

import (
	"strings"
	"testing"
)

const sample = `
# comment line, ignored
/prose
prose_classic=Classic prose
prose_contemporary=Contemporary prose
/sf
sf=Science fiction
sf_heroic=Heroic fantasy
orphan_before_any_category=Orphan
`

func TestLoad(t *testing.T) {
	m, err := Load(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := m.Category("prose_classic"); got != "prose" {
		t.Errorf("Category(prose_classic) = %q, want prose", got)
	}
	if got := m.Category("sf_heroic"); got != "sf" {
		t.Errorf("Category(sf_heroic) = %q, want sf", got)
	}
	if got := m.Category("unknown_code"); got != "misc" {
		t.Errorf("Category(unknown) = %q, want misc", got)
	}
	if got := m.Translation()["sf"]; got != "Science fiction" {
		t.Errorf("Translation[sf] = %q", got)
	}
}

func TestLoadOrphanBeforeCategoryLine(t *testing.T) {
	m, err := Load(strings.NewReader("code=desc\n/cat\nother=desc2\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := m.Category("code"); got != defaultCategory {
		t.Errorf("orphan code category = %q, want %q", got, defaultCategory)
	}
	if got := m.Category("other"); got != "cat" {
		t.Errorf("other category = %q, want cat", got)
	}
}

func TestLoadMalformedLine(t *testing.T) {
	if _, err := Load(strings.NewReader("not a valid line at all")); err == nil {
		t.Error("expected error for malformed line")
	}
}

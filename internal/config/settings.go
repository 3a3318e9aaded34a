package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// IndexSettingsFile is the fixed filename written inside an index
// directory, distinct from the process config above: it travels with the
// index itself (language list, stemmer, books_dir it was built from,
// disabled languages), not with the invoking process.
const IndexSettingsFile = "porcula_index_settings.json"

// IndexSettings is serialized as JSON, matching the reference
// implementation's settings file format exactly (unlike this package's own
// process config, which uses YAML per the ambient logging/config
// convention) — the two formats are not meant to be interchangeable, they
// simply answer different questions.
type IndexSettings struct {
	Langs    []string `json:"langs"`
	Stemmer  string   `json:"stemmer"`
	BooksDir string   `json:"books_dir"`
	Disabled []string `json:"disabled"`
}

// LoadIndexSettings reads <indexDir>/porcula_index_settings.json, returning
// sensible defaults if the file doesn't exist yet (a brand-new index
// directory).
func LoadIndexSettings(indexDir string) (*IndexSettings, error) {
	path := filepath.Join(indexDir, IndexSettingsFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &IndexSettings{
			Langs:    []string{"ru"},
			Stemmer:  "ru",
			BooksDir: DefaultBooksDir,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var s IndexSettings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &s, nil
}

// Save writes s to <indexDir>/porcula_index_settings.json. Settings are
// saved before the writer opens the underlying index, so a crash between
// the two leaves settings describing the about-to-be-built index rather
// than a stale prior one.
func (s *IndexSettings) Save(indexDir string) error {
	path := filepath.Join(indexDir, IndexSettingsFile)
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal index settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// DisabledSet returns Disabled as a lookup set. Retained for settings-file
// round-tripping; the pipeline's language filter is driven by AcceptSet,
// not this set (see §4.8's accept-list acceptance rule).
func (s *IndexSettings) DisabledSet() map[string]bool {
	out := make(map[string]bool, len(s.Disabled))
	for _, l := range s.Disabled {
		out[l] = true
	}
	return out
}

// AcceptSet returns Langs as a lookup set, for the pipeline's target
// language filter: a book's primary language is accepted when it appears
// here, or when the set contains the wildcard "any".
func (s *IndexSettings) AcceptSet() map[string]bool {
	out := make(map[string]bool, len(s.Langs))
	for _, l := range s.Langs {
		out[l] = true
	}
	return out
}

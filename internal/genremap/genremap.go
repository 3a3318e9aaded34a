// Package genremap loads the genre code -> category/description tables used
// to build the /genre facet and the /genre/translation endpoint.
package genremap

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const defaultCategory = "misc"

var lineRe = regexp.MustCompile(`^([#/]?)([^=]*)(?:=(.+))?$`)

// Map resolves a raw FB2 genre code to its category ("misc", "sf", ...) and
// translated description, and lists the whole code -> description table.
type Map struct {
	category    map[string]string
	translation map[string]string
}

// New returns an empty map; useful as a zero-value fallback when no
// genre-map asset is available.
func New() *Map {
	return &Map{
		category:    make(map[string]string),
		translation: make(map[string]string),
	}
}

// Load parses the "code=description", "/category", "#comment" line format.
//
// A line starting with '/' sets the category that subsequent code lines
// belong to, without itself producing an entry. A line starting with '#' is
// a comment and is skipped entirely. Every other line both files the code
// under the current category and records its translation, regardless of
// whether the category line ever appeared.
func Load(r io.Reader) (*Map, error) {
	m := New()
	category := defaultCategory
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		groups := lineRe.FindStringSubmatch(line)
		if groups == nil {
			return nil, fmt.Errorf("genre map line %d: malformed: %q", lineNo, line)
		}
		marker, code, desc := groups[1], strings.TrimSpace(groups[2]), strings.TrimSpace(groups[3])
		switch marker {
		case "#":
			continue
		case "/":
			category = code
			continue
		default:
			if code == "" || desc == "" {
				return nil, fmt.Errorf("genre map line %d: malformed: %q", lineNo, line)
			}
			m.category[code] = category
			m.translation[code] = desc
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("genre map: %w", err)
	}
	return m, nil
}

// Category returns the category a genre code belongs to, or "misc" if the
// code is unknown.
func (m *Map) Category(code string) string {
	if c, ok := m.category[code]; ok {
		return c
	}
	return defaultCategory
}

// Translation returns the whole code -> description table, e.g. for the
// /genre/translation HTTP endpoint.
func (m *Map) Translation() map[string]string {
	return m.translation
}

// Package i18n selects between two compiled-in message variants for
// process-facing text: an English default and a localized Russian
// alternative, chosen once per process from the environment exactly the
// way LC_MESSAGES/LANG select a locale for CLI tools generally.
package i18n

import (
	"os"
	"strings"
)

// DefaultLang is used when neither LC_MESSAGES nor LANG is set.
const DefaultLang = "en"

// Lang is the two-letter, lowercased message language resolved once at
// package init from LC_MESSAGES (preferred) or LANG, falling back to
// DefaultLang. It is a var, not a const, so tests can override it.
var Lang = resolveLang()

func resolveLang() string {
	v := os.Getenv("LC_MESSAGES")
	if v == "" {
		v = os.Getenv("LANG")
	}
	if v == "" {
		v = DefaultLang
	}
	v = strings.ToLower(v)
	if len(v) > 2 {
		v = v[:2]
	}
	return v
}

// T returns loc when the resolved message language is Russian, en otherwise.
// Call sites read like T("Error opening index", "Ошибка открытия индекса").
func T(en, loc string) string {
	if Lang == "ru" {
		return loc
	}
	return en
}

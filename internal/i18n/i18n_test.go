package i18n

import "testing"

func TestResolveLangTruncatesAndLowercases(t *testing.T) {
	t.Setenv("LC_MESSAGES", "EN_US.UTF-8")
	t.Setenv("LANG", "")
	if got := resolveLang(); got != "en" {
		t.Errorf("resolveLang() = %q, want en", got)
	}
}

func TestResolveLangFallsBackToLang(t *testing.T) {
	t.Setenv("LC_MESSAGES", "")
	t.Setenv("LANG", "ru_RU.UTF-8")
	if got := resolveLang(); got != "ru" {
		t.Errorf("resolveLang() = %q, want ru", got)
	}
}

func TestResolveLangDefault(t *testing.T) {
	t.Setenv("LC_MESSAGES", "")
	t.Setenv("LANG", "")
	if got := resolveLang(); got != DefaultLang {
		t.Errorf("resolveLang() = %q, want default %q", got, DefaultLang)
	}
}

func TestT(t *testing.T) {
	saved := Lang
	defer func() { Lang = saved }()

	Lang = "ru"
	if got := T("hello", "привет"); got != "привет" {
		t.Errorf("T() = %q", got)
	}

	Lang = "en"
	if got := T("hello", "привет"); got != "hello" {
		t.Errorf("T() = %q", got)
	}
}

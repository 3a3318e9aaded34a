package pipeline

import "testing"

func TestIsSafePath(t *testing.T) {
	cases := map[string]bool{
		"book.fb2":          true,
		"dir/book.fb2":      true,
		"../escape.fb2":     false,
		"/abs/path.fb2":     false,
		`\win\path.fb2`:     false,
		"dir/../../etc/passwd": false,
	}
	for in, want := range cases {
		if got := isSafePath(in); got != want {
			t.Errorf("isSafePath(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestExtOf(t *testing.T) {
	cases := map[string]string{
		"book.FB2":     ".fb2",
		"a/b/c.fb2.zip": ".zip",
		"noext":        "",
	}
	for in, want := range cases {
		if got := extOf(in); got != want {
			t.Errorf("extOf(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDecodeEntryNamePassesThroughValidUTF8(t *testing.T) {
	if got := DecodeEntryName("Толстой - Война и мир.fb2"); got != "Толстой - Война и мир.fb2" {
		t.Errorf("valid UTF-8 name was altered: %q", got)
	}
}

package bookfmt

import "testing"

func TestPersonString(t *testing.T) {
	p := Person{LastName: "Фыва", FirstName: "Иван", NickName: "Ваня"}
	if got, want := p.String(), "Фыва Иван [Ваня]"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got, want := (Person{}).String(), ""; got != want {
		t.Errorf("empty Person.String() = %q, want %q", got, want)
	}
}

func TestLastNameNormalized(t *testing.T) {
	cases := []struct {
		last string
		want string
	}{
		{"толстой, граф", "Толстой"},
		{"Римский-Корсаков", "Римский-Корсаков"},
		{"", ""},
		{"...", ""},
		{"o'brien", "O"},
	}
	for _, c := range cases {
		p := Person{LastName: c.last}
		if got := p.LastNameNormalized(); got != c.want {
			t.Errorf("LastNameNormalized(%q) = %q, want %q", c.last, got, c.want)
		}
	}
}

func TestFileExtension(t *testing.T) {
	cases := map[string]string{
		"book.FB2":        ".fb2",
		"dir/book.fb2.zip": ".zip",
		"noext":           "",
		"a/b/c.TXT":       ".txt",
	}
	for in, want := range cases {
		if got := FileExtension(in); got != want {
			t.Errorf("FileExtension(%q) = %q, want %q", in, got, want)
		}
	}
}

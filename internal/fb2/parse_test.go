package fb2

import (
	"strings"
	"testing"
)

const sampleDoc = `<?xml version="1.0" encoding="utf-8"?>
<FictionBook>
  <description>
    <title-info>
      <genre>prose_classic</genre>
      <author>
        <first-name>Лев</first-name>
        <last-name>Толстой</last-name>
      </author>
      <book-title>Война и мир</book-title>
      <lang>ru</lang>
      <date>1869</date>
      <keywords>роман, эпопея</keywords>
      <sequence name="Война и мир" number="1"/>
      <coverpage>
        <image href="#cover.jpg"/>
      </coverpage>
    </title-info>
  </description>
  <body>
    <section>
      <p>Ну, князь.</p>
    </section>
  </body>
  <binary id="cover.jpg" content-type="image/jpeg">YWJjZA==</binary>
</FictionBook>`

func TestParseBasic(t *testing.T) {
	f := &Format{}
	book, err := f.Parse("archive.zip", "book.fb2", strings.NewReader(sampleDoc), true, true, true)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(book.Title) != 1 || book.Title[0] != "Война и мир" {
		t.Errorf("Title = %v", book.Title)
	}
	if len(book.Genre) != 1 || book.Genre[0] != "prose_classic" {
		t.Errorf("Genre = %v", book.Genre)
	}
	if len(book.Author) != 1 || book.Author[0].LastName != "Толстой" || book.Author[0].FirstName != "Лев" {
		t.Errorf("Author = %+v", book.Author)
	}
	if len(book.Lang) != 1 || book.Lang[0] != "ru" {
		t.Errorf("Lang = %v", book.Lang)
	}
	if len(book.Keyword) != 2 || book.Keyword[0] != "роман" || book.Keyword[1] != "эпопея" {
		t.Errorf("Keyword = %v", book.Keyword)
	}
	if len(book.Sequence) != 1 || book.Sequence[0] != "Война и мир" || book.SeqNum[0] != 1 {
		t.Errorf("Sequence/SeqNum = %v %v", book.Sequence, book.SeqNum)
	}
	if string(book.CoverImage) != "abcd" {
		t.Errorf("CoverImage = %q, want %q", book.CoverImage, "abcd")
	}
	if book.Length == 0 {
		t.Error("Length should be > 0 when withBody is set")
	}
	if !strings.Contains(book.Body, "Ну, князь.") {
		t.Errorf("Body = %q, want it to contain the paragraph text", book.Body)
	}
}

func TestParseEmptyTitleFails(t *testing.T) {
	f := &Format{}
	_, err := f.Parse("a.zip", "b.fb2", strings.NewReader(`<FictionBook><description><title-info></title-info></description><body><p>x</p></body></FictionBook>`), true, false, false)
	if err == nil {
		t.Fatal("expected error for missing title")
	}
}

func TestParseEmptyBodyFails(t *testing.T) {
	f := &Format{}
	_, err := f.Parse("a.zip", "b.fb2", strings.NewReader(`<FictionBook><description><title-info><book-title>T</book-title></title-info></description><body></body></FictionBook>`), true, false, false)
	if err == nil {
		t.Fatal("expected error for empty body")
	}
}

func TestParseSkipsBodyWhenNotRequested(t *testing.T) {
	f := &Format{}
	book, err := f.Parse("a.zip", "b.fb2", strings.NewReader(sampleDoc), false, false, false)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if book.Length != 0 {
		t.Errorf("Length = %d, want 0 when withBody=false", book.Length)
	}
	if book.CoverImage != nil {
		t.Error("CoverImage should be nil when withCover=false")
	}
	if book.Body != "" {
		t.Errorf("Body = %q, want empty when withBody=false", book.Body)
	}
}

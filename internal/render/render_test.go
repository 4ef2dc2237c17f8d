package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/samvad-hq/mercury-reader/pkg/mercury"
)

func strPtr(s string) *string { return &s }

func sampleArticle() *mercury.Article {
	return &mercury.Article{
		Title:   "Rust Ownership",
		Author:  strPtr("Jane Doe"),
		Content: `<div><h2>Intro</h2><p>Hello   <b>world</b>.</p><ul><li>one</li><li>two</li></ul><script>x()</script></div>`,
		URL:     "https://example.com/post",
	}
}

func TestTextLayout(t *testing.T) {
	var buf bytes.Buffer
	if err := Text(&buf, sampleArticle(), Options{}); err != nil {
		t.Fatalf("Text: %v", err)
	}
	want := "\nJane Doe\nRust Ownership\n\n## Intro\n\nHello world.\n\n* one\n\n* two\n"
	if got := buf.String(); got != want {
		t.Fatalf("Text output mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestTextWithoutAuthorAndNonHTMLContent(t *testing.T) {
	a := &mercury.Article{Title: "T", Content: "# already markdown"}
	var buf bytes.Buffer
	if err := Text(&buf, a, Options{Format: mercury.ContentTypeMarkdown}); err != nil {
		t.Fatalf("Text: %v", err)
	}
	if got := buf.String(); got != "\nT\n\n# already markdown\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestHTMLToTextWrapsAndKeepsPre(t *testing.T) {
	html := `<p>aaa bbb ccc ddd</p><pre>  keep   this
  layout</pre><p>line<br>break</p><img alt="chart">`
	got, err := HTMLToText(html, 8)
	if err != nil {
		t.Fatalf("HTMLToText: %v", err)
	}
	want := "aaa bbb\nccc ddd\n\n  keep   this\n  layout\n\nline\nbreak\n\n[chart]"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestWrapKeepsLongWords(t *testing.T) {
	if got := wrap("tiny supercalifragilistic end", 6); got != "tiny\nsupercalifragilistic\nend" {
		t.Fatalf("wrap = %q", got)
	}
}

func TestMarkdown(t *testing.T) {
	md, err := Markdown(&mercury.Article{
		Title:   "Title",
		Author:  strPtr("Ann"),
		Content: `<p>Some <strong>bold</strong> text</p>`,
	}, Options{})
	if err != nil {
		t.Fatalf("Markdown: %v", err)
	}
	if !strings.HasPrefix(md, "# Title\n\n_by Ann_\n\n") {
		t.Fatalf("missing header: %q", md)
	}
	if !strings.Contains(md, "**bold**") {
		t.Fatalf("content not converted: %q", md)
	}
}

func TestJSONAndWriteDispatch(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleArticle(), OutputJSON, Options{}); err != nil {
		t.Fatalf("Write json: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if decoded["title"] != "Rust Ownership" {
		t.Fatalf("unexpected title %v", decoded["title"])
	}

	if err := Write(&buf, sampleArticle(), Output("pdf"), Options{}); err == nil {
		t.Fatalf("expected error for unknown output")
	}
	if err := Text(&buf, nil, Options{}); err == nil {
		t.Fatalf("expected error for nil article")
	}
}

// Package render turns parsed articles into terminal text, Markdown or JSON.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/samvad-hq/mercury-reader/pkg/mercury"
)

// DefaultWidth is the wrap column for Text.
const DefaultWidth = 80

// Output selects a renderer.
type Output string

const (
	OutputText     Output = "text"
	OutputMarkdown Output = "markdown"
	OutputJSON     Output = "json"
)

// Options control rendering.
type Options struct {
	// Width wraps plain-text paragraphs; <= 0 means DefaultWidth.
	Width int
	// Format is the content type the article was requested in. Only HTML content
	// (or an unset format) is converted; markdown and text are written as-is.
	Format mercury.ContentType
}

func (o Options) htmlContent() bool {
	return o.Format == "" || o.Format == mercury.ContentTypeHTML
}

// Write dispatches to the renderer named by out.
func Write(w io.Writer, a *mercury.Article, out Output, opts Options) error {
	switch out {
	case OutputText, "":
		return Text(w, a, opts)
	case OutputMarkdown:
		md, err := Markdown(a, opts)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, md)
		return err
	case OutputJSON:
		return JSON(w, a)
	default:
		return fmt.Errorf("unknown output %q (want text, markdown or json)", out)
	}
}

// Text writes a blank line, the author (if any), the title, a blank line, then the
// content as wrapped plain text followed by a newline.
func Text(w io.Writer, a *mercury.Article, opts Options) error {
	if a == nil {
		return fmt.Errorf("render: nil article")
	}
	var b strings.Builder
	b.WriteString("\n")
	if author := mercury.StringValue(a.Author); author != "" {
		b.WriteString(author)
		b.WriteString("\n")
	}
	b.WriteString(a.Title)
	b.WriteString("\n\n")

	body := a.Content
	if opts.htmlContent() {
		text, err := HTMLToText(a.Content, opts.Width)
		if err != nil {
			return err
		}
		body = text
	}
	b.WriteString(body)
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(),
	),
)

// Markdown renders "# Title", an author byline and the content converted to Markdown.
func Markdown(a *mercury.Article, opts Options) (string, error) {
	if a == nil {
		return "", fmt.Errorf("render: nil article")
	}
	var b strings.Builder
	if a.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", a.Title)
	}
	if author := mercury.StringValue(a.Author); author != "" {
		fmt.Fprintf(&b, "_by %s_\n\n", author)
	}

	body := a.Content
	if opts.htmlContent() && strings.TrimSpace(body) != "" {
		md, err := mdConverter.ConvertString(body)
		if err != nil {
			return "", fmt.Errorf("convert content to markdown: %w", err)
		}
		body = md
	}
	b.WriteString(strings.TrimSpace(body))
	b.WriteString("\n")
	return b.String(), nil
}

// JSON writes the article as indented JSON.
func JSON(w io.Writer, a *mercury.Article) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(a)
}

package render

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "header": true, "footer": true,
	"blockquote": true, "figure": true, "figcaption": true, "ul": true, "ol": true,
	"table": true, "tr": true, "hr": true, "main": true, "aside": true, "dl": true, "dd": true, "dt": true,
}

var skipElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "#comment": true, "head": true, "iframe": true,
}

type textBlock struct {
	text string
	pre  bool
}

type textWalker struct {
	blocks []textBlock
	cur    strings.Builder
}

// HTMLToText flattens an HTML fragment into paragraphs wrapped at width columns.
// Headings keep a "#" prefix and list items a "* " bullet; <pre> is kept verbatim.
func HTMLToText(fragment string, width int) (string, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("parse content html: %w", err)
	}

	tw := &textWalker{}
	tw.walk(doc.Find("body"))
	tw.flush()

	out := make([]string, 0, len(tw.blocks))
	for _, b := range tw.blocks {
		if b.pre {
			out = append(out, b.text)
			continue
		}
		out = append(out, wrap(b.text, width))
	}
	return strings.Join(out, "\n\n"), nil
}

func (tw *textWalker) walk(sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, s *goquery.Selection) {
		name := goquery.NodeName(s)
		switch {
		case name == "#text":
			tw.cur.WriteString(s.Text())
		case skipElements[name]:
		case name == "br":
			tw.cur.WriteString("\n")
		case name == "pre":
			tw.flush()
			if text := strings.Trim(s.Text(), "\n"); strings.TrimSpace(text) != "" {
				tw.blocks = append(tw.blocks, textBlock{text: text, pre: true})
			}
		case len(name) == 2 && name[0] == 'h' && name[1] >= '1' && name[1] <= '6':
			tw.flush()
			tw.cur.WriteString(strings.Repeat("#", int(name[1]-'0')) + " ")
			tw.walk(s)
			tw.flush()
		case name == "li":
			tw.flush()
			tw.cur.WriteString("* ")
			tw.walk(s)
			tw.flush()
		case name == "img":
			if alt, ok := s.Attr("alt"); ok && strings.TrimSpace(alt) != "" {
				fmt.Fprintf(&tw.cur, "[%s]", strings.TrimSpace(alt))
			}
		case blockElements[name]:
			tw.flush()
			tw.walk(s)
			tw.flush()
		default:
			tw.walk(s)
		}
	})
}

// flush closes the current paragraph, collapsing whitespace within each <br>-separated line.
func (tw *textWalker) flush() {
	raw := tw.cur.String()
	tw.cur.Reset()

	lines := strings.Split(raw, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			kept = append(kept, line)
		}
	}
	if len(kept) == 0 {
		return
	}
	// a lone bullet or heading marker carries no content
	if len(kept) == 1 && (kept[0] == "*" || strings.Trim(kept[0], "#") == "") {
		return
	}
	tw.blocks = append(tw.blocks, textBlock{text: strings.Join(kept, "\n")})
}

// wrap greedily breaks each line of text at width; words longer than width stay whole.
func wrap(text string, width int) string {
	var b strings.Builder
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			b.WriteString("\n")
		}
		col := 0
		for j, word := range strings.Fields(line) {
			n := len([]rune(word))
			switch {
			case j == 0:
			case col+1+n > width:
				b.WriteString("\n")
				col = 0
			default:
				b.WriteString(" ")
				col++
			}
			b.WriteString(word)
			col += n
		}
	}
	return b.String()
}

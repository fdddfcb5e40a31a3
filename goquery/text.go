package goquery

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Ruby glosses are rendered as base + rubyOpen + gloss + rubyClose.
const (
	rubyOpen  = "("
	rubyClose = ")"
)

// asciiSpace is trimmed from paragraph edges. Ideographic spaces are kept
// because they carry paragraph indentation.
const asciiSpace = " \t\r\n"

// sourceBreak matches a newline in source text together with the
// indentation around it.
var sourceBreak = regexp.MustCompile(`[ \t]*\r?\n[ \t\r]*`)

var asciiSpaceRun = regexp.MustCompile(`[ \t\r\n\f\v]+`)

// Text returns the text content of the selection.
// Ruby annotations are flattened to "base(gloss)", <br> becomes a newline,
// and script and style elements are skipped.
func Text(sel *goquery.Selection) string {
	return text(sel, false)
}

// text renders the selection. With dropNewlines set, newlines in source
// text are discarded so that only <br> elements break lines.
func text(sel *goquery.Selection, dropNewlines bool) string {
	w := &textWriter{dropNewlines: dropNewlines}
	for _, n := range sel.Nodes {
		w.writeNode(&w.b, n)
	}
	return w.b.String()
}

// Paragraphs splits a body element into paragraphs.
//
// In bodies with <p> elements each <p> is a paragraph, a <br> inside it
// starts a new one, and text between <p> elements forms paragraphs of its
// own. Bodies without <p> elements are split on <br>, or on source newlines
// when there is no <br> either. Blank paragraphs are kept as empty strings,
// but leading and trailing blank paragraphs are dropped.
func Paragraphs(sel *goquery.Selection) []string {
	if sel.Find("p").Length() == 0 {
		var lines []string
		hasBreaks := sel.Find("br").Length() > 0
		for _, line := range strings.Split(text(sel, hasBreaks), "\n") {
			lines = append(lines, strings.Trim(line, asciiSpace))
		}
		return trimBlank(lines)
	}

	pw := &paragraphWriter{loose: textWriter{dropNewlines: true}}
	for _, n := range sel.Nodes {
		pw.walk(n)
	}
	pw.flush()
	return trimBlank(pw.lines)
}

// paragraphWriter collects paragraphs from a body containing <p> elements.
// Inline content outside <p> is buffered in loose until the next block.
type paragraphWriter struct {
	lines []string
	loose textWriter
}

func (pw *paragraphWriter) walk(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type != html.ElementNode:
			pw.loose.writeNode(&pw.loose.b, c)
		case c.DataAtom == atom.P:
			pw.flush()
			w := &textWriter{dropNewlines: true}
			w.writeNode(&w.b, c)
			pw.add(w.b.String())
		case hasParagraph(c):
			pw.flush()
			pw.walk(c)
			pw.flush()
		case isBlock(c.DataAtom):
			pw.flush()
			pw.loose.writeNode(&pw.loose.b, c)
			pw.flush()
		default:
			pw.loose.writeNode(&pw.loose.b, c)
		}
	}
}

// flush turns buffered loose content into paragraphs. Whitespace-only
// content between blocks is discarded.
func (pw *paragraphWriter) flush() {
	s := pw.loose.b.String()
	pw.loose.b.Reset()
	if strings.Trim(s, asciiSpace) == "" {
		return
	}
	pw.add(s)
}

// add appends the lines of s. A trailing <br> ends the block rather than
// opening an empty line.
func (pw *paragraphWriter) add(s string) {
	s = strings.TrimSuffix(s, "\n")
	for _, line := range strings.Split(s, "\n") {
		pw.lines = append(pw.lines, strings.Trim(line, asciiSpace))
	}
}

func hasParagraph(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if c.DataAtom == atom.P || hasParagraph(c) {
			return true
		}
	}
	return false
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.Div, atom.Section, atom.Article, atom.Blockquote,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		return true
	}
	return false
}

type textWriter struct {
	b            strings.Builder
	dropNewlines bool
}

func (w *textWriter) writeNode(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		if w.dropNewlines {
			b.WriteString(sourceBreak.ReplaceAllString(n.Data, ""))
		} else {
			b.WriteString(n.Data)
		}
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Br:
			b.WriteByte('\n')
			return
		case atom.Script, atom.Style, atom.Rp, atom.Rt:
			return
		case atom.Ruby:
			w.writeRuby(b, n)
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.writeNode(b, c)
	}
}

// writeRuby pairs each <rt> with the base text preceding it, so
// <ruby>漢<rt>かん</rt>字<rt>じ</rt></ruby> becomes "漢(かん)字(じ)".
// When bases are marked up with <rb>, the bases and glosses are paired in
// order instead, so grouped <rb>漢</rb><rb>字</rb><rt>かん</rt><rt>じ</rt>
// gives the same result.
func (w *textWriter) writeRuby(b *strings.Builder, n *html.Node) {
	if hasChild(n, atom.Rb) {
		w.writeGroupedRuby(b, n)
		return
	}
	var base strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			w.writeNode(&base, c)
			continue
		}
		switch c.DataAtom {
		case atom.Rp:
		case atom.Rt:
			b.WriteString(base.String())
			base.Reset()
			writeGloss(b, w.children(c))
		default:
			w.writeNode(&base, c)
		}
	}
	b.WriteString(base.String())
}

func (w *textWriter) writeGroupedRuby(b *strings.Builder, n *html.Node) {
	var bases, glosses []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.Rb:
			bases = append(bases, w.children(c))
		case atom.Rt:
			glosses = append(glosses, w.children(c))
		}
	}
	for i, base := range bases {
		b.WriteString(base)
		if i < len(glosses) {
			writeGloss(b, glosses[i])
		}
	}
	for i := len(bases); i < len(glosses); i++ {
		writeGloss(b, glosses[i])
	}
}

// children renders the content of n without n itself.
func (w *textWriter) children(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.writeNode(&b, c)
	}
	return b.String()
}

func writeGloss(b *strings.Builder, gloss string) {
	if g := strings.TrimSpace(gloss); g != "" {
		b.WriteString(rubyOpen)
		b.WriteString(g)
		b.WriteString(rubyClose)
	}
}

func hasChild(n *html.Node, a atom.Atom) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			return true
		}
	}
	return false
}

func trimBlank(lines []string) []string {
	start, end := 0, len(lines)
	for start < end && lines[start] == "" {
		start++
	}
	for end > start && lines[end-1] == "" {
		end--
	}
	if start == end {
		return nil
	}
	return lines[start:end]
}

// cleanText collapses ASCII whitespace runs to one space and trims ASCII
// whitespace from the ends. Ideographic spaces are kept.
func cleanText(s string) string {
	return strings.Trim(asciiSpaceRun.ReplaceAllString(s, " "), asciiSpace)
}

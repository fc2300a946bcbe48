// Package htmlutil extracts readable text from incident reports that were
// scraped from web pages and still carry markup.
package htmlutil

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// LoadHTMLString parses an HTML string into a goquery Document.
func LoadHTMLString(htmlStr string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
}

var tagRe = regexp.MustCompile(`(?i)</?(p|div|br|span|table|tr|td|li|ul|ol|h[1-6]|html|body|font|strong|b)\b[^>]*>`)

// LooksLikeHTML reports whether s contains common HTML tags.
func LooksLikeHTML(s string) bool {
	return tagRe.MatchString(s)
}

// Text returns the visible text of an HTML fragment. Block elements become
// line breaks; script, style and noscript content is dropped.
// Plain text is returned unchanged.
func Text(s string) string {
	if !LooksLikeHTML(s) {
		return s
	}
	doc, err := LoadHTMLString(s)
	if err != nil {
		return s
	}
	doc.Find("script, style, noscript").Remove()

	var b strings.Builder
	for _, n := range doc.Nodes {
		walk(n, &b)
	}
	return collapseBlankLines(b.String())
}

func walk(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		if n.DataAtom == atom.Br {
			b.WriteByte('\n')
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, b)
	}
	if n.Type == html.ElementNode && isBlock(n.DataAtom) {
		b.WriteByte('\n')
	}
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Tr, atom.Li, atom.Table, atom.Ul, atom.Ol,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Section, atom.Article:
		return true
	}
	return false
}

var blankLinesRe = regexp.MustCompile(`\n[ \t\p{Zs}]*\n(?:[ \t\p{Zs}]*\n)*`)

func collapseBlankLines(s string) string {
	s = blankLinesRe.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}

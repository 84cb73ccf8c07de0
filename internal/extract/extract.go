// Package extract turns HTML documents into plain text pipeline input.
package extract

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// PlainText returns the text content of an HTML document. Script and style
// elements are skipped; text nodes are joined by single spaces.
func PlainText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var parts []string
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style) {
			return
		}
		if n.Type == html.TextNode {
			if text := strings.Join(strings.Fields(n.Data), " "); text != "" {
				parts = append(parts, text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extractText(c)
		}
	}
	extractText(doc)

	return strings.Join(parts, " "), nil
}

// PlainTextString is PlainText over a string. Input that fails to parse is
// returned unchanged.
func PlainTextString(s string) string {
	text, err := PlainText(strings.NewReader(s))
	if err != nil {
		return s
	}
	return text
}

package rendered

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// DefaultCellClass is the class of the text nodes holding report cells.
const DefaultCellClass = "cell-text"

// ExtractCellText parses an HTML (or inline SVG) document and returns the
// trimmed text of every element carrying class, in document order.
func ExtractCellText(r io.Reader, class string) ([]string, error) {
	if class == "" {
		class = DefaultCellClass
	}
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	var cells []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, class) {
			cells = append(cells, strings.TrimSpace(extractText(n)))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return cells, nil
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func extractText(n *html.Node) string {
	var b strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return b.String()
}

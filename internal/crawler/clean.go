package crawler

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// CleanHTML drops markup that never holds a selector target (scripts, styles,
// comments, hidden nodes) so more of the page fits in a prompt.
func CleanHTML(markup string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML with goquery: %w", err)
	}

	doc.Find("script, style, noscript, svg, link, meta").Remove()
	doc.Find("[hidden]").Remove()
	doc.Find("[style*='display:none'], [style*='display: none']").Remove()

	for _, root := range doc.Nodes {
		removeComments(root)
	}

	out, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("failed to render HTML: %w", err)
	}
	return out, nil
}

func removeComments(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.CommentNode {
			n.RemoveChild(c)
		} else {
			removeComments(c)
		}
		c = next
	}
}

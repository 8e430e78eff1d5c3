package parser

import (
	"fmt"
	"io"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Node is the query capability the extractor needs from a parsed document.
type Node interface {
	SelectOne(selector string) (Node, bool)
	SelectAll(selector string) []Node
	// Text returns the concatenated text of the node and its descendants.
	Text() string
	// TextNodes returns every descendant text node in document order.
	TextNodes() []string
	Attr(name string) (string, bool)
	HasClass(class string) bool
}

// NewDocument parses an HTML document into a Node.
func NewDocument(r io.Reader) (Node, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return FromSelection(doc.Selection), nil
}

// FromSelection wraps a goquery selection, e.g. a colly HTMLElement's DOM.
func FromSelection(sel *goquery.Selection) Node {
	return selectionNode{sel: sel}
}

type selectionNode struct {
	sel *goquery.Selection
}

func (n selectionNode) SelectOne(selector string) (Node, bool) {
	found := n.sel.Find(selector).First()
	if found.Length() == 0 {
		return nil, false
	}
	return selectionNode{sel: found}, true
}

func (n selectionNode) SelectAll(selector string) []Node {
	found := n.sel.Find(selector)
	nodes := make([]Node, 0, found.Length())
	found.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, selectionNode{sel: s})
	})
	return nodes
}

func (n selectionNode) Text() string {
	return n.sel.Text()
}

func (n selectionNode) TextNodes() []string {
	var out []string
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			out = append(out, node.Data)
			return
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	for _, node := range n.sel.Nodes {
		walk(node)
	}
	return out
}

func (n selectionNode) Attr(name string) (string, bool) {
	return n.sel.Attr(name)
}

func (n selectionNode) HasClass(class string) bool {
	return n.sel.HasClass(class)
}

// strippedText trims every text node under node and concatenates the
// non-empty ones with no separator, so "<a> A <b>B</b> </a>" gives "AB".
func strippedText(node Node) string {
	return JoinText(node.TextNodes(), "")
}

package vdom

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultMaxDepth is the element nesting limit used by a Parser unless
// WithMaxDepth says otherwise.
const DefaultMaxDepth = 512

// Parser converts HTML into Node trees. A Parser without WithIDGenerator
// holds no mutable state and may be shared between goroutines.
type Parser struct {
	maxDepth int
	ids      *IDGenerator
}

type ParserOption func(*Parser)

// WithMaxDepth limits element nesting. n <= 0 disables the check.
func WithMaxDepth(n int) ParserOption {
	return func(p *Parser) { p.maxDepth = n }
}

// WithIDGenerator makes the parser draw identities from gen without
// resetting it, so trees parsed one after another never reuse an identity.
func WithIDGenerator(gen *IDGenerator) ParserOption {
	return func(p *Parser) { p.ids = gen }
}

func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseHTML parses content with a default Parser.
func ParseHTML(content string) (*Node, error) {
	return NewParser().Parse(content)
}

// Parse converts an HTML fragment or document into a single root Node.
//
// The markup is parsed as a full document and the first element inside
// <body> becomes the root (or <body> itself when it holds no element).
// Every element receives an identity, stored in ID and in the IDAttr
// attribute. Comments and whitespace-only text are dropped. A non-empty
// KeyAttr attribute is copied into Key.
func (p *Parser) Parse(content string) (*Node, error) {
	if !utf8.ValidString(content) {
		return nil, &ParseError{Err: errors.New("input is not valid UTF-8")}
	}
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	ids := p.ids
	if ids == nil {
		ids = new(IDGenerator)
	}
	b := &builder{ids: ids, maxDepth: p.maxDepth}
	return b.convert(findRoot(doc), 1)
}

// findRoot returns the content element of a parsed document.
func findRoot(doc *html.Node) *html.Node {
	body := findElement(doc, atom.Body)
	if body == nil {
		if el := firstElementChild(doc); el != nil {
			return el
		}
		return &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	}
	if el := firstElementChild(body); el != nil {
		return el
	}
	return body
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if c.DataAtom == a {
			return c
		}
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func firstElementChild(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}

type builder struct {
	ids      *IDGenerator
	maxDepth int
}

func (b *builder) convert(n *html.Node, depth int) (*Node, error) {
	if b.maxDepth > 0 && depth > b.maxDepth {
		return nil, fmt.Errorf("%w: depth %d at <%s>", ErrDepthExceeded, depth, n.Data)
	}

	node := NewElement(n.Data)
	for _, a := range n.Attr {
		key := a.Key
		if a.Namespace != "" {
			key = a.Namespace + ":" + a.Key
		}
		node.Attrs[key] = a.Val
	}
	node.WithID(b.ids.Next())
	if k := node.Attrs[KeyAttr]; k != "" {
		node.Key = k
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			if strings.TrimSpace(c.Data) == "" {
				continue
			}
			node.Children = append(node.Children, NewText(c.Data))
		case html.ElementNode:
			child, err := b.convert(c, depth+1)
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, child)
		default:
			// Comments, doctypes and raw nodes carry no client-visible state.
		}
	}
	return node, nil
}

// RenderHTML converts a node tree back to a string. Attributes are written
// in sorted order.
func RenderHTML(n *Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, toHTML(n)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func toHTML(n *Node) *html.Node {
	if n.Kind() == TextNode {
		return &html.Node{Type: html.TextNode, Data: n.Text}
	}
	out := &html.Node{
		Type:     html.ElementNode,
		Data:     n.Tag,
		DataAtom: atom.Lookup([]byte(n.Tag)),
	}
	keys := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		out.Attr = append(out.Attr, html.Attribute{Key: k, Val: n.Attrs[k]})
	}
	for _, c := range n.Children {
		out.AppendChild(toHTML(c))
	}
	return out
}

// GetNode traverses the tree using the provided path to find a specific node.
func GetNode(root *Node, path NodePath) (*Node, error) {
	current := root
	for i, index := range path {
		if index < 0 || index >= len(current.Children) {
			return nil, fmt.Errorf("%w: path %v (failed at index %d, step %d)", ErrTargetNotFound, path, index, i)
		}
		current = current.Children[index]
	}
	return current, nil
}

// FindByID returns the first node in pre-order whose identity is id.
func FindByID(root *Node, id string) *Node {
	if root == nil || id == "" {
		return nil
	}
	if root.ID == id {
		return root
	}
	for _, c := range root.Children {
		if found := FindByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

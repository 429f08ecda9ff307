package vdom

// NodeKind distinguishes the two node variants.
type NodeKind int

const (
	ElementNode NodeKind = iota
	TextNode
)

// Node is one element or text run of a rendered tree.
//
// Text nodes have Tag == TextTag and only Text set. Elements own their
// Attrs and Children exclusively; a tree never shares nodes.
type Node struct {
	Tag      string
	Attrs    map[string]string
	Children []*Node
	Text     string
	Key      string // Author-supplied list identity (KeyAttr)
	ID       string // Parser-assigned identity (IDAttr)
}

// NewElement returns an element with no attributes or children.
func NewElement(tag string) *Node {
	return &Node{Tag: tag, Attrs: map[string]string{}}
}

// NewText returns a text node.
func NewText(text string) *Node {
	return &Node{Tag: TextTag, Text: text}
}

// Kind reports which variant n is.
func (n *Node) Kind() NodeKind {
	if n.Tag == TextTag {
		return TextNode
	}
	return ElementNode
}

// WithAttr sets an attribute and returns n.
func (n *Node) WithAttr(key, value string) *Node {
	n.setAttr(key, value)
	return n
}

// WithKey sets both the key and its carrier attribute and returns n.
func (n *Node) WithKey(key string) *Node {
	n.Key = key
	n.setAttr(KeyAttr, key)
	return n
}

// WithID sets the identity and returns n. Elements also get the carrier
// attribute, as the parser would write it.
func (n *Node) WithID(id string) *Node {
	n.ID = id
	if n.Kind() == ElementNode {
		n.setAttr(IDAttr, id)
	}
	return n
}

// WithChildren appends children and returns n.
func (n *Node) WithChildren(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

func (n *Node) setAttr(key, value string) {
	if n.Attrs == nil {
		n.Attrs = make(map[string]string)
	}
	n.Attrs[key] = value
	if key == KeyAttr {
		n.Key = value
	}
}

func (n *Node) removeAttr(key string) {
	delete(n.Attrs, key)
	if key == KeyAttr {
		n.Key = ""
	}
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{
		Tag:  n.Tag,
		Text: n.Text,
		Key:  n.Key,
		ID:   n.ID,
	}
	if n.Attrs != nil {
		out.Attrs = make(map[string]string, len(n.Attrs))
		for k, v := range n.Attrs {
			out.Attrs[k] = v
		}
	}
	if len(n.Children) > 0 {
		out.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = c.Clone()
		}
	}
	return out
}

// Equal reports whether a and b are structurally equal. Identities (the ID
// field and the IDAttr attribute) are ignored.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Tag != b.Tag || a.Text != b.Text || a.Key != b.Key {
		return false
	}
	if countUserAttrs(a) != countUserAttrs(b) {
		return false
	}
	for k, va := range a.Attrs {
		if k == IDAttr {
			continue
		}
		if vb, ok := b.Attrs[k]; !ok || va != vb {
			return false
		}
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

func countUserAttrs(n *Node) int {
	c := len(n.Attrs)
	if _, ok := n.Attrs[IDAttr]; ok {
		c--
	}
	return c
}

// CountNodes returns the number of nodes in the tree rooted at n.
func CountNodes(n *Node) int {
	if n == nil {
		return 0
	}
	total := 1
	for _, c := range n.Children {
		total += CountNodes(c)
	}
	return total
}

// CountAttrs returns the number of attributes in the tree rooted at n.
func CountAttrs(n *Node) int {
	if n == nil {
		return 0
	}
	total := len(n.Attrs)
	for _, c := range n.Children {
		total += CountAttrs(c)
	}
	return total
}

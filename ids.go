package vdom

import "sync/atomic"

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// EncodeID returns the base-62 form of n.
func EncodeID(n uint64) string {
	if n == 0 {
		return "0"
	}
	var buf [11]byte // 62^11 > 2^64
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = idAlphabet[n%62]
		n /= 62
	}
	return string(buf[i:])
}

// IDGenerator hands out compact identities. The zero value starts at "0".
// It is safe for concurrent use.
type IDGenerator struct {
	next atomic.Uint64
}

// Next returns the identity for the next counter value.
func (g *IDGenerator) Next() string {
	return EncodeID(g.next.Add(1) - 1)
}

// Reset restarts the counter at zero.
func (g *IDGenerator) Reset() {
	g.next.Store(0)
}

// AssignIDs gives every element under root (and every text node as well
// when includeText is set) a fresh identity from gen, in pre-order.
func AssignIDs(root *Node, gen *IDGenerator, includeText bool) {
	if root == nil {
		return
	}
	switch root.Kind() {
	case ElementNode:
		root.WithID(gen.Next())
	case TextNode:
		if includeText {
			root.ID = gen.Next()
		}
	}
	for _, c := range root.Children {
		AssignIDs(c, gen, includeText)
	}
}

package vdom

import (
	"strconv"
	"strings"
)

// Reserved names understood by the parser, the differ and the applier.
const (
	TextTag     = "#text"              // Tag of every text node
	IDAttr      = "data-dj-id"         // Identity carrier, written by the parser
	KeyAttr     = "data-key"           // Key carrier, supplied by template authors
	ReplaceAttr = "data-djust-replace" // Marks a container whose children are always re-created
)

// NodePath represents the traversal steps from the root to a target node.
// Example: [0, 1, 3] means root -> child[0] -> child[1] -> child[3]
type NodePath []int

// Child returns a new path pointing at the index-th child of p.
// The receiver is never aliased.
func (p NodePath) Child(index int) NodePath {
	child := make(NodePath, len(p), len(p)+1)
	copy(child, p)
	return append(child, index)
}

func (p NodePath) String() string {
	parts := make([]string, len(p))
	for i, idx := range p {
		parts[i] = strconv.Itoa(idx)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func (p NodePath) clone() NodePath {
	out := make(NodePath, len(p))
	copy(out, p)
	return out
}

type PatchType string

const (
	PatchReplace     PatchType = "Replace"     // Swap the whole subtree
	PatchSetText     PatchType = "SetText"     // Replace text content
	PatchSetAttr     PatchType = "SetAttr"     // Add or change an attribute
	PatchRemoveAttr  PatchType = "RemoveAttr"  // Remove an attribute
	PatchInsertChild PatchType = "InsertChild" // Insert a child at Index
	PatchRemoveChild PatchType = "RemoveChild" // Remove the child at Index
	PatchMoveChild   PatchType = "MoveChild"   // Relocate a child From -> To among its siblings
)

// Patch is one edit instruction produced by Diff.
//
// Path locates the addressed node from the root. For the child operations
// (InsertChild, RemoveChild, MoveChild) the addressed node is the parent.
// ID is the identity of the old node being addressed and is the primary
// locator on the client; it is empty for text nodes.
//
// Only the fields of the variant named by Type are meaningful.
type Patch struct {
	Type PatchType
	Path NodePath
	ID   string

	Node  *Node  // Replace, InsertChild
	Text  string // SetText
	Key   string // SetAttr, RemoveAttr
	Value string // SetAttr
	Index int    // InsertChild, RemoveChild
	From  int    // MoveChild (index in the old child list)
	To    int    // MoveChild (index in the new child list)
}

// isChildOp reports whether p edits the child list of the node at p.Path.
func (p Patch) isChildOp() bool {
	switch p.Type {
	case PatchInsertChild, PatchRemoveChild, PatchMoveChild:
		return true
	}
	return false
}

package vdom

import (
	"slices"
)

// Diff calculates the patches needed to transform oldNode into newNode.
//
// Patches target the old node's identity because that is what exists in
// the client document; the new tree may have been parsed with a reset
// counter and carry unrelated identities.
//
// The identity and key carriers (IDAttr, KeyAttr) never produce attribute
// patches. Two paired nodes whose keys differ are replaced as a whole, the
// same as a tag change, so a changed key never shows up as a SetAttr.
//
// For every parent, the child list edits (removals, moves, insertions) come
// before any patch addressed below that parent, and the patches below it use
// positions in the new child list.
func Diff(oldNode, newNode *Node) []Patch {
	return DiffAt(oldNode, newNode, nil)
}

// DiffAt is Diff for a pair of subtrees located at path. Nil trees produce
// no patches.
func DiffAt(oldNode, newNode *Node, path NodePath) []Patch {
	if oldNode == nil || newNode == nil {
		return nil
	}
	return diffNodes(oldNode, newNode, path.clone())
}

// diffNodes compares two nodes that occupy the same position.
func diffNodes(oldNode, newNode *Node, path NodePath) []Patch {
	// A tag or key change means the nodes do not correspond; nothing below
	// them is compared.
	if oldNode.Tag != newNode.Tag || !sameKey(oldNode, newNode) {
		return []Patch{{
			Type: PatchReplace,
			Path: path,
			ID:   oldNode.ID,
			Node: newNode.Clone(),
		}}
	}

	switch oldNode.Kind() {
	case TextNode:
		if oldNode.Text != newNode.Text {
			// Text nodes are addressed by path only.
			return []Patch{{
				Type: PatchSetText,
				Path: path,
				Text: newNode.Text,
			}}
		}
		return nil
	case ElementNode:
		ops := diffAttributes(oldNode, newNode, path)
		return append(ops, diffChildren(oldNode, newNode, path)...)
	}
	return nil
}

func sameKey(a, b *Node) bool {
	if a.Key != b.Key {
		return false
	}
	va, okA := a.Attrs[KeyAttr]
	vb, okB := b.Attrs[KeyAttr]
	return okA == okB && va == vb
}

// bookkeepingAttr reports attributes that never produce patches.
func bookkeepingAttr(key string) bool {
	return key == IDAttr || key == KeyAttr
}

func diffAttributes(oldNode, newNode *Node, path NodePath) []Patch {
	var ops []Patch

	for _, k := range sortedKeys(oldNode.Attrs) {
		if bookkeepingAttr(k) {
			continue
		}
		vNew, exists := newNode.Attrs[k]
		switch {
		case !exists:
			ops = append(ops, Patch{
				Type: PatchRemoveAttr,
				Path: path.clone(),
				ID:   oldNode.ID,
				Key:  k,
			})
		case vNew != oldNode.Attrs[k]:
			ops = append(ops, Patch{
				Type:  PatchSetAttr,
				Path:  path.clone(),
				ID:    oldNode.ID,
				Key:   k,
				Value: vNew,
			})
		}
	}

	for _, k := range sortedKeys(newNode.Attrs) {
		if bookkeepingAttr(k) {
			continue
		}
		if _, exists := oldNode.Attrs[k]; !exists {
			ops = append(ops, Patch{
				Type:  PatchSetAttr,
				Path:  path.clone(),
				ID:    oldNode.ID,
				Key:   k,
				Value: newNode.Attrs[k],
			})
		}
	}

	return ops
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// diffChildren picks a reconciliation mode for the two child lists.
// Child operations carry the parent's identity.
func diffChildren(oldNode, newNode *Node, path NodePath) []Patch {
	parentID := oldNode.ID

	if hasAttr(oldNode, ReplaceAttr) || hasAttr(newNode, ReplaceAttr) {
		return replaceChildren(oldNode.Children, newNode.Children, path, parentID)
	}
	if slices.ContainsFunc(newNode.Children, func(c *Node) bool { return c.Key != "" }) {
		return diffKeyedChildren(oldNode.Children, newNode.Children, path, parentID)
	}
	return diffIndexedChildren(oldNode.Children, newNode.Children, path, parentID)
}

func hasAttr(n *Node, key string) bool {
	_, ok := n.Attrs[key]
	return ok
}

// replaceChildren drops every old child and inserts every new one, unless
// the two lists are already equal.
func replaceChildren(oldChildren, newChildren []*Node, path NodePath, parentID string) []Patch {
	if slices.EqualFunc(oldChildren, newChildren, Equal) {
		return nil
	}
	ops := make([]Patch, 0, len(oldChildren)+len(newChildren))
	for i := len(oldChildren) - 1; i >= 0; i-- {
		ops = append(ops, removeChild(path, parentID, i))
	}
	for i, c := range newChildren {
		ops = append(ops, insertChild(path, parentID, i, c))
	}
	return ops
}

// diffIndexedChildren pairs children by position. Tail deletions are
// emitted from the end so earlier indices stay valid; the pairs in the
// common prefix keep their indices either way.
func diffIndexedChildren(oldChildren, newChildren []*Node, path NodePath, parentID string) []Patch {
	var ops []Patch

	commonLen := min(len(oldChildren), len(newChildren))
	for i := len(oldChildren) - 1; i >= commonLen; i-- {
		ops = append(ops, removeChild(path, parentID, i))
	}
	for i := commonLen; i < len(newChildren); i++ {
		ops = append(ops, insertChild(path, parentID, i, newChildren[i]))
	}
	for i := 0; i < commonLen; i++ {
		ops = append(ops, diffNodes(oldChildren[i], newChildren[i], path.Child(i))...)
	}
	return ops
}

// childMatch pairs an old child with the new child it becomes.
type childMatch struct {
	oldIdx, newIdx int
	keyed          bool
}

// diffKeyedChildren reconciles lists where at least one new child has a key.
//
// Keyed children are matched by key; only the first occurrence of a key in
// either list counts, later duplicates are reconciled as unkeyed. An
// unkeyed new child at index i is matched with the old child at index i
// when that one is unkeyed too. Everything unmatched is removed or
// inserted. Matched keyed children that keep their relative order stay in
// place and the rest are moved.
func diffKeyedChildren(oldChildren, newChildren []*Node, path NodePath, parentID string) []Patch {
	oldKeys := firstKeys(oldChildren)
	newKeys := firstKeys(newChildren)

	oldMatched := make([]bool, len(oldChildren))
	matchOf := make([]int, len(newChildren)) // index into matches, -1 when inserted
	var matches []childMatch

	for ni, c := range newChildren {
		matchOf[ni] = -1
		if isKeyed(newKeys, newChildren, ni) {
			if oi, ok := oldKeys[c.Key]; ok {
				oldMatched[oi] = true
				matchOf[ni] = len(matches)
				matches = append(matches, childMatch{oldIdx: oi, newIdx: ni, keyed: true})
			}
			continue
		}
		if ni < len(oldChildren) && !isKeyed(oldKeys, oldChildren, ni) && !oldMatched[ni] {
			oldMatched[ni] = true
			matchOf[ni] = len(matches)
			matches = append(matches, childMatch{oldIdx: ni, newIdx: ni})
		}
	}

	var ops []Patch
	for oi := len(oldChildren) - 1; oi >= 0; oi-- {
		if !oldMatched[oi] {
			ops = append(ops, removeChild(path, parentID, oi))
		}
	}

	stable := stableMatches(matches)
	for ni := range newChildren {
		if mi := matchOf[ni]; mi >= 0 && !stable[mi] {
			ops = append(ops, Patch{
				Type: PatchMoveChild,
				Path: path.clone(),
				ID:   parentID,
				From: matches[mi].oldIdx,
				To:   ni,
			})
		}
	}
	for ni, c := range newChildren {
		if matchOf[ni] < 0 {
			ops = append(ops, insertChild(path, parentID, ni, c))
		}
	}
	// Matched children, moved or not, can also have changed internally.
	for ni, c := range newChildren {
		if mi := matchOf[ni]; mi >= 0 {
			ops = append(ops, diffNodes(oldChildren[matches[mi].oldIdx], c, path.Child(ni))...)
		}
	}
	return ops
}

// firstKeys maps every key to the index of its first occurrence.
func firstKeys(children []*Node) map[string]int {
	keys := make(map[string]int)
	for i, c := range children {
		if c.Key == "" {
			continue
		}
		if _, dup := keys[c.Key]; !dup {
			keys[c.Key] = i
		}
	}
	return keys
}

func isKeyed(keys map[string]int, children []*Node, i int) bool {
	k := children[i].Key
	if k == "" {
		return false
	}
	return keys[k] == i
}

// stableMatches decides which matched children keep their place. Unkeyed
// matches never move. Among keyed matches that keep their order relative to
// every unkeyed match, a longest run of increasing old indices stays put.
func stableMatches(matches []childMatch) []bool {
	stable := make([]bool, len(matches))

	var unkeyed []childMatch
	for i, m := range matches {
		if !m.keyed {
			stable[i] = true
			unkeyed = append(unkeyed, m)
		}
	}

	var candidates, oldIdx []int
	for i, m := range matches {
		if !m.keyed || crosses(m, unkeyed) {
			continue
		}
		candidates = append(candidates, i)
		oldIdx = append(oldIdx, m.oldIdx)
	}
	for _, pos := range longestIncreasing(oldIdx) {
		stable[candidates[pos]] = true
	}
	return stable
}

// crosses reports whether m changes order relative to any of the fixed
// matches.
func crosses(m childMatch, fixed []childMatch) bool {
	for _, f := range fixed {
		if (m.newIdx < f.newIdx) != (m.oldIdx < f.oldIdx) {
			return true
		}
	}
	return false
}

// longestIncreasing returns the positions of one longest strictly
// increasing subsequence of vals.
func longestIncreasing(vals []int) []int {
	if len(vals) == 0 {
		return nil
	}
	var tails []int // tails[k]: position ending the best run of length k+1
	prev := make([]int, len(vals))
	for i, v := range vals {
		lo, hi := 0, len(tails)
		for lo < hi {
			mid := (lo + hi) / 2
			if vals[tails[mid]] < v {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		prev[i] = -1
		if lo > 0 {
			prev[i] = tails[lo-1]
		}
		if lo == len(tails) {
			tails = append(tails, i)
		} else {
			tails[lo] = i
		}
	}

	out := make([]int, len(tails))
	for i, k := len(tails)-1, tails[len(tails)-1]; i >= 0; i-- {
		out[i] = k
		k = prev[k]
	}
	return out
}

func removeChild(path NodePath, parentID string, index int) Patch {
	return Patch{
		Type:  PatchRemoveChild,
		Path:  path.clone(),
		ID:    parentID,
		Index: index,
	}
}

func insertChild(path NodePath, parentID string, index int, n *Node) Patch {
	return Patch{
		Type:  PatchInsertChild,
		Path:  path.clone(),
		ID:    parentID,
		Index: index,
		Node:  n.Clone(),
	}
}

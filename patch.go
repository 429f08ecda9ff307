package vdom

import (
	"cmp"
	"fmt"
	"slices"
)

// Apply replays patches against root in the given order, mutating it in
// place. A run of consecutive child operations addressed at one parent is
// applied as one batch against that parent's child list as it was before
// the run, the way Diff emits them: removals, then moves, then insertions.
func Apply(root *Node, patches []Patch) {
	(&Applier{}).Apply(root, patches)
}

// ApplyAll replays a patch list produced by Diff so that root becomes
// structurally equal to the new tree. Patches are grouped by path depth and
// shallower levels are applied first.
func ApplyAll(root *Node, patches []Patch) {
	(&Applier{}).ApplyAll(root, patches)
}

// Applier applies patches. A patch whose target cannot be resolved is
// skipped; OnSkip, when set, is told about it. The zero value is ready to
// use.
type Applier struct {
	OnSkip func(p Patch, err error)
}

func (a *Applier) skip(p Patch, err error) {
	if a.OnSkip != nil {
		a.OnSkip(p, err)
	}
}

// Apply is the method form of the package-level Apply.
func (a *Applier) Apply(root *Node, patches []Patch) {
	if root == nil {
		return
	}

	for i := 0; i < len(patches); {
		p := patches[i]
		if !p.isChildOp() {
			if err := applyPatch(root, p); err != nil {
				a.skip(p, err)
			}
			i++
			continue
		}

		b := &childBatch{path: p.Path, id: p.ID}
		k := p.Path.String()
		for ; i < len(patches) && patches[i].isChildOp() && patches[i].Path.String() == k; i++ {
			b.add(patches[i])
		}
		if a.prepare(root, b) {
			a.removeChildren(b)
			a.moveChildren(b)
			a.insertChildren(b)
		}
	}
}

// ApplyAll is the method form of the package-level ApplyAll.
func (a *Applier) ApplyAll(root *Node, patches []Patch) {
	if root == nil {
		return
	}

	levels := make(map[int][]Patch)
	for _, p := range patches {
		levels[len(p.Path)] = append(levels[len(p.Path)], p)
	}
	depths := make([]int, 0, len(levels))
	for d := range levels {
		depths = append(depths, d)
	}
	slices.Sort(depths)

	for _, d := range depths {
		a.applyLevel(root, levels[d])
	}
}

// childBatch collects the child operations addressed at one parent.
type childBatch struct {
	path     NodePath
	id       string
	parent   *Node
	snapshot []*Node
	removes  []Patch
	moves    []Patch
	inserts  []Patch
}

// applyLevel applies the patches whose paths share one depth: removals,
// then moves, then insertions, then everything else. Child operations at
// this depth only edit child lists of nodes at this depth, so the node
// operations that follow still find their targets by path.
func (a *Applier) applyLevel(root *Node, level []Patch) {
	var (
		batches  []*childBatch
		byParent = make(map[string]*childBatch)
		rest     []Patch
	)
	for _, p := range level {
		if !p.isChildOp() {
			rest = append(rest, p)
			continue
		}
		k := p.Path.String()
		b := byParent[k]
		if b == nil {
			b = &childBatch{path: p.Path, id: p.ID}
			byParent[k] = b
			batches = append(batches, b)
		}
		b.add(p)
	}

	live := make([]*childBatch, 0, len(batches))
	for _, b := range batches {
		if a.prepare(root, b) {
			live = append(live, b)
		}
	}

	for _, b := range live {
		a.removeChildren(b)
	}
	for _, b := range live {
		a.moveChildren(b)
	}
	for _, b := range live {
		a.insertChildren(b)
	}
	for _, p := range rest {
		if err := applyPatch(root, p); err != nil {
			a.skip(p, err)
		}
	}
}

func (b *childBatch) add(p Patch) {
	switch p.Type {
	case PatchRemoveChild:
		b.removes = append(b.removes, p)
	case PatchMoveChild:
		b.moves = append(b.moves, p)
	case PatchInsertChild:
		b.inserts = append(b.inserts, p)
	}
}

// prepare resolves the batch's parent and snapshots its child list. When the
// parent is gone every patch of the batch is skipped.
func (a *Applier) prepare(root *Node, b *childBatch) bool {
	b.parent = resolve(root, b.path, b.id)
	if b.parent == nil {
		err := fmt.Errorf("%w: parent %v", ErrTargetNotFound, b.path)
		for _, group := range [][]Patch{b.removes, b.moves, b.inserts} {
			for _, p := range group {
				a.skip(p, err)
			}
		}
		return false
	}
	b.snapshot = slices.Clone(b.parent.Children)
	return true
}

// removeChildren removes by descending index so no removal shifts another.
func (a *Applier) removeChildren(b *childBatch) {
	slices.SortStableFunc(b.removes, func(x, y Patch) int { return cmp.Compare(y.Index, x.Index) })
	last := -1
	for _, p := range b.removes {
		if p.Index == last {
			continue
		}
		last = p.Index
		if p.Index < 0 || p.Index >= len(b.parent.Children) {
			a.skip(p, fmt.Errorf("%w: child %d under %v", ErrTargetNotFound, p.Index, b.path))
			continue
		}
		b.parent.Children = slices.Delete(b.parent.Children, p.Index, p.Index+1)
	}
}

// moveChildren relocates children by the identity they had at their
// original index, the way a client resolves moves against its live
// document. All sources are detached first and then placed in ascending
// target order; a target counts the final list, so the inserts still to
// come below it are discounted.
func (a *Applier) moveChildren(b *childBatch) {
	type detached struct {
		node *Node
		to   int
	}
	var moving []detached
	for _, p := range b.moves {
		if p.From < 0 || p.From >= len(b.snapshot) {
			a.skip(p, fmt.Errorf("%w: move source %d under %v", ErrTargetNotFound, p.From, b.path))
			continue
		}
		pos := locateChild(b.parent.Children, b.snapshot[p.From])
		if pos < 0 {
			a.skip(p, fmt.Errorf("%w: move source %d under %v", ErrTargetNotFound, p.From, b.path))
			continue
		}
		moving = append(moving, detached{node: b.parent.Children[pos], to: p.To})
		b.parent.Children = slices.Delete(b.parent.Children, pos, pos+1)
	}

	slices.SortStableFunc(moving, func(x, y detached) int { return cmp.Compare(x.to, y.to) })
	for _, m := range moving {
		to := m.to
		for _, ins := range b.inserts {
			if ins.Index < m.to {
				to--
			}
		}
		to = min(max(to, 0), len(b.parent.Children))
		b.parent.Children = slices.Insert(b.parent.Children, to, m.node)
	}
}

func (a *Applier) insertChildren(b *childBatch) {
	slices.SortStableFunc(b.inserts, func(x, y Patch) int { return cmp.Compare(x.Index, y.Index) })
	for _, p := range b.inserts {
		if p.Node == nil || p.Index < 0 || p.Index > len(b.parent.Children) {
			a.skip(p, fmt.Errorf("%w: insert position %d under %v", ErrTargetNotFound, p.Index, b.path))
			continue
		}
		b.parent.Children = slices.Insert(b.parent.Children, p.Index, p.Node.Clone())
	}
}

// locateChild finds want among children, by identity when it has one.
func locateChild(children []*Node, want *Node) int {
	if want.ID != "" {
		return slices.IndexFunc(children, func(c *Node) bool { return c.ID == want.ID })
	}
	return slices.Index(children, want)
}

// resolve finds the node a patch addresses. The path is tried first; when it
// does not resolve, or lands on a node with a different identity, the tree
// is searched for the identity instead.
func resolve(root *Node, path NodePath, id string) *Node {
	node, err := GetNode(root, path)
	if err == nil && (id == "" || node.ID == "" || node.ID == id) {
		return node
	}
	return FindByID(root, id)
}

// applyPatch applies a single node patch. Child operations always go
// through a childBatch.
func applyPatch(root *Node, p Patch) error {
	target := resolve(root, p.Path, p.ID)
	if target == nil {
		return fmt.Errorf("%w: %s at %v", ErrTargetNotFound, p.Type, p.Path)
	}

	switch p.Type {
	case PatchReplace:
		if p.Node == nil {
			return fmt.Errorf("%w: replace without node", ErrInvalidPatch)
		}
		*target = *p.Node.Clone()

	case PatchSetText:
		if target.Kind() != TextNode {
			return fmt.Errorf("%w: SetText target at %v is not a text node", ErrTargetNotFound, p.Path)
		}
		target.Text = p.Text

	case PatchSetAttr:
		if target.Kind() != ElementNode {
			return fmt.Errorf("%w: SetAttr target at %v is not an element", ErrTargetNotFound, p.Path)
		}
		target.setAttr(p.Key, p.Value)

	case PatchRemoveAttr:
		if target.Kind() != ElementNode {
			return fmt.Errorf("%w: RemoveAttr target at %v is not an element", ErrTargetNotFound, p.Path)
		}
		target.removeAttr(p.Key)

	default:
		return fmt.Errorf("%w: unknown patch type %q", ErrInvalidPatch, p.Type)
	}
	return nil
}

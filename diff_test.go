package vdom

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t testing.TB, markup string) *Node {
	t.Helper()
	n, err := ParseHTML(markup)
	if err != nil {
		t.Fatalf("Failed to parse %q: %v", markup, err)
	}
	return n
}

func patchTypes(patches []Patch) []PatchType {
	out := make([]PatchType, len(patches))
	for i, p := range patches {
		out[i] = p.Type
	}
	return out
}

func li(key, text string) *Node {
	n := NewElement("li").WithChildren(NewText(text))
	if key != "" {
		n.WithKey(key)
	}
	return n
}

// patchOpts compares patch lists without caring how an empty path or an
// inserted subtree is represented.
var patchOpts = []cmp.Option{
	cmpopts.EquateEmpty(),
	cmpopts.IgnoreFields(Patch{}, "Node"),
}

func TestDiffIdentical(t *testing.T) {
	markup := `<div class="a"><ul><li data-key="x">X</li><li data-key="y">Y</li></ul><p>text</p></div>`
	patches := Diff(mustParse(t, markup), mustParse(t, markup))
	if len(patches) != 0 {
		t.Errorf("Expected no patches, got %v", patches)
	}
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name    string
		oldHTML string
		newHTML string
		want    []Patch
	}{
		{
			name:    "Text change",
			oldHTML: "<p>Hello</p>",
			newHTML: "<p>Hello World</p>",
			want:    []Patch{{Type: PatchSetText, Path: NodePath{0}, Text: "Hello World"}},
		},
		{
			name:    "Attribute change",
			oldHTML: `<div class="a"></div>`,
			newHTML: `<div class="b"></div>`,
			want:    []Patch{{Type: PatchSetAttr, Path: NodePath{}, ID: "0", Key: "class", Value: "b"}},
		},
		{
			name:    "Attribute removal",
			oldHTML: `<div class="a"></div>`,
			newHTML: `<div></div>`,
			want:    []Patch{{Type: PatchRemoveAttr, ID: "0", Key: "class"}},
		},
		{
			name:    "Attribute set and remove in key order",
			oldHTML: `<div class="a" title="t"></div>`,
			newHTML: `<div class="b" id="m"></div>`,
			want: []Patch{
				{Type: PatchSetAttr, ID: "0", Key: "class", Value: "b"},
				{Type: PatchRemoveAttr, ID: "0", Key: "title"},
				{Type: PatchSetAttr, ID: "0", Key: "id", Value: "m"},
			},
		},
		{
			name:    "Tag change replaces old node",
			oldHTML: "<div><p>x</p></div>",
			newHTML: "<div><span>x</span></div>",
			want:    []Patch{{Type: PatchReplace, Path: NodePath{0}, ID: "1"}},
		},
		{
			name:    "Losing a key replaces the node",
			oldHTML: `<div><p data-key="a">x</p></div>`,
			newHTML: `<div><p>x</p></div>`,
			want:    []Patch{{Type: PatchReplace, Path: NodePath{0}, ID: "1"}},
		},
		{
			name:    "Shrink removes from the end",
			oldHTML: "<ul><li>1</li><li>2</li><li>3</li></ul>",
			newHTML: "<ul><li>1</li></ul>",
			want: []Patch{
				{Type: PatchRemoveChild, ID: "0", Index: 2},
				{Type: PatchRemoveChild, ID: "0", Index: 1},
			},
		},
		{
			name:    "Grow appends",
			oldHTML: "<ul><li>1</li></ul>",
			newHTML: "<ul><li>1</li><li>2</li><li>3</li></ul>",
			want: []Patch{
				{Type: PatchInsertChild, ID: "0", Index: 1},
				{Type: PatchInsertChild, ID: "0", Index: 2},
			},
		},
		{
			name:    "Keyed swap is one move",
			oldHTML: `<ul><li data-key="a">A</li><li data-key="b">B</li></ul>`,
			newHTML: `<ul><li data-key="b">B</li><li data-key="a">A</li></ul>`,
			want:    []Patch{{Type: PatchMoveChild, ID: "0", From: 1, To: 0}},
		},
		{
			name:    "Keyed move carries content changes",
			oldHTML: `<ul><li data-key="a">A</li><li data-key="b">B</li></ul>`,
			newHTML: `<ul><li data-key="b">B2</li><li data-key="a">A</li></ul>`,
			want: []Patch{
				{Type: PatchMoveChild, ID: "0", From: 1, To: 0},
				{Type: PatchSetText, Path: NodePath{0, 0}, Text: "B2"},
			},
		},
		{
			name:    "Keyed insert and remove",
			oldHTML: `<ul><li data-key="a">A</li><li data-key="b">B</li><li data-key="c">C</li></ul>`,
			newHTML: `<ul><li data-key="a">A</li><li data-key="c">C</li><li data-key="d">D</li></ul>`,
			want: []Patch{
				{Type: PatchRemoveChild, ID: "0", Index: 1},
				{Type: PatchInsertChild, ID: "0", Index: 2},
			},
		},
		{
			name:    "Changed key inside a keyed list",
			oldHTML: `<ul><li data-key="a">A</li></ul>`,
			newHTML: `<ul><li data-key="b">A</li></ul>`,
			want: []Patch{
				{Type: PatchRemoveChild, ID: "0", Index: 0},
				{Type: PatchInsertChild, ID: "0", Index: 0},
			},
		},
		{
			name:    "Child list edits precede edits below them",
			oldHTML: `<ul><li data-key="a">A</li><span>s</span><li data-key="c">C</li></ul>`,
			newHTML: `<ul><li data-key="x">X</li><p>s</p><b data-key="a">A</b><li data-key="y">Y</li></ul>`,
			want: []Patch{
				{Type: PatchRemoveChild, ID: "0", Index: 2},
				{Type: PatchMoveChild, ID: "0", From: 0, To: 2},
				{Type: PatchInsertChild, ID: "0", Index: 0},
				{Type: PatchInsertChild, ID: "0", Index: 3},
				{Type: PatchReplace, Path: NodePath{1}, ID: "2"},
				{Type: PatchReplace, Path: NodePath{2}, ID: "1"},
			},
		},
		{
			name:    "Indexed tail edits precede edits below them",
			oldHTML: "<div><p>a</p><p>b</p></div>",
			newHTML: "<div><p>A</p></div>",
			want: []Patch{
				{Type: PatchRemoveChild, ID: "0", Index: 1},
				{Type: PatchSetText, Path: NodePath{0, 0}, Text: "A"},
			},
		},
		{
			name:    "Paths ignore formatting whitespace",
			oldHTML: "<form>\n  <div class=\"mb-3\">\n    <label>User</label>\n  </div>\n  <div class=\"d-grid\">\n    <button>Submit</button>\n  </div>\n</form>",
			newHTML: "<form>\n  <div class=\"mb-3\">\n    <label>User</label>\n  </div>\n  <div class=\"d-grid\">\n    <button>Send</button>\n  </div>\n</form>",
			want:    []Patch{{Type: PatchSetText, Path: NodePath{1, 0, 0}, Text: "Send"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldTree := mustParse(t, tt.oldHTML)
			newTree := mustParse(t, tt.newHTML)

			got := Diff(oldTree, newTree)
			if d := cmp.Diff(tt.want, got, patchOpts...); d != "" {
				t.Errorf("Diff() mismatch (-want +got):\n%s", d)
			}

			grouped, sequential := oldTree.Clone(), oldTree.Clone()
			ApplyAll(grouped, got)
			Apply(sequential, got)
			if !Equal(grouped, newTree) {
				t.Errorf("ApplyAll result does not match the new tree")
			}
			if !Equal(sequential, newTree) {
				t.Errorf("Apply result does not match the new tree")
			}
		})
	}
}

func TestDiffReplaceMarker(t *testing.T) {
	oldTree := mustParse(t, `<div data-djust-replace><p>1</p><p>2</p><p>3</p></div>`)
	newTree := mustParse(t, `<div data-djust-replace><p>a</p><p>b</p></div>`)

	patches := Diff(oldTree, newTree)
	assert.Equal(t, []PatchType{
		PatchRemoveChild, PatchRemoveChild, PatchRemoveChild,
		PatchInsertChild, PatchInsertChild,
	}, patchTypes(patches))
	assert.Equal(t, 2, patches[0].Index)
	assert.Equal(t, 0, patches[2].Index)
	assert.Equal(t, 0, patches[3].Index)
	assert.Equal(t, "a", patches[3].Node.Children[0].Text)

	// The marker on either side is enough.
	added := Diff(mustParse(t, `<div><p>1</p></div>`), mustParse(t, `<div data-djust-replace=""><p>2</p></div>`))
	assert.Equal(t, []PatchType{PatchSetAttr, PatchRemoveChild, PatchInsertChild}, patchTypes(added))
	assert.Equal(t, ReplaceAttr, added[0].Key)
}

func TestDiffReplaceMarkerUnchanged(t *testing.T) {
	markup := `<section><ul data-djust-replace><li>1</li><li data-key="k">2</li><li>3</li></ul></section>`
	oldTree := mustParse(t, markup)

	assert.Empty(t, Diff(oldTree, oldTree.Clone()))
	assert.Empty(t, Diff(oldTree, mustParse(t, markup)))

	// Only the marker changes hands; the children are equal and stay.
	moved := Diff(mustParse(t, `<div data-djust-replace><p>1</p></div>`), mustParse(t, `<div><p>1</p></div>`))
	if d := cmp.Diff([]Patch{{Type: PatchRemoveAttr, ID: "0", Key: ReplaceAttr}}, moved, patchOpts...); d != "" {
		t.Errorf("Diff() mismatch (-want +got):\n%s", d)
	}
}

func TestDiffRootReplace(t *testing.T) {
	oldTree := NewElement("div").WithID("a").WithChildren(NewText("x"))
	newTree := NewElement("span").WithID("q").WithChildren(NewText("x"))

	patches := Diff(oldTree, newTree)
	require.Len(t, patches, 1)
	assert.Equal(t, PatchReplace, patches[0].Type)
	assert.Equal(t, "a", patches[0].ID)
	assert.Empty(t, patches[0].Path)
	assert.True(t, Equal(newTree, patches[0].Node))

	rekeyed := Diff(NewElement("div").WithKey("a"), NewElement("div").WithKey("b"))
	assert.Equal(t, []PatchType{PatchReplace}, patchTypes(rekeyed))
}

func TestDiffIgnoresIdentity(t *testing.T) {
	oldTree := NewElement("div").WithID("x").WithChildren(NewElement("p").WithID("y"))
	newTree := NewElement("div").WithID("7").WithChildren(NewElement("p").WithID("8"))

	assert.Empty(t, Diff(oldTree, newTree))
}

func TestDiffDuplicateKeys(t *testing.T) {
	// Only the first "a" is keyed; the later ones reconcile by position.
	oldTree := NewElement("ul").WithChildren(li("a", "1"), li("a", "2"), li("b", "3"))
	newTree := NewElement("ul").WithChildren(li("b", "3"), li("a", "1"), li("a", "4"))

	patches := Diff(oldTree, newTree)
	want := []Patch{
		{Type: PatchRemoveChild, Index: 1},
		{Type: PatchMoveChild, From: 2, To: 0},
		{Type: PatchInsertChild, Index: 2},
	}
	if d := cmp.Diff(want, patches, patchOpts...); d != "" {
		t.Errorf("Diff() mismatch (-want +got):\n%s", d)
	}

	ApplyAll(oldTree, patches)
	assert.True(t, Equal(oldTree, newTree))
}

func TestDiffMixedKeyedAndUnkeyed(t *testing.T) {
	oldTree := NewElement("ul").WithChildren(NewElement("p").WithChildren(NewText("head")), li("a", "A"), li("b", "B"))
	newTree := NewElement("ul").WithChildren(NewElement("p").WithChildren(NewText("head")), li("b", "B"), li("a", "A"), NewText("tail"))

	patches := Diff(oldTree, newTree)
	want := []Patch{
		{Type: PatchMoveChild, From: 2, To: 1},
		{Type: PatchInsertChild, Index: 3},
	}
	if d := cmp.Diff(want, patches, patchOpts...); d != "" {
		t.Errorf("Diff() mismatch (-want +got):\n%s", d)
	}

	ApplyAll(oldTree, patches)
	assert.True(t, Equal(oldTree, newTree))
}

func TestDiffKeyedAcrossUnkeyed(t *testing.T) {
	// An unkeyed child pinned between two keyed ones forces both to move.
	oldTree := NewElement("ul").WithChildren(li("a", "A"), NewText("sep"), li("b", "B"))
	newTree := NewElement("ul").WithChildren(li("b", "B"), NewText("sep"), li("a", "A"))

	patches := Diff(oldTree, newTree)
	want := []Patch{
		{Type: PatchMoveChild, From: 2, To: 0},
		{Type: PatchMoveChild, From: 0, To: 2},
	}
	if d := cmp.Diff(want, patches, patchOpts...); d != "" {
		t.Errorf("Diff() mismatch (-want +got):\n%s", d)
	}

	ApplyAll(oldTree, patches)
	assert.True(t, Equal(oldTree, newTree))
}

func TestDiffNil(t *testing.T) {
	assert.Nil(t, Diff(nil, NewElement("div")))
	assert.Nil(t, Diff(NewElement("div"), nil))
}

func TestDiffAtPrefix(t *testing.T) {
	prefix := NodePath{2, 3}
	patches := DiffAt(NewText("a"), NewText("b"), prefix)
	require.Len(t, patches, 1)

	prefix[0] = 9
	assert.Equal(t, NodePath{2, 3}, patches[0].Path)
}

func TestPatchPathsAreNotShared(t *testing.T) {
	oldTree := mustParse(t, `<div><p class="a" title="x">1</p><p>2</p></div>`)
	newTree := mustParse(t, `<div><p class="b" title="y">1</p></div>`)

	patches := Diff(oldTree, newTree)
	require.NotEmpty(t, patches)
	for i := range patches {
		if len(patches[i].Path) > 0 {
			patches[i].Path[0] = 42
			break
		}
	}
	var moved int
	for _, p := range patches {
		if len(p.Path) > 0 && p.Path[0] == 42 {
			moved++
		}
	}
	assert.Equal(t, 1, moved)
}

func TestLongestIncreasing(t *testing.T) {
	tests := []struct {
		vals []int
		want []int
	}{
		{nil, nil},
		{[]int{5}, []int{0}},
		{[]int{0, 1, 2}, []int{0, 1, 2}},
		{[]int{3, 1, 2}, []int{1, 2}},
		{[]int{2, 1, 0}, []int{2}},
		{[]int{1, 3, 2, 4}, []int{0, 2, 3}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, longestIncreasing(tt.vals), "vals %v", tt.vals)
	}
}

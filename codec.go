package vdom

import (
	"encoding/json"
	"fmt"
)

// wirePatch is the discriminated record sent to clients: a type tag, the
// path, the optional target identity "d" and the variant's payload.
type wirePatch struct {
	Type  PatchType `json:"type"`
	Path  NodePath  `json:"path"`
	D     *string   `json:"d,omitempty"`
	Node  *Node     `json:"node,omitempty"`
	Text  *string   `json:"text,omitempty"`
	Key   *string   `json:"key,omitempty"`
	Value *string   `json:"value,omitempty"`
	Index *int      `json:"index,omitempty"`
	From  *int      `json:"from,omitempty"`
	To    *int      `json:"to,omitempty"`
}

// MarshalJSON writes only the fields of p's variant.
func (p Patch) MarshalJSON() ([]byte, error) {
	w := wirePatch{Type: p.Type, Path: p.Path}
	if w.Path == nil {
		w.Path = NodePath{}
	}
	if p.ID != "" {
		w.D = &p.ID
	}
	switch p.Type {
	case PatchReplace:
		w.Node = p.Node
	case PatchSetText:
		w.Text = &p.Text
	case PatchSetAttr:
		w.Key, w.Value = &p.Key, &p.Value
	case PatchRemoveAttr:
		w.Key = &p.Key
	case PatchInsertChild:
		w.Index, w.Node = &p.Index, p.Node
	case PatchRemoveChild:
		w.Index = &p.Index
	case PatchMoveChild:
		w.From, w.To = &p.From, &p.To
	default:
		return nil, fmt.Errorf("%w: unknown patch type %q", ErrInvalidPatch, p.Type)
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes a wire record and checks that the variant's
// required fields are present.
func (p *Patch) UnmarshalJSON(data []byte) error {
	var w wirePatch
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPatch, err)
	}

	out := Patch{Type: w.Type, Path: w.Path}
	if out.Path == nil {
		out.Path = NodePath{}
	}
	if w.D != nil {
		out.ID = *w.D
	}

	missing := func(field string) error {
		return fmt.Errorf("%w: %s patch without %q", ErrInvalidPatch, w.Type, field)
	}
	switch w.Type {
	case PatchReplace:
		if w.Node == nil {
			return missing("node")
		}
		out.Node = w.Node
	case PatchSetText:
		if w.Text == nil {
			return missing("text")
		}
		out.Text = *w.Text
	case PatchSetAttr:
		if w.Key == nil {
			return missing("key")
		}
		if w.Value == nil {
			return missing("value")
		}
		out.Key, out.Value = *w.Key, *w.Value
	case PatchRemoveAttr:
		if w.Key == nil {
			return missing("key")
		}
		out.Key = *w.Key
	case PatchInsertChild:
		if w.Index == nil {
			return missing("index")
		}
		if w.Node == nil {
			return missing("node")
		}
		out.Index, out.Node = *w.Index, w.Node
	case PatchRemoveChild:
		if w.Index == nil {
			return missing("index")
		}
		out.Index = *w.Index
	case PatchMoveChild:
		if w.From == nil {
			return missing("from")
		}
		if w.To == nil {
			return missing("to")
		}
		out.From, out.To = *w.From, *w.To
	default:
		return fmt.Errorf("%w: unknown patch type %q", ErrInvalidPatch, w.Type)
	}
	*p = out
	return nil
}

type wireNode struct {
	Tag      string            `json:"tag"`
	Attrs    map[string]string `json:"attrs"`
	Children []*Node           `json:"children"`
	Text     string            `json:"text,omitempty"`
	Key      string            `json:"key,omitempty"`
	ID       string            `json:"id,omitempty"`
}

// MarshalJSON never writes null attrs or children.
func (n *Node) MarshalJSON() ([]byte, error) {
	w := wireNode{
		Tag:      n.Tag,
		Attrs:    n.Attrs,
		Children: n.Children,
		Text:     n.Text,
		Key:      n.Key,
		ID:       n.ID,
	}
	if w.Attrs == nil {
		w.Attrs = map[string]string{}
	}
	if w.Children == nil {
		w.Children = []*Node{}
	}
	return json.Marshal(w)
}

func (n *Node) UnmarshalJSON(data []byte) error {
	var w wireNode
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Tag == "" {
		return fmt.Errorf("%w: node without tag", ErrInvalidPatch)
	}
	for i, c := range w.Children {
		if c == nil {
			return fmt.Errorf("%w: <%s> child %d is null", ErrInvalidPatch, w.Tag, i)
		}
	}
	*n = Node{
		Tag:      w.Tag,
		Attrs:    w.Attrs,
		Children: w.Children,
		Text:     w.Text,
		Key:      w.Key,
		ID:       w.ID,
	}
	if len(n.Children) == 0 {
		n.Children = nil
	}
	return nil
}

// EncodePatches serializes a patch list for transport.
func EncodePatches(patches []Patch) ([]byte, error) {
	if patches == nil {
		patches = []Patch{}
	}
	return json.Marshal(patches)
}

// DecodePatches parses a patch list produced by EncodePatches.
func DecodePatches(data []byte) ([]Patch, error) {
	var patches []Patch
	if err := json.Unmarshal(data, &patches); err != nil {
		return nil, err
	}
	return patches, nil
}

package dom

import (
	"errors"
	"strings"

	"github.com/bloom-go/bloom/pkg/vdom"
)

// ErrNoMount is returned by Apply for a nil mount point.
var ErrNoMount = errors.New("dom: nil mount point")

// Renderer applies vdom trees to the children of a mount point. Apply is
// synchronous and holds the document lock for the whole reconciliation;
// reactions it causes run after it returns from the locked section.
//
// Reconciliation rules:
//   - fragments are flattened into their parent's child list
//   - a child is reused when kind, tag and key agree, by key when the tree
//     node has one and by position among unkeyed children otherwise
//   - only attributes and listeners set by an earlier Apply are removed, so
//     attributes a custom element writes on itself survive
//   - a custom element host with no children in the tree keeps its own
//     content
//   - dropped children get Destroyed after Disconnected when their
//     Reactions implement Destroyer, for every element in the subtree
type Renderer struct{}

// NewRenderer returns a Renderer.
func NewRenderer() *Renderer { return &Renderer{} }

// Apply reconciles mount's children against tree. A nil tree clears them.
func (r *Renderer) Apply(mount *Node, tree *vdom.VNode) error {
	if mount == nil {
		return ErrNoMount
	}
	if mount.typ != ElementNode && mount.typ != ShadowRootNode {
		return ErrHierarchy
	}
	mount.doc.mutate(func(b *batch) {
		reconcileChildren(b, mount, flatten(nil, []*vdom.VNode{tree}))
	})
	return nil
}

func flatten(dst, nodes []*vdom.VNode) []*vdom.VNode {
	for _, v := range nodes {
		if v == nil {
			continue
		}
		if v.Kind == vdom.KindFragment {
			dst = flatten(dst, v.Children)
			continue
		}
		dst = append(dst, v)
	}
	return dst
}

func compatible(n *Node, v *vdom.VNode) bool {
	switch v.Kind {
	case vdom.KindElement:
		return n.typ == ElementNode && n.tag == v.Tag && n.key == v.Key
	case vdom.KindText:
		return n.typ == TextNode
	case vdom.KindRaw:
		return n.typ == RawNode
	}
	return false
}

func reconcileChildren(b *batch, parent *Node, vnodes []*vdom.VNode) {
	old := parent.children
	keyed := make(map[string]*Node)
	var unkeyed []*Node
	for _, c := range old {
		if c.key != "" {
			keyed[c.key] = c
		} else {
			unkeyed = append(unkeyed, c)
		}
	}

	used := make(map[*Node]bool, len(vnodes))
	next := make([]*Node, 0, len(vnodes))
	j := 0
	for _, v := range vnodes {
		var n *Node
		if v.Key != "" {
			if c := keyed[v.Key]; c != nil && !used[c] && compatible(c, v) {
				n = c
			}
		} else if j < len(unkeyed) {
			if c := unkeyed[j]; compatible(c, v) {
				n = c
			}
			j++
		}
		if n == nil {
			n = create(b, v)
		} else {
			patch(b, n, v)
		}
		used[n] = true
		next = append(next, n)
	}

	connected := parent.connected()
	for _, c := range old {
		if used[c] {
			continue
		}
		c.parent = nil
		if connected {
			b.disconnectTree(c)
		}
		b.destroyTree(c)
	}
	parent.children = next
	for _, n := range next {
		if n.parent == parent {
			continue
		}
		n.parent = parent
		if connected {
			b.connectTree(n)
		}
	}
}

func create(b *batch, v *vdom.VNode) *Node {
	d := b.doc
	switch v.Kind {
	case vdom.KindText:
		return d.newNode(TextNode, "", v.Text)
	case vdom.KindRaw:
		return d.newNode(RawNode, "", v.Text)
	}
	n := d.createElement(v.Tag)
	n.key = v.Key
	patch(b, n, v)
	return n
}

func patch(b *batch, n *Node, v *vdom.VNode) {
	if v.Kind != vdom.KindElement {
		n.data = v.Text
		return
	}

	want := make(map[string]bool)
	for _, a := range v.Attrs() {
		value, present := vdom.AttrString(a.Value)
		if !present {
			continue
		}
		name := strings.ToLower(a.Key)
		want[name] = true
		if cur, ok := n.getAttr(name); !ok || cur != value {
			n.setAttr(b, name, value)
		}
	}
	for name := range n.managedAttrs {
		if !want[name] {
			n.removeAttr(b, name)
		}
	}
	n.managedAttrs = want

	handlers := v.Handlers()
	for evt := range n.managedEvts {
		if _, ok := handlers[evt]; !ok {
			delete(n.listeners, evt)
		}
	}
	n.managedEvts = make(map[string]bool, len(handlers))
	for evt, h := range handlers {
		switch h.(type) {
		case func(), func(*Event):
		default:
			continue
		}
		if n.listeners == nil {
			n.listeners = make(map[string]any)
		}
		n.listeners[evt] = h
		n.managedEvts[evt] = true
	}

	if n.ce != nil && len(v.Children) == 0 {
		return
	}
	reconcileChildren(b, n, flatten(nil, v.Children))
}

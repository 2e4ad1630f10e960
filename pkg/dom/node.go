package dom

import (
	"errors"
	"strings"
)

// NodeType identifies the kind of a Node.
type NodeType uint8

const (
	ElementNode NodeType = iota + 1
	TextNode
	RawNode // pre-rendered HTML, serialized verbatim
	ShadowRootNode
)

// Errors returned by tree operations.
var (
	ErrNotChild     = errors.New("dom: node is not a child of this parent")
	ErrHierarchy    = errors.New("dom: node cannot be inserted here")
	ErrWrongDoc     = errors.New("dom: node belongs to another document")
	ErrShadowExists = errors.New("dom: element already has a shadow root")
)

type attribute struct {
	name  string
	value string
}

// Node is an element, text, raw or shadow root node. Nodes are created by
// a Document and may only be attached to nodes of the same Document.
type Node struct {
	doc  *Document
	typ  NodeType
	tag  string
	data string

	attrs     []attribute
	parent    *Node
	children  []*Node
	listeners map[string]any

	shadow *Node // shadow root of an element
	host   *Node // host element of a shadow root

	ce       Reactions
	upgraded bool

	// Renderer bookkeeping.
	key          string
	managedAttrs map[string]bool
	managedEvts  map[string]bool
}

// Type returns the node type.
func (n *Node) Type() NodeType { return n.typ }

// Tag returns the lowercase tag name of an element, "" otherwise.
func (n *Node) Tag() string { return n.tag }

// Document returns the owning document.
func (n *Node) Document() *Document { return n.doc }

// Data returns the content of a text or raw node.
func (n *Node) Data() string {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.data
}

// SetData replaces the content of a text or raw node.
func (n *Node) SetData(s string) {
	n.doc.mutate(func(*batch) { n.data = s })
}

// Parent returns the parent node, or nil. The parent of a shadow root is
// nil; use Host.
func (n *Node) Parent() *Node {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.parent
}

// Host returns the host element of a shadow root.
func (n *Node) Host() *Node { return n.host }

// Children returns a snapshot of the child list.
func (n *Node) Children() []*Node {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return append([]*Node(nil), n.children...)
}

// Reactions returns the custom element instance of an upgraded element.
func (n *Node) Reactions() Reactions {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.ce
}

// IsConnected reports whether the node is in the document, following
// shadow roots to their hosts.
func (n *Node) IsConnected() bool {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.connected()
}

func (n *Node) connected() bool {
	for cur := n; cur != nil; {
		if cur == cur.doc.body {
			return true
		}
		if cur.parent != nil {
			cur = cur.parent
		} else {
			cur = cur.host
		}
	}
	return false
}

// Attributes

// GetAttribute returns an attribute value and whether it is present.
func (n *Node) GetAttribute(name string) (string, bool) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.getAttr(name)
}

// HasAttribute reports whether the attribute is present.
func (n *Node) HasAttribute(name string) bool {
	_, ok := n.GetAttribute(name)
	return ok
}

// ID returns the id attribute.
func (n *Node) ID() string {
	v, _ := n.GetAttribute("id")
	return v
}

// Attributes returns a snapshot of all attributes.
func (n *Node) Attributes() map[string]string {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	out := make(map[string]string, len(n.attrs))
	for _, a := range n.attrs {
		out[a.name] = a.value
	}
	return out
}

// SetAttribute sets an attribute. An observed attribute of a custom element
// queues an attribute-changed reaction even when the value is unchanged.
func (n *Node) SetAttribute(name, value string) {
	n.doc.mutate(func(b *batch) { n.setAttr(b, name, value) })
}

// RemoveAttribute removes an attribute if present.
func (n *Node) RemoveAttribute(name string) {
	n.doc.mutate(func(b *batch) { n.removeAttr(b, name) })
}

func (n *Node) getAttr(name string) (string, bool) {
	name = strings.ToLower(name)
	for _, a := range n.attrs {
		if a.name == name {
			return a.value, true
		}
	}
	return "", false
}

func (n *Node) setAttr(b *batch, name, value string) {
	name = strings.ToLower(name)
	old, had := "", false
	for i := range n.attrs {
		if n.attrs[i].name == name {
			old, had = n.attrs[i].value, true
			n.attrs[i].value = value
			break
		}
	}
	if !had {
		n.attrs = append(n.attrs, attribute{name: name, value: value})
	}
	b.attributeChanged(n, AttributeChange{Name: name, Old: old, New: value, HadOld: had})
}

func (n *Node) removeAttr(b *batch, name string) {
	name = strings.ToLower(name)
	for i, a := range n.attrs {
		if a.name == name {
			n.attrs = append(n.attrs[:i], n.attrs[i+1:]...)
			b.attributeChanged(n, AttributeChange{Name: name, Old: a.value, HadOld: true, Removed: true})
			return
		}
	}
}

// Tree mutation

// AppendChild appends child, moving it from its current parent if needed.
func (n *Node) AppendChild(child *Node) error {
	var err error
	n.doc.mutate(func(b *batch) { err = n.insertBefore(b, child, nil) })
	return err
}

// InsertBefore inserts child before ref. A nil ref appends.
func (n *Node) InsertBefore(child, ref *Node) error {
	var err error
	n.doc.mutate(func(b *batch) { err = n.insertBefore(b, child, ref) })
	return err
}

// RemoveChild detaches child.
func (n *Node) RemoveChild(child *Node) error {
	var err error
	n.doc.mutate(func(b *batch) { err = n.removeChild(b, child) })
	return err
}

// Remove detaches the node from its parent, if any.
func (n *Node) Remove() {
	n.doc.mutate(func(b *batch) {
		if n.parent != nil {
			_ = n.parent.removeChild(b, n)
		}
	})
}

// ReplaceChildren removes all children and appends the given nodes.
func (n *Node) ReplaceChildren(children ...*Node) error {
	var err error
	n.doc.mutate(func(b *batch) {
		for len(n.children) > 0 {
			_ = n.removeChild(b, n.children[len(n.children)-1])
		}
		for _, c := range children {
			if err = n.insertBefore(b, c, nil); err != nil {
				return
			}
		}
	})
	return err
}

// SetTextContent replaces all children with a single text node. An empty
// string leaves the node without children.
func (n *Node) SetTextContent(s string) {
	n.doc.mutate(func(b *batch) {
		for len(n.children) > 0 {
			_ = n.removeChild(b, n.children[len(n.children)-1])
		}
		if s != "" {
			_ = n.insertBefore(b, n.doc.newNode(TextNode, "", s), nil)
		}
	})
}

func (n *Node) insertBefore(b *batch, child, ref *Node) error {
	if child.doc != n.doc {
		return ErrWrongDoc
	}
	if n.typ != ElementNode && n.typ != ShadowRootNode {
		return ErrHierarchy
	}
	if child.typ == ShadowRootNode || child == n.doc.body {
		return ErrHierarchy
	}
	for cur := n; cur != nil; {
		if cur == child {
			return ErrHierarchy
		}
		if cur.parent != nil {
			cur = cur.parent
		} else {
			cur = cur.host
		}
	}
	if ref != nil && ref.parent != n {
		return ErrNotChild
	}
	if child == ref {
		return nil
	}
	if child.parent != nil {
		_ = child.parent.removeChild(b, child)
	}

	idx := len(n.children)
	if ref != nil {
		idx = n.indexOf(ref)
	}
	n.children = append(n.children, nil)
	copy(n.children[idx+1:], n.children[idx:])
	n.children[idx] = child
	child.parent = n

	if n.connected() {
		b.connectTree(child)
	}
	return nil
}

func (n *Node) removeChild(b *batch, child *Node) error {
	idx := n.indexOf(child)
	if idx < 0 {
		return ErrNotChild
	}
	wasConnected := n.connected()
	n.children = append(n.children[:idx], n.children[idx+1:]...)
	child.parent = nil
	if wasConnected {
		b.disconnectTree(child)
	}
	return nil
}

func (n *Node) indexOf(child *Node) int {
	for i, c := range n.children {
		if c == child {
			return i
		}
	}
	return -1
}

// Shadow roots

// AttachShadow creates the shadow root of an element.
func (n *Node) AttachShadow() (*Node, error) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.attachShadow()
}

func (n *Node) attachShadow() (*Node, error) {
	if n.typ != ElementNode {
		return nil, ErrHierarchy
	}
	if n.shadow != nil {
		return nil, ErrShadowExists
	}
	root := n.doc.newNode(ShadowRootNode, "", "")
	root.host = n
	n.shadow = root
	return root, nil
}

// ShadowRoot returns the shadow root, or nil.
func (n *Node) ShadowRoot() *Node {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.shadow
}

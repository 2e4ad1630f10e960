package dom

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
)

// ErrAlreadyDefined is returned by Define for a name that is taken.
var ErrAlreadyDefined = errors.New("dom: custom element already defined")

// ErrInvalidName is returned by Define for a name without a hyphen.
var ErrInvalidName = errors.New("dom: custom element name must contain a hyphen")

// Reactions is the behavior of a custom element instance.
type Reactions interface {
	// Connected runs each time the element becomes connected.
	Connected()
	// Disconnected runs each time the element leaves the document.
	Disconnected()
	// AttributeChanged runs for every set or removal of an observed
	// attribute, including sets that keep the same value.
	AttributeChanged(change AttributeChange)
}

// Destroyer is implemented by Reactions that release resources when the
// Renderer discards their element. A node removed with Remove or
// RemoveChild is only disconnected and may come back.
type Destroyer interface {
	Destroyed()
}

// AttributeChange describes one observed attribute mutation.
type AttributeChange struct {
	Name    string
	Old     string
	New     string
	HadOld  bool
	Removed bool
}

// Definition registers a custom element.
type Definition struct {
	// Name is the tag name. It must contain a hyphen.
	Name string

	// Observed lists the attributes that queue AttributeChanged reactions.
	Observed []string

	// New creates the instance for host. It runs with the document locked
	// and must not call methods of host or any other node.
	New func(host *Node) Reactions
}

type definition struct {
	Definition
	observed map[string]bool
}

// Document owns a tree of nodes rooted at Body.
type Document struct {
	mu     sync.Mutex
	body   *Node
	defs   map[string]*definition
	logger *slog.Logger
}

// DocumentOption configures a Document.
type DocumentOption func(*Document)

// WithLogger sets the logger used to report panicking reactions.
func WithLogger(l *slog.Logger) DocumentOption {
	return func(d *Document) { d.logger = l }
}

// NewDocument creates an empty document with a body element.
func NewDocument(opts ...DocumentOption) *Document {
	d := &Document{defs: make(map[string]*definition), logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	d.body = d.newNode(ElementNode, "body", "")
	return d
}

// Body returns the root element.
func (d *Document) Body() *Node { return d.body }

// Logger returns the document logger.
func (d *Document) Logger() *slog.Logger { return d.logger }

func (d *Document) newNode(typ NodeType, tag, data string) *Node {
	return &Node{doc: d, typ: typ, tag: tag, data: data}
}

// CreateElement creates a detached element. A defined custom element name
// yields an upgraded instance.
func (d *Document) CreateElement(tag string) *Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.createElement(tag)
}

func (d *Document) createElement(tag string) *Node {
	n := d.newNode(ElementNode, strings.ToLower(tag), "")
	if def := d.defs[n.tag]; def != nil {
		n.ce = def.New(n)
		n.upgraded = true
	}
	return n
}

// CreateTextNode creates a detached text node.
func (d *Document) CreateTextNode(text string) *Node {
	return d.newNode(TextNode, "", text)
}

// Define registers a custom element. Existing connected elements with the
// name are upgraded: each gets an AttributeChanged reaction per observed
// attribute it already carries, then Connected.
func (d *Document) Define(def Definition) error {
	name := strings.ToLower(def.Name)
	if !strings.Contains(name, "-") {
		return fmt.Errorf("%w: %q", ErrInvalidName, def.Name)
	}
	if def.New == nil {
		return fmt.Errorf("dom: definition %q has no constructor", def.Name)
	}
	var err error
	d.mutate(func(b *batch) {
		if _, ok := d.defs[name]; ok {
			err = fmt.Errorf("%w: %q", ErrAlreadyDefined, name)
			return
		}
		def.Name = name
		dd := &definition{Definition: def, observed: make(map[string]bool)}
		for _, a := range def.Observed {
			dd.observed[strings.ToLower(a)] = true
		}
		d.defs[name] = dd
		walk(d.body, func(n *Node) {
			if n.tag == name && !n.upgraded {
				b.upgrade(n, true)
			}
		})
	})
	return err
}

// Defined reports whether name is a registered custom element.
func (d *Document) Defined(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.defs[strings.ToLower(name)]
	return ok
}

// GetElementByID finds a connected element by id, not looking into shadow
// roots.
func (d *Document) GetElementByID(id string) *Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	return findByID(d.body, id)
}

func findByID(n *Node, id string) *Node {
	for _, c := range n.children {
		if c.typ != ElementNode {
			continue
		}
		if v, ok := c.getAttr("id"); ok && v == id {
			return c
		}
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

// LookupID is GetElementByID including the content of shadow roots, in
// shadow-including tree order.
func (d *Document) LookupID(id string) *Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	var found *Node
	walk(d.body, func(n *Node) {
		if found != nil || n.typ != ElementNode {
			return
		}
		if v, ok := n.getAttr("id"); ok && v == id {
			found = n
		}
	})
	return found
}

// QuerySelector searches the body. See Node.QuerySelector.
func (d *Document) QuerySelector(selector string) *Node {
	return d.body.QuerySelector(selector)
}

// mutate runs fn with the document locked and then runs the reactions it
// queued, in order, with the document unlocked.
func (d *Document) mutate(fn func(b *batch)) {
	b := &batch{doc: d}
	d.mu.Lock()
	func() {
		defer d.mu.Unlock()
		fn(b)
	}()
	b.run()
}

// batch collects the reactions of one mutation.
type batch struct {
	doc       *Document
	reactions []reaction
}

type reaction struct {
	node *Node
	kind string
	fn   func()
}

func (b *batch) add(n *Node, kind string, fn func()) {
	b.reactions = append(b.reactions, reaction{node: n, kind: kind, fn: fn})
}

func (b *batch) attributeChanged(n *Node, ch AttributeChange) {
	if n.ce == nil {
		return
	}
	def := b.doc.defs[n.tag]
	if def == nil || !def.observed[ch.Name] {
		return
	}
	ce := n.ce
	b.add(n, "attributeChanged", func() { ce.AttributeChanged(ch) })
}

// upgrade constructs the instance of a not yet upgraded element and queues
// attribute reactions for its observed attributes, then Connected when
// connected is set.
func (b *batch) upgrade(n *Node, connected bool) {
	def := b.doc.defs[n.tag]
	if def == nil {
		return
	}
	n.ce = def.New(n)
	n.upgraded = true
	for _, a := range n.attrs {
		b.attributeChanged(n, AttributeChange{Name: a.name, New: a.value})
	}
	if connected {
		ce := n.ce
		b.add(n, "connected", ce.Connected)
	}
}

func (b *batch) connectTree(root *Node) {
	walk(root, func(n *Node) {
		if n.typ != ElementNode {
			return
		}
		if !n.upgraded {
			b.upgrade(n, true)
			return
		}
		if n.ce != nil {
			b.add(n, "connected", n.ce.Connected)
		}
	})
}

func (b *batch) disconnectTree(root *Node) {
	walk(root, func(n *Node) {
		if n.ce != nil {
			b.add(n, "disconnected", n.ce.Disconnected)
		}
	})
}

// destroyTree queues Destroyed after the disconnect reactions of a subtree
// the Renderer dropped.
func (b *batch) destroyTree(root *Node) {
	walk(root, func(n *Node) {
		if d, ok := n.ce.(Destroyer); ok {
			b.add(n, "destroyed", d.Destroyed)
		}
	})
}

func (b *batch) run() {
	for _, r := range b.reactions {
		b.doc.safeReact(r)
	}
}

func (d *Document) safeReact(r reaction) {
	defer func() {
		if p := recover(); p != nil {
			d.logger.Error("custom element reaction panicked",
				"tag", r.node.tag,
				"reaction", r.kind,
				"panic", p,
				"stack", string(debug.Stack()))
		}
	}()
	r.fn()
}

// walk visits n and its descendants in shadow-including tree order.
func walk(n *Node, fn func(*Node)) {
	fn(n)
	if n.shadow != nil {
		walk(n.shadow, fn)
	}
	for _, c := range n.children {
		walk(c, fn)
	}
}

package element

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/bloom-go/bloom/pkg/dom"
	"github.com/bloom-go/bloom/pkg/scheduler"
	"github.com/bloom-go/bloom/pkg/vdom"
)

// Element is one instance of a defined custom element.
type Element struct {
	reg    *Registry
	def    *compiled
	host   *dom.Node
	logger *slog.Logger

	mu          sync.Mutex
	root        *dom.Node
	props       map[string]any
	initialized bool
	connected   bool
	session     *scheduler.Session
}

// newElement runs with the document locked; it must not touch host.
func newElement(r *Registry, c *compiled, host *dom.Node) *Element {
	props := make(map[string]any, len(c.Props))
	for _, p := range c.Props {
		props[p.Name] = p.Default
	}
	return &Element{
		reg:    r,
		def:    c,
		host:   host,
		root:   host,
		logger: r.logger.With("element", c.tag),
		props:  props,
	}
}

// FromNode returns the element instance behind a host node.
func FromNode(n *dom.Node) (*Element, bool) {
	if n == nil {
		return nil, false
	}
	el, ok := n.Reactions().(*Element)
	return el, ok
}

// Name returns the tag name.
func (e *Element) Name() string { return e.def.tag }

// Host returns the host node.
func (e *Element) Host() *dom.Node { return e.host }

// Root returns where the element renders: its shadow root or the host.
func (e *Element) Root() *dom.Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.root
}

// Session returns the current session, nil before the first attach.
func (e *Element) Session() *scheduler.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

// IsConnected reports whether the element is attached.
func (e *Element) IsConnected() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.connected
}

// Reactions

// Connected implements dom.Reactions.
func (e *Element) Connected() {
	e.mu.Lock()
	e.connected = true
	first := !e.initialized
	e.initialized = true
	sess := e.session
	e.mu.Unlock()

	switch {
	case first:
		e.setup()
		e.start()
	case sess == nil || e.def.policy == StopOnDetach:
		e.start()
	default:
		sess.Trigger()
	}

	if fn := e.def.Options.OnConnected; fn != nil {
		fn(e)
	}
}

// Disconnected implements dom.Reactions.
func (e *Element) Disconnected() {
	e.mu.Lock()
	e.connected = false
	sess := e.session
	if e.def.policy == StopOnDetach {
		e.session = nil
	}
	e.mu.Unlock()

	if sess != nil && e.def.policy == StopOnDetach {
		e.reg.release(sess)
	}
	if fn := e.def.Options.OnDisconnected; fn != nil {
		fn(e)
	}
}

// Destroyed implements dom.Destroyer. The renderer discarded the host, so
// the session stops whatever the detach policy. A later attach starts a
// fresh one.
func (e *Element) Destroyed() {
	e.mu.Lock()
	sess := e.session
	e.session = nil
	e.mu.Unlock()

	if sess != nil {
		e.reg.release(sess)
	}
}

// AttributeChanged implements dom.Reactions.
func (e *Element) AttributeChanged(ch dom.AttributeChange) {
	p := e.def.prop(ch.Name)
	if p == nil || !p.Serializable() {
		return
	}

	value := p.zero()
	if !ch.Removed {
		v, err := p.decode(ch.New)
		if err != nil {
			e.logger.Warn("ignoring unparsable attribute", "attr", ch.Name, "value", ch.New, "error", err)
			return
		}
		value = v
	}

	e.mu.Lock()
	if sameValue(e.props[p.Name], value) {
		e.mu.Unlock()
		return
	}
	e.props[p.Name] = value
	e.mu.Unlock()

	e.Render()
}

// setup runs once, on the first attach.
func (e *Element) setup() {
	if e.def.Options.Shadow {
		root, err := e.host.AttachShadow()
		if err != nil {
			e.logger.Warn("shadow root unavailable, rendering into host", "error", err)
		} else {
			e.mu.Lock()
			e.root = root
			e.mu.Unlock()
		}
	}

	for _, p := range e.def.Props {
		if !p.Serializable() || e.host.HasAttribute(p.Name) {
			continue
		}
		if attr, present := p.encode(p.Default); present {
			e.host.SetAttribute(p.Name, attr)
		}
	}
}

func (e *Element) start() {
	attrs := e.host.Attributes()
	producer := e.def.Producer(e, attrs)

	opts := []scheduler.Option{
		scheduler.WithLogger(e.reg.logger),
		scheduler.WithLabel(e.def.tag),
	}
	opts = append(opts, e.reg.sessOpts...)
	opts = append(opts, scheduler.WithApplyGuard(e.IsConnected))

	sess := scheduler.New(producer, e.Root(), e.def.renderer, opts...)
	if !e.reg.track(sess) {
		sess.Stop()
		return
	}
	e.mu.Lock()
	e.session = sess
	e.mu.Unlock()
	sess.Go(e.reg.ctx)
}

// Props

// Render asks the element to re-render. It has no effect while detached.
func (e *Element) Render() {
	e.mu.Lock()
	sess, connected := e.session, e.connected
	e.mu.Unlock()
	if connected && sess != nil {
		sess.Trigger()
	}
}

// Set assigns a prop. Serializable props are written through the host
// attribute, so the stored value and the attribute never disagree.
func (e *Element) Set(name string, value any) error {
	p := e.def.prop(name)
	if p == nil {
		return fmt.Errorf("%w: %s.%s", ErrUnknownProp, e.def.tag, name)
	}
	v, ok := p.coerce(value)
	if !ok {
		return fmt.Errorf("%w: %s.%s is %s, got %T", ErrPropType, e.def.tag, p.Name, p.Kind, value)
	}

	if p.Kind == KindCallback {
		e.mu.Lock()
		e.props[p.Name] = v
		e.mu.Unlock()
		e.Render()
		return nil
	}

	attrName := p.Name
	if attr, present := p.encode(v); present {
		e.host.SetAttribute(attrName, attr)
	} else {
		e.host.RemoveAttribute(attrName)
	}
	return nil
}

// Get returns a prop value.
func (e *Element) Get(name string) (any, bool) {
	p := e.def.prop(name)
	if p == nil {
		return nil, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.props[p.Name], true
}

// String returns a string prop, or "".
func (e *Element) String(name string) string {
	v, _ := e.Get(name)
	s, _ := v.(string)
	return s
}

// Number returns a number prop, or 0.
func (e *Element) Number(name string) float64 {
	v, _ := e.Get(name)
	f, _ := v.(float64)
	return f
}

// Int returns a number prop truncated to an int.
func (e *Element) Int(name string) int {
	return int(e.Number(name))
}

// Bool returns a bool prop, or false.
func (e *Element) Bool(name string) bool {
	v, _ := e.Get(name)
	b, _ := v.(bool)
	return b
}

// Callback returns a callback prop, or nil.
func (e *Element) Callback(name string) any {
	p := e.def.prop(name)
	if p == nil || p.Kind != KindCallback {
		return nil
	}
	v, _ := e.Get(name)
	return v
}

// CallbackAs returns a callback prop asserted to T.
func CallbackAs[T any](e *Element, name string) (T, bool) {
	fn, ok := e.Callback(name).(T)
	return fn, ok
}

// Attributes returns a snapshot of the host attributes.
func (e *Element) Attributes() map[string]string {
	return e.host.Attributes()
}

// styledRenderer prepends a <style> to every tree.
func styledRenderer(base scheduler.Renderer, styles string) scheduler.Renderer {
	style := vdom.Style(vdom.Text(styles))
	return scheduler.RendererFunc(func(mount *dom.Node, tree *vdom.VNode) error {
		return base.Apply(mount, vdom.Fragment(style, tree))
	})
}

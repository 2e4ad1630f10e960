package vdom

import (
	"fmt"
	"sort"
	"strings"
)

// VKind is the node type discriminator.
type VKind uint8

const (
	KindElement  VKind = iota // <div>, <button>, etc.
	KindText                  // Plain text node
	KindFragment              // Grouping without wrapper
	KindRaw                   // Raw HTML, never escaped
)

// String returns the string representation of the VKind.
func (k VKind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindFragment:
		return "Fragment"
	case KindRaw:
		return "Raw"
	default:
		return "Unknown"
	}
}

// VNode is one node of a UI tree.
type VNode struct {
	Kind     VKind    // Node type
	Tag      string   // Element tag name (e.g., "div")
	Props    Props    // Attributes and event handlers
	Children []*VNode // Child nodes
	Key      string   // Reconciliation key
	Text     string   // For KindText and KindRaw
}

// Props holds attributes and event handlers.
// Keys starting with "on" are event handlers.
type Props map[string]any

// Attr represents a single attribute.
type Attr struct {
	Key   string
	Value any
}

// EventHandler represents an event handler.
type EventHandler struct {
	Event   string // "onclick", "oninput", etc.
	Handler any    // func() or func(*dom.Event)
}

// IsEventProp reports whether a prop key names an event handler.
func IsEventProp(key string) bool {
	return len(key) > 2 && strings.HasPrefix(key, "on")
}

// Attrs returns the non-event props of an element in key order.
func (v *VNode) Attrs() []Attr {
	if v == nil || len(v.Props) == 0 {
		return nil
	}
	attrs := make([]Attr, 0, len(v.Props))
	for k, val := range v.Props {
		if IsEventProp(k) {
			continue
		}
		attrs = append(attrs, Attr{Key: k, Value: val})
	}
	sort.Slice(attrs, func(i, j int) bool { return attrs[i].Key < attrs[j].Key })
	return attrs
}

// Handlers returns the event handlers of an element keyed by event name
// without the "on" prefix ("click", "input").
func (v *VNode) Handlers() map[string]any {
	if v == nil {
		return nil
	}
	var out map[string]any
	for k, val := range v.Props {
		if !IsEventProp(k) || val == nil {
			continue
		}
		if out == nil {
			out = make(map[string]any)
		}
		out[strings.TrimPrefix(k, "on")] = val
	}
	return out
}

// String returns a compact, single-line description of the tree.
// It is meant for logs and test failures, not for HTML output.
func (v *VNode) String() string {
	var b strings.Builder
	v.describe(&b)
	return b.String()
}

func (v *VNode) describe(b *strings.Builder) {
	if v == nil {
		b.WriteString("<nil>")
		return
	}
	switch v.Kind {
	case KindText:
		fmt.Fprintf(b, "%q", v.Text)
		return
	case KindRaw:
		fmt.Fprintf(b, "raw(%q)", v.Text)
		return
	case KindFragment:
		b.WriteString("fragment")
	default:
		b.WriteString(v.Tag)
	}
	for _, a := range v.Attrs() {
		fmt.Fprintf(b, " %s=%v", a.Key, a.Value)
	}
	if len(v.Children) == 0 {
		return
	}
	b.WriteString("[")
	for i, c := range v.Children {
		if i > 0 {
			b.WriteString(" ")
		}
		c.describe(b)
	}
	b.WriteString("]")
}

// AttrString converts an attribute value to its string form and reports
// whether the attribute should be present at all. Booleans follow HTML
// semantics: true is present with an empty value, false is absent.
func AttrString(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case bool:
		return "", v
	case fmt.Stringer:
		return v.String(), true
	default:
		return fmt.Sprint(v), true
	}
}

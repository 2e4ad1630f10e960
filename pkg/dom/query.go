package dom

import (
	"strings"
)

// QuerySelector returns the first descendant (in tree order, not entering
// shadow roots) matching selector, or nil. A shadow root may be queried
// directly.
//
// Supported syntax is a descendant-combinator list of compound selectors
// made of an optional tag followed by any of "#id", ".class", "[attr]" and
// `[attr="value"]`. An unsupported selector matches nothing.
func (n *Node) QuerySelector(selector string) *Node {
	all := n.query(selector, true)
	if len(all) == 0 {
		return nil
	}
	return all[0]
}

// QuerySelectorAll returns every matching descendant in tree order.
func (n *Node) QuerySelectorAll(selector string) []*Node {
	return n.query(selector, false)
}

func (n *Node) query(selector string, first bool) []*Node {
	sel, ok := parseSelector(selector)
	if !ok {
		return nil
	}
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()

	var out []*Node
	var visit func(*Node) bool
	visit = func(cur *Node) bool {
		for _, c := range cur.children {
			if c.typ == ElementNode && sel.matches(c, n) {
				out = append(out, c)
				if first {
					return true
				}
			}
			if visit(c) {
				return true
			}
		}
		return false
	}
	visit(n)
	return out
}

// TextContent returns the concatenated text of all descendants, not
// entering shadow roots.
func (n *Node) TextContent() string {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	if n.typ == TextNode || n.typ == RawNode {
		return n.data
	}
	var b strings.Builder
	var visit func(*Node)
	visit = func(cur *Node) {
		for _, c := range cur.children {
			switch c.typ {
			case TextNode, RawNode:
				b.WriteString(c.data)
			default:
				visit(c)
			}
		}
	}
	visit(n)
	return b.String()
}

type attrSel struct {
	name     string
	value    string
	hasValue bool
}

type compound struct {
	tag     string
	id      string
	classes []string
	attrs   []attrSel
}

// selector is a descendant chain; the last compound is the subject.
type selector []compound

func (s selector) matches(n, scope *Node) bool {
	last := len(s) - 1
	if !s[last].matches(n) {
		return false
	}
	i := last - 1
	for cur := n.parent; i >= 0 && cur != nil && cur != scope; cur = cur.parent {
		if s[i].matches(cur) {
			i--
		}
	}
	return i < 0
}

func (c compound) matches(n *Node) bool {
	if c.tag != "" && c.tag != "*" && c.tag != n.tag {
		return false
	}
	if c.id != "" {
		if v, _ := n.getAttr("id"); v != c.id {
			return false
		}
	}
	if len(c.classes) > 0 {
		v, _ := n.getAttr("class")
		have := strings.Fields(v)
		for _, want := range c.classes {
			found := false
			for _, h := range have {
				if h == want {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	for _, a := range c.attrs {
		v, ok := n.getAttr(a.name)
		if !ok || (a.hasValue && v != a.value) {
			return false
		}
	}
	return true
}

func parseSelector(s string) (selector, bool) {
	var parts []string
	depth := 0
	start := -1
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '[':
			depth++
		case c == ']':
			depth--
		case (c == ' ' || c == '\t' || c == '\n') && depth == 0:
			if start >= 0 {
				parts = append(parts, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		parts = append(parts, s[start:])
	}
	if len(parts) == 0 || depth != 0 {
		return nil, false
	}

	sel := make(selector, 0, len(parts))
	for _, p := range parts {
		c, ok := parseCompound(p)
		if !ok {
			return nil, false
		}
		sel = append(sel, c)
	}
	return sel, true
}

func parseCompound(s string) (compound, bool) {
	var c compound
	i := 0
	for i < len(s) && isIdentByte(s[i]) || i < len(s) && s[i] == '*' {
		i++
	}
	c.tag = strings.ToLower(s[:i])
	for i < len(s) {
		switch s[i] {
		case '#', '.':
			j := i + 1
			for j < len(s) && isIdentByte(s[j]) {
				j++
			}
			if j == i+1 {
				return c, false
			}
			if s[i] == '#' {
				c.id = s[i+1 : j]
			} else {
				c.classes = append(c.classes, s[i+1:j])
			}
			i = j
		case '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return c, false
			}
			a, ok := parseAttrSel(s[i+1 : i+end])
			if !ok {
				return c, false
			}
			c.attrs = append(c.attrs, a)
			i += end + 1
		default:
			return c, false
		}
	}
	return c, true
}

func parseAttrSel(s string) (attrSel, bool) {
	name, value, hasValue := strings.Cut(s, "=")
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return attrSel{}, false
	}
	value = strings.TrimSpace(value)
	if len(value) >= 2 && (value[0] == '"' || value[0] == '\'') && value[len(value)-1] == value[0] {
		value = value[1 : len(value)-1]
	}
	return attrSel{name: name, value: value, hasValue: hasValue}, true
}

func isIdentByte(c byte) bool {
	return c == '-' || c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

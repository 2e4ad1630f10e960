package dom

import (
	"io"
	"strings"

	"github.com/bloom-go/bloom/pkg/render"
	"github.com/bloom-go/bloom/pkg/vdom"
)

// InnerHTML serializes the node's children. Shadow roots of descendants are
// written as declarative shadow DOM templates.
func (n *Node) InnerHTML() string {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	var b strings.Builder
	for _, c := range n.children {
		writeNode(&b, c)
	}
	return b.String()
}

// OuterHTML serializes the node itself.
func (n *Node) OuterHTML() string {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	var b strings.Builder
	writeNode(&b, n)
	return b.String()
}

func writeNode(w io.Writer, n *Node) {
	switch n.typ {
	case TextNode:
		io.WriteString(w, render.EscapeHTML(n.data))
	case RawNode:
		io.WriteString(w, n.data)
	case ShadowRootNode:
		io.WriteString(w, `<template shadowrootmode="open">`)
		for _, c := range n.children {
			writeNode(w, c)
		}
		io.WriteString(w, "</template>")
	case ElementNode:
		io.WriteString(w, "<"+n.tag)
		for _, a := range n.attrs {
			render.WriteAttr(w, a.name, a.value)
		}
		io.WriteString(w, ">")
		if vdom.IsVoidElement(n.tag) {
			return
		}
		if n.shadow != nil {
			writeNode(w, n.shadow)
		}
		for _, c := range n.children {
			writeNode(w, c)
		}
		io.WriteString(w, "</"+n.tag+">")
	}
}

// Package vdom provides the UI tree value produced by bloom producers.
//
// A tree is a plain *VNode value. Producers build one per snapshot with the
// variadic element functions and hand it to the scheduler, which treats it
// as opaque and passes it to a renderer.
//
//	vdom.Div(vdom.ID("counter"),
//	    vdom.P(vdom.Textf("%d", count)),
//	    vdom.Button(vdom.OnClick(increment), "Increment"),
//	)
//
// # Arguments
//
// Element functions accept, in any order: nil (ignored, for conditional
// attributes), Attr, []Attr, EventHandler, *VNode, []*VNode and string
// (shorthand for a text child).
//
// # Comparison
//
// Equal reports structural equality of two trees. Event handlers are
// compared by presence only, since Go funcs are not comparable.
package vdom

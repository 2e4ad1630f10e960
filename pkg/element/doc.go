// Package element turns producers into custom elements.
//
// A Definition names an element, declares its props and supplies a
// producer factory. Registry.Define installs it into a dom.Document; every
// instance then runs one scheduler.Session for its whole attached life.
//
// Serializable props (String, Number, Bool) are mirrored to attributes:
//
//	Set("count", 3)      → count="3"
//	Set("open", true)    → open=""
//	Set("open", false)   → attribute removed
//
// and decoded back when an attribute changes: numbers are parsed as
// floats, a present boolean attribute is true, strings pass through, and a
// removed attribute decodes to the zero value. Writing an attribute that
// decodes to the current value never re-renders. Callback props are held
// in memory only.
//
// A detached instance keeps its session by default (PauseOnDetach): trees
// produced while detached are dropped and reattaching triggers a render
// with the state the producer kept. StopOnDetach stops the session instead
// and starts a fresh one on reattach.
package element

// Package dom is a small live document: a tree of element, text and raw
// HTML nodes with custom element reactions, event listeners, simple
// selector queries and HTML serialization.
//
// All nodes of a Document share one mutex. Custom element reactions
// (construction aside) never run while it is held: a mutation queues its
// connected, disconnected and attribute-changed reactions and runs them in
// order after the mutex is released, so a reaction may freely read and
// mutate the document. Event handlers run outside the mutex too.
//
// Renderer reconciles a node's children against a vdom tree and is the
// only way trees reach the document.
package dom

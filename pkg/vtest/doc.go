// Package vtest provides testing helpers for bloom pages and elements.
//
// A Harness runs an App on a fresh document so a test can click elements
// by id and wait for the renders that follow:
//
//	func TestCounter(t *testing.T) {
//	    h := vtest.New(t, func(app *bloom.App) error {
//	        app.Page("/", CounterPage)
//	        return nil
//	    })
//	    h.Click("increment")
//	    h.Eventually("count to reach 1", func() bool { return h.Text("count") == "1" })
//	}
//
// # Tree Assertions
//
// The Expect helpers render a VNode to HTML and check the markup, for
// producers tested without a document:
//
//	vtest.ExpectContains(t, tree, "Welcome Paris")
//	vtest.ExpectAttribute(t, tree, "id", "like")
package vtest

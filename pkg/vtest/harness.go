package vtest

import (
	"context"
	"testing"
	"time"

	"github.com/bloom-go/bloom"
	"github.com/bloom-go/bloom/pkg/dom"
)

// MountID is the id of the mount element a Harness creates.
const MountID = "app"

// Timeout bounds Eventually and the context of a Harness.
var Timeout = 3 * time.Second

// Harness is a started App on its own document.
type Harness struct {
	App *bloom.App
	Ctx context.Context

	t testing.TB
}

// New creates an App with opts, lets register add pages and elements, and
// starts it. The app is closed when the test ends.
func New(t testing.TB, register func(*bloom.App) error, opts ...bloom.Option) *Harness {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	t.Cleanup(cancel)

	doc := dom.NewDocument()
	mount := doc.CreateElement("main")
	mount.SetAttribute("id", MountID)
	doc.Body().AppendChild(mount)

	app, err := bloom.New(doc, MountID, opts...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { app.Close() })
	if register != nil {
		if err := register(app); err != nil {
			t.Fatal(err)
		}
	}
	if err := app.Start(ctx); err != nil {
		t.Fatal(err)
	}
	return &Harness{App: app, Ctx: ctx, t: t}
}

// Goto navigates and fails the test on error.
func (h *Harness) Goto(path string, query map[string]string) {
	h.t.Helper()
	if err := h.App.Goto(h.Ctx, path, query); err != nil {
		h.t.Fatalf("Goto(%q): %v", path, err)
	}
}

// Click dispatches a click on the element with id, looking into shadow
// roots. It fails the test when the element is missing or has no click
// listener on its path.
func (h *Harness) Click(id string) {
	h.t.Helper()
	n := h.App.Document().LookupID(id)
	if n == nil {
		h.t.Fatalf("no element with id %q in %s", id, truncate(h.HTML(), 500))
	}
	if !n.Click() {
		h.t.Fatalf("click on %q ran no listener", id)
	}
}

// Text returns the text content of the element with id, or "" when there
// is none.
func (h *Harness) Text(id string) string {
	n := h.App.Document().LookupID(id)
	if n == nil {
		return ""
	}
	return n.TextContent()
}

// Exists reports whether an element with id is in the document.
func (h *Harness) Exists(id string) bool {
	return h.App.Document().LookupID(id) != nil
}

// HTML returns the markup of the mount point.
func (h *Harness) HTML() string { return h.App.Mount().InnerHTML() }

// Eventually polls cond until it holds, failing the test after Timeout.
func (h *Harness) Eventually(what string, cond func() bool) {
	h.t.Helper()
	Eventually(h.t, what, cond)
}

// Eventually polls cond until it holds, failing t after Timeout.
func Eventually(t testing.TB, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(Timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

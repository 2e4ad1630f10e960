// Package bloom drives UI from long-lived producers of tree snapshots.
//
// An App owns a mount point in a live document, a table of pages and a
// registry of custom elements. Navigating to a path selects the first page
// whose pattern matches, creates a render session around the page's
// producer and applies its first tree. The session then pulls a new tree
// each time the page asks to be rendered again, until the producer ends or
// the app navigates away.
//
//	doc := dom.NewDocument()
//	mount := doc.CreateElement("div")
//	mount.SetAttribute("id", "app")
//	doc.Body().AppendChild(mount)
//
//	app, err := bloom.New(doc, "app")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	app.Page("/", func(pc bloom.PageContext) scheduler.Producer {
//	    return scheduler.Generate(func(y *scheduler.Yielder) (*vdom.VNode, error) {
//	        for count := 0; ; count++ {
//	            if err := y.Yield(vdom.P(vdom.ID("count"), vdom.Textf("%d", count))); err != nil {
//	                return nil, err
//	            }
//	        }
//	    })
//	})
//	if err := app.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	app.Render() // pulls the next tree
package bloom

import (
	"errors"

	"github.com/bloom-go/bloom/pkg/routepath"
	"github.com/bloom-go/bloom/pkg/scheduler"
	"github.com/bloom-go/bloom/pkg/vdom"
)

// ErrMountTargetMissing is returned by New when the document has no
// element with the requested id.
var ErrMountTargetMissing = errors.New("bloom: mount target missing")

// ErrNoContent is reported when a page returns no producer or a root render
// callback returns no tree.
var ErrNoContent = errors.New("bloom: no content")

// PageContext is passed to a PageFactory when its route is visited.
type PageContext struct {
	App      *App
	Location routepath.Location

	// Params holds the decoded route captures. Never nil.
	Params map[string]string

	// Query holds the decoded query parameters. Never nil.
	Query map[string]string
}

// Param returns a route capture.
func (pc PageContext) Param(name string) string { return pc.Params[name] }

// QueryParam returns a query parameter.
func (pc PageContext) QueryParam(name string) string { return pc.Query[name] }

// PageFactory creates the producer for one visit of a page.
type PageFactory func(pc PageContext) scheduler.Producer

// RootRender renders the whole mount point for a location. It replaces
// the page table when installed with InitRouter.
type RootRender func(loc routepath.Location) *vdom.VNode

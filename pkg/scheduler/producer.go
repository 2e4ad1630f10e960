package scheduler

import (
	"context"

	"github.com/bloom-go/bloom/pkg/dom"
	"github.com/bloom-go/bloom/pkg/vdom"
)

// Step is the result of one pull.
type Step struct {
	// Tree is the snapshot to apply. On a Done step it is the optional
	// final tree.
	Tree *vdom.VNode

	// Done marks the producer as exhausted. No further pulls happen.
	Done bool
}

// Producer yields UI trees on demand. Next is never called concurrently
// and never called again after it returned a Done step or an error.
// A producer that also implements io.Closer is closed when its session
// terminates.
type Producer interface {
	Next(ctx context.Context) (Step, error)
}

// ProducerFunc adapts a function to Producer.
type ProducerFunc func(ctx context.Context) (Step, error)

// Next calls f.
func (f ProducerFunc) Next(ctx context.Context) (Step, error) { return f(ctx) }

// Static returns a producer that yields tree on every pull.
func Static(tree *vdom.VNode) Producer {
	return ProducerFunc(func(context.Context) (Step, error) {
		return Step{Tree: tree}, nil
	})
}

// Renderer applies a tree to a mount point. Apply is synchronous.
type Renderer interface {
	Apply(mount *dom.Node, tree *vdom.VNode) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(mount *dom.Node, tree *vdom.VNode) error

// Apply calls f.
func (f RendererFunc) Apply(mount *dom.Node, tree *vdom.VNode) error { return f(mount, tree) }

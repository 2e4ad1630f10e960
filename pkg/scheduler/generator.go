package scheduler

import (
	"context"
	"errors"
	"sync"

	"github.com/bloom-go/bloom/pkg/vdom"
)

// ErrProducerClosed is returned by Yield once the generator is closed, and
// by Next after Close.
var ErrProducerClosed = errors.New("scheduler: producer closed")

// Body is the code of a generator. It yields trees through y and returns
// when done, optionally with a final tree. When Yield returns an error the
// body must return.
type Body func(y *Yielder) (final *vdom.VNode, err error)

// Yielder is the body's handle on its generator.
type Yielder struct {
	g *Generator
}

// Yield hands tree to the consumer and blocks until the consumer pulls
// again, so the body never runs ahead of rendering.
func (y *Yielder) Yield(tree *vdom.VNode) error {
	g := y.g
	select {
	case g.out <- result{step: Step{Tree: tree}}:
	case <-g.closed:
		return ErrProducerClosed
	}
	select {
	case <-g.resume:
		return nil
	case <-g.closed:
		return ErrProducerClosed
	}
}

// Context is cancelled when the generator is closed.
func (y *Yielder) Context() context.Context { return y.g.ctx }

// Generator is a Producer backed by a goroutine running a Body. The body
// starts on the first pull.
type Generator struct {
	body Body

	ctx    context.Context
	cancel context.CancelFunc

	started   bool
	finished  bool
	resume    chan struct{}
	out       chan result
	closed    chan struct{}
	closeOnce sync.Once
}

type result struct {
	step Step
	err  error
}

// Generate returns a generator running body.
func Generate(body Body) *Generator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Generator{
		body:   body,
		ctx:    ctx,
		cancel: cancel,
		resume: make(chan struct{}),
		out:    make(chan result),
		closed: make(chan struct{}),
	}
}

// Next resumes the body and waits for its next tree.
func (g *Generator) Next(ctx context.Context) (Step, error) {
	if g.finished {
		return Step{Done: true}, nil
	}
	select {
	case <-g.closed:
		return Step{}, ErrProducerClosed
	default:
	}

	if !g.started {
		g.started = true
		go g.run()
	} else {
		select {
		case g.resume <- struct{}{}:
		case <-g.closed:
			return Step{}, ErrProducerClosed
		case <-ctx.Done():
			return Step{}, ctx.Err()
		}
	}

	select {
	case r := <-g.out:
		if r.step.Done || r.err != nil {
			g.finished = true
		}
		return r.step, r.err
	case <-g.closed:
		return Step{}, ErrProducerClosed
	case <-ctx.Done():
		return Step{}, ctx.Err()
	}
}

// Close stops the generator. A body blocked in Yield is released with
// ErrProducerClosed.
func (g *Generator) Close() error {
	g.closeOnce.Do(func() {
		g.cancel()
		close(g.closed)
	})
	return nil
}

func (g *Generator) run() {
	var r result
	defer func() {
		if p := recover(); p != nil {
			r = result{err: newPanicError(p)}
		}
		select {
		case g.out <- r:
		case <-g.closed:
		}
	}()
	final, err := g.body(&Yielder{g: g})
	r = result{step: Step{Tree: final, Done: true}, err: err}
}

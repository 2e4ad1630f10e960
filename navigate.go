package bloom

import (
	"context"
	"fmt"
	"io"
	"runtime/debug"

	"github.com/bloom-go/bloom/pkg/routepath"
	"github.com/bloom-go/bloom/pkg/scheduler"
	"github.com/bloom-go/bloom/pkg/vdom"
)

// routeMissRecorder is implemented by recorders that count routing misses.
type routeMissRecorder interface {
	RouteMiss(path string)
}

// Goto pushes path, with query merged into its own query string, onto the
// history and navigates to it. It returns once the new page's first tree
// is applied.
//
// When no page matches, Goto logs the miss and returns an error wrapping
// router.ErrNotFound; the mount point and the running session are left
// alone. A producer failure on the new page is reported, not returned.
//
// Goto must not be called from inside a producer's Next: navigation waits
// for the outgoing session to finish.
func (a *App) Goto(ctx context.Context, path string, query map[string]string) error {
	url := composeURL(path, query)
	a.history.Push(url)
	return a.navigate(ctx, routepath.ParseLocation(url))
}

// Render asks the current page to produce its next tree. With a root
// render callback installed it re-renders the current location instead.
func (a *App) Render() {
	a.mu.Lock()
	root, cur := a.root, a.current
	a.mu.Unlock()

	if root != nil {
		loc := a.history.Location()
		a.navMu.Lock()
		defer a.navMu.Unlock()
		if err := a.renderRoot(root, loc); err != nil {
			a.logger.Debug("root render kept previous content", "path", loc.Path, "error", err)
		}
		return
	}
	if cur != nil {
		cur.Trigger()
	}
}

// InitRouter installs a root render callback. From then on every
// navigation, back/forward move and Render calls render for the current
// location and applies the result to the mount point, and the page table
// is not consulted. The callback is invoked immediately.
//
// A callback that panics or returns nil leaves the mount point unchanged.
func (a *App) InitRouter(render RootRender) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	a.root = render
	a.followLocked()
	a.mu.Unlock()

	return a.navigate(a.baseContext(), a.history.Location())
}

// Snapshot returns the first tree the page matching path produces, without
// touching the mount point. The producer is closed afterwards.
func (a *App) Snapshot(ctx context.Context, path string) (*vdom.VNode, error) {
	loc := routepath.ParseLocation(path)
	m, err := a.routes.Match(loc.Path)
	if err != nil {
		return nil, err
	}
	producer := m.Value(a.pageContext(loc, m.Params))
	if producer == nil {
		return nil, fmt.Errorf("%w: page %s", ErrNoContent, m.Pattern)
	}
	if c, ok := producer.(io.Closer); ok {
		defer c.Close()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	st, err := pullOnce(ctx, producer)
	if err != nil {
		return nil, &scheduler.ProducerError{Label: m.Pattern, Op: "pull", Err: err}
	}
	if st.Tree == nil {
		return nil, fmt.Errorf("%w: page %s", ErrNoContent, m.Pattern)
	}
	return st.Tree, nil
}

func pullOnce(ctx context.Context, p scheduler.Producer) (st scheduler.Step, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &scheduler.PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return p.Next(ctx)
}

func (a *App) navigate(ctx context.Context, loc routepath.Location) error {
	a.navMu.Lock()
	defer a.navMu.Unlock()

	a.mu.Lock()
	root, closed := a.root, a.closed
	a.mu.Unlock()
	if closed {
		return ErrClosed
	}

	if root != nil {
		if err := a.stopCurrent(ctx); err != nil {
			return err
		}
		return a.renderRoot(root, loc)
	}

	m, err := a.routes.Match(loc.Path)
	if err != nil {
		a.logger.Warn("no route matches path", "path", loc.Path)
		if rm, ok := a.recorder.(routeMissRecorder); ok {
			rm.RouteMiss(loc.Path)
		}
		return err
	}

	producer := m.Value(a.pageContext(loc, m.Params))
	if producer == nil {
		a.logger.Error("page returned no producer", "route", m.Pattern, "path", loc.Path)
		return fmt.Errorf("%w: page %s", ErrNoContent, m.Pattern)
	}

	if err := a.stopCurrent(ctx); err != nil {
		if c, ok := producer.(io.Closer); ok {
			c.Close()
		}
		return err
	}

	sess := scheduler.New(producer, a.mount, a.renderer, a.sessionOptions(m.Pattern)...)
	a.mu.Lock()
	a.current = sess
	base := a.ctx
	a.mu.Unlock()

	a.logger.Debug("navigating", "path", loc.Path, "route", m.Pattern, "session_id", sess.ID())
	return sess.Start(base)
}

// stopCurrent stops the page session and waits until it has finished, so
// its last apply cannot land after the next session's first.
func (a *App) stopCurrent(ctx context.Context) error {
	a.mu.Lock()
	cur := a.current
	a.current = nil
	a.mu.Unlock()
	if cur == nil {
		return nil
	}
	cur.Stop()
	select {
	case <-cur.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *App) renderRoot(root RootRender, loc routepath.Location) error {
	tree, err := callRoot(root, loc)
	if err == nil && tree == nil {
		err = ErrNoContent
	}
	if err == nil {
		err = a.renderer.Apply(a.mount, tree)
	}
	if err != nil {
		a.logger.Error("root render failed", "path", loc.Path, "error", err)
		if a.reporter != nil {
			a.reporter.Report(&scheduler.ProducerError{Label: "root", Op: "render", Err: err})
		}
		return err
	}
	return nil
}

func callRoot(root RootRender, loc routepath.Location) (tree *vdom.VNode, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &scheduler.PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return root(loc), nil
}

func (a *App) pageContext(loc routepath.Location, params map[string]string) PageContext {
	query := loc.Query
	if query == nil {
		query = map[string]string{}
	}
	if params == nil {
		params = map[string]string{}
	}
	return PageContext{App: a, Location: loc, Params: params, Query: query}
}

// composeURL merges query into the query string already on path.
func composeURL(path string, query map[string]string) string {
	if len(query) == 0 {
		return path
	}
	p, raw := routepath.SplitPathAndQuery(path)
	merged := routepath.ParseQuery(raw)
	for k, v := range query {
		merged[k] = v
	}
	return routepath.JoinPathQuery(p, merged)
}

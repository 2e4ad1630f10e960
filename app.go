package bloom

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	berrors "github.com/bloom-go/bloom/internal/errors"
	"github.com/bloom-go/bloom/pkg/dom"
	"github.com/bloom-go/bloom/pkg/element"
	"github.com/bloom-go/bloom/pkg/history"
	"github.com/bloom-go/bloom/pkg/router"
	"github.com/bloom-go/bloom/pkg/routepath"
	"github.com/bloom-go/bloom/pkg/scheduler"
	"github.com/bloom-go/bloom/pkg/vdom"
)

// ErrClosed is returned by navigation on a closed App.
var ErrClosed = errors.New("bloom: app closed")

// App owns a mount point, the page table, the element registry and the
// page session currently rendering into the mount point.
type App struct {
	doc      *dom.Document
	mount    *dom.Node
	routes   *router.Table[PageFactory]
	elements *element.Registry
	history  history.History

	renderer scheduler.Renderer
	observed *observedRenderer
	logger   *slog.Logger
	recorder scheduler.Recorder
	reporter scheduler.ErrorReporter
	policy   element.DetachPolicy
	sessOpts []scheduler.Option

	// navMu serializes navigations so at most one page session owns the
	// mount point.
	navMu sync.Mutex

	mu      sync.Mutex
	ctx     context.Context
	current *scheduler.Session
	root    RootRender
	unsub   func()
	closed  bool
}

// New creates an App rendering into the element of doc whose id is
// mountID. It fails with ErrMountTargetMissing, wrapped in a coded error,
// when there is no such element.
func New(doc *dom.Document, mountID string, opts ...Option) (*App, error) {
	mount := doc.GetElementByID(mountID)
	if mount == nil {
		return nil, berrors.New("E102").
			WithDetailf("the document has no element with id %q", mountID).
			WithSuggestion(`Add an element such as <div id="` + mountID + `"></div> before creating the app`).
			Wrap(ErrMountTargetMissing)
	}
	return NewWithMount(mount, opts...)
}

// NewWithMount creates an App rendering into mount.
func NewWithMount(mount *dom.Node, opts ...Option) (*App, error) {
	if mount == nil {
		return nil, berrors.New("E102").Wrap(ErrMountTargetMissing)
	}
	a := &App{
		doc:      mount.Document(),
		mount:    mount,
		history:  history.NewMemory("/"),
		renderer: dom.NewRenderer(),
		logger:   slog.Default(),
		recorder: scheduler.NopRecorder{},
		ctx:      context.Background(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.observed = &observedRenderer{base: a.renderer, subs: make(map[int]func())}
	a.renderer = a.observed
	a.routes = router.New[PageFactory](a.logger)

	sessOpts := append([]scheduler.Option{
		scheduler.WithRecorder(a.recorder),
		scheduler.WithReporter(a.reporter),
	}, a.sessOpts...)
	a.elements = element.NewRegistry(a.doc,
		element.WithRenderer(a.renderer),
		element.WithLogger(a.logger),
		element.WithDetachPolicy(a.policy),
		element.WithSessionOptions(append(sessOpts, scheduler.WithLogger(a.logger))...),
	)
	return a, nil
}

// Page registers a page. Patterns are tried in registration order.
func (a *App) Page(pattern string, factory PageFactory) {
	a.routes.Add(pattern, factory)
}

// Component defines a custom element in the app's document and returns its
// tag name.
func (a *App) Component(def element.Definition) (string, error) {
	tag, err := a.elements.Define(def)
	if err != nil {
		return "", berrors.New("E103").WithDetailf("element %q: %v", def.Name, err).Wrap(err)
	}
	return tag, nil
}

// Document returns the live document.
func (a *App) Document() *dom.Document { return a.doc }

// Mount returns the mount point.
func (a *App) Mount() *dom.Node { return a.mount }

// History returns the navigation history.
func (a *App) History() history.History { return a.history }

// Elements returns the element registry.
func (a *App) Elements() *element.Registry { return a.elements }

// Logger returns the app logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// Routes returns the registered page patterns in priority order.
func (a *App) Routes() []string { return a.routes.Routes() }

// StaticPages returns the registered pages whose patterns have no
// captures.
func (a *App) StaticPages() []router.Route[PageFactory] { return a.routes.Static() }

// Location returns the current history location.
func (a *App) Location() routepath.Location { return a.history.Location() }

// Current returns the page session rendering into the mount point, or nil.
func (a *App) Current() *scheduler.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// OnRender registers fn to run after every tree applied by the app's
// renderer, for pages and elements alike. It returns a function that
// removes fn.
func (a *App) OnRender(fn func()) (remove func()) {
	return a.observed.subscribe(fn)
}

// Start binds the app to ctx, follows history back and forward, and
// navigates to the current history location. Cancelling ctx stops the
// page session.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	a.ctx = ctx
	a.followLocked()
	a.mu.Unlock()

	a.logger.Info("app started", "routes", a.routes.Len(), "mount", a.mount.ID())
	return a.navigate(ctx, a.history.Location())
}

// Close stops following history, stops the page session and then every
// element session, and waits for them to end.
func (a *App) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	cur, unsub := a.current, a.unsub
	a.current, a.unsub = nil, nil
	a.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	if cur != nil {
		cur.Stop()
		<-cur.Done()
	}
	a.elements.Close()
	return nil
}

// followLocked subscribes to history back and forward once.
func (a *App) followLocked() {
	if a.unsub != nil {
		return
	}
	a.unsub = a.history.Subscribe(func(loc routepath.Location) {
		if err := a.navigate(a.baseContext(), loc); err != nil && !errors.Is(err, router.ErrNotFound) {
			a.logger.Error("history navigation failed", "path", loc.Path, "error", err)
		}
	})
}

func (a *App) baseContext() context.Context {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ctx
}

// sessionOptions returns the options of a page session for route.
func (a *App) sessionOptions(route string) []scheduler.Option {
	opts := []scheduler.Option{
		scheduler.WithLogger(a.logger.With("route", route)),
		scheduler.WithLabel(route),
		scheduler.WithRecorder(a.recorder),
		scheduler.WithReporter(a.reporter),
	}
	return append(opts, a.sessOpts...)
}

// observedRenderer notifies subscribers after each successful apply.
type observedRenderer struct {
	base scheduler.Renderer

	mu   sync.Mutex
	subs map[int]func()
	next int
}

func (r *observedRenderer) Apply(mount *dom.Node, tree *vdom.VNode) error {
	if err := r.base.Apply(mount, tree); err != nil {
		return err
	}
	r.mu.Lock()
	fns := make([]func(), 0, len(r.subs))
	for i := 0; i < r.next; i++ {
		if fn, ok := r.subs[i]; ok {
			fns = append(fns, fn)
		}
	}
	r.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
	return nil
}

func (r *observedRenderer) subscribe(fn func()) func() {
	r.mu.Lock()
	id := r.next
	r.next++
	r.subs[id] = fn
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subs, id)
			r.mu.Unlock()
		})
	}
}

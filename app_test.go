package bloom

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	berrors "github.com/bloom-go/bloom/internal/errors"
	"github.com/bloom-go/bloom/pkg/dom"
	"github.com/bloom-go/bloom/pkg/element"
	"github.com/bloom-go/bloom/pkg/history"
	"github.com/bloom-go/bloom/pkg/router"
	"github.com/bloom-go/bloom/pkg/routepath"
	"github.com/bloom-go/bloom/pkg/scheduler"
	"github.com/bloom-go/bloom/pkg/vdom"
)

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func newDoc(t *testing.T) *dom.Document {
	t.Helper()
	doc := dom.NewDocument()
	mount := doc.CreateElement("div")
	mount.SetAttribute("id", "app")
	if err := doc.Body().AppendChild(mount); err != nil {
		t.Fatal(err)
	}
	return doc
}

func newApp(t *testing.T, opts ...Option) *App {
	t.Helper()
	app, err := New(newDoc(t), "app", opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { app.Close() })
	return app
}

// counterPage renders <p id="count"> with the number of previous pulls.
func counterPage(PageContext) scheduler.Producer {
	return scheduler.Generate(func(y *scheduler.Yielder) (*vdom.VNode, error) {
		for count := 0; ; count++ {
			if err := y.Yield(vdom.P(vdom.ID("count"), vdom.Textf("%d", count))); err != nil {
				return nil, err
			}
		}
	})
}

// textPage renders a single paragraph built from the page context.
func textPage(f func(pc PageContext) string) PageFactory {
	return func(pc PageContext) scheduler.Producer {
		return scheduler.Static(vdom.P(vdom.Text(f(pc))))
	}
}

func TestNewMountTargetMissing(t *testing.T) {
	_, err := New(dom.NewDocument(), "app")
	if !errors.Is(err, ErrMountTargetMissing) {
		t.Fatalf("err = %v, want ErrMountTargetMissing", err)
	}
	if got := berrors.CodeOf(err); got != "E102" {
		t.Errorf("code = %q, want E102", got)
	}
	if _, err := NewWithMount(nil); !errors.Is(err, ErrMountTargetMissing) {
		t.Errorf("NewWithMount(nil) err = %v", err)
	}
}

func TestCounterEndToEnd(t *testing.T) {
	ctx := testCtx(t)
	app := newApp(t)
	app.Page("/", counterPage)

	if err := app.Start(ctx); err != nil {
		t.Fatal(err)
	}
	sess := app.Current()
	if sess == nil {
		t.Fatal("no page session after Start")
	}

	app.Render()
	if err := sess.AwaitRenders(ctx, 2); err != nil {
		t.Fatal(err)
	}
	app.Render()
	if err := sess.AwaitRenders(ctx, 3); err != nil {
		t.Fatal(err)
	}

	if got, want := app.Mount().InnerHTML(), `<p id="count">2</p>`; got != want {
		t.Errorf("mount = %q, want %q", got, want)
	}
	if got := sess.Renders(); got != 3 {
		t.Errorf("Renders = %d, want 3", got)
	}
}

func TestGotoParamsAndQuery(t *testing.T) {
	ctx := testCtx(t)
	app := newApp(t)

	var got PageContext
	app.Page("/orgs/:org/users/:user", func(pc PageContext) scheduler.Producer {
		got = pc
		return scheduler.Static(vdom.P(vdom.Textf("%s/%s", pc.Param("org"), pc.Param("user"))))
	})

	if err := app.Goto(ctx, "/orgs/acme/users/john%40example.com", map[string]string{"q": "test", "sort": "desc"}); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(map[string]string{"org": "acme", "user": "john@example.com"}, got.Params); diff != "" {
		t.Errorf("Params mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]string{"q": "test", "sort": "desc"}, got.Query); diff != "" {
		t.Errorf("Query mismatch (-want +got):\n%s", diff)
	}
	if got.App != app {
		t.Error("PageContext.App not set")
	}
	if loc := app.Location(); loc.String() != "/orgs/acme/users/john%40example.com?q=test&sort=desc" {
		t.Errorf("history location = %q", loc.String())
	}
	if text := app.Mount().TextContent(); text != "acme/john@example.com" {
		t.Errorf("content = %q", text)
	}
}

func TestGotoQueryEdgeCases(t *testing.T) {
	ctx := testCtx(t)
	app := newApp(t)

	var query map[string]string
	app.Page("/search", func(pc PageContext) scheduler.Producer {
		query = pc.Query
		return scheduler.Static(vdom.P())
	})

	tests := []struct {
		url  string
		want map[string]string
	}{
		{"/search", map[string]string{}},
		{"/search?q=&sort=", map[string]string{"q": "", "sort": ""}},
		{"/search?q=a+b#results", map[string]string{"q": "a b"}},
	}
	for _, tt := range tests {
		if err := app.Goto(ctx, tt.url, nil); err != nil {
			t.Fatalf("Goto(%q): %v", tt.url, err)
		}
		if diff := cmp.Diff(tt.want, query); diff != "" {
			t.Errorf("Goto(%q) query mismatch (-want +got):\n%s", tt.url, diff)
		}
	}
}

func TestFirstRegisteredRouteWins(t *testing.T) {
	ctx := testCtx(t)
	app := newApp(t)
	app.Page("/users/:id", textPage(func(pc PageContext) string { return "user " + pc.Param("id") }))
	app.Page("/users/me", textPage(func(PageContext) string { return "me" }))

	if err := app.Goto(ctx, "/users/me", nil); err != nil {
		t.Fatal(err)
	}
	if text := app.Mount().TextContent(); text != "user me" {
		t.Errorf("content = %q, want %q", text, "user me")
	}
	if diff := cmp.Diff([]string{"/users/:id", "/users/me"}, app.Routes()); diff != "" {
		t.Errorf("Routes mismatch (-want +got):\n%s", diff)
	}
}

type missRecorder struct {
	scheduler.NopRecorder
	mu     sync.Mutex
	misses []string
}

func (r *missRecorder) RouteMiss(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.misses = append(r.misses, path)
}

func TestGotoMissKeepsContent(t *testing.T) {
	ctx := testCtx(t)
	rec := &missRecorder{}
	app := newApp(t, WithRecorder(rec))
	app.Page("/about", textPage(func(PageContext) string { return "about" }))

	if err := app.Goto(ctx, "/about", nil); err != nil {
		t.Fatal(err)
	}
	before := app.Current()

	for _, path := range []string{"/about/", "/nowhere"} {
		err := app.Goto(ctx, path, nil)
		if !errors.Is(err, router.ErrNotFound) {
			t.Errorf("Goto(%q) err = %v, want ErrNotFound", path, err)
		}
	}
	if text := app.Mount().TextContent(); text != "about" {
		t.Errorf("content = %q, want about", text)
	}
	if app.Current() != before || before.State() == scheduler.StateTerminated {
		t.Error("a routing miss must leave the running session alone")
	}
	if diff := cmp.Diff([]string{"/about/", "/nowhere"}, rec.misses); diff != "" {
		t.Errorf("misses mismatch (-want +got):\n%s", diff)
	}
}

func TestGotoStopsOutgoingSession(t *testing.T) {
	ctx := testCtx(t)
	app := newApp(t)
	app.Page("/", counterPage)
	app.Page("/other", textPage(func(PageContext) string { return "other" }))

	if err := app.Start(ctx); err != nil {
		t.Fatal(err)
	}
	old := app.Current()
	if err := app.Goto(ctx, "/other", nil); err != nil {
		t.Fatal(err)
	}

	if old.State() != scheduler.StateTerminated || old.Reason() != scheduler.ReasonStopped {
		t.Errorf("old session state = %v reason = %v", old.State(), old.Reason())
	}
	if app.Current() == old {
		t.Error("Current still returns the old session")
	}
	old.Trigger()
	if n := old.Renders(); n != 1 {
		t.Errorf("old session renders = %d, want 1", n)
	}
	if text := app.Mount().TextContent(); text != "other" {
		t.Errorf("content = %q, want other", text)
	}
}

func TestHistoryBackNavigates(t *testing.T) {
	ctx := testCtx(t)
	hist := history.NewMemory("/")
	app := newApp(t, WithHistory(hist))
	app.Page("/", textPage(func(PageContext) string { return "home" }))
	app.Page("/city/:name", textPage(func(pc PageContext) string { return "city " + pc.Param("name") }))

	if err := app.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := app.Goto(ctx, "/city/paris", nil); err != nil {
		t.Fatal(err)
	}
	if text := app.Mount().TextContent(); text != "city paris" {
		t.Fatalf("content = %q", text)
	}

	if !hist.Back() {
		t.Fatal("Back() = false")
	}
	if text := app.Mount().TextContent(); text != "home" {
		t.Errorf("after Back content = %q, want home", text)
	}
	if !hist.Forward() {
		t.Fatal("Forward() = false")
	}
	if text := app.Mount().TextContent(); text != "city paris" {
		t.Errorf("after Forward content = %q, want city paris", text)
	}
}

func TestProducerFailureIsReported(t *testing.T) {
	ctx := testCtx(t)
	var reported atomic.Pointer[scheduler.ProducerError]
	app := newApp(t, WithReporter(scheduler.ReporterFunc(func(err *scheduler.ProducerError) {
		reported.Store(err)
	})))
	app.Page("/", textPage(func(PageContext) string { return "home" }))
	app.Page("/broken", func(PageContext) scheduler.Producer {
		return scheduler.ProducerFunc(func(context.Context) (scheduler.Step, error) {
			panic("boom")
		})
	})

	if err := app.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := app.Goto(ctx, "/broken", nil); err != nil {
		t.Fatalf("Goto should not return producer failures, got %v", err)
	}

	perr := reported.Load()
	if perr == nil {
		t.Fatal("failure was not reported")
	}
	var pe *scheduler.PanicError
	if perr.Label != "/broken" || perr.Op != "pull" || !errors.As(perr, &pe) {
		t.Errorf("reported %+v", perr)
	}
	if text := app.Mount().TextContent(); text != "home" {
		t.Errorf("content = %q, want previous content", text)
	}
	if s := app.Current(); s.Reason() != scheduler.ReasonFailed {
		t.Errorf("Reason = %v, want failed", s.Reason())
	}
}

func TestPageWithoutProducer(t *testing.T) {
	ctx := testCtx(t)
	app := newApp(t)
	app.Page("/", func(PageContext) scheduler.Producer { return nil })

	if err := app.Start(ctx); !errors.Is(err, ErrNoContent) {
		t.Errorf("Start err = %v, want ErrNoContent", err)
	}
}

func TestInitRouter(t *testing.T) {
	ctx := testCtx(t)
	hist := history.NewMemory("/")
	app := newApp(t, WithHistory(hist))

	var calls atomic.Int32
	err := app.InitRouter(func(loc routepath.Location) *vdom.VNode {
		calls.Add(1)
		return vdom.Either(
			loc.Match("/", func(_, _ map[string]string) *vdom.VNode {
				return vdom.P(vdom.Text("home"))
			}),
			loc.Match("/city/:name", func(params, query map[string]string) *vdom.VNode {
				return vdom.P(vdom.Textf("%s %s", params["name"], query["units"]))
			}),
		)
	})
	if err != nil {
		t.Fatal(err)
	}
	if text := app.Mount().TextContent(); text != "home" {
		t.Fatalf("initial content = %q", text)
	}

	for _, tt := range []struct{ path, want string }{
		{"/city/paris?units=metric", "paris metric"},
		{"/city/tokyo?units=imperial", "tokyo imperial"},
		{"/", "home"},
	} {
		if err := app.Goto(ctx, tt.path, nil); err != nil {
			t.Fatalf("Goto(%q): %v", tt.path, err)
		}
		if text := app.Mount().TextContent(); text != tt.want {
			t.Errorf("Goto(%q) content = %q, want %q", tt.path, text, tt.want)
		}
	}

	hist.Back()
	if text := app.Mount().TextContent(); text != "tokyo imperial" {
		t.Errorf("after Back content = %q", text)
	}

	before := calls.Load()
	app.Render()
	if calls.Load() != before+1 {
		t.Error("Render should invoke the root callback")
	}
}

func TestInitRouterFailureKeepsContent(t *testing.T) {
	ctx := testCtx(t)
	var reports atomic.Int32
	app := newApp(t, WithReporter(scheduler.ReporterFunc(func(*scheduler.ProducerError) {
		reports.Add(1)
	})))

	if err := app.InitRouter(func(loc routepath.Location) *vdom.VNode {
		switch loc.Path {
		case "/panic":
			panic("render failed")
		case "/nil":
			return nil
		}
		return vdom.P(vdom.Text("ok"))
	}); err != nil {
		t.Fatal(err)
	}

	if err := app.Goto(ctx, "/panic", nil); err == nil {
		t.Error("Goto(/panic) should report the failure")
	}
	if err := app.Goto(ctx, "/nil", nil); !errors.Is(err, ErrNoContent) {
		t.Errorf("Goto(/nil) err = %v, want ErrNoContent", err)
	}
	if text := app.Mount().TextContent(); text != "ok" {
		t.Errorf("content = %q, want ok", text)
	}
	if reports.Load() != 2 {
		t.Errorf("reports = %d, want 2", reports.Load())
	}
}

func TestInitRouterStopsPageSession(t *testing.T) {
	ctx := testCtx(t)
	app := newApp(t)
	app.Page("/", counterPage)
	if err := app.Start(ctx); err != nil {
		t.Fatal(err)
	}
	sess := app.Current()

	if err := app.InitRouter(func(routepath.Location) *vdom.VNode { return vdom.P(vdom.Text("root")) }); err != nil {
		t.Fatal(err)
	}
	if sess.State() != scheduler.StateTerminated {
		t.Errorf("page session state = %v, want terminated", sess.State())
	}
	if app.Current() != nil {
		t.Error("Current should be nil under a root render callback")
	}
}

func TestComponentInsidePage(t *testing.T) {
	ctx := testCtx(t)
	app := newApp(t)

	tag, err := app.Component(element.Definition{
		Name:  "greeting",
		Props: []element.Prop{element.String("name", "world")},
		Producer: func(el *element.Element, _ map[string]string) scheduler.Producer {
			return scheduler.Generate(func(y *scheduler.Yielder) (*vdom.VNode, error) {
				for {
					if err := y.Yield(vdom.Span(vdom.Textf("hello %s", el.String("name")))); err != nil {
						return nil, err
					}
				}
			})
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if tag != "bloom-greeting" {
		t.Errorf("tag = %q", tag)
	}
	if _, err := app.Component(element.Definition{Name: "greeting", Producer: func(*element.Element, map[string]string) scheduler.Producer { return nil }}); berrors.CodeOf(err) != "E103" || !errors.Is(err, element.ErrAlreadyDefined) {
		t.Errorf("duplicate Component err = %v", err)
	}

	app.Page("/", func(PageContext) scheduler.Producer {
		return scheduler.Static(vdom.Div(vdom.El(tag, vdom.ID("g"), vdom.Attribute("name", "bloom"))))
	})
	if err := app.Start(ctx); err != nil {
		t.Fatal(err)
	}

	host := app.Document().GetElementByID("g")
	el, ok := element.FromNode(host)
	if !ok {
		t.Fatal("host is not an element")
	}
	if err := el.Session().AwaitRenders(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if text := host.TextContent(); text != "hello bloom" {
		t.Errorf("element content = %q", text)
	}
}

func TestSnapshot(t *testing.T) {
	ctx := testCtx(t)
	app := newApp(t)
	app.Page("/", counterPage)
	app.Page("/city/:name", textPage(func(pc PageContext) string { return pc.Param("name") }))

	tree, err := app.Snapshot(ctx, "/city/lagos")
	if err != nil {
		t.Fatal(err)
	}
	if tree.String() != `p["lagos"]` {
		t.Errorf("Snapshot = %s", tree)
	}
	if _, err := app.Snapshot(ctx, "/missing"); !errors.Is(err, router.ErrNotFound) {
		t.Errorf("Snapshot(/missing) err = %v", err)
	}
	if app.Mount().InnerHTML() != "" {
		t.Error("Snapshot must not touch the mount point")
	}

	static := app.StaticPages()
	if len(static) != 1 || static[0].Pattern != "/" {
		t.Errorf("StaticPages = %v", static)
	}
}

func TestOnRender(t *testing.T) {
	ctx := testCtx(t)
	app := newApp(t)
	app.Page("/", counterPage)

	var renders atomic.Int32
	remove := app.OnRender(func() { renders.Add(1) })
	if err := app.Start(ctx); err != nil {
		t.Fatal(err)
	}
	app.Render()
	if err := app.Current().AwaitRenders(ctx, 2); err != nil {
		t.Fatal(err)
	}
	remove()
	app.Render()
	if err := app.Current().AwaitRenders(ctx, 3); err != nil {
		t.Fatal(err)
	}
	if got := renders.Load(); got != 2 {
		t.Errorf("observed renders = %d, want 2", got)
	}
}

func TestClose(t *testing.T) {
	ctx := testCtx(t)
	app := newApp(t)
	app.Page("/", counterPage)
	if err := app.Start(ctx); err != nil {
		t.Fatal(err)
	}
	sess := app.Current()

	if err := app.Close(); err != nil {
		t.Fatal(err)
	}
	if sess.State() != scheduler.StateTerminated {
		t.Errorf("state = %v, want terminated", sess.State())
	}
	if err := app.Goto(ctx, "/", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Goto after Close err = %v", err)
	}
	if err := app.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
}

func TestStartContextCancelStopsSession(t *testing.T) {
	app := newApp(t)
	app.Page("/", counterPage)
	ctx, cancel := context.WithCancel(context.Background())
	if err := app.Start(ctx); err != nil {
		t.Fatal(err)
	}
	sess := app.Current()
	cancel()
	select {
	case <-sess.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not stop when the app context ended")
	}
	if !strings.Contains(app.Mount().InnerHTML(), "0") {
		t.Errorf("content should survive cancellation: %q", app.Mount().InnerHTML())
	}
}

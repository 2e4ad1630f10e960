package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bloom-go/bloom"
	"github.com/bloom-go/bloom/pkg/dom"
	"github.com/bloom-go/bloom/pkg/metrics"
	"github.com/bloom-go/bloom/pkg/scheduler"
	"github.com/bloom-go/bloom/pkg/vdom"
)

type fixture struct {
	app  *bloom.App
	srv  *Server
	http *httptest.Server
	reg  *prometheus.Registry
}

// newFixture serves an app with a click counter on "/" and a static
// "/about" page.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	doc := dom.NewDocument()
	mount := doc.CreateElement("div")
	mount.SetAttribute("id", "app")
	doc.Body().AppendChild(mount)

	reg := prometheus.NewRegistry()
	app, err := bloom.New(doc, "app", bloom.WithRecorder(metrics.New(metrics.WithRegistry(reg))))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { app.Close() })

	app.Page("/", func(pc bloom.PageContext) scheduler.Producer {
		return scheduler.Generate(func(y *scheduler.Yielder) (*vdom.VNode, error) {
			clicks := make(chan struct{}, 16)
			n := 0
			for {
				tree := vdom.Div(
					vdom.P(vdom.ID("count"), vdom.Textf("%d", n)),
					vdom.Button(vdom.ID("inc"), vdom.OnClick(func() {
						clicks <- struct{}{}
						pc.App.Render()
					})),
				)
				if err := y.Yield(tree); err != nil {
					return nil, err
				}
				for len(clicks) > 0 {
					<-clicks
					n++
				}
			}
		})
	})
	app.Page("/about", func(bloom.PageContext) scheduler.Producer {
		return scheduler.Static(vdom.P(vdom.ID("about"), vdom.Text("about <us>")))
	})
	if err := app.Start(ctx); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	cfg.Title = "Test"
	cfg.Gatherer = reg
	srv := New(app, cfg)
	t.Cleanup(func() { srv.Close() })

	hs := httptest.NewServer(srv)
	t.Cleanup(hs.Close)
	return &fixture{app: app, srv: srv, http: hs, reg: reg}
}

func (f *fixture) get(t *testing.T, path string) (int, string) {
	t.Helper()
	resp, err := http.Get(f.http.URL + path)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func (f *fixture) post(t *testing.T, path, contentType, body string) (int, string) {
	t.Helper()
	resp, err := http.Post(f.http.URL+path, contentType, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(data)
}

func TestPageAndSnapshot(t *testing.T) {
	f := newFixture(t)

	status, body := f.get(t, "/")
	if status != http.StatusOK {
		t.Fatalf("GET / status = %d", status)
	}
	for _, want := range []string{
		"<title>Test</title>",
		`<div id="app"><div><p id="count">0</p><button id="inc"></button></div></div>`,
		`new WebSocket(`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("GET / missing %q in:\n%s", want, body)
		}
	}

	status, body = f.get(t, "/snapshot")
	if status != http.StatusOK || body != `<div><p id="count">0</p><button id="inc"></button></div>` {
		t.Errorf("GET /snapshot = %d %q", status, body)
	}

	if status, body := f.get(t, "/healthz"); status != http.StatusOK || body != "ok" {
		t.Errorf("GET /healthz = %d %q", status, body)
	}
}

func TestNavigate(t *testing.T) {
	f := newFixture(t)

	status, body := f.post(t, "/navigate", "application/x-www-form-urlencoded",
		url.Values{"path": {"/about"}, "query": {"ref=test"}}.Encode())
	if status != http.StatusOK {
		t.Fatalf("POST /navigate status = %d body = %s", status, body)
	}
	var nav navigateResponse
	if err := json.Unmarshal([]byte(body), &nav); err != nil {
		t.Fatal(err)
	}
	if nav.Location != "/about?ref=test" {
		t.Errorf("location = %q", nav.Location)
	}
	if _, snap := f.get(t, "/snapshot"); snap != `<p id="about">about &lt;us&gt;</p>` {
		t.Errorf("snapshot = %q", snap)
	}

	status, _ = f.post(t, "/navigate", "application/x-www-form-urlencoded", "path=/missing")
	if status != http.StatusNotFound {
		t.Errorf("miss status = %d, want 404", status)
	}
	if _, snap := f.get(t, "/snapshot"); !strings.Contains(snap, "about") {
		t.Errorf("a miss changed the content: %q", snap)
	}

	status, _ = f.post(t, "/navigate", "application/x-www-form-urlencoded", "path=about")
	if status != http.StatusBadRequest {
		t.Errorf("relative path status = %d, want 400", status)
	}
}

func TestEvents(t *testing.T) {
	f := newFixture(t)
	sess := f.app.Current()

	status, _ := f.post(t, "/events", "application/json", `{"type":"click","target":"inc"}`)
	if status != http.StatusNoContent {
		t.Fatalf("click status = %d", status)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := sess.AwaitRenders(ctx, 2); err != nil {
		t.Fatal(err)
	}
	if got := f.app.Document().GetElementByID("count").TextContent(); got != "1" {
		t.Errorf("count = %q, want 1", got)
	}

	tests := []struct {
		body string
		want int
	}{
		{`{"type":"click","target":"nope"}`, http.StatusNotFound},
		{`{"type":"click","target":"count"}`, http.StatusUnprocessableEntity},
		{`{"type":"click"}`, http.StatusBadRequest},
		{`not json`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		if status, _ := f.post(t, "/events", "application/json", tt.body); status != tt.want {
			t.Errorf("POST /events %s status = %d, want %d", tt.body, status, tt.want)
		}
	}
}

func TestLivePushesSnapshots(t *testing.T) {
	f := newFixture(t)

	wsURL := "ws" + strings.TrimPrefix(f.http.URL, "http") + "/live"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(msg), `<p id="count">0</p>`) {
		t.Errorf("initial message = %q", msg)
	}

	if status, _ := f.post(t, "/events", "application/json", `{"type":"click","target":"inc"}`); status != http.StatusNoContent {
		t.Fatalf("click status = %d", status)
	}
	for {
		_, msg, err = conn.ReadMessage()
		if err != nil {
			t.Fatalf("no snapshot after click: %v", err)
		}
		if strings.Contains(string(msg), `<p id="count">1</p>`) {
			break
		}
	}
	if f.srv.LiveClients() != 1 {
		t.Errorf("LiveClients = %d, want 1", f.srv.LiveClients())
	}
}

func TestConcurrentRendersPushLatestSnapshot(t *testing.T) {
	f := newFixture(t)

	c := &liveClient{send: make(chan []byte, 1), done: make(chan struct{})}
	f.srv.hub.add(c)
	defer func() {
		f.srv.hub.mu.Lock()
		delete(f.srv.hub.clients, c)
		f.srv.hub.mu.Unlock()
	}()

	count := f.app.Document().GetElementByID("count")
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			count.SetTextContent(strconv.Itoa(i))
			f.srv.publish()
		}(i)
	}
	wg.Wait()

	want := f.app.Mount().InnerHTML()
	select {
	case got := <-c.send:
		if string(got) != want {
			t.Errorf("last pushed snapshot = %q, want %q", got, want)
		}
	default:
		t.Fatal("nothing pushed")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.post(t, "/navigate", "application/x-www-form-urlencoded", "path=/missing")

	status, body := f.get(t, "/metrics")
	if status != http.StatusOK {
		t.Fatalf("GET /metrics status = %d", status)
	}
	for _, want := range []string{
		`bloom_sessions_started_total{label="/"} 1`,
		`bloom_route_misses_total 1`,
		`bloom_active_sessions 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestMetricsDisabled(t *testing.T) {
	doc := dom.NewDocument()
	mount := doc.CreateElement("div")
	doc.Body().AppendChild(mount)
	app, err := bloom.NewWithMount(mount)
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.MetricsPath = ""
	srv := New(app, cfg)
	defer srv.Close()

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET /metrics status = %d, want 404", rec.Code)
	}
}

func TestServeShutsDownWithContext(t *testing.T) {
	f := newFixture(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- f.srv.Serve(ctx, ln) }()

	var resp *http.Response
	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err = http.Get("http://" + ln.Addr().String() + "/healthz")
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never answered: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Serve = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

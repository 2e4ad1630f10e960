package render

import (
	"strings"
	"testing"

	"github.com/bloom-go/bloom/pkg/vdom"
)

func TestRenderToString(t *testing.T) {
	r := NewRenderer(RendererConfig{})

	tests := []struct {
		name string
		node *vdom.VNode
		want string
	}{
		{"nil", nil, ""},
		{"text escaped", vdom.Text("a < b & c"), "a &lt; b &amp; c"},
		{"raw", vdom.Raw("<b>x</b>"), "<b>x</b>"},
		{
			"element with attrs",
			vdom.Div(vdom.ID("main"), vdom.Class("a", "b"), "hi"),
			`<div class="a b" id="main">hi</div>`,
		},
		{
			"boolean attrs",
			vdom.Input(vdom.Disabled(true), vdom.Checked(false)),
			`<input disabled>`,
		},
		{
			"handlers are not rendered",
			vdom.Button(vdom.OnClick(func() {}), "go"),
			`<button>go</button>`,
		},
		{
			"fragment flattens",
			vdom.Fragment(vdom.P("1"), vdom.P("2")),
			`<p>1</p><p>2</p>`,
		},
		{
			"attribute escaping",
			vdom.A(vdom.Href(`/x?a="b"`)),
			`<a href="/x?a=&quot;b&quot;"></a>`,
		},
		{
			"numeric attribute",
			vdom.El("bloom-counter", vdom.Attribute("count", 3)),
			`<bloom-counter count="3"></bloom-counter>`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := r.RenderToString(tc.node)
			if err != nil {
				t.Fatalf("RenderToString: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRenderPretty(t *testing.T) {
	r := NewRenderer(RendererConfig{Pretty: true})
	got, err := r.RenderToString(vdom.Div(vdom.P("x")))
	if err != nil {
		t.Fatal(err)
	}
	want := "<div>\n  <p>x</p>\n</div>\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderPage(t *testing.T) {
	var b strings.Builder
	err := RenderPage(&b, PageData{Title: "A & B", Body: "<p>x</p>", LiveURL: "/live", EventsURL: "/events"})
	if err != nil {
		t.Fatal(err)
	}
	out := b.String()
	for _, want := range []string{
		"<title>A &amp; B</title>",
		`<div id="app"><p>x</p></div>`,
		`"/live"`,
		`"/events"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("page missing %q:\n%s", want, out)
		}
	}
}

func TestRenderPageWithoutLive(t *testing.T) {
	var b strings.Builder
	if err := RenderPage(&b, PageData{MountID: "root"}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(b.String(), "<script>") {
		t.Error("static page must not include the live script")
	}
	if !strings.Contains(b.String(), `<div id="root"></div>`) {
		t.Errorf("mount missing:\n%s", b.String())
	}
}

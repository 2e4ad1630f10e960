package dom

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// recorder is a custom element that logs its reactions.
type recorder struct {
	host *Node
	log  *[]string
}

func (r *recorder) Connected()    { *r.log = append(*r.log, "connected") }
func (r *recorder) Disconnected() { *r.log = append(*r.log, "disconnected") }
func (r *recorder) AttributeChanged(ch AttributeChange) {
	if ch.Removed {
		*r.log = append(*r.log, "removed "+ch.Name)
		return
	}
	*r.log = append(*r.log, "attr "+ch.Name+"="+ch.New)
}

func defineRecorder(t *testing.T, d *Document, name string, log *[]string) {
	t.Helper()
	err := d.Define(Definition{
		Name:     name,
		Observed: []string{"count"},
		New: func(host *Node) Reactions {
			return &recorder{host: host, log: log}
		},
	})
	if err != nil {
		t.Fatalf("Define: %v", err)
	}
}

func TestDefineErrors(t *testing.T) {
	d := NewDocument()
	var log []string
	defineRecorder(t, d, "x-rec", &log)

	if err := d.Define(Definition{Name: "x-rec", New: func(*Node) Reactions { return nil }}); !errors.Is(err, ErrAlreadyDefined) {
		t.Errorf("duplicate Define err = %v, want ErrAlreadyDefined", err)
	}
	if err := d.Define(Definition{Name: "plain", New: func(*Node) Reactions { return nil }}); !errors.Is(err, ErrInvalidName) {
		t.Errorf("Define(plain) err = %v, want ErrInvalidName", err)
	}
	if !d.Defined("X-REC") {
		t.Error("Defined should be case-insensitive")
	}
}

func TestReactionsOrder(t *testing.T) {
	d := NewDocument()
	var log []string
	defineRecorder(t, d, "x-rec", &log)

	el := d.CreateElement("x-rec")
	el.SetAttribute("count", "1")
	el.SetAttribute("other", "ignored")
	if err := d.Body().AppendChild(el); err != nil {
		t.Fatal(err)
	}
	el.SetAttribute("count", "1")
	el.RemoveAttribute("count")
	el.RemoveAttribute("count")
	el.Remove()

	want := []string{"attr count=1", "connected", "attr count=1", "removed count", "disconnected"}
	if diff := cmp.Diff(want, log); diff != "" {
		t.Errorf("reactions mismatch (-want +got):\n%s", diff)
	}
}

func TestDefineUpgradesConnectedElements(t *testing.T) {
	d := NewDocument()
	el := d.CreateElement("x-late")
	el.SetAttribute("count", "3")
	d.Body().AppendChild(el)

	detached := d.CreateElement("x-late")

	var log []string
	defineRecorder(t, d, "x-late", &log)
	if diff := cmp.Diff([]string{"attr count=3", "connected"}, log); diff != "" {
		t.Errorf("upgrade mismatch (-want +got):\n%s", diff)
	}
	if detached.Reactions() != nil {
		t.Error("detached element upgraded before connection")
	}

	log = nil
	d.Body().AppendChild(detached)
	if diff := cmp.Diff([]string{"connected"}, log); diff != "" {
		t.Errorf("upgrade on connect mismatch (-want +got):\n%s", diff)
	}
}

// selfWriter mutates its own host from a reaction.
type selfWriter struct {
	host *Node
	seen []string
}

func (s *selfWriter) Connected() {
	if !s.host.HasAttribute("count") {
		s.host.SetAttribute("count", "0")
	}
	s.host.SetTextContent("hello")
}
func (s *selfWriter) Disconnected() {}
func (s *selfWriter) AttributeChanged(ch AttributeChange) {
	s.seen = append(s.seen, ch.New)
}

func TestReactionMayMutateDocument(t *testing.T) {
	d := NewDocument()
	var inst *selfWriter
	d.Define(Definition{
		Name:     "x-self",
		Observed: []string{"count"},
		New: func(host *Node) Reactions {
			inst = &selfWriter{host: host}
			return inst
		},
	})

	el := d.CreateElement("x-self")
	d.Body().AppendChild(el)

	if got := el.TextContent(); got != "hello" {
		t.Errorf("TextContent = %q, want hello", got)
	}
	if diff := cmp.Diff([]string{"0"}, inst.seen); diff != "" {
		t.Errorf("seen mismatch (-want +got):\n%s", diff)
	}
}

type panicky struct{}

func (panicky) Connected()                       { panic("boom") }
func (panicky) Disconnected()                    {}
func (panicky) AttributeChanged(AttributeChange) {}

func TestPanickingReactionIsContained(t *testing.T) {
	d := NewDocument()
	d.Define(Definition{Name: "x-panic", New: func(*Node) Reactions { return panicky{} }})

	el := d.CreateElement("x-panic")
	d.Body().AppendChild(el)
	if !el.IsConnected() {
		t.Error("element should stay connected after a panicking reaction")
	}
}

func TestTreeErrors(t *testing.T) {
	d := NewDocument()
	other := NewDocument()
	a := d.CreateElement("div")
	b := d.CreateElement("div")

	if err := a.AppendChild(other.CreateElement("p")); !errors.Is(err, ErrWrongDoc) {
		t.Errorf("cross-document append err = %v", err)
	}
	a.AppendChild(b)
	if err := b.AppendChild(a); !errors.Is(err, ErrHierarchy) {
		t.Errorf("cycle err = %v", err)
	}
	if err := a.RemoveChild(d.CreateElement("p")); !errors.Is(err, ErrNotChild) {
		t.Errorf("RemoveChild err = %v", err)
	}
	if err := d.CreateTextNode("x").AppendChild(a); !errors.Is(err, ErrHierarchy) {
		t.Errorf("append to text err = %v", err)
	}
}

func TestInsertBeforeMoves(t *testing.T) {
	d := NewDocument()
	list := d.CreateElement("ul")
	one, two := d.CreateElement("li"), d.CreateElement("li")
	one.SetAttribute("id", "1")
	two.SetAttribute("id", "2")
	list.AppendChild(one)
	list.AppendChild(two)
	list.InsertBefore(two, one)

	if got := list.OuterHTML(); got != `<ul><li id="2"></li><li id="1"></li></ul>` {
		t.Errorf("OuterHTML = %s", got)
	}
}

func TestShadowConnectivity(t *testing.T) {
	d := NewDocument()
	host := d.CreateElement("div")
	root, err := host.AttachShadow()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := host.AttachShadow(); !errors.Is(err, ErrShadowExists) {
		t.Errorf("second AttachShadow err = %v", err)
	}
	inner := d.CreateElement("p")
	root.AppendChild(inner)

	if inner.IsConnected() {
		t.Error("inner connected before host")
	}
	d.Body().AppendChild(host)
	if !inner.IsConnected() {
		t.Error("inner not connected through host")
	}
	if root.Host() != host || host.ShadowRoot() != root {
		t.Error("shadow links broken")
	}
}

func TestGetElementByID(t *testing.T) {
	d := NewDocument()
	el := d.CreateElement("section")
	el.SetAttribute("id", "user:1")
	d.Body().AppendChild(el)
	if d.GetElementByID("user:1") != el {
		t.Error("GetElementByID did not find element")
	}
	if d.GetElementByID("missing") != nil {
		t.Error("GetElementByID found a missing element")
	}
}

func TestLookupIDEntersShadowRoots(t *testing.T) {
	d := NewDocument()
	host := d.CreateElement("div")
	d.Body().AppendChild(host)
	root, err := host.AttachShadow()
	if err != nil {
		t.Fatal(err)
	}
	btn := d.CreateElement("button")
	btn.SetAttribute("id", "inc")
	root.AppendChild(btn)

	if d.GetElementByID("inc") != nil {
		t.Error("GetElementByID should not look into shadow roots")
	}
	if d.LookupID("inc") != btn {
		t.Error("LookupID did not find the shadow button")
	}
	if d.LookupID("missing") != nil {
		t.Error("LookupID found a missing element")
	}
}

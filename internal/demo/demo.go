// Package demo is the sample application served by `bloom serve`: a home
// page with a counter element, one page per city and a goodbye page.
package demo

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/bloom-go/bloom"
	"github.com/bloom-go/bloom/pkg/element"
	"github.com/bloom-go/bloom/pkg/scheduler"
	"github.com/bloom-go/bloom/pkg/vdom"
)

// Cities are linked from the home page.
var Cities = []string{"paris", "tokyo", "lagos"}

// CounterTag is the tag of the counter element.
const CounterTag = "bloom-counter"

// Register installs the demo pages and elements into app.
func Register(app *bloom.App) error {
	if _, err := app.Component(Counter()); err != nil {
		return err
	}
	app.Page("/", Home)
	app.Page("/city/:name", City)
	app.Page("/goodbye", Goodbye)
	return nil
}

// Home counts clicks on its button and hosts a counter element.
func Home(pc bloom.PageContext) scheduler.Producer {
	return scheduler.Generate(func(y *scheduler.Yielder) (*vdom.VNode, error) {
		var clicks atomic.Int64
		increment := func() {
			clicks.Add(1)
			pc.App.Render()
		}
		for {
			tree := vdom.Div(vdom.ID("home"),
				vdom.H1(vdom.Text("Bloom")),
				vdom.P(vdom.ID("count"), vdom.Textf("%d", clicks.Load())),
				vdom.Button(vdom.ID("increment"), vdom.OnClick(increment), vdom.Text("Increment")),
				vdom.El(CounterTag, vdom.ID("stars"), vdom.Attribute("label", "Stars")),
				vdom.Nav(vdom.Ul(cityLinks(pc.App)...)),
			)
			if err := y.Yield(tree); err != nil {
				return nil, err
			}
		}
	})
}

func cityLinks(app *bloom.App) []any {
	items := make([]any, 0, len(Cities))
	for _, city := range Cities {
		items = append(items, vdom.Li(vdom.Key(city),
			vdom.Button(vdom.ID("goto-"+city), vdom.OnClick(navigate(app, "/city/"+city, nil)), vdom.Text(title(city))),
		))
	}
	return items
}

// City greets the visitor and counts how often the page re-rendered.
func City(pc bloom.PageContext) scheduler.Producer {
	name := title(pc.Param("name"))
	return scheduler.Generate(func(y *scheduler.Yielder) (*vdom.VNode, error) {
		var likes atomic.Int64
		like := func() {
			likes.Add(1)
			pc.App.Render()
		}
		for {
			tree := vdom.Div(vdom.ID("city"),
				vdom.H1(vdom.Textf("Welcome to %s", name)),
				vdom.If(pc.QueryParam("ref") != "", vdom.P(vdom.ID("ref"), vdom.Textf("via %s", pc.QueryParam("ref")))),
				vdom.P(vdom.ID("likes"), vdom.Textf("%d", likes.Load())),
				vdom.Button(vdom.ID("like"), vdom.OnClick(like), vdom.Text("Like")),
				vdom.Button(vdom.ID("leave"), vdom.OnClick(navigate(pc.App, "/goodbye", map[string]string{"from": name})), vdom.Text("Leave")),
			)
			if err := y.Yield(tree); err != nil {
				return nil, err
			}
		}
	})
}

// Goodbye renders once and ends.
func Goodbye(pc bloom.PageContext) scheduler.Producer {
	from := pc.QueryParam("from")
	return scheduler.ProducerFunc(func(context.Context) (scheduler.Step, error) {
		return scheduler.Step{
			Tree: vdom.Div(vdom.ID("goodbye"),
				vdom.H1(vdom.Text("Goodbye")),
				vdom.If(from != "", vdom.P(vdom.ID("from"), vdom.Textf("Thanks for visiting %s", from))),
				vdom.Button(vdom.ID("back-home"), vdom.OnClick(navigate(pc.App, "/", nil)), vdom.Text("Home")),
			),
			Done: true,
		}, nil
	})
}

// Counter is a self-contained element that keeps its count in an
// attribute, so the count survives detaching and re-attaching.
func Counter() element.Definition {
	return element.Definition{
		Name: "counter",
		Props: []element.Prop{
			element.Number("count", 0),
			element.String("label", "Count"),
		},
		Producer: func(el *element.Element, attrs map[string]string) scheduler.Producer {
			prefix := attrs["id"]
			if prefix == "" {
				prefix = CounterTag
			}
			increment := func() {
				if err := el.Set("count", el.Number("count")+1); err != nil {
					el.Host().Document().Logger().Warn("counter increment failed", "error", err)
				}
			}
			return scheduler.Generate(func(y *scheduler.Yielder) (*vdom.VNode, error) {
				for {
					tree := vdom.Span(vdom.Class("counter"),
						vdom.Span(vdom.ID(prefix+"-value"), vdom.Textf("%s: %d", el.String("label"), el.Int("count"))),
						vdom.Button(vdom.ID(prefix+"-inc"), vdom.OnClick(increment), vdom.Text("+")),
					)
					if err := y.Yield(tree); err != nil {
						return nil, err
					}
				}
			})
		},
		Options: element.Options{
			Shadow: true,
			Styles: ".counter { display: inline-flex; gap: 0.5em; }",
		},
	}
}

func navigate(app *bloom.App, path string, query map[string]string) func() {
	return func() {
		if err := app.Goto(context.Background(), path, query); err != nil {
			app.Logger().Warn("navigation failed", "path", path, "error", err)
		}
	}
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

package export

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/bloom-go/bloom"
	berrors "github.com/bloom-go/bloom/internal/errors"
	"github.com/bloom-go/bloom/pkg/render"
)

// Page is one exported file.
type Page struct {
	Pattern  string
	Key      string
	Location string
	Size     int
}

// Result lists the files written by Export.
type Result struct {
	Pages    []Page
	Duration time.Duration
}

// Exporter writes the static pages of an App to a Store.
type Exporter struct {
	app      *bloom.App
	store    Store
	title    string
	logger   *slog.Logger
	renderer *render.Renderer
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithTitle sets the <title> of every page.
func WithTitle(title string) Option {
	return func(e *Exporter) { e.title = title }
}

// WithLogger sets the logger. The default is the app logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Exporter) { e.logger = l }
}

// WithPretty indents the generated markup.
func WithPretty(pretty bool) Option {
	return func(e *Exporter) { e.renderer = render.NewRenderer(render.RendererConfig{Pretty: pretty}) }
}

// New creates an exporter of app into store.
func New(app *bloom.App, store Store, opts ...Option) *Exporter {
	e := &Exporter{
		app:      app,
		store:    store,
		logger:   app.Logger(),
		renderer: render.NewRenderer(render.RendererConfig{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "export")
	return e
}

// Export renders every parameterless page and writes it. It stops at the
// first page that fails; the error is an E150 BloomError naming it.
func (e *Exporter) Export(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{}
	seen := make(map[string]bool)

	for _, route := range e.app.StaticPages() {
		key := KeyFor(route.Pattern)
		if seen[key] {
			e.logger.Debug("page shadowed", "pattern", route.Pattern, "key", key)
			continue
		}
		seen[key] = true

		data, err := e.renderPage(ctx, route.Pattern)
		if err != nil {
			return result, berrors.New("E150").
				WithDetailf("page %s could not be rendered", route.Pattern).
				Wrap(err)
		}
		if err := e.store.Put(ctx, key, "text/html; charset=utf-8", data); err != nil {
			return result, berrors.New("E150").
				WithDetailf("page %s could not be written to %s", route.Pattern, e.store.Location(key)).
				Wrap(err)
		}

		page := Page{Pattern: route.Pattern, Key: key, Location: e.store.Location(key), Size: len(data)}
		result.Pages = append(result.Pages, page)
		e.logger.Info("page exported", "pattern", page.Pattern, "location", page.Location, "bytes", page.Size)
	}

	result.Duration = time.Since(start)
	return result, nil
}

func (e *Exporter) renderPage(ctx context.Context, pattern string) ([]byte, error) {
	tree, err := e.app.Snapshot(ctx, pattern)
	if err != nil {
		return nil, err
	}
	body, err := e.renderer.RenderToString(tree)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	err = render.RenderPage(&buf, render.PageData{
		Title:   e.title,
		MountID: e.app.Mount().ID(),
		Body:    body,
	})
	return buf.Bytes(), err
}

// KeyFor maps a route pattern to the file it is exported as.
func KeyFor(pattern string) string {
	p := strings.Trim(pattern, "/")
	if p == "" {
		return "index.html"
	}
	if strings.HasSuffix(p, ".html") {
		return p
	}
	return p + "/index.html"
}

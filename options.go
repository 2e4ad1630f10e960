package bloom

import (
	"log/slog"

	"github.com/bloom-go/bloom/pkg/element"
	"github.com/bloom-go/bloom/pkg/history"
	"github.com/bloom-go/bloom/pkg/scheduler"
)

// Option configures an App.
type Option func(*App)

// WithHistory sets the navigation history. The default is an in-memory
// history starting at "/".
func WithHistory(h history.History) Option {
	return func(a *App) {
		if h != nil {
			a.history = h
		}
	}
}

// WithLogger sets the app logger. Sessions and elements derive theirs from
// it.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder for page and element sessions.
// A recorder that also has a RouteMiss(path string) method is told about
// routing misses.
func WithRecorder(r scheduler.Recorder) Option {
	return func(a *App) {
		if r != nil {
			a.recorder = r
		}
	}
}

// WithReporter sets where producer failures are reported.
func WithReporter(r scheduler.ErrorReporter) Option {
	return func(a *App) {
		if r != nil {
			a.reporter = r
		}
	}
}

// WithRenderer replaces the renderer that applies trees to the mount
// point and to element roots.
func WithRenderer(r scheduler.Renderer) Option {
	return func(a *App) {
		if r != nil {
			a.renderer = r
		}
	}
}

// WithDetachPolicy sets the detach policy for elements whose definition
// does not choose one.
func WithDetachPolicy(p element.DetachPolicy) Option {
	return func(a *App) { a.policy = p }
}

// WithSessionOptions adds options to every page and element session.
func WithSessionOptions(opts ...scheduler.Option) Option {
	return func(a *App) { a.sessOpts = append(a.sessOpts, opts...) }
}

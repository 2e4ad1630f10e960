package scheduler

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger. It is enriched with the session id
// and label.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithReporter sets the producer failure reporter.
func WithReporter(r ErrorReporter) Option {
	return func(s *Session) {
		if r != nil {
			s.reporter = r
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Session) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithTracer sets the tracer used for pull and apply spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Session) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithID overrides the generated session id.
func WithID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// WithLabel names the session in logs and metrics, typically a route
// pattern or an element name.
func WithLabel(label string) Option {
	return func(s *Session) { s.label = label }
}

// WithApplyGuard installs a check run before every apply. When it returns
// false the tree is dropped: nothing is applied and the render count does
// not change.
func WithApplyGuard(guard func() bool) Option {
	return func(s *Session) { s.guard = guard }
}

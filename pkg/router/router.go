package router

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bloom-go/bloom/pkg/routepath"
)

// ErrNotFound is returned by Match when no registered route accepts a path.
var ErrNotFound = errors.New("router: no route matches")

// Matcher is a lazily compiled route pattern.
type Matcher = routepath.Matcher

// Compile returns a Matcher for pattern. See the package documentation for
// the pattern syntax.
func Compile(pattern string) *Matcher {
	return routepath.Compile(pattern)
}

// Route is a registered pattern and the value it selects.
type Route[F any] struct {
	Pattern string
	Value   F
}

type entry[F any] struct {
	Route[F]
	matcher *Matcher
	checked sync.Once
}

// Match is a successful lookup.
type Match[F any] struct {
	// Pattern is the pattern of the route that matched.
	Pattern string

	// Value is the value registered with the route.
	Value F

	// Path is the normalized path that was matched.
	Path string

	// Params holds the decoded captures. Never nil.
	Params map[string]string
}

// Table is an append-only, ordered route table. Insertion order is match
// priority. A Table is safe for concurrent use.
type Table[F any] struct {
	mu     sync.RWMutex
	routes []*entry[F]
	logger *slog.Logger
}

// New creates an empty table. A nil logger uses slog.Default().
func New[F any](logger *slog.Logger) *Table[F] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Table[F]{logger: logger}
}

// Add appends a route. The pattern is compiled on first use; a malformed
// pattern is logged at debug level then and never matches.
func (t *Table[F]) Add(pattern string, value F) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.routes = append(t.routes, &entry[F]{
		Route:   Route[F]{Pattern: pattern, Value: value},
		matcher: routepath.Compile(pattern),
	})
}

// Len returns the number of registered routes.
func (t *Table[F]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.routes)
}

// Routes returns the registered patterns in priority order.
func (t *Table[F]) Routes() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, len(t.routes))
	for i, r := range t.routes {
		out[i] = r.Pattern
	}
	return out
}

// Static returns the routes whose patterns are well formed and have no
// parameters, in priority order. Only these can be rendered without a
// concrete path.
func (t *Table[F]) Static() []Route[F] {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []Route[F]
	for _, r := range t.routes {
		if t.compiled(r) != nil || len(r.matcher.Params()) > 0 {
			continue
		}
		out = append(out, r.Route)
	}
	return out
}

// Match finds the first route accepting path. The path is normalized
// before matching and any "?query" suffix is ignored.
func (t *Table[F]) Match(path string) (Match[F], error) {
	path, _ = routepath.SplitPathAndQuery(path)
	path = routepath.Normalize(path)

	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, r := range t.routes {
		if t.compiled(r) != nil {
			continue
		}
		params, ok := r.matcher.Match(path)
		if !ok {
			continue
		}
		return Match[F]{Pattern: r.Pattern, Value: r.Value, Path: path, Params: params}, nil
	}
	return Match[F]{}, fmt.Errorf("%w: %s", ErrNotFound, path)
}

// compiled compiles r on first use and logs a malformed pattern once.
func (t *Table[F]) compiled(r *entry[F]) error {
	err := r.matcher.Err()
	if err != nil {
		r.checked.Do(func() {
			t.logger.Debug("route pattern never matches", "pattern", r.Pattern, "error", err)
		})
	}
	return err
}

package routepath

import (
	"strings"

	"github.com/bloom-go/bloom/pkg/vdom"
)

// Location is a parsed navigation target.
type Location struct {
	// Path is the normalized path without query or fragment.
	Path string

	// RawQuery is the query string without the leading "?".
	RawQuery string

	// Query is RawQuery decoded by ParseQuery. Never nil for a Location
	// returned by ParseLocation.
	Query map[string]string

	// Fragment is the text after "#", if any.
	Fragment string
}

// ParseLocation parses "/path?query#fragment".
func ParseLocation(raw string) Location {
	rest, fragment, _ := strings.Cut(raw, "#")
	path, query, _ := strings.Cut(rest, "?")
	return Location{
		Path:     Normalize(path),
		RawQuery: query,
		Query:    ParseQuery(query),
		Fragment: fragment,
	}
}

// String reassembles the location. The fragment is included when present.
func (l Location) String() string {
	s := l.Path
	if s == "" {
		s = "/"
	}
	if l.RawQuery != "" {
		s += "?" + l.RawQuery
	}
	if l.Fragment != "" {
		s += "#" + l.Fragment
	}
	return s
}

// Params matches the location path against pattern.
func (l Location) Params(pattern string) (map[string]string, bool) {
	return cachedMatcher(pattern).Match(l.Path)
}

// Match calls fn with the captured params and the query when the location
// path matches pattern, and returns nil otherwise. It is the building block
// of a root render callback:
//
//	func(loc routepath.Location) *vdom.VNode {
//		return vdom.Either(
//			loc.Match("/", home),
//			loc.Match("/city/:name", city),
//		)
//	}
func (l Location) Match(pattern string, fn func(params, query map[string]string) *vdom.VNode) *vdom.VNode {
	params, ok := l.Params(pattern)
	if !ok {
		return nil
	}
	query := l.Query
	if query == nil {
		query = map[string]string{}
	}
	return fn(params, query)
}

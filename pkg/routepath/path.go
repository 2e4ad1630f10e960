package routepath

import "strings"

// Normalize collapses repeated slashes and strips a "#fragment" suffix.
// An empty input becomes "/". The trailing slash, if any, is kept.
func Normalize(path string) string {
	if i := strings.IndexByte(path, '#'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	if !strings.Contains(path, "//") {
		return path
	}

	var b strings.Builder
	b.Grow(len(path))
	prevSlash := false
	for i := 0; i < len(path); i++ {
		c := path[i]
		if c == '/' {
			if prevSlash {
				continue
			}
			prevSlash = true
		} else {
			prevSlash = false
		}
		b.WriteByte(c)
	}
	return b.String()
}

// SplitPathAndQuery splits raw on the first "?". Any "#fragment" is dropped
// from whichever half contains it.
func SplitPathAndQuery(raw string) (path, query string) {
	raw, _, _ = strings.Cut(raw, "#")
	path, query, _ = strings.Cut(raw, "?")
	return path, query
}

// Segments returns the non-empty segments of a normalized path.
func Segments(path string) []string {
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

package routepath

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
)

// Pattern errors. A Matcher built from a malformed pattern never matches;
// Err reports why.
var (
	ErrPatternNoLeadingSlash = errors.New("pattern must start with /")
	ErrEmptyParamName        = errors.New("empty parameter name")
	ErrInvalidParamName      = errors.New("invalid parameter name")
	ErrDuplicateParam        = errors.New("duplicate parameter name")
)

var paramNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// Matcher matches normalized paths against a route pattern such as
// "/org/:orgId/user/:userId". Each ":name" segment captures one non-empty
// segment. The pattern is compiled on first use and the result is cached.
type Matcher struct {
	pattern string

	once  sync.Once
	re    *regexp.Regexp
	names []string
	err   error
}

// Compile returns a Matcher for pattern. Compilation is deferred until the
// first call to Match, Err or Params.
func Compile(pattern string) *Matcher {
	return &Matcher{pattern: pattern}
}

// Pattern returns the source pattern.
func (m *Matcher) Pattern() string { return m.pattern }

// Err compiles the pattern if needed and reports whether it is malformed.
func (m *Matcher) Err() error {
	m.once.Do(m.compile)
	return m.err
}

// Params returns the ordered capture names, or nil for a malformed pattern.
func (m *Matcher) Params() []string {
	m.once.Do(m.compile)
	return m.names
}

func (m *Matcher) compile() {
	p := m.pattern
	if !strings.HasPrefix(p, "/") {
		m.err = fmt.Errorf("%q: %w", m.pattern, ErrPatternNoLeadingSlash)
		return
	}
	p = Normalize(p)

	seen := make(map[string]bool)
	segs := strings.Split(p, "/")
	var b strings.Builder
	b.WriteByte('^')
	for i, seg := range segs {
		if i > 0 {
			b.WriteByte('/')
		}
		if !strings.HasPrefix(seg, ":") {
			b.WriteString(regexp.QuoteMeta(seg))
			continue
		}
		name := seg[1:]
		switch {
		case name == "":
			m.err = fmt.Errorf("%q: %w", m.pattern, ErrEmptyParamName)
		case !paramNameRe.MatchString(name):
			m.err = fmt.Errorf("%q: %w %q", m.pattern, ErrInvalidParamName, name)
		case seen[name]:
			m.err = fmt.Errorf("%q: %w %q", m.pattern, ErrDuplicateParam, name)
		}
		if m.err != nil {
			m.names = nil
			return
		}
		seen[name] = true
		m.names = append(m.names, name)
		b.WriteString(`([^/]+)`)
	}
	b.WriteByte('$')
	m.re = regexp.MustCompile(b.String())
}

// Match reports whether path matches and returns the decoded captures.
// The path is normalized first. A capture with an invalid escape sequence
// makes the whole match fail. The returned map is non-nil on success.
func (m *Matcher) Match(path string) (map[string]string, bool) {
	m.once.Do(m.compile)
	if m.re == nil {
		return nil, false
	}
	sub := m.re.FindStringSubmatch(Normalize(path))
	if sub == nil {
		return nil, false
	}
	params := make(map[string]string, len(m.names))
	for i, name := range m.names {
		v, err := url.PathUnescape(sub[i+1])
		if err != nil {
			return nil, false
		}
		params[name] = v
	}
	return params, true
}

var matcherCache sync.Map // pattern -> *Matcher

// cachedMatcher returns a shared Matcher for pattern.
func cachedMatcher(pattern string) *Matcher {
	if m, ok := matcherCache.Load(pattern); ok {
		return m.(*Matcher)
	}
	m, _ := matcherCache.LoadOrStore(pattern, Compile(pattern))
	return m.(*Matcher)
}

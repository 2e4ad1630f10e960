package routepath

import (
	"net/url"
	"sort"
	"strings"
)

// ParseQuery decodes a query string (with or without a leading "?") into a
// flat map. Keys without "=" and keys with an empty value map to "". For
// repeated keys the last occurrence wins. The result is never nil.
//
// Pairs whose key or value carries an invalid escape are kept with the raw
// text rather than dropped.
func ParseQuery(raw string) map[string]string {
	raw = strings.TrimPrefix(raw, "?")
	out := make(map[string]string)
	if raw == "" {
		return out
	}
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		key = unescapeQuery(key)
		if key == "" {
			continue
		}
		out[key] = unescapeQuery(value)
	}
	return out
}

func unescapeQuery(s string) string {
	if !strings.ContainsAny(s, "%+") {
		return s
	}
	u, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return u
}

// BuildQuery encodes params as "k=v&..." with keys in sorted order.
// An empty map yields "".
func BuildQuery(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params[k]))
	}
	return b.String()
}

// JoinPathQuery appends a query map to a path. The path's own query, if
// any, is replaced.
func JoinPathQuery(path string, query map[string]string) string {
	path, _ = SplitPathAndQuery(path)
	q := BuildQuery(query)
	if q == "" {
		return path
	}
	return path + "?" + q
}

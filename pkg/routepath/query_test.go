package routepath

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want map[string]string
	}{
		{"absent", "", map[string]string{}},
		{"leading question mark", "?", map[string]string{}},
		{"simple", "q=test&sort=desc", map[string]string{"q": "test", "sort": "desc"}},
		{"empty values", "q=&sort=", map[string]string{"q": "", "sort": ""}},
		{"bare key", "flag", map[string]string{"flag": ""}},
		{"plus is space", "q=hello+world", map[string]string{"q": "hello world"}},
		{"escapes", "email=john%40example.com", map[string]string{"email": "john@example.com"}},
		{"last wins", "a=1&a=2", map[string]string{"a": "2"}},
		{"bad escape kept raw", "a=%zz", map[string]string{"a": "%zz"}},
		{"stray ampersands", "&&a=1&", map[string]string{"a": "1"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseQuery(tc.in)
			if got == nil {
				t.Fatal("ParseQuery returned nil")
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("ParseQuery(%q) mismatch (-want +got):\n%s", tc.in, diff)
			}
		})
	}
}

func TestBuildQuery(t *testing.T) {
	got := BuildQuery(map[string]string{"sort": "desc", "q": "a b", "e": ""})
	want := "e=&q=a+b&sort=desc"
	if got != want {
		t.Errorf("BuildQuery = %q, want %q", got, want)
	}
	if got := BuildQuery(nil); got != "" {
		t.Errorf("BuildQuery(nil) = %q, want empty", got)
	}
}

func TestBuildQueryRoundTrip(t *testing.T) {
	in := map[string]string{"city": "São Paulo", "x": "a&b=c"}
	if diff := cmp.Diff(in, ParseQuery(BuildQuery(in))); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestJoinPathQuery(t *testing.T) {
	tests := []struct {
		path  string
		query map[string]string
		want  string
	}{
		{"/city", nil, "/city"},
		{"/city", map[string]string{"name": "Oslo"}, "/city?name=Oslo"},
		{"/city?old=1", map[string]string{"name": "Oslo"}, "/city?name=Oslo"},
	}
	for _, tc := range tests {
		if got := JoinPathQuery(tc.path, tc.query); got != tc.want {
			t.Errorf("JoinPathQuery(%q, %v) = %q, want %q", tc.path, tc.query, got, tc.want)
		}
	}
}

package collector

import "testing"

func TestRewriteURL(t *testing.T) {
	cases := []struct {
		url, rule, want string
	}{
		{"https://a.com/x", "a.com>b.com", "https://b.com/x"},
		{"https://a.com/x", "", "https://a.com/x"},
		{"https://a.com/x", "malformed", "https://a.com/x"},
		{"https://a.com/x", "a.com>", "https://a.com/x"},
		{"https://a.com/x", ">b.com", "https://a.com/x"},
		{"https://a.com/x", "a>b>c", "https://a.com/x"},
		{"https://a.com/a.com", "a.com>b.com", "https://b.com/b.com"},
		{"https://a.com/x", "z.com>b.com", "https://a.com/x"},
	}
	for _, c := range cases {
		if got := RewriteURL(c.url, c.rule); got != c.want {
			t.Fatalf("RewriteURL(%q, %q) = %q, want %q", c.url, c.rule, got, c.want)
		}
	}
}

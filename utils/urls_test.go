// forum-backend/utils/urls_test.go
package utils

import "testing"

func TestURLResolver(t *testing.T) {
	r := NewURLResolver("http://localhost:8080/")
	if r.Host != "http://localhost:8080" {
		t.Errorf("Expected trailing slash to be trimmed, got %q", r.Host)
	}

	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"/uploads/threads/7/a.png", "http://localhost:8080/uploads/threads/7/a.png"},
		{"https://cdn.example.com/bucket/a.png", "https://cdn.example.com/bucket/a.png"},
		{"http://cdn.example.com/bucket/a.png", "http://cdn.example.com/bucket/a.png"},
	}
	for _, c := range cases {
		if got := r.Resolve(c.in); got != c.want {
			t.Errorf("Resolve(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

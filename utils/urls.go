// forum-backend/utils/urls.go
package utils

import "strings"

// URLResolver turns stored attachment references into public-facing URLs.
// The host prefix is injected at construction time; nothing in the core
// reads it from process-wide state.
type URLResolver struct {
	Host string
}

// NewURLResolver builds a resolver for the given public host, with any
// trailing slash trimmed.
func NewURLResolver(host string) *URLResolver {
	return &URLResolver{Host: strings.TrimSuffix(host, "/")}
}

// Resolve maps a stored reference to a public URL. References that are
// already absolute (S3-backed storage returns full URLs) pass through
// unchanged; local paths get the host prefix.
func (r *URLResolver) Resolve(path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return r.Host + path
}

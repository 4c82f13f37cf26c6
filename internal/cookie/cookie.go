package cookie

import (
	"net/http"

	"github.com/dgellow/edge-gate/internal/edge"
	"github.com/dgellow/edge-gate/internal/log"
)

// DefaultSessionCookie is the cookie carrying the signed session token
const DefaultSessionCookie = "_auth"

// Session serializes a session cookie value as a Set-Cookie header value
func Session(name, value string) string {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
	}
	return c.String()
}

// Clear serializes an empty, immediately expiring session cookie
func Clear(name string) string {
	c := &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		MaxAge:   -1,
	}
	return c.String()
}

// Parse merges every Cookie header of the request into a single map.
// Malformed pairs are skipped without dropping the rest of their line.
// Later values win over earlier ones for the same name.
func Parse(headers edge.Headers) map[string]string {
	lines := headers.Values("cookie")
	r := &http.Request{Header: http.Header{"Cookie": lines}}

	parsed := make(map[string]string)
	for _, c := range r.Cookies() {
		parsed[c.Name] = c.Value
	}
	if len(parsed) == 0 && len(lines) > 0 {
		log.LogTraceWithFields("cookie", "No usable cookie in request", map[string]any{
			"lines": len(lines),
		})
	}
	return parsed
}

// Get returns the named cookie value from the request headers
func Get(headers edge.Headers, name string) (string, bool) {
	value, ok := Parse(headers)[name]
	return value, ok
}

package edge

import (
	"net/url"
	"strings"
)

// Header is a single header entry, keeping the original casing of its name
type Header struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Headers is an ordered header multimap keyed by lowercase header name
type Headers map[string][]Header

// Get returns the first value for name, or "" if absent
func (h Headers) Get(name string) string {
	values := h[strings.ToLower(name)]
	if len(values) == 0 {
		return ""
	}
	return values[0].Value
}

// Values returns all values for name in order
func (h Headers) Values(name string) []string {
	entries := h[strings.ToLower(name)]
	values := make([]string, 0, len(entries))
	for _, e := range entries {
		values = append(values, e.Value)
	}
	return values
}

// Add appends a value for key, keeping the casing of key for the entry
func (h Headers) Add(key, value string) {
	name := strings.ToLower(key)
	h[name] = append(h[name], Header{Key: key, Value: value})
}

// Set replaces all values for key with value
func (h Headers) Set(key, value string) {
	h[strings.ToLower(key)] = []Header{{Key: key, Value: value}}
}

// Body is an optional request payload
type Body struct {
	Data     string `json:"data"`
	Encoding string `json:"encoding,omitempty"` // "base64" or "text"
}

// Request is an inbound request as seen by the gate. It is treated as
// immutable: handlers return the same pointer when passing it through.
type Request struct {
	URI         string  `json:"uri"`
	Method      string  `json:"method"`
	Headers     Headers `json:"headers"`
	QueryString string  `json:"querystring,omitempty"`
	Body        *Body   `json:"body,omitempty"`
}

// Query parses the raw query string. Malformed pairs are skipped.
func (r *Request) Query() url.Values {
	values, _ := url.ParseQuery(r.QueryString)
	if values == nil {
		return url.Values{}
	}
	return values
}

// Response is produced fresh for every request that is not passed through
type Response struct {
	Status            string  `json:"status"`
	StatusDescription string  `json:"statusDescription,omitempty"`
	Headers           Headers `json:"headers"`
	Body              string  `json:"body,omitempty"`
	IsBase64Encoded   bool    `json:"isBase64Encoded,omitempty"`
}

// NewResponse creates a response with an empty header map
func NewResponse(status, description, body string) *Response {
	return &Response{
		Status:            status,
		StatusDescription: description,
		Headers:           Headers{},
		Body:              body,
	}
}

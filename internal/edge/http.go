package edge

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
)

// FromHTTP converts a net/http request into the gate's request model.
// The body is left on r so that passed requests stream to the upstream.
func FromHTTP(r *http.Request) *Request {
	req := &Request{
		URI:         r.URL.Path,
		Method:      r.Method,
		Headers:     Headers{},
		QueryString: r.URL.RawQuery,
	}

	// Host is promoted out of the header map by net/http
	if r.Host != "" {
		req.Headers.Add("Host", r.Host)
	}
	for key, values := range r.Header {
		for _, v := range values {
			req.Headers.Add(key, v)
		}
	}

	return req
}

// WriteHTTP writes the response to w
func (resp *Response) WriteHTTP(w http.ResponseWriter) error {
	status, err := strconv.Atoi(resp.Status)
	if err != nil {
		return fmt.Errorf("invalid status %q: %w", resp.Status, err)
	}

	for _, entries := range resp.Headers {
		for _, e := range entries {
			w.Header().Add(e.Key, e.Value)
		}
	}

	body := []byte(resp.Body)
	if resp.IsBase64Encoded {
		body, err = base64.StdEncoding.DecodeString(resp.Body)
		if err != nil {
			return fmt.Errorf("decoding response body: %w", err)
		}
	}
	if len(body) > 0 && w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}

	w.WriteHeader(status)
	_, err = w.Write(body)
	return err
}

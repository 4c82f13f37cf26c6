package edge

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaders(t *testing.T) {
	h := Headers{}
	h.Add("Cookie", "a=1")
	h.Add("cookie", "b=2")
	h.Add("Host", "example.com")

	assert.Equal(t, "a=1", h.Get("COOKIE"))
	assert.Equal(t, []string{"a=1", "b=2"}, h.Values("cookie"))
	assert.Equal(t, "Cookie", h["cookie"][0].Key)
	assert.Empty(t, h.Get("missing"))

	h.Set("Host", "other.com")
	assert.Equal(t, []string{"other.com"}, h.Values("host"))
}

func TestRequest_Query(t *testing.T) {
	req := &Request{QueryString: "destination=%2Ffoo%3Fa%3Db&code=xyz"}
	q := req.Query()
	assert.Equal(t, "/foo?a=b", q.Get("destination"))
	assert.Equal(t, "xyz", q.Get("code"))

	empty := &Request{}
	assert.Empty(t, empty.Query().Get("destination"))
}

func TestFromHTTP(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "https://site.example.com/private/page?x=1", bytes.NewBufferString("hello"))
	r.Header.Set("Cookie", "_auth=token")

	req := FromHTTP(r)

	assert.Equal(t, "/private/page", req.URI)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "x=1", req.QueryString)
	assert.Equal(t, "site.example.com", req.Headers.Get("host"))
	assert.Equal(t, "_auth=token", req.Headers.Get("cookie"))
	assert.Nil(t, req.Body)

	// body stays with the net/http request
	rest, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(rest))
}

func TestResponse_WriteHTTP(t *testing.T) {
	resp := NewResponse("302", "Login", "Login")
	resp.Headers.Add("Location", "/auth/login")
	resp.Headers.Add("Set-Cookie", "a=1")
	resp.Headers.Add("Set-Cookie", "b=2")

	w := httptest.NewRecorder()
	require.NoError(t, resp.WriteHTTP(w))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login", w.Header().Get("Location"))
	assert.Equal(t, []string{"a=1", "b=2"}, w.Header().Values("Set-Cookie"))
	assert.Equal(t, "Login", w.Body.String())
}

func TestResponse_WriteHTTP_InvalidStatus(t *testing.T) {
	resp := NewResponse("abc", "", "")
	err := resp.WriteHTTP(httptest.NewRecorder())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid status")
}

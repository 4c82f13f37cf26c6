package cookie

import (
	"net/http"
	"testing"

	"github.com/dgellow/edge-gate/internal/edge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession(t *testing.T) {
	value := Session("_auth", "abc.def.ghi")

	assert.Contains(t, value, "_auth=abc.def.ghi")
	assert.Contains(t, value, "; Path=/")
	assert.Contains(t, value, "; HttpOnly")
	assert.Contains(t, value, "; Secure")
}

func TestClear(t *testing.T) {
	value := Clear("_auth")

	assert.Contains(t, value, "; HttpOnly")
	assert.Contains(t, value, "; Secure")
	assert.Contains(t, value, "Max-Age=0")

	parsed, err := http.ParseSetCookie(value)
	require.NoError(t, err)
	assert.Equal(t, "_auth", parsed.Name)
	assert.Empty(t, parsed.Value)
}

func TestParse(t *testing.T) {
	headers := edge.Headers{}
	headers.Add("Cookie", "a=1; _auth=first")
	headers.Add("Cookie", "_auth=second")
	headers.Add("Cookie", "=bad;;")

	parsed := Parse(headers)
	assert.Equal(t, "1", parsed["a"])
	assert.Equal(t, "second", parsed["_auth"])

	value, ok := Get(headers, "_auth")
	assert.True(t, ok)
	assert.Equal(t, "second", value)

	_, ok = Get(edge.Headers{}, "_auth")
	assert.False(t, ok)
}

func TestParse_SkipsMalformedPairs(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{name: "valueless_flag", line: "_auth=token; flag"},
		{name: "non_ascii_value", line: "tracker=café; _auth=token"},
		{name: "escaped_quote", line: `_auth=token; x="a\b"`},
		{name: "empty_name", line: "=bad; _auth=token"},
		{name: "stray_separators", line: ";; _auth=token;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := edge.Headers{}
			headers.Add("Cookie", tt.line)

			value, ok := Get(headers, "_auth")
			assert.True(t, ok)
			assert.Equal(t, "token", value)
		})
	}
}

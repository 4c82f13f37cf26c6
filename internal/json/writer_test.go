package json

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()

	WriteBadGateway(w, "Upstream unavailable")

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, ErrorResponse{Error: "bad_gateway", Message: "Upstream unavailable"}, resp)
}

func TestWriteBasicChallenge(t *testing.T) {
	tests := []struct {
		name       string
		realm      string
		wantHeader string
	}{
		{
			name:       "simple realm",
			realm:      "edge-gate",
			wantHeader: `Basic realm="edge-gate"`,
		},
		{
			name:       "quotes are escaped",
			realm:      `metrics "internal"`,
			wantHeader: `Basic realm="metrics \"internal\""`,
		},
		{
			name:       "backslashes are escaped",
			realm:      `a\b`,
			wantHeader: `Basic realm="a\\b"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			WriteBasicChallenge(w, tt.realm, "Unauthorized")

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.wantHeader, w.Header().Get("WWW-Authenticate"))
			assert.NotEmpty(t, w.Body.String())
		})
	}
}

package urlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinPath(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		elems   []string
		want    string
		wantErr bool
	}{
		{name: "callback path", base: "https://foo.bar", elems: []string{"/auth/callback"}, want: "https://foo.bar/auth/callback"},
		{name: "base with trailing slash", base: "https://foo.bar/", elems: []string{"/auth/callback"}, want: "https://foo.bar/auth/callback"},
		{name: "base with path", base: "https://ghe.example.com/api/v3", elems: []string{"/user/orgs"}, want: "https://ghe.example.com/api/v3/user/orgs"},
		{name: "trailing slash preserved", base: "https://foo.bar", elems: []string{"docs/"}, want: "https://foo.bar/docs/"},
		{name: "no elements", base: "https://foo.bar", want: "https://foo.bar"},
		{name: "invalid base", base: "://invalid", elems: []string{"x"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := JoinPath(tt.base, tt.elems...)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

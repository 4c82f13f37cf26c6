package credentials

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestStatic_Load(t *testing.T) {
	tests := []struct {
		name        string
		static      Static
		errContains string
	}{
		{
			name:   "complete",
			static: Static{ClientID: "id", ClientSecret: "secret", HashKey: "key"},
		},
		{
			name:        "missing_client_id",
			static:      Static{ClientSecret: "secret", HashKey: "key"},
			errContains: "clientId is required",
		},
		{
			name:        "missing_hash_key",
			static:      Static{ClientID: "id", ClientSecret: "secret"},
			errContains: "hashKey is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds, err := tt.static.Load(context.Background())
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, Credentials(tt.static), creds)
		})
	}
}

func TestFirestoreDocument_Credentials(t *testing.T) {
	creds, err := firestoreDocument{ClientID: "id", ClientSecret: "secret", HashKey: "key"}.credentials()
	require.NoError(t, err)
	assert.Equal(t, Credentials{ClientID: "id", ClientSecret: "secret", HashKey: "key"}, creds)

	_, err = firestoreDocument{ClientID: "id"}.credentials()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid credentials document")
}

func TestMapFirestoreError(t *testing.T) {
	err := mapFirestoreError(status.Error(codes.NotFound, "no such document"), "edge_gate_config", "github")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "edge_gate_config/github")

	err = mapFirestoreError(status.Error(codes.PermissionDenied, "denied"), "edge_gate_config", "github")
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "reading credentials document")
}

func TestNewFirestore_Validation(t *testing.T) {
	_, err := NewFirestore(context.Background(), FirestoreConfig{Collection: "c", Document: "d"})
	assert.ErrorContains(t, err, "projectID is required")

	_, err = NewFirestore(context.Background(), FirestoreConfig{ProjectID: "p", Document: "d"})
	assert.ErrorContains(t, err, "collection is required")

	_, err = NewFirestore(context.Background(), FirestoreConfig{ProjectID: "p", Collection: "c"})
	assert.ErrorContains(t, err, "document is required")
}

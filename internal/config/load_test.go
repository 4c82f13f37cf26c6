package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const validConfig = `{
  "version": "v1",
  "gate": {
    "baseURL": "https://foo.bar",
    "upstream": "http://127.0.0.1:9000",
    "hashKey": {"$env": "TEST_HASH_KEY"}
  },
  "provider": {
    "kind": "github",
    "clientId": {"$env": "TEST_CLIENT_ID"},
    "clientSecret": {"$env": "TEST_CLIENT_SECRET"},
    "requiredDomains": ["Example.COM"],
    "requiredOrganizations": ["acme"],
    "timeout": "5s"
  },
  "metrics": {
    "enabled": true,
    "username": "prom",
    "password": {"$env": "TEST_METRICS_PASSWORD"}
  }
}`

func setTestEnv(t *testing.T) {
	t.Setenv("TEST_HASH_KEY", "foo")
	t.Setenv("TEST_CLIENT_ID", "client-id")
	t.Setenv("TEST_CLIENT_SECRET", "'client-secret'")
	t.Setenv("TEST_METRICS_PASSWORD", "scrape")
}

func TestLoad(t *testing.T) {
	setTestEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(validConfig), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://foo.bar", cfg.Gate.BaseURL)
	assert.Equal(t, Secret("foo"), cfg.Gate.HashKey)
	assert.Equal(t, DefaultAddr, cfg.Gate.Addr)
	assert.Equal(t, DefaultCookieName, cfg.Gate.CookieName)
	assert.Equal(t, 12*time.Hour, cfg.Gate.SessionTTL)
	assert.Equal(t, PathsConfig{Login: "/auth/login", Callback: "/auth/callback", Logout: "/auth/logout"}, cfg.Gate.Paths)

	assert.Equal(t, ProviderKindGitHub, cfg.Provider.Kind)
	assert.Equal(t, "client-id", cfg.Provider.ClientID)
	assert.Equal(t, Secret("client-secret"), cfg.Provider.ClientSecret, "surrounding quotes are stripped")
	assert.Equal(t, []string{"Example.COM"}, cfg.Provider.RequiredDomains)
	assert.Equal(t, []string{"acme"}, cfg.Provider.RequiredOrganizations)
	assert.Equal(t, 5*time.Second, cfg.Provider.Timeout)

	assert.Equal(t, CredentialSourceConfig, cfg.Credentials.Source)

	require.NotNil(t, cfg.Metrics)
	assert.Equal(t, DefaultMetricsPath, cfg.Metrics.Path)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(cfg.Metrics.HashedPassword), []byte("scrape")))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name        string
		config      string
		errContains string
	}{
		{
			name:        "invalid_json",
			config:      `{`,
			errContains: "parsing config JSON",
		},
		{
			name:        "missing_version",
			config:      `{"gate": {}}`,
			errContains: "config version is required",
		},
		{
			name:        "wrong_version",
			config:      `{"version": "v0"}`,
			errContains: "unsupported config version",
		},
		{
			name:        "plain_text_secret",
			config:      `{"version": "v1", "gate": {"hashKey": "foo"}}`,
			errContains: "gate.hashKey must use environment variable reference",
		},
		{
			name:        "unset_env",
			config:      `{"version": "v1", "gate": {"hashKey": {"$env": "TEST_DOES_NOT_EXIST"}}}`,
			errContains: "environment variable TEST_DOES_NOT_EXIST not set",
		},
		{
			name:        "missing_hash_key",
			config:      `{"version": "v1", "provider": {"clientId": "id", "clientSecret": {"$env": "TEST_CLIENT_SECRET"}}}`,
			errContains: "gate.hashKey is required",
		},
		{
			name:        "unknown_provider",
			config:      `{"version": "v1", "provider": {"kind": "gitlab"}}`,
			errContains: "unknown provider kind",
		},
		{
			name:        "bad_duration",
			config:      `{"version": "v1", "gate": {"sessionTtl": "forever"}}`,
			errContains: "parsing sessionTtl",
		},
		{
			name: "duplicate_paths",
			config: `{"version": "v1", "gate": {"hashKey": {"$env": "TEST_HASH_KEY"}, "paths": {"login": "/auth", "logout": "/auth"}},
				"provider": {"clientId": "id", "clientSecret": {"$env": "TEST_CLIENT_SECRET"}}}`,
			errContains: "are both \"/auth\"",
		},
		{
			name: "invalid_cookie_name",
			config: `{"version": "v1", "gate": {"hashKey": {"$env": "TEST_HASH_KEY"}, "cookieName": "my session"},
				"provider": {"clientId": "id", "clientSecret": {"$env": "TEST_CLIENT_SECRET"}}}`,
			errContains: "gate.cookieName \"my session\" is not a valid cookie name",
		},
		{
			name: "gate_path_on_health",
			config: `{"version": "v1", "gate": {"hashKey": {"$env": "TEST_HASH_KEY"}, "paths": {"logout": "/healthz"}},
				"provider": {"clientId": "id", "clientSecret": {"$env": "TEST_CLIENT_SECRET"}}}`,
			errContains: "gate.paths.logout and the health endpoint are both \"/healthz\"",
		},
		{
			name: "gate_path_on_metrics",
			config: `{"version": "v1", "gate": {"hashKey": {"$env": "TEST_HASH_KEY"}, "paths": {"login": "/metrics"}},
				"provider": {"clientId": "id", "clientSecret": {"$env": "TEST_CLIENT_SECRET"}},
				"metrics": {"enabled": true}}`,
			errContains: "gate.paths.login and metrics.path are both \"/metrics\"",
		},
		{
			name: "metrics_on_health",
			config: `{"version": "v1", "gate": {"hashKey": {"$env": "TEST_HASH_KEY"}},
				"provider": {"clientId": "id", "clientSecret": {"$env": "TEST_CLIENT_SECRET"}},
				"metrics": {"enabled": true, "path": "/healthz"}}`,
			errContains: "metrics.path and the health endpoint are both \"/healthz\"",
		},
		{
			name:        "firestore_without_project",
			config:      `{"version": "v1", "credentials": {"source": "firestore", "document": "github"}}`,
			errContains: "credentials.project is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setTestEnv(t)
			_, err := Parse([]byte(tt.config))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestParse_FirestoreDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`{
		"version": "v1",
		"credentials": {"source": "firestore", "project": "my-project", "document": "github"}
	}`))
	require.NoError(t, err)

	assert.Equal(t, DefaultFirestoreDatabase, cfg.Credentials.Database)
	assert.Equal(t, DefaultFirestoreCollection, cfg.Credentials.Collection)
	assert.Empty(t, cfg.Gate.HashKey)
}

package config

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/dgellow/edge-gate/internal/log"
)

// SupportedVersion is the only accepted config version
const SupportedVersion = "v1"

// Load loads and processes the config with immediate env var resolution
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse processes raw config JSON
func Parse(data []byte) (Config, error) {
	var rawConfig map[string]any
	if err := json.Unmarshal(data, &rawConfig); err != nil {
		return Config{}, fmt.Errorf("parsing config JSON: %w", err)
	}

	version, ok := rawConfig["version"].(string)
	if !ok {
		return Config{}, fmt.Errorf("config version is required")
	}
	if version != SupportedVersion {
		return Config{}, fmt.Errorf("unsupported config version: %s", version)
	}

	if err := validateRawConfig(rawConfig); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}

	// The custom UnmarshalJSON methods resolve env vars immediately
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	ApplyDefaults(&config)

	if err := ValidateConfig(&config); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// validateRawConfig rejects secrets written in clear before env resolution
func validateRawConfig(rawConfig map[string]any) error {
	secrets := []struct {
		section string
		name    string
	}{
		{"gate", "hashKey"},
		{"provider", "clientSecret"},
		{"metrics", "password"},
	}

	for _, secret := range secrets {
		section, ok := rawConfig[secret.section].(map[string]any)
		if !ok {
			continue
		}
		value, exists := section[secret.name]
		if !exists {
			continue
		}
		if _, isString := value.(string); isString {
			return fmt.Errorf("%s.%s must use environment variable reference for security", secret.section, secret.name)
		}
		if refMap, isMap := value.(map[string]any); isMap {
			if _, hasEnv := refMap["$env"]; !hasEnv {
				return fmt.Errorf("%s.%s must use {\"$env\": \"VAR_NAME\"} format", secret.section, secret.name)
			}
		}
	}
	return nil
}

// ApplyDefaults fills unset optional fields
func ApplyDefaults(config *Config) {
	g := &config.Gate
	if g.Addr == "" {
		g.Addr = DefaultAddr
	}
	if g.CookieName == "" {
		g.CookieName = DefaultCookieName
	}
	if g.SessionTTL == 0 {
		g.SessionTTL = DefaultSessionTTL
	}
	if g.Paths.Login == "" {
		g.Paths.Login = DefaultPathLogin
	}
	if g.Paths.Callback == "" {
		g.Paths.Callback = DefaultPathCallback
	}
	if g.Paths.Logout == "" {
		g.Paths.Logout = DefaultPathLogout
	}

	if config.Provider.Kind == "" {
		config.Provider.Kind = ProviderKindGitHub
	}
	if config.Provider.Timeout == 0 {
		config.Provider.Timeout = DefaultTimeout
	}

	c := &config.Credentials
	if c.Source == "" {
		c.Source = CredentialSourceConfig
	}
	if c.Source == CredentialSourceFirestore {
		if c.Database == "" {
			c.Database = DefaultFirestoreDatabase
		}
		if c.Collection == "" {
			c.Collection = DefaultFirestoreCollection
		}
	}

	if config.Metrics != nil && config.Metrics.Path == "" {
		config.Metrics.Path = DefaultMetricsPath
	}
}

// ValidateConfig validates the resolved configuration
func ValidateConfig(config *Config) error {
	g := config.Gate
	if g.Addr == "" {
		return fmt.Errorf("gate.addr is required")
	}
	if g.BaseURL != "" {
		u, err := url.Parse(g.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("gate.baseURL must be an absolute URL, got %q", g.BaseURL)
		}
	}
	if g.Upstream != "" {
		u, err := url.Parse(g.Upstream)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("gate.upstream must be an absolute URL, got %q", g.Upstream)
		}
	}
	if g.SessionTTL < 0 {
		return fmt.Errorf("gate.sessionTtl cannot be negative")
	}
	if err := (&http.Cookie{Name: g.CookieName, Value: "x"}).Valid(); err != nil {
		return fmt.Errorf("gate.cookieName %q is not a valid cookie name", g.CookieName)
	}

	paths := map[string]string{
		"login":    g.Paths.Login,
		"callback": g.Paths.Callback,
		"logout":   g.Paths.Logout,
	}
	// the operational endpoints are mounted ahead of the gate
	seen := map[string]string{HealthPath: "the health endpoint"}
	if m := config.Metrics; m != nil && m.Enabled {
		if other, dup := seen[m.Path]; dup {
			return fmt.Errorf("metrics.path and %s are both %q", other, m.Path)
		}
		seen[m.Path] = "metrics.path"
	}
	for name, p := range paths {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("gate.paths.%s must start with '/', got %q", name, p)
		}
		if other, dup := seen[p]; dup {
			return fmt.Errorf("gate.paths.%s and %s are both %q", name, other, p)
		}
		seen[p] = "gate.paths." + name
	}

	if config.Provider.Kind != ProviderKindGitHub {
		return fmt.Errorf("unknown provider kind: %s (only 'github' is supported)", config.Provider.Kind)
	}
	if config.Provider.MaxOrgPages < 0 {
		return fmt.Errorf("provider.maxOrgPages cannot be negative")
	}

	switch config.Credentials.Source {
	case CredentialSourceConfig:
		if config.Provider.ClientID == "" {
			return fmt.Errorf("provider.clientId is required")
		}
		if config.Provider.ClientSecret == "" {
			return fmt.Errorf("provider.clientSecret is required")
		}
		if config.Gate.HashKey == "" {
			return fmt.Errorf("gate.hashKey is required")
		}
	case CredentialSourceFirestore:
		if config.Credentials.Project == "" {
			return fmt.Errorf("credentials.project is required for firestore")
		}
		if config.Credentials.Document == "" {
			return fmt.Errorf("credentials.document is required for firestore")
		}
	default:
		return fmt.Errorf("unknown credentials source: %s", config.Credentials.Source)
	}

	if m := config.Metrics; m != nil && m.Enabled {
		if !strings.HasPrefix(m.Path, "/") {
			return fmt.Errorf("metrics.path must start with '/'")
		}
		if m.Username != "" && m.HashedPassword == "" {
			return fmt.Errorf("metrics.password is required when metrics.username is set")
		}
		if m.Username == "" {
			log.LogWarn("Metrics endpoint is enabled without authentication")
		}
	}

	if g.BaseURL == "" {
		log.LogWarn("gate.baseURL is not set; callback URLs will be derived from the Host header")
	}

	return nil
}

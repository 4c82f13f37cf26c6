package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Secret is a string type that redacts itself when printed
type Secret string

// String implements fmt.Stringer to redact the secret
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "***"
}

// MarshalJSON implements json.Marshaler to prevent secrets in JSON logs
func (s Secret) MarshalJSON() ([]byte, error) {
	if s == "" {
		return json.Marshal("")
	}
	return json.Marshal("***")
}

// ProviderKind selects the identity provider implementation
type ProviderKind string

const (
	ProviderKindGitHub ProviderKind = "github"
)

// CredentialSource selects where provider credentials and the signing key come from
type CredentialSource string

const (
	// CredentialSourceConfig reads clientId, clientSecret and hashKey from this file
	CredentialSourceConfig CredentialSource = "config"
	// CredentialSourceFirestore reads them from a Firestore document
	CredentialSourceFirestore CredentialSource = "firestore"
)

const (
	DefaultAddr         = ":8080"
	DefaultCookieName   = "_auth"
	DefaultSessionTTL   = 12 * time.Hour
	DefaultPathLogin    = "/auth/login"
	DefaultPathCallback = "/auth/callback"
	DefaultPathLogout   = "/auth/logout"
	DefaultMetricsPath  = "/metrics"
	HealthPath          = "/healthz"
	DefaultTimeout      = 30 * time.Second

	DefaultFirestoreDatabase   = "(default)"
	DefaultFirestoreCollection = "edge_gate_config"
)

// PathsConfig holds the route paths handled by the gate itself
type PathsConfig struct {
	Login    string `json:"login"`
	Callback string `json:"callback"`
	Logout   string `json:"logout"`
}

// GateConfig configures request routing and sessions
type GateConfig struct {
	Addr                string        `json:"addr"`
	BaseURL             string        `json:"baseURL"`
	Upstream            string        `json:"upstream"`
	CookieName          string        `json:"cookieName"`
	SessionTTL          time.Duration `json:"sessionTtl"`
	HashKey             Secret        `json:"hashKey"`
	Paths               PathsConfig   `json:"paths"`
	AllowedDestinations []string      `json:"allowedDestinations,omitempty"`
}

// ProviderConfig configures the identity provider and its access policy
type ProviderConfig struct {
	Kind                  ProviderKind  `json:"kind"`
	ClientID              string        `json:"clientId"`
	ClientSecret          Secret        `json:"clientSecret"`
	RequiredDomains       []string      `json:"requiredDomains,omitempty"`
	RequiredOrganizations []string      `json:"requiredOrganizations,omitempty"`
	MaxOrgPages           int           `json:"maxOrgPages,omitempty"`
	AuthURL               string        `json:"authURL,omitempty"`
	TokenURL              string        `json:"tokenURL,omitempty"`
	APIBaseURL            string        `json:"apiBaseURL,omitempty"`
	Timeout               time.Duration `json:"timeout"`
}

// CredentialsConfig says where to load secrets from at startup
type CredentialsConfig struct {
	Source          CredentialSource `json:"source"`
	Project         string           `json:"project,omitempty"`
	Database        string           `json:"database,omitempty"`
	Collection      string           `json:"collection,omitempty"`
	Document        string           `json:"document,omitempty"`
	CredentialsFile string           `json:"credentialsFile,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint
type MetricsConfig struct {
	Enabled  bool   `json:"enabled"`
	Path     string `json:"path"`
	Username string `json:"username,omitempty"`

	// Computed fields
	HashedPassword Secret `json:"-"` // bcrypt hash of the configured password
}

// Config represents the config structure with resolved values
type Config struct {
	Version     string            `json:"version"`
	Gate        GateConfig        `json:"gate"`
	Provider    ProviderConfig    `json:"provider"`
	Credentials CredentialsConfig `json:"credentials"`
	Metrics     *MetricsConfig    `json:"metrics,omitempty"`
}

// ParseConfigValue parses a JSON value that is either a plain string or an
// {"$env": "VAR_NAME"} reference resolved immediately.
func ParseConfigValue(raw json.RawMessage) (string, error) {
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str, nil
	}

	var ref map[string]string
	if err := json.Unmarshal(raw, &ref); err != nil {
		return "", fmt.Errorf("config value must be string or reference object")
	}

	envVar, ok := ref["$env"]
	if !ok {
		return "", fmt.Errorf("unknown reference type in config value")
	}
	value := os.Getenv(envVar)
	if value == "" {
		return "", fmt.Errorf("environment variable %s not set", envVar)
	}
	// Strip surrounding quotes if present (only matching pairs)
	if len(value) >= 2 {
		if (value[0] == '"' && value[len(value)-1] == '"') ||
			(value[0] == '\'' && value[len(value)-1] == '\'') {
			value = value[1 : len(value)-1]
		}
	}
	return value, nil
}

// parseOptional parses raw into dst when present
func parseOptional(raw json.RawMessage, name string, dst *string) error {
	if raw == nil {
		return nil
	}
	value, err := ParseConfigValue(raw)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	*dst = value
	return nil
}

func parseDuration(raw, name string, dst *time.Duration) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	*dst = d
	return nil
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
)

// ValidationResult holds validation errors and warnings
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// ValidationError represents a validation issue
type ValidationError struct {
	Path    string
	Message string
}

// IsValid returns true if there are no errors
func (v *ValidationResult) IsValid() bool {
	return len(v.Errors) == 0
}

func (v *ValidationResult) addError(path, format string, args ...any) {
	v.Errors = append(v.Errors, ValidationError{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (v *ValidationResult) addWarning(path, format string, args ...any) {
	v.Warnings = append(v.Warnings, ValidationError{Path: path, Message: fmt.Sprintf(format, args...)})
}

// ValidateFile validates a config file structure without requiring env vars
func ValidateFile(path string) (*ValidationResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return ValidateBytes(data), nil
}

// ValidateBytes validates raw config JSON structure
func ValidateBytes(data []byte) *ValidationResult {
	result := &ValidationResult{}

	var rawConfig map[string]any
	if err := json.Unmarshal(data, &rawConfig); err != nil {
		result.addError("", "invalid JSON: %v", err)
		return result
	}

	checkBashStyleSyntax(rawConfig, "", result)

	version, ok := rawConfig["version"].(string)
	if !ok {
		result.addError("version", "version field is required. Hint: Add \"version\": %q", SupportedVersion)
	} else if version != SupportedVersion {
		result.addError("version", "unsupported version '%s' - use '%s'", version, SupportedVersion)
	}

	if err := validateRawConfig(rawConfig); err != nil {
		result.addError("", "%v", err)
	}

	source := string(CredentialSourceConfig)
	if creds, ok := rawConfig["credentials"].(map[string]any); ok {
		if s, ok := creds["source"].(string); ok && s != "" {
			source = s
		}
		validateCredentialsStructure(creds, result)
	}

	gate, ok := rawConfig["gate"].(map[string]any)
	if !ok {
		result.addError("gate", "gate field is required and must be an object")
	} else {
		if _, ok := gate["baseURL"]; !ok {
			result.addWarning("gate.baseURL", "baseURL is not set; callback URLs will be derived from the Host header")
		}
		if _, ok := gate["upstream"]; !ok {
			result.addWarning("gate.upstream", "upstream is not set; authorized requests will get 502")
		}
		if _, ok := gate["hashKey"]; !ok && source == string(CredentialSourceConfig) {
			result.addError("gate.hashKey", "hashKey is required. Hint: {\"$env\": \"GATE_HASH_KEY\"}")
		}
	}

	provider, ok := rawConfig["provider"].(map[string]any)
	if !ok {
		result.addError("provider", "provider field is required and must be an object")
	} else {
		if kind, ok := provider["kind"].(string); ok && kind != string(ProviderKindGitHub) {
			result.addError("provider.kind", "unknown provider '%s' - supported providers: github", kind)
		}
		if source == string(CredentialSourceConfig) {
			for _, field := range []string{"clientId", "clientSecret"} {
				if _, ok := provider[field]; !ok {
					result.addError("provider."+field, "%s is required when credentials come from the config file", field)
				}
			}
		}
		if pages, ok := provider["maxOrgPages"].(float64); ok && pages == 0 {
			result.addWarning("provider.maxOrgPages", "organization pagination is unbounded")
		}
	}

	return result
}

func validateCredentialsStructure(creds map[string]any, result *ValidationResult) {
	source, _ := creds["source"].(string)
	switch CredentialSource(source) {
	case "", CredentialSourceConfig:
	case CredentialSourceFirestore:
		for _, field := range []string{"project", "document"} {
			if _, ok := creds[field]; !ok {
				result.addError("credentials."+field, "%s is required for firestore credentials", field)
			}
		}
	default:
		result.addError("credentials.source", "unknown credentials source '%s' - options: config, firestore", source)
	}
}

var bashStyleVar = regexp.MustCompile(`\$\{?[A-Z_][A-Z0-9_]*\}?`)

// checkBashStyleSyntax flags "$VAR" strings that look like env references
func checkBashStyleSyntax(value any, path string, result *ValidationResult) {
	switch v := value.(type) {
	case map[string]any:
		for key, child := range v {
			childPath := key
			if path != "" {
				childPath = path + "." + key
			}
			checkBashStyleSyntax(child, childPath, result)
		}
	case []any:
		for i, child := range v {
			checkBashStyleSyntax(child, fmt.Sprintf("%s[%d]", path, i), result)
		}
	case string:
		if bashStyleVar.MatchString(v) {
			result.addError(path, "found bash-style syntax '%s' - use {\"$env\": \"VAR_NAME\"} instead", v)
		}
	}
}

// DefaultConfig returns a starter configuration for config-init
func DefaultConfig() map[string]any {
	return map[string]any{
		"version": SupportedVersion,
		"gate": map[string]any{
			"addr":       DefaultAddr,
			"baseURL":    "https://site.yourcompany.com",
			"upstream":   "http://127.0.0.1:9000",
			"cookieName": DefaultCookieName,
			"sessionTtl": DefaultSessionTTL.String(),
			"hashKey":    map[string]string{"$env": "GATE_HASH_KEY"},
			"paths": map[string]string{
				"login":    DefaultPathLogin,
				"callback": DefaultPathCallback,
				"logout":   DefaultPathLogout,
			},
		},
		"provider": map[string]any{
			"kind":                  string(ProviderKindGitHub),
			"clientId":              map[string]string{"$env": "GITHUB_CLIENT_ID"},
			"clientSecret":          map[string]string{"$env": "GITHUB_CLIENT_SECRET"},
			"requiredDomains":       []string{"yourcompany.com"},
			"requiredOrganizations": []string{"yourcompany"},
			"maxOrgPages":           50,
		},
		"credentials": map[string]any{
			"source": string(CredentialSourceConfig),
		},
		"metrics": map[string]any{
			"enabled": true,
			"path":    DefaultMetricsPath,
		},
	}
}

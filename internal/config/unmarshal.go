package config

import (
	"encoding/json"
	"strings"

	"github.com/dgellow/edge-gate/internal/crypto"
	"github.com/dgellow/edge-gate/internal/log"
)

// UnmarshalJSON implements custom unmarshaling for GateConfig
func (g *GateConfig) UnmarshalJSON(data []byte) error {
	type rawGate struct {
		Addr                json.RawMessage `json:"addr"`
		BaseURL             json.RawMessage `json:"baseURL"`
		Upstream            json.RawMessage `json:"upstream"`
		CookieName          string          `json:"cookieName"`
		SessionTTL          string          `json:"sessionTtl"`
		HashKey             json.RawMessage `json:"hashKey"`
		Paths               PathsConfig     `json:"paths"`
		AllowedDestinations []string        `json:"allowedDestinations"`
	}

	var raw rawGate
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	g.CookieName = raw.CookieName
	g.Paths = raw.Paths
	g.AllowedDestinations = raw.AllowedDestinations

	if err := parseDuration(raw.SessionTTL, "sessionTtl", &g.SessionTTL); err != nil {
		return err
	}
	if err := parseOptional(raw.Addr, "addr", &g.Addr); err != nil {
		return err
	}
	if err := parseOptional(raw.BaseURL, "baseURL", &g.BaseURL); err != nil {
		return err
	}
	if err := parseOptional(raw.Upstream, "upstream", &g.Upstream); err != nil {
		return err
	}

	var hashKey string
	if err := parseOptional(raw.HashKey, "hashKey", &hashKey); err != nil {
		return err
	}
	g.HashKey = Secret(hashKey)

	return nil
}

// UnmarshalJSON implements custom unmarshaling for ProviderConfig
func (p *ProviderConfig) UnmarshalJSON(data []byte) error {
	type rawProvider struct {
		Kind                  ProviderKind    `json:"kind"`
		ClientID              json.RawMessage `json:"clientId"`
		ClientSecret          json.RawMessage `json:"clientSecret"`
		RequiredDomains       []string        `json:"requiredDomains"`
		RequiredOrganizations []string        `json:"requiredOrganizations"`
		MaxOrgPages           int             `json:"maxOrgPages"`
		AuthURL               string          `json:"authURL"`
		TokenURL              string          `json:"tokenURL"`
		APIBaseURL            string          `json:"apiBaseURL"`
		Timeout               string          `json:"timeout"`
	}

	var raw rawProvider
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	p.Kind = raw.Kind
	p.RequiredOrganizations = raw.RequiredOrganizations
	p.MaxOrgPages = raw.MaxOrgPages
	p.AuthURL = raw.AuthURL
	p.TokenURL = raw.TokenURL
	p.APIBaseURL = raw.APIBaseURL

	// Kept as configured; the authorizer compares them case-insensitively
	if len(raw.RequiredDomains) > 0 {
		p.RequiredDomains = make([]string, len(raw.RequiredDomains))
		for i, d := range raw.RequiredDomains {
			p.RequiredDomains[i] = strings.TrimSpace(d)
		}
	}

	if err := parseDuration(raw.Timeout, "timeout", &p.Timeout); err != nil {
		return err
	}
	if err := parseOptional(raw.ClientID, "clientId", &p.ClientID); err != nil {
		return err
	}

	var secret string
	if err := parseOptional(raw.ClientSecret, "clientSecret", &secret); err != nil {
		return err
	}
	p.ClientSecret = Secret(secret)

	return nil
}

// UnmarshalJSON implements custom unmarshaling for MetricsConfig.
// The password is hashed immediately and never kept in clear.
func (m *MetricsConfig) UnmarshalJSON(data []byte) error {
	type rawMetrics struct {
		Enabled  bool            `json:"enabled"`
		Path     string          `json:"path"`
		Username string          `json:"username"`
		Password json.RawMessage `json:"password"`
	}

	var raw rawMetrics
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	m.Enabled = raw.Enabled
	m.Path = raw.Path
	m.Username = raw.Username

	if raw.Password == nil {
		return nil
	}

	var password string
	if err := parseOptional(raw.Password, "password", &password); err != nil {
		return err
	}

	log.LogTraceWithFields("config", "Hashing metrics password", map[string]any{
		"username": m.Username,
	})
	hashed, err := crypto.HashPassword(password)
	if err != nil {
		return err
	}
	m.HashedPassword = Secret(hashed)

	return nil
}

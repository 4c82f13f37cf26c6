package idp

import (
	"fmt"

	"github.com/dgellow/edge-gate/internal/config"
	"github.com/dgellow/edge-gate/internal/credentials"
)

// NewAuthorizer creates an Authorizer based on the ProviderConfig.
func NewAuthorizer(cfg config.ProviderConfig, creds credentials.Credentials) (Authorizer, error) {
	switch cfg.Kind {
	case config.ProviderKindGitHub, "":
		if creds.ClientID == "" || creds.ClientSecret == "" {
			return nil, fmt.Errorf("github: client credentials are required")
		}

		authorizer := NewGitHubAuthorizer(
			creds.ClientID,
			creds.ClientSecret,
			WithEndpoint(cfg.AuthURL, cfg.TokenURL),
			WithAPIBaseURL(cfg.APIBaseURL),
			WithTimeout(cfg.Timeout),
			WithMaxOrgPages(cfg.MaxOrgPages),
		)
		for _, domain := range cfg.RequiredDomains {
			authorizer.RequireEmailDomain(domain)
		}
		for _, org := range cfg.RequiredOrganizations {
			authorizer.RequireOrganizationMembership(org)
		}
		return authorizer, nil

	default:
		return nil, fmt.Errorf("unknown provider kind: %s", cfg.Kind)
	}
}

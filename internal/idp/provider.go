package idp

import (
	"context"
	"fmt"
)

// Account is a user that passed provider authorization
type Account struct {
	Bearer   string `json:"bearer"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// AuthorizeParams are forwarded to the provider when starting and completing
// the authorization-code flow.
type AuthorizeParams struct {
	RedirectURI string
	State       string
}

// Authorizer abstracts identity provider operations.
type Authorizer interface {
	// AuthorizeURL returns the absolute URL starting the provider's consent flow.
	AuthorizeURL(params AuthorizeParams) string

	// ExchangeCode trades an authorization code for a provider access token.
	// Returns *ExchangeError when the provider rejects the code or returns no token.
	ExchangeCode(ctx context.Context, code string, params AuthorizeParams) (string, error)

	// Authorize resolves an access token into an Account, applying provider policy.
	// Returns *PolicyError when policy rejects the user and *ProviderError when
	// upstream calls fail.
	Authorize(ctx context.Context, providerToken string) (Account, error)
}

// ExchangeError means the provider refused the authorization code
type ExchangeError struct {
	Err error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("code exchange failed: %v", e.Err)
}

func (e *ExchangeError) Unwrap() error { return e.Err }

// PolicyError means the user authenticated but is not allowed in
type PolicyError struct {
	Message string
}

func (e *PolicyError) Error() string { return e.Message }

// ProviderError means an upstream API call failed for reasons other than policy
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

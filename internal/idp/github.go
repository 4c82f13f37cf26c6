package idp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dgellow/edge-gate/internal/emailutil"
	"github.com/dgellow/edge-gate/internal/ioutil"
	"github.com/dgellow/edge-gate/internal/log"
	"github.com/dgellow/edge-gate/internal/urlutil"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const (
	githubScopeEmail = "user:email"
	githubScopeOrg   = "read:org"

	// orgPageSize is the page size requested from the membership listing
	orgPageSize = 200

	defaultGitHubAPI = "https://api.github.com"

	// errorBodyLimit bounds how much of an error response ends up in logs
	errorBodyLimit = 512
)

var tracer = otel.Tracer("github.com/dgellow/edge-gate/internal/idp")

// GitHubAuthorizer implements Authorizer for GitHub OAuth apps.
// GitHub uses OAuth 2.0 (not OIDC), so identity, emails and org membership
// come from its REST API.
type GitHubAuthorizer struct {
	config          oauth2.Config
	apiBaseURL      string
	httpClient      *http.Client
	requiredDomains []string
	requiredOrgs    []string
	maxOrgPages     int
}

// githubUserResponse represents GitHub's user API response.
type githubUserResponse struct {
	Login string `json:"login"`
}

// githubEmailResponse represents an email from GitHub's emails API.
type githubEmailResponse struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// githubOrgResponse represents an org from GitHub's orgs API.
type githubOrgResponse struct {
	Login string `json:"login"`
}

// GitHubOption configures a GitHubAuthorizer
type GitHubOption func(*GitHubAuthorizer)

// WithEndpoint overrides the OAuth authorize and token URLs (GitHub Enterprise, tests)
func WithEndpoint(authURL, tokenURL string) GitHubOption {
	return func(p *GitHubAuthorizer) {
		if authURL != "" {
			p.config.Endpoint.AuthURL = authURL
		}
		if tokenURL != "" {
			p.config.Endpoint.TokenURL = tokenURL
		}
	}
}

// WithAPIBaseURL overrides the REST API base URL
func WithAPIBaseURL(apiBaseURL string) GitHubOption {
	return func(p *GitHubAuthorizer) {
		if apiBaseURL != "" {
			p.apiBaseURL = strings.TrimSuffix(apiBaseURL, "/")
		}
	}
}

// WithTimeout bounds every outbound call made by the authorizer
func WithTimeout(timeout time.Duration) GitHubOption {
	return func(p *GitHubAuthorizer) {
		if timeout > 0 {
			p.httpClient.Timeout = timeout
		}
	}
}

// WithMaxOrgPages caps the membership pagination. Zero means unbounded.
func WithMaxOrgPages(n int) GitHubOption {
	return func(p *GitHubAuthorizer) {
		p.maxOrgPages = n
	}
}

// NewGitHubAuthorizer creates a GitHub authorizer requesting only the email scope.
func NewGitHubAuthorizer(clientID, clientSecret string, opts ...GitHubOption) *GitHubAuthorizer {
	p := &GitHubAuthorizer{
		config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Scopes:       []string{githubScopeEmail},
			Endpoint:     github.Endpoint,
		},
		apiBaseURL: defaultGitHubAPI,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RequireEmailDomain restricts access to users having an email in domain.
// Matching ignores case; rejections quote the domain as given.
func (p *GitHubAuthorizer) RequireEmailDomain(domain string) {
	p.requiredDomains = append(p.requiredDomains, domain)
}

// RequireOrganizationMembership restricts access to members of org.
// Requesting org membership needs the read:org scope, added once.
func (p *GitHubAuthorizer) RequireOrganizationMembership(org string) {
	if !slices.Contains(p.config.Scopes, githubScopeOrg) {
		p.config.Scopes = append(p.config.Scopes, githubScopeOrg)
	}
	p.requiredOrgs = append(p.requiredOrgs, org)
}

// Scopes returns the scopes requested on authorization
func (p *GitHubAuthorizer) Scopes() []string {
	return slices.Clone(p.config.Scopes)
}

func (p *GitHubAuthorizer) oauthConfig(redirectURI string) *oauth2.Config {
	cfg := p.config
	cfg.Scopes = slices.Clone(p.config.Scopes)
	cfg.RedirectURL = redirectURI
	return &cfg
}

// AuthorizeURL implements Authorizer.
func (p *GitHubAuthorizer) AuthorizeURL(params AuthorizeParams) string {
	return p.oauthConfig(params.RedirectURI).AuthCodeURL(params.State)
}

// ExchangeCode implements Authorizer.
func (p *GitHubAuthorizer) ExchangeCode(ctx context.Context, code string, params AuthorizeParams) (string, error) {
	ctx, span := tracer.Start(ctx, "github.exchange_code")
	defer span.End()

	if code == "" {
		err := &ExchangeError{Err: errors.New("missing authorization code")}
		recordSpanError(span, err)
		return "", err
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	token, err := p.oauthConfig(params.RedirectURI).Exchange(ctx, code, oauth2.SetAuthURLParam("state", params.State))
	if err != nil {
		recordSpanError(span, err)
		return "", &ExchangeError{Err: err}
	}
	if token.AccessToken == "" {
		err := &ExchangeError{Err: errors.New("provider returned no access token")}
		recordSpanError(span, err)
		return "", err
	}

	return token.AccessToken, nil
}

// Authorize implements Authorizer. Steps run strictly in order because the
// policy errors embed the username resolved first.
func (p *GitHubAuthorizer) Authorize(ctx context.Context, providerToken string) (Account, error) {
	client := &http.Client{
		Timeout: p.httpClient.Timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: providerToken}),
			Base:   p.httpClient.Transport,
		},
	}

	username, err := p.fetchUsername(ctx, client)
	if err != nil {
		return Account{}, err
	}

	if err := p.assertMemberOfRequiredOrgs(ctx, client, username); err != nil {
		return Account{}, err
	}

	email, err := p.selectEmail(ctx, client, username)
	if err != nil {
		return Account{}, err
	}

	log.LogDebugWithFields("idp", "GitHub user authorized", map[string]any{
		"username": username,
		"email":    email,
	})

	return Account{
		Bearer:   providerToken,
		Username: username,
		Email:    email,
	}, nil
}

func (p *GitHubAuthorizer) fetchUsername(ctx context.Context, client *http.Client) (string, error) {
	var user githubUserResponse
	if err := p.getJSON(ctx, client, "/user", nil, &user); err != nil {
		return "", &ProviderError{Op: "failed to get user", Err: err}
	}
	return user.Login, nil
}

func (p *GitHubAuthorizer) assertMemberOfRequiredOrgs(ctx context.Context, client *http.Client, username string) error {
	if len(p.requiredOrgs) == 0 {
		return nil
	}

	for page := 1; p.maxOrgPages <= 0 || page <= p.maxOrgPages; page++ {
		query := url.Values{}
		query.Set("page", strconv.Itoa(page))
		query.Set("limit", strconv.Itoa(orgPageSize))

		var orgs []githubOrgResponse
		if err := p.getJSON(ctx, client, "/user/orgs", query, &orgs); err != nil {
			return &ProviderError{Op: "failed to get organizations", Err: err}
		}

		for _, org := range orgs {
			if slices.Contains(p.requiredOrgs, org.Login) {
				return nil
			}
		}

		if len(orgs) == 0 {
			break
		}
	}

	return &PolicyError{Message: fmt.Sprintf(
		"This user (%s) is not a member of any of the required organizations (%s)",
		username, strings.Join(p.requiredOrgs, ", "),
	)}
}

func (p *GitHubAuthorizer) selectEmail(ctx context.Context, client *http.Client, username string) (string, error) {
	var emails []githubEmailResponse
	if err := p.getJSON(ctx, client, "/user/emails", nil, &emails); err != nil {
		return "", &ProviderError{Op: "failed to get emails", Err: err}
	}

	if len(p.requiredDomains) > 0 {
		for _, email := range emails {
			if p.inRequiredDomain(email.Email) {
				return email.Email, nil
			}
		}
		return "", &PolicyError{Message: fmt.Sprintf(
			"This user (%s) does not have an e-mail address with any of the required domains (%s)",
			username, strings.Join(p.requiredDomains, ", "),
		)}
	}

	for _, email := range emails {
		if email.Primary {
			return email.Email, nil
		}
	}
	return "", &ProviderError{Op: "failed to get emails", Err: errors.New("no primary email found")}
}

func (p *GitHubAuthorizer) inRequiredDomain(email string) bool {
	domain := emailutil.ExtractDomain(email)
	if domain == "" {
		return false
	}
	return slices.ContainsFunc(p.requiredDomains, func(required string) bool {
		return emailutil.Normalize(required) == domain
	})
}

func (p *GitHubAuthorizer) getJSON(ctx context.Context, client *http.Client, path string, query url.Values, v any) error {
	endpoint, err := urlutil.JoinPath(p.apiBaseURL, path)
	if err != nil {
		return err
	}
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	ctx, span := tracer.Start(ctx, "github.GET "+path, trace.WithAttributes(
		attribute.String("http.url", endpoint),
	))
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		recordSpanError(span, err)
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		recordSpanError(span, err)
		return err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("status %d: %s", resp.StatusCode, ioutil.ReadSnippet(resp.Body, errorBodyLimit))
		recordSpanError(span, err)
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		err = fmt.Errorf("decoding response: %w", err)
		recordSpanError(span, err)
		return err
	}
	return nil
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

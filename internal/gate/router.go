// Package gate decides, per request, whether to pass a request through to
// protected content or to answer it with a step of the login flow.
package gate

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/dgellow/edge-gate/internal/destination"
	"github.com/dgellow/edge-gate/internal/edge"
	"github.com/dgellow/edge-gate/internal/idp"
	"github.com/dgellow/edge-gate/internal/log"
	"github.com/dgellow/edge-gate/internal/session"
)

// ErrConfiguration means the router cannot build an absolute URL for the
// callback. It is returned from Handle and is not a per-request failure.
var ErrConfiguration = errors.New("gate: invalid configuration")

const (
	DefaultPathLogin    = "/auth/login"
	DefaultPathCallback = "/auth/callback"
	DefaultPathLogout   = "/auth/logout"
)

const (
	flowLogin      = "login"
	flowCallback   = "callback"
	flowLogout     = "logout"
	flowRestricted = "restricted"
)

// Paths are the routes answered by the gate itself
type Paths struct {
	Login    string
	Callback string
	Logout   string
}

// Result is what the router decided. Exactly one of Pass and Response is set.
type Result struct {
	// Pass is the original request, unmodified, when access is granted
	Pass *edge.Request
	// Response answers the request instead of forwarding it
	Response *edge.Response
}

// Passed reports whether the request should go through to the origin
func (r Result) Passed() bool { return r.Pass != nil }

// Router is the request-routing state machine
type Router struct {
	authorizer   idp.Authorizer
	sessions     *session.Manager
	destinations destination.Filter
	baseURL      string
	paths        Paths
	metrics      *Metrics
}

// Option configures a Router
type Option func(*Router)

// WithBaseURL fixes the public origin used for callback URLs
func WithBaseURL(baseURL string) Option {
	return func(r *Router) {
		r.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithPaths overrides the login, callback and logout routes. Empty values keep the default.
func WithPaths(paths Paths) Option {
	return func(r *Router) {
		if paths.Login != "" {
			r.paths.Login = paths.Login
		}
		if paths.Callback != "" {
			r.paths.Callback = paths.Callback
		}
		if paths.Logout != "" {
			r.paths.Logout = paths.Logout
		}
	}
}

// WithDestinationFilter replaces the accept-everything destination filter
func WithDestinationFilter(filter destination.Filter) Option {
	return func(r *Router) {
		r.destinations = filter
	}
}

// WithMetrics records flow outcomes
func WithMetrics(m *Metrics) Option {
	return func(r *Router) {
		r.metrics = m
	}
}

// NewRouter creates a router
func NewRouter(authorizer idp.Authorizer, sessions *session.Manager, opts ...Option) *Router {
	r := &Router{
		authorizer:   authorizer,
		sessions:     sessions,
		destinations: destination.NewFilter(nil),
		paths: Paths{
			Login:    DefaultPathLogin,
			Callback: DefaultPathCallback,
			Logout:   DefaultPathLogout,
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle routes a request. The error is only non-nil for configuration
// failures; authentication failures are answered with a Response.
func (r *Router) Handle(ctx context.Context, req *edge.Request) (Result, error) {
	current := r.sessions.CurrentUser(req)

	switch req.URI {
	case r.paths.Login:
		return r.handleLogin(req, current)
	case r.paths.Callback:
		return r.handleCallback(ctx, req)
	case r.paths.Logout:
		return r.handleLogout(req)
	default:
		return r.handleRestricted(req, current), nil
	}
}

func (r *Router) handleLogin(req *edge.Request, current session.Lookup) (Result, error) {
	next := r.destinations.Filter(req.Query().Get("destination"))
	if current.OK() {
		r.metrics.observe(flowLogin, outcomeRedirect)
		return respond(sendTo(next)), nil
	}

	redirectURI, err := r.callbackURL(req)
	if err != nil {
		r.metrics.observe(flowLogin, outcomeError)
		return Result{}, err
	}

	authorizeURL := r.authorizer.AuthorizeURL(idp.AuthorizeParams{
		RedirectURI: redirectURI,
		State:       next,
	})

	resp := edge.NewResponse("302", "Login", "Login")
	resp.Headers.Set("Location", authorizeURL)
	r.metrics.observe(flowLogin, outcomeChallenge)
	return respond(resp), nil
}

func (r *Router) handleCallback(ctx context.Context, req *edge.Request) (Result, error) {
	query := req.Query()
	state := query.Get("state")
	next := r.destinations.Filter(state)

	redirectURI, err := r.callbackURL(req)
	if err != nil {
		r.metrics.observe(flowCallback, outcomeError)
		return Result{}, err
	}

	done := r.metrics.timeCallback()
	setCookie, err := r.authenticate(ctx, query, idp.AuthorizeParams{
		RedirectURI: redirectURI,
		State:       state,
	})
	if err != nil {
		done(outcomeDenied)
		r.metrics.observeFailure(classify(err))
		r.metrics.observe(flowCallback, outcomeDenied)
		log.LogErrorWithFields("gate", "Error handling authentication", map[string]any{
			"error": err.Error(),
			"kind":  classify(err),
		})
		return respond(edge.NewResponse("403", "Access denied", "Access Denied")), nil
	}
	done(outcomeRedirect)

	resp := sendTo(next)
	resp.Headers.Set("Set-Cookie", setCookie)
	r.metrics.observe(flowCallback, outcomeRedirect)
	return respond(resp), nil
}

// authenticate runs exchange, authorization and issuance in order and
// returns the session Set-Cookie value
func (r *Router) authenticate(ctx context.Context, query url.Values, params idp.AuthorizeParams) (string, error) {
	if providerErr := query.Get("error"); providerErr != "" {
		return "", &idp.ExchangeError{Err: fmt.Errorf("provider returned %s: %s", providerErr, query.Get("error_description"))}
	}

	token, err := r.authorizer.ExchangeCode(ctx, query.Get("code"), params)
	if err != nil {
		return "", err
	}

	account, err := r.authorizer.Authorize(ctx, token)
	if err != nil {
		return "", err
	}

	setCookie, err := r.sessions.Issue(account)
	if err != nil {
		return "", fmt.Errorf("issuing session: %w", err)
	}

	log.LogInfoWithFields("gate", "User authenticated", map[string]any{
		"username": account.Username,
		"email":    account.Email,
	})
	return setCookie, nil
}

func (r *Router) handleLogout(req *edge.Request) (Result, error) {
	next := r.destinations.Filter(req.Query().Get("destination"))

	resp := sendTo(next)
	resp.Headers.Set("Set-Cookie", r.sessions.Clear())
	r.metrics.observe(flowLogout, outcomeRedirect)
	return respond(resp), nil
}

func (r *Router) handleRestricted(req *edge.Request, current session.Lookup) Result {
	if current.OK() {
		r.metrics.observe(flowRestricted, outcomePass)
		return Result{Pass: req}
	}

	target := req.URI
	if req.QueryString != "" {
		target += "?" + req.QueryString
	}
	qs := url.Values{"destination": {target}}

	resp := edge.NewResponse("302", "Login Required", "Unauthorized")
	resp.Headers.Set("Location", r.paths.Login+"?"+qs.Encode())
	r.metrics.observe(flowRestricted, outcomeChallenge)
	return respond(resp)
}

// callbackURL is the absolute redirect URI registered with the provider
func (r *Router) callbackURL(req *edge.Request) (string, error) {
	base, err := r.resolveBaseURL(req)
	if err != nil {
		return "", err
	}
	return base + r.paths.Callback, nil
}

func (r *Router) resolveBaseURL(req *edge.Request) (string, error) {
	if r.baseURL != "" {
		return r.baseURL, nil
	}
	if host := req.Headers.Get("host"); host != "" {
		return "https://" + host, nil
	}
	return "", fmt.Errorf("%w: unable to determine host", ErrConfiguration)
}

func sendTo(dest string) *edge.Response {
	resp := edge.NewResponse("302", "", "")
	resp.Headers.Set("Location", dest)
	return resp
}

func respond(resp *edge.Response) Result {
	return Result{Response: resp}
}

// classify names the failure for logs and metrics
func classify(err error) string {
	var exchangeErr *idp.ExchangeError
	var policyErr *idp.PolicyError
	var providerErr *idp.ProviderError
	switch {
	case errors.As(err, &exchangeErr):
		return "exchange"
	case errors.As(err, &policyErr):
		return "policy"
	case errors.As(err, &providerErr):
		return "provider"
	default:
		return "internal"
	}
}

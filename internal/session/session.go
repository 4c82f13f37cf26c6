// Package session issues and verifies the signed token that carries an
// authorized Account in a cookie. No session state is kept server side.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgellow/edge-gate/internal/cookie"
	"github.com/dgellow/edge-gate/internal/edge"
	"github.com/dgellow/edge-gate/internal/idp"
	"github.com/dgellow/edge-gate/internal/log"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the lifetime of an issued session token
const DefaultTTL = 12 * time.Hour

// ErrConfiguration is returned when the manager cannot be built from its settings
var ErrConfiguration = errors.New("session: invalid configuration")

// Status tells how a session lookup resolved
type Status int

const (
	// Missing means the request carries no session cookie
	Missing Status = iota
	// Valid means the cookie held a verified, unexpired token
	Valid
	// Invalid means the cookie was present but could not be verified
	Invalid
)

func (s Status) String() string {
	switch s {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	default:
		return "missing"
	}
}

// Lookup is the result of resolving a request's session.
// Account is only set when Status is Valid.
type Lookup struct {
	Account idp.Account
	Status  Status
}

// OK reports whether the lookup produced an account
func (l Lookup) OK() bool { return l.Status == Valid }

type claims struct {
	idp.Account
	jwt.RegisteredClaims
}

// Manager signs and verifies session tokens with a shared secret
type Manager struct {
	secret     []byte
	cookieName string
	ttl        time.Duration
	now        func() time.Time
}

// Option configures a Manager
type Option func(*Manager)

// WithCookieName overrides the session cookie name
func WithCookieName(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.cookieName = name
		}
	}
}

// WithTTL overrides the token lifetime
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// New creates a Manager. An empty secret is a configuration error.
func New(secret string, opts ...Option) (*Manager, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: signing secret is required", ErrConfiguration)
	}

	m := &Manager{
		secret:     []byte(secret),
		cookieName: cookie.DefaultSessionCookie,
		ttl:        DefaultTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// CookieName returns the name of the session cookie
func (m *Manager) CookieName() string {
	return m.cookieName
}

// CurrentUser resolves the account carried by the request's session cookie.
// Verification failures are reported as Invalid, never as errors.
func (m *Manager) CurrentUser(req *edge.Request) Lookup {
	raw, ok := cookie.Get(req.Headers, m.cookieName)
	if !ok || raw == "" {
		return Lookup{Status: Missing}
	}

	account, err := m.verify(raw)
	if err != nil {
		log.LogWarnWithFields("session", "Rejecting session token", map[string]any{
			"error": err.Error(),
		})
		return Lookup{Status: Invalid}
	}
	return Lookup{Account: account, Status: Valid}
}

// Issue signs account into a token and returns the Set-Cookie header value
func (m *Manager) Issue(account idp.Account) (string, error) {
	token, err := m.sign(account)
	if err != nil {
		return "", err
	}
	return cookie.Session(m.cookieName, token), nil
}

// Clear returns the Set-Cookie header value removing the session cookie
func (m *Manager) Clear() string {
	return cookie.Clear(m.cookieName)
}

func (m *Manager) sign(account idp.Account) (string, error) {
	c := claims{
		Account: account,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(m.now().Add(m.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return token, nil
}

func (m *Manager) verify(raw string) (idp.Account, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return idp.Account{}, err
	}
	if c.Bearer == "" {
		return idp.Account{}, errors.New("token carries no bearer")
	}
	return c.Account, nil
}

package testutil

import (
	"context"
	"net/url"

	"github.com/dgellow/edge-gate/internal/idp"
	"github.com/stretchr/testify/mock"
)

// MockAuthorizer is a testify mock of idp.Authorizer. AuthorizeURL is not
// mocked: it renders a deterministic URL under AuthURL.
type MockAuthorizer struct {
	mock.Mock
	AuthURL string
}

var _ idp.Authorizer = (*MockAuthorizer)(nil)

// NewMockAuthorizer creates a mock whose authorize URL is https://auth.me/authorize
func NewMockAuthorizer() *MockAuthorizer {
	return &MockAuthorizer{AuthURL: "https://auth.me/authorize"}
}

func (m *MockAuthorizer) AuthorizeURL(params idp.AuthorizeParams) string {
	qs := url.Values{
		"redirect_uri": {params.RedirectURI},
		"state":        {params.State},
	}
	return m.AuthURL + "?" + qs.Encode()
}

func (m *MockAuthorizer) ExchangeCode(ctx context.Context, code string, params idp.AuthorizeParams) (string, error) {
	args := m.Called(ctx, code, params)
	return args.String(0), args.Error(1)
}

func (m *MockAuthorizer) Authorize(ctx context.Context, providerToken string) (idp.Account, error) {
	args := m.Called(ctx, providerToken)
	if args.Get(0) == nil {
		return idp.Account{}, args.Error(1)
	}
	return args.Get(0).(idp.Account), args.Error(1)
}

// Package credentials loads the provider client credentials and the session
// signing key once at startup.
package credentials

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when the configured credentials document does not exist
var ErrNotFound = errors.New("credentials not found")

// Credentials are the secrets the gate needs to run
type Credentials struct {
	ClientID     string
	ClientSecret string
	HashKey      string
}

// Validate reports the first missing field
func (c Credentials) Validate() error {
	switch {
	case c.ClientID == "":
		return fmt.Errorf("clientId is required")
	case c.ClientSecret == "":
		return fmt.Errorf("clientSecret is required")
	case c.HashKey == "":
		return fmt.Errorf("hashKey is required")
	}
	return nil
}

// Source retrieves credentials
type Source interface {
	Load(ctx context.Context) (Credentials, error)
}

// Static serves credentials resolved from the config file
type Static Credentials

// Load implements Source.
func (s Static) Load(context.Context) (Credentials, error) {
	creds := Credentials(s)
	if err := creds.Validate(); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

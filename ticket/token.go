// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package ticket

import (
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

const defaultExpirySkew = 10 * time.Second

// ProviderToken is the result of the authorization code exchange: the access
// token plus the raw token endpoint response.  It is immutable.
type ProviderToken struct {
	accessToken  string
	tokenType    string
	refreshToken string
	expiry       time.Time
	expirySkew   time.Duration
	raw          map[string]interface{}
}

// NewProviderToken creates a ProviderToken.  The raw map is the decoded token
// endpoint response and is copied.
//
// Supported options: WithTokenType, WithRefreshToken, WithExpiry,
// WithExpirySkew
func NewProviderToken(accessToken string, raw map[string]interface{}, opt ...Option) (*ProviderToken, error) {
	const op = "ticket.NewProviderToken"
	if accessToken == "" {
		return nil, fmt.Errorf("%s: access token is empty: %w", op, ErrInvalidParameter)
	}
	opts := getTokenOpts(opt...)
	cp := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		cp[k] = v
	}
	return &ProviderToken{
		accessToken:  accessToken,
		tokenType:    opts.withTokenType,
		refreshToken: opts.withRefreshToken,
		expiry:       opts.withExpiry,
		expirySkew:   opts.withExpirySkew,
		raw:          cp,
	}, nil
}

// TokenFromOAuth2 creates a ProviderToken from a golang.org/x/oauth2 token.
// Only the rawKeys named are copied from the token's extra fields, since the
// oauth2 package doesn't expose the whole response.
func TokenFromOAuth2(t *oauth2.Token, rawKeys ...string) (*ProviderToken, error) {
	const op = "ticket.TokenFromOAuth2"
	if t == nil {
		return nil, fmt.Errorf("%s: token is nil: %w", op, ErrNilParameter)
	}
	raw := make(map[string]interface{}, len(rawKeys))
	for _, k := range rawKeys {
		// form encoded responses report missing keys as ""
		if v := t.Extra(k); v != nil && v != "" {
			raw[k] = v
		}
	}
	pt, err := NewProviderToken(t.AccessToken, raw,
		WithTokenType(t.TokenType),
		WithRefreshToken(t.RefreshToken),
		WithExpiry(t.Expiry),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return pt, nil
}

// AccessToken returns the access token.
func (t *ProviderToken) AccessToken() string {
	if t == nil {
		return ""
	}
	return t.accessToken
}

// TokenType returns the token type, typically "Bearer".
func (t *ProviderToken) TokenType() string { return t.tokenType }

// RefreshToken returns the optional refresh token.
func (t *ProviderToken) RefreshToken() string { return t.refreshToken }

// Expiry returns the access token expiry.  A zero time means the token doesn't
// expire.
func (t *ProviderToken) Expiry() time.Time { return t.expiry }

// Raw returns a copy of the raw token endpoint response.
func (t *ProviderToken) Raw() map[string]interface{} {
	cp := make(map[string]interface{}, len(t.raw))
	for k, v := range t.raw {
		cp[k] = v
	}
	return cp
}

// Expired will return true if the token's expiry is before now, allowing for
// the configured skew.
func (t *ProviderToken) Expired() bool {
	if t.expiry.IsZero() {
		return false
	}
	return t.expiry.Round(0).Before(time.Now().Add(t.expirySkew))
}

// Valid will ensure that the access token is not empty and it's not expired.
func (t *ProviderToken) Valid() bool {
	if t == nil {
		return false
	}
	if t.accessToken == "" {
		return false
	}
	return !t.Expired()
}

// tokenOptions is the set of available options for NewProviderToken
type tokenOptions struct {
	withTokenType    string
	withRefreshToken string
	withExpiry       time.Time
	withExpirySkew   time.Duration
}

func tokenDefaults() tokenOptions {
	return tokenOptions{
		withExpirySkew: defaultExpirySkew,
	}
}

func getTokenOpts(opt ...Option) tokenOptions {
	opts := tokenDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithTokenType provides an optional token type.
func WithTokenType(typ string) Option {
	return func(o interface{}) {
		if o, ok := o.(*tokenOptions); ok {
			o.withTokenType = typ
		}
	}
}

// WithRefreshToken provides an optional refresh token.
func WithRefreshToken(rt string) Option {
	return func(o interface{}) {
		if o, ok := o.(*tokenOptions); ok {
			o.withRefreshToken = rt
		}
	}
}

// WithExpiry provides an optional access token expiry.
func WithExpiry(exp time.Time) Option {
	return func(o interface{}) {
		if o, ok := o.(*tokenOptions); ok {
			o.withExpiry = exp
		}
	}
}

// WithExpirySkew provides an optional expiry skew duration.
func WithExpirySkew(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*tokenOptions); ok {
			o.withExpirySkew = d
		}
	}
}

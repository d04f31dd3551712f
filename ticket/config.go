// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package ticket

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/oauthticket/internal/strutils"
	"github.com/hashicorp/oauthticket/profile"
	sdkHttp "github.com/hashicorp/oauthticket/sdk/http"
)

const (
	// DefaultAccessTokenParam is the query parameter carrying the access
	// token when none is configured.
	DefaultAccessTokenParam = "access_token"

	// DefaultScopeSeparator joins scopes when none is configured.
	DefaultScopeSeparator = " "
)

// TokenPlacement controls where the access token is sent on the user info
// request.
type TokenPlacement int

const (
	// TokenInQuery sends the token as a query parameter (the default).
	TokenInQuery TokenPlacement = iota

	// TokenInHeader sends the token as an "Authorization: Bearer" header.
	TokenInHeader

	// TokenInQueryAndHeader sends the token both ways.
	TokenInQueryAndHeader
)

func (p TokenPlacement) String() string {
	switch p {
	case TokenInQuery:
		return "query"
	case TokenInHeader:
		return "header"
	case TokenInQueryAndHeader:
		return "query_and_header"
	default:
		return fmt.Sprintf("placement(%d)", int(p))
	}
}

func (p TokenPlacement) inQuery() bool  { return p == TokenInQuery || p == TokenInQueryAndHeader }
func (p TokenPlacement) inHeader() bool { return p == TokenInHeader || p == TokenInQueryAndHeader }

// IdentifierParam copies a field of the token endpoint response onto the user
// info request as a query parameter.  Weibo, for example, requires the "uid"
// returned with the access token.
type IdentifierParam struct {
	// Param is the query parameter name.
	Param string

	// TokenField is a dotted path into the raw token response.
	TokenField string
}

// ProviderConfig represents the configuration of one OAuth2 provider's user
// information endpoint.  A ProviderConfig is read-only once passed to a
// Builder.
type ProviderConfig struct {
	// Name is the provider name.  It's the default scheme name of tickets.
	Name string

	// UserInformationEndpoint is the absolute http(s) URL of the provider's
	// user profile resource.  It may already carry query parameters.
	UserInformationEndpoint string

	// Scopes requested from the provider.
	Scopes []string

	// ScopeSeparator joins Scopes in FormatScope.  Defaults to a space.
	ScopeSeparator string

	// AccessTokenParam is the query parameter carrying the access token.
	// Defaults to "access_token".
	AccessTokenParam string

	// TokenPlacement controls where the access token is sent.
	TokenPlacement TokenPlacement

	// IdentifierParams are copied from the token response onto the request.
	IdentifierParams []IdentifierParam

	// ClaimsIssuer is stamped on every mapped claim.  Defaults to the scheme
	// name.
	ClaimsIssuer string

	// ProviderCA is an optional CA cert to use when sending requests to the
	// provider.
	ProviderCA string
}

// NewProviderConfig composes a new config for a provider.
//
// Supported options: WithScopes, WithScopeSeparator, WithAccessTokenParam,
// WithTokenPlacement, WithIdentifierParam, WithClaimsIssuer, WithProviderCA
func NewProviderConfig(name, userInformationEndpoint string, opt ...Option) (*ProviderConfig, error) {
	const op = "ticket.NewProviderConfig"
	opts := getProviderConfigOpts(opt...)
	c := &ProviderConfig{
		Name:                    name,
		UserInformationEndpoint: userInformationEndpoint,
		Scopes:                  opts.withScopes,
		ScopeSeparator:          opts.withScopeSeparator,
		AccessTokenParam:        opts.withAccessTokenParam,
		TokenPlacement:          opts.withTokenPlacement,
		IdentifierParams:        opts.withIdentifierParams,
		ClaimsIssuer:            opts.withClaimsIssuer,
		ProviderCA:              opts.withProviderCA,
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid provider config: %w", op, err)
	}
	return c, nil
}

// Validate the provider configuration.  Every problem found is reported in
// the returned *ConfigError.  It doesn't verify the endpoint is reachable.
func (c *ProviderConfig) Validate() error {
	const op = "ProviderConfig.Validate"
	if c == nil {
		return &ConfigError{Op: op, Msg: "provider config is nil", Err: ErrNilParameter}
	}
	var result *multierror.Error
	if err := validateEndpoint(c.UserInformationEndpoint); err != nil {
		result = multierror.Append(result, err)
	}
	switch c.TokenPlacement {
	case TokenInQuery, TokenInHeader, TokenInQueryAndHeader:
	default:
		result = multierror.Append(result, fmt.Errorf("unsupported token placement %s: %w", c.TokenPlacement, ErrInvalidParameter))
	}
	for i, p := range c.IdentifierParams {
		if p.Param == "" {
			result = multierror.Append(result, fmt.Errorf("identifier param %d has no query parameter name: %w", i, ErrInvalidParameter))
		}
		if p.TokenField == "" {
			result = multierror.Append(result, fmt.Errorf("identifier param %d has no token field: %w", i, ErrInvalidParameter))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return &ConfigError{Op: op, Msg: "invalid provider config", Err: err}
	}
	return nil
}

func validateEndpoint(endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("user information endpoint is empty: %w", ErrInvalidParameter)
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("user information endpoint %q is invalid: %v: %w", endpoint, err, ErrInvalidParameter)
	}
	if !strutils.StrListContains([]string{"https", "http"}, u.Scheme) {
		return fmt.Errorf("user information endpoint %q scheme is not http or https: %w", endpoint, ErrInvalidParameter)
	}
	if u.Host == "" {
		return fmt.Errorf("user information endpoint %q has no host: %w", endpoint, ErrInvalidParameter)
	}
	return nil
}

// FormatScope returns the de-duplicated scopes joined with the configured
// separator, ready for an authorization request's "scope" parameter.
func (c *ProviderConfig) FormatScope() string {
	sep := c.ScopeSeparator
	if sep == "" {
		sep = DefaultScopeSeparator
	}
	return strings.Join(strutils.RemoveDuplicatesStable(c.Scopes, false), sep)
}

// HttpClient is a helper function that creates a new http client for the
// provider configured.
//
// Supported options: WithTimeout
func (c *ProviderConfig) HttpClient(opt ...Option) (*http.Client, error) {
	const op = "ProviderConfig.HttpClient"
	opts := getClientOpts(opt...)
	client, err := sdkHttp.NewClient(c.ProviderCA, sdkHttp.WithTimeout(opts.withTimeout))
	if err != nil {
		if errors.Is(err, sdkHttp.ErrInvalidCertificatePem) {
			return nil, &ConfigError{Op: op, Msg: "could not parse CA PEM value", Err: err}
		}
		return nil, fmt.Errorf("%s: could not get an http client: %w", op, err)
	}
	return client, nil
}

func (c *ProviderConfig) accessTokenParam() string {
	if c.AccessTokenParam == "" {
		return DefaultAccessTokenParam
	}
	return c.AccessTokenParam
}

// userInfoURL appends the access token and identifier params to the
// configured endpoint.
func (c *ProviderConfig) userInfoURL(t *ProviderToken) (*url.URL, error) {
	const op = "ProviderConfig.userInfoURL"
	if err := validateEndpoint(c.UserInformationEndpoint); err != nil {
		return nil, &ConfigError{Op: op, Msg: "invalid user information endpoint", Err: err}
	}
	u, err := url.Parse(c.UserInformationEndpoint)
	if err != nil {
		return nil, &ConfigError{Op: op, Msg: "invalid user information endpoint", Err: err}
	}
	q := u.Query()
	if c.TokenPlacement.inQuery() {
		q.Set(c.accessTokenParam(), t.AccessToken())
	}
	if len(c.IdentifierParams) > 0 {
		raw, err := profile.FromInterface(t.Raw())
		if err != nil {
			return nil, &ConfigError{Op: op, Msg: "unable to read token response", Err: err}
		}
		for _, p := range c.IdentifierParams {
			v, err := raw.Lookup(p.TokenField)
			if err != nil {
				return nil, &ConfigError{Op: op, Msg: fmt.Sprintf("identifier %q is missing from the token response", p.TokenField), Err: err}
			}
			switch v.Kind() {
			case profile.KindString, profile.KindNumber, profile.KindBool:
			default:
				return nil, &ConfigError{Op: op, Msg: fmt.Sprintf("identifier %q in the token response is %s", p.TokenField, v.Kind()), Err: ErrInvalidParameter}
			}
			s, _ := v.Text()
			if s == "" {
				return nil, &ConfigError{Op: op, Msg: fmt.Sprintf("identifier %q in the token response is empty", p.TokenField), Err: ErrInvalidParameter}
			}
			q.Set(p.Param, s)
		}
	}
	u.RawQuery = q.Encode()
	return u, nil
}

// redactedURL returns u with the access token query parameter redacted, for
// logs and errors.
func (c *ProviderConfig) redactedURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	cp := *u
	q := cp.Query()
	if q.Get(c.accessTokenParam()) != "" {
		q.Set(c.accessTokenParam(), "redacted")
	}
	cp.RawQuery = q.Encode()
	return cp.String()
}

func (c *ProviderConfig) clone() *ProviderConfig {
	cp := *c
	cp.Scopes = append([]string(nil), c.Scopes...)
	cp.IdentifierParams = append([]IdentifierParam(nil), c.IdentifierParams...)
	return &cp
}

// providerConfigOptions is the set of available options
type providerConfigOptions struct {
	withScopes           []string
	withScopeSeparator   string
	withAccessTokenParam string
	withTokenPlacement   TokenPlacement
	withIdentifierParams []IdentifierParam
	withClaimsIssuer     string
	withProviderCA       string
}

// providerConfigDefaults is a handy way to get the defaults at runtime and
// during unit tests.
func providerConfigDefaults() providerConfigOptions {
	return providerConfigOptions{}
}

// getProviderConfigOpts gets the defaults and applies the opt overrides passed
// in.
func getProviderConfigOpts(opt ...Option) providerConfigOptions {
	opts := providerConfigDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// clientOptions is the set of available options for HttpClient
type clientOptions struct {
	withTimeout time.Duration
}

func getClientOpts(opt ...Option) clientOptions {
	opts := clientOptions{}
	ApplyOpts(&opts, opt...)
	return opts
}

// WithScopes provides an optional list of scopes for the provider's config
func WithScopes(scopes ...string) Option {
	return func(o interface{}) {
		if o, ok := o.(*providerConfigOptions); ok {
			o.withScopes = scopes
		}
	}
}

// WithScopeSeparator provides an optional separator used by FormatScope.
func WithScopeSeparator(sep string) Option {
	return func(o interface{}) {
		if o, ok := o.(*providerConfigOptions); ok {
			o.withScopeSeparator = sep
		}
	}
}

// WithAccessTokenParam provides an optional query parameter name for the
// access token.
func WithAccessTokenParam(name string) Option {
	return func(o interface{}) {
		if o, ok := o.(*providerConfigOptions); ok {
			o.withAccessTokenParam = name
		}
	}
}

// WithTokenPlacement provides an optional placement for the access token.
func WithTokenPlacement(p TokenPlacement) Option {
	return func(o interface{}) {
		if o, ok := o.(*providerConfigOptions); ok {
			o.withTokenPlacement = p
		}
	}
}

// WithIdentifierParam adds a query parameter copied from the token response.
// It may be used more than once.
func WithIdentifierParam(param, tokenField string) Option {
	return func(o interface{}) {
		if o, ok := o.(*providerConfigOptions); ok {
			o.withIdentifierParams = append(o.withIdentifierParams, IdentifierParam{Param: param, TokenField: tokenField})
		}
	}
}

// WithClaimsIssuer provides an optional issuer for mapped claims.
func WithClaimsIssuer(iss string) Option {
	return func(o interface{}) {
		if o, ok := o.(*providerConfigOptions); ok {
			o.withClaimsIssuer = iss
		}
	}
}

// WithProviderCA provides an optional CA cert for the provider's config
func WithProviderCA(cert string) Option {
	return func(o interface{}) {
		if o, ok := o.(*providerConfigOptions); ok {
			o.withProviderCA = cert
		}
	}
}

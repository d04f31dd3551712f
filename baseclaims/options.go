// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package baseclaims

import (
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/oauthticket/ticket"
)

// Option defines a common functional options type which can be used in a
// variadic parameter pattern.
type Option func(interface{})

// ApplyOpts takes a pointer to the options struct as a set of default options
// and applies the slice of opts as overrides.
func ApplyOpts(opts interface{}, opt ...Option) {
	for _, o := range opt {
		if o == nil { // ignore any nil Options
			continue
		}
		o(opts)
	}
}

// verifierOptions is the set of available options for NewVerifier and
// NewDiscoveryVerifier
type verifierOptions struct {
	withSupportedSigningAlgs []string
	withRules                []ticket.ClaimMappingRule
	withClaimsIssuer         string
	withNow                  func() time.Time
	withLogger               hclog.Logger
	withProviderCA           string
}

func verifierDefaults() verifierOptions {
	return verifierOptions{
		withSupportedSigningAlgs: DefaultSigningAlgs,
		withRules:                DefaultRules,
		withLogger:               hclog.NewNullLogger(),
	}
}

func getVerifierOpts(opt ...Option) verifierOptions {
	opts := verifierDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// claimsOptions is the set of available options for Verifier.Claims
type claimsOptions struct {
	withNonce       string
	withAccessToken string
}

func claimsDefaults() claimsOptions {
	return claimsOptions{}
}

func getClaimsOpts(opt ...Option) claimsOptions {
	opts := claimsDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithSupportedSigningAlgs provides the signing algorithms accepted for
// id_tokens.  Defaults to DefaultSigningAlgs.
func WithSupportedSigningAlgs(algs ...string) Option {
	return func(o interface{}) {
		if o, ok := o.(*verifierOptions); ok && len(algs) > 0 {
			o.withSupportedSigningAlgs = algs
		}
	}
}

// WithRules provides the rules mapping id_token claims onto base claims.
// Defaults to DefaultRules.
func WithRules(rules ...ticket.ClaimMappingRule) Option {
	return func(o interface{}) {
		if o, ok := o.(*verifierOptions); ok {
			o.withRules = rules
		}
	}
}

// WithClaimsIssuer provides the issuer of the base claims.  Defaults to the
// id_token's iss.
func WithClaimsIssuer(iss string) Option {
	return func(o interface{}) {
		if o, ok := o.(*verifierOptions); ok {
			o.withClaimsIssuer = iss
		}
	}
}

// WithNow provides the time used for expiry checks.
func WithNow(now func() time.Time) Option {
	return func(o interface{}) {
		if o, ok := o.(*verifierOptions); ok {
			o.withNow = now
		}
	}
}

// WithLogger provides an optional logger.
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*verifierOptions); ok && l != nil {
			o.withLogger = l
		}
	}
}

// WithProviderCA provides PEM encoded CA certificates trusted for discovery
// and JWKS requests.
func WithProviderCA(cert string) Option {
	return func(o interface{}) {
		if o, ok := o.(*verifierOptions); ok {
			o.withProviderCA = cert
		}
	}
}

// WithNonce requires the id_token nonce to equal n.
func WithNonce(n string) Option {
	return func(o interface{}) {
		if o, ok := o.(*claimsOptions); ok {
			o.withNonce = n
		}
	}
}

// WithAccessToken verifies the id_token's at_hash, when present, against
// the access token.
func WithAccessToken(at string) Option {
	return func(o interface{}) {
		if o, ok := o.(*claimsOptions); ok {
			o.withAccessToken = at
		}
	}
}

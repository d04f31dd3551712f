// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package baseclaims

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/oauthticket/profile"
	sdkhttp "github.com/hashicorp/oauthticket/sdk/http"
	"github.com/hashicorp/oauthticket/ticket"
)

// DefaultSigningAlgs are the id_token signing algorithms accepted by default.
var DefaultSigningAlgs = []string{
	oidc.RS256, oidc.RS384, oidc.RS512,
	oidc.ES256, oidc.ES384, oidc.ES512,
	oidc.PS256, oidc.PS384, oidc.PS512,
}

// DefaultRules map the standard OIDC claims of an id_token.  Only sub is
// required.
var DefaultRules = []ticket.ClaimMappingRule{
	ticket.MapKey(ticket.ClaimSubject, "sub"),
	ticket.MapOptionalKey(ticket.ClaimName, "name"),
	ticket.MapOptionalKey(ticket.ClaimGivenName, "given_name"),
	ticket.MapOptionalKey(ticket.ClaimFamilyName, "family_name"),
	ticket.MapOptionalKey(ticket.ClaimNickname, "nickname"),
	ticket.MapOptionalKey(ticket.ClaimEmail, "email"),
	{ClaimType: "email_verified", SourcePath: "email_verified", ValueType: ticket.ValueTypeBoolean, Optional: true},
	ticket.MapOptionalKey(ticket.ClaimPicture, "picture"),
	ticket.MapOptionalKey(ticket.ClaimLocale, "locale"),
	ticket.MapOptionalKey("amr", "amr"),
}

// Verifier verifies OIDC id_tokens and maps their claims onto base claims for
// ticket.WithBaseClaims.  A Verifier is safe for concurrent use.
type Verifier struct {
	verifier *oidc.IDTokenVerifier
	rules    []ticket.ClaimMappingRule
	issuer   string
	logger   hclog.Logger
}

// NewVerifier returns a Verifier for id_tokens issued by issuer to clientID
// and signed by a key of keySet (see NewStaticKeySet and
// oidc.NewRemoteKeySet).
//
// Supported options: WithSupportedSigningAlgs, WithRules, WithClaimsIssuer,
// WithNow, WithLogger
func NewVerifier(issuer, clientID string, keySet oidc.KeySet, opt ...Option) (*Verifier, error) {
	const op = "baseclaims.NewVerifier"
	switch {
	case issuer == "":
		return nil, fmt.Errorf("%s: issuer is empty: %w", op, ErrInvalidParameter)
	case clientID == "":
		return nil, fmt.Errorf("%s: client id is empty: %w", op, ErrInvalidParameter)
	case keySet == nil:
		return nil, fmt.Errorf("%s: key set is nil: %w", op, ErrNilParameter)
	}
	opts := getVerifierOpts(opt...)
	if err := ticket.ValidateRules(opts.withRules); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	v := oidc.NewVerifier(issuer, keySet, &oidc.Config{
		ClientID:             clientID,
		SupportedSigningAlgs: opts.withSupportedSigningAlgs,
		Now:                  opts.withNow,
	})
	return newVerifier(v, opts), nil
}

// NewDiscoveryVerifier is NewVerifier for an issuer publishing OIDC discovery
// metadata.  Its keys are fetched from the advertised jwks_uri.
//
// Supported options: WithSupportedSigningAlgs, WithRules, WithClaimsIssuer,
// WithNow, WithLogger, WithProviderCA
func NewDiscoveryVerifier(ctx context.Context, issuer, clientID string, opt ...Option) (*Verifier, error) {
	const op = "baseclaims.NewDiscoveryVerifier"
	switch {
	case issuer == "":
		return nil, fmt.Errorf("%s: issuer is empty: %w", op, ErrInvalidParameter)
	case clientID == "":
		return nil, fmt.Errorf("%s: client id is empty: %w", op, ErrInvalidParameter)
	}
	opts := getVerifierOpts(opt...)
	if err := ticket.ValidateRules(opts.withRules); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	client, err := sdkhttp.NewClient(opts.withProviderCA)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to create http client: %w", op, err)
	}
	// the remote key set keeps using the client from this context
	p, err := oidc.NewProvider(oidc.ClientContext(ctx, client), issuer)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to discover provider: %w", op, err)
	}
	v := p.Verifier(&oidc.Config{
		ClientID:             clientID,
		SupportedSigningAlgs: opts.withSupportedSigningAlgs,
		Now:                  opts.withNow,
	})
	return newVerifier(v, opts), nil
}

func newVerifier(v *oidc.IDTokenVerifier, opts verifierOptions) *Verifier {
	return &Verifier{
		verifier: v,
		rules:    append([]ticket.ClaimMappingRule(nil), opts.withRules...),
		issuer:   opts.withClaimsIssuer,
		logger:   opts.withLogger.Named("baseclaims"),
	}
}

// Claims verifies rawIDToken and maps its claims.  Claims are issued by the
// id_token's iss unless WithClaimsIssuer was given.
//
// Supported options: WithNonce, WithAccessToken
func (v *Verifier) Claims(ctx context.Context, rawIDToken string, opt ...Option) ([]ticket.Claim, error) {
	const op = "Verifier.Claims"
	if rawIDToken == "" {
		return nil, fmt.Errorf("%s: id_token is empty: %w", op, ErrInvalidParameter)
	}
	opts := getClaimsOpts(opt...)
	idToken, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		v.logger.Debug("id_token verification failed", "error", err)
		return nil, fmt.Errorf("%s: %v: %w", op, err, ErrInvalidIDToken)
	}
	if opts.withNonce != "" && idToken.Nonce != opts.withNonce {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidNonce)
	}
	if opts.withAccessToken != "" && idToken.AccessTokenHash != "" {
		if err := idToken.VerifyAccessToken(opts.withAccessToken); err != nil {
			return nil, fmt.Errorf("%s: %v: %w", op, err, ErrInvalidAtHash)
		}
	}

	var raw json.RawMessage
	if err := idToken.Claims(&raw); err != nil {
		return nil, fmt.Errorf("%s: unable to read id_token claims: %v: %w", op, err, ErrInvalidIDToken)
	}
	doc, err := profile.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", op, err, ErrInvalidIDToken)
	}
	issuer := v.issuer
	if issuer == "" {
		issuer = idToken.Issuer
	}
	claims, err := ticket.MapClaims(doc, v.rules, issuer)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	v.logger.Trace("id_token verified", "sub", idToken.Subject, "claims", len(claims))
	return claims, nil
}

// BaseClaims is Claims returned as a ticket.WithBaseClaims option.
func (v *Verifier) BaseClaims(ctx context.Context, rawIDToken string, opt ...Option) (ticket.Option, error) {
	claims, err := v.Claims(ctx, rawIDToken, opt...)
	if err != nil {
		return nil, err
	}
	return ticket.WithBaseClaims(claims...), nil
}

// FromIDToken verifies rawIDToken with an existing go-oidc verifier, such as
// one from oidc.Provider.Verifier, and maps its claims with rules.
// DefaultRules are used when no rules are given.
func FromIDToken(ctx context.Context, v *oidc.IDTokenVerifier, rawIDToken string, rules ...ticket.ClaimMappingRule) ([]ticket.Claim, error) {
	const op = "baseclaims.FromIDToken"
	if v == nil {
		return nil, fmt.Errorf("%s: verifier is nil: %w", op, ErrNilParameter)
	}
	if len(rules) == 0 {
		rules = DefaultRules
	}
	if err := ticket.ValidateRules(rules); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return newVerifier(v, verifierOptions{withRules: rules, withLogger: hclog.NewNullLogger()}).Claims(ctx, rawIDToken)
}

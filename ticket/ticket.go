// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package ticket

import (
	"context"

	"github.com/hashicorp/oauthticket/profile"
)

// Well known claim types used by the provider presets.  They follow the
// OpenID Connect standard claim names.
const (
	ClaimSubject    = "sub"
	ClaimName       = "name"
	ClaimGivenName  = "given_name"
	ClaimFamilyName = "family_name"
	ClaimNickname   = "nickname"
	ClaimEmail      = "email"
	ClaimGender     = "gender"
	ClaimLocale     = "locale"
	ClaimPicture    = "picture"
	ClaimWebsite    = "website"
)

// Claim is a single typed attribute asserted about an identity.
type Claim struct {
	Type      string
	Value     string
	ValueType string
	Issuer    string
}

// Properties is an opaque bag of authentication session metadata owned by the
// caller.
type Properties map[string]string

// IdentityTicket is the result of a successful ticket build.  Ownership passes
// to the caller.
type IdentityTicket struct {
	// ID correlates the ticket with the log lines of the build that produced
	// it.
	ID string

	// SchemeName is the authentication scheme the ticket was issued for.
	SchemeName string

	// Claims in order: surviving base claims first, then mapped claims in
	// rule order.  Duplicates are allowed.
	Claims []Claim

	// Properties are the caller's properties, unchanged.
	Properties Properties
}

// FindFirst returns the first claim of claimType.
func (t *IdentityTicket) FindFirst(claimType string) (Claim, bool) {
	for _, c := range t.Claims {
		if c.Type == claimType {
			return c, true
		}
	}
	return Claim{}, false
}

// FindAll returns every claim of claimType in order.
func (t *IdentityTicket) FindAll(claimType string) []Claim {
	var out []Claim
	for _, c := range t.Claims {
		if c.Type == claimType {
			out = append(out, c)
		}
	}
	return out
}

// HasClaim reports whether the ticket holds a claim with the type and value.
func (t *IdentityTicket) HasClaim(claimType, value string) bool {
	for _, c := range t.Claims {
		if c.Type == claimType && c.Value == value {
			return true
		}
	}
	return false
}

// AddClaim appends a claim.
func (t *IdentityTicket) AddClaim(c Claim) {
	t.Claims = append(t.Claims, c)
}

// CreatingTicketContext is passed to a CreatingTicketFunc.
type CreatingTicketContext struct {
	// Ticket may be amended by the func.
	Ticket *IdentityTicket

	// Profile is the parsed user info document.
	Profile profile.Value

	Token *ProviderToken

	// Config is a copy of the builder's provider configuration.
	Config *ProviderConfig
}

// CreatingTicketFunc is called once a ticket is assembled.  A returned error
// fails the build.
type CreatingTicketFunc func(ctx context.Context, c *CreatingTicketContext) error

// mergeClaims puts base claims first, dropping any whose type is also in
// mapped.
func mergeClaims(base, mapped []Claim) []Claim {
	overridden := make(map[string]struct{}, len(mapped))
	for _, c := range mapped {
		overridden[c.Type] = struct{}{}
	}
	out := make([]Claim, 0, len(base)+len(mapped))
	for _, c := range base {
		if _, ok := overridden[c.Type]; ok {
			continue
		}
		out = append(out, c)
	}
	return append(out, mapped...)
}

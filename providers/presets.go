// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package providers

import (
	"fmt"
	"strings"

	"github.com/hashicorp/oauthticket/profile"
	"github.com/hashicorp/oauthticket/ticket"
)

// Provider endpoints.
const (
	WeiboUserInformationEndpoint  = "https://api.weibo.com/2/users/show.json"
	PayPalUserInformationEndpoint = "https://api.paypal.com/v1/identity/oauth2/userinfo?schema=paypalv1.1"
	GitHubUserInformationEndpoint = "https://api.github.com/user"
)

// Weibo returns the Weibo provider.  Weibo requires the user's id from the
// token response (uid) as a query parameter and joins scopes with commas.
func Weibo() *Provider {
	return &Provider{
		Name: "Weibo",
		Config: &ticket.ProviderConfig{
			Name:                    "Weibo",
			UserInformationEndpoint: WeiboUserInformationEndpoint,
			Scopes:                  []string{"email"},
			ScopeSeparator:          ",",
			TokenPlacement:          ticket.TokenInQuery,
			IdentifierParams:        []ticket.IdentifierParam{{Param: "uid", TokenField: "uid"}},
		},
		Rules: []ticket.ClaimMappingRule{
			ticket.MapKey(ticket.ClaimSubject, "id"),
			ticket.MapOptionalKey(ticket.ClaimName, "name"),
			ticket.MapOptionalKey("urn:weibo:screen_name", "screen_name"),
			ticket.MapOptionalKey(ticket.ClaimGender, "gender"),
			ticket.MapOptionalKey("urn:weibo:profile_image_url", "profile_image_url"),
			ticket.MapOptionalKey("urn:weibo:avatar_large", "avatar_large"),
			ticket.MapOptionalKey("urn:weibo:avatar_hd", "avatar_hd"),
			ticket.MapOptionalKey("urn:weibo:cover_image_phone", "cover_image_phone"),
			ticket.MapOptionalKey(ticket.ClaimLocale, "lang"),
			ticket.MapOptionalKey("urn:weibo:location", "location"),
		},
	}
}

// PayPal returns the PayPal provider.  The subject is the last path segment
// of the user_id URL and the email is the primary entry of emails.
func PayPal() *Provider {
	return &Provider{
		Name: "PayPal",
		Config: &ticket.ProviderConfig{
			Name:                    "PayPal",
			UserInformationEndpoint: PayPalUserInformationEndpoint,
			Scopes:                  []string{"openid", "profile", "email"},
			TokenPlacement:          ticket.TokenInHeader,
		},
		Rules: []ticket.ClaimMappingRule{
			ticket.MapCustom(ticket.ClaimSubject, PayPalSubject, false),
			ticket.MapOptionalKey(ticket.ClaimName, "name"),
			ticket.MapOptionalKey(ticket.ClaimGivenName, "given_name"),
			ticket.MapOptionalKey(ticket.ClaimFamilyName, "family_name"),
			ticket.MapCustom(ticket.ClaimEmail, PrimaryEmail, true),
		},
	}
}

// GitHub returns the GitHub provider.
func GitHub() *Provider {
	return &Provider{
		Name: "GitHub",
		Config: &ticket.ProviderConfig{
			Name:                    "GitHub",
			UserInformationEndpoint: GitHubUserInformationEndpoint,
			Scopes:                  []string{"read:user", "user:email"},
			TokenPlacement:          ticket.TokenInHeader,
		},
		Rules: []ticket.ClaimMappingRule{
			ticket.MapKey(ticket.ClaimSubject, "id"),
			ticket.MapOptionalKey(ticket.ClaimName, "name"),
			ticket.MapOptionalKey("urn:github:login", "login"),
			ticket.MapOptionalKey(ticket.ClaimEmail, "email"),
			ticket.MapOptionalKey(ticket.ClaimPicture, "avatar_url"),
			ticket.MapOptionalKey("urn:github:url", "html_url"),
		},
	}
}

// PayPalSubject extracts the last path segment of user_id, for example
// "baCNqjGvIxzlbvDCSsfhN3IrQDtQtsVr79AwAjMxekw" from
// "https://www.paypal.com/webapps/auth/identity/user/baCNqjGvIxzlbvDCSsfhN3IrQDtQtsVr79AwAjMxekw".
func PayPalSubject(doc profile.Value) (profile.Value, error) {
	v, err := doc.Lookup("user_id")
	if err != nil {
		return profile.Value{}, err
	}
	s, ok := v.AsString()
	if !ok {
		return profile.Value{}, fmt.Errorf("user_id is %s: %w", v.Kind(), profile.ErrTypeMismatch)
	}
	s = strings.TrimRight(s, "/")
	return profile.StringValue(s[strings.LastIndex(s, "/")+1:]), nil
}

// PrimaryEmail extracts the value of the entry of emails flagged primary.
func PrimaryEmail(doc profile.Value) (profile.Value, error) {
	emails, err := doc.Lookup("emails")
	if err != nil {
		return profile.Value{}, err
	}
	if emails.Kind() != profile.KindArray {
		return profile.Value{}, fmt.Errorf("emails is %s: %w", emails.Kind(), profile.ErrTypeMismatch)
	}
	for _, e := range emails.Elements() {
		p, ok := e.Field("primary")
		if !ok {
			continue
		}
		if primary, _ := p.AsBool(); primary {
			return e.Lookup("value")
		}
	}
	return profile.Value{}, fmt.Errorf("no primary email: %w", profile.ErrNotFound)
}

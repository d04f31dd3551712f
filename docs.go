// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// oauthticket creates identity tickets from OAuth2 providers' user
// information endpoints.
//
// Packages:
//
//	ticket      provider config, claim mapping rules and the ticket Builder
//	profile     the parsed user information document
//	providers   Weibo, PayPal and GitHub presets and YAML provider definitions
//	baseclaims  base claims from a verified OIDC id_token
//	sdk/http    pooled http clients with custom CAs
//
// See README.md
package oauthticket

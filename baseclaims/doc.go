// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
baseclaims verifies OpenID Connect id_tokens and maps their claims onto base
identity claims for a ticket build.

Providers which return an id_token alongside the access token (PayPal, with
the openid scope) assert the user's identity twice.  A Verifier checks the
id_token (signature, issuer, audience, expiry and optionally nonce and
at_hash) and maps its claims with ticket claim mapping rules.  Passing the
result to ticket.WithBaseClaims puts them ahead of the user information
claims, which win when both have the same claim type.

Keys come from a StaticKeySet of PEM encoded public keys (NewVerifier) or from
the issuer's discovery metadata (NewDiscoveryVerifier).
*/
package baseclaims

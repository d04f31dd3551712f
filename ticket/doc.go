// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
ticket is a package for creating identity tickets from an OAuth2 provider's
user information endpoint, once an access token has been obtained.

Primary types provided by the package

* ProviderToken: represents the token response of an OAuth2 exchange: the
access token plus any raw fields (for example a provider specific user id)
which may be needed to address the user information request.

* ProviderConfig: describes a provider's user information endpoint: its URL,
how the access token is sent (query parameter, bearer header or both), which
token response fields become extra query parameters, scopes and the claims
issuer.

* ClaimMappingRule: maps one value of the user information document onto a
claim, either by a dotted path or a custom Extractor.  Rules can be required
or optional and have a value type (string, integer, double, boolean, json).

* Builder: requests the user information resource, parses it and applies the
claim mapping rules, producing an IdentityTicket.  A Builder is immutable and
safe for concurrent use.

* IdentityTicket: the resulting claims, scheme name and the caller's
properties.

Errors

A failed build returns one of *ConfigError, *FetchError, *ParseError or
*MappingError, each of which matches its sentinel with errors.Is (ErrConfig,
ErrFetchFailed, ErrParseFailed, ErrMappingFailed).  Cancellation of the
caller's context is returned as ctx.Err().

Testing

TestProvider is a local TLS server which impersonates a user information
endpoint.  See StartTestProvider.
*/
package ticket

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
profile is a package for reading the provider specific documents returned by an
OAuth2 provider's user information endpoint.

A document is a Value: a tagged variant over null, boolean, number, string,
array and object.  Object members keep the order they had in the document and
numbers keep their literal text, so a Value can be re-encoded without losing
information.

Fields are read with a dotted path:

	v, err := doc.Lookup("data.emails.0.address")

Missing members and out of range indexes return ErrNotFound, descending into a
scalar returns ErrTypeMismatch.  Neither is ever silently turned into a zero
value.
*/
package profile

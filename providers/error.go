// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package providers

import "errors"

var (
	// ErrUnknownProvider is returned when a built-in provider name is not
	// recognized.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrInvalidDefinition is returned when a provider definition can't be
	// decoded or doesn't describe a valid provider.
	ErrInvalidDefinition = errors.New("invalid provider definition")

	// ErrDuplicateProvider is returned when a set of definitions names the
	// same provider more than once.
	ErrDuplicateProvider = errors.New("duplicate provider")
)

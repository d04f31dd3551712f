// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package profile

import "errors"

var (
	ErrMalformed       = errors.New("malformed document")
	ErrNotFound        = errors.New("not found")
	ErrTypeMismatch    = errors.New("type mismatch")
	ErrInvalidPath     = errors.New("invalid path")
	ErrUnsupportedType = errors.New("unsupported type")
)

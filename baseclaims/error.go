// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package baseclaims

import "errors"

var (
	// ErrInvalidParameter - invalid parameter
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrNilParameter - nil parameter
	ErrNilParameter = errors.New("nil parameter")

	// ErrInvalidIDToken - the id_token failed verification
	ErrInvalidIDToken = errors.New("invalid id_token")

	// ErrInvalidSignature - no known key validated the signature
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrInvalidNonce - the id_token nonce doesn't match the expected nonce
	ErrInvalidNonce = errors.New("invalid nonce")

	// ErrInvalidAtHash - the id_token at_hash doesn't match the access token
	ErrInvalidAtHash = errors.New("access_token hash does not match value in id_token")

	// ErrInvalidPublicKey - the data isn't a PEM encoded RSA or ECDSA public key
	ErrInvalidPublicKey = errors.New("invalid public key")
)

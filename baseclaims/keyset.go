// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package baseclaims

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"gopkg.in/square/go-jose.v2"
)

// StaticKeySet verifies id_token signatures with local public keys.  It
// satisfies go-oidc's KeySet.
type StaticKeySet struct {
	publicKeys []crypto.PublicKey
}

// NewStaticKeySet returns a StaticKeySet for the PEM encoded x509
// certificates or PKIX public keys.
func NewStaticKeySet(publicKeysPEM ...string) (*StaticKeySet, error) {
	const op = "baseclaims.NewStaticKeySet"
	if len(publicKeysPEM) == 0 {
		return nil, fmt.Errorf("%s: no public keys: %w", op, ErrInvalidParameter)
	}
	keys := make([]crypto.PublicKey, 0, len(publicKeysPEM))
	for i, k := range publicKeysPEM {
		key, err := parsePublicKeyPEM([]byte(k))
		if err != nil {
			return nil, fmt.Errorf("%s: key %d: %w", op, i, err)
		}
		keys = append(keys, key)
	}
	return &StaticKeySet{publicKeys: keys}, nil
}

// VerifySignature parses the JWS compact serialized token and returns its
// payload once a known key validates the signature.
func (ks *StaticKeySet) VerifySignature(_ context.Context, token string) ([]byte, error) {
	const op = "StaticKeySet.VerifySignature"
	jws, err := jose.ParseSigned(token)
	if err != nil {
		return nil, fmt.Errorf("%s: malformed jwt: %v: %w", op, err, ErrInvalidSignature)
	}
	for _, key := range ks.publicKeys {
		if payload, err := jws.Verify(key); err == nil {
			return payload, nil
		}
	}
	return nil, fmt.Errorf("%s: no known key successfully validated the token signature: %w", op, ErrInvalidSignature)
}

// parsePublicKeyPEM returns the *rsa.PublicKey or *ecdsa.PublicKey in data.
func parsePublicKeyPEM(data []byte) (crypto.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block: %w", ErrInvalidPublicKey)
	}
	rawKey, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		cert, certErr := x509.ParseCertificate(block.Bytes)
		if certErr != nil {
			return nil, fmt.Errorf("%v: %w", err, ErrInvalidPublicKey)
		}
		rawKey = cert.PublicKey
	}
	switch k := rawKey.(type) {
	case *rsa.PublicKey:
		return k, nil
	case *ecdsa.PublicKey:
		return k, nil
	default:
		return nil, fmt.Errorf("unsupported key type %T: %w", rawKey, ErrInvalidPublicKey)
	}
}

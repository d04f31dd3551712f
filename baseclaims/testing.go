// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package baseclaims

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/square/go-jose.v2"
	"gopkg.in/square/go-jose.v2/jwt"
)

// TestGenerateKeys will generate a test ECDSA P-256 pub/priv key pair
func TestGenerateKeys(t *testing.T) (pub, priv string) {
	t.Helper()
	require := require.New(t)
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(err)

	{
		derBytes, err := x509.MarshalECPrivateKey(privateKey)
		require.NoError(err)
		priv = string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: derBytes}))
	}
	{
		derBytes, err := x509.MarshalPKIXPublicKey(privateKey.Public())
		require.NoError(err)
		pub = string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: derBytes}))
	}
	return pub, priv
}

// TestSignJWT will bundle the provided claims into a test signed JWT.  The
// provided key must be ECDSA.  An optional keyID is set as the kid header.
func TestSignJWT(t *testing.T, ecdsaPrivKeyPEM, keyID string, claims jwt.Claims, privateClaims interface{}) string {
	t.Helper()
	require := require.New(t)
	block, _ := pem.Decode([]byte(ecdsaPrivKeyPEM))
	require.NotNil(block)
	key, err := x509.ParseECPrivateKey(block.Bytes)
	require.NoError(err)

	signerOpts := (&jose.SignerOptions{}).WithType("JWT")
	if keyID != "" {
		signerOpts = signerOpts.WithHeader("kid", keyID)
	}
	sig, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.ES256, Key: key}, signerOpts)
	require.NoError(err)

	builder := jwt.Signed(sig).Claims(claims)
	if privateClaims != nil {
		builder = builder.Claims(privateClaims)
	}
	raw, err := builder.CompactSerialize()
	require.NoError(err)
	return raw
}

// TestIssuer is a local TLS server which publishes OIDC discovery metadata
// and a JWKS for an issuer.
type TestIssuer struct {
	httpServer *httptest.Server
	caCert     string
	jwks       []byte
}

// StartTestIssuer creates a disposable TestIssuer publishing the PEM encoded
// ECDSA public key under keyID.  It's stopped when the test completes.
func StartTestIssuer(t *testing.T, publicKeyPEM, keyID string) *TestIssuer {
	t.Helper()
	require := require.New(t)

	key, err := parsePublicKeyPEM([]byte(publicKeyPEM))
	require.NoError(err)
	jwks, err := json.Marshal(jose.JSONWebKeySet{
		Keys: []jose.JSONWebKey{{Key: key, KeyID: keyID, Algorithm: string(jose.ES256), Use: "sig"}},
	})
	require.NoError(err)

	i := &TestIssuer{jwks: jwks}
	i.httpServer = httptest.NewUnstartedServer(i)
	i.httpServer.Config.ErrorLog = log.New(io.Discard, "", 0)
	i.httpServer.StartTLS()
	t.Cleanup(i.httpServer.Close)

	var buf bytes.Buffer
	require.NoError(pem.Encode(&buf, &pem.Block{Type: "CERTIFICATE", Bytes: i.httpServer.Certificate().Raw}))
	i.caCert = buf.String()
	return i
}

// Addr returns the issuer URL.
func (i *TestIssuer) Addr() string { return i.httpServer.URL }

// CACert returns the PEM encoded CA certificate of the issuer's TLS server.
func (i *TestIssuer) CACert() string { return i.caCert }

// ServeHTTP implements the test issuer's http.Handler.
func (i *TestIssuer) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	switch req.URL.Path {
	case "/.well-known/openid-configuration":
		addr := i.Addr()
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"issuer":                                addr,
			"authorization_endpoint":                addr + "/authorize",
			"token_endpoint":                        addr + "/token",
			"userinfo_endpoint":                     addr + "/userinfo",
			"jwks_uri":                              addr + "/.well-known/jwks.json",
			"id_token_signing_alg_values_supported": []string{string(jose.ES256)},
		})
	case "/.well-known/jwks.json":
		_, _ = w.Write(i.jwks)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

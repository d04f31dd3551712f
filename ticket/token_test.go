// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package ticket

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestNewProviderToken(t *testing.T) {
	t.Parallel()
	expiry := time.Now().Add(time.Hour)
	tests := []struct {
		name        string
		accessToken string
		raw         map[string]interface{}
		opt         []Option
		wantErr     bool
		wantIsErr   error
	}{
		{
			name:        "valid",
			accessToken: "tok123",
			raw:         map[string]interface{}{"uid": "42"},
			opt:         []Option{WithTokenType("Bearer"), WithRefreshToken("refresh"), WithExpiry(expiry)},
		},
		{
			name:        "nil-raw",
			accessToken: "tok123",
		},
		{
			name:      "empty-access-token",
			raw:       map[string]interface{}{"uid": "42"},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			got, err := NewProviderToken(tt.accessToken, tt.raw, tt.opt...)
			if tt.wantErr {
				require.Error(err)
				assert.Truef(errors.Is(err, tt.wantIsErr), "wanted \"%s\" but got \"%s\"", tt.wantIsErr, err)
				return
			}
			require.NoError(err)
			assert.Equal(tt.accessToken, got.AccessToken())
			assert.Len(got.Raw(), len(tt.raw))
			assert.True(got.Valid())
		})
	}
}

func TestProviderToken_Immutable(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	raw := map[string]interface{}{"uid": "42"}
	tk := testNewToken(t, "tok123", raw)

	raw["uid"] = "43"
	assert.Equal("42", tk.Raw()["uid"])

	got := tk.Raw()
	got["uid"] = "44"
	assert.Equal("42", tk.Raw()["uid"])
}

func TestProviderToken_Expired(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		opt         []Option
		wantExpired bool
	}{
		{name: "no-expiry"},
		{name: "future", opt: []Option{WithExpiry(time.Now().Add(time.Hour))}},
		{name: "past", opt: []Option{WithExpiry(time.Now().Add(-time.Hour))}, wantExpired: true},
		{name: "within-skew", opt: []Option{WithExpiry(time.Now().Add(5 * time.Second))}, wantExpired: true},
		{
			name:        "within-custom-skew",
			opt:         []Option{WithExpiry(time.Now().Add(time.Minute)), WithExpirySkew(2 * time.Minute)},
			wantExpired: true,
		},
		{
			name: "no-skew",
			opt:  []Option{WithExpiry(time.Now().Add(5 * time.Second)), WithExpirySkew(0)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert := assert.New(t)
			tk := testNewToken(t, "tok", nil, tt.opt...)
			assert.Equal(tt.wantExpired, tk.Expired())
			assert.Equal(!tt.wantExpired, tk.Valid())
		})
	}
	t.Run("nil", func(t *testing.T) {
		var tk *ProviderToken
		assert.False(t, tk.Valid())
		assert.Equal(t, "", tk.AccessToken())
	})
}

func TestTokenFromOAuth2(t *testing.T) {
	t.Parallel()
	expiry := time.Now().Add(time.Hour)
	base := &oauth2.Token{
		AccessToken:  "tok123",
		TokenType:    "Bearer",
		RefreshToken: "refresh",
		Expiry:       expiry,
	}
	tests := []struct {
		name      string
		token     *oauth2.Token
		keys      []string
		wantRaw   map[string]interface{}
		wantErr   bool
		wantIsErr error
	}{
		{
			name:    "map-extra",
			token:   base.WithExtra(map[string]interface{}{"uid": "42", "remind_in": "157679999", "other": true}),
			keys:    []string{"uid", "remind_in", "missing"},
			wantRaw: map[string]interface{}{"uid": "42", "remind_in": "157679999"},
		},
		{
			name:    "form-extra",
			token:   base.WithExtra(url.Values{"uid": []string{"42"}}),
			keys:    []string{"uid", "missing"},
			wantRaw: map[string]interface{}{"uid": int64(42)},
		},
		{
			name:    "no-keys",
			token:   base,
			wantRaw: map[string]interface{}{},
		},
		{
			name:      "nil",
			wantErr:   true,
			wantIsErr: ErrNilParameter,
		},
		{
			name:      "empty-access-token",
			token:     &oauth2.Token{TokenType: "Bearer"},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			got, err := TokenFromOAuth2(tt.token, tt.keys...)
			if tt.wantErr {
				require.Error(err)
				assert.ErrorIs(err, tt.wantIsErr)
				return
			}
			require.NoError(err)
			assert.Equal("tok123", got.AccessToken())
			assert.Equal("Bearer", got.TokenType())
			assert.Equal("refresh", got.RefreshToken())
			assert.Equal(expiry, got.Expiry())
			assert.Equal(tt.wantRaw, got.Raw())
		})
	}
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package providers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/hashicorp/oauthticket/profile"
	"github.com/hashicorp/oauthticket/ticket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// replay answers every request with status and body and records the
// request.
type replay struct {
	status int
	body   string
	got    *http.Request
}

func (r *replay) Do(req *http.Request) (*http.Response, error) {
	r.got = req
	return &http.Response{
		StatusCode: r.status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(r.body)),
		Request:    req,
	}, nil
}

const weiboProfile = `{
	"id": 1404376560,
	"idstr": "1404376560",
	"screen_name": "zaku",
	"name": "zaku",
	"location": "Beijing Chaoyang",
	"profile_image_url": "http://tp1.sinaimg.cn/1404376560/50/0/1",
	"gender": "m",
	"avatar_large": "http://tp1.sinaimg.cn/1404376560/180/0/1",
	"avatar_hd": "http://tp1.sinaimg.cn/1404376560/1024/0/1",
	"lang": "zh-cn"
}`

const paypalProfile = `{
	"user_id": "https://www.paypal.com/webapps/auth/identity/user/baCNqjGvIxzlbvDCSsfhN3IrQDtQtsVr79AwAjMxekw",
	"name": "Ada Lovelace",
	"given_name": "Ada",
	"family_name": "Lovelace",
	"emails": [
		{"value": "ada@example.org", "primary": false, "confirmed": true},
		{"value": "ada@example.com", "primary": true, "confirmed": true}
	]
}`

const githubProfile = `{
	"login": "octocat",
	"id": 583231,
	"avatar_url": "https://avatars.githubusercontent.com/u/583231?v=4",
	"html_url": "https://github.com/octocat",
	"name": "The Octocat",
	"email": null
}`

func TestPresets(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		provider   *Provider
		token      *ticket.ProviderToken
		body       string
		wantURL    string
		wantBearer string
		wantScope  string
		want       []ticket.Claim
	}{
		{
			name:      "weibo",
			provider:  Weibo(),
			token:     testToken(t, "tok123", map[string]interface{}{"uid": "1404376560"}),
			body:      weiboProfile,
			wantURL:   WeiboUserInformationEndpoint + "?access_token=tok123&uid=1404376560",
			wantScope: "email",
			want: []ticket.Claim{
				{Type: ticket.ClaimSubject, Value: "1404376560", ValueType: ticket.ValueTypeString, Issuer: "Weibo"},
				{Type: ticket.ClaimName, Value: "zaku", ValueType: ticket.ValueTypeString, Issuer: "Weibo"},
				{Type: "urn:weibo:screen_name", Value: "zaku", ValueType: ticket.ValueTypeString, Issuer: "Weibo"},
				{Type: ticket.ClaimGender, Value: "m", ValueType: ticket.ValueTypeString, Issuer: "Weibo"},
				{Type: "urn:weibo:profile_image_url", Value: "http://tp1.sinaimg.cn/1404376560/50/0/1", ValueType: ticket.ValueTypeString, Issuer: "Weibo"},
				{Type: "urn:weibo:avatar_large", Value: "http://tp1.sinaimg.cn/1404376560/180/0/1", ValueType: ticket.ValueTypeString, Issuer: "Weibo"},
				{Type: "urn:weibo:avatar_hd", Value: "http://tp1.sinaimg.cn/1404376560/1024/0/1", ValueType: ticket.ValueTypeString, Issuer: "Weibo"},
				{Type: ticket.ClaimLocale, Value: "zh-cn", ValueType: ticket.ValueTypeString, Issuer: "Weibo"},
				{Type: "urn:weibo:location", Value: "Beijing Chaoyang", ValueType: ticket.ValueTypeString, Issuer: "Weibo"},
			},
		},
		{
			name:       "paypal",
			provider:   PayPal(),
			token:      testToken(t, "tok123", nil),
			body:       paypalProfile,
			wantURL:    PayPalUserInformationEndpoint,
			wantBearer: "Bearer tok123",
			wantScope:  "openid profile email",
			want: []ticket.Claim{
				{Type: ticket.ClaimSubject, Value: "baCNqjGvIxzlbvDCSsfhN3IrQDtQtsVr79AwAjMxekw", ValueType: ticket.ValueTypeString, Issuer: "PayPal"},
				{Type: ticket.ClaimName, Value: "Ada Lovelace", ValueType: ticket.ValueTypeString, Issuer: "PayPal"},
				{Type: ticket.ClaimGivenName, Value: "Ada", ValueType: ticket.ValueTypeString, Issuer: "PayPal"},
				{Type: ticket.ClaimFamilyName, Value: "Lovelace", ValueType: ticket.ValueTypeString, Issuer: "PayPal"},
				{Type: ticket.ClaimEmail, Value: "ada@example.com", ValueType: ticket.ValueTypeString, Issuer: "PayPal"},
			},
		},
		{
			name:       "github",
			provider:   GitHub(),
			token:      testToken(t, "tok123", nil),
			body:       githubProfile,
			wantURL:    GitHubUserInformationEndpoint,
			wantBearer: "Bearer tok123",
			wantScope:  "read:user user:email",
			want: []ticket.Claim{
				{Type: ticket.ClaimSubject, Value: "583231", ValueType: ticket.ValueTypeString, Issuer: "GitHub"},
				{Type: ticket.ClaimName, Value: "The Octocat", ValueType: ticket.ValueTypeString, Issuer: "GitHub"},
				{Type: "urn:github:login", Value: "octocat", ValueType: ticket.ValueTypeString, Issuer: "GitHub"},
				{Type: ticket.ClaimPicture, Value: "https://avatars.githubusercontent.com/u/583231?v=4", ValueType: ticket.ValueTypeString, Issuer: "GitHub"},
				{Type: "urn:github:url", Value: "https://github.com/octocat", ValueType: ticket.ValueTypeString, Issuer: "GitHub"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			require.NoError(tt.provider.Validate())
			assert.Equal(tt.wantScope, tt.provider.Config.FormatScope())

			rp := &replay{status: http.StatusOK, body: tt.body}
			b, err := tt.provider.NewBuilder(ticket.WithTransport(rp))
			require.NoError(err)
			got, err := b.Build(context.Background(), tt.token)
			require.NoError(err)
			assert.Equal(tt.provider.Name, got.SchemeName)
			assert.Equal(tt.want, got.Claims)

			require.NotNil(rp.got)
			assert.Equal(tt.wantURL, rp.got.URL.String())
			assert.Equal(tt.wantBearer, rp.got.Header.Get("Authorization"))
		})
	}
}

func TestWeibo_MissingUID(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	rp := &replay{status: http.StatusOK, body: weiboProfile}
	b, err := Weibo().NewBuilder(ticket.WithTransport(rp))
	require.NoError(err)
	_, err = b.Build(context.Background(), testToken(t, "tok123", nil))
	require.Error(err)
	assert.ErrorIs(err, ticket.ErrConfig)
	assert.Nil(rp.got)
}

func TestPayPalSubject(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		doc       string
		want      string
		wantIsErr error
	}{
		{name: "url", doc: `{"user_id":"https://www.paypal.com/webapps/auth/identity/user/abc"}`, want: "abc"},
		{name: "trailing-slash", doc: `{"user_id":"https://www.paypal.com/webapps/auth/identity/user/abc/"}`, want: "abc"},
		{name: "plain", doc: `{"user_id":"abc"}`, want: "abc"},
		{name: "missing", doc: `{}`, wantIsErr: profile.ErrNotFound},
		{name: "not-string", doc: `{"user_id":7}`, wantIsErr: profile.ErrTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			doc, err := profile.Parse([]byte(tt.doc))
			require.NoError(err)
			got, err := PayPalSubject(doc)
			if tt.wantIsErr != nil {
				require.Error(err)
				assert.ErrorIs(err, tt.wantIsErr)
				return
			}
			require.NoError(err)
			s, _ := got.AsString()
			assert.Equal(tt.want, s)
		})
	}
}

func TestPrimaryEmail(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		doc       string
		want      string
		wantIsErr error
	}{
		{
			name: "primary",
			doc:  `{"emails":[{"value":"a@example.com"},{"value":"b@example.com","primary":true}]}`,
			want: "b@example.com",
		},
		{name: "no-primary", doc: `{"emails":[{"value":"a@example.com","primary":false}]}`, wantIsErr: profile.ErrNotFound},
		{name: "no-emails", doc: `{}`, wantIsErr: profile.ErrNotFound},
		{name: "not-array", doc: `{"emails":"a@example.com"}`, wantIsErr: profile.ErrTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			doc, err := profile.Parse([]byte(tt.doc))
			require.NoError(err)
			got, err := PrimaryEmail(doc)
			if tt.wantIsErr != nil {
				require.Error(err)
				assert.ErrorIs(err, tt.wantIsErr)
				return
			}
			require.NoError(err)
			s, _ := got.AsString()
			assert.Equal(tt.want, s)
		})
	}
}

func TestBuiltin(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	assert.Equal([]string{"github", "paypal", "weibo"}, BuiltinNames())
	for _, n := range []string{"Weibo", " weibo ", "PAYPAL", "github"} {
		p, err := Builtin(n)
		require.NoError(err)
		require.NoError(p.Validate())
	}

	// every call returns a new copy
	a, err := Builtin("weibo")
	require.NoError(err)
	a.Config.Scopes[0] = "changed"
	b, err := Builtin("weibo")
	require.NoError(err)
	assert.Equal([]string{"email"}, b.Config.Scopes)

	_, err = Builtin("myspace")
	require.Error(err)
	assert.True(errors.Is(err, ErrUnknownProvider))
}

func TestProvider_Validate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		p         *Provider
		wantIsErr error
	}{
		{name: "nil", wantIsErr: ticket.ErrNilParameter},
		{name: "no-name", p: &Provider{Config: GitHub().Config}, wantIsErr: ErrInvalidDefinition},
		{name: "no-config", p: &Provider{Name: "x"}, wantIsErr: ticket.ErrNilParameter},
		{
			name:      "bad-rules",
			p:         &Provider{Name: "x", Config: GitHub().Config, Rules: []ticket.ClaimMappingRule{{ClaimType: "sub"}}},
			wantIsErr: ticket.ErrConfig,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			err := tt.p.Validate()
			require.Error(err)
			assert.ErrorIs(err, tt.wantIsErr)
			_, err = tt.p.NewBuilder()
			assert.ErrorIs(err, tt.wantIsErr)
		})
	}
}

func testToken(t *testing.T, accessToken string, raw map[string]interface{}) *ticket.ProviderToken {
	t.Helper()
	tk, err := ticket.NewProviderToken(accessToken, raw)
	require.NoError(t, err)
	return tk
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package ticket

import (
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestProvider(t *testing.T) {
	t.Parallel()
	tp := StartTestProvider(t)
	client := tp.Client()

	get := func(t *testing.T, method, target string, header http.Header) (*http.Response, string) {
		t.Helper()
		req, err := http.NewRequest(method, target, nil)
		require.NoError(t, err)
		for k, v := range header {
			req.Header[k] = v
		}
		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp, string(body)
	}
	accept := http.Header{"Accept": []string{"application/json"}}

	t.Run("default-reply", func(t *testing.T) {
		assert := assert.New(t)
		resp, body := get(t, http.MethodGet, tp.UserInfoURL(), accept)
		assert.Equal(http.StatusOK, resp.StatusCode)
		assert.Equal("application/json", resp.Header.Get("Content-Type"))
		assert.Contains(body, `"screen_name":"ada"`)
	})
	t.Run("wrong-path", func(t *testing.T) {
		resp, _ := get(t, http.MethodGet, tp.Addr()+"/other", accept)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
	t.Run("wrong-method", func(t *testing.T) {
		resp, _ := get(t, http.MethodPost, tp.UserInfoURL(), accept)
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
	t.Run("no-accept", func(t *testing.T) {
		resp, _ := get(t, http.MethodGet, tp.UserInfoURL(), nil)
		assert.Equal(t, http.StatusNotAcceptable, resp.StatusCode)
	})
	t.Run("requests-recorded", func(t *testing.T) {
		assert := assert.New(t)
		var found bool
		for _, r := range tp.Requests() {
			if r.Method == http.MethodPost {
				found = true
			}
		}
		assert.True(found)
	})
}

func TestTestProvider_Expectations(t *testing.T) {
	t.Parallel()
	tp := StartTestProvider(t)
	tp.SetExpectedAccessToken("tok123")
	tp.SetExpectedParam("uid", "42")
	tp.SetUserInfoJSON(map[string]interface{}{"uid": "42"})
	tp.SetReplyHeader("X-Request-Id", "abc")

	tests := []struct {
		name       string
		target     string
		bearer     string
		wantStatus int
	}{
		{name: "query-token", target: tp.UserInfoURL() + "?access_token=tok123&uid=42", wantStatus: http.StatusOK},
		{name: "bearer-token", target: tp.UserInfoURL() + "?uid=42", bearer: "tok123", wantStatus: http.StatusOK},
		{name: "no-token", target: tp.UserInfoURL() + "?uid=42", wantStatus: http.StatusUnauthorized},
		{name: "wrong-param", target: tp.UserInfoURL() + "?access_token=tok123&uid=7", wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			req, err := http.NewRequest(http.MethodGet, tt.target, nil)
			require.NoError(err)
			req.Header.Set("Accept", "application/json")
			if tt.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tt.bearer)
			}
			resp, err := tp.Client().Do(req)
			require.NoError(err)
			defer resp.Body.Close()
			assert.Equal(tt.wantStatus, resp.StatusCode)
			if tt.wantStatus == http.StatusOK {
				body, err := io.ReadAll(resp.Body)
				require.NoError(err)
				assert.JSONEq(`{"uid":"42"}`, string(body))
				assert.Equal("abc", resp.Header.Get("X-Request-Id"))
			}
		})
	}

	t.Run("custom-reply", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		tp.SetUserInfoReply(http.StatusTeapot, "short and stout")
		req, err := http.NewRequest(http.MethodGet, tp.UserInfoURL()+"?access_token=tok123&uid=42", nil)
		require.NoError(err)
		req.Header.Set("Accept", "application/json")
		resp, err := tp.Client().Do(req)
		require.NoError(err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(err)
		assert.Equal(http.StatusTeapot, resp.StatusCode)
		assert.Equal("short and stout", string(body))
	})
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package ticket

import (
	"bytes"
	"encoding/json"
	"encoding/pem"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestUserInfoPath is the path of the test provider's user info endpoint.
const TestUserInfoPath = "/userinfo"

// TestProvider is a local TLS server which impersonates an OAuth2 provider's
// user information endpoint, which makes writing tests much easier.  By
// default it replies 200 with a small Weibo style profile.
type TestProvider struct {
	httpServer *httptest.Server
	caCert     string

	mu                  sync.Mutex
	replyStatus         int
	replyBody           []byte
	replyHeaders        http.Header
	replyDelay          time.Duration
	expectedAccessToken string
	expectedParams      map[string]string
	requests            []*http.Request

	t *testing.T
}

// StartTestProvider creates a disposable TestProvider.  It's stopped when the
// test completes.
func StartTestProvider(t *testing.T) *TestProvider {
	t.Helper()
	require := require.New(t)

	p := &TestProvider{
		replyStatus: http.StatusOK,
		replyBody: []byte(`{"id":1404376560,"idstr":"1404376560","screen_name":"ada",` +
			`"name":"Ada","gender":"f","lang":"zh-cn"}`),
		replyHeaders:   http.Header{},
		expectedParams: map[string]string{},
		t:              t,
	}

	p.httpServer = httptest.NewUnstartedServer(p)
	p.httpServer.Config.ErrorLog = log.New(io.Discard, "", 0)
	p.httpServer.StartTLS()
	t.Cleanup(p.httpServer.Close)

	var buf bytes.Buffer
	err := pem.Encode(&buf, &pem.Block{Type: "CERTIFICATE", Bytes: p.httpServer.Certificate().Raw})
	require.NoError(err)
	p.caCert = buf.String()

	return p
}

// Stop stops the running TestProvider.
func (p *TestProvider) Stop() {
	p.httpServer.Close()
}

// Addr returns the base URL of the test provider's webserver.
func (p *TestProvider) Addr() string { return p.httpServer.URL }

// UserInfoURL returns the URL of the user info endpoint.
func (p *TestProvider) UserInfoURL() string { return p.httpServer.URL + TestUserInfoPath }

// CACert returns the pem-encoded CA certificate used by the test provider's
// HTTPS server.
func (p *TestProvider) CACert() string { return p.caCert }

// Client returns an http client which trusts the test provider.
func (p *TestProvider) Client() *http.Client { return p.httpServer.Client() }

// SetUserInfoReply configures the status and raw body of the user info
// response.
func (p *TestProvider) SetUserInfoReply(status int, body string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replyStatus = status
	p.replyBody = []byte(body)
}

// SetUserInfoJSON configures a 200 response with v encoded as JSON.
func (p *TestProvider) SetUserInfoJSON(v interface{}) {
	p.t.Helper()
	b, err := json.Marshal(v)
	require.NoError(p.t, err)
	p.SetUserInfoReply(http.StatusOK, string(b))
}

// SetReplyHeader adds a header to the user info response.
func (p *TestProvider) SetReplyHeader(key, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replyHeaders.Add(key, value)
}

// SetReplyDelay delays the user info response.  The delay ends early when the
// client goes away.
func (p *TestProvider) SetReplyDelay(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replyDelay = d
}

// SetExpectedAccessToken makes the user info endpoint reply 401 unless the
// request carries the token, either as the access_token query parameter or
// as a bearer token.
func (p *TestProvider) SetExpectedAccessToken(token string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expectedAccessToken = token
}

// SetExpectedParam makes the user info endpoint reply 400 unless the request
// has the query parameter with the value.
func (p *TestProvider) SetExpectedParam(name, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expectedParams[name] = value
}

// Requests returns copies of the requests received so far.
func (p *TestProvider) Requests() []*http.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*http.Request, len(p.requests))
	copy(out, p.requests)
	return out
}

func (p *TestProvider) writeError(w http.ResponseWriter, status int, code, desc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct {
		Code string `json:"error"`
		Desc string `json:"error_description,omitempty"`
	}{
		Code: code,
		Desc: desc,
	})
}

// ServeHTTP implements the test provider's http.Handler.
func (p *TestProvider) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	p.mu.Lock()
	p.requests = append(p.requests, &http.Request{
		Method: req.Method,
		URL:    cloneURL(req.URL),
		Header: req.Header.Clone(),
	})
	status, body, delay := p.replyStatus, p.replyBody, p.replyDelay
	headers := p.replyHeaders.Clone()
	expectedToken := p.expectedAccessToken
	expectedParams := make(map[string]string, len(p.expectedParams))
	for k, v := range p.expectedParams {
		expectedParams[k] = v
	}
	p.mu.Unlock()

	if req.URL.Path != TestUserInfoPath {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if req.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if req.Header.Get("Accept") != "application/json" {
		w.WriteHeader(http.StatusNotAcceptable)
		return
	}
	qv := req.URL.Query()
	if expectedToken != "" {
		bearer := strings.TrimPrefix(req.Header.Get("Authorization"), "Bearer ")
		if qv.Get(DefaultAccessTokenParam) != expectedToken && bearer != expectedToken {
			p.writeError(w, http.StatusUnauthorized, "invalid_token", "unexpected access token")
			return
		}
	}
	for k, v := range expectedParams {
		if qv.Get(k) != v {
			p.writeError(w, http.StatusBadRequest, "invalid_request", "unexpected "+k)
			return
		}
	}

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-req.Context().Done():
			return
		}
	}

	for k, vs := range headers {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func cloneURL(u *url.URL) *url.URL {
	cp := *u
	return &cp
}

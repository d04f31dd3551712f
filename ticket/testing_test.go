// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package ticket

import (
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// transportFunc adapts a func to the Transport interface.
type transportFunc func(*http.Request) (*http.Response, error)

func (f transportFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

// stubTransport replies with a fixed response and records the requests it
// receives.
type stubTransport struct {
	status int
	header http.Header
	body   string

	mu       sync.Mutex
	requests []*http.Request
}

func (s *stubTransport) Do(req *http.Request) (*http.Response, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	h := s.header
	if h == nil {
		h = http.Header{}
	}
	return &http.Response{
		StatusCode: s.status,
		Status:     http.StatusText(s.status),
		Header:     h,
		Body:       io.NopCloser(strings.NewReader(s.body)),
		Request:    req,
	}, nil
}

func (s *stubTransport) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func testNewToken(t *testing.T, accessToken string, raw map[string]interface{}, opt ...Option) *ProviderToken {
	t.Helper()
	tk, err := NewProviderToken(accessToken, raw, opt...)
	require.NoError(t, err)
	return tk
}

func testNewConfig(t *testing.T, name, endpoint string, opt ...Option) *ProviderConfig {
	t.Helper()
	c, err := NewProviderConfig(name, endpoint, opt...)
	require.NoError(t, err)
	return c
}

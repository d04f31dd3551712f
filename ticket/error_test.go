// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package ticket

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_Is(t *testing.T) {
	t.Parallel()
	cause := errors.New("connection reset")
	tests := []struct {
		name      string
		err       error
		wantIs    error
		wantNotIs []error
		wantMsg   string
	}{
		{
			name:      "config",
			err:       &ConfigError{Op: "op", Msg: "endpoint is empty", Err: ErrInvalidParameter},
			wantIs:    ErrConfig,
			wantNotIs: []error{ErrFetchFailed, ErrParseFailed, ErrMappingFailed},
			wantMsg:   "op: endpoint is empty: invalid parameter",
		},
		{
			name:      "fetch-transport",
			err:       &FetchError{Op: "op", Kind: FetchTransport, URL: "https://example.com/me", Err: cause},
			wantIs:    ErrFetchFailed,
			wantNotIs: []error{ErrConfig, ErrParseFailed},
			wantMsg:   "op: user info request to https://example.com/me failed: connection reset",
		},
		{
			name:      "fetch-protocol",
			err:       &FetchError{Op: "op", Kind: FetchProtocol, StatusCode: http.StatusUnauthorized},
			wantIs:    ErrFetchFailed,
			wantNotIs: []error{ErrConfig},
			wantMsg:   "op: user info endpoint returned 401 Unauthorized",
		},
		{
			name:      "parse",
			err:       &ParseError{Op: "op", Body: []byte("not json"), Err: cause},
			wantIs:    ErrParseFailed,
			wantNotIs: []error{ErrFetchFailed},
			wantMsg:   "op: unable to parse user info response: connection reset",
		},
		{
			name:      "mapping-one",
			err:       &MappingError{Op: "op", Claims: []string{"email"}},
			wantIs:    ErrMappingFailed,
			wantNotIs: []error{ErrParseFailed},
			wantMsg:   `op: required claim "email" could not be mapped`,
		},
		{
			name:    "mapping-many",
			err:     &MappingError{Claims: []string{"sub", "email"}},
			wantIs:  ErrMappingFailed,
			wantMsg: `required claims "sub", "email" could not be mapped`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert := assert.New(t)
			assert.ErrorIs(tt.err, tt.wantIs)
			for _, e := range tt.wantNotIs {
				assert.False(errors.Is(tt.err, e), "unexpectedly matched %q", e)
			}
			assert.Equal(tt.wantMsg, tt.err.Error())
		})
	}
}

func TestErrors_Unwrap(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	cause := errors.New("cause")

	assert.ErrorIs(&ConfigError{Err: cause}, cause)
	assert.ErrorIs(&FetchError{Err: cause}, cause)
	assert.ErrorIs(&ParseError{Err: cause}, cause)
	assert.ErrorIs(&MappingError{Err: cause}, cause)
	assert.Nil((&FetchError{Kind: FetchProtocol}).Unwrap())
}

func TestMappingError_Claim(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	assert.Equal("email", (&MappingError{Claims: []string{"email", "sub"}}).Claim())
	assert.Equal("", (&MappingError{}).Claim())
}

func TestFetchKind_String(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	assert.Equal("transport", FetchTransport.String())
	assert.Equal("protocol", FetchProtocol.String())
	assert.Equal("unknown", FetchKind(0).String())
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package ticket

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrNilParameter     = errors.New("nil parameter")
	ErrExpiredToken     = errors.New("access token is expired")
	ErrConfig           = errors.New("configuration error")
	ErrFetchFailed      = errors.New("user info fetch failed")
	ErrParseFailed      = errors.New("user info parse failed")
	ErrMappingFailed    = errors.New("claim mapping failed")
)

// ConfigError is returned when required configuration, or an identifier that
// must be taken from the token response, is missing before any request is
// made.  It matches ErrConfig.
type ConfigError struct {
	Op  string
	Msg string
	Err error
}

func (e *ConfigError) Error() string {
	return joinMsg(e.Op, e.Msg, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// FetchKind distinguishes network failures from non-success responses.
type FetchKind int

const (
	// FetchTransport is a failure to complete the request: dial errors,
	// timeouts, connection resets, unreadable bodies.
	FetchTransport FetchKind = iota + 1

	// FetchProtocol is a response with a non-success status code.
	FetchProtocol
)

func (k FetchKind) String() string {
	switch k {
	case FetchTransport:
		return "transport"
	case FetchProtocol:
		return "protocol"
	default:
		return "unknown"
	}
}

// FetchError is returned when the user information request fails.  For
// FetchProtocol errors the StatusCode, Header and Body of the response are
// populated; the body is read before the error is returned.  It matches
// ErrFetchFailed.
type FetchError struct {
	Op   string
	Kind FetchKind

	// URL is the request URL with the access token redacted.
	URL string

	StatusCode int
	Header     http.Header
	Body       []byte

	Err error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case FetchProtocol:
		return joinMsg(e.Op, fmt.Sprintf("user info endpoint returned %d %s", e.StatusCode, http.StatusText(e.StatusCode)), e.Err)
	default:
		return joinMsg(e.Op, fmt.Sprintf("user info request to %s failed", e.URL), e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetchFailed }

// ParseError is returned when the user information response is not a well
// formed document.  Body holds at most MaxDiagnosticBodyBytes of the raw
// response.  It matches ErrParseFailed.
type ParseError struct {
	Op        string
	Body      []byte
	Truncated bool
	Err       error
}

func (e *ParseError) Error() string {
	return joinMsg(e.Op, "unable to parse user info response", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParseFailed }

// MappingError is returned when one or more required claims could not be
// extracted from the user information document.  Claims lists every missing
// claim type in rule order.  It matches ErrMappingFailed.
type MappingError struct {
	Op     string
	Claims []string
	Err    error
}

// Claim returns the first missing claim type.
func (e *MappingError) Claim() string {
	if len(e.Claims) == 0 {
		return ""
	}
	return e.Claims[0]
}

func (e *MappingError) Error() string {
	quoted := make([]string, 0, len(e.Claims))
	for _, c := range e.Claims {
		quoted = append(quoted, fmt.Sprintf("%q", c))
	}
	msg := fmt.Sprintf("required claim %s could not be mapped", strings.Join(quoted, ", "))
	if len(quoted) > 1 {
		msg = fmt.Sprintf("required claims %s could not be mapped", strings.Join(quoted, ", "))
	}
	return joinMsg(e.Op, msg, nil)
}

func (e *MappingError) Unwrap() error { return e.Err }

func (e *MappingError) Is(target error) bool { return target == ErrMappingFailed }

func joinMsg(op, msg string, err error) string {
	var b strings.Builder
	if op != "" {
		b.WriteString(op)
		b.WriteString(": ")
	}
	b.WriteString(msg)
	if err != nil {
		b.WriteString(": ")
		b.WriteString(err.Error())
	}
	return b.String()
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package ticket

import (
	"time"

	"github.com/hashicorp/go-hclog"
)

const (
	// DefaultMaxResponseBytes bounds how much of a user info response is read.
	DefaultMaxResponseBytes = 1 << 20

	// MaxDiagnosticBodyBytes bounds the raw body kept on a ParseError.
	MaxDiagnosticBodyBytes = 512
)

// Option defines a common functional options type which can be used in a
// variadic parameter pattern.
type Option func(interface{})

// ApplyOpts takes a pointer to the options struct as a set of default options
// and applies the slice of opts as overrides.
func ApplyOpts(opts interface{}, opt ...Option) {
	for _, o := range opt {
		if o == nil { // ignore any nil Options
			continue
		}
		o(opts)
	}
}

// buildOptions is the set of available options for NewBuilder, Build and
// (*Builder).Build
type buildOptions struct {
	withTransport        Transport
	withLogger           hclog.Logger
	withTimeout          time.Duration
	withSchemeName       string
	withProperties       Properties
	withBaseClaims       []Claim
	withMaxResponseBytes int64
	withNormalizedValues bool
	withCreatingTicket   CreatingTicketFunc
	withRequestID        string
}

func buildDefaults() buildOptions {
	return buildOptions{
		withLogger:           hclog.NewNullLogger(),
		withMaxResponseBytes: DefaultMaxResponseBytes,
	}
}

func getBuildOpts(opt ...Option) buildOptions {
	opts := buildDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// mapOptions is the set of available options for MapClaims
type mapOptions struct {
	withNormalizedValues bool
}

func mapDefaults() mapOptions {
	return mapOptions{}
}

func getMapOpts(opt ...Option) mapOptions {
	opts := mapDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithTransport provides an optional Transport used to send the user info
// request.  By default a pooled client created with ProviderConfig.HttpClient
// is used.
func WithTransport(tr Transport) Option {
	return func(o interface{}) {
		if o, ok := o.(*buildOptions); ok {
			o.withTransport = tr
		}
	}
}

// WithLogger provides an optional logger.
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*buildOptions); ok && l != nil {
			o.withLogger = l
		}
	}
}

// WithTimeout provides an optional timeout.  For Build it bounds the user info
// request; for ProviderConfig.HttpClient it becomes the client timeout.
func WithTimeout(d time.Duration) Option {
	return func(o interface{}) {
		switch v := o.(type) {
		case *buildOptions:
			v.withTimeout = d
		case *clientOptions:
			v.withTimeout = d
		}
	}
}

// WithSchemeName provides the authentication scheme name the ticket is issued
// for.  It defaults to the ProviderConfig's Name.
func WithSchemeName(name string) Option {
	return func(o interface{}) {
		if o, ok := o.(*buildOptions); ok {
			o.withSchemeName = name
		}
	}
}

// WithProperties provides the authentication properties attached, unchanged,
// to the ticket.
func WithProperties(p Properties) Option {
	return func(o interface{}) {
		if o, ok := o.(*buildOptions); ok {
			o.withProperties = p
		}
	}
}

// WithBaseClaims provides claims already known about the identity.  They are
// placed before the mapped claims, and any base claim whose type is also
// mapped from the user info document is dropped.
func WithBaseClaims(claims ...Claim) Option {
	return func(o interface{}) {
		if o, ok := o.(*buildOptions); ok {
			o.withBaseClaims = claims
		}
	}
}

// WithMaxResponseBytes provides an optional limit on the size of the user
// info response.  Non-positive values are ignored.
func WithMaxResponseBytes(n int64) Option {
	return func(o interface{}) {
		if o, ok := o.(*buildOptions); ok && n > 0 {
			o.withMaxResponseBytes = n
		}
	}
}

// WithNormalizedValues requests that mapped claim values are put in Unicode
// normalization form C.
func WithNormalizedValues() Option {
	return func(o interface{}) {
		switch v := o.(type) {
		case *buildOptions:
			v.withNormalizedValues = true
		case *mapOptions:
			v.withNormalizedValues = true
		}
	}
}

// WithCreatingTicket provides an optional func that is called with the
// assembled ticket before it is returned.
func WithCreatingTicket(fn CreatingTicketFunc) Option {
	return func(o interface{}) {
		if o, ok := o.(*buildOptions); ok {
			o.withCreatingTicket = fn
		}
	}
}

// WithRequestID provides an optional id for the ticket and its log lines.  A
// random UUID is generated when it's not provided.
func WithRequestID(id string) Option {
	return func(o interface{}) {
		if o, ok := o.(*buildOptions); ok {
			o.withRequestID = id
		}
	}
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package ticket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-uuid"
	"github.com/hashicorp/oauthticket/profile"
)

// Transport sends the user info request.  *http.Client satisfies it.  The
// request carries the caller's context and implementations must abort when it
// is cancelled.
type Transport interface {
	Do(req *http.Request) (*http.Response, error)
}

// stage is a step of a ticket build.
type stage int

const (
	stageBuilt stage = iota
	stageFetching
	stageValidating
	stageParsing
	stageMapping
	stageDone
)

func (s stage) String() string {
	switch s {
	case stageBuilt:
		return "built"
	case stageFetching:
		return "fetching"
	case stageValidating:
		return "validating"
	case stageParsing:
		return "parsing"
	case stageMapping:
		return "mapping"
	case stageDone:
		return "done"
	default:
		return "unknown"
	}
}

// run tracks the stage of one build for logging.
type run struct {
	logger hclog.Logger
	stage  stage
}

func (r *run) enter(s stage) {
	r.stage = s
	r.logger.Trace("ticket stage", "stage", s)
}

func (r *run) fail(err error) error {
	r.logger.Debug("ticket creation failed", "stage", r.stage, "error", err)
	return err
}

// Builder creates identity tickets for one provider: it requests the user
// information resource with an access token, parses it, and maps it onto
// claims.  A Builder is immutable and safe for concurrent use.
type Builder struct {
	config    *ProviderConfig
	rules     []ClaimMappingRule
	transport Transport
	opts      []Option
}

// NewBuilder validates the provider config and claim mapping rules and
// returns a Builder.  Options passed here are defaults for every Build.
//
// Supported options: WithTransport, WithLogger, WithTimeout, WithSchemeName,
// WithProperties, WithBaseClaims, WithMaxResponseBytes, WithNormalizedValues,
// WithCreatingTicket
func NewBuilder(c *ProviderConfig, rules []ClaimMappingRule, opt ...Option) (*Builder, error) {
	const op = "ticket.NewBuilder"
	if c == nil {
		return nil, &ConfigError{Op: op, Msg: "provider config is nil", Err: ErrNilParameter}
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ValidateRules(rules); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	opts := getBuildOpts(opt...)
	transport := opts.withTransport
	if transport == nil {
		client, err := c.HttpClient()
		if err != nil {
			return nil, fmt.Errorf("%s: unable to create http client: %w", op, err)
		}
		transport = client
	}
	return &Builder{
		config:    c.clone(),
		rules:     append([]ClaimMappingRule(nil), rules...),
		transport: transport,
		opts:      append([]Option(nil), opt...),
	}, nil
}

// Build is a convenience for NewBuilder(c, rules, opt...) followed by
// (*Builder).Build(ctx, t).
func Build(ctx context.Context, t *ProviderToken, c *ProviderConfig, rules []ClaimMappingRule, opt ...Option) (*IdentityTicket, error) {
	b, err := NewBuilder(c, rules, opt...)
	if err != nil {
		return nil, err
	}
	return b.Build(ctx, t)
}

// Build requests the provider's user information with the token and returns
// the resulting ticket.  Errors are one of *ConfigError, *FetchError,
// *ParseError or *MappingError, except that cancellation of ctx is returned
// as ctx.Err() and a failing CreatingTicketFunc's error is returned wrapped.
// Nothing is retried.
//
// Options override the ones given to NewBuilder.
func (b *Builder) Build(ctx context.Context, t *ProviderToken, opt ...Option) (*IdentityTicket, error) {
	const op = "Builder.Build"
	all := make([]Option, 0, len(b.opts)+len(opt))
	all = append(all, b.opts...)
	all = append(all, opt...)
	opts := getBuildOpts(all...)

	id := opts.withRequestID
	if id == "" {
		var err error
		if id, err = uuid.GenerateUUID(); err != nil {
			return nil, fmt.Errorf("%s: unable to generate request id: %w", op, err)
		}
	}
	scheme := opts.withSchemeName
	if scheme == "" {
		scheme = b.config.Name
	}
	r := &run{
		logger: opts.withLogger.Named("ticket").With("request_id", id, "scheme", scheme),
		stage:  stageBuilt,
	}

	switch {
	case scheme == "":
		return nil, r.fail(&ConfigError{Op: op, Msg: "scheme name is empty", Err: ErrInvalidParameter})
	case t == nil:
		return nil, r.fail(&ConfigError{Op: op, Msg: "token is nil", Err: ErrNilParameter})
	case t.AccessToken() == "":
		return nil, r.fail(&ConfigError{Op: op, Msg: "access token is empty", Err: ErrInvalidParameter})
	case t.Expired():
		return nil, r.fail(&ConfigError{Op: op, Msg: "access token is expired", Err: ErrExpiredToken})
	}
	u, err := b.config.userInfoURL(t)
	if err != nil {
		return nil, r.fail(err)
	}
	redacted := b.config.redactedURL(u)

	r.enter(stageFetching)
	fetchCtx := ctx
	if opts.withTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, opts.withTimeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, r.fail(&ConfigError{Op: op, Msg: "unable to create user info request", Err: err})
	}
	req.Header.Set("Accept", "application/json")
	if b.config.TokenPlacement.inHeader() {
		req.Header.Set("Authorization", "Bearer "+t.AccessToken())
	}
	transport := b.transport
	if opts.withTransport != nil {
		transport = opts.withTransport
	}
	resp, err := transport.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, r.fail(ctx.Err())
		}
		err = redactError(err, redacted)
		r.logger.Error("an error occurred while retrieving the user profile", "url", redacted, "error", err)
		return nil, r.fail(&FetchError{Op: op, Kind: FetchTransport, URL: redacted, Err: err})
	}
	defer resp.Body.Close()

	r.enter(stageValidating)
	body, exceeded, err := readBody(resp.Body, opts.withMaxResponseBytes)
	if err != nil {
		if ctx.Err() != nil {
			return nil, r.fail(ctx.Err())
		}
		err = redactError(err, redacted)
		r.logger.Error("an error occurred while reading the user profile", "url", redacted, "status", resp.StatusCode, "error", err)
		return nil, r.fail(&FetchError{
			Op:         op,
			Kind:       FetchTransport,
			URL:        redacted,
			StatusCode: resp.StatusCode,
			Header:     resp.Header.Clone(),
			Body:       body,
			Err:        err,
		})
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		r.logger.Error("an error occurred while retrieving the user profile: the remote server returned a non-success response",
			"url", redacted,
			"status", resp.StatusCode,
			"headers", resp.Header,
			"body", string(body),
		)
		return nil, r.fail(&FetchError{
			Op:         op,
			Kind:       FetchProtocol,
			URL:        redacted,
			StatusCode: resp.StatusCode,
			Header:     resp.Header.Clone(),
			Body:       body,
		})
	}

	r.enter(stageParsing)
	if exceeded {
		return nil, r.fail(newParseError(op, body, fmt.Errorf("response exceeds %d bytes", opts.withMaxResponseBytes)))
	}
	doc, err := profile.Parse(body)
	if err != nil {
		r.logger.Error("unable to parse the user profile", "error", err)
		return nil, r.fail(newParseError(op, body, err))
	}

	r.enter(stageMapping)
	issuer := b.config.ClaimsIssuer
	if issuer == "" {
		issuer = scheme
	}
	var mapOpts []Option
	if opts.withNormalizedValues {
		mapOpts = append(mapOpts, WithNormalizedValues())
	}
	mapped, err := MapClaims(doc, b.rules, issuer, mapOpts...)
	if err != nil {
		return nil, r.fail(err)
	}

	tk := &IdentityTicket{
		ID:         id,
		SchemeName: scheme,
		Claims:     mergeClaims(opts.withBaseClaims, mapped),
		Properties: opts.withProperties,
	}
	if opts.withCreatingTicket != nil {
		cc := &CreatingTicketContext{
			Ticket:  tk,
			Profile: doc,
			Token:   t,
			Config:  b.config.clone(),
		}
		if err := opts.withCreatingTicket(ctx, cc); err != nil {
			return nil, r.fail(fmt.Errorf("%s: creating ticket func failed: %w", op, err))
		}
	}
	r.enter(stageDone)
	r.logger.Debug("ticket created", "claims", len(tk.Claims))
	return tk, nil
}

// redactError replaces the request URL of a *url.Error, which carries the
// access token in its query, with the redacted one.
func redactError(err error, redacted string) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		ue.URL = redacted
	}
	return err
}

// readBody reads up to limit bytes and reports whether the body was longer.
func readBody(rd io.Reader, limit int64) ([]byte, bool, error) {
	body, err := io.ReadAll(io.LimitReader(rd, limit+1))
	if err != nil {
		return body, false, err
	}
	if int64(len(body)) > limit {
		return body[:limit], true, nil
	}
	return body, false, nil
}

func newParseError(op string, body []byte, err error) *ParseError {
	e := &ParseError{Op: op, Err: err}
	if len(body) > MaxDiagnosticBodyBytes {
		e.Body = append([]byte(nil), body[:MaxDiagnosticBodyBytes]...)
		e.Truncated = true
	} else {
		e.Body = append([]byte(nil), body...)
	}
	return e
}

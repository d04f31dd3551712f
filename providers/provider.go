// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package providers

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/oauthticket/ticket"
)

// Provider is a named provider definition: how its user information endpoint
// is requested and how the response maps onto claims.
type Provider struct {
	Name   string
	Config *ticket.ProviderConfig
	Rules  []ticket.ClaimMappingRule
}

// Validate checks the provider's config and rules.
func (p *Provider) Validate() error {
	const op = "Provider.Validate"
	if p == nil {
		return fmt.Errorf("%s: provider is nil: %w", op, ticket.ErrNilParameter)
	}
	if p.Name == "" {
		return fmt.Errorf("%s: provider name is empty: %w", op, ErrInvalidDefinition)
	}
	if err := p.Config.Validate(); err != nil {
		return fmt.Errorf("%s: %q: %w", op, p.Name, err)
	}
	if err := ticket.ValidateRules(p.Rules); err != nil {
		return fmt.Errorf("%s: %q: %w", op, p.Name, err)
	}
	return nil
}

// NewBuilder returns a ticket.Builder for the provider.  The provider name is
// the default scheme name.
//
// Supported options: see ticket.NewBuilder
func (p *Provider) NewBuilder(opt ...ticket.Option) (*ticket.Builder, error) {
	const op = "Provider.NewBuilder"
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	opts := append([]ticket.Option{ticket.WithSchemeName(p.Name)}, opt...)
	return ticket.NewBuilder(p.Config, p.Rules, opts...)
}

var builtin = map[string]func() *Provider{
	"weibo":  Weibo,
	"paypal": PayPal,
	"github": GitHub,
}

// Builtin returns a new copy of the named built-in provider.  Names are case
// insensitive.
func Builtin(name string) (*Provider, error) {
	const op = "providers.Builtin"
	fn, ok := builtin[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%s: %q: %w", op, name, ErrUnknownProvider)
	}
	return fn(), nil
}

// BuiltinNames returns the names accepted by Builtin, sorted.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtin))
	for n := range builtin {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package providers

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/oauthticket/ticket"
	"gopkg.in/yaml.v3"
)

// definitionFile is the document read by Load:
//
//	providers:
//	  - name: Example
//	    user_information_endpoint: https://api.example.com/me
//	    token_placement: header
//	    claims:
//	      - type: sub
//	        path: id
type definitionFile struct {
	Providers []definition `yaml:"providers"`
}

type definition struct {
	Name                    string               `yaml:"name"`
	UserInformationEndpoint string               `yaml:"user_information_endpoint"`
	Scopes                  []string             `yaml:"scopes"`
	ScopeSeparator          string               `yaml:"scope_separator"`
	AccessTokenParam        string               `yaml:"access_token_param"`
	TokenPlacement          string               `yaml:"token_placement"`
	IdentifierParams        []identifierParamDef `yaml:"identifier_params"`
	ClaimsIssuer            string               `yaml:"claims_issuer"`
	ProviderCA              string               `yaml:"provider_ca"`
	Claims                  []claimDef           `yaml:"claims"`
}

type identifierParamDef struct {
	Param      string `yaml:"param"`
	TokenField string `yaml:"token_field"`
}

type claimDef struct {
	Type      string `yaml:"type"`
	Path      string `yaml:"path"`
	ValueType string `yaml:"value_type"`
	Optional  bool   `yaml:"optional"`
}

var placements = map[string]ticket.TokenPlacement{
	"":                 ticket.TokenInQuery,
	"query":            ticket.TokenInQuery,
	"header":           ticket.TokenInHeader,
	"query_and_header": ticket.TokenInQueryAndHeader,
}

// ParseTokenPlacement parses "query", "header" or "query_and_header".  An
// empty string is "query".
func ParseTokenPlacement(s string) (ticket.TokenPlacement, error) {
	p, ok := placements[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("unknown token placement %q: %w", s, ErrInvalidDefinition)
	}
	return p, nil
}

// Load decodes YAML provider definitions from r.  Unknown fields are
// rejected.  Every definition is validated and all problems are reported.
func Load(r io.Reader) ([]*Provider, error) {
	const op = "providers.Load"
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f definitionFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: document is empty: %w", op, ErrInvalidDefinition)
		}
		return nil, fmt.Errorf("%s: unable to decode definitions: %v: %w", op, err, ErrInvalidDefinition)
	}
	if len(f.Providers) == 0 {
		return nil, fmt.Errorf("%s: no providers defined: %w", op, ErrInvalidDefinition)
	}

	var result *multierror.Error
	seen := make(map[string]struct{}, len(f.Providers))
	out := make([]*Provider, 0, len(f.Providers))
	for i, d := range f.Providers {
		p, err := d.provider()
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("provider %d (%q): %w", i, d.Name, err))
			continue
		}
		key := strings.ToLower(p.Name)
		if _, ok := seen[key]; ok {
			result = multierror.Append(result, fmt.Errorf("provider %d (%q): %w", i, d.Name, ErrDuplicateProvider))
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// LoadFile is Load for the file at path.
func LoadFile(path string) ([]*Provider, error) {
	const op = "providers.LoadFile"
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer f.Close()
	ps, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", op, path, err)
	}
	return ps, nil
}

func (d definition) provider() (*Provider, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("name is empty: %w", ErrInvalidDefinition)
	}
	placement, err := ParseTokenPlacement(d.TokenPlacement)
	if err != nil {
		return nil, err
	}
	opts := []ticket.Option{
		ticket.WithScopes(d.Scopes...),
		ticket.WithScopeSeparator(d.ScopeSeparator),
		ticket.WithAccessTokenParam(d.AccessTokenParam),
		ticket.WithTokenPlacement(placement),
		ticket.WithClaimsIssuer(d.ClaimsIssuer),
		ticket.WithProviderCA(d.ProviderCA),
	}
	for _, ip := range d.IdentifierParams {
		opts = append(opts, ticket.WithIdentifierParam(ip.Param, ip.TokenField))
	}
	c, err := ticket.NewProviderConfig(d.Name, d.UserInformationEndpoint, opts...)
	if err != nil {
		return nil, err
	}
	rules := make([]ticket.ClaimMappingRule, 0, len(d.Claims))
	for _, cd := range d.Claims {
		rules = append(rules, ticket.ClaimMappingRule{
			ClaimType:  cd.Type,
			SourcePath: cd.Path,
			ValueType:  cd.ValueType,
			Optional:   cd.Optional,
		})
	}
	p := &Provider{Name: d.Name, Config: c, Rules: rules}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

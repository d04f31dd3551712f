// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package ticket

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/oauthticket/profile"
	"golang.org/x/text/unicode/norm"
)

// Claim value types.
const (
	ValueTypeString  = "string"
	ValueTypeInteger = "integer"
	ValueTypeDouble  = "double"
	ValueTypeBoolean = "boolean"
	ValueTypeJSON    = "json"
)

var supportedValueTypes = map[string]bool{
	ValueTypeString:  true,
	ValueTypeInteger: true,
	ValueTypeDouble:  true,
	ValueTypeBoolean: true,
	ValueTypeJSON:    true,
}

// Extractor computes a claim value from a user info document.  Returning an
// error marks the claim as missing.
type Extractor func(doc profile.Value) (profile.Value, error)

// ClaimMappingRule describes how one claim is extracted from a user info
// document.  Exactly one of SourcePath and Extract must be set.
type ClaimMappingRule struct {
	// ClaimType is the type of the produced claim, for example "email".
	ClaimType string

	// SourcePath is a dotted path into the document (see profile.Lookup).
	SourcePath string

	// Extract computes the value instead of SourcePath.
	Extract Extractor

	// ValueType of the claim.  Defaults to ValueTypeString.
	ValueType string

	// Optional rules are skipped when the value is missing.  A missing value
	// for a required rule fails the mapping.
	Optional bool
}

// MapKey returns a required rule mapping the value at path to claimType.
func MapKey(claimType, path string) ClaimMappingRule {
	return ClaimMappingRule{ClaimType: claimType, SourcePath: path}
}

// MapOptionalKey returns an optional rule mapping the value at path to
// claimType.
func MapOptionalKey(claimType, path string) ClaimMappingRule {
	return ClaimMappingRule{ClaimType: claimType, SourcePath: path, Optional: true}
}

// MapCustom returns a rule computing claimType with fn.
func MapCustom(claimType string, fn Extractor, optional bool) ClaimMappingRule {
	return ClaimMappingRule{ClaimType: claimType, Extract: fn, Optional: optional}
}

func (r ClaimMappingRule) valueType() string {
	if r.ValueType == "" {
		return ValueTypeString
	}
	return r.ValueType
}

func (r ClaimMappingRule) validate() error {
	var result *multierror.Error
	if r.ClaimType == "" {
		result = multierror.Append(result, fmt.Errorf("claim type is empty: %w", ErrInvalidParameter))
	}
	switch {
	case r.SourcePath == "" && r.Extract == nil:
		result = multierror.Append(result, fmt.Errorf("neither source path nor extractor is set: %w", ErrInvalidParameter))
	case r.SourcePath != "" && r.Extract != nil:
		result = multierror.Append(result, fmt.Errorf("both source path and extractor are set: %w", ErrInvalidParameter))
	case r.SourcePath != "":
		for _, seg := range strings.Split(r.SourcePath, ".") {
			if seg == "" {
				result = multierror.Append(result, fmt.Errorf("source path %q has an empty segment: %w", r.SourcePath, ErrInvalidParameter))
				break
			}
		}
	}
	if !supportedValueTypes[r.valueType()] {
		result = multierror.Append(result, fmt.Errorf("unsupported value type %q: %w", r.ValueType, ErrInvalidParameter))
	}
	return result.ErrorOrNil()
}

// ValidateRules checks every rule of a ruleset and reports all problems found
// in a single *ConfigError.
func ValidateRules(rules []ClaimMappingRule) error {
	const op = "ticket.ValidateRules"
	var result *multierror.Error
	for i, r := range rules {
		if err := r.validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("rule %d (%q): %w", i, r.ClaimType, err))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return &ConfigError{Op: op, Msg: "invalid claim mapping rules", Err: err}
	}
	return nil
}

// MapClaims applies the rules, in order, to doc.  Each successful extraction
// appends one claim (or one per element when a string rule resolves to an
// array) issued by issuer.  Optional rules whose value is missing are
// skipped; when required rules are missing a *MappingError listing all of
// them is returned.
//
// Supported options: WithNormalizedValues
func MapClaims(doc profile.Value, rules []ClaimMappingRule, issuer string, opt ...Option) ([]Claim, error) {
	const op = "ticket.MapClaims"
	if err := ValidateRules(rules); err != nil {
		return nil, err
	}
	opts := getMapOpts(opt...)

	claims := make([]Claim, 0, len(rules))
	var missing []string
	var causes *multierror.Error
	for _, r := range rules {
		values, err := r.extract(doc)
		if err != nil {
			if r.Optional {
				continue
			}
			missing = append(missing, r.ClaimType)
			causes = multierror.Append(causes, fmt.Errorf("claim %q: %w", r.ClaimType, err))
			continue
		}
		for _, v := range values {
			if opts.withNormalizedValues {
				v = norm.NFC.String(v)
			}
			claims = append(claims, Claim{
				Type:      r.ClaimType,
				Value:     v,
				ValueType: r.valueType(),
				Issuer:    issuer,
			})
		}
	}
	if len(missing) > 0 {
		return nil, &MappingError{Op: op, Claims: missing, Err: causes.ErrorOrNil()}
	}
	return claims, nil
}

func (r ClaimMappingRule) extract(doc profile.Value) ([]string, error) {
	var v profile.Value
	var err error
	if r.Extract != nil {
		v, err = r.Extract(doc)
	} else {
		v, err = doc.Lookup(r.SourcePath)
	}
	if err != nil {
		return nil, err
	}
	return claimValues(v, r.valueType())
}

// claimValues converts v to claim values of the given type.  Null and empty
// values count as missing.
func claimValues(v profile.Value, valueType string) ([]string, error) {
	switch valueType {
	case ValueTypeString:
		if v.Kind() != profile.KindArray {
			s, err := scalarText(v)
			if err != nil {
				return nil, err
			}
			return []string{s}, nil
		}
		var out []string
		for _, e := range v.Elements() {
			s, err := scalarText(e)
			if err != nil {
				continue
			}
			out = append(out, s)
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("array has no usable elements: %w", profile.ErrNotFound)
		}
		return out, nil
	case ValueTypeInteger:
		n, ok := v.AsNumber()
		if !ok {
			return nil, fmt.Errorf("%s is not an integer: %w", v.Kind(), profile.ErrTypeMismatch)
		}
		if _, err := n.Int64(); err != nil {
			return nil, fmt.Errorf("%s is not an integer: %w", n, profile.ErrTypeMismatch)
		}
		return []string{n.String()}, nil
	case ValueTypeDouble:
		n, ok := v.AsNumber()
		if !ok {
			return nil, fmt.Errorf("%s is not a number: %w", v.Kind(), profile.ErrTypeMismatch)
		}
		return []string{n.String()}, nil
	case ValueTypeBoolean:
		if _, ok := v.AsBool(); !ok {
			return nil, fmt.Errorf("%s is not a boolean: %w", v.Kind(), profile.ErrTypeMismatch)
		}
		s, _ := v.Text()
		return []string{s}, nil
	case ValueTypeJSON:
		switch v.Kind() {
		case profile.KindArray, profile.KindObject:
		default:
			return nil, fmt.Errorf("%s is not an array or object: %w", v.Kind(), profile.ErrTypeMismatch)
		}
		s, ok := v.Text()
		if !ok {
			return nil, fmt.Errorf("unable to encode %s: %w", v.Kind(), profile.ErrTypeMismatch)
		}
		return []string{s}, nil
	default:
		return nil, fmt.Errorf("unsupported value type %q: %w", valueType, ErrInvalidParameter)
	}
}

func scalarText(v profile.Value) (string, error) {
	s, ok := v.Text()
	if !ok || s == "" {
		return "", fmt.Errorf("value is %s or empty: %w", v.Kind(), profile.ErrNotFound)
	}
	return s, nil
}

/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credx

import (
	"encoding/json"

	cerrors "github.com/hyperledger/indy-credx-go/pkg/common/errors"
)

// NonRevokedInterval is the time window inside which a credential must not
// be revoked. Either bound may be open.
type NonRevokedInterval struct {
	From *uint64 `json:"from,omitempty"`
	To   *uint64 `json:"to,omitempty"`
}

// NonRevocInterval resolves the effective non-revocation interval for one
// requested item: a local interval overrides the request-wide one.
func NonRevocInterval(global, local *NonRevokedInterval) *NonRevokedInterval {
	if local != nil {
		return local
	}

	return global
}

// Predicate types in proof request notation.
const (
	PredicateGE PredicateType = ">="
	PredicateLE PredicateType = "<="
	PredicateGT PredicateType = ">"
	PredicateLT PredicateType = "<"
)

// PredicateType is an inequality operator in proof request notation.
type PredicateType string

// CryptoType maps the operator onto the primitive-level predicate name.
func (t PredicateType) CryptoType() string {
	switch t {
	case PredicateGE:
		return "GE"
	case PredicateLE:
		return "LE"
	case PredicateGT:
		return "GT"
	case PredicateLT:
		return "LT"
	default:
		return ""
	}
}

// Validate accepts known predicate types.
func (t PredicateType) Validate() error {
	if t.CryptoType() == "" {
		return cerrors.Newf(cerrors.Input, "unsupported predicate type %q", string(t))
	}

	return nil
}

// AttributeInfo is one requested attribute: a single name or a group of
// names from one credential, with optional restrictions and interval.
type AttributeInfo struct {
	Name         string              `json:"name,omitempty"`
	Names        []string            `json:"names,omitempty"`
	Restrictions *Query              `json:"restrictions,omitempty"`
	NonRevoked   *NonRevokedInterval `json:"non_revoked,omitempty"`
}

// Validate requires exactly one of name or names.
func (a *AttributeInfo) Validate() error {
	if a.Name == "" && len(a.Names) == 0 {
		return cerrors.New(cerrors.Input,
			`attribute for credential restriction should contain "name" or "names" param`)
	}

	if a.Name != "" && len(a.Names) > 0 {
		return cerrors.New(cerrors.Input,
			`attribute for credential restriction cannot contain both "name" and "names" params`)
	}

	return nil
}

// PredicateInfo is one requested predicate.
type PredicateInfo struct {
	Name         string              `json:"name"`
	PType        PredicateType       `json:"p_type"`
	PValue       int64               `json:"p_value"`
	Restrictions *Query              `json:"restrictions,omitempty"`
	NonRevoked   *NonRevokedInterval `json:"non_revoked,omitempty"`
}

// Validate checks the predicate shape.
func (p *PredicateInfo) Validate() error {
	if p.Name == "" {
		return cerrors.New(cerrors.Input, "predicate must name an attribute")
	}

	return p.PType.Validate()
}

// ProofRequest is a verifier's presentation request.
type ProofRequest struct {
	Nonce               json.RawMessage          `json:"nonce"`
	Name                string                   `json:"name"`
	Version             string                   `json:"version"`
	RequestedAttributes map[string]AttributeInfo `json:"requested_attributes"`
	RequestedPredicates map[string]PredicateInfo `json:"requested_predicates"`
	NonRevoked          *NonRevokedInterval      `json:"non_revoked,omitempty"`
	Ver                 string                   `json:"ver,omitempty"`
}

// Validate checks the request's nonce and every requested item.
func (r *ProofRequest) Validate() error {
	if len(r.Nonce) == 0 {
		return cerrors.New(cerrors.Input, "proof request has no nonce")
	}

	if r.Ver != "" && r.Ver != Version1 {
		return cerrors.Newf(cerrors.Input, "unsupported proof request version %q", r.Ver)
	}

	for referent := range r.RequestedAttributes {
		info := r.RequestedAttributes[referent]
		if err := info.Validate(); err != nil {
			return cerrors.Extendf(err, "requested attribute %q", referent)
		}
	}

	for referent := range r.RequestedPredicates {
		info := r.RequestedPredicates[referent]
		if err := info.Validate(); err != nil {
			return cerrors.Extendf(err, "requested predicate %q", referent)
		}
	}

	return nil
}

/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package credx holds the serializable entities of the anoncreds credential
// protocol: schemas, credential definitions, offers, requests, credentials,
// revocation registries, proof requests and proofs. Entities validate
// themselves; all cryptographic material inside them is opaque.
package credx

import (
	cerrors "github.com/hyperledger/indy-credx-go/pkg/common/errors"
	"github.com/hyperledger/indy-credx-go/pkg/credx/identifiers"
)

// Version1 is the accepted entity version discriminator.
const Version1 = "1.0"

// MaxAttributesCount bounds the number of attributes in a schema.
const MaxAttributesCount = 125

// AttributeNames is the attribute list of a schema.
type AttributeNames []string

// Validate checks the attribute list bounds and rejects exact duplicates.
func (a AttributeNames) Validate() error {
	if len(a) == 0 {
		return cerrors.New(cerrors.Input, "empty list of schema attributes has been passed")
	}

	if len(a) > MaxAttributesCount {
		return cerrors.Newf(cerrors.Input,
			"the number of schema attributes %d cannot exceed %d", len(a), MaxAttributesCount)
	}

	seen := make(map[string]struct{}, len(a))

	for _, attr := range a {
		if _, ok := seen[attr]; ok {
			return cerrors.Newf(cerrors.Input, "duplicate schema attribute %q", attr)
		}

		seen[attr] = struct{}{}
	}

	return nil
}

// Schema describes the attribute set credentials are issued against.
type Schema struct {
	Ver       string               `json:"ver"`
	ID        identifiers.SchemaID `json:"id"`
	Name      string               `json:"name"`
	Version   string               `json:"version"`
	AttrNames AttributeNames       `json:"attrNames"`
	SeqNo     *uint32              `json:"seqNo,omitempty"`
}

// Validate checks the schema's version, id and attribute list, and that
// the id components match the schema's own name and version.
func (s *Schema) Validate() error {
	if s.Ver != Version1 {
		return cerrors.Newf(cerrors.Input, "unsupported schema version %q", s.Ver)
	}

	if err := s.AttrNames.Validate(); err != nil {
		return err
	}

	if err := s.ID.Validate(); err != nil {
		return err
	}

	if _, name, version, ok := s.ID.Parts(); ok {
		if name != s.Name || version != s.Version {
			return cerrors.Newf(cerrors.Input,
				"inconsistent schema id %q: name and version must match %q %q",
				string(s.ID), s.Name, s.Version)
		}
	}

	return nil
}

// ToUnqualified strips method qualification from the schema id.
func (s *Schema) ToUnqualified() *Schema {
	out := *s
	out.ID = s.ID.ToUnqualified()

	return &out
}

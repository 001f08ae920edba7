/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credx

import (
	"encoding/json"

	cerrors "github.com/hyperledger/indy-credx-go/pkg/common/errors"
	"github.com/hyperledger/indy-credx-go/pkg/credx/cl"
	"github.com/hyperledger/indy-credx-go/pkg/credx/identifiers"
)

// SignatureTypeCL is the only supported credential signature type.
const SignatureTypeCL SignatureType = "CL"

// SignatureType names the signature scheme of a credential definition.
type SignatureType string

// Validate accepts supported signature types.
func (t SignatureType) Validate() error {
	if t != SignatureTypeCL {
		return cerrors.Newf(cerrors.Input, "unsupported signature type %q", string(t))
	}

	return nil
}

// CredentialDefinitionConfig controls credential definition generation.
type CredentialDefinitionConfig struct {
	SupportRevocation bool `json:"support_revocation"`
}

// CredentialDefinitionData is the public key material of a credential
// definition. Revocation is present only when revocation is supported.
type CredentialDefinitionData struct {
	Primary    json.RawMessage `json:"primary"`
	Revocation json.RawMessage `json:"revocation,omitempty"`
}

// CredentialDefinition is the issuer's public signing key bound to a schema.
type CredentialDefinition struct {
	Ver      string                             `json:"ver"`
	ID       identifiers.CredentialDefinitionID `json:"id"`
	SchemaID identifiers.SchemaID               `json:"schemaId"`
	Type     SignatureType                      `json:"type"`
	Tag      string                             `json:"tag"`
	Value    CredentialDefinitionData           `json:"value"`
}

// PublicKey assembles the primitive-level public key view.
func (d *CredentialDefinition) PublicKey() *cl.CredentialPublicKey {
	return &cl.CredentialPublicKey{
		Primary:    d.Value.Primary,
		Revocation: d.Value.Revocation,
	}
}

// SupportsRevocation reports whether the definition carries a revocation key.
func (d *CredentialDefinition) SupportsRevocation() bool {
	return len(d.Value.Revocation) > 0
}

// Validate checks version, ids and signature type.
func (d *CredentialDefinition) Validate() error {
	if d.Ver != Version1 {
		return cerrors.Newf(cerrors.Input, "unsupported credential definition version %q", d.Ver)
	}

	if err := d.ID.Validate(); err != nil {
		return err
	}

	if err := d.SchemaID.Validate(); err != nil {
		return err
	}

	if err := d.Type.Validate(); err != nil {
		return err
	}

	if len(d.Value.Primary) == 0 {
		return cerrors.New(cerrors.Input, "credential definition has no primary key")
	}

	return nil
}

// ToUnqualified strips method qualification from the definition's ids.
func (d *CredentialDefinition) ToUnqualified() *CredentialDefinition {
	out := *d
	out.ID = d.ID.ToUnqualified()
	out.SchemaID = d.SchemaID.ToUnqualified()

	return &out
}

// CredentialDefinitionPrivateKey is the issuer-held private half of a
// credential definition.
type CredentialDefinitionPrivateKey struct {
	Value json.RawMessage `json:"value"`
}

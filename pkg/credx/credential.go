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

// AttributeValues is a raw attribute value with its signed encoding.
type AttributeValues struct {
	Raw     string `json:"raw"`
	Encoded string `json:"encoded"`
}

// CredentialValues maps attribute names to their raw and encoded values.
type CredentialValues map[string]AttributeValues

// Validate rejects an empty value set.
func (v CredentialValues) Validate() error {
	if len(v) == 0 {
		return cerrors.New(cerrors.Input, "credential values are not provided")
	}

	return nil
}

// MakeCredentialValues encodes a raw attribute map into credential values.
func MakeCredentialValues(raw map[string]string) CredentialValues {
	values := make(CredentialValues, len(raw))

	for attr, value := range raw {
		values[attr] = AttributeValues{Raw: value, Encoded: cl.EncodeValue(value)}
	}

	return values
}

// Credential is an issued credential: signed attribute values plus, for
// revocable credentials, the registry snapshot and witness at issuance.
type Credential struct {
	SchemaID                  identifiers.SchemaID               `json:"schema_id"`
	CredDefID                 identifiers.CredentialDefinitionID `json:"cred_def_id"`
	RevRegID                  identifiers.RevocationRegistryID   `json:"rev_reg_id,omitempty"`
	Values                    CredentialValues                   `json:"values"`
	Signature                 json.RawMessage                    `json:"signature"`
	SignatureCorrectnessProof json.RawMessage                    `json:"signature_correctness_proof"`
	RevReg                    json.RawMessage                    `json:"rev_reg,omitempty"`
	Witness                   json.RawMessage                    `json:"witness,omitempty"`
}

// Validate checks the credential's ids, values and signature material.
func (c *Credential) Validate() error {
	if err := c.SchemaID.Validate(); err != nil {
		return err
	}

	if err := c.CredDefID.Validate(); err != nil {
		return err
	}

	if c.RevRegID != "" {
		if err := c.RevRegID.Validate(); err != nil {
			return err
		}
	}

	if err := c.Values.Validate(); err != nil {
		return err
	}

	if len(c.Signature) == 0 {
		return cerrors.New(cerrors.Input, "credential has no signature")
	}

	return nil
}

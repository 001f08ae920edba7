/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credx

import (
	"encoding/json"

	cerrors "github.com/hyperledger/indy-credx-go/pkg/common/errors"
	"github.com/hyperledger/indy-credx-go/pkg/credx/identifiers"
)

// CredentialOffer starts an issuance exchange. MethodName records the DID
// method stripped by ToUnqualified so the issuer can unqualify the ids of
// the credential it later signs against this offer.
type CredentialOffer struct {
	SchemaID            identifiers.SchemaID               `json:"schema_id"`
	CredDefID           identifiers.CredentialDefinitionID `json:"cred_def_id"`
	KeyCorrectnessProof json.RawMessage                    `json:"key_correctness_proof"`
	Nonce               json.RawMessage                    `json:"nonce"`
	MethodName          string                             `json:"method_name,omitempty"`
}

// Validate checks the offer's ids and required crypto material.
func (o *CredentialOffer) Validate() error {
	if err := o.SchemaID.Validate(); err != nil {
		return err
	}

	if err := o.CredDefID.Validate(); err != nil {
		return err
	}

	if len(o.KeyCorrectnessProof) == 0 {
		return cerrors.New(cerrors.Input, "credential offer has no key correctness proof")
	}

	if len(o.Nonce) == 0 {
		return cerrors.New(cerrors.Input, "credential offer has no nonce")
	}

	return nil
}

// ToUnqualified strips method qualification from the offer's ids, recording
// the stripped method in MethodName.
func (o *CredentialOffer) ToUnqualified() *CredentialOffer {
	out := *o
	out.SchemaID = o.SchemaID.ToUnqualified()
	out.CredDefID = o.CredDefID.ToUnqualified()

	if method := o.CredDefID.Method(); method != "" {
		out.MethodName = method
	}

	return &out
}

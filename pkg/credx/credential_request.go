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

// CredentialRequest is the prover's response to an offer: the blinded
// master secret commitment bound to the offered credential definition.
type CredentialRequest struct {
	ProverDID                 identifiers.DID                    `json:"prover_did"`
	CredDefID                 identifiers.CredentialDefinitionID `json:"cred_def_id"`
	BlindedMS                 json.RawMessage                    `json:"blinded_ms"`
	BlindedMSCorrectnessProof json.RawMessage                    `json:"blinded_ms_correctness_proof"`
	Nonce                     json.RawMessage                    `json:"nonce"`
}

// Validate checks the request's DID, id and required crypto material.
func (r *CredentialRequest) Validate() error {
	if err := r.ProverDID.Validate(); err != nil {
		return err
	}

	if err := r.CredDefID.Validate(); err != nil {
		return err
	}

	if len(r.BlindedMS) == 0 {
		return cerrors.New(cerrors.Input, "credential request has no blinded master secret")
	}

	if len(r.Nonce) == 0 {
		return cerrors.New(cerrors.Input, "credential request has no nonce")
	}

	return nil
}

// CredentialRequestMetadata is the prover-held companion of a request,
// needed later to process the issued credential.
type CredentialRequestMetadata struct {
	MasterSecretBlindingData json.RawMessage `json:"master_secret_blinding_data"`
	Nonce                    json.RawMessage `json:"nonce"`
	MasterSecretName         string          `json:"master_secret_name"`
}

/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cl

import (
	"encoding/json"

	cerrors "github.com/hyperledger/indy-credx-go/pkg/common/errors"
)

// Proof is the composite cryptographic proof: one opaque sub-proof per
// credential plus the aggregate binding them to the presentation nonce.
type Proof struct {
	Proofs          []json.RawMessage `json:"proofs"`
	AggregatedProof json.RawMessage   `json:"aggregated_proof"`
}

// eqProofView exposes the one part of a sub-proof the verifier service must
// read: the encoded values the equality proof claims for revealed attributes.
type eqProofView struct {
	PrimaryProof struct {
		EqProof struct {
			RevealedAttrs map[string]string `json:"revealed_attrs"`
		} `json:"eq_proof"`
	} `json:"primary_proof"`
}

// SubProofRevealedAttrs returns the encoded revealed values embedded in a
// sub-proof, keyed by normalized attribute name.
func SubProofRevealedAttrs(subProof json.RawMessage) (map[string]string, error) {
	var view eqProofView
	if err := json.Unmarshal(subProof, &view); err != nil {
		return nil, cerrors.WithCause(cerrors.Input, err, "unmarshal sub-proof")
	}

	return view.PrimaryProof.EqProof.RevealedAttrs, nil
}

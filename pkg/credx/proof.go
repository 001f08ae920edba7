/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credx

import (
	"github.com/hyperledger/indy-credx-go/pkg/credx/cl"
	"github.com/hyperledger/indy-credx-go/pkg/credx/identifiers"
)

// Identifier names the artifacts one sub-proof was produced against.
// Timestamp is set only for non-revocation proofs.
type Identifier struct {
	SchemaID  identifiers.SchemaID               `json:"schema_id"`
	CredDefID identifiers.CredentialDefinitionID `json:"cred_def_id"`
	RevRegID  identifiers.RevocationRegistryID   `json:"rev_reg_id,omitempty"`
	Timestamp *uint64                            `json:"timestamp,omitempty"`
}

// SubProofReferent points a referent at the sub-proof that covers it.
type SubProofReferent struct {
	SubProofIndex uint32 `json:"sub_proof_index"`
}

// RevealedAttributeInfo is a revealed attribute with its source sub-proof.
type RevealedAttributeInfo struct {
	SubProofIndex uint32 `json:"sub_proof_index"`
	Raw           string `json:"raw"`
	Encoded       string `json:"encoded"`
}

// RevealedAttributeGroupInfo is a revealed attribute group from one
// sub-proof.
type RevealedAttributeGroupInfo struct {
	SubProofIndex uint32                     `json:"sub_proof_index"`
	Values        map[string]AttributeValues `json:"values"`
}

// RequestedProof maps every referent of the proof request onto how the
// presentation answers it.
type RequestedProof struct {
	RevealedAttrs      map[string]RevealedAttributeInfo      `json:"revealed_attrs"`
	RevealedAttrGroups map[string]RevealedAttributeGroupInfo `json:"revealed_attr_groups,omitempty"`
	SelfAttestedAttrs  map[string]string                     `json:"self_attested_attrs"`
	UnrevealedAttrs    map[string]SubProofReferent           `json:"unrevealed_attrs"`
	Predicates         map[string]SubProofReferent           `json:"predicates"`
}

// NewRequestedProof returns an empty requested-proof section.
func NewRequestedProof() RequestedProof {
	return RequestedProof{
		RevealedAttrs:     map[string]RevealedAttributeInfo{},
		SelfAttestedAttrs: map[string]string{},
		UnrevealedAttrs:   map[string]SubProofReferent{},
		Predicates:        map[string]SubProofReferent{},
	}
}

// Proof is a full presentation: the cryptographic proof, the referent
// mapping and the identifiers of the artifacts used, in sub-proof order.
type Proof struct {
	Proof          cl.Proof       `json:"proof"`
	RequestedProof RequestedProof `json:"requested_proof"`
	Identifiers    []Identifier   `json:"identifiers"`
}

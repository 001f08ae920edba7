/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credx

import (
	cerrors "github.com/hyperledger/indy-credx-go/pkg/common/errors"
)

// RequestedAttribute selects the credential answering a requested attribute,
// the registry timestamp for its non-revocation proof, and whether the value
// is revealed.
type RequestedAttribute struct {
	CredID    string  `json:"cred_id"`
	Timestamp *uint64 `json:"timestamp,omitempty"`
	Revealed  bool    `json:"revealed"`
}

// ProvingCredentialKey selects the credential answering a requested
// predicate.
type ProvingCredentialKey struct {
	CredID    string  `json:"cred_id"`
	Timestamp *uint64 `json:"timestamp,omitempty"`
}

// RequestedCredentials is the prover's plan for answering a proof request.
type RequestedCredentials struct {
	SelfAttestedAttributes map[string]string               `json:"self_attested_attributes"`
	RequestedAttributes    map[string]RequestedAttribute   `json:"requested_attributes"`
	RequestedPredicates    map[string]ProvingCredentialKey `json:"requested_predicates"`
}

// Validate rejects a plan that answers nothing.
func (r *RequestedCredentials) Validate() error {
	if len(r.SelfAttestedAttributes) == 0 &&
		len(r.RequestedAttributes) == 0 &&
		len(r.RequestedPredicates) == 0 {
		return cerrors.New(cerrors.Input, "requested credentials cannot be empty")
	}

	return nil
}

//go:build ursa
// +build ursa

/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package libursa

import (
	"encoding/json"

	"github.com/hyperledger/ursa-wrapper-go/pkg/libursa/ursa"

	cerrors "github.com/hyperledger/indy-credx-go/pkg/common/errors"
	"github.com/hyperledger/indy-credx-go/pkg/credx/cl"
)

// VerifyProof checks a composite proof against the expected sub-proof items.
// A proof that fails the cryptographic check yields (false, nil). Items
// carrying revocation state are rejected on this backend.
func (p *Provider) VerifyProof(items []*cl.SubProofItem, proof *cl.Proof, nonce cl.Nonce) (bool, error) {
	verifier, err := ursa.NewProofVerifier()
	if err != nil {
		return false, cerrors.WithCause(cerrors.Unexpected, err, "new proof verifier")
	}

	for _, item := range items {
		if item.Accumulator != nil {
			return false, errRevocationUnsupported("verify proof")
		}

		if err := addVerifierItem(verifier, item); err != nil {
			return false, err
		}
	}

	raw, err := json.Marshal(proof)
	if err != nil {
		return false, cerrors.WithCause(cerrors.Input, err, "marshal proof")
	}

	proofHandle, err := ursa.ProofFromJSON(raw)
	if err != nil {
		return false, cerrors.WithCause(cerrors.Input, err, "parse proof")
	}

	defer proofHandle.Free() // nolint: errcheck

	nonceHandle, err := ursa.NonceFromJSON(string(nonce))
	if err != nil {
		return false, cerrors.WithCause(cerrors.Input, err, "parse presentation nonce")
	}

	defer nonceHandle.Free() // nolint: errcheck

	// libursa reports an invalid proof as an error from Verify.
	if err := verifier.Verify(proofHandle, nonceHandle); err != nil {
		return false, nil
	}

	return true, nil
}

func addVerifierItem(verifier *ursa.ProofVerifier, item *cl.SubProofItem) error {
	schema, nonSchema, err := buildSchema(item.SchemaAttrs)
	if err != nil {
		return err
	}

	defer schema.Free()    // nolint: errcheck
	defer nonSchema.Free() // nolint: errcheck

	subProofReq, err := buildSubProofRequest(item.RevealedAttrs, item.Predicates)
	if err != nil {
		return err
	}

	pubKey, err := ursa.CredentialPublicKeyFromJSON(item.PublicKey.Primary)
	if err != nil {
		return cerrors.WithCause(cerrors.Input, err, "parse credential public key")
	}

	defer pubKey.Free() // nolint: errcheck

	err = verifier.AddSubProofRequest(subProofReq, schema, nonSchema, pubKey)
	if err != nil {
		return cerrors.WithCause(cerrors.Unexpected, err, "add sub-proof request")
	}

	return nil
}

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
	"github.com/hyperledger/indy-credx-go/pkg/internal/clutil"
)

// NewMasterSecret generates a fresh link secret.
func (p *Provider) NewMasterSecret() (cl.MasterSecret, error) {
	ms, err := ursa.NewMasterSecret()
	if err != nil {
		return nil, cerrors.WithCause(cerrors.Unexpected, err, "generate master secret")
	}

	defer ms.Free() // nolint: errcheck

	raw, err := ms.ToJSON()
	if err != nil {
		return nil, cerrors.WithCause(cerrors.Unexpected, err, "serialize master secret")
	}

	return raw, nil
}

// BlindCredentialSecrets commits to the master secret against an issuer's
// public key and offer nonce.
func (p *Provider) BlindCredentialSecrets(pub *cl.CredentialPublicKey, keyProof cl.KeyCorrectnessProof,
	offerNonce cl.Nonce, masterSecret cl.MasterSecret) (*cl.BlindedSecrets, error) {
	msValue, err := clutil.MasterSecretValue(masterSecret)
	if err != nil {
		return nil, err
	}

	values, err := buildValues(&cl.CredentialValues{
		Hidden: map[string]string{clutil.MasterSecretAttr: msValue},
	})
	if err != nil {
		return nil, err
	}

	defer values.Free() // nolint: errcheck

	pubKey, err := ursa.CredentialPublicKeyFromJSON(pub.Primary)
	if err != nil {
		return nil, cerrors.WithCause(cerrors.Input, err, "parse credential public key")
	}

	defer pubKey.Free() // nolint: errcheck

	correctnessProof, err := ursa.CredentialKeyCorrectnessProofFromJSON(keyProof)
	if err != nil {
		return nil, cerrors.WithCause(cerrors.Input, err, "parse key correctness proof")
	}

	defer correctnessProof.Free() // nolint: errcheck

	nonce, err := ursa.NonceFromJSON(string(offerNonce))
	if err != nil {
		return nil, cerrors.WithCause(cerrors.Input, err, "parse offer nonce")
	}

	defer nonce.Free() // nolint: errcheck

	blinded, err := ursa.BlindCredentialSecrets(pubKey, correctnessProof, nonce, values)
	if err != nil {
		return nil, cerrors.WithCause(cerrors.Unexpected, err, "blind credential secrets")
	}

	defer blinded.Handle.Free()           // nolint: errcheck
	defer blinded.CorrectnessProof.Free() // nolint: errcheck
	defer blinded.BlindingFactor.Free()   // nolint: errcheck

	handle, err := blinded.Handle.ToJSON()
	if err != nil {
		return nil, cerrors.WithCause(cerrors.Unexpected, err, "serialize blinded secrets")
	}

	proof, err := blinded.CorrectnessProof.ToJSON()
	if err != nil {
		return nil, cerrors.WithCause(cerrors.Unexpected, err, "serialize blinded secrets correctness proof")
	}

	factor, err := blinded.BlindingFactor.ToJSON()
	if err != nil {
		return nil, cerrors.WithCause(cerrors.Unexpected, err, "serialize blinding factor")
	}

	return &cl.BlindedSecrets{Handle: handle, CorrectnessProof: proof, BlindingFactor: factor}, nil
}

// ProcessCredentialSignature unblinds a received signature and binds it to
// the prover's master secret.
func (p *Provider) ProcessCredentialSignature(req *cl.ProcessSignatureRequest) (json.RawMessage, error) {
	if req.Witness != nil || req.Accumulator != nil {
		return nil, errRevocationUnsupported("process credential signature")
	}

	signature, err := ursa.CredentialSignatureFromJSON(req.Signature)
	if err != nil {
		return nil, cerrors.WithCause(cerrors.Input, err, "parse credential signature")
	}

	defer signature.Free() // nolint: errcheck

	correctnessProof, err := ursa.CredentialSignatureCorrectnessProofFromJSON(req.CorrectnessProof)
	if err != nil {
		return nil, cerrors.WithCause(cerrors.Input, err, "parse signature correctness proof")
	}

	defer correctnessProof.Free() // nolint: errcheck

	blindingFactor, err := ursa.CredentialSecretsBlindingFactorsFromJSON(req.BlindingFactor)
	if err != nil {
		return nil, cerrors.WithCause(cerrors.Input, err, "parse blinding factor")
	}

	defer blindingFactor.Free() // nolint: errcheck

	pubKey, err := ursa.CredentialPublicKeyFromJSON(req.PublicKey.Primary)
	if err != nil {
		return nil, cerrors.WithCause(cerrors.Input, err, "parse credential public key")
	}

	defer pubKey.Free() // nolint: errcheck

	nonce, err := ursa.NonceFromJSON(string(req.RequestNonce))
	if err != nil {
		return nil, cerrors.WithCause(cerrors.Input, err, "parse request nonce")
	}

	defer nonce.Free() // nolint: errcheck

	values, err := buildValues(req.Values)
	if err != nil {
		return nil, err
	}

	defer values.Free() // nolint: errcheck

	err = signature.ProcessCredentialSignature(values, correctnessProof, blindingFactor, pubKey, nonce)
	if err != nil {
		return nil, cerrors.WithCause(cerrors.Unexpected, err, "process credential signature")
	}

	raw, err := signature.ToJSON()
	if err != nil {
		return nil, cerrors.WithCause(cerrors.Unexpected, err, "serialize processed signature")
	}

	return raw, nil
}

// CreateProof builds a composite proof over the given sub-proof requests.
// Sub-proofs carrying revocation state are rejected on this backend.
func (p *Provider) CreateProof(subProofs []*cl.SubProofRequest, nonce cl.Nonce,
	masterSecret cl.MasterSecret) (*cl.Proof, error) {
	builder, err := ursa.NewProofBuilder()
	if err != nil {
		return nil, cerrors.WithCause(cerrors.Unexpected, err, "new proof builder")
	}

	if err := builder.AddCommonAttribute(clutil.MasterSecretAttr); err != nil {
		return nil, cerrors.WithCause(cerrors.Unexpected, err, "add common attribute")
	}

	for _, sp := range subProofs {
		if sp.Witness != nil || sp.Accumulator != nil {
			return nil, errRevocationUnsupported("create proof")
		}

		if err := addSubProof(builder, sp); err != nil {
			return nil, err
		}
	}

	nonceHandle, err := ursa.NonceFromJSON(string(nonce))
	if err != nil {
		return nil, cerrors.WithCause(cerrors.Input, err, "parse presentation nonce")
	}

	defer nonceHandle.Free() // nolint: errcheck

	proofHandle, err := builder.Finalize(nonceHandle)
	if err != nil {
		return nil, cerrors.WithCause(cerrors.Unexpected, err, "finalize proof")
	}

	defer proofHandle.Free() // nolint: errcheck

	raw, err := proofHandle.ToJSON()
	if err != nil {
		return nil, cerrors.WithCause(cerrors.Unexpected, err, "serialize proof")
	}

	proof := &cl.Proof{}
	if err := json.Unmarshal(raw, proof); err != nil {
		return nil, cerrors.WithCause(cerrors.Unexpected, err, "unmarshal proof")
	}

	return proof, nil
}

func addSubProof(builder *ursa.ProofBuilder, sp *cl.SubProofRequest) error {
	schema, nonSchema, err := buildSchema(sp.SchemaAttrs)
	if err != nil {
		return err
	}

	defer schema.Free()    // nolint: errcheck
	defer nonSchema.Free() // nolint: errcheck

	subProofReq, err := buildSubProofRequest(sp.RevealedAttrs, sp.Predicates)
	if err != nil {
		return err
	}

	signature, err := ursa.CredentialSignatureFromJSON(sp.Signature)
	if err != nil {
		return cerrors.WithCause(cerrors.Input, err, "parse credential signature")
	}

	defer signature.Free() // nolint: errcheck

	values, err := buildValues(sp.Values)
	if err != nil {
		return err
	}

	defer values.Free() // nolint: errcheck

	pubKey, err := ursa.CredentialPublicKeyFromJSON(sp.PublicKey.Primary)
	if err != nil {
		return cerrors.WithCause(cerrors.Input, err, "parse credential public key")
	}

	defer pubKey.Free() // nolint: errcheck

	err = builder.AddSubProofRequest(subProofReq, schema, nonSchema, signature, values, pubKey)
	if err != nil {
		return cerrors.WithCause(cerrors.Unexpected, err, "add sub-proof request")
	}

	return nil
}

func buildSubProofRequest(revealedAttrs []string, predicates []cl.Predicate) (*ursa.SubProofRequestHandle, error) {
	builder, err := ursa.NewSubProofRequestBuilder()
	if err != nil {
		return nil, cerrors.WithCause(cerrors.Unexpected, err, "new sub-proof request builder")
	}

	for _, attr := range revealedAttrs {
		if err := builder.AddRevealedAttr(attr); err != nil {
			return nil, cerrors.WithCause(cerrors.Unexpected, err, "add revealed attribute")
		}
	}

	for _, predicate := range predicates {
		if err := builder.AddPredicate(predicate.Attr, predicate.PType, predicate.Value); err != nil {
			return nil, cerrors.WithCause(cerrors.Unexpected, err, "add predicate")
		}
	}

	subProofReq, err := builder.Finalize()
	if err != nil {
		return nil, cerrors.WithCause(cerrors.Unexpected, err, "finalize sub-proof request")
	}

	return subProofReq, nil
}

// CreateWitness is not available on this backend.
func (p *Provider) CreateWitness(json.RawMessage, uint32, uint32, bool, cl.TailsAccessor) (cl.Witness, error) {
	return nil, errRevocationUnsupported("create witness")
}

// UpdateWitness is not available on this backend.
func (p *Provider) UpdateWitness(cl.Witness, json.RawMessage, uint32, uint32, cl.TailsAccessor) (cl.Witness, error) {
	return nil, errRevocationUnsupported("update witness")
}

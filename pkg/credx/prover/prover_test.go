/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package prover

import (
	"testing"

	"github.com/stretchr/testify/require"

	cerrors "github.com/hyperledger/indy-credx-go/pkg/common/errors"
	"github.com/hyperledger/indy-credx-go/pkg/credx"
	"github.com/hyperledger/indy-credx-go/pkg/credx/identifiers"
	"github.com/hyperledger/indy-credx-go/pkg/credx/issuer"
	mockcl "github.com/hyperledger/indy-credx-go/pkg/mock/cl"
)

const (
	issuerDID = identifiers.DID("NcYxiDXkpYi6ov5FcYDi1e")
	proverDID = identifiers.DID("VsKV7grR1BUE29mG2Fm2kX")
)

type issuance struct {
	provider *mockcl.Provider
	issuer   *issuer.Issuer
	prover   *Prover

	schema  *credx.Schema
	def     *credx.CredentialDefinition
	private *credx.CredentialDefinitionPrivateKey
	offer   *credx.CredentialOffer

	masterSecret *credx.MasterSecret
	request      *credx.CredentialRequest
	metadata     *credx.CredentialRequestMetadata
}

func newIssuance(t *testing.T) *issuance {
	t.Helper()

	env := &issuance{provider: &mockcl.Provider{}}
	env.issuer = issuer.New(env.provider)
	env.prover = New(env.provider)

	var err error

	env.schema, err = env.issuer.NewSchema(issuerDID, "gvt", "1.0",
		credx.AttributeNames{"name", "age"})
	require.NoError(t, err)

	var keyProof []byte

	env.def, env.private, keyProof, err = env.issuer.NewCredentialDefinition(issuerDID,
		env.schema, "tag", credx.SignatureTypeCL, &credx.CredentialDefinitionConfig{})
	require.NoError(t, err)

	env.offer, err = env.issuer.NewCredentialOffer(env.schema.ID, env.def.ID, keyProof)
	require.NoError(t, err)

	env.masterSecret, err = env.prover.NewMasterSecret()
	require.NoError(t, err)

	env.request, env.metadata, err = env.prover.NewCredentialRequest(proverDID, env.def,
		env.masterSecret, "main", env.offer)
	require.NoError(t, err)

	return env
}

func (e *issuance) issue(t *testing.T, values credx.CredentialValues) *credx.Credential {
	t.Helper()

	cred, _, _, err := e.issuer.NewCredential(e.def, e.private, e.offer, e.request, values, nil)
	require.NoError(t, err)

	require.NoError(t, e.prover.ProcessCredential(cred, e.metadata, e.masterSecret, e.def, nil))

	return cred
}

func TestNewMasterSecret(t *testing.T) {
	s := New(&mockcl.Provider{})

	first, err := s.NewMasterSecret()
	require.NoError(t, err)
	require.NotEmpty(t, first.Value)

	second, err := s.NewMasterSecret()
	require.NoError(t, err)
	require.NotEqual(t, string(first.Value), string(second.Value))
}

func TestNewCredentialRequest(t *testing.T) {
	env := newIssuance(t)

	require.Equal(t, env.offer.CredDefID, env.request.CredDefID)
	require.NotEmpty(t, env.request.BlindedMS)
	require.NotEmpty(t, env.request.BlindedMSCorrectnessProof)
	require.NotEmpty(t, env.request.Nonce)

	require.NotEmpty(t, env.metadata.MasterSecretBlindingData)
	require.Equal(t, string(env.request.Nonce), string(env.metadata.Nonce))
	require.Equal(t, "main", env.metadata.MasterSecretName)

	_, _, err := env.prover.NewCredentialRequest("not a did", env.def,
		env.masterSecret, "main", env.offer)
	require.Error(t, err)
	require.Equal(t, cerrors.Input, cerrors.KindOf(err))
}

func TestProcessCredential(t *testing.T) {
	env := newIssuance(t)

	values := credx.MakeCredentialValues(map[string]string{"name": "Alex", "age": "28"})

	cred, _, _, err := env.issuer.NewCredential(env.def, env.private, env.offer,
		env.request, values, nil)
	require.NoError(t, err)

	original := string(cred.Signature)

	require.NoError(t, env.prover.ProcessCredential(cred, env.metadata,
		env.masterSecret, env.def, nil))
	require.NotEqual(t, original, string(cred.Signature))

	// A foreign master secret cannot unblind the signature.
	otherSecret, err := env.prover.NewMasterSecret()
	require.NoError(t, err)

	cred2, _, _, err := env.issuer.NewCredential(env.def, env.private, env.offer,
		env.request, values, nil)
	require.NoError(t, err)

	err = env.prover.ProcessCredential(cred2, env.metadata, otherSecret, env.def, nil)
	require.Error(t, err)
}

func testProofRequest(nonce []byte) *credx.ProofRequest {
	return &credx.ProofRequest{
		Nonce:   nonce,
		Name:    "proof_req_1",
		Version: "0.1",
		RequestedAttributes: map[string]credx.AttributeInfo{
			"attr1_referent": {Name: "name"},
		},
		RequestedPredicates: map[string]credx.PredicateInfo{
			"predicate1_referent": {Name: "age", PType: credx.PredicateGE, PValue: 18},
		},
	}
}

func TestCreateProof(t *testing.T) {
	env := newIssuance(t)

	cred := env.issue(t, credx.MakeCredentialValues(map[string]string{
		"name": "Alex", "age": "28",
	}))

	nonce, err := env.provider.NewNonce()
	require.NoError(t, err)

	proofReq := testProofRequest(nonce)
	proofReq.RequestedAttributes["attr2_referent"] = credx.AttributeInfo{Name: "residence"}

	reqCreds := &credx.RequestedCredentials{
		SelfAttestedAttributes: map[string]string{"attr2_referent": "Berlin"},
		RequestedAttributes: map[string]credx.RequestedAttribute{
			"attr1_referent": {CredID: "cred_1", Revealed: true},
		},
		RequestedPredicates: map[string]credx.ProvingCredentialKey{
			"predicate1_referent": {CredID: "cred_1"},
		},
	}

	proof, err := env.prover.CreateProof(proofReq,
		map[string]*credx.Credential{"cred_1": cred}, reqCreds, env.masterSecret,
		map[identifiers.SchemaID]*credx.Schema{env.schema.ID: env.schema},
		map[identifiers.CredentialDefinitionID]*credx.CredentialDefinition{env.def.ID: env.def},
		nil)
	require.NoError(t, err)

	require.Len(t, proof.Proof.Proofs, 1)
	require.Len(t, proof.Identifiers, 1)
	require.Equal(t, env.schema.ID, proof.Identifiers[0].SchemaID)
	require.Nil(t, proof.Identifiers[0].Timestamp)

	revealed := proof.RequestedProof.RevealedAttrs["attr1_referent"]
	require.Equal(t, "Alex", revealed.Raw)
	require.Equal(t, uint32(0), revealed.SubProofIndex)
	require.Equal(t, "Berlin", proof.RequestedProof.SelfAttestedAttrs["attr2_referent"])
	require.Contains(t, proof.RequestedProof.Predicates, "predicate1_referent")
}

func TestCreateProofUnknownReferent(t *testing.T) {
	env := newIssuance(t)

	cred := env.issue(t, credx.MakeCredentialValues(map[string]string{
		"name": "Alex", "age": "28",
	}))

	nonce, err := env.provider.NewNonce()
	require.NoError(t, err)

	proofReq := testProofRequest(nonce)

	reqCreds := &credx.RequestedCredentials{
		RequestedAttributes: map[string]credx.RequestedAttribute{
			"bogus_referent": {CredID: "cred_1", Revealed: true},
		},
		RequestedPredicates: map[string]credx.ProvingCredentialKey{
			"predicate1_referent": {CredID: "cred_1"},
		},
	}

	_, err = env.prover.CreateProof(proofReq,
		map[string]*credx.Credential{"cred_1": cred}, reqCreds, env.masterSecret,
		map[identifiers.SchemaID]*credx.Schema{env.schema.ID: env.schema},
		map[identifiers.CredentialDefinitionID]*credx.CredentialDefinition{env.def.ID: env.def},
		nil)
	require.Error(t, err)
	require.Equal(t, cerrors.Input, cerrors.KindOf(err))
	require.Contains(t, err.Error(), "not in the proof request")
}

func TestCreateProofMissingCredential(t *testing.T) {
	env := newIssuance(t)

	nonce, err := env.provider.NewNonce()
	require.NoError(t, err)

	proofReq := testProofRequest(nonce)

	reqCreds := &credx.RequestedCredentials{
		RequestedAttributes: map[string]credx.RequestedAttribute{
			"attr1_referent": {CredID: "cred_1", Revealed: true},
		},
		RequestedPredicates: map[string]credx.ProvingCredentialKey{
			"predicate1_referent": {CredID: "cred_1"},
		},
	}

	_, err = env.prover.CreateProof(proofReq, map[string]*credx.Credential{}, reqCreds,
		env.masterSecret,
		map[identifiers.SchemaID]*credx.Schema{env.schema.ID: env.schema},
		map[identifiers.CredentialDefinitionID]*credx.CredentialDefinition{env.def.ID: env.def},
		nil)
	require.Error(t, err)
	require.Equal(t, cerrors.Input, cerrors.KindOf(err))
	require.Contains(t, err.Error(), "not found")
}

func TestCreateProofPredicateNotSatisfied(t *testing.T) {
	env := newIssuance(t)

	cred := env.issue(t, credx.MakeCredentialValues(map[string]string{
		"name": "Alex", "age": "28",
	}))

	nonce, err := env.provider.NewNonce()
	require.NoError(t, err)

	proofReq := testProofRequest(nonce)
	info := proofReq.RequestedPredicates["predicate1_referent"]
	info.PValue = 30
	proofReq.RequestedPredicates["predicate1_referent"] = info

	reqCreds := &credx.RequestedCredentials{
		RequestedAttributes: map[string]credx.RequestedAttribute{
			"attr1_referent": {CredID: "cred_1", Revealed: true},
		},
		RequestedPredicates: map[string]credx.ProvingCredentialKey{
			"predicate1_referent": {CredID: "cred_1"},
		},
	}

	_, err = env.prover.CreateProof(proofReq,
		map[string]*credx.Credential{"cred_1": cred}, reqCreds, env.masterSecret,
		map[identifiers.SchemaID]*credx.Schema{env.schema.ID: env.schema},
		map[identifiers.CredentialDefinitionID]*credx.CredentialDefinition{env.def.ID: env.def},
		nil)
	require.Error(t, err)
	require.Equal(t, cerrors.ProofRejected, cerrors.KindOf(err))
}

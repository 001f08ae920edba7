/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credx_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	cerrors "github.com/hyperledger/indy-credx-go/pkg/common/errors"
	"github.com/hyperledger/indy-credx-go/pkg/credx"
	"github.com/hyperledger/indy-credx-go/pkg/credx/cl"
	"github.com/hyperledger/indy-credx-go/pkg/credx/identifiers"
	"github.com/hyperledger/indy-credx-go/pkg/credx/issuer"
	"github.com/hyperledger/indy-credx-go/pkg/credx/prover"
	"github.com/hyperledger/indy-credx-go/pkg/credx/tails"
	"github.com/hyperledger/indy-credx-go/pkg/credx/verifier"
	mockcl "github.com/hyperledger/indy-credx-go/pkg/mock/cl"
)

const (
	issuerDID = identifiers.DID("NcYxiDXkpYi6ov5FcYDi1e")
	holderDID = identifiers.DID("VsKV7grR1BUE29mG2Fm2kX")
)

// protocol wires the three services over one shared primitive provider, the
// way an agent embeds them.
type protocol struct {
	provider *mockcl.Provider
	issuer   *issuer.Issuer
	prover   *prover.Prover
	verifier *verifier.Verifier
}

func newProtocol() *protocol {
	provider := &mockcl.Provider{}

	return &protocol{
		provider: provider,
		issuer:   issuer.New(provider),
		prover:   prover.New(provider),
		verifier: verifier.New(provider),
	}
}

func TestIssueAndVerify(t *testing.T) {
	p := newProtocol()

	schema, err := p.issuer.NewSchema(issuerDID, "gvt", "1.0",
		credx.AttributeNames{"name", "age", "sex"})
	require.NoError(t, err)

	credDef, credDefPriv, keyProof, err := p.issuer.NewCredentialDefinition(issuerDID,
		schema, "tag", credx.SignatureTypeCL, &credx.CredentialDefinitionConfig{})
	require.NoError(t, err)

	offer, err := p.issuer.NewCredentialOffer(schema.ID, credDef.ID, keyProof)
	require.NoError(t, err)

	masterSecret, err := p.prover.NewMasterSecret()
	require.NoError(t, err)

	request, metadata, err := p.prover.NewCredentialRequest(holderDID, credDef,
		masterSecret, "main", offer)
	require.NoError(t, err)

	values := credx.MakeCredentialValues(map[string]string{
		"name": "Alex",
		"age":  "28",
		"sex":  "male",
	})

	cred, _, _, err := p.issuer.NewCredential(credDef, credDefPriv, offer, request, values, nil)
	require.NoError(t, err)

	require.NoError(t, p.prover.ProcessCredential(cred, metadata, masterSecret, credDef, nil))

	nonce, err := p.verifier.GenerateNonce()
	require.NoError(t, err)

	proofReq := &credx.ProofRequest{
		Nonce:   nonce,
		Name:    "proof_req_1",
		Version: "0.1",
		RequestedAttributes: map[string]credx.AttributeInfo{
			"attr1_referent": {
				Name:         "name",
				Restrictions: &credx.Query{Op: credx.OpEq, Key: "schema_name", Value: "gvt"},
			},
			"attr2_referent": {Name: "phone"},
		},
		RequestedPredicates: map[string]credx.PredicateInfo{
			"predicate1_referent": {Name: "age", PType: credx.PredicateGE, PValue: 18},
		},
	}

	reqCreds := &credx.RequestedCredentials{
		SelfAttestedAttributes: map[string]string{"attr2_referent": "123-45-6789"},
		RequestedAttributes: map[string]credx.RequestedAttribute{
			"attr1_referent": {CredID: "cred_1", Revealed: true},
		},
		RequestedPredicates: map[string]credx.ProvingCredentialKey{
			"predicate1_referent": {CredID: "cred_1"},
		},
	}

	schemas := map[identifiers.SchemaID]*credx.Schema{schema.ID: schema}
	credDefs := map[identifiers.CredentialDefinitionID]*credx.CredentialDefinition{credDef.ID: credDef}

	proof, err := p.prover.CreateProof(proofReq, map[string]*credx.Credential{"cred_1": cred},
		reqCreds, masterSecret, schemas, credDefs, nil)
	require.NoError(t, err)

	ok, err := p.verifier.VerifyProof(proof, proofReq, schemas, credDefs, nil, nil)
	require.NoError(t, err)
	require.True(t, ok)

	// A proof is bound to the nonce it was created against.
	otherNonce, err := p.verifier.GenerateNonce()
	require.NoError(t, err)

	staleReq := *proofReq
	staleReq.Nonce = otherNonce

	ok, err = p.verifier.VerifyProof(proof, &staleReq, schemas, credDefs, nil, nil)
	require.NoError(t, err)
	require.False(t, ok)

	// A restriction the credential does not meet rejects the proof.
	rejectReq := *proofReq
	rejectReq.RequestedAttributes = map[string]credx.AttributeInfo{
		"attr1_referent": {
			Name:         "name",
			Restrictions: &credx.Query{Op: credx.OpEq, Key: "schema_name", Value: "other"},
		},
		"attr2_referent": {Name: "phone"},
	}

	_, err = p.verifier.VerifyProof(proof, &rejectReq, schemas, credDefs, nil, nil)
	require.Error(t, err)
	require.Equal(t, cerrors.ProofRejected, cerrors.KindOf(err))
}

func TestUnsatisfiedPredicate(t *testing.T) {
	p := newProtocol()

	schema, err := p.issuer.NewSchema(issuerDID, "gvt", "1.0",
		credx.AttributeNames{"name", "age"})
	require.NoError(t, err)

	credDef, credDefPriv, keyProof, err := p.issuer.NewCredentialDefinition(issuerDID,
		schema, "tag", credx.SignatureTypeCL, &credx.CredentialDefinitionConfig{})
	require.NoError(t, err)

	offer, err := p.issuer.NewCredentialOffer(schema.ID, credDef.ID, keyProof)
	require.NoError(t, err)

	masterSecret, err := p.prover.NewMasterSecret()
	require.NoError(t, err)

	request, metadata, err := p.prover.NewCredentialRequest(holderDID, credDef,
		masterSecret, "main", offer)
	require.NoError(t, err)

	values := credx.MakeCredentialValues(map[string]string{"name": "Alex", "age": "28"})

	cred, _, _, err := p.issuer.NewCredential(credDef, credDefPriv, offer, request, values, nil)
	require.NoError(t, err)

	require.NoError(t, p.prover.ProcessCredential(cred, metadata, masterSecret, credDef, nil))

	nonce, err := p.verifier.GenerateNonce()
	require.NoError(t, err)

	proofReq := &credx.ProofRequest{
		Nonce:   nonce,
		Name:    "proof_req_1",
		Version: "0.1",
		RequestedPredicates: map[string]credx.PredicateInfo{
			"predicate1_referent": {Name: "age", PType: credx.PredicateGE, PValue: 30},
		},
	}

	reqCreds := &credx.RequestedCredentials{
		RequestedPredicates: map[string]credx.ProvingCredentialKey{
			"predicate1_referent": {CredID: "cred_1"},
		},
	}

	_, err = p.prover.CreateProof(proofReq, map[string]*credx.Credential{"cred_1": cred},
		reqCreds, masterSecret,
		map[identifiers.SchemaID]*credx.Schema{schema.ID: schema},
		map[identifiers.CredentialDefinitionID]*credx.CredentialDefinition{credDef.ID: credDef},
		nil)
	require.Error(t, err)
	require.Equal(t, cerrors.ProofRejected, cerrors.KindOf(err))
}

func TestOnDemandIssuance(t *testing.T) {
	p := newProtocol()

	schema, err := p.issuer.NewSchema(issuerDID, "gvt", "1.0",
		credx.AttributeNames{"name", "age"})
	require.NoError(t, err)

	credDef, credDefPriv, keyProof, err := p.issuer.NewCredentialDefinition(issuerDID,
		schema, "tag", credx.SignatureTypeCL,
		&credx.CredentialDefinitionConfig{SupportRevocation: true})
	require.NoError(t, err)

	regDef, regPriv, initialRegistry, err := p.issuer.NewRevocationRegistry(issuerDID, credDef,
		"tag", credx.RegistryTypeCLAccum,
		&credx.RevocationRegistryConfig{MaxCredNum: 10, IssuanceType: credx.IssuanceOnDemand},
		tails.NewFileWriter(t.TempDir()))
	require.NoError(t, err)

	tailsReader, err := tails.NewFileReader(regDef.Value.TailsLocation)
	require.NoError(t, err)

	defer func() { require.NoError(t, tailsReader.Close()) }()

	offer, err := p.issuer.NewCredentialOffer(schema.ID, credDef.ID, keyProof)
	require.NoError(t, err)

	masterSecret, err := p.prover.NewMasterSecret()
	require.NoError(t, err)

	request, metadata, err := p.prover.NewCredentialRequest(holderDID, credDef,
		masterSecret, "main", offer)
	require.NoError(t, err)

	values := credx.MakeCredentialValues(map[string]string{"name": "Alex", "age": "28"})

	const revIdx = uint32(3)

	cred, registry, delta, err := p.issuer.NewCredential(credDef, credDefPriv, offer, request,
		values, &issuer.CredentialRevocationConfig{
			RegistryDefinition: regDef,
			Registry:           initialRegistry,
			RegistryPrivate:    regPriv,
			RegistryIndex:      revIdx,
			TailsReader:        tailsReader,
		})
	require.NoError(t, err)

	// On-demand signing moves the index into the accumulator and publishes
	// the transition as a delta.
	require.NotEqual(t, string(initialRegistry.Value), string(registry.Value))
	require.NotNil(t, delta)

	parsed, err := cl.ParseDelta(delta.Value)
	require.NoError(t, err)
	require.Equal(t, []uint32{revIdx}, parsed.Issued)
	require.JSONEq(t, string(initialRegistry.Value), string(parsed.PrevAccum))
	require.JSONEq(t, string(registry.Value), string(parsed.Accum))

	require.NoError(t, p.prover.ProcessCredential(cred, metadata, masterSecret, credDef, regDef))

	const timestamp = uint64(100)

	state, err := p.prover.CreateOrUpdateRevocationState(tailsReader, regDef, delta,
		revIdx, timestamp, nil)
	require.NoError(t, err)

	nonce, err := p.verifier.GenerateNonce()
	require.NoError(t, err)

	ts := uint64(timestamp)
	proofReq := &credx.ProofRequest{
		Nonce:   nonce,
		Name:    "proof_req_1",
		Version: "0.1",
		RequestedAttributes: map[string]credx.AttributeInfo{
			"attr1_referent": {Name: "name"},
		},
		NonRevoked: &credx.NonRevokedInterval{To: &ts},
	}
	reqCreds := &credx.RequestedCredentials{
		RequestedAttributes: map[string]credx.RequestedAttribute{
			"attr1_referent": {CredID: "cred_1", Revealed: true, Timestamp: &ts},
		},
	}

	schemas := map[identifiers.SchemaID]*credx.Schema{schema.ID: schema}
	credDefs := map[identifiers.CredentialDefinitionID]*credx.CredentialDefinition{credDef.ID: credDef}
	revRegDefs := map[identifiers.RevocationRegistryID]*credx.RevocationRegistryDefinition{regDef.ID: regDef}

	proof, err := p.prover.CreateProof(proofReq, map[string]*credx.Credential{"cred_1": cred},
		reqCreds, masterSecret, schemas, credDefs,
		map[string]map[uint64]*credx.RevocationState{
			string(cred.RevRegID): {timestamp: state},
		})
	require.NoError(t, err)

	ok, err := p.verifier.VerifyProof(proof, proofReq, schemas, credDefs, revRegDefs,
		map[identifiers.RevocationRegistryID]map[uint64]*credx.RevocationRegistry{
			regDef.ID: {timestamp: registry},
		})
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRevocationLifecycle(t *testing.T) {
	p := newProtocol()

	schema, err := p.issuer.NewSchema(issuerDID, "gvt", "1.0",
		credx.AttributeNames{"name", "age"})
	require.NoError(t, err)

	credDef, credDefPriv, keyProof, err := p.issuer.NewCredentialDefinition(issuerDID,
		schema, "tag", credx.SignatureTypeCL,
		&credx.CredentialDefinitionConfig{SupportRevocation: true})
	require.NoError(t, err)

	regDef, regPriv, registry, err := p.issuer.NewRevocationRegistry(issuerDID, credDef,
		"tag", credx.RegistryTypeCLAccum,
		&credx.RevocationRegistryConfig{MaxCredNum: 5, IssuanceType: credx.IssuanceByDefault},
		tails.NewFileWriter(t.TempDir()))
	require.NoError(t, err)

	tailsReader, err := tails.NewFileReader(regDef.Value.TailsLocation)
	require.NoError(t, err)

	defer func() { require.NoError(t, tailsReader.Close()) }()

	offer, err := p.issuer.NewCredentialOffer(schema.ID, credDef.ID, keyProof)
	require.NoError(t, err)

	masterSecret, err := p.prover.NewMasterSecret()
	require.NoError(t, err)

	request, metadata, err := p.prover.NewCredentialRequest(holderDID, credDef,
		masterSecret, "main", offer)
	require.NoError(t, err)

	values := credx.MakeCredentialValues(map[string]string{"name": "Alex", "age": "28"})

	const revIdx = uint32(1)

	cred, registry, _, err := p.issuer.NewCredential(credDef, credDefPriv, offer, request,
		values, &issuer.CredentialRevocationConfig{
			RegistryDefinition: regDef,
			Registry:           registry,
			RegistryPrivate:    regPriv,
			RegistryIndex:      revIdx,
			TailsReader:        tailsReader,
		})
	require.NoError(t, err)
	require.Equal(t, regDef.ID, cred.RevRegID)

	require.NoError(t, p.prover.ProcessCredential(cred, metadata, masterSecret, credDef, regDef))

	const timestamp = uint64(100)

	initialDelta, err := cl.DeltaFromParts(nil, registry.Value, nil, nil)
	require.NoError(t, err)

	state, err := p.prover.CreateOrUpdateRevocationState(tailsReader, regDef,
		&credx.RevocationRegistryDelta{Ver: credx.Version1, Value: initialDelta},
		revIdx, timestamp, nil)
	require.NoError(t, err)

	nonce, err := p.verifier.GenerateNonce()
	require.NoError(t, err)

	ts := uint64(timestamp)
	proofReq := &credx.ProofRequest{
		Nonce:   nonce,
		Name:    "proof_req_1",
		Version: "0.1",
		RequestedAttributes: map[string]credx.AttributeInfo{
			"attr1_referent": {Name: "name"},
		},
		NonRevoked: &credx.NonRevokedInterval{To: &ts},
	}
	reqCreds := &credx.RequestedCredentials{
		RequestedAttributes: map[string]credx.RequestedAttribute{
			"attr1_referent": {CredID: "cred_1", Revealed: true, Timestamp: &ts},
		},
	}

	schemas := map[identifiers.SchemaID]*credx.Schema{schema.ID: schema}
	credDefs := map[identifiers.CredentialDefinitionID]*credx.CredentialDefinition{credDef.ID: credDef}
	revRegDefs := map[identifiers.RevocationRegistryID]*credx.RevocationRegistryDefinition{regDef.ID: regDef}

	revStates := map[string]map[uint64]*credx.RevocationState{
		string(cred.RevRegID): {timestamp: state},
	}

	proof, err := p.prover.CreateProof(proofReq, map[string]*credx.Credential{"cred_1": cred},
		reqCreds, masterSecret, schemas, credDefs, revStates)
	require.NoError(t, err)
	require.NotNil(t, proof.Identifiers[0].Timestamp)

	ok, err := p.verifier.VerifyProof(proof, proofReq, schemas, credDefs, revRegDefs,
		map[identifiers.RevocationRegistryID]map[uint64]*credx.RevocationRegistry{
			regDef.ID: {timestamp: registry},
		})
	require.NoError(t, err)
	require.True(t, ok)

	// Revoke the credential and publish the new registry snapshot.
	revokedRegistry, revokeDelta, err := p.issuer.Revoke(regDef, registry, revIdx, tailsReader)
	require.NoError(t, err)

	// The stale proof no longer verifies against the published snapshot.
	ok, err = p.verifier.VerifyProof(proof, proofReq, schemas, credDefs, revRegDefs,
		map[identifiers.RevocationRegistryID]map[uint64]*credx.RevocationRegistry{
			regDef.ID: {timestamp: revokedRegistry},
		})
	require.NoError(t, err)
	require.False(t, ok)

	// Advancing the witness across the revocation makes proving impossible.
	staleState, err := p.prover.CreateOrUpdateRevocationState(tailsReader, regDef,
		revokeDelta, revIdx, timestamp+1, state)
	require.NoError(t, err)

	revStates[string(cred.RevRegID)][timestamp+1] = staleState

	later := timestamp + 1
	reqCreds.RequestedAttributes["attr1_referent"] = credx.RequestedAttribute{
		CredID: "cred_1", Revealed: true, Timestamp: &later,
	}

	_, err = p.prover.CreateProof(proofReq, map[string]*credx.Credential{"cred_1": cred},
		reqCreds, masterSecret, schemas, credDefs, revStates)
	require.Error(t, err)
	require.Equal(t, cerrors.CredentialRevoked, cerrors.KindOf(err))
}

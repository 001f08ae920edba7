/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package issuer implements the issuer side of the credential protocol:
// schemas, credential definitions, offers, credential signing and
// revocation registry management.
package issuer

import (
	"encoding/json"
	"strconv"

	"github.com/hyperledger/aries-framework-go/component/log"

	cerrors "github.com/hyperledger/indy-credx-go/pkg/common/errors"
	"github.com/hyperledger/indy-credx-go/pkg/credx"
	"github.com/hyperledger/indy-credx-go/pkg/credx/cl"
	"github.com/hyperledger/indy-credx-go/pkg/credx/identifiers"
	"github.com/hyperledger/indy-credx-go/pkg/internal/clutil"
)

var logger = log.New("indy-credx/issuer")

// Issuer provides issuance operations on top of a CL primitive provider.
type Issuer struct {
	crypto cl.Provider
}

// New returns an issuer service backed by the given primitive provider.
func New(crypto cl.Provider) *Issuer {
	return &Issuer{crypto: crypto}
}

// NewSchema builds and validates a schema owned by originDID.
func (s *Issuer) NewSchema(originDID identifiers.DID, name, version string,
	attrNames credx.AttributeNames) (*credx.Schema, error) {
	logger.Debugf("new schema: did=%s name=%s version=%s", originDID, name, version)

	if err := originDID.Validate(); err != nil {
		return nil, err
	}

	schema := &credx.Schema{
		Ver:       credx.Version1,
		ID:        identifiers.NewSchemaID(originDID, name, version),
		Name:      name,
		Version:   version,
		AttrNames: attrNames,
	}

	if err := schema.Validate(); err != nil {
		return nil, err
	}

	return schema, nil
}

// MakeCredentialDefinitionID derives the credential definition id for a
// schema. When the schema has a ledger sequence number the id embeds it
// instead of the full schema id; the returned schema id is the reference
// actually embedded.
func (s *Issuer) MakeCredentialDefinitionID(originDID identifiers.DID,
	schemaID identifiers.SchemaID, schemaSeqNo *uint32, tag string,
	sigType credx.SignatureType) (identifiers.CredentialDefinitionID, identifiers.SchemaID, error) {
	if !originDID.IsFullyQualified() && schemaID.Method() != "" {
		return "", "", cerrors.New(cerrors.Input,
			"cannot use an unqualified origin DID with a fully qualified schema id")
	}

	schemaID = schemaID.DefaultMethod(originDID.Method())

	schemaRef := schemaID
	if schemaSeqNo != nil {
		schemaRef = identifiers.SchemaID(strconv.FormatUint(uint64(*schemaSeqNo), 10))
	}

	id := identifiers.NewCredentialDefinitionID(originDID, schemaRef, string(sigType), tag)

	return id, schemaRef, nil
}

// NewCredentialDefinition generates a credential definition for schema.
// It returns the public definition, the private key and the key
// correctness proof handed to provers inside offers.
func (s *Issuer) NewCredentialDefinition(originDID identifiers.DID, schema *credx.Schema,
	tag string, sigType credx.SignatureType, config *credx.CredentialDefinitionConfig) (
	*credx.CredentialDefinition, *credx.CredentialDefinitionPrivateKey, json.RawMessage, error) {
	logger.Debugf("new credential definition: did=%s schema=%s tag=%s", originDID, schema.ID, tag)

	if err := originDID.Validate(); err != nil {
		return nil, nil, nil, err
	}

	if err := schema.Validate(); err != nil {
		return nil, nil, nil, err
	}

	if err := sigType.Validate(); err != nil {
		return nil, nil, nil, err
	}

	id, schemaRef, err := s.MakeCredentialDefinitionID(originDID, schema.ID, schema.SeqNo, tag, sigType)
	if err != nil {
		return nil, nil, nil, err
	}

	pair, err := s.crypto.Issuer().NewCredentialDefinition(
		clutil.BuildSchemaAttrs(schema.AttrNames), config.SupportRevocation)
	if err != nil {
		return nil, nil, nil, err
	}

	def := &credx.CredentialDefinition{
		Ver:      credx.Version1,
		ID:       id,
		SchemaID: schemaRef,
		Type:     sigType,
		Tag:      tag,
		Value: credx.CredentialDefinitionData{
			Primary:    pair.PublicKey.Primary,
			Revocation: pair.PublicKey.Revocation,
		},
	}

	private := &credx.CredentialDefinitionPrivateKey{Value: pair.PrivateKey}

	return def, private, pair.KeyCorrectnessProof, nil
}

// MakeRevocationRegistryID derives the registry id for a credential
// definition. Qualification of the origin DID and the definition id must
// agree.
func (s *Issuer) MakeRevocationRegistryID(originDID identifiers.DID,
	credDefID identifiers.CredentialDefinitionID, tag string,
	regType credx.RegistryType) (identifiers.RevocationRegistryID, error) {
	origin, ok := credDefID.IssuerDID()
	if !ok {
		return "", cerrors.Newf(cerrors.Input, "malformed credential definition id %q", string(credDefID))
	}

	if originDID.IsFullyQualified() != origin.IsFullyQualified() {
		return "", cerrors.New(cerrors.Input,
			"origin DID and credential definition id must agree on qualification")
	}

	return identifiers.NewRevocationRegistryID(originDID, credDefID, string(regType), tag), nil
}

// NewCredentialOffer starts an issuance exchange against a credential
// definition. The key correctness proof is copied so later offers cannot
// alias it.
func (s *Issuer) NewCredentialOffer(schemaID identifiers.SchemaID,
	credDefID identifiers.CredentialDefinitionID,
	keyCorrectnessProof json.RawMessage) (*credx.CredentialOffer, error) {
	nonce, err := s.crypto.NewNonce()
	if err != nil {
		return nil, err
	}

	offer := &credx.CredentialOffer{
		SchemaID:            schemaID,
		CredDefID:           credDefID,
		KeyCorrectnessProof: append(json.RawMessage(nil), keyCorrectnessProof...),
		Nonce:               nonce,
	}

	if err := offer.Validate(); err != nil {
		return nil, err
	}

	return offer, nil
}

// CredentialRevocationConfig carries the registry state needed to issue a
// revocable credential.
type CredentialRevocationConfig struct {
	RegistryDefinition *credx.RevocationRegistryDefinition
	Registry           *credx.RevocationRegistry
	RegistryPrivate    *credx.RevocationRegistryDefinitionPrivate
	RegistryIndex      uint32
	TailsReader        cl.TailsAccessor
}

// NewCredential signs credential values against an offer/request pair. For
// revocable credentials the updated registry snapshot is returned, plus the
// delta when the accumulator changed during signing.
func (s *Issuer) NewCredential(credDef *credx.CredentialDefinition,
	private *credx.CredentialDefinitionPrivateKey, offer *credx.CredentialOffer,
	request *credx.CredentialRequest, values credx.CredentialValues,
	revocation *CredentialRevocationConfig) (
	*credx.Credential, *credx.RevocationRegistry, *credx.RevocationRegistryDelta, error) {
	logger.Debugf("new credential: cred_def=%s values=%d", credDef.ID, len(values))

	if err := offer.Validate(); err != nil {
		return nil, nil, nil, err
	}

	if err := request.Validate(); err != nil {
		return nil, nil, nil, err
	}

	if err := values.Validate(); err != nil {
		return nil, nil, nil, err
	}

	signReq := &cl.SignRequest{
		ProverID:            string(request.ProverDID),
		BlindedSecrets:      request.BlindedMS,
		BlindedSecretsProof: request.BlindedMSCorrectnessProof,
		OfferNonce:          offer.Nonce,
		RequestNonce:        request.Nonce,
		Values:              clutil.BuildCredentialValues(values, ""),
		PublicKey:           credDef.PublicKey(),
		PrivateKey:          private.Value,
	}

	cred := &credx.Credential{
		SchemaID:  offer.SchemaID,
		CredDefID: offer.CredDefID,
		Values:    values,
	}

	if revocation == nil {
		result, err := s.crypto.Issuer().SignCredential(signReq)
		if err != nil {
			return nil, nil, nil, err
		}

		cred.Signature = result.Signature
		cred.SignatureCorrectnessProof = result.CorrectnessProof

		return cred, nil, nil, nil
	}

	return s.newRevocableCredential(cred, signReq, offer, revocation)
}

func (s *Issuer) newRevocableCredential(cred *credx.Credential, signReq *cl.SignRequest,
	offer *credx.CredentialOffer, revocation *CredentialRevocationConfig) (
	*credx.Credential, *credx.RevocationRegistry, *credx.RevocationRegistryDelta, error) {
	regDef := revocation.RegistryDefinition

	result, err := s.crypto.Issuer().SignCredentialWithRevocation(signReq, &cl.RevocationSignConfig{
		RegistryIndex:     revocation.RegistryIndex,
		MaxCredNum:        regDef.Value.MaxCredNum,
		IssuanceByDefault: regDef.Value.IssuanceType.ByDefault(),
		Accumulator:       revocation.Registry.Value,
		PrivateKey:        revocation.RegistryPrivate.Value,
		Tails:             revocation.TailsReader,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	revRegID := regDef.ID
	if offer.MethodName != "" {
		revRegID = revRegID.ToUnqualified()
	}

	// The witness is bootstrapped from a delta rooted at the origin for the
	// accumulator observed after signing.
	witnessDelta, err := cl.DeltaFromParts(nil, result.Accumulator, nil, nil)
	if err != nil {
		return nil, nil, nil, err
	}

	witness, err := s.crypto.Prover().CreateWitness(witnessDelta, revocation.RegistryIndex,
		regDef.Value.MaxCredNum, regDef.Value.IssuanceType.ByDefault(), revocation.TailsReader)
	if err != nil {
		return nil, nil, nil, err
	}

	cred.RevRegID = revRegID
	cred.Signature = result.Signature
	cred.SignatureCorrectnessProof = result.CorrectnessProof
	cred.RevReg = result.Accumulator
	cred.Witness = witness

	registry := &credx.RevocationRegistry{Ver: credx.Version1, Value: result.Accumulator}

	var delta *credx.RevocationRegistryDelta
	if len(result.Delta) > 0 {
		delta = &credx.RevocationRegistryDelta{Ver: credx.Version1, Value: result.Delta}
	}

	return cred, registry, delta, nil
}

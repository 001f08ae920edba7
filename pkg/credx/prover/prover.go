/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package prover implements the holder side of the credential protocol:
// master secrets, credential requests, credential processing, revocation
// states and proof assembly.
package prover

import (
	"github.com/hyperledger/aries-framework-go/component/log"

	cerrors "github.com/hyperledger/indy-credx-go/pkg/common/errors"
	"github.com/hyperledger/indy-credx-go/pkg/common/secret"
	"github.com/hyperledger/indy-credx-go/pkg/credx"
	"github.com/hyperledger/indy-credx-go/pkg/credx/cl"
	"github.com/hyperledger/indy-credx-go/pkg/credx/identifiers"
	"github.com/hyperledger/indy-credx-go/pkg/internal/clutil"
)

var logger = log.New("indy-credx/prover")

// Prover provides holder operations on top of a CL primitive provider.
type Prover struct {
	crypto cl.Provider
}

// New returns a prover service backed by the given primitive provider.
func New(crypto cl.Provider) *Prover {
	return &Prover{crypto: crypto}
}

// NewMasterSecret generates a fresh link secret.
func (s *Prover) NewMasterSecret() (*credx.MasterSecret, error) {
	value, err := s.crypto.Prover().NewMasterSecret()
	if err != nil {
		return nil, err
	}

	return &credx.MasterSecret{Value: value}, nil
}

// NewCredentialRequest answers a credential offer with a blinded master
// secret commitment. The returned metadata is needed later to process the
// issued credential.
func (s *Prover) NewCredentialRequest(proverDID identifiers.DID,
	credDef *credx.CredentialDefinition, masterSecret *credx.MasterSecret,
	masterSecretID string, offer *credx.CredentialOffer) (
	*credx.CredentialRequest, *credx.CredentialRequestMetadata, error) {
	logger.Debugf("new credential request: did=%s cred_def=%s ms=%v",
		proverDID, credDef.ID, secret.Redact(masterSecretID))

	if err := proverDID.Validate(); err != nil {
		return nil, nil, err
	}

	if err := offer.Validate(); err != nil {
		return nil, nil, err
	}

	blinded, err := s.crypto.Prover().BlindCredentialSecrets(credDef.PublicKey(),
		offer.KeyCorrectnessProof, offer.Nonce, masterSecret.Value)
	if err != nil {
		return nil, nil, err
	}

	nonce, err := s.crypto.NewNonce()
	if err != nil {
		return nil, nil, err
	}

	request := &credx.CredentialRequest{
		ProverDID:                 proverDID,
		CredDefID:                 offer.CredDefID,
		BlindedMS:                 blinded.Handle,
		BlindedMSCorrectnessProof: blinded.CorrectnessProof,
		Nonce:                     nonce,
	}

	metadata := &credx.CredentialRequestMetadata{
		MasterSecretBlindingData: blinded.BlindingFactor,
		Nonce:                    nonce,
		MasterSecretName:         masterSecretID,
	}

	return request, metadata, nil
}

// ProcessCredential unblinds a received credential's signature in place,
// binding it to this prover's master secret.
func (s *Prover) ProcessCredential(cred *credx.Credential,
	metadata *credx.CredentialRequestMetadata, masterSecret *credx.MasterSecret,
	credDef *credx.CredentialDefinition,
	revRegDef *credx.RevocationRegistryDefinition) error {
	logger.Debugf("process credential: cred_def=%s", cred.CredDefID)

	if err := cred.Validate(); err != nil {
		return err
	}

	msValue, err := clutil.MasterSecretValue(masterSecret.Value)
	if err != nil {
		return err
	}

	req := &cl.ProcessSignatureRequest{
		Signature:        cred.Signature,
		CorrectnessProof: cred.SignatureCorrectnessProof,
		Values:           clutil.BuildCredentialValues(cred.Values, msValue),
		BlindingFactor:   metadata.MasterSecretBlindingData,
		PublicKey:        credDef.PublicKey(),
		RequestNonce:     metadata.Nonce,
	}

	if revRegDef != nil {
		req.RevocationPublicKey = revRegDef.Value.PublicKeys.AccumKey
		req.Accumulator = cred.RevReg
		req.Witness = cred.Witness
	}

	processed, err := s.crypto.Prover().ProcessCredentialSignature(req)
	if err != nil {
		return err
	}

	cred.Signature = processed

	return nil
}

// CreateOrUpdateRevocationState builds the revocation state for one
// credential at a ledger timestamp. With a previous state the witness is
// advanced across the delta, otherwise it is built from scratch.
func (s *Prover) CreateOrUpdateRevocationState(tailsReader cl.TailsAccessor,
	revRegDef *credx.RevocationRegistryDefinition, delta *credx.RevocationRegistryDelta,
	revRegIdx uint32, timestamp uint64,
	previous *credx.RevocationState) (*credx.RevocationState, error) {
	logger.Debugf("revocation state: registry=%s idx=%d timestamp=%d", revRegDef.ID, revRegIdx, timestamp)

	if timestamp == 0 {
		return nil, cerrors.New(cerrors.Input, "revocation state must have a timestamp")
	}

	var (
		wit cl.Witness
		err error
	)

	if previous != nil {
		wit, err = s.crypto.Prover().UpdateWitness(previous.Witness, delta.Value, revRegIdx,
			revRegDef.Value.MaxCredNum, tailsReader)
	} else {
		wit, err = s.crypto.Prover().CreateWitness(delta.Value, revRegIdx,
			revRegDef.Value.MaxCredNum, revRegDef.Value.IssuanceType.ByDefault(), tailsReader)
	}

	if err != nil {
		return nil, err
	}

	parsed, err := cl.ParseDelta(delta.Value)
	if err != nil {
		return nil, err
	}

	state := &credx.RevocationState{
		Witness:   wit,
		RevReg:    parsed.Accum,
		Timestamp: timestamp,
	}

	if err := state.Validate(); err != nil {
		return nil, err
	}

	return state, nil
}

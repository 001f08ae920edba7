/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package cl defines the boundary to the CL signature primitive. All
// cryptographic values cross it as opaque JSON blobs; the services never
// look inside them. Implementations live in subpackages (libursa behind the
// ursa build tag) and in pkg/mock/cl for tests.
package cl

import "encoding/json"

// Opaque primitive values. Their internal layout belongs to the
// implementation; services only store and forward them.
type (
	// Nonce is an issuance or presentation challenge.
	Nonce = json.RawMessage
	// KeyCorrectnessProof proves knowledge of a credential private key.
	KeyCorrectnessProof = json.RawMessage
	// MasterSecret is the prover's link secret.
	MasterSecret = json.RawMessage
	// Accumulator is a revocation registry accumulator snapshot.
	Accumulator = json.RawMessage
	// Witness is a prover-side non-revocation witness.
	Witness = json.RawMessage
)

// CredentialPublicKey is the public half of a credential definition key.
type CredentialPublicKey struct {
	Primary    json.RawMessage `json:"p_key"`
	Revocation json.RawMessage `json:"r_key,omitempty"`
}

// CredentialKeyPair is the result of generating a credential definition.
type CredentialKeyPair struct {
	PublicKey           *CredentialPublicKey
	PrivateKey          json.RawMessage
	KeyCorrectnessProof KeyCorrectnessProof
}

// BlindedSecrets is the prover's blinded master secret commitment.
type BlindedSecrets struct {
	Handle           json.RawMessage
	CorrectnessProof json.RawMessage
	BlindingFactor   json.RawMessage
}

// CredentialValues carries attribute values into the primitive, keyed by
// normalized attribute name. Known values are encoded decimal strings;
// Hidden holds the master secret under its reserved attribute name.
type CredentialValues struct {
	Known  map[string]string
	Hidden map[string]string
}

// Predicate is a single inequality to prove. PType is the primitive-level
// type (GE, LE, GT, LT) and Attr the normalized attribute name.
type Predicate struct {
	Attr  string
	PType string
	Value int64
}

// SignRequest carries everything needed to sign a credential.
type SignRequest struct {
	ProverID            string
	BlindedSecrets      json.RawMessage
	BlindedSecretsProof json.RawMessage
	OfferNonce          Nonce
	RequestNonce        Nonce
	Values              *CredentialValues
	PublicKey           *CredentialPublicKey
	PrivateKey          json.RawMessage
}

// RevocationSignConfig extends a SignRequest with registry state for
// revocable credentials.
type RevocationSignConfig struct {
	RegistryIndex     uint32
	MaxCredNum        uint32
	IssuanceByDefault bool
	Accumulator       Accumulator
	PrivateKey        json.RawMessage
	Tails             TailsAccessor
}

// CredentialSignature is the result of signing. Accumulator and Delta are
// set only for revocable credentials, and Delta only when the accumulator
// changed during signing.
type CredentialSignature struct {
	Signature        json.RawMessage
	CorrectnessProof json.RawMessage
	Accumulator      Accumulator
	Delta            json.RawMessage
}

// RevocationRegistrySetup is the result of generating a revocation registry.
type RevocationRegistrySetup struct {
	PublicKey   json.RawMessage
	PrivateKey  json.RawMessage
	Accumulator Accumulator
	Tails       TailsGenerator
}

// RegistryUpdate is a new accumulator snapshot together with the delta that
// produced it.
type RegistryUpdate struct {
	Accumulator Accumulator
	Delta       json.RawMessage
}

// ProcessSignatureRequest carries the inputs for unblinding a received
// credential signature. The revocation fields are set only for revocable
// credentials.
type ProcessSignatureRequest struct {
	Signature           json.RawMessage
	CorrectnessProof    json.RawMessage
	Values              *CredentialValues
	BlindingFactor      json.RawMessage
	PublicKey           *CredentialPublicKey
	RequestNonce        Nonce
	RevocationPublicKey json.RawMessage
	Accumulator         Accumulator
	Witness             Witness
}

// SubProofRequest is the prover-side input for one credential's sub-proof.
// Attribute names are normalized. The revocation fields are set only when a
// non-revocation proof is required.
type SubProofRequest struct {
	SchemaAttrs         []string
	RevealedAttrs       []string
	Predicates          []Predicate
	Values              *CredentialValues
	Signature           json.RawMessage
	PublicKey           *CredentialPublicKey
	RevocationPublicKey json.RawMessage
	Accumulator         Accumulator
	Witness             Witness
}

// SubProofItem is the verifier-side counterpart of SubProofRequest: what one
// sub-proof must demonstrate, against which keys and registry state.
type SubProofItem struct {
	SchemaAttrs         []string
	RevealedAttrs       []string
	Predicates          []Predicate
	PublicKey           *CredentialPublicKey
	RevocationPublicKey json.RawMessage
	Accumulator         Accumulator
}

// Issuer is the issuer side of the primitive.
type Issuer interface {
	NewCredentialDefinition(attrs []string, supportRevocation bool) (*CredentialKeyPair, error)
	NewRevocationRegistry(pub *CredentialPublicKey, maxCredNum uint32,
		issuanceByDefault bool) (*RevocationRegistrySetup, error)
	SignCredential(req *SignRequest) (*CredentialSignature, error)
	SignCredentialWithRevocation(req *SignRequest, rev *RevocationSignConfig) (*CredentialSignature, error)
	UpdateRevocationRegistry(accum Accumulator, maxCredNum uint32, issued, revoked []uint32,
		tails TailsAccessor) (*RegistryUpdate, error)
	RevokeCredential(accum Accumulator, maxCredNum, revIdx uint32, tails TailsAccessor) (*RegistryUpdate, error)
	RecoverCredential(accum Accumulator, maxCredNum, revIdx uint32, tails TailsAccessor) (*RegistryUpdate, error)
}

// Prover is the holder side of the primitive.
type Prover interface {
	NewMasterSecret() (MasterSecret, error)
	BlindCredentialSecrets(pub *CredentialPublicKey, keyProof KeyCorrectnessProof, offerNonce Nonce,
		masterSecret MasterSecret) (*BlindedSecrets, error)
	ProcessCredentialSignature(req *ProcessSignatureRequest) (json.RawMessage, error)
	CreateProof(subProofs []*SubProofRequest, nonce Nonce, masterSecret MasterSecret) (*Proof, error)
	CreateWitness(delta json.RawMessage, revIdx, maxCredNum uint32, issuanceByDefault bool,
		tails TailsAccessor) (Witness, error)
	UpdateWitness(witness Witness, delta json.RawMessage, revIdx, maxCredNum uint32,
		tails TailsAccessor) (Witness, error)
}

// Verifier is the verifier side of the primitive.
type Verifier interface {
	VerifyProof(items []*SubProofItem, proof *Proof, nonce Nonce) (bool, error)
}

// Provider bundles the three primitive services with nonce generation.
type Provider interface {
	Issuer() Issuer
	Prover() Prover
	Verifier() Verifier
	NewNonce() (Nonce, error)
}

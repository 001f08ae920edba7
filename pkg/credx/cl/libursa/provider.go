//go:build ursa
// +build ursa

/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package libursa backs the CL primitive boundary with the libursa FFI
// wrapper. It covers issuance and presentation; the accumulator operations
// of libursa are not wrapped, so revocation is not available on this
// backend.
package libursa

import (
	"github.com/hyperledger/ursa-wrapper-go/pkg/libursa/ursa"

	cerrors "github.com/hyperledger/indy-credx-go/pkg/common/errors"
	"github.com/hyperledger/indy-credx-go/pkg/credx/cl"
	"github.com/hyperledger/indy-credx-go/pkg/internal/clutil"
)

// Provider implements cl.Provider on top of libursa.
type Provider struct{}

var _ cl.Provider = (*Provider)(nil)

// New returns a libursa-backed provider.
func New() *Provider {
	return &Provider{}
}

// Issuer returns the issuer side of the primitive.
func (p *Provider) Issuer() cl.Issuer { return p }

// Prover returns the prover side of the primitive.
func (p *Provider) Prover() cl.Prover { return p }

// Verifier returns the verifier side of the primitive.
func (p *Provider) Verifier() cl.Verifier { return p }

// NewNonce returns a fresh libursa nonce.
func (p *Provider) NewNonce() (cl.Nonce, error) {
	nonce, err := ursa.NewNonce()
	if err != nil {
		return nil, cerrors.WithCause(cerrors.Unexpected, err, "generate nonce")
	}

	defer nonce.Free() // nolint: errcheck

	raw, err := nonce.ToJSON()
	if err != nil {
		return nil, cerrors.WithCause(cerrors.Unexpected, err, "serialize nonce")
	}

	return raw, nil
}

func errRevocationUnsupported(op string) error {
	return cerrors.Newf(cerrors.Input, "%s: revocation is not supported by the libursa backend", op)
}

// buildSchema assembles the credential schema and the non-schema holding
// the reserved master secret attribute.
func buildSchema(attrs []string) (*ursa.CredentialSchemaHandle, *ursa.NonCredentialSchemaHandle, error) {
	schemaBuilder, err := ursa.NewCredentialSchemaBuilder()
	if err != nil {
		return nil, nil, cerrors.WithCause(cerrors.Unexpected, err, "new schema builder")
	}

	for _, attr := range attrs {
		if err := schemaBuilder.AddAttr(attr); err != nil {
			return nil, nil, cerrors.WithCause(cerrors.Unexpected, err, "add schema attribute")
		}
	}

	schema, err := schemaBuilder.Finalize()
	if err != nil {
		return nil, nil, cerrors.WithCause(cerrors.Unexpected, err, "finalize schema")
	}

	nonSchemaBuilder, err := ursa.NewNonCredentialSchemaBuilder()
	if err != nil {
		return nil, nil, cerrors.WithCause(cerrors.Unexpected, err, "new non-schema builder")
	}

	if err := nonSchemaBuilder.AddAttr(clutil.MasterSecretAttr); err != nil {
		return nil, nil, cerrors.WithCause(cerrors.Unexpected, err, "add non-schema attribute")
	}

	nonSchema, err := nonSchemaBuilder.Finalize()
	if err != nil {
		return nil, nil, cerrors.WithCause(cerrors.Unexpected, err, "finalize non-schema")
	}

	return schema, nonSchema, nil
}

func buildValues(values *cl.CredentialValues) (*ursa.CredentialValues, error) {
	builder, err := ursa.NewValueBuilder()
	if err != nil {
		return nil, cerrors.WithCause(cerrors.Unexpected, err, "new value builder")
	}

	for attr, value := range values.Hidden {
		if err := builder.AddDecHidden(attr, value); err != nil {
			return nil, cerrors.WithCause(cerrors.Unexpected, err, "add hidden value")
		}
	}

	for attr, value := range values.Known {
		if err := builder.AddDecKnown(attr, value); err != nil {
			return nil, cerrors.WithCause(cerrors.Unexpected, err, "add known value")
		}
	}

	built, err := builder.Finalize()
	if err != nil {
		return nil, cerrors.WithCause(cerrors.Unexpected, err, "finalize values")
	}

	return built, nil
}

// NewCredentialDefinition generates a libursa credential definition key
// pair. Revocation support is not available on this backend.
func (p *Provider) NewCredentialDefinition(attrs []string, supportRevocation bool) (*cl.CredentialKeyPair, error) {
	if supportRevocation {
		return nil, errRevocationUnsupported("new credential definition")
	}

	schema, nonSchema, err := buildSchema(attrs)
	if err != nil {
		return nil, err
	}

	defer schema.Free()    // nolint: errcheck
	defer nonSchema.Free() // nolint: errcheck

	credDef, err := ursa.NewCredentialDef(schema, nonSchema, false)
	if err != nil {
		return nil, cerrors.WithCause(cerrors.Unexpected, err, "generate credential definition")
	}

	defer credDef.PubKey.Free()              // nolint: errcheck
	defer credDef.PrivKey.Free()             // nolint: errcheck
	defer credDef.KeyCorrectnessProof.Free() // nolint: errcheck

	pubKey, err := credDef.PubKey.ToJSON()
	if err != nil {
		return nil, cerrors.WithCause(cerrors.Unexpected, err, "serialize public key")
	}

	privKey, err := credDef.PrivKey.ToJSON()
	if err != nil {
		return nil, cerrors.WithCause(cerrors.Unexpected, err, "serialize private key")
	}

	keyProof, err := credDef.KeyCorrectnessProof.ToJSON()
	if err != nil {
		return nil, cerrors.WithCause(cerrors.Unexpected, err, "serialize key correctness proof")
	}

	return &cl.CredentialKeyPair{
		PublicKey:           &cl.CredentialPublicKey{Primary: pubKey},
		PrivateKey:          privKey,
		KeyCorrectnessProof: keyProof,
	}, nil
}

// SignCredential signs credential values for a non-revocable credential.
func (p *Provider) SignCredential(req *cl.SignRequest) (*cl.CredentialSignature, error) {
	values, err := buildValues(req.Values)
	if err != nil {
		return nil, err
	}

	defer values.Free() // nolint: errcheck

	pubKey, err := ursa.CredentialPublicKeyFromJSON(req.PublicKey.Primary)
	if err != nil {
		return nil, cerrors.WithCause(cerrors.Input, err, "parse credential public key")
	}

	defer pubKey.Free() // nolint: errcheck

	privKey, err := ursa.CredentialPrivateKeyFromJSON(req.PrivateKey)
	if err != nil {
		return nil, cerrors.WithCause(cerrors.Input, err, "parse credential private key")
	}

	defer privKey.Free() // nolint: errcheck

	secrets, err := ursa.BlindedCredentialSecretsFromJSON(req.BlindedSecrets)
	if err != nil {
		return nil, cerrors.WithCause(cerrors.Input, err, "parse blinded secrets")
	}

	defer secrets.Free() // nolint: errcheck

	secretsProof, err := ursa.BlindedCredentialSecretsCorrectnessProofFromJSON(req.BlindedSecretsProof)
	if err != nil {
		return nil, cerrors.WithCause(cerrors.Input, err, "parse blinded secrets correctness proof")
	}

	defer secretsProof.Free() // nolint: errcheck

	offerNonce, err := ursa.NonceFromJSON(string(req.OfferNonce))
	if err != nil {
		return nil, cerrors.WithCause(cerrors.Input, err, "parse offer nonce")
	}

	defer offerNonce.Free() // nolint: errcheck

	requestNonce, err := ursa.NonceFromJSON(string(req.RequestNonce))
	if err != nil {
		return nil, cerrors.WithCause(cerrors.Input, err, "parse request nonce")
	}

	defer requestNonce.Free() // nolint: errcheck

	signParams := ursa.NewSignatureParams()
	signParams.ProverID = req.ProverID
	signParams.CredentialPubKey = pubKey
	signParams.CredentialPrivKey = privKey
	signParams.BlindedCredentialSecrets = secrets
	signParams.BlindedCredentialSecretsCorrectnessProof = secretsProof
	signParams.CredentialNonce = offerNonce
	signParams.CredentialValues = values
	signParams.CredentialIssuanceNonce = requestNonce

	signature, correctnessProof, err := signParams.SignCredential()
	if err != nil {
		return nil, cerrors.WithCause(cerrors.Unexpected, err, "sign credential")
	}

	defer signature.Free()        // nolint: errcheck
	defer correctnessProof.Free() // nolint: errcheck

	signatureJSON, err := signature.ToJSON()
	if err != nil {
		return nil, cerrors.WithCause(cerrors.Unexpected, err, "serialize signature")
	}

	proofJSON, err := correctnessProof.ToJSON()
	if err != nil {
		return nil, cerrors.WithCause(cerrors.Unexpected, err, "serialize signature correctness proof")
	}

	return &cl.CredentialSignature{Signature: signatureJSON, CorrectnessProof: proofJSON}, nil
}

// SignCredentialWithRevocation is not available on this backend.
func (p *Provider) SignCredentialWithRevocation(*cl.SignRequest, *cl.RevocationSignConfig) (*cl.CredentialSignature, error) {
	return nil, errRevocationUnsupported("sign credential")
}

// NewRevocationRegistry is not available on this backend.
func (p *Provider) NewRevocationRegistry(*cl.CredentialPublicKey, uint32, bool) (*cl.RevocationRegistrySetup, error) {
	return nil, errRevocationUnsupported("new revocation registry")
}

// UpdateRevocationRegistry is not available on this backend.
func (p *Provider) UpdateRevocationRegistry(cl.Accumulator, uint32, []uint32, []uint32,
	cl.TailsAccessor) (*cl.RegistryUpdate, error) {
	return nil, errRevocationUnsupported("update revocation registry")
}

// RevokeCredential is not available on this backend.
func (p *Provider) RevokeCredential(cl.Accumulator, uint32, uint32, cl.TailsAccessor) (*cl.RegistryUpdate, error) {
	return nil, errRevocationUnsupported("revoke credential")
}

// RecoverCredential is not available on this backend.
func (p *Provider) RecoverCredential(cl.Accumulator, uint32, uint32, cl.TailsAccessor) (*cl.RegistryUpdate, error) {
	return nil, errRevocationUnsupported("recover credential")
}

/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuer

import (
	cerrors "github.com/hyperledger/indy-credx-go/pkg/common/errors"
	"github.com/hyperledger/indy-credx-go/pkg/credx"
	"github.com/hyperledger/indy-credx-go/pkg/credx/cl"
	"github.com/hyperledger/indy-credx-go/pkg/credx/identifiers"
	"github.com/hyperledger/indy-credx-go/pkg/credx/tails"
)

// NewRevocationRegistry creates a revocation registry for a credential
// definition, writing its tails file through tailsWriter. The registry is
// generated on-demand at the primitive level; for issuance-by-default
// every index is then issued in a single update, so the returned snapshot
// already covers the full capacity.
func (s *Issuer) NewRevocationRegistry(originDID identifiers.DID,
	credDef *credx.CredentialDefinition, tag string, regType credx.RegistryType,
	config *credx.RevocationRegistryConfig, tailsWriter tails.Writer) (
	*credx.RevocationRegistryDefinition, *credx.RevocationRegistryDefinitionPrivate,
	*credx.RevocationRegistry, error) {
	logger.Debugf("new revocation registry: cred_def=%s tag=%s max=%d", credDef.ID, tag, config.MaxCredNum)

	if err := config.Validate(); err != nil {
		return nil, nil, nil, err
	}

	if err := regType.Validate(); err != nil {
		return nil, nil, nil, err
	}

	if !credDef.SupportsRevocation() {
		return nil, nil, nil, cerrors.New(cerrors.Input,
			"credential definition does not support revocation")
	}

	if tag == "" {
		tag = credx.DefaultRegistryTag
	}

	id, err := s.MakeRevocationRegistryID(originDID, credDef.ID, tag, regType)
	if err != nil {
		return nil, nil, nil, err
	}

	setup, err := s.crypto.Issuer().NewRevocationRegistry(credDef.PublicKey(), config.MaxCredNum, false)
	if err != nil {
		return nil, nil, nil, err
	}

	location, hash, err := tailsWriter.Write(setup.Tails)
	if err != nil {
		return nil, nil, nil, err
	}

	def := &credx.RevocationRegistryDefinition{
		Ver:          credx.Version1,
		ID:           id,
		RevocDefType: regType,
		Tag:          tag,
		CredDefID:    credDef.ID,
		Value: credx.RevocationRegistryDefinitionValue{
			IssuanceType:  config.Issuance(),
			MaxCredNum:    config.MaxCredNum,
			PublicKeys:    credx.RevocationRegistryDefinitionValuePublicKeys{AccumKey: setup.PublicKey},
			TailsHash:     hash,
			TailsLocation: location,
		},
	}

	registry := &credx.RevocationRegistry{Ver: credx.Version1, Value: setup.Accumulator}

	if config.Issuance().ByDefault() {
		reader, err := tails.NewFileReader(location)
		if err != nil {
			return nil, nil, nil, err
		}

		defer func() {
			if closeErr := reader.Close(); closeErr != nil {
				logger.Warnf("close tails reader: %v", closeErr)
			}
		}()

		issued := make([]uint32, 0, config.MaxCredNum)
		for idx := uint32(1); idx <= config.MaxCredNum; idx++ {
			issued = append(issued, idx)
		}

		registry, _, err = s.UpdateRevocationRegistry(def, registry, issued, nil, reader)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	return def, &credx.RevocationRegistryDefinitionPrivate{Value: setup.PrivateKey}, registry, nil
}

// UpdateRevocationRegistry applies issued and revoked index sets to a
// registry snapshot. An index in both sets is rejected.
func (s *Issuer) UpdateRevocationRegistry(def *credx.RevocationRegistryDefinition,
	registry *credx.RevocationRegistry, issued, revoked []uint32,
	tailsReader cl.TailsAccessor) (*credx.RevocationRegistry, *credx.RevocationRegistryDelta, error) {
	if idx, overlap := firstOverlap(issued, revoked); overlap {
		return nil, nil, cerrors.Newf(cerrors.Input,
			"revocation index %d cannot be both issued and revoked", idx)
	}

	update, err := s.crypto.Issuer().UpdateRevocationRegistry(registry.Value, def.Value.MaxCredNum,
		issued, revoked, tailsReader)
	if err != nil {
		return nil, nil, err
	}

	return &credx.RevocationRegistry{Ver: credx.Version1, Value: update.Accumulator},
		&credx.RevocationRegistryDelta{Ver: credx.Version1, Value: update.Delta}, nil
}

// Revoke removes one credential from a registry snapshot, returning the new
// snapshot and the delta to publish.
func (s *Issuer) Revoke(def *credx.RevocationRegistryDefinition, registry *credx.RevocationRegistry,
	revIdx uint32, tailsReader cl.TailsAccessor) (
	*credx.RevocationRegistry, *credx.RevocationRegistryDelta, error) {
	logger.Debugf("revoke: registry=%s idx=%d", def.ID, revIdx)

	update, err := s.crypto.Issuer().RevokeCredential(registry.Value, def.Value.MaxCredNum,
		revIdx, tailsReader)
	if err != nil {
		return nil, nil, err
	}

	return &credx.RevocationRegistry{Ver: credx.Version1, Value: update.Accumulator},
		&credx.RevocationRegistryDelta{Ver: credx.Version1, Value: update.Delta}, nil
}

// Recover returns a previously revoked credential to a registry snapshot.
func (s *Issuer) Recover(def *credx.RevocationRegistryDefinition, registry *credx.RevocationRegistry,
	revIdx uint32, tailsReader cl.TailsAccessor) (
	*credx.RevocationRegistry, *credx.RevocationRegistryDelta, error) {
	logger.Debugf("recover: registry=%s idx=%d", def.ID, revIdx)

	update, err := s.crypto.Issuer().RecoverCredential(registry.Value, def.Value.MaxCredNum,
		revIdx, tailsReader)
	if err != nil {
		return nil, nil, err
	}

	return &credx.RevocationRegistry{Ver: credx.Version1, Value: update.Accumulator},
		&credx.RevocationRegistryDelta{Ver: credx.Version1, Value: update.Delta}, nil
}

func firstOverlap(issued, revoked []uint32) (uint32, bool) {
	seen := make(map[uint32]struct{}, len(issued))
	for _, idx := range issued {
		seen[idx] = struct{}{}
	}

	for _, idx := range revoked {
		if _, ok := seen[idx]; ok {
			return idx, true
		}
	}

	return 0, false
}

/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package verifier implements presentation verification: referent
// correspondence, revealed-value cross-checks, restriction queries,
// timestamp checks and finally the cryptographic proof check.
package verifier

import (
	"sort"
	"strings"

	"github.com/hyperledger/aries-framework-go/component/log"

	cerrors "github.com/hyperledger/indy-credx-go/pkg/common/errors"
	"github.com/hyperledger/indy-credx-go/pkg/credx"
	"github.com/hyperledger/indy-credx-go/pkg/credx/cl"
	"github.com/hyperledger/indy-credx-go/pkg/credx/identifiers"
	"github.com/hyperledger/indy-credx-go/pkg/internal/clutil"
)

var logger = log.New("indy-credx/verifier")

// Verifier provides verification operations on top of a CL primitive
// provider.
type Verifier struct {
	crypto cl.Provider
}

// New returns a verifier service backed by the given primitive provider.
func New(crypto cl.Provider) *Verifier {
	return &Verifier{crypto: crypto}
}

// GenerateNonce produces a fresh presentation challenge.
func (s *Verifier) GenerateNonce() (cl.Nonce, error) {
	return s.crypto.NewNonce()
}

// VerifyProof checks a presentation against the proof request it answers.
// The structural checks all run before the cryptographic one; a structural
// violation is an error, a failed cryptographic check returns false.
func (s *Verifier) VerifyProof(proof *credx.Proof, proofReq *credx.ProofRequest,
	schemas map[identifiers.SchemaID]*credx.Schema,
	credDefs map[identifiers.CredentialDefinitionID]*credx.CredentialDefinition,
	revRegDefs map[identifiers.RevocationRegistryID]*credx.RevocationRegistryDefinition,
	revRegs map[identifiers.RevocationRegistryID]map[uint64]*credx.RevocationRegistry) (bool, error) {
	logger.Debugf("verify proof: sub_proofs=%d", len(proof.Identifiers))

	if err := proofReq.Validate(); err != nil {
		return false, err
	}

	receivedRevealed, err := receivedRevealedAttrs(proof)
	if err != nil {
		return false, err
	}

	receivedUnrevealed, err := receivedUnrevealedAttrs(proof)
	if err != nil {
		return false, err
	}

	receivedPredicates, err := receivedPredicates(proof)
	if err != nil {
		return false, err
	}

	selfAttested := receivedSelfAttestedAttrs(proof)

	if err := compareAttrs(proofReq, receivedRevealed, receivedUnrevealed, selfAttested); err != nil {
		return false, err
	}

	if err := comparePredicates(proofReq, receivedPredicates); err != nil {
		return false, err
	}

	if err := verifyRevealedAttributeValues(proofReq, proof); err != nil {
		return false, err
	}

	if err := verifyRequestedRestrictions(proofReq, &proof.RequestedProof,
		receivedRevealed, receivedUnrevealed, receivedPredicates, selfAttested); err != nil {
		return false, err
	}

	if err := compareTimestamps(proofReq, receivedRevealed, receivedUnrevealed,
		receivedPredicates, selfAttested); err != nil {
		return false, err
	}

	items, err := buildSubProofItems(proof, proofReq, schemas, credDefs, revRegDefs, revRegs)
	if err != nil {
		return false, err
	}

	return s.crypto.Verifier().VerifyProof(items, &proof.Proof, proofReq.Nonce)
}

func proofIdentifier(proof *credx.Proof, index uint32) (credx.Identifier, error) {
	if int(index) >= len(proof.Identifiers) {
		return credx.Identifier{}, cerrors.Newf(cerrors.Input,
			"identifier not found for index %d", index)
	}

	return proof.Identifiers[index], nil
}

func receivedRevealedAttrs(proof *credx.Proof) (map[string]credx.Identifier, error) {
	received := make(map[string]credx.Identifier)

	for referent, info := range proof.RequestedProof.RevealedAttrs {
		id, err := proofIdentifier(proof, info.SubProofIndex)
		if err != nil {
			return nil, err
		}

		received[referent] = id
	}

	for referent, infos := range proof.RequestedProof.RevealedAttrGroups {
		id, err := proofIdentifier(proof, infos.SubProofIndex)
		if err != nil {
			return nil, err
		}

		received[referent] = id
	}

	return received, nil
}

func receivedUnrevealedAttrs(proof *credx.Proof) (map[string]credx.Identifier, error) {
	received := make(map[string]credx.Identifier)

	for referent, info := range proof.RequestedProof.UnrevealedAttrs {
		id, err := proofIdentifier(proof, info.SubProofIndex)
		if err != nil {
			return nil, err
		}

		received[referent] = id
	}

	return received, nil
}

func receivedPredicates(proof *credx.Proof) (map[string]credx.Identifier, error) {
	received := make(map[string]credx.Identifier)

	for referent, info := range proof.RequestedProof.Predicates {
		id, err := proofIdentifier(proof, info.SubProofIndex)
		if err != nil {
			return nil, err
		}

		received[referent] = id
	}

	return received, nil
}

func receivedSelfAttestedAttrs(proof *credx.Proof) map[string]struct{} {
	received := make(map[string]struct{}, len(proof.RequestedProof.SelfAttestedAttrs))

	for referent := range proof.RequestedProof.SelfAttestedAttrs {
		received[referent] = struct{}{}
	}

	return received
}

func sortedKeys(sets ...map[string]struct{}) []string {
	var keys []string

	for _, set := range sets {
		for key := range set {
			keys = append(keys, key)
		}
	}

	sort.Strings(keys)

	return keys
}

// compareAttrs requires the received attribute referents to exactly equal
// the requested ones.
func compareAttrs(proofReq *credx.ProofRequest,
	receivedRevealed, receivedUnrevealed map[string]credx.Identifier,
	selfAttested map[string]struct{}) error {
	requested := make(map[string]struct{}, len(proofReq.RequestedAttributes))
	for referent := range proofReq.RequestedAttributes {
		requested[referent] = struct{}{}
	}

	received := make(map[string]struct{},
		len(receivedRevealed)+len(receivedUnrevealed)+len(selfAttested))

	for referent := range receivedRevealed {
		received[referent] = struct{}{}
	}

	for referent := range receivedUnrevealed {
		received[referent] = struct{}{}
	}

	for referent := range selfAttested {
		received[referent] = struct{}{}
	}

	if !sameReferents(requested, received) {
		return cerrors.Newf(cerrors.Input,
			"requested attributes %v do not correspond to received %v",
			sortedKeys(requested), sortedKeys(received))
	}

	return nil
}

// comparePredicates requires the received predicate referents to exactly
// equal the requested ones.
func comparePredicates(proofReq *credx.ProofRequest,
	receivedPredicates map[string]credx.Identifier) error {
	requested := make(map[string]struct{}, len(proofReq.RequestedPredicates))
	for referent := range proofReq.RequestedPredicates {
		requested[referent] = struct{}{}
	}

	received := make(map[string]struct{}, len(receivedPredicates))
	for referent := range receivedPredicates {
		received[referent] = struct{}{}
	}

	if !sameReferents(requested, received) {
		return cerrors.Newf(cerrors.Input,
			"requested predicates %v do not correspond to received %v",
			sortedKeys(requested), sortedKeys(received))
	}

	return nil
}

func sameReferents(requested, received map[string]struct{}) bool {
	if len(requested) != len(received) {
		return false
	}

	for referent := range requested {
		if _, ok := received[referent]; !ok {
			return false
		}
	}

	return true
}

func verifyRevealedAttributeValues(proofReq *credx.ProofRequest, proof *credx.Proof) error {
	for referent, info := range proof.RequestedProof.RevealedAttrs {
		requested, ok := proofReq.RequestedAttributes[referent]
		if !ok || requested.Name == "" {
			return cerrors.Newf(cerrors.ProofRejected,
				"attribute with referent %q not found in the proof request", referent)
		}

		if err := verifyRevealedAttributeValue(requested.Name, proof, &info); err != nil {
			return err
		}
	}

	for referent, infos := range proof.RequestedProof.RevealedAttrGroups {
		requested, ok := proofReq.RequestedAttributes[referent]
		if !ok || len(requested.Names) == 0 {
			return cerrors.Newf(cerrors.ProofRejected,
				"attribute with referent %q not found in the proof request", referent)
		}

		if len(infos.Values) != len(requested.Names) {
			return cerrors.New(cerrors.Input,
				"revealed attribute group does not match the requested attribute group")
		}

		for _, name := range requested.Names {
			value, ok := infos.Values[name]
			if !ok {
				return cerrors.New(cerrors.Input,
					"revealed attribute group does not match the requested attribute group")
			}

			info := credx.RevealedAttributeInfo{
				SubProofIndex: infos.SubProofIndex,
				Raw:           value.Raw,
				Encoded:       value.Encoded,
			}

			if err := verifyRevealedAttributeValue(name, proof, &info); err != nil {
				return err
			}
		}
	}

	return nil
}

// verifyRevealedAttributeValue cross-checks one revealed value against the
// encoding embedded in its cryptographic sub-proof. Both the claimed encoded
// value and a re-encoding of the raw value must match, leading zeros aside.
func verifyRevealedAttributeValue(attrName string, proof *credx.Proof,
	info *credx.RevealedAttributeInfo) error {
	index := int(info.SubProofIndex)
	if index >= len(proof.Proof.Proofs) {
		return cerrors.Newf(cerrors.ProofRejected,
			"cryptographic sub-proof not found by index %d", index)
	}

	revealed, err := cl.SubProofRevealedAttrs(proof.Proof.Proofs[index])
	if err != nil {
		return err
	}

	target := clutil.CommonView(attrName)

	var (
		cryptoEncoded string
		found         bool
	)

	for attr, value := range revealed {
		if clutil.CommonView(attr) == target {
			cryptoEncoded, found = value, true

			break
		}
	}

	if !found {
		return cerrors.Newf(cerrors.ProofRejected,
			"attribute %q not found in the cryptographic proof", attrName)
	}

	if encoded := strings.TrimLeft(info.Encoded, "0"); encoded != cryptoEncoded {
		return cerrors.Newf(cerrors.ProofRejected,
			"encoded values for %q are different in the requested proof (%q) and the cryptographic proof (%q)",
			attrName, encoded, cryptoEncoded)
	}

	if reEncoded := strings.TrimLeft(cl.EncodeValue(info.Raw), "0"); reEncoded != cryptoEncoded {
		return cerrors.Newf(cerrors.ProofRejected,
			"raw value for %q does not encode to the value in the cryptographic proof", attrName)
	}

	return nil
}

// compareTimestamps requires a timestamp on every referent a non-revocation
// interval applies to.
func compareTimestamps(proofReq *credx.ProofRequest,
	receivedRevealed, receivedUnrevealed, receivedPredicates map[string]credx.Identifier,
	selfAttested map[string]struct{}) error {
	for referent := range proofReq.RequestedAttributes {
		info := proofReq.RequestedAttributes[referent]
		interval := credx.NonRevocInterval(proofReq.NonRevoked, info.NonRevoked)

		if validateTimestamp(receivedRevealed, referent, interval) == nil ||
			validateTimestamp(receivedUnrevealed, referent, interval) == nil {
			continue
		}

		if _, ok := selfAttested[referent]; ok {
			continue
		}

		return cerrors.Newf(cerrors.Input, "missing referent %q", referent)
	}

	for referent := range proofReq.RequestedPredicates {
		info := proofReq.RequestedPredicates[referent]
		interval := credx.NonRevocInterval(proofReq.NonRevoked, info.NonRevoked)

		if err := validateTimestamp(receivedPredicates, referent, interval); err != nil {
			return err
		}
	}

	return nil
}

func validateTimestamp(received map[string]credx.Identifier, referent string,
	interval *credx.NonRevokedInterval) error {
	if interval == nil || (interval.From == nil && interval.To == nil) {
		return nil
	}

	id, ok := received[referent]
	if !ok || id.Timestamp == nil {
		return cerrors.Newf(cerrors.Input, "missing timestamp for referent %q", referent)
	}

	return nil
}

// buildSubProofItems rebuilds, per identifier, the sub-proof request the
// prover must have answered, resolving keys and registry snapshots from the
// verifier's own view of the ledger.
func buildSubProofItems(proof *credx.Proof, proofReq *credx.ProofRequest,
	schemas map[identifiers.SchemaID]*credx.Schema,
	credDefs map[identifiers.CredentialDefinitionID]*credx.CredentialDefinition,
	revRegDefs map[identifiers.RevocationRegistryID]*credx.RevocationRegistryDefinition,
	revRegs map[identifiers.RevocationRegistryID]map[uint64]*credx.RevocationRegistry) ([]*cl.SubProofItem, error) {
	items := make([]*cl.SubProofItem, 0, len(proof.Identifiers))

	for index := range proof.Identifiers {
		identifier := proof.Identifiers[index]

		schema, ok := schemas[identifier.SchemaID]
		if !ok {
			return nil, cerrors.Newf(cerrors.Input, "schema %q not provided", string(identifier.SchemaID))
		}

		credDef, ok := credDefs[identifier.CredDefID]
		if !ok {
			return nil, cerrors.Newf(cerrors.Input,
				"credential definition %q not provided", string(identifier.CredDefID))
		}

		attrInfos := revealedAttributesForIndex(proof, proofReq, uint32(index))
		predInfos := predicatesForIndex(proof, proofReq, uint32(index))

		revealedNames, predicates, err := clutil.BuildSubProofRequest(attrInfos, predInfos)
		if err != nil {
			return nil, err
		}

		item := &cl.SubProofItem{
			SchemaAttrs:   clutil.BuildSchemaAttrs(schema.AttrNames),
			RevealedAttrs: revealedNames,
			Predicates:    predicates,
			PublicKey:     credDef.PublicKey(),
		}

		if identifier.RevRegID != "" && identifier.Timestamp != nil {
			revRegDef, ok := revRegDefs[identifier.RevRegID]
			if !ok {
				return nil, cerrors.Newf(cerrors.Input,
					"revocation registry definition %q not provided", string(identifier.RevRegID))
			}

			registries, ok := revRegs[identifier.RevRegID]
			if !ok {
				return nil, cerrors.Newf(cerrors.Input,
					"revocation registry %q not provided", string(identifier.RevRegID))
			}

			registry, ok := registries[*identifier.Timestamp]
			if !ok {
				return nil, cerrors.Newf(cerrors.Input,
					"revocation registry %q not provided at timestamp %d",
					string(identifier.RevRegID), *identifier.Timestamp)
			}

			item.RevocationPublicKey = revRegDef.Value.PublicKeys.AccumKey
			item.Accumulator = registry.Value
		}

		items = append(items, item)
	}

	return items, nil
}

// revealedAttributesForIndex collects the requested attribute infos answered
// by one sub-proof, single attributes and groups alike.
func revealedAttributesForIndex(proof *credx.Proof, proofReq *credx.ProofRequest,
	index uint32) []credx.AttributeInfo {
	var infos []credx.AttributeInfo

	for _, referent := range sortedReferents(proof.RequestedProof.RevealedAttrs) {
		revealed := proof.RequestedProof.RevealedAttrs[referent]
		if revealed.SubProofIndex != index {
			continue
		}

		if info, ok := proofReq.RequestedAttributes[referent]; ok {
			infos = append(infos, info)
		}
	}

	for _, referent := range sortedReferents(proof.RequestedProof.RevealedAttrGroups) {
		group := proof.RequestedProof.RevealedAttrGroups[referent]
		if group.SubProofIndex != index {
			continue
		}

		if info, ok := proofReq.RequestedAttributes[referent]; ok {
			infos = append(infos, info)
		}
	}

	return infos
}

func predicatesForIndex(proof *credx.Proof, proofReq *credx.ProofRequest,
	index uint32) []credx.PredicateInfo {
	var infos []credx.PredicateInfo

	for _, referent := range sortedReferents(proof.RequestedProof.Predicates) {
		predicate := proof.RequestedProof.Predicates[referent]
		if predicate.SubProofIndex != index {
			continue
		}

		if info, ok := proofReq.RequestedPredicates[referent]; ok {
			infos = append(infos, info)
		}
	}

	return infos
}

func sortedReferents[V any](m map[string]V) []string {
	referents := make([]string, 0, len(m))
	for referent := range m {
		referents = append(referents, referent)
	}

	sort.Strings(referents)

	return referents
}

/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package prover

import (
	"sort"

	cerrors "github.com/hyperledger/indy-credx-go/pkg/common/errors"
	"github.com/hyperledger/indy-credx-go/pkg/credx"
	"github.com/hyperledger/indy-credx-go/pkg/credx/cl"
	"github.com/hyperledger/indy-credx-go/pkg/credx/identifiers"
	"github.com/hyperledger/indy-credx-go/pkg/internal/clutil"
)

// provingKey groups referents by the credential and timestamp answering
// them; one sub-proof is produced per distinct key. A zero timestamp means
// no non-revocation proof.
type provingKey struct {
	credID    string
	timestamp uint64
}

type attrEntry struct {
	referent string
	info     credx.AttributeInfo
	revealed bool
}

type predEntry struct {
	referent string
	info     credx.PredicateInfo
}

// proofPlan holds the referents grouped per sub-proof in a stable order:
// referents are visited sorted, credentials keep first-encounter order.
type proofPlan struct {
	keys  []provingKey
	attrs map[provingKey][]attrEntry
	preds map[provingKey][]predEntry
}

func (p *proofPlan) key(credID string, timestamp *uint64) provingKey {
	key := provingKey{credID: credID}
	if timestamp != nil {
		key.timestamp = *timestamp
	}

	if _, ok := p.attrs[key]; !ok {
		if _, ok := p.preds[key]; !ok {
			p.keys = append(p.keys, key)
		}
	}

	return key
}

func sortedReferents[V any](m map[string]V) []string {
	referents := make([]string, 0, len(m))
	for referent := range m {
		referents = append(referents, referent)
	}

	sort.Strings(referents)

	return referents
}

func buildProofPlan(proofReq *credx.ProofRequest,
	reqCreds *credx.RequestedCredentials) (*proofPlan, error) {
	plan := &proofPlan{
		attrs: map[provingKey][]attrEntry{},
		preds: map[provingKey][]predEntry{},
	}

	for _, referent := range sortedReferents(reqCreds.RequestedAttributes) {
		requested := reqCreds.RequestedAttributes[referent]

		info, ok := proofReq.RequestedAttributes[referent]
		if !ok {
			return nil, cerrors.Newf(cerrors.Input,
				"requested attribute %q is not in the proof request", referent)
		}

		key := plan.key(requested.CredID, requested.Timestamp)
		plan.attrs[key] = append(plan.attrs[key], attrEntry{
			referent: referent,
			info:     info,
			revealed: requested.Revealed,
		})
	}

	for _, referent := range sortedReferents(reqCreds.RequestedPredicates) {
		requested := reqCreds.RequestedPredicates[referent]

		info, ok := proofReq.RequestedPredicates[referent]
		if !ok {
			return nil, cerrors.Newf(cerrors.Input,
				"requested predicate %q is not in the proof request", referent)
		}

		key := plan.key(requested.CredID, requested.Timestamp)
		plan.preds[key] = append(plan.preds[key], predEntry{referent: referent, info: info})
	}

	return plan, nil
}

// CreateProof builds a presentation answering proofReq according to
// reqCreds. credentials maps credential ids of the plan onto credentials;
// revStates maps registry ids onto their states per timestamp.
func (s *Prover) CreateProof(proofReq *credx.ProofRequest,
	credentials map[string]*credx.Credential, reqCreds *credx.RequestedCredentials,
	masterSecret *credx.MasterSecret, schemas map[identifiers.SchemaID]*credx.Schema,
	credDefs map[identifiers.CredentialDefinitionID]*credx.CredentialDefinition,
	revStates map[string]map[uint64]*credx.RevocationState) (*credx.Proof, error) {
	logger.Debugf("create proof: attrs=%d preds=%d",
		len(reqCreds.RequestedAttributes), len(reqCreds.RequestedPredicates))

	if err := proofReq.Validate(); err != nil {
		return nil, err
	}

	if err := reqCreds.Validate(); err != nil {
		return nil, err
	}

	plan, err := buildProofPlan(proofReq, reqCreds)
	if err != nil {
		return nil, err
	}

	msValue, err := clutil.MasterSecretValue(masterSecret.Value)
	if err != nil {
		return nil, err
	}

	requestedProof := credx.NewRequestedProof()

	for referent, value := range reqCreds.SelfAttestedAttributes {
		if _, ok := proofReq.RequestedAttributes[referent]; !ok {
			return nil, cerrors.Newf(cerrors.Input,
				"self-attested attribute %q is not in the proof request", referent)
		}

		requestedProof.SelfAttestedAttrs[referent] = value
	}

	subProofs := make([]*cl.SubProofRequest, 0, len(plan.keys))
	ids := make([]credx.Identifier, 0, len(plan.keys))

	for i, key := range plan.keys {
		cred, ok := credentials[key.credID]
		if !ok {
			return nil, cerrors.Newf(cerrors.Input, "credential %q not found", key.credID)
		}

		schema, ok := schemas[cred.SchemaID]
		if !ok {
			return nil, cerrors.Newf(cerrors.Input, "schema %q not found", string(cred.SchemaID))
		}

		credDef, ok := credDefs[cred.CredDefID]
		if !ok {
			return nil, cerrors.Newf(cerrors.Input,
				"credential definition %q not found", string(cred.CredDefID))
		}

		subProof, identifier, err := s.buildSubProofRequest(uint32(i), key, cred, schema,
			credDef, plan, revStates, &requestedProof, msValue)
		if err != nil {
			return nil, err
		}

		subProofs = append(subProofs, subProof)
		ids = append(ids, *identifier)
	}

	proof, err := s.crypto.Prover().CreateProof(subProofs, proofReq.Nonce, masterSecret.Value)
	if err != nil {
		return nil, err
	}

	return &credx.Proof{
		Proof:          *proof,
		RequestedProof: requestedProof,
		Identifiers:    ids,
	}, nil
}

func (s *Prover) buildSubProofRequest(index uint32, key provingKey, cred *credx.Credential,
	schema *credx.Schema, credDef *credx.CredentialDefinition, plan *proofPlan,
	revStates map[string]map[uint64]*credx.RevocationState,
	requestedProof *credx.RequestedProof, msValue string) (*cl.SubProofRequest, *credx.Identifier, error) {
	var revealedInfos []credx.AttributeInfo

	for _, entry := range plan.attrs[key] {
		if err := entry.info.Validate(); err != nil {
			return nil, nil, err
		}

		if !entry.revealed {
			if len(entry.info.Names) > 0 {
				return nil, nil, cerrors.Newf(cerrors.Input,
					"attribute group %q must be revealed", entry.referent)
			}

			requestedProof.UnrevealedAttrs[entry.referent] = credx.SubProofReferent{SubProofIndex: index}

			continue
		}

		revealedInfos = append(revealedInfos, entry.info)

		if entry.info.Name != "" {
			value, ok := clutil.FindAttribute(cred.Values, entry.info.Name)
			if !ok {
				return nil, nil, cerrors.Newf(cerrors.Input,
					"credential %q does not contain attribute %q", key.credID, entry.info.Name)
			}

			requestedProof.RevealedAttrs[entry.referent] = credx.RevealedAttributeInfo{
				SubProofIndex: index,
				Raw:           value.Raw,
				Encoded:       value.Encoded,
			}

			continue
		}

		group := credx.RevealedAttributeGroupInfo{
			SubProofIndex: index,
			Values:        make(map[string]credx.AttributeValues, len(entry.info.Names)),
		}

		for _, name := range entry.info.Names {
			value, ok := clutil.FindAttribute(cred.Values, name)
			if !ok {
				return nil, nil, cerrors.Newf(cerrors.Input,
					"credential %q does not contain attribute %q", key.credID, name)
			}

			group.Values[name] = value
		}

		if requestedProof.RevealedAttrGroups == nil {
			requestedProof.RevealedAttrGroups = map[string]credx.RevealedAttributeGroupInfo{}
		}

		requestedProof.RevealedAttrGroups[entry.referent] = group
	}

	predicateInfos := make([]credx.PredicateInfo, 0, len(plan.preds[key]))

	for _, entry := range plan.preds[key] {
		predicateInfos = append(predicateInfos, entry.info)
		requestedProof.Predicates[entry.referent] = credx.SubProofReferent{SubProofIndex: index}
	}

	revealedNames, predicates, err := clutil.BuildSubProofRequest(revealedInfos, predicateInfos)
	if err != nil {
		return nil, nil, err
	}

	subProof := &cl.SubProofRequest{
		SchemaAttrs:   clutil.BuildSchemaAttrs(schema.AttrNames),
		RevealedAttrs: revealedNames,
		Predicates:    predicates,
		Values:        clutil.BuildCredentialValues(cred.Values, msValue),
		Signature:     cred.Signature,
		PublicKey:     credDef.PublicKey(),
	}

	identifier := &credx.Identifier{
		SchemaID:  cred.SchemaID,
		CredDefID: cred.CredDefID,
		RevRegID:  cred.RevRegID,
	}

	if key.timestamp != 0 {
		if cred.RevRegID == "" {
			return nil, nil, cerrors.Newf(cerrors.Input,
				"credential %q has no revocation registry", key.credID)
		}

		states, ok := revStates[string(cred.RevRegID)]
		if !ok {
			return nil, nil, cerrors.Newf(cerrors.Input,
				"no revocation states for registry %q", string(cred.RevRegID))
		}

		state, ok := states[key.timestamp]
		if !ok {
			return nil, nil, cerrors.Newf(cerrors.Input,
				"no revocation state for registry %q at timestamp %d",
				string(cred.RevRegID), key.timestamp)
		}

		subProof.RevocationPublicKey = credDef.Value.Revocation
		subProof.Accumulator = state.RevReg
		subProof.Witness = state.Witness

		timestamp := key.timestamp
		identifier.Timestamp = &timestamp
	}

	return subProof, identifier, nil
}

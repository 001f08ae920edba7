/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifier

import (
	"regexp"

	cerrors "github.com/hyperledger/indy-credx-go/pkg/common/errors"
	"github.com/hyperledger/indy-credx-go/pkg/credx"
)

// internalTagMatcher matches the synthetic per-attribute restriction tags.
// The value family compares against revealed raw values, the marker family
// only tests presence.
var internalTagMatcher = regexp.MustCompile(`^attr::([^:]+)::(value|marker)$`)

// filter is the credential metadata a restriction query runs against,
// resolved from the identifier of the sub-proof answering the referent.
type filter struct {
	schemaID        string
	schemaIssuerDID string
	schemaName      string
	schemaVersion   string
	credDefID       string
	issuerDID       string
}

// verifyRequestedRestrictions evaluates every declared restriction query.
// A referent answered self-attested is exempt only when its restriction is
// absent or an empty combinator.
func verifyRequestedRestrictions(proofReq *credx.ProofRequest,
	requestedProof *credx.RequestedProof,
	receivedRevealed, receivedUnrevealed, receivedPredicates map[string]credx.Identifier,
	selfAttested map[string]struct{}) error {
	attrIdentifiers := make(map[string]credx.Identifier,
		len(receivedRevealed)+len(receivedUnrevealed))

	for referent, id := range receivedRevealed {
		attrIdentifiers[referent] = id
	}

	for referent, id := range receivedUnrevealed {
		attrIdentifiers[referent] = id
	}

	for referent := range proofReq.RequestedAttributes {
		info := proofReq.RequestedAttributes[referent]
		if isSelfAttested(referent, &info, selfAttested) || info.Restrictions == nil {
			continue
		}

		fltr, err := gatherFilterInfo(referent, attrIdentifiers)
		if err != nil {
			return err
		}

		attrValues, err := attributeValueMap(referent, &info, requestedProof)
		if err != nil {
			return err
		}

		if err := processOperatorMap(attrValues, info.Restrictions, fltr); err != nil {
			return cerrors.Extendf(err,
				"requested restriction validation failed for attributes %v",
				sortedReferents(attrValues))
		}
	}

	for referent := range proofReq.RequestedPredicates {
		info := proofReq.RequestedPredicates[referent]
		if info.Restrictions == nil {
			continue
		}

		fltr, err := gatherFilterInfo(referent, receivedPredicates)
		if err != nil {
			return err
		}

		if err := processOperator(info.Name, info.Restrictions, fltr, nil); err != nil {
			return cerrors.Extendf(err,
				"requested restriction validation failed for predicate %q", info.Name)
		}
	}

	return nil
}

// attributeValueMap maps each requested attribute name onto its revealed raw
// value, or nil when the attribute was not revealed.
func attributeValueMap(referent string, info *credx.AttributeInfo,
	requestedProof *credx.RequestedProof) (map[string]*string, error) {
	if info.Name != "" {
		values := make(map[string]*string, 1)
		values[info.Name] = nil

		if revealed, ok := requestedProof.RevealedAttrs[referent]; ok {
			raw := revealed.Raw
			values[info.Name] = &raw
		}

		return values, nil
	}

	if len(info.Names) > 0 {
		group, ok := requestedProof.RevealedAttrGroups[referent]
		if !ok {
			return nil, cerrors.Newf(cerrors.Input,
				"proof does not have referent %q from the proof request", referent)
		}

		values := make(map[string]*string, len(info.Names))

		for _, name := range info.Names {
			values[name] = nil

			if value, ok := group.Values[name]; ok {
				raw := value.Raw
				values[name] = &raw
			}
		}

		return values, nil
	}

	return nil, cerrors.New(cerrors.Input,
		`attribute restriction should contain "name" or "names" param`)
}

func isSelfAttested(referent string, info *credx.AttributeInfo,
	selfAttested map[string]struct{}) bool {
	if info.Restrictions != nil && !info.Restrictions.IsEmptyCombinator() {
		return false
	}

	_, ok := selfAttested[referent]

	return ok
}

func gatherFilterInfo(referent string,
	ids map[string]credx.Identifier) (*filter, error) {
	id, ok := ids[referent]
	if !ok {
		return nil, cerrors.Newf(cerrors.InvalidState,
			"identifier not found for referent %q", referent)
	}

	schemaDID, schemaName, schemaVersion, ok := id.SchemaID.Parts()
	if !ok {
		return nil, cerrors.Newf(cerrors.Input,
			"invalid schema id %q: wrong number of parts", string(id.SchemaID))
	}

	issuerDID, ok := id.CredDefID.IssuerDID()
	if !ok {
		return nil, cerrors.Newf(cerrors.Input,
			"invalid credential definition id %q: wrong number of parts", string(id.CredDefID))
	}

	return &filter{
		schemaID:        string(id.SchemaID),
		schemaIssuerDID: string(schemaDID),
		schemaName:      schemaName,
		schemaVersion:   schemaVersion,
		credDefID:       string(id.CredDefID),
		issuerDID:       string(issuerDID),
	}, nil
}

func processOperator(attr string, query *credx.Query, fltr *filter,
	revealedValue *string) error {
	return processOperatorMap(map[string]*string{attr: revealedValue}, query, fltr)
}

func processOperatorMap(attrValues map[string]*string, query *credx.Query,
	fltr *filter) error {
	switch query.Op {
	case credx.OpEq:
		if err := processFilter(attrValues, query.Key, query.Value, fltr); err != nil {
			return cerrors.Extendf(err,
				"$eq operator validation failed for tag: %q, value: %q", query.Key, query.Value)
		}

		return nil
	case credx.OpNeq:
		if processFilter(attrValues, query.Key, query.Value, fltr) != nil {
			return nil
		}

		return cerrors.Newf(cerrors.ProofRejected,
			"$neq operator validation failed for tag: %q, value: %q. Condition was passed.",
			query.Key, query.Value)
	case credx.OpIn:
		for _, value := range query.Values {
			if processFilter(attrValues, query.Key, value, fltr) == nil {
				return nil
			}
		}

		return cerrors.Newf(cerrors.ProofRejected,
			"$in operator validation failed for tag: %q, values %v.", query.Key, query.Values)
	case credx.OpAnd:
		for _, sub := range query.Queries {
			if err := processOperatorMap(attrValues, sub, fltr); err != nil {
				return cerrors.Extend(err, "$and operator validation failed.")
			}
		}

		return nil
	case credx.OpOr:
		for _, sub := range query.Queries {
			if processOperatorMap(attrValues, sub, fltr) == nil {
				return nil
			}
		}

		return cerrors.New(cerrors.ProofRejected,
			"$or operator validation failed. All conditions were failed.")
	case credx.OpNot:
		if len(query.Queries) != 1 {
			return cerrors.New(cerrors.Input, "$not must wrap exactly one query")
		}

		if processOperatorMap(attrValues, query.Queries[0], fltr) != nil {
			return nil
		}

		return cerrors.New(cerrors.ProofRejected,
			"$not operator validation failed. All conditions were passed.")
	default:
		return cerrors.New(cerrors.ProofRejected, "unsupported operator")
	}
}

func processFilter(attrValues map[string]*string, tag, tagValue string,
	fltr *filter) error {
	switch tag {
	case "schema_id":
		return processField(tag, fltr.schemaID, tagValue)
	case "schema_issuer_did":
		return processField(tag, fltr.schemaIssuerDID, tagValue)
	case "schema_name":
		return processField(tag, fltr.schemaName, tagValue)
	case "schema_version":
		return processField(tag, fltr.schemaVersion, tagValue)
	case "cred_def_id":
		return processField(tag, fltr.credDefID, tagValue)
	case "issuer_did":
		return processField(tag, fltr.issuerDID, tagValue)
	}

	if caps := internalTagMatcher.FindStringSubmatch(tag); caps != nil {
		if caps[2] == "marker" {
			return nil
		}

		if value, ok := attrValues[caps[1]]; ok {
			return checkInternalTagRevealedValue(tag, tagValue, value)
		}
	}

	return cerrors.Newf(cerrors.Input, "unknown filter type %q", tag)
}

func processField(field, filterValue, tagValue string) error {
	if filterValue == tagValue {
		return nil
	}

	return cerrors.Newf(cerrors.ProofRejected,
		"%q values are different: expected: %q, actual: %q", field, tagValue, filterValue)
}

// checkInternalTagRevealedValue enforces a value tag against the revealed
// raw value. An unrevealed attribute passes vacuously.
func checkInternalTagRevealedValue(tag, tagValue string, revealed *string) error {
	if revealed != nil && *revealed != tagValue {
		return cerrors.Newf(cerrors.ProofRejected,
			"%q values are different: expected: %q, actual: %q", tag, tagValue, *revealed)
	}

	return nil
}

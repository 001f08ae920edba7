/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package identifiers

import (
	"regexp"
	"strings"

	cerrors "github.com/hyperledger/indy-credx-go/pkg/common/errors"
)

// RevRegMarker is the entity marker segment of a revocation registry id.
const RevRegMarker = "4"

// The embedded credential definition id can itself contain colons, so the
// registry id is split by pattern rather than by segment count. The DID
// match is lazy: it ends at the first ":4:" marker.
var revRegIDPattern = regexp.MustCompile(
	`^(?:revreg:([a-z0-9]+):)?(.*?):4:(.+):([^:]+):([^:]+)$`)

// RevocationRegistryID identifies a revocation registry:
// "<did>:4:<cred def id>:<type>:<tag>", optionally qualified under the
// revreg prefix.
type RevocationRegistryID string

// NewRevocationRegistryID builds a revocation registry id. A
// method-qualified DID yields a qualified id.
func NewRevocationRegistryID(did DID, credDefID CredentialDefinitionID,
	regType, tag string) RevocationRegistryID {
	id := strings.Join([]string{string(did), RevRegMarker, string(credDefID), regType, tag}, Delimiter)

	return RevocationRegistryID(revRegQualifier.Qualify(did.Method(), id))
}

// Parts splits the id into origin DID, credential definition id, registry
// type and tag. ok is false for ids that do not match the grammar.
func (id RevocationRegistryID) Parts() (did DID, credDefID CredentialDefinitionID,
	regType, tag string, ok bool) {
	m := revRegIDPattern.FindStringSubmatch(string(id))
	if m == nil {
		return "", "", "", "", false
	}

	return DID(m[2]), CredentialDefinitionID(m[3]), m[4], m[5], true
}

// Method returns the qualification method, or "".
func (id RevocationRegistryID) Method() string {
	return revRegQualifier.Method(string(id))
}

// ToUnqualified rebuilds the id from unqualified components, including the
// embedded credential definition id. Ids that do not parse are returned
// unchanged.
func (id RevocationRegistryID) ToUnqualified() RevocationRegistryID {
	did, credDefID, regType, tag, ok := id.Parts()
	if !ok {
		return id
	}

	return NewRevocationRegistryID(did.ToUnqualified(), credDefID.ToUnqualified(), regType, tag)
}

// DefaultMethod qualifies an unqualified id under method.
func (id RevocationRegistryID) DefaultMethod(method string) RevocationRegistryID {
	did, credDefID, regType, tag, ok := id.Parts()
	if !ok || id.Method() != "" {
		return id
	}

	return NewRevocationRegistryID(did.DefaultMethod(method), credDefID.DefaultMethod(method), regType, tag)
}

// Validate accepts ids matching the registry id grammar.
func (id RevocationRegistryID) Validate() error {
	if _, _, _, _, ok := id.Parts(); ok {
		return nil
	}

	return cerrors.Newf(cerrors.Input, "revocation registry id validation failed: %q", string(id))
}

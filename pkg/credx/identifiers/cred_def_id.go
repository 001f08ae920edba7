/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package identifiers

import (
	"strings"

	cerrors "github.com/hyperledger/indy-credx-go/pkg/common/errors"
)

const (
	// CredDefMarker is the entity marker segment of a credential definition id.
	CredDefMarker = "3"

	// segment counts of the accepted credential definition id layouts:
	// with/without tag, schema id by sequence number or by full id, and the
	// qualified variants of each.
	credDefSeqNoLen        = 4
	credDefSeqNoTagLen     = 5
	credDefSchemaIDLen     = 7
	credDefSchemaIDTagLen  = 8
	credDefQualSeqNoTagLen = 9
	credDefQualSchemaIDLen = 16
)

// CredentialDefinitionID identifies a credential definition:
// "<did>:3:<sig_type>:<schema ref>[:<tag>]", optionally qualified under
// the creddef prefix. The schema ref is a schema id or a ledger sequence
// number.
type CredentialDefinitionID string

// NewCredentialDefinitionID builds a credential definition id. An empty tag
// is omitted together with its delimiter. A method-qualified DID yields a
// qualified id.
func NewCredentialDefinitionID(did DID, schemaID SchemaID, sigType, tag string) CredentialDefinitionID {
	segments := []string{string(did), CredDefMarker, sigType, string(schemaID)}
	if tag != "" {
		segments = append(segments, tag)
	}

	id := strings.Join(segments, Delimiter)

	return CredentialDefinitionID(credDefQualifier.Qualify(did.Method(), id))
}

// Parts splits the id into origin DID, signature type, schema reference and
// tag. ok is false for ids that do not match any accepted layout.
func (id CredentialDefinitionID) Parts() (did DID, sigType string, schemaID SchemaID, tag string, ok bool) {
	parts := strings.Split(string(id), Delimiter)

	switch len(parts) {
	case credDefSeqNoLen:
		// <did>:3:<sig_type>:<schema seq no>
		return DID(parts[0]), parts[2], SchemaID(parts[3]), "", true
	case credDefSeqNoTagLen:
		// <did>:3:<sig_type>:<schema seq no>:<tag>
		return DID(parts[0]), parts[2], SchemaID(parts[3]), parts[4], true
	case credDefSchemaIDLen:
		// <did>:3:<sig_type>:<schema id (4 segments)>
		return DID(parts[0]), parts[2], SchemaID(strings.Join(parts[3:7], Delimiter)), "", true
	case credDefSchemaIDTagLen:
		// <did>:3:<sig_type>:<schema id (4 segments)>:<tag>
		return DID(parts[0]), parts[2], SchemaID(strings.Join(parts[3:7], Delimiter)), parts[7], true
	case credDefQualSeqNoTagLen:
		// creddef:<method>:did:<method>:<value>:3:<sig_type>:<schema seq no>:<tag>
		return DID(strings.Join(parts[2:5], Delimiter)), parts[6], SchemaID(parts[7]), parts[8], true
	case credDefQualSchemaIDLen:
		// creddef:<method>:did:<method>:<value>:3:<sig_type>:<schema id (8 segments)>:<tag>
		return DID(strings.Join(parts[2:5], Delimiter)), parts[6],
			SchemaID(strings.Join(parts[7:15], Delimiter)), parts[15], true
	default:
		return "", "", "", "", false
	}
}

// IssuerDID returns the origin DID of the credential definition.
func (id CredentialDefinitionID) IssuerDID() (DID, bool) {
	did, _, _, _, ok := id.Parts()

	return did, ok
}

// Method returns the qualification method, or "".
func (id CredentialDefinitionID) Method() string {
	return credDefQualifier.Method(string(id))
}

// ToUnqualified rebuilds the id from unqualified components, including the
// embedded schema id. Ids that do not parse are returned unchanged.
func (id CredentialDefinitionID) ToUnqualified() CredentialDefinitionID {
	did, sigType, schemaID, tag, ok := id.Parts()
	if !ok {
		return id
	}

	return NewCredentialDefinitionID(did.ToUnqualified(), schemaID.ToUnqualified(), sigType, tag)
}

// DefaultMethod qualifies an unqualified id under method.
func (id CredentialDefinitionID) DefaultMethod(method string) CredentialDefinitionID {
	did, sigType, schemaID, tag, ok := id.Parts()
	if !ok || id.Method() != "" {
		return id
	}

	return NewCredentialDefinitionID(did.DefaultMethod(method), schemaID.DefaultMethod(method), sigType, tag)
}

// Validate accepts ids matching one of the known layouts.
func (id CredentialDefinitionID) Validate() error {
	if _, _, _, _, ok := id.Parts(); ok {
		return nil
	}

	return cerrors.Newf(cerrors.Input, "credential definition id validation failed: %q", string(id))
}

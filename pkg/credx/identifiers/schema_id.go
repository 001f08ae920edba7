/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package identifiers

import (
	"strconv"
	"strings"

	cerrors "github.com/hyperledger/indy-credx-go/pkg/common/errors"
)

// SchemaMarker is the entity marker segment of a schema id.
const SchemaMarker = "2"

// SchemaID identifies a schema: "<did>:2:<name>:<version>", optionally
// qualified as "schema:<method>:<qualified did>:2:<name>:<version>".
// A bare ledger sequence number is also accepted where ids are validated.
type SchemaID string

// NewSchemaID builds a schema id from its components. A method-qualified
// DID yields a qualified schema id.
func NewSchemaID(did DID, name, version string) SchemaID {
	id := strings.Join([]string{string(did), SchemaMarker, name, version}, Delimiter)

	return SchemaID(schemaQualifier.Qualify(did.Method(), id))
}

// Parts splits the id into origin DID, name and version. ok is false for
// ids that do not match the grammar (including bare sequence numbers).
func (id SchemaID) Parts() (did DID, name, version string, ok bool) {
	parts := strings.Split(string(id), Delimiter)

	switch len(parts) {
	case 4:
		// <did>:2:<name>:<version>
		return DID(parts[0]), parts[2], parts[3], true
	case 8:
		// schema:<method>:did:<method>:<value>:2:<name>:<version>
		return DID(strings.Join(parts[2:5], Delimiter)), parts[6], parts[7], true
	default:
		return "", "", "", false
	}
}

// Method returns the qualification method, or "".
func (id SchemaID) Method() string {
	return schemaQualifier.Method(string(id))
}

// ToUnqualified rebuilds the id from unqualified components. Ids that do
// not parse are returned unchanged.
func (id SchemaID) ToUnqualified() SchemaID {
	did, name, version, ok := id.Parts()
	if !ok {
		return id
	}

	return NewSchemaID(did.ToUnqualified(), name, version)
}

// DefaultMethod qualifies an unqualified id under method.
func (id SchemaID) DefaultMethod(method string) SchemaID {
	did, name, version, ok := id.Parts()
	if !ok || id.Method() != "" {
		return id
	}

	return NewSchemaID(did.DefaultMethod(method), name, version)
}

// Validate accepts well-formed schema ids and bare ledger sequence numbers.
func (id SchemaID) Validate() error {
	if _, err := strconv.ParseUint(string(id), 10, 64); err == nil {
		return nil
	}

	if _, _, _, ok := id.Parts(); ok {
		return nil
	}

	return cerrors.Newf(cerrors.Input, "schema id validation failed: %q", string(id))
}

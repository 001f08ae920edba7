/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package identifiers

import (
	"github.com/btcsuite/btcutil/base58"

	cerrors "github.com/hyperledger/indy-credx-go/pkg/common/errors"
)

// DID is an issuer or prover identifier, either unqualified (a base58
// string) or method-qualified ("did:<method>:<value>").
type DID string

// Method returns the DID method, or "" for an unqualified DID.
func (d DID) Method() string {
	return didQualifier.Method(string(d))
}

// IsFullyQualified reports whether the DID carries a method.
func (d DID) IsFullyQualified() bool {
	return d.Method() != ""
}

// ToUnqualified strips the method qualification, if any.
func (d DID) ToUnqualified() DID {
	return DID(didQualifier.Unqualify(string(d)))
}

// DefaultMethod qualifies an unqualified DID under method. Already-qualified
// DIDs and an empty method are returned unchanged.
func (d DID) DefaultMethod(method string) DID {
	if d.IsFullyQualified() {
		return d
	}

	return DID(didQualifier.Qualify(method, string(d)))
}

// Validate checks the DID. The unqualified form must be base58 for 16 or
// 32 bytes; qualified DIDs only need a non-empty value segment.
func (d DID) Validate() error {
	if d == "" {
		return cerrors.New(cerrors.Input, "DID validation failed: empty DID")
	}

	if d.IsFullyQualified() {
		return nil
	}

	decoded := base58.Decode(string(d))
	if len(decoded) != 16 && len(decoded) != 32 {
		return cerrors.Newf(cerrors.Input,
			"DID validation failed: %q must be a base58 string of 16 or 32 bytes", string(d))
	}

	return nil
}

/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cl

import (
	"crypto/sha256"
	"math/big"
	"strconv"
)

// EncodeValue maps a raw attribute value onto the decimal string the
// primitive signs. Values that parse as 32-bit integers are used directly;
// anything else becomes the decimal rendering of its SHA-256 digest.
func EncodeValue(raw string) string {
	if i, err := strconv.ParseInt(raw, 10, 32); err == nil {
		return strconv.FormatInt(i, 10)
	}

	digest := sha256.Sum256([]byte(raw))

	return new(big.Int).SetBytes(digest[:]).String()
}
